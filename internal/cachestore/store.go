package cachestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/rohmanhakim/nps-explorer/internal/metadata"
	"github.com/rohmanhakim/nps-explorer/pkg/failure"
	"github.com/rohmanhakim/nps-explorer/pkg/fileutil"
)

/*
Store is the single durable key→value map behind both cache layers.

Persistence contract
- The whole map is one JSON object on disk.
- Every Put/Update serializes the entire map and replaces the file
  before returning. There is no write-ahead log and no batching, so each
  write costs O(total cache size) I/O. That ceiling is accepted for an
  interactive, low-frequency workload.
- The file is replaced via temp file + rename, so a reader never sees a
  half-written document.
- If a flush fails the in-memory change is rolled back, keeping memory
  and disk identical.

Concurrency
- Reads share an RWMutex read lock; all writers are serialized.
- There is no cross-process file locking. Two processes writing the
  same cache file are unsupported and the last writer wins.
*/
type Store struct {
	mu           sync.RWMutex
	path         string
	entries      map[string]json.RawMessage
	metadataSink metadata.MetadataSink
}

// New returns an empty store that will persist to path.
func New(path string, metadataSink metadata.MetadataSink) *Store {
	return &Store{
		path:         path,
		entries:      make(map[string]json.RawMessage),
		metadataSink: metadataSink,
	}
}

// Load reads the cache document at path. A missing file yields an empty
// store. An unreadable or corrupt file is recorded and also yields an empty
// store; Load never fails.
func Load(path string, metadataSink metadata.MetadataSink) *Store {
	store := New(path, metadataSink)

	content, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			store.recordLoadFailure(err)
		}
		return store
	}

	var entries map[string]json.RawMessage
	if err := json.Unmarshal(content, &entries); err != nil {
		store.recordLoadFailure(err)
		return store
	}
	if entries != nil {
		store.entries = entries
	}
	return store
}

func (s *Store) recordLoadFailure(err error) {
	s.metadataSink.RecordError(
		time.Now(),
		"cachestore",
		"Load",
		metadata.CauseStorageFailure,
		fmt.Sprintf("starting with empty cache: %v", err),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrPath, s.path),
		},
	)
}

func (s *Store) Path() string {
	return s.path
}

// Get returns a copy of the raw JSON value stored under key.
func (s *Store) Get(key string) (json.RawMessage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	out := make(json.RawMessage, len(raw))
	copy(out, raw)
	return out, true
}

// GetAs decodes the value under key into dst. A value whose JSON shape
// cannot be decoded into dst belongs to another namespace and is reported
// as ErrCauseNamespaceCollision rather than reinterpreted.
func (s *Store) GetAs(key string, dst any) (bool, failure.ClassifiedError) {
	raw, ok := s.Get(key)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		cacheErr := &CacheError{
			Message:   fmt.Sprintf("decode %T: %v", dst, err),
			Retryable: false,
			Cause:     ErrCauseNamespaceCollision,
			Key:       key,
		}
		s.recordCacheError("Store.GetAs", cacheErr)
		return true, cacheErr
	}
	return true, nil
}

// Put stores value under key and flushes the whole document.
func (s *Store) Put(key string, value any) failure.ClassifiedError {
	encoded, err := json.Marshal(value)
	if err != nil {
		storageErr := &StorageError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseEncodeFailure,
			Path:      s.path,
		}
		s.recordStorageError("Store.Put", key, storageErr)
		return storageErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setAndFlushLocked("Store.Put", key, encoded)
}

// Update performs a read-modify-write of key under the writer lock.
// fn receives the current raw value (nil when absent) and returns the
// replacement. An error from fn aborts the update without touching the store.
func (s *Store) Update(
	key string,
	fn func(current json.RawMessage, exists bool) (any, error),
) failure.ClassifiedError {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.entries[key]
	next, err := fn(current, exists)
	if err != nil {
		var classified failure.ClassifiedError
		if errors.As(err, &classified) {
			return classified
		}
		return &CacheError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseUpdateRejected,
			Key:       key,
		}
	}

	encoded, err := json.Marshal(next)
	if err != nil {
		storageErr := &StorageError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseEncodeFailure,
			Path:      s.path,
		}
		s.recordStorageError("Store.Update", key, storageErr)
		return storageErr
	}
	return s.setAndFlushLocked("Store.Update", key, encoded)
}

// setAndFlushLocked assigns key and persists the map, restoring the
// previous value if the file could not be written. Caller holds s.mu.
func (s *Store) setAndFlushLocked(action string, key string, encoded json.RawMessage) failure.ClassifiedError {
	previous, existed := s.entries[key]
	s.entries[key] = encoded

	if storageErr := s.flushLocked(); storageErr != nil {
		if existed {
			s.entries[key] = previous
		} else {
			delete(s.entries, key)
		}
		s.recordStorageError(action, key, storageErr)
		return storageErr
	}

	s.metadataSink.RecordArtifact(
		metadata.ArtifactCacheFile,
		s.path,
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrKey, key),
		},
	)
	return nil
}

// Flush writes the current document to disk.
func (s *Store) Flush() failure.ClassifiedError {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if storageErr := s.flushLocked(); storageErr != nil {
		s.recordStorageError("Store.Flush", "", storageErr)
		return storageErr
	}
	return nil
}

func (s *Store) flushLocked() *StorageError {
	data, err := json.Marshal(s.entries)
	if err != nil {
		return &StorageError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseEncodeFailure,
			Path:      s.path,
		}
	}

	if writeErr := fileutil.WriteFileAtomic(s.path, data, 0644); writeErr != nil {
		cause := ErrCauseWriteFailure
		var fileErr *fileutil.FileError
		if errors.As(writeErr, &fileErr) && fileErr.Cause == fileutil.ErrCauseDiskFull {
			cause = ErrCauseDiskFull
		}
		return &StorageError{
			Message:   writeErr.Error(),
			Retryable: cause == ErrCauseDiskFull,
			Cause:     cause,
			Path:      s.path,
		}
	}
	return nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Keys returns every key in ascending order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *Store) recordStorageError(action string, key string, err *StorageError) {
	s.metadataSink.RecordError(
		time.Now(),
		"cachestore",
		action,
		mapStorageErrorToMetadataCause(err),
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrPath, err.Path),
			metadata.NewAttr(metadata.AttrKey, key),
			metadata.NewAttr(metadata.AttrMessage, err.Message),
		},
	)
}

func (s *Store) recordCacheError(action string, err *CacheError) {
	s.metadataSink.RecordError(
		time.Now(),
		"cachestore",
		action,
		mapCacheErrorToMetadataCause(err),
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrKey, err.Key),
			metadata.NewAttr(metadata.AttrMessage, err.Message),
		},
	)
}
