package cachestore_test

import (
	"sync"
	"time"

	"github.com/rohmanhakim/nps-explorer/internal/metadata"
)

// recordingSink keeps the causes of recorded errors.
type recordingSink struct {
	metadata.NoopSink
	mu     sync.Mutex
	errors []metadata.ErrorCause
}

func (r *recordingSink) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause metadata.ErrorCause,
	details string,
	attrs []metadata.Attribute,
) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, cause)
}
