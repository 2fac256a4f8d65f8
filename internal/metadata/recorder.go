package metadata

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

/*
Metadata Collected
- Fetch timestamps, status codes and durations
- Cache hits and misses per namespace
- Persisted artifacts (cache file flushes, exported reports)
- Classified errors

Metadata is write-only.
No component may read metadata to decide whether to use the cache,
fetch, or abort.
*/

type MetadataSink interface {
	RecordError(
		observedAt time.Time,
		packageName string,
		action string,
		cause ErrorCause,
		details string,
		attrs []Attribute,
	)
	RecordFetch(
		fetchUrl string,
		httpStatus int,
		duration time.Duration,
		contentType string,
	)
	RecordCacheLookup(namespace CacheNamespace, key string, hit bool)
	RecordArtifact(kind ArtifactKind, path string, attrs []Attribute)
}

/*
Recorder writes every event as one structured log record.
Ordering guarantees:
- Events are written synchronously in the order they are received.
- Concurrent site fetches interleave; no global ordering is implied.
*/
type Recorder struct {
	logger *log.Logger
}

// NewRecorder builds a Recorder that writes to w at the given level
// ("debug", "info", "warn", "error"). Unknown levels fall back to warn.
func NewRecorder(w io.Writer, level string) *Recorder {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.WarnLevel
	}
	logger := log.NewWithOptions(w, log.Options{
		Level:           lvl,
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Prefix:          "nps-explorer",
	})
	return &Recorder{logger: logger}
}

// NewRecorderWithLogger wraps an existing logger.
func NewRecorderWithLogger(logger *log.Logger) *Recorder {
	return &Recorder{logger: logger}
}

func (r *Recorder) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	details string,
	attrs []Attribute,
) {
	keyvals := []interface{}{
		"observed_at", observedAt.Format(time.RFC3339),
		"package", packageName,
		"action", action,
		"cause", cause.String(),
		"details", details,
	}
	r.logger.Error("operation failed", append(keyvals, attrsToKeyvals(attrs)...)...)
}

func (r *Recorder) RecordFetch(
	fetchUrl string,
	httpStatus int,
	duration time.Duration,
	contentType string,
) {
	r.logger.Info("fetched",
		"url", fetchUrl,
		"status", httpStatus,
		"duration", duration,
		"content_type", contentType,
	)
}

func (r *Recorder) RecordCacheLookup(namespace CacheNamespace, key string, hit bool) {
	r.logger.Debug("cache lookup",
		"namespace", string(namespace),
		"key", key,
		"hit", hit,
	)
}

func (r *Recorder) RecordArtifact(kind ArtifactKind, path string, attrs []Attribute) {
	keyvals := []interface{}{
		"kind", string(kind),
		"path", path,
	}
	r.logger.Debug("artifact written", append(keyvals, attrsToKeyvals(attrs)...)...)
}

func attrsToKeyvals(attrs []Attribute) []interface{} {
	keyvals := make([]interface{}, 0, len(attrs)*2)
	for _, attr := range attrs {
		keyvals = append(keyvals, string(attr.Key), attr.Value)
	}
	return keyvals
}

// NoopSink, struct that implements MetadataSink but does nothing.
// Callers (or tests) decide whether to inject a Recorder or NoopSink.
type NoopSink struct{}

func (n *NoopSink) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	details string,
	attrs []Attribute,
) {
}

func (n *NoopSink) RecordFetch(
	fetchUrl string,
	httpStatus int,
	duration time.Duration,
	contentType string,
) {
}

func (n *NoopSink) RecordCacheLookup(namespace CacheNamespace, key string, hit bool) {}

func (n *NoopSink) RecordArtifact(kind ArtifactKind, path string, attrs []Attribute) {}
