package metadata_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/rohmanhakim/nps-explorer/internal/metadata"
	"github.com/stretchr/testify/assert"
)

func TestRecorder_RecordError_WritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	recorder := metadata.NewRecorder(&buf, "debug")

	recorder.RecordError(
		time.Now(),
		"requestcache",
		"Cache.Fetch",
		metadata.CauseNetworkFailure,
		"fetcher error: 5xx",
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrURL, "https://www.nps.gov/state/mi/index.htm"),
		},
	)

	out := buf.String()
	assert.Contains(t, out, "operation failed")
	assert.Contains(t, out, "requestcache")
	assert.Contains(t, out, "network_failure")
	assert.Contains(t, out, "https://www.nps.gov/state/mi/index.htm")
}

func TestRecorder_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	recorder := metadata.NewRecorder(&buf, "warn")

	recorder.RecordCacheLookup(metadata.NamespacePage, "https://www.nps.gov/isro/index.htm", true)
	recorder.RecordFetch("https://www.nps.gov/isro/index.htm", 200, time.Millisecond, "text/html")

	assert.Empty(t, buf.String(), "debug and info records must be filtered at warn level")
}

func TestRecorder_UnknownLevelFallsBackToWarn(t *testing.T) {
	var buf bytes.Buffer
	recorder := metadata.NewRecorder(&buf, "chatty")

	recorder.RecordFetch("https://www.nps.gov", 200, time.Millisecond, "text/html")
	assert.Empty(t, buf.String())

	recorder.RecordError(time.Now(), "cachestore", "Load", metadata.CauseStorageFailure, "corrupt", nil)
	assert.Contains(t, buf.String(), "storage_failure")
}

func TestRecorder_DebugIncludesCacheLookups(t *testing.T) {
	var buf bytes.Buffer
	recorder := metadata.NewRecorder(&buf, "debug")

	recorder.RecordCacheLookup(metadata.NamespaceRegion, "michigan", false)

	out := buf.String()
	assert.Contains(t, out, "cache lookup")
	assert.Contains(t, out, "michigan")
	assert.Contains(t, out, "region")
}

func TestErrorCause_String(t *testing.T) {
	tests := []struct {
		cause metadata.ErrorCause
		want  string
	}{
		{metadata.CauseUnknown, "unknown"},
		{metadata.CauseNetworkFailure, "network_failure"},
		{metadata.CauseContentInvalid, "content_invalid"},
		{metadata.CauseStorageFailure, "storage_failure"},
		{metadata.CauseInvariantViolation, "invariant_violation"},
		{metadata.CauseConfigInvalid, "config_invalid"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cause.String())
		})
	}
}
