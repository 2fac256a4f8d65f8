package resultcache

import (
	"fmt"

	"github.com/rohmanhakim/nps-explorer/internal/metadata"
	"github.com/rohmanhakim/nps-explorer/pkg/failure"
)

type ResultCacheErrorCause string

const (
	ErrCauseRegionNotCached ResultCacheErrorCause = "region not cached"
	ErrCauseBuildFailed     ResultCacheErrorCause = "build failed"
)

type ResultCacheError struct {
	Message   string
	Retryable bool
	Cause     ResultCacheErrorCause
	Region    string
}

func (e *ResultCacheError) Error() string {
	return fmt.Sprintf("result cache error: %s: %q", e.Cause, e.Region)
}

func (e *ResultCacheError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func mapResultCacheErrorToMetadataCause(err *ResultCacheError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseRegionNotCached:
		return metadata.CauseInvariantViolation
	default:
		return metadata.CauseUnknown
	}
}
