package requestcache

import (
	"fmt"

	"github.com/rohmanhakim/nps-explorer/internal/metadata"
	"github.com/rohmanhakim/nps-explorer/pkg/failure"
)

type RequestCacheErrorCause string

const (
	ErrCauseInvalidURL RequestCacheErrorCause = "invalid url"
)

type RequestCacheError struct {
	Message   string
	Retryable bool
	Cause     RequestCacheErrorCause
	URL       string
}

func (e *RequestCacheError) Error() string {
	return fmt.Sprintf("request cache error: %s: %s", e.Cause, e.URL)
}

func (e *RequestCacheError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func mapRequestCacheErrorToMetadataCause(err *RequestCacheError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseInvalidURL:
		return metadata.CauseContentInvalid
	default:
		return metadata.CauseUnknown
	}
}
