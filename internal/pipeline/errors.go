package pipeline

import (
	"fmt"

	"github.com/rohmanhakim/nps-explorer/internal/metadata"
	"github.com/rohmanhakim/nps-explorer/pkg/failure"
)

type PipelineErrorCause string

const (
	ErrCauseUnknownRegion PipelineErrorCause = "unknown region"
	ErrCauseInvalidURL    PipelineErrorCause = "invalid url"
	ErrCauseCrawlFailed   PipelineErrorCause = "crawl failed"
)

type PipelineError struct {
	Message   string
	Retryable bool
	Cause     PipelineErrorCause
}

func (e *PipelineError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("pipeline error: %s", e.Cause)
	}
	return fmt.Sprintf("pipeline error: %s: %s", e.Cause, e.Message)
}

func (e *PipelineError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func mapPipelineErrorToMetadataCause(err *PipelineError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseInvalidURL:
		return metadata.CauseContentInvalid
	default:
		return metadata.CauseUnknown
	}
}
