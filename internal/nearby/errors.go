package nearby

import (
	"fmt"

	"github.com/rohmanhakim/nps-explorer/internal/metadata"
	"github.com/rohmanhakim/nps-explorer/pkg/failure"
)

type NearbyErrorCause string

const (
	ErrCauseMissingAPIKey  NearbyErrorCause = "missing api key"
	ErrCauseMissingZipcode NearbyErrorCause = "site has no zipcode"
	ErrCauseNetworkFailure NearbyErrorCause = "network issues"
	ErrCauseTimeout        NearbyErrorCause = "timeout"
	ErrCauseBadStatus      NearbyErrorCause = "non-2xx response"
	ErrCauseAPIRejected    NearbyErrorCause = "api rejected request"
	ErrCauseDecodeFailure  NearbyErrorCause = "undecodable response"
)

type NearbyError struct {
	Message   string
	Retryable bool
	Cause     NearbyErrorCause
}

func (e *NearbyError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("nearby error: %s", e.Cause)
	}
	return fmt.Sprintf("nearby error: %s: %s", e.Cause, e.Message)
}

func (e *NearbyError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

// mapNearbyErrorToMetadataCause maps nearby-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapNearbyErrorToMetadataCause(err *NearbyError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseMissingAPIKey:
		return metadata.CauseConfigInvalid
	case ErrCauseNetworkFailure, ErrCauseTimeout, ErrCauseBadStatus, ErrCauseAPIRejected:
		return metadata.CauseNetworkFailure
	case ErrCauseDecodeFailure, ErrCauseMissingZipcode:
		return metadata.CauseContentInvalid
	default:
		return metadata.CauseUnknown
	}
}
