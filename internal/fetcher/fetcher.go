package fetcher

import (
	"context"

	"github.com/rohmanhakim/nps-explorer/pkg/failure"
)

// Fetcher performs exactly one GET per call. Callers that want a page
// at most once per cache lifetime go through the request cache instead.
type Fetcher interface {
	Fetch(ctx context.Context, fetchParam FetchParam) (FetchResult, failure.ClassifiedError)
}
