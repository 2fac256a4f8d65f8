package requestcache_test

import (
	"context"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/rohmanhakim/nps-explorer/internal/cachestore"
	"github.com/rohmanhakim/nps-explorer/internal/fetcher"
	"github.com/rohmanhakim/nps-explorer/internal/metadata"
	"github.com/rohmanhakim/nps-explorer/pkg/failure"
	"github.com/stretchr/testify/mock"
)

type fetcherMock struct {
	mock.Mock
}

func (f *fetcherMock) Fetch(
	ctx context.Context,
	fetchParam fetcher.FetchParam,
) (fetcher.FetchResult, failure.ClassifiedError) {
	u := fetchParam.URL()
	args := f.Called(u.String())
	result := args.Get(0).(fetcher.FetchResult)
	var err failure.ClassifiedError
	if args.Get(1) != nil {
		err = args.Get(1).(failure.ClassifiedError)
	}
	return result, err
}

func htmlResult(rawURL string, body string) fetcher.FetchResult {
	u, _ := url.Parse(rawURL)
	return fetcher.NewFetchResultForTest(*u, []byte(body), 200, "text/html")
}

func newStore(t *testing.T) *cachestore.Store {
	t.Helper()
	return cachestore.Load(filepath.Join(t.TempDir(), "cache.json"), &metadata.NoopSink{})
}
