package requestcache_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rohmanhakim/nps-explorer/internal/cachestore"
	"github.com/rohmanhakim/nps-explorer/internal/fetcher"
	"github.com/rohmanhakim/nps-explorer/internal/metadata"
	"github.com/rohmanhakim/nps-explorer/internal/requestcache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const isroURL = "https://www.nps.gov/isro/index.htm"

func TestFetch_MissThenHit(t *testing.T) {
	store := newStore(t)
	f := &fetcherMock{}
	f.On("Fetch", isroURL).Return(htmlResult(isroURL, "<html>isro</html>"), nil).Once()

	cache := requestcache.New(store, f, "ua", &metadata.NoopSink{})

	first, err := cache.Fetch(context.Background(), isroURL)
	require.Nil(t, err)
	second, err := cache.Fetch(context.Background(), isroURL)
	require.Nil(t, err)

	assert.Equal(t, "<html>isro</html>", first)
	assert.Equal(t, first, second)
	f.AssertNumberOfCalls(t, "Fetch", 1)
}

func TestFetch_PersistsAcrossReload(t *testing.T) {
	store := newStore(t)
	f := &fetcherMock{}
	f.On("Fetch", isroURL).Return(htmlResult(isroURL, "<html>isro</html>"), nil).Once()

	_, err := requestcache.New(store, f, "ua", &metadata.NoopSink{}).Fetch(context.Background(), isroURL)
	require.Nil(t, err)

	reloaded := cachestore.Load(store.Path(), &metadata.NoopSink{})
	offline := &fetcherMock{}
	body, err := requestcache.New(reloaded, offline, "ua", &metadata.NoopSink{}).Fetch(context.Background(), isroURL)

	require.Nil(t, err)
	assert.Equal(t, "<html>isro</html>", body)
	offline.AssertNotCalled(t, "Fetch", isroURL)
}

func TestFetch_InvalidUTF8BodySameOnMissAndHit(t *testing.T) {
	store := newStore(t)
	f := &fetcherMock{}
	f.On("Fetch", isroURL).Return(htmlResult(isroURL, "<a class=\"Hero-title\">Caf\xe9</a>"), nil).Once()

	cache := requestcache.New(store, f, "ua", &metadata.NoopSink{})
	miss, err := cache.Fetch(context.Background(), isroURL)
	require.Nil(t, err)
	hit, err := cache.Fetch(context.Background(), isroURL)
	require.Nil(t, err)

	reloaded := cachestore.Load(store.Path(), &metadata.NoopSink{})
	afterReload, err := requestcache.New(reloaded, &fetcherMock{}, "ua", &metadata.NoopSink{}).Fetch(context.Background(), isroURL)
	require.Nil(t, err)

	assert.Equal(t, "<a class=\"Hero-title\">Caf\uFFFD</a>", miss)
	assert.Equal(t, miss, hit)
	assert.Equal(t, miss, afterReload)
	f.AssertNumberOfCalls(t, "Fetch", 1)
}

func TestFetch_KeyIsVerbatim(t *testing.T) {
	store := newStore(t)
	f := &fetcherMock{}
	f.On("Fetch", isroURL).Return(htmlResult(isroURL, "a"), nil).Once()
	f.On("Fetch", isroURL+"?").Return(htmlResult(isroURL+"?", "b"), nil).Once()

	cache := requestcache.New(store, f, "ua", &metadata.NoopSink{})
	_, err := cache.Fetch(context.Background(), isroURL)
	require.Nil(t, err)
	_, err = cache.Fetch(context.Background(), isroURL+"?")
	require.Nil(t, err)

	assert.Equal(t, 2, store.Len())
	f.AssertExpectations(t)
}

func TestFetch_FailureIsNotCached(t *testing.T) {
	store := newStore(t)
	f := &fetcherMock{}
	fetchErr := &fetcher.FetchError{Message: "boom", Retryable: true, Cause: fetcher.ErrCauseRequest5xx}
	f.On("Fetch", isroURL).Return(fetcher.FetchResult{}, fetchErr).Once()
	f.On("Fetch", isroURL).Return(htmlResult(isroURL, "<html>ok</html>"), nil).Once()

	cache := requestcache.New(store, f, "ua", &metadata.NoopSink{})

	_, err := cache.Fetch(context.Background(), isroURL)
	require.NotNil(t, err)
	var got *fetcher.FetchError
	require.True(t, errors.As(err, &got))
	assert.Equal(t, fetcher.ErrCauseRequest5xx, got.Cause)
	assert.Equal(t, 0, store.Len())

	body, err := cache.Fetch(context.Background(), isroURL)
	require.Nil(t, err)
	assert.Equal(t, "<html>ok</html>", body)
	f.AssertNumberOfCalls(t, "Fetch", 2)
}

func TestFetch_RegionEntryUnderURLKeyIsCollision(t *testing.T) {
	store := newStore(t)
	require.Nil(t, store.Put(isroURL, map[string][]string{"info": {}, "site_urls": {}}))
	f := &fetcherMock{}

	_, err := requestcache.New(store, f, "ua", &metadata.NoopSink{}).Fetch(context.Background(), isroURL)

	require.NotNil(t, err)
	var cacheErr *cachestore.CacheError
	require.True(t, errors.As(err, &cacheErr))
	assert.Equal(t, cachestore.ErrCauseNamespaceCollision, cacheErr.Cause)
	f.AssertNotCalled(t, "Fetch", isroURL)
}

func TestFetch_RelativeURLRejected(t *testing.T) {
	f := &fetcherMock{}

	_, err := requestcache.New(newStore(t), f, "ua", &metadata.NoopSink{}).Fetch(context.Background(), "/isro/")

	require.NotNil(t, err)
	var reqErr *requestcache.RequestCacheError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, requestcache.ErrCauseInvalidURL, reqErr.Cause)
}

func TestFetch_ConcurrentDistinctURLs(t *testing.T) {
	store := newStore(t)
	f := &fetcherMock{}
	urls := []string{
		"https://www.nps.gov/a/",
		"https://www.nps.gov/b/",
		"https://www.nps.gov/c/",
		"https://www.nps.gov/d/",
	}
	for _, u := range urls {
		f.On("Fetch", u).Return(htmlResult(u, "<html>"+u+"</html>"), nil).Once()
	}

	cache := requestcache.New(store, f, "ua", &metadata.NoopSink{})
	var wg sync.WaitGroup
	for _, u := range urls {
		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			body, err := cache.Fetch(context.Background(), u)
			assert.Nil(t, err)
			assert.Equal(t, "<html>"+u+"</html>", body)
		}(u)
	}
	wg.Wait()

	assert.Equal(t, len(urls), store.Len())
	f.AssertExpectations(t)
}
