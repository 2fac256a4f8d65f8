package requestcache

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rohmanhakim/nps-explorer/internal/cachestore"
	"github.com/rohmanhakim/nps-explorer/internal/fetcher"
	"github.com/rohmanhakim/nps-explorer/internal/metadata"
	"github.com/rohmanhakim/nps-explorer/pkg/failure"
	"github.com/rohmanhakim/nps-explorer/pkg/hashutil"
	"golang.org/x/sync/singleflight"
)

/*
Cache puts the page fetcher behind the cache store.

- The key is the request URL verbatim. No normalization, so two spellings
  of the same page are two entries.
- A hit never touches the network.
- A miss fetches once, persists the body, then returns it.
- Failures are returned uncached and are not retried. The next call for
  the same URL goes to the network again.
- Concurrent misses for one URL share a single fetch.
*/
type Cache struct {
	store        *cachestore.Store
	fetcher      fetcher.Fetcher
	userAgent    string
	metadataSink metadata.MetadataSink
	inflight     singleflight.Group
}

func New(
	store *cachestore.Store,
	pageFetcher fetcher.Fetcher,
	userAgent string,
	metadataSink metadata.MetadataSink,
) *Cache {
	return &Cache{
		store:        store,
		fetcher:      pageFetcher,
		userAgent:    userAgent,
		metadataSink: metadataSink,
	}
}

// Fetch returns the body of rawURL, from the store when present.
func (c *Cache) Fetch(ctx context.Context, rawURL string) (string, failure.ClassifiedError) {
	body, found, err := c.lookup(rawURL)
	if err != nil {
		return "", err
	}
	c.metadataSink.RecordCacheLookup(metadata.NamespacePage, rawURL, found)
	if found {
		return body, nil
	}

	v, doErr, _ := c.inflight.Do(rawURL, func() (interface{}, error) {
		// another caller may have stored it while we waited
		if body, found, err := c.lookup(rawURL); err != nil {
			return nil, err
		} else if found {
			return body, nil
		}
		body, err := c.fetchAndStore(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		return body, nil
	})
	if doErr != nil {
		var classified failure.ClassifiedError
		if errors.As(doErr, &classified) {
			return "", classified
		}
		return "", &fetcher.FetchError{
			Message:   doErr.Error(),
			Retryable: false,
			Cause:     fetcher.ErrCauseNetworkFailure,
			URL:       rawURL,
		}
	}
	return v.(string), nil
}

func (c *Cache) lookup(rawURL string) (string, bool, failure.ClassifiedError) {
	var body string
	found, err := c.store.GetAs(rawURL, &body)
	if err != nil {
		return "", true, err
	}
	return body, found, nil
}

func (c *Cache) fetchAndStore(ctx context.Context, rawURL string) (string, failure.ClassifiedError) {
	fetchUrl, parseErr := url.Parse(rawURL)
	if parseErr != nil || !fetchUrl.IsAbs() {
		reqErr := &RequestCacheError{
			Message:   fmt.Sprintf("%v", parseErr),
			Retryable: false,
			Cause:     ErrCauseInvalidURL,
			URL:       rawURL,
		}
		c.metadataSink.RecordError(
			time.Now(),
			"requestcache",
			"Cache.Fetch",
			mapRequestCacheErrorToMetadataCause(reqErr),
			reqErr.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrURL, rawURL),
			},
		)
		return "", reqErr
	}

	result, err := c.fetcher.Fetch(ctx, fetcher.NewFetchParam(*fetchUrl, c.userAgent))
	if err != nil {
		return "", err
	}

	// the store holds JSON strings; normalize first so a miss returns
	// exactly what later hits will read back
	body := strings.ToValidUTF8(string(result.Body()), "\uFFFD")
	if err := c.store.Put(rawURL, body); err != nil {
		return "", err
	}

	c.metadataSink.RecordArtifact(
		metadata.ArtifactPageBody,
		rawURL,
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrDigest, hashutil.ShortDigest([]byte(body), 12)),
			metadata.NewAttr(metadata.AttrSizeByte, strconv.Itoa(len(body))),
		},
	)
	return body, nil
}
