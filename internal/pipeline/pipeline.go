package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/rohmanhakim/nps-explorer/internal/cachestore"
	"github.com/rohmanhakim/nps-explorer/internal/config"
	"github.com/rohmanhakim/nps-explorer/internal/extractor"
	"github.com/rohmanhakim/nps-explorer/internal/fetcher"
	"github.com/rohmanhakim/nps-explorer/internal/metadata"
	"github.com/rohmanhakim/nps-explorer/internal/nearby"
	"github.com/rohmanhakim/nps-explorer/internal/record"
	"github.com/rohmanhakim/nps-explorer/internal/requestcache"
	"github.com/rohmanhakim/nps-explorer/internal/resultcache"
	"github.com/rohmanhakim/nps-explorer/pkg/failure"
	"github.com/rohmanhakim/nps-explorer/pkg/limiter"
	"golang.org/x/sync/errgroup"
)

/*
Pipeline walks the portal hierarchy:

	region discovery -> region listing -> site detail -> nearby places

Cache policy per stage
- Region discovery uses the live fetcher. The index is fetched once per
  process, memoized in memory and never written to the cache file.
- Listing and detail pages go through the request cache.
- Region listings and nearby results go through the region cache.

Stages detect and classify failures; they never retry. A listing fails as
a whole when any of its sites fails, and nothing is cached for it.

Concurrency
- concurrency == 1: sites are fetched one after another.
- concurrency > 1: sites of one region are fetched by a bounded errgroup.
  Results land in an index-addressed slice, so listing order is kept.
  The first failure cancels the remaining fetches.
*/

// PageSource returns the body of a page, typically from the request cache.
type PageSource interface {
	Fetch(ctx context.Context, rawURL string) (string, failure.ClassifiedError)
}

// NearbySource returns the places around a zipcode.
type NearbySource interface {
	FetchNearby(ctx context.Context, zipcode string) ([]record.PlaceRecord, failure.ClassifiedError)
}

type Pipeline struct {
	metadataSink metadata.MetadataSink
	liveFetcher  fetcher.Fetcher
	pages        PageSource
	domExtractor extractor.DomExtractor
	nearby       NearbySource
	results      *resultcache.RegionCache
	indexURL     url.URL
	userAgent    string
	concurrency  int

	indexMu     sync.Mutex
	regionIndex record.RegionIndex
}

// NewPipeline wires the production stages from cfg around store.
func NewPipeline(
	cfg config.Config,
	store *cachestore.Store,
	metadataSink metadata.MetadataSink,
) *Pipeline {
	rateLimiter := limiter.NewHostLimiter(cfg.BaseDelay(), cfg.Jitter(), cfg.RandomSeed())

	htmlFetcher := fetcher.NewHtmlFetcher(metadataSink, cfg.Timeout(), rateLimiter)
	nearbyClient := nearby.NewClient(metadataSink, nearby.ClientParam{
		APIURL:     cfg.APIURL(),
		APIKey:     cfg.APIKey(),
		Radius:     cfg.Radius(),
		MaxMatches: cfg.MaxMatches(),
		Timeout:    cfg.Timeout(),
	})

	return NewPipelineWithDeps(Deps{
		MetadataSink: metadataSink,
		LiveFetcher:  htmlFetcher,
		Pages:        requestcache.New(store, htmlFetcher, cfg.UserAgent(), metadataSink),
		Nearby:       nearbyClient,
		Results:      resultcache.New(store, metadataSink),
		IndexURL:     cfg.IndexURL(),
		UserAgent:    cfg.UserAgent(),
		Concurrency:  cfg.Concurrency(),
	})
}

type Deps struct {
	MetadataSink metadata.MetadataSink
	LiveFetcher  fetcher.Fetcher
	Pages        PageSource
	Nearby       NearbySource
	Results      *resultcache.RegionCache
	IndexURL     url.URL
	UserAgent    string
	Concurrency  int
}

// NewPipelineWithDeps creates a Pipeline with injected dependencies for testing.
func NewPipelineWithDeps(deps Deps) *Pipeline {
	concurrency := deps.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Pipeline{
		metadataSink: deps.MetadataSink,
		liveFetcher:  deps.LiveFetcher,
		pages:        deps.Pages,
		domExtractor: extractor.NewDomExtractor(deps.MetadataSink),
		nearby:       deps.Nearby,
		results:      deps.Results,
		indexURL:     deps.IndexURL,
		userAgent:    deps.UserAgent,
		concurrency:  concurrency,
	}
}

// Results exposes the region cache for read-only views (export, inspection).
func (p *Pipeline) Results() *resultcache.RegionCache {
	return p.results
}

// DiscoverRegions returns the region index, fetching the index page on the
// first successful call of the process. Failures are not memoized.
func (p *Pipeline) DiscoverRegions(ctx context.Context) (record.RegionIndex, failure.ClassifiedError) {
	p.indexMu.Lock()
	defer p.indexMu.Unlock()

	if p.regionIndex != nil {
		return p.regionIndex, nil
	}

	result, err := p.liveFetcher.Fetch(ctx, fetcher.NewFetchParam(p.indexURL, p.userAgent))
	if err != nil {
		return nil, err
	}

	index, err := p.domExtractor.ParseRegionIndex(p.indexURL, result.Body())
	if err != nil {
		return nil, err
	}
	p.regionIndex = index
	return index, nil
}

// ListRegion crawls every site of the listing at regionURL, in listing order.
func (p *Pipeline) ListRegion(ctx context.Context, regionURL string) ([]record.SiteRecord, failure.ClassifiedError) {
	listingURL, perr := p.parseURL("Pipeline.ListRegion", regionURL)
	if perr != nil {
		return nil, perr
	}

	body, err := p.pages.Fetch(ctx, regionURL)
	if err != nil {
		return nil, err
	}

	siteURLs, err := p.domExtractor.ParseRegionListing(listingURL, []byte(body))
	if err != nil {
		return nil, err
	}

	if p.concurrency == 1 {
		sites := make([]record.SiteRecord, 0, len(siteURLs))
		for _, siteURL := range siteURLs {
			site, err := p.Site(ctx, siteURL)
			if err != nil {
				return nil, err
			}
			sites = append(sites, site)
		}
		return sites, nil
	}

	sites := make([]record.SiteRecord, len(siteURLs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, siteURL := range siteURLs {
		g.Go(func() error {
			site, err := p.Site(gctx, siteURL)
			if err != nil {
				return err
			}
			sites[i] = site
			return nil
		})
	}
	if waitErr := g.Wait(); waitErr != nil {
		var classified failure.ClassifiedError
		if errors.As(waitErr, &classified) {
			return nil, classified
		}
		return nil, &PipelineError{Message: waitErr.Error(), Cause: ErrCauseCrawlFailed}
	}
	return sites, nil
}

// Site fetches and parses one detail page.
func (p *Pipeline) Site(ctx context.Context, siteURL string) (record.SiteRecord, failure.ClassifiedError) {
	sourceURL, perr := p.parseURL("Pipeline.Site", siteURL)
	if perr != nil {
		return record.SiteRecord{}, perr
	}

	body, err := p.pages.Fetch(ctx, siteURL)
	if err != nil {
		return record.SiteRecord{}, err
	}

	site, err := p.domExtractor.ParseSiteDetail(sourceURL, []byte(body))
	if err != nil {
		return record.SiteRecord{}, err
	}
	// the record's identity is the exact cache key it came from
	site.SourceURL = siteURL
	return site, nil
}

// Nearby queries the places around site, uncached.
func (p *Pipeline) Nearby(ctx context.Context, site record.SiteRecord) ([]record.PlaceRecord, failure.ClassifiedError) {
	return p.nearby.FetchNearby(ctx, site.Zipcode)
}

// RegionListing returns the cached info and site_urls of region, crawling
// the region only on first access. The region index is consulted only when
// a crawl is needed.
func (p *Pipeline) RegionListing(ctx context.Context, region string) ([]string, []string, failure.ClassifiedError) {
	region = record.NormalizeRegion(region)
	return p.results.GetOrBuildRegionListing(ctx, region, func(ctx context.Context) ([]record.SiteRecord, failure.ClassifiedError) {
		index, err := p.DiscoverRegions(ctx)
		if err != nil {
			return nil, err
		}
		regionURL, ok := index.Lookup(region)
		if !ok {
			return nil, &PipelineError{
				Message:   fmt.Sprintf("%q is not in the region index", region),
				Retryable: false,
				Cause:     ErrCauseUnknownRegion,
			}
		}
		return p.ListRegion(ctx, regionURL)
	})
}

// SiteNearby resolves siteURL to its record and returns the places near it,
// cached under region.
func (p *Pipeline) SiteNearby(
	ctx context.Context,
	region string,
	siteURL string,
) (record.SiteRecord, []record.PlaceRecord, failure.ClassifiedError) {
	site, err := p.Site(ctx, siteURL)
	if err != nil {
		return record.SiteRecord{}, nil, err
	}
	places, err := p.results.GetOrBuildNearby(ctx, record.NormalizeRegion(region), site, p.Nearby)
	if err != nil {
		return site, nil, err
	}
	return site, places, nil
}

func (p *Pipeline) parseURL(action string, rawURL string) (url.URL, *PipelineError) {
	parsed, err := url.Parse(rawURL)
	if err == nil && parsed.IsAbs() {
		return *parsed, nil
	}
	perr := &PipelineError{
		Message:   fmt.Sprintf("%q is not an absolute url", rawURL),
		Retryable: false,
		Cause:     ErrCauseInvalidURL,
	}
	p.metadataSink.RecordError(
		time.Now(),
		"pipeline",
		action,
		mapPipelineErrorToMetadataCause(perr),
		perr.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrURL, rawURL),
		},
	)
	return url.URL{}, perr
}
