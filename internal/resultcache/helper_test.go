package resultcache_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rohmanhakim/nps-explorer/internal/cachestore"
	"github.com/rohmanhakim/nps-explorer/internal/metadata"
	"github.com/rohmanhakim/nps-explorer/internal/record"
	"github.com/rohmanhakim/nps-explorer/internal/resultcache"
	"github.com/rohmanhakim/nps-explorer/pkg/failure"
	"github.com/stretchr/testify/mock"
)

type builderMock struct {
	mock.Mock
}

func (b *builderMock) Build(ctx context.Context) ([]record.SiteRecord, failure.ClassifiedError) {
	args := b.Called()
	var sites []record.SiteRecord
	if args.Get(0) != nil {
		sites = args.Get(0).([]record.SiteRecord)
	}
	var err failure.ClassifiedError
	if args.Get(1) != nil {
		err = args.Get(1).(failure.ClassifiedError)
	}
	return sites, err
}

type nearbyMock struct {
	mock.Mock
}

func (n *nearbyMock) Fetch(ctx context.Context, site record.SiteRecord) ([]record.PlaceRecord, failure.ClassifiedError) {
	args := n.Called(site.Zipcode)
	var places []record.PlaceRecord
	if args.Get(0) != nil {
		places = args.Get(0).([]record.PlaceRecord)
	}
	var err failure.ClassifiedError
	if args.Get(1) != nil {
		err = args.Get(1).(failure.ClassifiedError)
	}
	return places, err
}

// failingBuilder fails the test if a cached listing is rebuilt.
func failingBuilder(t *testing.T) resultcache.ListingBuilder {
	return func(ctx context.Context) ([]record.SiteRecord, failure.ClassifiedError) {
		t.Fatalf("builder must not be invoked for a cached region")
		return nil, nil
	}
}

func newCache(t *testing.T) (*resultcache.RegionCache, *cachestore.Store) {
	t.Helper()
	store := cachestore.Load(filepath.Join(t.TempDir(), "cache.json"), &metadata.NoopSink{})
	return resultcache.New(store, &metadata.NoopSink{}), store
}

func michiganSites() []record.SiteRecord {
	return []record.SiteRecord{
		record.NewSiteRecord("National Park", "Isle Royale", "Houghton", "MI", "49931", "(906) 482-0984", "https://www.nps.gov/isro/"),
		record.NewSiteRecord("National Historical Park", "Keweenaw", "Calumet", "MI", "49930", "(906) 337-3168", "https://www.nps.gov/kewe/"),
		record.NewSiteRecord("National Lakeshore", "Pictured Rocks", "Munising", "MI", "49862", "(906) 387-3700", "https://www.nps.gov/piro/"),
	}
}

type buildError struct{}

func (buildError) Error() string { return "site 3 failed" }
func (buildError) Severity() failure.Severity { return failure.SeverityRecoverable }

// missHookSink runs onRegionMiss whenever a region lookup misses.
type missHookSink struct {
	metadata.NoopSink
	onRegionMiss func(region string)
}

func (m *missHookSink) RecordCacheLookup(namespace metadata.CacheNamespace, key string, hit bool) {
	if namespace == metadata.NamespaceRegion && !hit && m.onRegionMiss != nil {
		m.onRegionMiss(key)
	}
}
