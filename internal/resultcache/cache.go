package resultcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rohmanhakim/nps-explorer/internal/cachestore"
	"github.com/rohmanhakim/nps-explorer/internal/metadata"
	"github.com/rohmanhakim/nps-explorer/internal/record"
	"github.com/rohmanhakim/nps-explorer/pkg/failure"
	"golang.org/x/sync/singleflight"
)

/*
RegionCache is the hierarchical namespace of the cache store:

	region -> info[], site_urls[]   (one listing per region)
	region -> <site name> -> places (nearby results per site)

Rules
- A level is populated on first access and reused afterwards.
- A region listing is written with a single Put, only after every site
  was built. A failed build leaves nothing behind.
- info[i] and site_urls[i] describe the same site. An entry that breaks
  this is treated as absent and rebuilt.
- Nearby results are keyed by site name, so two sites with one name
  share a result list.
*/
type RegionCache struct {
	store        *cachestore.Store
	metadataSink metadata.MetadataSink
	building     singleflight.Group
}

// ListingBuilder produces the sites of a region in listing order.
type ListingBuilder func(ctx context.Context) ([]record.SiteRecord, failure.ClassifiedError)

// NearbyFetcher produces the places around one site.
type NearbyFetcher func(ctx context.Context, site record.SiteRecord) ([]record.PlaceRecord, failure.ClassifiedError)

func New(store *cachestore.Store, metadataSink metadata.MetadataSink) *RegionCache {
	return &RegionCache{
		store:        store,
		metadataSink: metadataSink,
	}
}

// GetOrBuildRegionListing returns the cached info and site_urls of region,
// invoking build only when there is no well-formed entry yet.
func (r *RegionCache) GetOrBuildRegionListing(
	ctx context.Context,
	region string,
	build ListingBuilder,
) ([]string, []string, failure.ClassifiedError) {
	entry, found, err := r.lookup(region)
	if err != nil {
		return nil, nil, err
	}
	if found && entry.aligned() {
		r.metadataSink.RecordCacheLookup(metadata.NamespaceRegion, region, true)
		return entry.info, entry.siteURLs, nil
	}
	if found {
		r.metadataSink.RecordError(
			time.Now(),
			"resultcache",
			"RegionCache.GetOrBuildRegionListing",
			metadata.CauseInvariantViolation,
			fmt.Sprintf("misaligned entry (%d info, %d site_urls), rebuilding", len(entry.info), len(entry.siteURLs)),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrRegion, region),
			},
		)
	}
	r.metadataSink.RecordCacheLookup(metadata.NamespaceRegion, region, false)

	v, doErr, _ := r.building.Do(region, func() (interface{}, error) {
		// a flight that finished after our lookup may have stored it already
		if entry, found, err := r.lookup(region); err != nil {
			return nil, err
		} else if found && entry.aligned() {
			return entry, nil
		}
		sites, err := build(ctx)
		if err != nil {
			return nil, err
		}
		fresh := newRegionEntry(sites)
		if err := r.store.Put(region, fresh); err != nil {
			return nil, err
		}
		return fresh, nil
	})
	if doErr != nil {
		return nil, nil, asClassified(doErr, region)
	}
	fresh := v.(regionEntry)
	return fresh.info, fresh.siteURLs, nil
}

// GetOrBuildNearby returns the places near site, fetching and caching them
// under the region entry on first access. The region must already be cached.
func (r *RegionCache) GetOrBuildNearby(
	ctx context.Context,
	region string,
	site record.SiteRecord,
	fetch NearbyFetcher,
) ([]record.PlaceRecord, failure.ClassifiedError) {
	entry, found, err := r.lookup(region)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, r.regionNotCached("RegionCache.GetOrBuildNearby", region)
	}
	if places, ok := entry.nearby[site.Name]; ok {
		r.metadataSink.RecordCacheLookup(metadata.NamespaceNearby, region+"/"+site.Name, true)
		return places, nil
	}
	r.metadataSink.RecordCacheLookup(metadata.NamespaceNearby, region+"/"+site.Name, false)

	places, err := fetch(ctx, site)
	if err != nil {
		return nil, err
	}
	if places == nil {
		places = []record.PlaceRecord{}
	}
	if IsReservedSiteName(site.Name) {
		return places, nil
	}

	result := places
	updateErr := r.store.Update(region, func(current json.RawMessage, exists bool) (any, error) {
		if !exists {
			return nil, r.regionNotCached("RegionCache.GetOrBuildNearby", region)
		}
		var latest regionEntry
		if err := json.Unmarshal(current, &latest); err != nil {
			return nil, &cachestore.CacheError{
				Message: err.Error(),
				Cause:   cachestore.ErrCauseNamespaceCollision,
				Key:     region,
			}
		}
		// a concurrent caller may have cached this site first
		if existing, ok := latest.nearby[site.Name]; ok {
			result = existing
			return latest, nil
		}
		latest.nearby[site.Name] = places
		return latest, nil
	})
	if updateErr != nil {
		return nil, updateErr
	}
	return result, nil
}

// Regions returns the names of every cached region, ascending.
func (r *RegionCache) Regions() []string {
	regions := make([]string, 0)
	for _, key := range r.store.Keys() {
		if _, ok := r.peek(key); ok {
			regions = append(regions, key)
		}
	}
	return regions
}

// Listing is a read-only view of one cached region.
type Listing struct {
	Region   string
	Info     []string
	SiteURLs []string
	// NearbySites lists the site names with cached nearby results, ascending.
	NearbySites []string
	Nearby      map[string][]record.PlaceRecord
}

// Listing returns the cached view of region without building anything.
func (r *RegionCache) Listing(region string) (Listing, bool) {
	entry, ok := r.peek(region)
	if !ok {
		return Listing{}, false
	}
	return Listing{
		Region:      region,
		Info:        entry.info,
		SiteURLs:    entry.siteURLs,
		NearbySites: entry.nearbyNames(),
		Nearby:      entry.nearby,
	}, true
}

// Stats summarizes the store for cache inspection.
type Stats struct {
	Path    string
	Entries int
	Pages   int
	Regions []RegionStat
}

type RegionStat struct {
	Name        string
	Sites       int
	NearbyLists int
}

func (r *RegionCache) Stats() Stats {
	stats := Stats{Path: r.store.Path()}
	for _, key := range r.store.Keys() {
		stats.Entries++
		raw, ok := r.store.Get(key)
		if !ok {
			continue
		}
		var body string
		if json.Unmarshal(raw, &body) == nil {
			stats.Pages++
			continue
		}
		if entry, ok := decodeEntry(raw); ok {
			stats.Regions = append(stats.Regions, RegionStat{
				Name:        key,
				Sites:       len(entry.siteURLs),
				NearbyLists: len(entry.nearby),
			})
		}
	}
	return stats
}

// lookup decodes a region entry, reporting a wrong-shaped value as a
// namespace collision.
func (r *RegionCache) lookup(region string) (regionEntry, bool, failure.ClassifiedError) {
	var entry regionEntry
	found, err := r.store.GetAs(region, &entry)
	if err != nil {
		return regionEntry{}, true, err
	}
	return entry, found, nil
}

// peek decodes quietly; non-region values are simply skipped.
func (r *RegionCache) peek(key string) (regionEntry, bool) {
	raw, ok := r.store.Get(key)
	if !ok {
		return regionEntry{}, false
	}
	return decodeEntry(raw)
}

func decodeEntry(raw json.RawMessage) (regionEntry, bool) {
	var entry regionEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return regionEntry{}, false
	}
	return entry, true
}

func (r *RegionCache) regionNotCached(action string, region string) *ResultCacheError {
	err := &ResultCacheError{
		Message:   "list the region before asking for nearby places",
		Retryable: false,
		Cause:     ErrCauseRegionNotCached,
		Region:    region,
	}
	r.metadataSink.RecordError(
		time.Now(),
		"resultcache",
		action,
		mapResultCacheErrorToMetadataCause(err),
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrRegion, region),
		},
	)
	return err
}

func asClassified(err error, region string) failure.ClassifiedError {
	var classified failure.ClassifiedError
	if errors.As(err, &classified) {
		return classified
	}
	return &ResultCacheError{
		Message:   err.Error(),
		Retryable: false,
		Cause:     ErrCauseBuildFailed,
		Region:    region,
	}
}
