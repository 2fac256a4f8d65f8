package pipeline_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rohmanhakim/nps-explorer/internal/cachestore"
	"github.com/rohmanhakim/nps-explorer/internal/config"
	"github.com/rohmanhakim/nps-explorer/internal/metadata"
	"github.com/rohmanhakim/nps-explorer/internal/pipeline"
	"github.com/stretchr/testify/require"
)

type fakeSite struct {
	slug     string
	name     string
	category string
	locality string
	region   string
	zipcode  string
	phone    string
}

// fakePortal serves an index page, one listing per region and one detail
// page per site, and counts every hit by path.
type fakePortal struct {
	server  *httptest.Server
	mu      sync.Mutex
	hits    map[string]int
	regions map[string][]fakeSite
	failing map[string]bool
}

func newFakePortal(t *testing.T, regions map[string][]fakeSite) *fakePortal {
	t.Helper()
	portal := &fakePortal{
		hits:    make(map[string]int),
		regions: regions,
		failing: make(map[string]bool),
	}
	portal.server = httptest.NewServer(http.HandlerFunc(portal.serve))
	t.Cleanup(portal.server.Close)
	return portal
}

func (f *fakePortal) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.hits[r.URL.Path]++
	failing := f.failing[r.URL.Path]
	f.mu.Unlock()

	if failing {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if r.URL.Path == "/findapark/index.htm" {
		var b strings.Builder
		b.WriteString(`<html><body><map name="stateMap">`)
		for region := range f.regions {
			fmt.Fprintf(&b, `<area alt="%s" href="/state/%s/index.htm">`, strings.ToUpper(region[:1])+region[1:], slugOf(region))
		}
		b.WriteString(`</map></body></html>`)
		w.Write([]byte(b.String()))
		return
	}

	for region, sites := range f.regions {
		if r.URL.Path == "/state/"+slugOf(region)+"/index.htm" {
			var b strings.Builder
			b.WriteString(`<html><body><ul id="list_parks">`)
			for _, site := range sites {
				fmt.Fprintf(&b, `<li class="clearfix"><h3><a href="/%s/">%s</a></h3></li>`, site.slug, site.name)
			}
			b.WriteString(`</ul></body></html>`)
			w.Write([]byte(b.String()))
			return
		}
		for _, site := range sites {
			if r.URL.Path == "/"+site.slug+"/" {
				fmt.Fprintf(w, `<html><body>
<a class="Hero-title" href="/%s/">%s</a>
<span class="Hero-designation">%s</span>
<span itemprop="addressLocality">%s</span>
<span itemprop="addressRegion">%s</span>
<span itemprop="postalCode">%s</span>
<span itemprop="telephone">%s</span>
</body></html>`, site.slug, site.name, site.category, site.locality, site.region, site.zipcode, site.phone)
				return
			}
		}
	}
	w.WriteHeader(http.StatusNotFound)
}

func (f *fakePortal) fail(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing[path] = true
}

func (f *fakePortal) hitCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}

func (f *fakePortal) totalHits() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.hits {
		total += n
	}
	return total
}

func (f *fakePortal) siteURL(slug string) string {
	return f.server.URL + "/" + slug + "/"
}

func slugOf(region string) string {
	return strings.ReplaceAll(region, " ", "-")
}

// fakeRadiusAPI answers every radius search with one place per zipcode.
type fakeRadiusAPI struct {
	server *httptest.Server
	mu     sync.Mutex
	hits   map[string]int
}

func newFakeRadiusAPI(t *testing.T) *fakeRadiusAPI {
	t.Helper()
	api := &fakeRadiusAPI{hits: make(map[string]int)}
	api.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.URL.Query().Get("origin")
		api.mu.Lock()
		api.hits[origin]++
		api.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"info":{"statuscode":0},"searchResults":[{"name":"Diner %s","fields":{"group_sic_code_name":"Restaurants","address":"1 Main St","city":"Town %s"}}]}`, origin, origin)
	}))
	t.Cleanup(api.server.Close)
	return api
}

func (a *fakeRadiusAPI) hitCount(zipcode string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.hits[zipcode]
}

func newTestPipeline(
	t *testing.T,
	cachePath string,
	portal *fakePortal,
	api *fakeRadiusAPI,
	concurrency int,
) (*pipeline.Pipeline, *cachestore.Store) {
	t.Helper()
	indexURL, err := url.Parse(portal.server.URL + "/findapark/index.htm")
	require.NoError(t, err)

	cfg, err := config.WithDefault().
		WithCacheFile(cachePath).
		WithIndexURL(*indexURL).
		WithAPIURL(api.server.URL + "/search/v2/radius").
		WithAPIKey("test-key").
		WithConcurrency(concurrency).
		WithTimeout(5 * time.Second).
		Build()
	require.NoError(t, err)

	store := cachestore.Load(cfg.CacheFile(), &metadata.NoopSink{})
	return pipeline.NewPipeline(cfg, store, &metadata.NoopSink{}), store
}

func cachePathIn(t *testing.T) string {
	return filepath.Join(t.TempDir(), "proj2_cache.json")
}

func michiganPortal() map[string][]fakeSite {
	return map[string][]fakeSite{
		"michigan": {
			{slug: "isro", name: "Isle Royale", category: "National Park", locality: "Houghton", region: "MI", zipcode: "49931", phone: "(906) 482-0984"},
			{slug: "kewe", name: "Keweenaw", category: "National Historical Park", locality: "Calumet", region: "MI", zipcode: "49930", phone: "(906) 337-3168"},
		},
		"wyoming": {
			{slug: "yell", name: "Yellowstone", category: "National Park", locality: "Yellowstone National Park", region: "WY", zipcode: "82190", phone: "307-344-7381"},
		},
	}
}

func fiveSitePortal() map[string][]fakeSite {
	sites := make([]fakeSite, 0, 5)
	for i := 1; i <= 5; i++ {
		sites = append(sites, fakeSite{
			slug:     fmt.Sprintf("site%d", i),
			name:     fmt.Sprintf("Site %d", i),
			category: "National Monument",
			locality: "Lansing",
			region:   "MI",
			zipcode:  fmt.Sprintf("4890%d", i),
			phone:    "555-0100",
		})
	}
	return map[string][]fakeSite{"michigan": sites}
}
