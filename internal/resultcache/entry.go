package resultcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/rohmanhakim/nps-explorer/internal/record"
)

const (
	keyInfo     = "info"
	keySiteURLs = "site_urls"
)

// IsReservedSiteName reports whether name would shadow a structural key
// of a region entry. Such sites are never cached.
func IsReservedSiteName(name string) bool {
	return name == keyInfo || name == keySiteURLs
}

// regionEntry is the typed view of a region-namespace value:
//
//	{"info": [...], "site_urls": [...], "<site name>": [PlaceRecord...]}
type regionEntry struct {
	info     []string
	siteURLs []string
	nearby   map[string][]record.PlaceRecord
}

func newRegionEntry(sites []record.SiteRecord) regionEntry {
	entry := regionEntry{
		info:     make([]string, 0, len(sites)),
		siteURLs: make([]string, 0, len(sites)),
		nearby:   make(map[string][]record.PlaceRecord),
	}
	for _, site := range sites {
		entry.info = append(entry.info, site.Info())
		entry.siteURLs = append(entry.siteURLs, site.SourceURL)
	}
	return entry
}

func (e regionEntry) aligned() bool {
	return len(e.info) == len(e.siteURLs)
}

// nearbyNames returns the cached site names in ascending order.
func (e regionEntry) nearbyNames() []string {
	names := make([]string, 0, len(e.nearby))
	for name := range e.nearby {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (e regionEntry) MarshalJSON() ([]byte, error) {
	doc := make(map[string]any, len(e.nearby)+2)
	for name, places := range e.nearby {
		if IsReservedSiteName(name) {
			continue
		}
		doc[name] = places
	}
	doc[keyInfo] = nonNil(e.info)
	doc[keySiteURLs] = nonNil(e.siteURLs)
	return json.Marshal(doc)
}

func (e *regionEntry) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		return errors.New("region entry is null")
	}

	rawInfo, hasInfo := fields[keyInfo]
	rawURLs, hasURLs := fields[keySiteURLs]
	if !hasInfo || !hasURLs {
		return errors.New("region entry lacks info or site_urls")
	}

	decoded := regionEntry{nearby: make(map[string][]record.PlaceRecord)}
	if err := json.Unmarshal(rawInfo, &decoded.info); err != nil {
		return fmt.Errorf("info: %w", err)
	}
	if err := json.Unmarshal(rawURLs, &decoded.siteURLs); err != nil {
		return fmt.Errorf("site_urls: %w", err)
	}
	for name, raw := range fields {
		if IsReservedSiteName(name) {
			continue
		}
		var places []record.PlaceRecord
		if err := json.Unmarshal(raw, &places); err != nil {
			return fmt.Errorf("nearby %q: %w", name, err)
		}
		decoded.nearby[name] = places
	}

	*e = decoded
	return nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
