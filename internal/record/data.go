package record

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Placeholders substituted for absent or blank optional fields.
const (
	NoCategory      = "no category"
	NoLocalAddress  = "no local address"
	NoRegionAddress = "no regional address"
	NoZipcode       = "no zipcode"
	NoPhone         = "no phone"
	NoPlaceAddress  = "no address"
	NoPlaceCity     = "no city"
)

// SiteRecord is one national site parsed from its detail page.
// SourceURL is the record's identity and the request cache key it was derived from.
type SiteRecord struct {
	Category  string
	Name      string
	Address   string
	Zipcode   string
	Phone     string
	SourceURL string
}

// NewSiteRecord applies the placeholder rule to every optional field.
// locality and region are joined as "locality, region".
func NewSiteRecord(
	category string,
	name string,
	locality string,
	region string,
	zipcode string,
	phone string,
	sourceURL string,
) SiteRecord {
	return SiteRecord{
		Category:  OrPlaceholder(category, NoCategory),
		Name:      strings.TrimSpace(name),
		Address:   OrPlaceholder(locality, NoLocalAddress) + ", " + OrPlaceholder(region, NoRegionAddress),
		Zipcode:   OrPlaceholder(zipcode, NoZipcode),
		Phone:     OrPlaceholder(phone, NoPhone),
		SourceURL: sourceURL,
	}
}

// Info renders the one-line summary stored in a region listing.
func (s SiteRecord) Info() string {
	return fmt.Sprintf("%s (%s): %s %s", s.Name, s.Category, s.Address, s.Zipcode)
}

// PlaceRecord is one nearby place returned by the radius search.
type PlaceRecord struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Address  string `json:"address"`
	City     string `json:"city"`
}

func NewPlaceRecord(name, category, address, city string) PlaceRecord {
	return PlaceRecord{
		Name:     strings.TrimSpace(name),
		Category: OrPlaceholder(category, NoCategory),
		Address:  OrPlaceholder(address, NoPlaceAddress),
		City:     OrPlaceholder(city, NoPlaceCity),
	}
}

func (p PlaceRecord) Info() string {
	return fmt.Sprintf("%s (%s): %s, %s", p.Name, p.Category, p.Address, p.City)
}

// OrPlaceholder trims value and returns placeholder when nothing is left.
func OrPlaceholder(value string, placeholder string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return placeholder
	}
	return trimmed
}

// RegionIndex maps a lower-cased region name to its listing URL.
type RegionIndex map[string]string

// Lookup normalizes name the way the index keys are stored.
func (r RegionIndex) Lookup(name string) (string, bool) {
	u, ok := r[NormalizeRegion(name)]
	return u, ok
}

func NormalizeRegion(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// DisplayName upper-cases the first letter of each word: "new york" -> "New York".
func DisplayName(region string) string {
	words := strings.Fields(region)
	for i, word := range words {
		first, size := utf8.DecodeRuneInString(word)
		words[i] = string(unicode.ToUpper(first)) + word[size:]
	}
	return strings.Join(words, " ")
}
