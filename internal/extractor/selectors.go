package extractor

// Portal markup the parsers depend on. A selector that stops matching
// surfaces as an ExtractionError or a placeholder, never a silent skip.
const (
	selectorRegionArea     = "map area[alt][href]"
	selectorListingRoot    = "ul#list_parks"
	selectorListingLink    = "li.clearfix h3 a[href]"
	selectorSiteName       = "a.Hero-title"
	selectorSiteCategory   = "span.Hero-designation"
	selectorSiteLocality   = "span[itemprop='addressLocality']"
	selectorSiteRegion     = "span[itemprop='addressRegion']"
	selectorSitePostalCode = "span[itemprop='postalCode']"
	selectorSiteTelephone  = "span[itemprop='telephone']"
)
