package extractor

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rohmanhakim/nps-explorer/internal/metadata"
	"github.com/rohmanhakim/nps-explorer/internal/record"
	"github.com/rohmanhakim/nps-explorer/pkg/failure"
	"golang.org/x/net/html"
)

/*
Responsibilities
- Parse a portal page into a DOM tree
- Pull region links, site links and site detail fields
- Resolve relative hrefs against the page they were found on

Structural vs. field failures
- A missing container (region map, site listing) or a missing site name
  means the page is not what we expected: ExtractionError.
- A missing or blank leaf field (category, address parts, zipcode, phone)
  is normal and becomes a placeholder.
*/

type DomExtractor struct {
	metadataSink metadata.MetadataSink
}

func NewDomExtractor(
	metadataSink metadata.MetadataSink,
) DomExtractor {
	return DomExtractor{
		metadataSink: metadataSink,
	}
}

// ParseRegionIndex maps every lower-cased region name found in the
// index page's image map to its absolute listing URL.
func (d *DomExtractor) ParseRegionIndex(
	sourceUrl url.URL,
	htmlByte []byte,
) (record.RegionIndex, failure.ClassifiedError) {
	doc, err := parseDocument(htmlByte)
	if err != nil {
		d.recordExtractionError("DomExtractor.ParseRegionIndex", sourceUrl, err)
		return nil, err
	}

	areas := doc.Find(selectorRegionArea)
	if areas.Length() == 0 {
		err := &ExtractionError{
			Message:   "no map area with alt and href",
			Retryable: false,
			Cause:     ErrCauseMissingIndexMap,
		}
		d.recordExtractionError("DomExtractor.ParseRegionIndex", sourceUrl, err)
		return nil, err
	}

	index := make(record.RegionIndex, areas.Length())
	var resolveErr *ExtractionError
	areas.EachWithBreak(func(_ int, area *goquery.Selection) bool {
		name := record.NormalizeRegion(area.AttrOr("alt", ""))
		if name == "" {
			return true
		}
		resolved, err := resolveHref(sourceUrl, area.AttrOr("href", ""))
		if err != nil {
			resolveErr = err
			return false
		}
		index[name] = resolved
		return true
	})
	if resolveErr != nil {
		d.recordExtractionError("DomExtractor.ParseRegionIndex", sourceUrl, resolveErr)
		return nil, resolveErr
	}

	return index, nil
}

// ParseRegionListing returns the absolute site URLs of a region listing,
// in page order.
func (d *DomExtractor) ParseRegionListing(
	sourceUrl url.URL,
	htmlByte []byte,
) ([]string, failure.ClassifiedError) {
	doc, err := parseDocument(htmlByte)
	if err != nil {
		d.recordExtractionError("DomExtractor.ParseRegionListing", sourceUrl, err)
		return nil, err
	}

	listing := doc.Find(selectorListingRoot).First()
	if listing.Length() == 0 {
		err := &ExtractionError{
			Message:   fmt.Sprintf("%s not found", selectorListingRoot),
			Retryable: false,
			Cause:     ErrCauseMissingListing,
		}
		d.recordExtractionError("DomExtractor.ParseRegionListing", sourceUrl, err)
		return nil, err
	}

	links := listing.Find(selectorListingLink)
	siteUrls := make([]string, 0, links.Length())
	var resolveErr *ExtractionError
	links.EachWithBreak(func(_ int, link *goquery.Selection) bool {
		resolved, err := resolveHref(sourceUrl, link.AttrOr("href", ""))
		if err != nil {
			resolveErr = err
			return false
		}
		siteUrls = append(siteUrls, resolved)
		return true
	})
	if resolveErr != nil {
		d.recordExtractionError("DomExtractor.ParseRegionListing", sourceUrl, resolveErr)
		return nil, resolveErr
	}

	return siteUrls, nil
}

// ParseSiteDetail builds the SiteRecord of one detail page.
// sourceUrl becomes the record's SourceURL.
func (d *DomExtractor) ParseSiteDetail(
	sourceUrl url.URL,
	htmlByte []byte,
) (record.SiteRecord, failure.ClassifiedError) {
	doc, err := parseDocument(htmlByte)
	if err != nil {
		d.recordExtractionError("DomExtractor.ParseSiteDetail", sourceUrl, err)
		return record.SiteRecord{}, err
	}

	name := firstText(doc, selectorSiteName)
	if name == "" {
		err := &ExtractionError{
			Message:   fmt.Sprintf("%s not found or empty", selectorSiteName),
			Retryable: false,
			Cause:     ErrCauseMissingSiteName,
		}
		d.recordExtractionError("DomExtractor.ParseSiteDetail", sourceUrl, err)
		return record.SiteRecord{}, err
	}

	return record.NewSiteRecord(
		firstText(doc, selectorSiteCategory),
		name,
		firstText(doc, selectorSiteLocality),
		firstText(doc, selectorSiteRegion),
		firstText(doc, selectorSitePostalCode),
		firstText(doc, selectorSiteTelephone),
		sourceUrl.String(),
	), nil
}

func (d *DomExtractor) recordExtractionError(action string, sourceUrl url.URL, err *ExtractionError) {
	d.metadataSink.RecordError(
		time.Now(),
		"extractor",
		action,
		mapExtractionErrorToMetadataCause(err),
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrURL, sourceUrl.String()),
		},
	)
}

func parseDocument(htmlByte []byte) (*goquery.Document, *ExtractionError) {
	node, err := html.Parse(bytes.NewReader(htmlByte))
	if err != nil {
		return nil, &ExtractionError{
			Message:   fmt.Sprintf("failed to parse HTML: %v", err),
			Retryable: false,
			Cause:     ErrCauseNotHTML,
		}
	}
	return goquery.NewDocumentFromNode(node), nil
}

// firstText returns the trimmed text of the first match, or "" if none.
func firstText(doc *goquery.Document, selector string) string {
	return strings.TrimSpace(doc.Find(selector).First().Text())
}

func resolveHref(base url.URL, href string) (string, *ExtractionError) {
	href = strings.TrimSpace(href)
	ref, err := url.Parse(href)
	if err != nil || href == "" {
		return "", &ExtractionError{
			Message:   fmt.Sprintf("href %q: %v", href, err),
			Retryable: false,
			Cause:     ErrCauseUnresolvableLink,
		}
	}
	return base.ResolveReference(ref).String(), nil
}
