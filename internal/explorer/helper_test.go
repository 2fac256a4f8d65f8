package explorer_test

import (
	"context"

	"github.com/rohmanhakim/nps-explorer/internal/record"
	"github.com/rohmanhakim/nps-explorer/pkg/failure"
	"github.com/stretchr/testify/mock"
)

type navigatorMock struct {
	mock.Mock
}

func (n *navigatorMock) DiscoverRegions(ctx context.Context) (record.RegionIndex, failure.ClassifiedError) {
	args := n.Called()
	var index record.RegionIndex
	if args.Get(0) != nil {
		index = args.Get(0).(record.RegionIndex)
	}
	return index, classified(args.Get(1))
}

func (n *navigatorMock) RegionListing(ctx context.Context, region string) ([]string, []string, failure.ClassifiedError) {
	args := n.Called(region)
	var info, urls []string
	if args.Get(0) != nil {
		info = args.Get(0).([]string)
	}
	if args.Get(1) != nil {
		urls = args.Get(1).([]string)
	}
	return info, urls, classified(args.Get(2))
}

func (n *navigatorMock) SiteNearby(ctx context.Context, region string, siteURL string) (record.SiteRecord, []record.PlaceRecord, failure.ClassifiedError) {
	args := n.Called(region, siteURL)
	site := args.Get(0).(record.SiteRecord)
	var places []record.PlaceRecord
	if args.Get(1) != nil {
		places = args.Get(1).([]record.PlaceRecord)
	}
	return site, places, classified(args.Get(2))
}

func classified(v interface{}) failure.ClassifiedError {
	if v == nil {
		return nil
	}
	return v.(failure.ClassifiedError)
}

type progressSpy struct {
	starts []string
	stops  int
}

func (p *progressSpy) Start(message string) { p.starts = append(p.starts, message) }

func (p *progressSpy) Stop() { p.stops++ }

type lookupError struct{ msg string }

func (e lookupError) Error() string { return e.msg }

func (e lookupError) Severity() failure.Severity { return failure.SeverityRecoverable }

func testIndex() record.RegionIndex {
	return record.RegionIndex{
		"michigan": "https://www.nps.gov/state/mi/index.htm",
		"new york": "https://www.nps.gov/state/ny/index.htm",
	}
}

var (
	michiganInfo = []string{
		"Isle Royale (National Park): Houghton, MI 49931",
		"Keweenaw (National Historical Park): Calumet, MI 49930",
	}
	michiganURLs = []string{
		"https://www.nps.gov/isro/",
		"https://www.nps.gov/kewe/",
	}
)
