package nearby

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rohmanhakim/nps-explorer/internal/metadata"
	"github.com/rohmanhakim/nps-explorer/internal/record"
	"github.com/rohmanhakim/nps-explorer/pkg/failure"
)

/*
Client queries the MapQuest radius search around a zipcode.

- One request per call, no retry, no quota handling.
- A missing API key fails before any I/O.
- Blank result fields become placeholders; result order is kept.
*/
type Client struct {
	metadataSink metadata.MetadataSink
	httpClient   *http.Client
	apiURL       string
	apiKey       string
	radius       int
	maxMatches   int
}

type ClientParam struct {
	APIURL     string
	APIKey     string
	Radius     int
	MaxMatches int
	Timeout    time.Duration
}

func NewClient(metadataSink metadata.MetadataSink, param ClientParam) *Client {
	return &Client{
		metadataSink: metadataSink,
		httpClient:   &http.Client{Timeout: param.Timeout},
		apiURL:       param.APIURL,
		apiKey:       param.APIKey,
		radius:       param.Radius,
		maxMatches:   param.MaxMatches,
	}
}

// FetchNearby returns the places around zipcode.
func (c *Client) FetchNearby(ctx context.Context, zipcode string) ([]record.PlaceRecord, failure.ClassifiedError) {
	places, err := c.fetchNearby(ctx, zipcode)
	if err != nil {
		c.metadataSink.RecordError(
			time.Now(),
			"nearby",
			"Client.FetchNearby",
			mapNearbyErrorToMetadataCause(err),
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrZipcode, zipcode),
			},
		)
		return nil, err
	}
	return places, nil
}

func (c *Client) fetchNearby(ctx context.Context, zipcode string) ([]record.PlaceRecord, *NearbyError) {
	if strings.TrimSpace(c.apiKey) == "" {
		return nil, &NearbyError{
			Message:   "set api_key in the config file or NPS_MAPQUEST_API_KEY",
			Retryable: false,
			Cause:     ErrCauseMissingAPIKey,
		}
	}
	zipcode = strings.TrimSpace(zipcode)
	if zipcode == "" || zipcode == record.NoZipcode {
		return nil, &NearbyError{
			Retryable: false,
			Cause:     ErrCauseMissingZipcode,
		}
	}

	requestURL, err := c.buildURL(zipcode)
	if err != nil {
		return nil, &NearbyError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseNetworkFailure,
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, &NearbyError{
			Message:   fmt.Sprintf("failed to create request: %v", err),
			Retryable: false,
			Cause:     ErrCauseNetworkFailure,
		}
	}
	req.Header.Set("Accept", "application/json")

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metadataSink.RecordFetch(c.apiURL, 0, time.Since(startTime), "")
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return nil, &NearbyError{Message: err.Error(), Retryable: true, Cause: ErrCauseTimeout}
		}
		return nil, &NearbyError{Message: err.Error(), Retryable: true, Cause: ErrCauseNetworkFailure}
	}
	defer resp.Body.Close()
	// the request URL carries the key, so only the endpoint is recorded
	c.metadataSink.RecordFetch(c.apiURL, resp.StatusCode, time.Since(startTime), resp.Header.Get("Content-Type"))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &NearbyError{
			Message:   fmt.Sprintf("status %d", resp.StatusCode),
			Retryable: resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests,
			Cause:     ErrCauseBadStatus,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NearbyError{Message: err.Error(), Retryable: true, Cause: ErrCauseNetworkFailure}
	}

	var payload radiusResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &NearbyError{Message: err.Error(), Retryable: false, Cause: ErrCauseDecodeFailure}
	}
	if payload.Info.StatusCode != 0 {
		return nil, &NearbyError{
			Message:   fmt.Sprintf("statuscode %d: %s", payload.Info.StatusCode, strings.Join(payload.Info.Messages, "; ")),
			Retryable: false,
			Cause:     ErrCauseAPIRejected,
		}
	}

	places := make([]record.PlaceRecord, 0, len(payload.SearchResults))
	for _, result := range payload.SearchResults {
		places = append(places, record.NewPlaceRecord(
			result.Name,
			result.Fields.GroupSicCodeName,
			result.Fields.Address,
			result.Fields.City,
		))
	}
	return places, nil
}

func (c *Client) buildURL(zipcode string) (string, error) {
	base, err := url.Parse(c.apiURL)
	if err != nil {
		return "", err
	}
	query := base.Query()
	query.Set("key", c.apiKey)
	query.Set("origin", zipcode)
	query.Set("radius", strconv.Itoa(c.radius))
	query.Set("maxMatches", strconv.Itoa(c.maxMatches))
	query.Set("ambiguities", "ignore")
	query.Set("outFormat", "json")
	base.RawQuery = query.Encode()
	return base.String(), nil
}
