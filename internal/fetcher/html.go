package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rohmanhakim/nps-explorer/internal/metadata"
	"github.com/rohmanhakim/nps-explorer/pkg/failure"
	"github.com/rohmanhakim/nps-explorer/pkg/limiter"
)

/*
Responsibilities

- Perform HTTP GET requests against the park portal
- Apply headers, timeouts and per-host politeness delay
- Classify responses

Fetch Semantics

- Only successful HTML responses are returned
- Non-HTML content is an error
- Redirects are followed by the http.Client, bounded to maxRedirects
- Every attempt is recorded with metadata
- There is exactly one attempt per call; callers surface failures to the user

The fetcher never parses content; it only returns bytes and metadata.
*/

const maxRedirects = 10

type HtmlFetcher struct {
	metadataSink metadata.MetadataSink
	httpClient   *http.Client
	rateLimiter  limiter.RateLimiter
}

// NewHtmlFetcher builds a fetcher whose client gives up after timeout.
// rateLimiter may be nil, in which case requests are not spaced.
func NewHtmlFetcher(
	metadataSink metadata.MetadataSink,
	timeout time.Duration,
	rateLimiter limiter.RateLimiter,
) *HtmlFetcher {
	return &HtmlFetcher{
		metadataSink: metadataSink,
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		rateLimiter: rateLimiter,
	}
}

func (h *HtmlFetcher) Fetch(
	ctx context.Context,
	fetchParam FetchParam,
) (FetchResult, failure.ClassifiedError) {
	callerMethod := "HtmlFetcher.Fetch"

	if h.rateLimiter != nil {
		if err := h.rateLimiter.Wait(ctx, fetchParam.fetchUrl.Host); err != nil {
			fetchErr := &FetchError{
				Message:   err.Error(),
				Retryable: false,
				Cause:     ErrCauseCanceled,
				URL:       fetchParam.fetchUrl.String(),
			}
			h.recordFetchError(callerMethod, fetchParam.fetchUrl, fetchErr)
			return FetchResult{}, fetchErr
		}
	}

	startTime := time.Now()
	result, statusCode, contentType, err := h.performFetch(ctx, fetchParam.fetchUrl, fetchParam.userAgent)
	duration := time.Since(startTime)

	h.metadataSink.RecordFetch(
		fetchParam.fetchUrl.String(),
		statusCode,
		duration,
		contentType,
	)

	if err != nil {
		h.recordFetchError(callerMethod, fetchParam.fetchUrl, err)
		return FetchResult{}, err
	}

	return result, nil
}

func (h *HtmlFetcher) recordFetchError(callerMethod string, fetchUrl url.URL, err *FetchError) {
	h.metadataSink.RecordError(
		time.Now(),
		"fetcher",
		callerMethod,
		mapFetchErrorToMetadataCause(err),
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrURL, fetchUrl.String()),
			metadata.NewAttr(metadata.AttrHost, fetchUrl.Host),
		},
	)
}

// performFetch returns the observed status code and content type even on
// failure, so the caller can record them.
func (h *HtmlFetcher) performFetch(
	ctx context.Context,
	fetchUrl url.URL,
	userAgent string,
) (FetchResult, int, string, *FetchError) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchUrl.String(), nil)
	if err != nil {
		return FetchResult{}, 0, "", &FetchError{
			Message:   fmt.Sprintf("failed to create request: %v", err),
			Retryable: false,
			Cause:     ErrCauseNetworkFailure,
			URL:       fetchUrl.String(),
		}
	}

	for key, value := range requestHeaders(userAgent) {
		req.Header.Set(key, value)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return FetchResult{}, 0, "", classifyTransportError(err, fetchUrl)
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if statusErr := classifyStatus(resp.StatusCode, fetchUrl); statusErr != nil {
		return FetchResult{}, resp.StatusCode, contentType, statusErr
	}

	if !isHTMLContent(contentType) {
		return FetchResult{}, resp.StatusCode, contentType, &FetchError{
			Message:   fmt.Sprintf("non-HTML content type: %s", contentType),
			Retryable: false,
			Cause:     ErrCauseContentTypeInvalid,
			URL:       fetchUrl.String(),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return FetchResult{}, resp.StatusCode, contentType, &FetchError{
			Message:   fmt.Sprintf("failed to read response body: %v", err),
			Retryable: true,
			Cause:     ErrCauseReadResponseBodyError,
			URL:       fetchUrl.String(),
		}
	}

	result := FetchResult{
		url:         fetchUrl,
		body:        body,
		statusCode:  resp.StatusCode,
		contentType: contentType,
	}
	return result, resp.StatusCode, contentType, nil
}

func classifyTransportError(err error, fetchUrl url.URL) *FetchError {
	if errors.Is(err, context.Canceled) {
		return &FetchError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseCanceled,
			URL:       fetchUrl.String(),
		}
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &FetchError{
			Message:   err.Error(),
			Retryable: true,
			Cause:     ErrCauseTimeout,
			URL:       fetchUrl.String(),
		}
	}

	return &FetchError{
		Message:   fmt.Sprintf("request failed: %v", err),
		Retryable: true,
		Cause:     ErrCauseNetworkFailure,
		URL:       fetchUrl.String(),
	}
}

func classifyStatus(statusCode int, fetchUrl url.URL) *FetchError {
	switch {
	case statusCode >= 500:
		return &FetchError{
			Message:   fmt.Sprintf("server error: %d", statusCode),
			Retryable: true,
			Cause:     ErrCauseRequest5xx,
			URL:       fetchUrl.String(),
		}

	case statusCode == http.StatusTooManyRequests:
		return &FetchError{
			Message:   "rate limited (429)",
			Retryable: true,
			Cause:     ErrCauseRequestTooMany,
			URL:       fetchUrl.String(),
		}

	case statusCode == http.StatusForbidden:
		return &FetchError{
			Message:   "access forbidden (403)",
			Retryable: false,
			Cause:     ErrCauseRequestPageForbidden,
			URL:       fetchUrl.String(),
		}

	case statusCode >= 400:
		return &FetchError{
			Message:   fmt.Sprintf("client error: %d", statusCode),
			Retryable: false,
			Cause:     ErrCauseRequestClientError,
			URL:       fetchUrl.String(),
		}

	case statusCode >= 300:
		// the client stopped following redirects
		return &FetchError{
			Message:   fmt.Sprintf("redirect error: %d", statusCode),
			Retryable: false,
			Cause:     ErrCauseRedirectLimitExceeded,
			URL:       fetchUrl.String(),
		}
	}
	return nil
}

func isHTMLContent(contentType string) bool {
	contentType = strings.ToLower(contentType)
	return strings.Contains(contentType, "text/html") ||
		strings.Contains(contentType, "application/xhtml")
}

func requestHeaders(userAgent string) map[string]string {
	return map[string]string{
		"User-Agent":      userAgent,
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.5",
	}
}
