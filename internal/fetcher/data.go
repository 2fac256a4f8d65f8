package fetcher

import (
	"net/url"
)

// FetchParam names one page request.
type FetchParam struct {
	fetchUrl  url.URL
	userAgent string
}

func NewFetchParam(fetchUrl url.URL, userAgent string) FetchParam {
	return FetchParam{
		fetchUrl:  fetchUrl,
		userAgent: userAgent,
	}
}

func (p FetchParam) URL() url.URL {
	return p.fetchUrl
}

// FetchResult is a successful 2xx HTML response, body fully read.
type FetchResult struct {
	url         url.URL
	body        []byte
	statusCode  int
	contentType string
}

func (f *FetchResult) URL() url.URL {
	return f.url
}

func (f *FetchResult) Body() []byte {
	return f.body
}

func (f *FetchResult) Code() int {
	return f.statusCode
}

func (f *FetchResult) SizeByte() int {
	return len(f.body)
}

func (f *FetchResult) ContentType() string {
	return f.contentType
}

// NewFetchResultForTest lets other packages stub a Fetcher.
func NewFetchResultForTest(
	url url.URL,
	body []byte,
	statusCode int,
	contentType string,
) FetchResult {
	return FetchResult{
		url:         url,
		body:        body,
		statusCode:  statusCode,
		contentType: contentType,
	}
}
