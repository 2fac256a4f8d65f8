package metadata

/*
	ErrorCause is a closed, canonical classification used exclusively for
	observability (logging, reporting).

	Rules:
	 - ErrorCause MUST NOT influence control flow.
	 - ErrorCause MUST NOT be used for retry, caching, or abort decisions.
	 - Packages MAY map their local errors to ErrorCause,
	   but MUST NOT invent new meanings.

If a failure does not clearly match a defined cause, CauseUnknown MUST be used.
*/
type ErrorCause int

/*
Canonical ErrorCause Table

# CauseUnknown
  - The failure does not map cleanly to any known category.

# CauseNetworkFailure
  - Transport or remote availability failure (timeouts, DNS, non-2xx).

# CauseContentInvalid
  - Content was fetched but could not be processed
    (non-HTML body, missing listing container, undecodable API payload).

# CauseStorageFailure
  - Failure while reading or persisting the cache file.

# CauseInvariantViolation
  - A cache invariant was violated (namespace collision, misaligned region entry).

# CauseConfigInvalid
  - Required configuration is missing or malformed (e.g. no API key).
*/
const (
	CauseUnknown ErrorCause = iota
	CauseNetworkFailure
	CauseContentInvalid
	CauseStorageFailure
	CauseInvariantViolation
	CauseConfigInvalid
)

func (c ErrorCause) String() string {
	switch c {
	case CauseNetworkFailure:
		return "network_failure"
	case CauseContentInvalid:
		return "content_invalid"
	case CauseStorageFailure:
		return "storage_failure"
	case CauseInvariantViolation:
		return "invariant_violation"
	case CauseConfigInvalid:
		return "config_invalid"
	default:
		return "unknown"
	}
}

// CacheNamespace names the logical partition of the cache store a lookup hit.
type CacheNamespace string

const (
	NamespacePage   CacheNamespace = "page"
	NamespaceRegion CacheNamespace = "region"
	NamespaceNearby CacheNamespace = "nearby"
)

type ArtifactKind string

const (
	ArtifactCacheFile ArtifactKind = "cache_file"
	ArtifactPageBody  ArtifactKind = "page_body"
	ArtifactReport    ArtifactKind = "report"
)

type Attribute struct {
	Key   AttributeKey
	Value string
}

func NewAttr(key AttributeKey, val string) Attribute {
	return Attribute{
		Key:   key,
		Value: val,
	}
}

type AttributeKey string

const (
	AttrURL        AttributeKey = "url"
	AttrHost       AttributeKey = "host"
	AttrPath       AttributeKey = "path"
	AttrField      AttributeKey = "field"
	AttrRegion     AttributeKey = "region"
	AttrSite       AttributeKey = "site"
	AttrZipcode    AttributeKey = "zipcode"
	AttrKey        AttributeKey = "key"
	AttrDigest     AttributeKey = "digest"
	AttrHTTPStatus AttributeKey = "http_status"
	AttrSizeByte   AttributeKey = "size_bytes"
	AttrMessage    AttributeKey = "message"
)
