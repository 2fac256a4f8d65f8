package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/rohmanhakim/nps-explorer/internal/build"
	"gopkg.in/yaml.v3"
)

const (
	DefaultCacheFile = "proj2_cache.json"
	DefaultIndexURL  = "https://www.nps.gov/findapark/index.htm"
	DefaultAPIURL    = "http://www.mapquestapi.com/search/v2/radius"
	// APIKeyEnv is read when neither the config file nor a flag sets the key.
	APIKeyEnv = "NPS_MAPQUEST_API_KEY"
)

type Config struct {
	//===============
	//  Cache
	//===============
	// JSON document holding page bodies and region results
	cacheFile string

	//===============
	//  Portal
	//===============
	// Page whose image map lists every region
	indexURL url.URL
	// User agent that will be used in the request header. In raw string
	userAgent string
	// Maximum time of a single HTTP request
	timeout time.Duration

	//===============
	// Politeness
	//===============
	// Number of site detail pages fetched at once while listing a region.
	// 1 keeps the crawl strictly sequential.
	concurrency int
	// Minimum, fixed waiting time enforced between two HTTP requests to the same host.
	baseDelay time.Duration
	// Randomized variation added on top of the base delay.
	jitter time.Duration
	// Controls the random number generator
	randomSeed int64

	//===============
	// Nearby search
	//===============
	apiURL     string
	apiKey     string
	radius     int
	maxMatches int

	//===============
	// Logging
	//===============
	// debug, info, warn or error
	logLevel string
}

type configDTO struct {
	CacheFile   string        `json:"cacheFile,omitempty" yaml:"cacheFile,omitempty"`
	IndexURL    string        `json:"indexUrl,omitempty" yaml:"indexUrl,omitempty"`
	UserAgent   string        `json:"userAgent,omitempty" yaml:"userAgent,omitempty"`
	Timeout     time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	Concurrency int           `json:"concurrency,omitempty" yaml:"concurrency,omitempty"`
	BaseDelay   time.Duration `json:"baseDelay,omitempty" yaml:"baseDelay,omitempty"`
	Jitter      time.Duration `json:"jitter,omitempty" yaml:"jitter,omitempty"`
	RandomSeed  int64         `json:"randomSeed,omitempty" yaml:"randomSeed,omitempty"`
	APIURL      string        `json:"apiUrl,omitempty" yaml:"apiUrl,omitempty"`
	APIKey      string        `json:"apiKey,omitempty" yaml:"apiKey,omitempty"`
	Radius      int           `json:"radius,omitempty" yaml:"radius,omitempty"`
	MaxMatches  int           `json:"maxMatches,omitempty" yaml:"maxMatches,omitempty"`
	LogLevel    string        `json:"logLevel,omitempty" yaml:"logLevel,omitempty"`
}

func newConfigFromDTO(dto configDTO) (Config, error) {
	builder := WithDefault()

	// only override if non-zero value is provided
	if dto.CacheFile != "" {
		builder.WithCacheFile(dto.CacheFile)
	}
	if dto.IndexURL != "" {
		indexURL, err := url.Parse(dto.IndexURL)
		if err != nil {
			return Config{}, fmt.Errorf("%w: indexUrl: %s", ErrInvalidConfig, err.Error())
		}
		builder.WithIndexURL(*indexURL)
	}
	if dto.UserAgent != "" {
		builder.WithUserAgent(dto.UserAgent)
	}
	if dto.Timeout != 0 {
		builder.WithTimeout(dto.Timeout)
	}
	if dto.Concurrency != 0 {
		builder.WithConcurrency(dto.Concurrency)
	}
	if dto.BaseDelay != 0 {
		builder.WithBaseDelay(dto.BaseDelay)
	}
	if dto.Jitter != 0 {
		builder.WithJitter(dto.Jitter)
	}
	if dto.RandomSeed != 0 {
		builder.WithRandomSeed(dto.RandomSeed)
	}
	if dto.APIURL != "" {
		builder.WithAPIURL(dto.APIURL)
	}
	if dto.APIKey != "" {
		builder.WithAPIKey(dto.APIKey)
	}
	if dto.Radius != 0 {
		builder.WithRadius(dto.Radius)
	}
	if dto.MaxMatches != 0 {
		builder.WithMaxMatches(dto.MaxMatches)
	}
	if dto.LogLevel != "" {
		builder.WithLogLevel(dto.LogLevel)
	}

	return builder.Build()
}

// WithConfigFile loads a JSON or YAML config file, chosen by extension
// (.yaml and .yml are YAML, anything else is JSON).
func WithConfigFile(path string) (Config, error) {
	_, err := os.Stat(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrFileDoesNotExist, err.Error())
	}
	configContent, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrReadConfigFail, err.Error())
	}

	cfgDTO := configDTO{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(configContent, &cfgDTO)
	default:
		err = json.Unmarshal(configContent, &cfgDTO)
	}
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
	}

	return newConfigFromDTO(cfgDTO)
}

// DefaultConfigPath is $XDG_CONFIG_HOME/nps-explorer/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, build.AppName, "config.yaml")
}

// WithDefault creates a new Config builder with default values for all fields.
func WithDefault() *Config {
	indexURL, _ := url.Parse(DefaultIndexURL)
	defaultConfig := Config{
		cacheFile:   DefaultCacheFile,
		indexURL:    *indexURL,
		userAgent:   build.UserAgent(),
		timeout:     30 * time.Second,
		concurrency: 1,
		baseDelay:   0,
		jitter:      0,
		randomSeed:  time.Now().UnixNano(),
		apiURL:      DefaultAPIURL,
		apiKey:      "",
		radius:      10,
		maxMatches:  10,
		logLevel:    "warn",
	}
	return &defaultConfig
}

func (c *Config) WithCacheFile(path string) *Config {
	c.cacheFile = path
	return c
}

func (c *Config) WithIndexURL(indexURL url.URL) *Config {
	c.indexURL = indexURL
	return c
}

func (c *Config) WithUserAgent(agent string) *Config {
	c.userAgent = agent
	return c
}

func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.timeout = timeout
	return c
}

func (c *Config) WithConcurrency(concurrency int) *Config {
	c.concurrency = concurrency
	return c
}

func (c *Config) WithBaseDelay(delay time.Duration) *Config {
	c.baseDelay = delay
	return c
}

func (c *Config) WithJitter(jitter time.Duration) *Config {
	c.jitter = jitter
	return c
}

func (c *Config) WithRandomSeed(seed int64) *Config {
	c.randomSeed = seed
	return c
}

func (c *Config) WithAPIURL(apiURL string) *Config {
	c.apiURL = apiURL
	return c
}

func (c *Config) WithAPIKey(key string) *Config {
	c.apiKey = key
	return c
}

func (c *Config) WithRadius(radius int) *Config {
	c.radius = radius
	return c
}

func (c *Config) WithMaxMatches(maxMatches int) *Config {
	c.maxMatches = maxMatches
	return c
}

func (c *Config) WithLogLevel(level string) *Config {
	c.logLevel = level
	return c
}

func (c *Config) Build() (Config, error) {
	if strings.TrimSpace(c.cacheFile) == "" {
		return Config{}, fmt.Errorf("%w: cacheFile cannot be empty", ErrInvalidConfig)
	}
	if !c.indexURL.IsAbs() || c.indexURL.Host == "" {
		return Config{}, fmt.Errorf("%w: indexUrl must be absolute, got %q", ErrInvalidConfig, c.indexURL.String())
	}
	if apiURL, err := url.Parse(c.apiURL); err != nil || !apiURL.IsAbs() {
		return Config{}, fmt.Errorf("%w: apiUrl must be absolute, got %q", ErrInvalidConfig, c.apiURL)
	}
	if c.timeout <= 0 {
		return Config{}, fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	}
	if c.concurrency < 1 {
		return Config{}, fmt.Errorf("%w: concurrency must be at least 1", ErrInvalidConfig)
	}
	if c.baseDelay < 0 || c.jitter < 0 {
		return Config{}, fmt.Errorf("%w: baseDelay and jitter cannot be negative", ErrInvalidConfig)
	}
	if c.radius <= 0 || c.maxMatches <= 0 {
		return Config{}, fmt.Errorf("%w: radius and maxMatches must be positive", ErrInvalidConfig)
	}
	switch c.logLevel {
	case "debug", "info", "warn", "error":
	default:
		return Config{}, fmt.Errorf("%w: unknown logLevel %q", ErrInvalidConfig, c.logLevel)
	}
	return *c, nil
}

func (c Config) CacheFile() string {
	return c.cacheFile
}

func (c Config) IndexURL() url.URL {
	return c.indexURL
}

func (c Config) UserAgent() string {
	return c.userAgent
}

func (c Config) Timeout() time.Duration {
	return c.timeout
}

func (c Config) Concurrency() int {
	return c.concurrency
}

func (c Config) BaseDelay() time.Duration {
	return c.baseDelay
}

func (c Config) Jitter() time.Duration {
	return c.jitter
}

func (c Config) RandomSeed() int64 {
	return c.randomSeed
}

func (c Config) APIURL() string {
	return c.apiURL
}

func (c Config) APIKey() string {
	return c.apiKey
}

func (c Config) Radius() int {
	return c.radius
}

func (c Config) MaxMatches() int {
	return c.maxMatches
}

func (c Config) LogLevel() string {
	return c.logLevel
}
