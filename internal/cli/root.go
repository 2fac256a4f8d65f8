package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/rohmanhakim/nps-explorer/internal/build"
	"github.com/rohmanhakim/nps-explorer/internal/config"
	"github.com/rohmanhakim/nps-explorer/internal/explorer"
	"github.com/spf13/cobra"
)

var (
	cfgFile     string
	envFile     string
	cacheFile   string
	indexURL    string
	apiURL      string
	apiKey      string
	userAgent   string
	logLevel    string
	concurrency int
	radius      int
	maxMatches  int
	timeout     time.Duration
	baseDelay   time.Duration
	jitter      time.Duration
	randomSeed  int64

	// replaced in tests so the user's own config never leaks in
	defaultConfigPath = config.DefaultConfigPath
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   build.AppName,
	Short: "Browse US national sites by state and find places near them.",
	Long: `nps-explorer crawls the National Park Service portal one state at a time
and lists the national sites it finds. Picking a site looks up nearby places
through the MapQuest radius search.

Every page body and every assembled result is kept in a local JSON cache,
so a state that was explored once is served without touching the network.`,
	Version:      build.FullVersion(),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := InitConfigWithError()
		if err != nil {
			return err
		}
		a := newApp(cfg, cmd.ErrOrStderr())
		session := explorer.NewSession(
			a.pipeline,
			cmd.InOrStdin(),
			cmd.OutOrStdout(),
			explorer.NewSpinnerProgress(cmd.ErrOrStderr()),
			a.sink,
		)
		return session.Run(cmd.Context())
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "config file path, JSON or YAML (default $XDG_CONFIG_HOME/nps-explorer/config.yaml if present)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file read before the environment is consulted")
	rootCmd.PersistentFlags().StringVar(&cacheFile, "cache-file", "", "cache file path (default "+config.DefaultCacheFile+")")
	rootCmd.PersistentFlags().StringVar(&indexURL, "index-url", "", "portal page listing every state (default "+config.DefaultIndexURL+")")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "radius search endpoint (default "+config.DefaultAPIURL+")")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "radius search API key (default $"+config.APIKeyEnv+")")
	rootCmd.PersistentFlags().StringVar(&userAgent, "user-agent", "", "user agent string for HTTP requests")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (default warn)")
	rootCmd.PersistentFlags().IntVar(&concurrency, "concurrency", 0, "site detail pages fetched at once while listing a state (default 1)")
	rootCmd.PersistentFlags().IntVar(&radius, "radius", 0, "nearby search radius in miles (default 10)")
	rootCmd.PersistentFlags().IntVar(&maxMatches, "max-matches", 0, "maximum nearby places per site (default 10)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "timeout for HTTP requests (default 30s)")
	rootCmd.PersistentFlags().DurationVar(&baseDelay, "base-delay", 0, "base delay between HTTP requests to the same host")
	rootCmd.PersistentFlags().DurationVar(&jitter, "jitter", 0, "random jitter added to base delay")
	rootCmd.PersistentFlags().Int64Var(&randomSeed, "random-seed", 0, "seed for random number generation (0 for current time)")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(cacheCmd)
}

// InitConfigWithError resolves the configuration in order: config file
// (explicit, else the XDG default when present, else built-in defaults),
// then the API key from the environment, then flags that were set.
func InitConfigWithError() (config.Config, error) {
	if err := loadEnvFile(envFile); err != nil {
		return config.Config{}, err
	}

	configBuilder, err := baseConfig()
	if err != nil {
		return config.Config{}, err
	}

	if configBuilder.APIKey() == "" {
		if key := os.Getenv(config.APIKeyEnv); key != "" {
			configBuilder = configBuilder.WithAPIKey(key)
		}
	}

	// Override with CLI flag values where provided
	if cacheFile != "" {
		configBuilder = configBuilder.WithCacheFile(cacheFile)
	}

	if indexURL != "" {
		parsed, err := url.Parse(indexURL)
		if err != nil {
			return config.Config{}, fmt.Errorf("%w: index-url: %s", config.ErrInvalidConfig, err.Error())
		}
		configBuilder = configBuilder.WithIndexURL(*parsed)
	}

	if apiURL != "" {
		configBuilder = configBuilder.WithAPIURL(apiURL)
	}

	if apiKey != "" {
		configBuilder = configBuilder.WithAPIKey(apiKey)
	}

	if userAgent != "" {
		configBuilder = configBuilder.WithUserAgent(userAgent)
	}

	if logLevel != "" {
		configBuilder = configBuilder.WithLogLevel(logLevel)
	}

	if concurrency > 0 {
		configBuilder = configBuilder.WithConcurrency(concurrency)
	}

	if radius > 0 {
		configBuilder = configBuilder.WithRadius(radius)
	}

	if maxMatches > 0 {
		configBuilder = configBuilder.WithMaxMatches(maxMatches)
	}

	if timeout > 0 {
		configBuilder = configBuilder.WithTimeout(timeout)
	}

	if baseDelay > 0 {
		configBuilder = configBuilder.WithBaseDelay(baseDelay)
	}

	if jitter > 0 {
		configBuilder = configBuilder.WithJitter(jitter)
	}

	if randomSeed != 0 {
		configBuilder = configBuilder.WithRandomSeed(randomSeed)
	}

	return configBuilder.Build()
}

func baseConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if candidate := defaultConfigPath(); candidate != "" {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
			}
		}
	}
	if path == "" {
		return config.WithDefault(), nil
	}

	cfg, err := config.WithConfigFile(path)
	if err != nil {
		return nil, fmt.Errorf("error initializing config from file: %w", err)
	}
	return &cfg, nil
}

// loadEnvFile exports the variables of a dotenv file without overriding
// ones already set. A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error loading %s: %w", path, err)
	}
	return nil
}

func ResetFlags() {
	cfgFile = ""
	envFile = ""
	cacheFile = ""
	indexURL = ""
	apiURL = ""
	apiKey = ""
	userAgent = ""
	logLevel = ""
	concurrency = 0
	radius = 0
	maxMatches = 0
	timeout = 0
	baseDelay = 0
	jitter = 0
	randomSeed = 0
	exportOut = ""
	defaultConfigPath = config.DefaultConfigPath
}

// RunForTest executes the command tree with args against the given streams.
func RunForTest(ctx context.Context, args []string, in io.Reader, out io.Writer, errOut io.Writer) error {
	rootCmd.SetArgs(args)
	rootCmd.SetIn(in)
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)
	return rootCmd.ExecuteContext(ctx)
}

// Test helper functions to set flag values from tests
func SetConfigFileForTest(path string) {
	cfgFile = path
}

func SetDefaultConfigPathForTest(path string) {
	defaultConfigPath = func() string { return path }
}

func SetEnvFileForTest(path string) {
	envFile = path
}

func SetCacheFileForTest(path string) {
	cacheFile = path
}

func SetIndexURLForTest(rawURL string) {
	indexURL = rawURL
}

func SetAPIURLForTest(rawURL string) {
	apiURL = rawURL
}

func SetAPIKeyForTest(key string) {
	apiKey = key
}

func SetUserAgentForTest(agent string) {
	userAgent = agent
}

func SetLogLevelForTest(level string) {
	logLevel = level
}

func SetConcurrencyForTest(conc int) {
	concurrency = conc
}

func SetTimeoutForTest(t time.Duration) {
	timeout = t
}

func SetBaseDelayForTest(delay time.Duration) {
	baseDelay = delay
}

func SetJitterForTest(j time.Duration) {
	jitter = j
}

func SetRandomSeedForTest(seed int64) {
	randomSeed = seed
}
