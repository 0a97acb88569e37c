package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

// Config represents the entire application configuration.
type Config struct {
	DatabasePath  string `yaml:"database_path"`
	DefaultUserID string `yaml:"default_user_id"`

	// ExcludePattern is an SQL LIKE pattern matched case-insensitively
	// against transaction descriptions to filter internal bank postings out
	// of the dashboard, e.g. "%SCOTIABANK%". Empty disables the filter.
	ExcludePattern string `yaml:"exclude_pattern"`

	// CategoriesPath optionally overrides the embedded category keyword
	// table with a yaml file on disk, which is then hot-reloaded in serve
	// mode.
	CategoriesPath string `yaml:"categories_path"`

	// SQLPath optionally overrides the embedded sql directory with a
	// directory on disk, for patching queries without a rebuild.
	SQLPath string `yaml:"sql_path"`

	Web        WebConfig        `yaml:"web"`
	Gemini     GeminiConfig     `yaml:"gemini"`
	InvestEasy InvestEasyConfig `yaml:"investeasy"`
	HomeFinder HomeFinderConfig `yaml:"homefinder"`
}

// WebConfig holds settings specific to the web server.
type WebConfig struct {
	ListenAddress string `yaml:"listen_address"`
	RecentLimit   int    `yaml:"recent_limit"`
}

// GeminiConfig holds extraction model settings. The API key itself is read
// from the environment by the genai client.
type GeminiConfig struct {
	Model string `yaml:"model"`
}

// InvestEasyConfig holds the portfolio sandbox API settings. An empty token
// falls back to the INVESTEASY_TOKEN environment variable.
type InvestEasyConfig struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
}

// HomeFinderConfig holds the listing search API settings. An empty api key
// falls back to the HOMEFINDER_API_KEY environment variable.
type HomeFinderConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

// Load loads and validates the configuration from the given file path.
func Load(filePath string) (*Config, error) {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", filePath)
	}

	configFile, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	err = yaml.Unmarshal(configFile, &cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to parse YAML config file: %w", err)
	}

	if err := validateAndPrepare(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// validateAndPrepare checks for required fields and sets up derived values.
func validateAndPrepare(c *Config) error {
	// General
	if c.DatabasePath == "" {
		return errors.New("database_path is missing")
	}
	if c.DefaultUserID == "" {
		return errors.New("default_user_id is missing")
	}
	if c.ExcludePattern != "" {
		// LIKE matching in the queries is against the upper-cased
		// description; fold the pattern once here.
		c.ExcludePattern = strings.ToUpper(c.ExcludePattern)
	}

	// Web
	if c.Web.ListenAddress == "" {
		return errors.New("web.listen_address is missing")
	}
	if c.Web.RecentLimit == 0 {
		c.Web.RecentLimit = 10
	}
	if c.Web.RecentLimit < 0 {
		return errors.New("web.recent_limit may not be negative")
	}

	// External APIs. Secrets may come from the environment (loaded from
	// .env at startup) rather than the config file.
	if c.InvestEasy.Token == "" {
		c.InvestEasy.Token = os.Getenv("INVESTEASY_TOKEN")
	}
	if c.HomeFinder.APIKey == "" {
		c.HomeFinder.APIKey = os.Getenv("HOMEFINDER_API_KEY")
	}

	return nil
}
