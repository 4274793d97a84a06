package config

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/adyen/storesmoke/internal/browser"
)

// HarnessConfig holds configuration for a smoke-test run
type HarnessConfig struct {
	BaseURL           string
	Browser           string
	Headless          bool
	Workers           int
	Retries           int
	Timeout           time.Duration
	NavigationTimeout time.Duration
	ResultsDir        string
	Strict            bool
	Scenarios         []string
	ChromePath        string

	// Product is exercised by the add-to-cart and checkout scenarios.
	Product string
	Size    string
	// FallbackProduct has variants without size data.
	FallbackProduct string
}

// LoadHarnessConfig loads harness configuration from environment variables
func LoadHarnessConfig(getenv func(string) string) (*HarnessConfig, error) {
	config := &HarnessConfig{
		BaseURL:           getenv("SMOKE_BASE_URL"),
		Browser:           getenv("SMOKE_BROWSER"),
		Headless:          true,
		Workers:           1,
		Timeout:           2 * time.Second,
		NavigationTimeout: 15 * time.Second,
		ResultsDir:        getenv("SMOKE_RESULTS_DIR"),
		ChromePath:        getenv("SMOKE_CHROME_PATH"),
		Product:           getenv("SMOKE_PRODUCT"),
		Size:              getenv("SMOKE_SIZE"),
		FallbackProduct:   getenv("SMOKE_FALLBACK_PRODUCT"),
	}

	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:8080"
	}
	if config.Browser == "" {
		config.Browser = "chromium"
	}
	if config.ResultsDir == "" {
		config.ResultsDir = "test-results"
	}
	if config.Product == "" {
		config.Product = "classic-tee"
	}
	if config.Size == "" {
		config.Size = "M"
	}
	if config.FallbackProduct == "" {
		config.FallbackProduct = "canvas-tote"
	}
	if v := getenv("SMOKE_SCENARIOS"); v != "" {
		config.Scenarios = splitList(v)
	}

	var err error
	if config.Headless, err = parseBool(getenv, "SMOKE_HEADLESS", config.Headless); err != nil {
		return nil, err
	}
	if config.Strict, err = parseBool(getenv, "SMOKE_STRICT", false); err != nil {
		return nil, err
	}
	if config.Workers, err = parseInt(getenv, "SMOKE_WORKERS", config.Workers); err != nil {
		return nil, err
	}
	if config.Retries, err = parseInt(getenv, "SMOKE_RETRIES", 0); err != nil {
		return nil, err
	}
	if config.Timeout, err = parseDuration(getenv, "SMOKE_TIMEOUT", config.Timeout); err != nil {
		return nil, err
	}
	if config.NavigationTimeout, err = parseDuration(getenv, "SMOKE_NAVIGATION_TIMEOUT", config.NavigationTimeout); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks values that may also have been overridden by flags
func (c *HarnessConfig) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("SMOKE_BASE_URL must be an absolute http(s) URL, got %q", c.BaseURL)
	}
	if !slices.Contains(browser.Browsers(), c.Browser) {
		return fmt.Errorf("SMOKE_BROWSER must be one of %s, got %q", strings.Join(browser.Browsers(), ", "), c.Browser)
	}
	if c.Workers < 1 {
		return fmt.Errorf("SMOKE_WORKERS must be at least 1")
	}
	if c.Retries < 0 {
		return fmt.Errorf("SMOKE_RETRIES must not be negative")
	}
	if c.Timeout <= 0 || c.NavigationTimeout <= 0 {
		return fmt.Errorf("SMOKE_TIMEOUT and SMOKE_NAVIGATION_TIMEOUT must be positive")
	}
	return nil
}

func parseBool(getenv func(string) string, key string, def bool) (bool, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return b, nil
}

func parseInt(getenv func(string) string, key string, def int) (int, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func parseDuration(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
