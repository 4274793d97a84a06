package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// DefaultFile is read when no --config flag is given. A missing default file
// is not an error.
const DefaultFile = "storesmoke.toml"

// fileKeys maps "section.key" in the TOML file to the environment variable
// it provides a value for.
var fileKeys = map[string]string{
	"harness.base_url":           "SMOKE_BASE_URL",
	"harness.browser":            "SMOKE_BROWSER",
	"harness.headless":           "SMOKE_HEADLESS",
	"harness.workers":            "SMOKE_WORKERS",
	"harness.retries":            "SMOKE_RETRIES",
	"harness.timeout":            "SMOKE_TIMEOUT",
	"harness.navigation_timeout": "SMOKE_NAVIGATION_TIMEOUT",
	"harness.results_dir":        "SMOKE_RESULTS_DIR",
	"harness.strict":             "SMOKE_STRICT",
	"harness.scenarios":          "SMOKE_SCENARIOS",
	"harness.chrome_path":        "SMOKE_CHROME_PATH",
	"harness.product":            "SMOKE_PRODUCT",
	"harness.size":               "SMOKE_SIZE",
	"harness.fallback_product":   "SMOKE_FALLBACK_PRODUCT",
	"checkout.email":             "SMOKE_CHECKOUT_EMAIL",
	"checkout.password":          "SMOKE_CHECKOUT_PASSWORD",
	"checkout.card_number":       "SMOKE_CHECKOUT_CARD_NUMBER",
	"checkout.expiry_date":       "SMOKE_CHECKOUT_EXPIRY_DATE",
	"checkout.security_code":     "SMOKE_CHECKOUT_SECURITY_CODE",
	"checkout.holder_name":       "SMOKE_CHECKOUT_HOLDER_NAME",
	"postgres.user":              "POSTGRES_USER",
	"postgres.password":          "POSTGRES_PASSWORD",
	"postgres.database":          "POSTGRES_DB",
	"postgres.host":              "POSTGRES_HOSTNAME",
	"postgres.port":              "POSTGRES_PORT",
	"postgres.sslmode":           "POSTGRES_SSLMODE",
	"demo.host":                  "DEMO_HOST",
	"demo.port":                  "PORT",
	"demo.pages_dir":             "DEMO_PAGES_DIR",
}

// FileValues are the settings read from a TOML file, keyed by the
// environment variable they stand in for.
type FileValues map[string]string

// LoadFile reads a TOML configuration file
func LoadFile(path string) (FileValues, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var sections map[string]map[string]any
	if err := toml.Unmarshal(data, &sections); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	values := FileValues{}
	for section, entries := range sections {
		for key, raw := range entries {
			name := section + "." + key
			envKey, ok := fileKeys[name]
			if !ok {
				return nil, fmt.Errorf("unknown setting %s in %s", name, path)
			}
			v, err := stringify(raw)
			if err != nil {
				return nil, fmt.Errorf("setting %s in %s: %w", name, path, err)
			}
			values[envKey] = v
		}
	}
	return values, nil
}

// Keys returns the environment variables the file sets, sorted.
func (v FileValues) Keys() []string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Getenv returns a lookup that prefers getenv and falls back to the file.
func (v FileValues) Getenv(getenv func(string) string) func(string) string {
	return func(key string) string {
		if value := getenv(key); value != "" {
			return value
		}
		return v[key]
	}
}

func stringify(raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			s, err := stringify(item)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ","), nil
	default:
		return "", fmt.Errorf("unsupported value type %T", raw)
	}
}
