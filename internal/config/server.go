package config

// ServerConfig holds configuration for the demo storefront server
type ServerConfig struct {
	Host     string
	Port     string
	PagesDir string
}

// LoadServerConfig loads server configuration from environment variables
func LoadServerConfig(getenv func(string) string) ServerConfig {
	config := ServerConfig{
		Host:     getenv("DEMO_HOST"),
		Port:     getenv("PORT"),
		PagesDir: getenv("DEMO_PAGES_DIR"),
	}
	if config.Port == "" {
		config.Port = "8080" // Default to port 8080
	}
	if config.PagesDir == "" {
		config.PagesDir = "storefront-pages"
	}
	return config
}
