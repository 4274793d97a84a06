package config

import (
	"fmt"
	"strings"
)

// CheckoutConfig holds the shopper credentials and test card used by the
// checkout scenario
type CheckoutConfig struct {
	Email        string
	Password     string
	CardNumber   string
	ExpiryDate   string
	SecurityCode string
	HolderName   string
}

// LoadCheckoutConfig loads checkout configuration from environment variables
func LoadCheckoutConfig(getenv func(string) string) (*CheckoutConfig, error) {
	config := CheckoutConfig{
		Email:        getenv("SMOKE_CHECKOUT_EMAIL"),
		Password:     getenv("SMOKE_CHECKOUT_PASSWORD"),
		CardNumber:   getenv("SMOKE_CHECKOUT_CARD_NUMBER"),
		ExpiryDate:   getenv("SMOKE_CHECKOUT_EXPIRY_DATE"),
		SecurityCode: getenv("SMOKE_CHECKOUT_SECURITY_CODE"),
		HolderName:   getenv("SMOKE_CHECKOUT_HOLDER_NAME"),
	}

	if config.Email == "" {
		config.Email = "smoke@example.com"
	}
	if config.Password == "" {
		config.Password = "smoke-test"
	}
	if config.CardNumber == "" {
		config.CardNumber = "4111111111111111" // authorised test card
	}
	if config.ExpiryDate == "" {
		config.ExpiryDate = "03/30"
	}
	if config.SecurityCode == "" {
		config.SecurityCode = "737"
	}

	// Validate required fields
	if !strings.Contains(config.Email, "@") {
		return nil, fmt.Errorf("SMOKE_CHECKOUT_EMAIL must be an email address")
	}

	return &config, nil
}
