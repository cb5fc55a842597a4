package v1

import (
	"fmt"
	"strings"
	"time"
)

// AppConfig enumerates the runtime options consumed by the V1 services.
// Everything comes from the environment in main; services receive this struct
// instead of reading globals.
type AppConfig struct {
	// RosterPath is the location of the reference CSV dataset
	RosterPath string
	// SuccessRedirectURL is where confirmed payment callbacks redirect to
	SuccessRedirectURL string
	// ActiveEmailOverrides always resolve as active, regardless of stored state
	ActiveEmailOverrides map[string]struct{}
	// CheckoutBaseURL and CheckoutAPIKey configure the payment provider client
	CheckoutBaseURL string
	CheckoutAPIKey  string
	// CheckoutTimeout bounds each provider round trip
	CheckoutTimeout time.Duration
	// Currency is the ISO 4217 code used for checkout sessions
	Currency string
}

// NewAppConfig builds the application configuration from environment variables
func NewAppConfig() (*AppConfig, error) {
	cfg := &AppConfig{
		RosterPath:           getEnvOrDefault("ROSTER_CSV_PATH", "data/roster.csv"),
		SuccessRedirectURL:   getEnvOrDefault("PAYMENT_SUCCESS_REDIRECT_URL", ""),
		ActiveEmailOverrides: parseEmailSet(getEnvOrDefault("ACTIVE_EMAIL_OVERRIDES", "")),
		CheckoutBaseURL:      getEnvOrDefault("CHECKOUT_PROVIDER_URL", ""),
		CheckoutAPIKey:       getEnvOrDefault("CHECKOUT_PROVIDER_API_KEY", ""),
		CheckoutTimeout:      10 * time.Second,
		Currency:             getEnvOrDefault("CHECKOUT_CURRENCY", "usd"),
	}

	if cfg.CheckoutBaseURL == "" {
		return nil, fmt.Errorf("CHECKOUT_PROVIDER_URL environment variable not set")
	}
	if cfg.SuccessRedirectURL == "" {
		return nil, fmt.Errorf("PAYMENT_SUCCESS_REDIRECT_URL environment variable not set")
	}

	return cfg, nil
}

// IsActiveOverride reports whether the email is on the operational allowlist
func (c *AppConfig) IsActiveOverride(email string) bool {
	_, ok := c.ActiveEmailOverrides[email]
	return ok
}

// parseEmailSet splits a comma-separated list into a set, dropping blanks
func parseEmailSet(raw string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, part := range strings.Split(raw, ",") {
		email := strings.TrimSpace(part)
		if email != "" {
			set[email] = struct{}{}
		}
	}
	return set
}
