package config

import (
	"strings"
	"time"
)

const (
	ProviderMock    = "mock"
	ProviderPayTabs = "paytabs"
)

var payTabsRegions = map[string]string{
	"SAU":    "https://secure.paytabs.sa",
	"ARE":    "https://secure.paytabs.com",
	"EGY":    "https://secure-egypt.paytabs.com",
	"OMN":    "https://secure-oman.paytabs.com",
	"JOR":    "https://secure-jordan.paytabs.com",
	"GLOBAL": "https://secure-global.paytabs.com",
}

// PaymentConfig selects and configures the payment gateway.  The
// provider is fixed for the lifetime of the process.
type PaymentConfig struct {
	Provider   string        // "mock" or "paytabs"
	Currency   string        // ISO currency sent with every payment
	ProfileID  string        // PayTabs merchant profile id
	ServerKey  string        // PayTabs server key, also the callback HMAC key
	Region     string        // PayTabs region code
	BaseURL    string        // overrides the region URL when set
	Timeout    time.Duration // HTTP timeout for provider calls
	Country    string        // customer country sent to the provider
	MerchantID string        // shown in payment descriptions
}

// LoadPaymentConfig reads PAYMENT_* and PAYTABS_* variables.  The mock
// gateway is chosen when PAYMENT_PROVIDER is "mock", or when no usable
// PayTabs profile id is configured.
func LoadPaymentConfig() PaymentConfig {
	cfg := PaymentConfig{
		Provider:   strings.ToLower(envStr("PAYMENT_PROVIDER", ProviderPayTabs)),
		Currency:   strings.ToUpper(envStr("PAYMENT_CURRENCY", "SAR")),
		ProfileID:  envStr("PAYTABS_PROFILE_ID", ""),
		ServerKey:  envStr("PAYTABS_SERVER_KEY", ""),
		Region:     strings.ToUpper(envStr("PAYTABS_REGION", "SAU")),
		BaseURL:    envStr("PAYTABS_BASE_URL", ""),
		Timeout:    envDur("PAYMENT_TIMEOUT", 30*time.Second),
		Country:    envStr("PAYTABS_COUNTRY", "SA"),
		MerchantID: envStr("PAYMENT_DESCRIPTION_PREFIX", "Desert Paths Journey"),
	}
	if cfg.ProfileID == "" || strings.HasPrefix(cfg.ProfileID, "YOUR_") {
		cfg.Provider = ProviderMock
	}
	if cfg.Provider != ProviderPayTabs {
		cfg.Provider = ProviderMock
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = PayTabsBaseURL(cfg.Region)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return cfg
}

// PayTabsBaseURL maps a region code to its API endpoint, falling back
// to the global endpoint for unknown regions.
func PayTabsBaseURL(region string) string {
	if u, ok := payTabsRegions[strings.ToUpper(region)]; ok {
		return u
	}
	return payTabsRegions["GLOBAL"]
}
