package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Zarinpal holds everything the gateway client and payment service need to
// talk to the provider. Resolved once at startup; never mutated afterwards.
type Zarinpal struct {
	MerchantID string
	Sandbox    bool
	Currency   string // "IRR" or "IRT"
	Timeout    time.Duration
}

type Config struct {
	DBDSN         string
	ListenAddr    string
	PublicBaseURL string
	AdminToken    string
	Zarinpal      Zarinpal
}

const defaultGatewayTimeout = 20 * time.Second

// Load reads the configuration from the environment. DB_DSN is the only hard
// requirement; everything else has a sane local default. An empty merchant ID
// is allowed here on purpose: it is reported per-operation as a configuration
// error by the payment service, not as a startup failure.
func Load() (Config, error) {
	cfg := Config{
		DBDSN:         os.Getenv("DB_DSN"),
		ListenAddr:    envOr("LISTEN_ADDR", ":8080"),
		PublicBaseURL: strings.TrimRight(envOr("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		AdminToken:    os.Getenv("ADMIN_TOKEN"),
		Zarinpal: Zarinpal{
			MerchantID: strings.TrimSpace(os.Getenv("ZARINPAL_MERCHANT_ID")),
			Sandbox:    envBool("ZARINPAL_SANDBOX"),
			Currency:   strings.ToUpper(strings.TrimSpace(envOr("ZARINPAL_CURRENCY", "IRR"))),
			Timeout:    defaultGatewayTimeout,
		},
	}

	if cfg.DBDSN == "" {
		return Config{}, fmt.Errorf("config: DB_DSN is required")
	}

	switch cfg.Zarinpal.Currency {
	case "IRR", "IRT":
	default:
		return Config{}, fmt.Errorf("config: ZARINPAL_CURRENCY must be IRR or IRT, got %q", cfg.Zarinpal.Currency)
	}

	if v := os.Getenv("ZARINPAL_TIMEOUT_SECONDS"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			return Config{}, fmt.Errorf("config: invalid ZARINPAL_TIMEOUT_SECONDS %q", v)
		}
		cfg.Zarinpal.Timeout = time.Duration(secs) * time.Second
	}

	return cfg, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch v {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
