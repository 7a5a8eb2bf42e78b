package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"receipts/internal/core"
)

type Config struct {
	// HTTP Server
	Port               string
	LogLevel           string
	MaxUploadBytes     int64
	RateLimitPerMinute int
	ShutdownTimeout    time.Duration

	// Currencies
	ReportingCurrency string
	FallbackCurrency  string
	RatesFile         string

	// Recognition
	GeminiAPIKey         string
	GeminiModel          string
	RecognitionTimeout   time.Duration
	RecognitionCacheSize int
	RecognitionCacheTTL  time.Duration
	CacheCleanupInterval time.Duration

	// AMQP (optional report mirror)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Report mirror backend used by the worker
	MirrorBackend string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
	GoogleOAuthClientFile    string
	GoogleOAuthTokenFile     string
	GoogleOAuthClientJSON    string
	GoogleOAuthTokenJSON     string
}

const (
	MirrorMemory = "memory"
	MirrorSheets = "sheets"
)

func Load() *Config {
	cfg := &Config{
		Port:               getEnv("PORT", "8081"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		MaxUploadBytes:     int64(getEnvInt("MAX_UPLOAD_BYTES", 10<<20)),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		ShutdownTimeout:    getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		ReportingCurrency: strings.ToUpper(getEnv("REPORTING_CURRENCY", "AUD")),
		FallbackCurrency:  strings.ToUpper(getEnv("FALLBACK_RECEIPT_CURRENCY", "AUD")),
		RatesFile:         getEnv("RATES_FILE", ""),

		GeminiAPIKey:         getEnv("GEMINI_API_KEY", ""),
		GeminiModel:          getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		RecognitionTimeout:   getEnvDuration("RECOGNITION_TIMEOUT", 60*time.Second),
		RecognitionCacheSize: getEnvInt("RECOGNITION_CACHE_SIZE", 64),
		RecognitionCacheTTL:  getEnvDuration("RECOGNITION_CACHE_TTL", 30*time.Minute),
		CacheCleanupInterval: getEnvDuration("CACHE_CLEANUP_INTERVAL", 5*time.Minute),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "receipts"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "report_mirror"),

		MirrorBackend: getEnv("MIRROR_BACKEND", MirrorMemory),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", getEnv("GOOGLE_APPLICATION_CREDENTIALS", "")),
		GoogleOAuthClientFile:    getEnv("GOOGLE_OAUTH_CLIENT_FILE", ""),
		GoogleOAuthTokenFile:     getEnv("GOOGLE_OAUTH_TOKEN_FILE", ""),
		GoogleOAuthClientJSON:    getEnv("GOOGLE_OAUTH_CLIENT_JSON", ""),
		GoogleOAuthTokenJSON:     getEnv("GOOGLE_OAUTH_TOKEN_JSON", ""),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	if _, err := core.ParseCurrency(c.ReportingCurrency); err != nil {
		errors = append(errors, fmt.Sprintf("invalid reporting currency '%s': must be one of %v", c.ReportingCurrency, core.Currencies()))
	}
	if _, err := core.ParseCurrency(c.FallbackCurrency); err != nil {
		errors = append(errors, fmt.Sprintf("invalid fallback receipt currency '%s': must be one of %v", c.FallbackCurrency, core.Currencies()))
	}

	if c.RatesFile != "" {
		if _, err := os.Stat(c.RatesFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("rates file does not exist: %s", c.RatesFile))
		}
	}

	if c.MaxUploadBytes < 1 {
		errors = append(errors, fmt.Sprintf("invalid max upload size %d: must be positive", c.MaxUploadBytes))
	}
	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 per minute", c.RateLimitPerMinute))
	}

	if c.RecognitionTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid recognition timeout %v: must be at least 1 second", c.RecognitionTimeout))
	}
	if c.RecognitionCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid recognition cache size %d: must be at least 1", c.RecognitionCacheSize))
	}
	if c.RecognitionCacheTTL <= 0 {
		errors = append(errors, fmt.Sprintf("invalid recognition cache TTL %v: must be positive", c.RecognitionCacheTTL))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	switch c.MirrorBackend {
	case MirrorMemory:
	case MirrorSheets:
		errors = append(errors, c.validateSheets()...)
	default:
		errors = append(errors, fmt.Sprintf("invalid mirror backend '%s': must be one of [%s %s]", c.MirrorBackend, MirrorMemory, MirrorSheets))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func (c *Config) validateSheets() []string {
	var errors []string
	if c.GoogleSpreadsheetID == "" {
		errors = append(errors, "Google Spreadsheet ID is required when using sheets mirror")
	}

	hasServiceAccount := c.GoogleServiceAccountJSON != "" || c.GoogleServiceAccountFile != ""
	hasClient := c.GoogleOAuthClientFile != "" || c.GoogleOAuthClientJSON != ""
	hasToken := c.GoogleOAuthTokenFile != "" || c.GoogleOAuthTokenJSON != ""

	switch {
	case hasServiceAccount:
	case hasClient && hasToken:
	case hasClient:
		errors = append(errors, "either GOOGLE_OAUTH_TOKEN_FILE or GOOGLE_OAUTH_TOKEN_JSON must be provided with an OAuth client")
	default:
		errors = append(errors, "sheets mirror needs service account credentials or an OAuth client and token")
	}

	for _, f := range []struct{ label, path string }{
		{"service account", c.GoogleServiceAccountFile},
		{"OAuth client", c.GoogleOAuthClientFile},
		{"OAuth token", c.GoogleOAuthTokenFile},
	} {
		if f.path == "" {
			continue
		}
		if _, err := os.Stat(f.path); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google %s file does not exist: %s", f.label, f.path))
		}
	}
	return errors
}

// Reporting returns the validated reporting currency.
func (c *Config) Reporting() core.Currency {
	cur, err := core.ParseCurrency(c.ReportingCurrency)
	if err != nil {
		return core.AUD
	}
	return cur
}

// Fallback returns the currency assumed for receipts with an unrecognized one.
func (c *Config) Fallback() core.Currency {
	cur, err := core.ParseCurrency(c.FallbackCurrency)
	if err != nil {
		return core.AUD
	}
	return cur
}

// InitialRates returns the seed rate table: the rates file when configured,
// the hardcoded defaults otherwise.
func (c *Config) InitialRates() (core.RateTable, error) {
	if c.RatesFile == "" {
		return core.DefaultRates(), nil
	}
	return LoadRatesFile(c.RatesFile)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
