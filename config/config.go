package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Checkout CheckoutConfig
	Views    ViewsConfig
	Redis    RedisConfig
	Session  SessionConfig
	Sync     SyncConfig
	Gates    GateConfig
	CORS     CORSConfig
}

type ServerConfig struct {
	Port        string
	GinMode     string
	Environment string
}

// CheckoutConfig points at the authoritative checkout REST API.
type CheckoutConfig struct {
	BaseURL        string
	ContentBaseURL string
	APIToken       string
	Timeout        time.Duration
}

// ViewsConfig names the containers and categories the engine refreshes
// after each state change.
type ViewsConfig struct {
	TotalsContainer           string
	CouponContainer           string
	PreviewContainer          string
	BasketCategoryID          int
	CheckoutConfirmCategoryID int
	AddedOverlay              string
	AddedOverlayTimeout       time.Duration
	OrderParamsOverlay        string
}

type RedisConfig struct {
	Host        string
	Port        string
	Password    string
	DB          int
	SnapshotKey string
	Enabled     bool
}

type SessionConfig struct {
	Secret      string
	TokenExpiry time.Duration
}

type SyncConfig struct {
	Schedule string
}

// GateConfig bounds how long a confirmation prompt without its own timeout
// waits for an answer.
type GateConfig struct {
	Expiry time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			GinMode:     getEnv("GIN_MODE", "debug"),
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		Checkout: CheckoutConfig{
			BaseURL:        getEnv("CHECKOUT_API_BASE_URL", "http://localhost:8000/rest/checkout"),
			ContentBaseURL: getEnv("CHECKOUT_CONTENT_BASE_URL", "http://localhost:8000/rest/cms"),
			APIToken:       getEnv("CHECKOUT_API_TOKEN", ""),
			Timeout:        parseDuration(getEnv("CHECKOUT_API_TIMEOUT", "30s"), 30*time.Second),
		},
		Views: ViewsConfig{
			TotalsContainer:           getEnv("VIEW_TOTALS_CONTAINER", "Totals"),
			CouponContainer:           getEnv("VIEW_COUPON_CONTAINER", "Coupon"),
			PreviewContainer:          getEnv("VIEW_PREVIEW_CONTAINER", "BasketPreviewList"),
			BasketCategoryID:          parseInt(getEnv("VIEW_BASKET_CATEGORY_ID", "0")),
			CheckoutConfirmCategoryID: parseInt(getEnv("VIEW_CHECKOUT_CONFIRM_CATEGORY_ID", "0")),
			AddedOverlay:              getEnv("VIEW_ADDED_OVERLAY", "ItemViewItemToBasketConfirmationOverlay"),
			AddedOverlayTimeout:       parseDuration(getEnv("VIEW_ADDED_OVERLAY_TIMEOUT", "5s"), 5*time.Second),
			OrderParamsOverlay:        getEnv("VIEW_ORDER_PARAMS_OVERLAY", "CheckoutOrderParamsList"),
		},
		Redis: RedisConfig{
			Host:        getEnv("REDIS_HOST", "localhost"),
			Port:        getEnv("REDIS_PORT", "6379"),
			Password:    getEnv("REDIS_PASSWORD", ""),
			DB:          parseInt(getEnv("REDIS_DB", "0")),
			SnapshotKey: getEnv("REDIS_SNAPSHOT_KEY", "basket:snapshot"),
			Enabled:     getEnv("REDIS_ENABLED", "true") == "true",
		},
		Session: SessionConfig{
			Secret:      getEnv("SESSION_SECRET", ""),
			TokenExpiry: parseDuration(getEnv("SESSION_TOKEN_EXPIRY", "24h"), 24*time.Hour),
		},
		Sync: SyncConfig{
			Schedule: getEnv("CHECKOUT_SYNC_SCHEDULE", "@every 5m"),
		},
		Gates: GateConfig{
			Expiry: parseDuration(getEnv("GATE_EXPIRY", "15m"), 15*time.Minute),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		},
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Invalid duration %s, using default %s", s, fallback)
		return fallback
	}
	return duration
}

func parseInt(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Printf("Invalid integer %s, using 0", s)
		return 0
	}
	return n
}

func parseSlice(s string) []string {
	if s == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
