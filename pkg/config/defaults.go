// Package config provides centralized default values for VitaFlow
package config

import (
	"bufio"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

var envLoaded sync.Once

func loadEnvFile() {
	envLoaded.Do(func() {
		file, err := os.Open(".env")
		if err != nil {
			return
		}
		defer file.Close()

		log.Println("Loading configuration overrides from .env file...")
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())

			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}

			parts := strings.SplitN(line, "=", 2)
			if len(parts) != 2 {
				continue
			}

			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])

			if os.Getenv(key) == "" {
				os.Setenv(key, value)
			}
		}
	})
}

func getEnvInt(key string, defaultValue int) int {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.Atoi(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%d (default: %d)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvString(key string, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		if val != defaultValue {
			log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
		}
		return val
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := time.ParseDuration(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

var (
	// Server Configuration
	Port               string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration

	// Local Event Store
	LocalDBPath    string
	MaxLocalEvents int

	// Remote Ingestion Store (Turso/libsql)
	RemoteDBURL       string
	RemoteDBAuthToken string

	// Funnel
	FunnelConfigPath string
	TotalBlocks      int
	CheckoutURL      string

	// Tracking
	BeaconEndpoint string // optional override handed to the funnel UI for unload-safe sends

	// Geo Resolution
	GeoPrimaryURL  string
	GeoFallbackURL string
	GeoHTTPTimeout time.Duration

	// Pixel Integration (absent values disable the integration)
	PixelID          string
	PixelAccessToken string
	PixelAPIBase     string

	// Lead Alert Email (absent key disables the integration)
	ResendAPIKey   string
	LeadAlertTo    string
	LeadAlertFrom  string
	CheckoutValue  string

	// Dashboard Auth
	JWTSecret         string
	AdminPasswordHash string
	TokenLifetime     time.Duration

	// Session Cache
	SessionTTL             time.Duration
	SessionCleanupInterval time.Duration

	// Observability
	SlowQueryThreshold time.Duration
)

func init() {
	loadEnvFile()

	// Server Configuration
	Port = getEnvString("PORT", "8080")
	ServerReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	ServerWriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second)
	ServerIdleTimeout = getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second)

	// Local Event Store
	LocalDBPath = getEnvString("LOCAL_DB_PATH", "vitaflow.db")
	MaxLocalEvents = getEnvInt("MAX_LOCAL_EVENTS", 10000)

	// Remote Ingestion Store
	RemoteDBURL = getEnvString("REMOTE_DB_URL", "")
	RemoteDBAuthToken = getEnvString("REMOTE_DB_AUTH_TOKEN", "")

	// Funnel
	FunnelConfigPath = getEnvString("FUNNEL_CONFIG_PATH", "")
	TotalBlocks = getEnvInt("TOTAL_BLOCKS", 21)
	CheckoutURL = getEnvString("CHECKOUT_URL", "")

	// Tracking
	BeaconEndpoint = getEnvString("BEACON_ENDPOINT", "")

	// Geo Resolution
	GeoPrimaryURL = getEnvString("GEO_PRIMARY_URL", "https://ipapi.co/%s/json/")
	GeoFallbackURL = getEnvString("GEO_FALLBACK_URL", "https://api.ipify.org?format=json")
	GeoHTTPTimeout = getEnvDuration("GEO_HTTP_TIMEOUT", 10*time.Second)

	// Pixel Integration
	PixelID = getEnvString("PIXEL_ID", "")
	PixelAccessToken = getEnvString("PIXEL_ACCESS_TOKEN", "")
	PixelAPIBase = getEnvString("PIXEL_API_BASE", "https://graph.facebook.com/v18.0")

	// Lead Alert Email
	ResendAPIKey = getEnvString("RESEND_API_KEY", "")
	LeadAlertTo = getEnvString("LEAD_ALERT_TO", "")
	LeadAlertFrom = getEnvString("LEAD_ALERT_FROM", "alerts@vitaflow.app")
	CheckoutValue = getEnvString("CHECKOUT_VALUE", "14.00")

	// Dashboard Auth
	JWTSecret = getEnvString("JWT_SECRET", "")
	AdminPasswordHash = getEnvString("ADMIN_PASSWORD_HASH", "")
	TokenLifetime = getEnvDuration("TOKEN_LIFETIME", 24*time.Hour)

	// Session Cache
	SessionTTL = getEnvDuration("SESSION_TTL", 24*time.Hour)
	SessionCleanupInterval = getEnvDuration("SESSION_CLEANUP_INTERVAL", 30*time.Minute)

	// Observability
	SlowQueryThreshold = getEnvDuration("SLOW_QUERY_THRESHOLD", 50*time.Millisecond)
}
