package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	MongoDB   MongoDBConfig
	Firestore FirestoreConfig
	Redis     RedisConfig
	Identity  IdentityConfig
	TwoFactor TwoFactorConfig
	RateLimit RateLimitConfig
	SMS       SMSConfig
	Nearby    NearbyConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// ShutdownTimeout bounds graceful shutdown after a termination signal.
	ShutdownTimeout time.Duration
}

// StoreConfig selects the document store backing users and events.
type StoreConfig struct {
	Backend string // "mongo" | "firestore"
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type FirestoreConfig struct {
	ProjectID string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Addr returns host:port for the redis client.
func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

// IdentityConfig configures the external identity provider. Tokens are verified
// against Issuer/ClientID; the Keycloak admin settings are used to delete accounts.
type IdentityConfig struct {
	Issuer             string
	ClientID           string
	AllowInsecureToken bool
	KeycloakURL        string
	KeycloakRealm      string
	AdminClientID      string
	AdminClientSecret  string
}

type TwoFactorConfig struct {
	Store       string // "redis" | "mongo"
	CodeTTL     time.Duration
	SessionTTL  time.Duration
	MaxAttempts int
}

type RateLimitConfig struct {
	Limit     int
	Window    time.Duration
	Bucket    time.Duration
	IPEnabled bool
}

type SMSConfig struct {
	Provider         string // "twilio" | "sns" | "log"
	FromNumber       string
	TwilioAccountSID string
	TwilioAuthToken  string
	AWSRegion        string
	RatePerSecond    float64
	Burst            int
}

type NearbyConfig struct {
	DefaultRadiusMeters float64
	MaxRadiusMiles      float64
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", "5000")
	v.SetDefault("PORT", "")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_ENVIRONMENT", "development")
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", 10)
	v.SetDefault("STORE_BACKEND", "mongo")
	v.SetDefault("MONGODB_DATABASE", "community")
	v.SetDefault("MONGODB_TIMEOUT", 10)
	v.SetDefault("REDIS_HOST", "redis-server")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("ALLOW_INSECURE_TOKEN", false)
	v.SetDefault("TWOFAC_STORE", "redis")
	v.SetDefault("TWOFAC_CODE_TTL", "10m")
	v.SetDefault("TWOFAC_SESSION_TTL", "720h")
	v.SetDefault("TWOFAC_MAX_ATTEMPTS", 5)
	v.SetDefault("RATE_LIMIT_COUNT", 250)
	v.SetDefault("RATE_LIMIT_WINDOW_HOURS", 3)
	v.SetDefault("RATE_LIMIT_BUCKET_HOURS", 1)
	v.SetDefault("RATE_LIMIT_IP_ENABLED", false)
	v.SetDefault("SMS_PROVIDER", "log")
	v.SetDefault("SMS_RATE_PER_SECOND", 5.0)
	v.SetDefault("SMS_BURST", 10)
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("NEARBY_DEFAULT_RADIUS_METERS", 40000)
	v.SetDefault("NEARBY_MAX_RADIUS_MILES", 100)

	port := v.GetString("SERVER_PORT")
	// PaaS platforms hand the listen port over as PORT.
	if p := v.GetString("PORT"); p != "" {
		port = p
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            port,
			Host:            v.GetString("SERVER_HOST"),
			Environment:     v.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: time.Duration(v.GetInt("SERVER_SHUTDOWN_TIMEOUT")) * time.Second,
		},
		Store: StoreConfig{
			Backend: strings.ToLower(v.GetString("STORE_BACKEND")),
		},
		MongoDB: MongoDBConfig{
			URI:      v.GetString("MONGODB_URI"),
			Database: v.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(v.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Firestore: FirestoreConfig{
			ProjectID: v.GetString("FIRESTORE_PROJECT_ID"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Identity: IdentityConfig{
			Issuer:             v.GetString("OIDC_ISSUER"),
			ClientID:           v.GetString("OIDC_CLIENT_ID"),
			AllowInsecureToken: v.GetBool("ALLOW_INSECURE_TOKEN"),
			KeycloakURL:        v.GetString("KEYCLOAK_URL"),
			KeycloakRealm:      v.GetString("KEYCLOAK_REALM"),
			AdminClientID:      v.GetString("KEYCLOAK_ADMIN_CLIENT_ID"),
			AdminClientSecret:  os.Getenv("KEYCLOAK_ADMIN_CLIENT_SECRET"),
		},
		TwoFactor: TwoFactorConfig{
			Store:       strings.ToLower(v.GetString("TWOFAC_STORE")),
			CodeTTL:     v.GetDuration("TWOFAC_CODE_TTL"),
			SessionTTL:  v.GetDuration("TWOFAC_SESSION_TTL"),
			MaxAttempts: v.GetInt("TWOFAC_MAX_ATTEMPTS"),
		},
		RateLimit: RateLimitConfig{
			Limit:     v.GetInt("RATE_LIMIT_COUNT"),
			Window:    time.Duration(v.GetInt("RATE_LIMIT_WINDOW_HOURS")) * time.Hour,
			Bucket:    time.Duration(v.GetInt("RATE_LIMIT_BUCKET_HOURS")) * time.Hour,
			IPEnabled: v.GetBool("RATE_LIMIT_IP_ENABLED"),
		},
		SMS: SMSConfig{
			Provider:         strings.ToLower(v.GetString("SMS_PROVIDER")),
			FromNumber:       v.GetString("TWILIO_REGISTERED_NUMBER"),
			TwilioAccountSID: v.GetString("TWILIO_ACCOUNT_SID"),
			TwilioAuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
			AWSRegion:        v.GetString("AWS_REGION"),
			RatePerSecond:    v.GetFloat64("SMS_RATE_PER_SECOND"),
			Burst:            v.GetInt("SMS_BURST"),
		},
		Nearby: NearbyConfig{
			DefaultRadiusMeters: v.GetFloat64("NEARBY_DEFAULT_RADIUS_METERS"),
			MaxRadiusMiles:      v.GetFloat64("NEARBY_MAX_RADIUS_MILES"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports missing or contradictory settings.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "mongo":
		if c.MongoDB.URI == "" {
			return fmt.Errorf("environment variable MONGODB_URI is required for the mongo store")
		}
	case "firestore":
		if c.Firestore.ProjectID == "" {
			return fmt.Errorf("environment variable FIRESTORE_PROJECT_ID is required for the firestore store")
		}
	default:
		return fmt.Errorf("unsupported STORE_BACKEND %q", c.Store.Backend)
	}

	switch c.TwoFactor.Store {
	case "redis":
	case "mongo":
		if c.MongoDB.URI == "" {
			return fmt.Errorf("TWOFAC_STORE=mongo requires MONGODB_URI")
		}
	default:
		return fmt.Errorf("unsupported TWOFAC_STORE %q", c.TwoFactor.Store)
	}

	if !c.Identity.AllowInsecureToken && (c.Identity.Issuer == "" || c.Identity.ClientID == "") {
		return fmt.Errorf("OIDC_ISSUER and OIDC_CLIENT_ID are required unless ALLOW_INSECURE_TOKEN=true")
	}

	switch c.SMS.Provider {
	case "twilio":
		if c.SMS.TwilioAccountSID == "" || c.SMS.TwilioAuthToken == "" || c.SMS.FromNumber == "" {
			return fmt.Errorf("twilio SMS provider requires TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_REGISTERED_NUMBER")
		}
	case "sns":
	case "log":
		if c.IsProduction() {
			return fmt.Errorf("SMS_PROVIDER=log is not allowed in production")
		}
	default:
		return fmt.Errorf("unsupported SMS_PROVIDER %q", c.SMS.Provider)
	}

	if c.RateLimit.Limit <= 0 || c.RateLimit.Window <= 0 || c.RateLimit.Bucket <= 0 {
		return fmt.Errorf("rate limit count, window and bucket must be positive")
	}
	if c.RateLimit.Bucket > c.RateLimit.Window {
		return fmt.Errorf("rate limit bucket (%s) exceeds window (%s)", c.RateLimit.Bucket, c.RateLimit.Window)
	}
	if c.TwoFactor.CodeTTL <= 0 || c.TwoFactor.SessionTTL < c.TwoFactor.CodeTTL {
		return fmt.Errorf("TWOFAC_SESSION_TTL must be at least TWOFAC_CODE_TTL and both positive")
	}
	return nil
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// KeycloakAdminEnabled reports whether account deletion can reach the identity provider.
func (c *Config) KeycloakAdminEnabled() bool {
	i := c.Identity
	return i.KeycloakURL != "" && i.KeycloakRealm != "" && i.AdminClientID != "" && i.AdminClientSecret != ""
}
