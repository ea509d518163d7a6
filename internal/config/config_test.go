package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017/testdb")
	t.Setenv("MONGODB_DATABASE", "community_test")
	t.Setenv("REDIS_HOST", "localhost")
	t.Setenv("REDIS_PORT", "6379")
	t.Setenv("OIDC_ISSUER", "https://securetoken.google.com/community-test")
	t.Setenv("OIDC_CLIENT_ID", "community-test")
}

func TestLoadConfig(t *testing.T) {
	setBaseEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, "mongodb://localhost:27017/testdb", cfg.MongoDB.URI)
	require.Equal(t, "localhost:6379", cfg.Redis.Addr())
	require.Equal(t, "mongo", cfg.Store.Backend)
	require.Equal(t, "redis", cfg.TwoFactor.Store)
	require.Equal(t, 250, cfg.RateLimit.Limit)
	require.Equal(t, 3*time.Hour, cfg.RateLimit.Window)
	require.Equal(t, time.Hour, cfg.RateLimit.Bucket)
	require.False(t, cfg.RateLimit.IPEnabled)
	require.Equal(t, 10*time.Minute, cfg.TwoFactor.CodeTTL)
	require.Equal(t, 720*time.Hour, cfg.TwoFactor.SessionTTL)
	require.Equal(t, 40000.0, cfg.Nearby.DefaultRadiusMeters)
	require.Equal(t, "log", cfg.SMS.Provider)
	require.False(t, cfg.KeycloakAdminEnabled())
}

func TestLoadConfig_PortOverride(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("PORT", "8080")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Server.Port)
}

func TestLoadConfig_MissingMongoURI(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("MONGODB_URI", "")

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfig_FirestoreBackend(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("MONGODB_URI", "")
	t.Setenv("STORE_BACKEND", "firestore")

	_, err := LoadConfig()
	require.Error(t, err, "project id is required")

	t.Setenv("FIRESTORE_PROJECT_ID", "community-88108")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "community-88108", cfg.Firestore.ProjectID)
}

func TestLoadConfig_IdentityRequiredUnlessInsecure(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("OIDC_ISSUER", "")

	_, err := LoadConfig()
	require.Error(t, err)

	t.Setenv("ALLOW_INSECURE_TOKEN", "true")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.True(t, cfg.Identity.AllowInsecureToken)
}

func TestLoadConfig_LogSMSRejectedInProduction(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("SERVER_ENVIRONMENT", "production")

	_, err := LoadConfig()
	require.Error(t, err)

	t.Setenv("SMS_PROVIDER", "sns")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.True(t, cfg.IsProduction())
}

func TestLoadConfig_TwilioRequiresCredentials(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("SMS_PROVIDER", "twilio")

	_, err := LoadConfig()
	require.Error(t, err)

	t.Setenv("TWILIO_ACCOUNT_SID", "AC123")
	t.Setenv("TWILIO_AUTH_TOKEN", "secret")
	t.Setenv("TWILIO_REGISTERED_NUMBER", "+15005550006")
	_, err = LoadConfig()
	require.NoError(t, err)
}

func TestValidate_BucketLargerThanWindow(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("RATE_LIMIT_BUCKET_HOURS", "4")

	_, err := LoadConfig()
	require.Error(t, err)
}
