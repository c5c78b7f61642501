package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yesglobal/registration/api/internal/registration/domain"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENV_FILE", "does-not-exist.env")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "registration", cfg.MongoDatabase)
	assert.Equal(t, "applications", cfg.ApplicationCollection)
	assert.Equal(t, "failed_notifications", cfg.FailedNotificationCollection)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 294.0, cfg.AdmissionFee)
	assert.Equal(t, 588.0, cfg.BothFee)
	assert.Equal(t, domain.AfricanCountries, cfg.QualifyingCountries)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Empty(t, cfg.RedisAddr)
	assert.Empty(t, cfg.UploadBucket)
	assert.Equal(t, int64(10<<20), cfg.UploadMaxBytes)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("ENV_FILE", "does-not-exist.env")
	t.Setenv("MONGO_DB", "admissions")
	t.Setenv("FEE_ADMISSION_BASE", "300")
	t.Setenv("FEE_BOTH_BASE", "600.5")
	t.Setenv("FEE_QUALIFYING_COUNTRIES", " Ghana, ,Kenya ")
	t.Setenv("SESSION_TTL", "45m")
	t.Setenv("API_ALLOWED_ORIGINS", "https://apply.example.com,https://admin.example.com")
	t.Setenv("UPLOAD_BUCKET", "registration-docs")
	t.Setenv("MEDIA_BASE_URL", "https://media.example.com/")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("REDIS_DB", "2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "admissions", cfg.MongoDatabase)
	assert.Equal(t, 300.0, cfg.AdmissionFee)
	assert.Equal(t, 600.5, cfg.BothFee)
	assert.Equal(t, []string{"Ghana", "Kenya"}, cfg.QualifyingCountries)
	assert.Equal(t, 45*time.Minute, cfg.SessionTTL)
	assert.Equal(t, []string{"https://apply.example.com", "https://admin.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, "https://media.example.com", cfg.MediaBaseURL)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, 2, cfg.RedisDB)

	schedule := cfg.FeeSchedule()
	fee, discounted := schedule.ComputeFee(domain.PaymentBoth, "kenya")
	assert.Equal(t, 300.25, fee)
	assert.True(t, discounted)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"zero fee":             {"FEE_ADMISSION_BASE": "0"},
		"bucket without media": {"UPLOAD_BUCKET": "docs"},
		"email without sender": {"ADMISSIONS_EMAIL": "admissions@example.com"},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("ENV_FILE", "does-not-exist.env")
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	valid := filepath.Join(dir, "valid.env")
	require.NoError(t, os.WriteFile(valid, []byte("REGISTRATION_TEST_DB=from-env-file\n"), 0o600))
	t.Setenv("REGISTRATION_TEST_DB", "")
	os.Unsetenv("REGISTRATION_TEST_DB")
	t.Setenv("ENV_FILE", valid)

	_, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-env-file", os.Getenv("REGISTRATION_TEST_DB"))

	malformed := filepath.Join(dir, "malformed.env")
	require.NoError(t, os.WriteFile(malformed, []byte("MONGO-DB=broken\n"), 0o600))
	t.Setenv("ENV_FILE", malformed)

	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed.env")
}

func TestParseList(t *testing.T) {
	fallback := []string{"x"}
	assert.Equal(t, fallback, parseList("", fallback))
	assert.Equal(t, fallback, parseList(" , ", fallback))
	assert.Equal(t, []string{"a", "b"}, parseList("a, b", fallback))
}
