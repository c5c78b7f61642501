package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/yesglobal/registration/api/internal/registration/domain"
)

// Config holds runtime configuration shared across the application.
type Config struct {
	Addr                         string
	MongoURI                     string
	MongoDatabase                string
	ApplicationCollection        string
	FailedNotificationCollection string
	Timeout                      time.Duration
	WriteTimeout                 time.Duration
	RedisAddr                    string
	RedisPassword                string
	RedisDB                      int
	RedisKeyPrefix               string
	SessionTTL                   time.Duration
	AdmissionFee                 float64
	BothFee                      float64
	QualifyingCountries          []string
	AWSRegion                    string
	UploadBucket                 string
	MediaBaseURL                 string
	UploadMaxBytes               int64
	MessengerEndpoint            string
	DiscordDestination           string
	SlackDestination             string
	MessengerTimeout             time.Duration
	AdmissionsEmail              string
	SESSender                    string
	AllowedOrigins               []string
	LogLevel                     string
	LogFormat                    string
}

// Load reads .env (if present), an optional config.yaml and environment
// variables, in increasing order of precedence.
func Load() (Config, error) {
	if err := loadEnvFile(); err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	return fromViper(v)
}

// loadEnvFile applies ENV_FILE (default .env) when it exists. A file that is
// present but unparsable is an error.
func loadEnvFile() error {
	path := envOrDefault("ENV_FILE", ".env")
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("MONGO_URI", "mongodb://mongo:27017")
	v.SetDefault("MONGO_DB", "registration")
	v.SetDefault("APPLICATION_COLLECTION", "applications")
	v.SetDefault("FAILED_NOTIFICATION_COLLECTION", "failed_notifications")
	v.SetDefault("MONGO_CONNECT_TIMEOUT", "10s")
	v.SetDefault("MONGO_WRITE_TIMEOUT", "0s")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_KEY_PREFIX", "registration:")
	v.SetDefault("SESSION_TTL", "24h")
	v.SetDefault("FEE_ADMISSION_BASE", domain.DefaultAdmissionFee)
	v.SetDefault("FEE_BOTH_BASE", domain.DefaultBothFee)
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("UPLOAD_MAX_BYTES", 10<<20)
	v.SetDefault("MESSENGER_GATEWAY_URL", "http://messenger-gateway:3000")
	v.SetDefault("MESSENGER_GATEWAY_TIMEOUT", "3s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

func fromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		Addr:                         strings.TrimSpace(v.GetString("HTTP_ADDR")),
		MongoURI:                     strings.TrimSpace(v.GetString("MONGO_URI")),
		MongoDatabase:                strings.TrimSpace(v.GetString("MONGO_DB")),
		ApplicationCollection:        strings.TrimSpace(v.GetString("APPLICATION_COLLECTION")),
		FailedNotificationCollection: strings.TrimSpace(v.GetString("FAILED_NOTIFICATION_COLLECTION")),
		Timeout:                      v.GetDuration("MONGO_CONNECT_TIMEOUT"),
		WriteTimeout:                 v.GetDuration("MONGO_WRITE_TIMEOUT"),
		RedisAddr:                    strings.TrimSpace(v.GetString("REDIS_ADDR")),
		RedisPassword:                v.GetString("REDIS_PASSWORD"),
		RedisDB:                      v.GetInt("REDIS_DB"),
		RedisKeyPrefix:               v.GetString("REDIS_KEY_PREFIX"),
		SessionTTL:                   v.GetDuration("SESSION_TTL"),
		AdmissionFee:                 v.GetFloat64("FEE_ADMISSION_BASE"),
		BothFee:                      v.GetFloat64("FEE_BOTH_BASE"),
		QualifyingCountries:          parseList(v.GetString("FEE_QUALIFYING_COUNTRIES"), domain.AfricanCountries),
		AWSRegion:                    strings.TrimSpace(v.GetString("AWS_REGION")),
		UploadBucket:                 strings.TrimSpace(v.GetString("UPLOAD_BUCKET")),
		MediaBaseURL:                 strings.TrimRight(strings.TrimSpace(v.GetString("MEDIA_BASE_URL")), "/"),
		UploadMaxBytes:               v.GetInt64("UPLOAD_MAX_BYTES"),
		MessengerEndpoint:            strings.TrimSpace(v.GetString("MESSENGER_GATEWAY_URL")),
		DiscordDestination:           strings.TrimSpace(v.GetString("MESSENGER_DISCORD_DESTINATION")),
		SlackDestination:             strings.TrimSpace(v.GetString("MESSENGER_SLACK_DESTINATION")),
		MessengerTimeout:             v.GetDuration("MESSENGER_GATEWAY_TIMEOUT"),
		AdmissionsEmail:              strings.TrimSpace(v.GetString("ADMISSIONS_EMAIL")),
		SESSender:                    strings.TrimSpace(v.GetString("SES_SENDER")),
		AllowedOrigins:               parseList(v.GetString("API_ALLOWED_ORIGINS"), []string{"*"}),
		LogLevel:                     v.GetString("LOG_LEVEL"),
		LogFormat:                    v.GetString("LOG_FORMAT"),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.MongoURI == "" {
		return errors.New("MONGO_URI is required")
	}
	if c.MongoDatabase == "" {
		return errors.New("MONGO_DB is required")
	}
	if c.AdmissionFee <= 0 || c.BothFee <= 0 {
		return fmt.Errorf("fee bases must be positive (admission=%v both=%v)", c.AdmissionFee, c.BothFee)
	}
	if c.UploadBucket != "" && c.MediaBaseURL == "" {
		return errors.New("MEDIA_BASE_URL is required when UPLOAD_BUCKET is set")
	}
	if c.AdmissionsEmail != "" && c.SESSender == "" {
		return errors.New("SES_SENDER is required when ADMISSIONS_EMAIL is set")
	}
	return nil
}

// FeeSchedule builds the pricing table from the configured bases and countries.
func (c Config) FeeSchedule() domain.FeeSchedule {
	return domain.FeeSchedule{
		AdmissionFee: c.AdmissionFee,
		BothFee:      c.BothFee,
		Qualifying:   domain.NewCountrySet(c.QualifyingCountries),
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseList(raw string, fallback []string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}

	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			values = append(values, part)
		}
	}

	if len(values) == 0 {
		return fallback
	}
	return values
}
