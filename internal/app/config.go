package app

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/yungbote/careerpath-backend/internal/data/db"
	"github.com/yungbote/careerpath-backend/internal/observability"
	"github.com/yungbote/careerpath-backend/internal/platform/cacheinv"
	"github.com/yungbote/careerpath-backend/internal/services"
)

const defaultJWTSecret = "defaultsecret"

type Config struct {
	LogMode     string
	LogLevel    string
	HTTPAddr    string
	ServiceName string
	CORSOrigins []string

	DB    db.Config
	Redis cacheinv.Config

	JWTSecretKey string

	Career           services.CareerProgressConfig
	RoadmapCacheSize int
	AutoMigrate      bool

	MetricsEnabled bool
	Otel           observability.OtelConfig
}

// NewViper returns a viper instance bound to the process environment with
// every default applied. A .env file in the working directory is loaded first
// when present.
func NewViper() *viper.Viper {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Printf("config: ignoring .env: %v\n", err)
	}
	v := viper.New()
	v.SetTypeByDefaultValue(true)
	v.AutomaticEnv()

	def := services.DefaultCareerProgressConfig()

	v.SetDefault("LOG_MODE", "development")
	v.SetDefault("LOG_LEVEL", "")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("SERVICE_NAME", "careerpath-backend")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")

	v.SetDefault("DATABASE_DRIVER", "postgres")
	v.SetDefault("DATABASE_DSN", "")
	v.SetDefault("DATABASE_AUTO_MIGRATE", true)
	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", "5432")
	v.SetDefault("POSTGRES_USER", "postgres")
	v.SetDefault("POSTGRES_PASSWORD", "")
	v.SetDefault("POSTGRES_NAME", "careerpath")
	v.SetDefault("POSTGRES_SSLMODE", "disable")
	v.SetDefault("POSTGRES_MAX_OPEN_CONNS", 25)
	v.SetDefault("POSTGRES_MAX_IDLE_CONNS", 5)
	v.SetDefault("POSTGRES_CONN_MAX_LIFETIME", 30*time.Minute)
	v.SetDefault("POSTGRES_SLOW_THRESHOLD", time.Second)

	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_INVALIDATION_CHANNEL", "cache-invalidation")
	v.SetDefault("CACHE_KEY_PREFIX", "cache:")

	v.SetDefault("JWT_SECRET_KEY", defaultJWTSecret)

	v.SetDefault("CAREER_ACTIVE_SUBSCRIPTION_STATUSES", strings.Join(def.ActiveSubscriptionStatuses, ","))
	v.SetDefault("CAREER_BOOTSTRAP_REFERENCE", def.BootstrapReference)
	v.SetDefault("CAREER_BOOTSTRAP_ENABLED", def.BootstrapEnabled)
	v.SetDefault("CAREER_EVAL_CONCURRENCY", def.EvalConcurrency)
	v.SetDefault("CAREER_MEMBERSHIP_TITLE", def.Membership.Title)
	v.SetDefault("CAREER_MEMBERSHIP_DESCRIPTION", def.Membership.Description)
	v.SetDefault("CAREER_MEMBERSHIP_IMAGE_URL", def.Membership.ImageURL)
	v.SetDefault("ROADMAP_CACHE_SIZE", 256)

	v.SetDefault("METRICS_ENABLED", true)
	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_ENVIRONMENT", "development")
	v.SetDefault("OTEL_SERVICE_VERSION", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_HEADERS", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("OTEL_SAMPLER_RATIO", 1.0)
	return v
}

func LoadConfig(v *viper.Viper) (Config, error) {
	if v == nil {
		v = NewViper()
	}
	cfg := Config{
		LogMode:     v.GetString("LOG_MODE"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		HTTPAddr:    v.GetString("HTTP_ADDR"),
		ServiceName: v.GetString("SERVICE_NAME"),
		CORSOrigins: splitList(v.GetString("CORS_ORIGINS")),
		DB: db.Config{
			Driver:          v.GetString("DATABASE_DRIVER"),
			DSN:             v.GetString("DATABASE_DSN"),
			Host:            v.GetString("POSTGRES_HOST"),
			Port:            v.GetString("POSTGRES_PORT"),
			User:            v.GetString("POSTGRES_USER"),
			Password:        v.GetString("POSTGRES_PASSWORD"),
			Name:            v.GetString("POSTGRES_NAME"),
			SSLMode:         v.GetString("POSTGRES_SSLMODE"),
			MaxOpenConns:    v.GetInt("POSTGRES_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("POSTGRES_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("POSTGRES_CONN_MAX_LIFETIME"),
			SlowThreshold:   v.GetDuration("POSTGRES_SLOW_THRESHOLD"),
		},
		Redis: cacheinv.Config{
			Addr:      v.GetString("REDIS_ADDR"),
			Password:  v.GetString("REDIS_PASSWORD"),
			DB:        v.GetInt("REDIS_DB"),
			Channel:   v.GetString("CACHE_INVALIDATION_CHANNEL"),
			KeyPrefix: v.GetString("CACHE_KEY_PREFIX"),
		},
		JWTSecretKey: v.GetString("JWT_SECRET_KEY"),
		Career: services.CareerProgressConfig{
			ActiveSubscriptionStatuses: splitList(v.GetString("CAREER_ACTIVE_SUBSCRIPTION_STATUSES")),
			EvalConcurrency:            v.GetInt("CAREER_EVAL_CONCURRENCY"),
			BootstrapReference:         strings.TrimSpace(v.GetString("CAREER_BOOTSTRAP_REFERENCE")),
			BootstrapEnabled:           v.GetBool("CAREER_BOOTSTRAP_ENABLED"),
			Membership: services.MembershipDetails{
				Title:       v.GetString("CAREER_MEMBERSHIP_TITLE"),
				Description: v.GetString("CAREER_MEMBERSHIP_DESCRIPTION"),
				ImageURL:    v.GetString("CAREER_MEMBERSHIP_IMAGE_URL"),
			},
		},
		RoadmapCacheSize: v.GetInt("ROADMAP_CACHE_SIZE"),
		AutoMigrate:      v.GetBool("DATABASE_AUTO_MIGRATE"),
		MetricsEnabled:   v.GetBool("METRICS_ENABLED"),
		Otel: observability.OtelConfig{
			Enabled:     v.GetBool("OTEL_ENABLED"),
			ServiceName: v.GetString("SERVICE_NAME"),
			Environment: v.GetString("OTEL_ENVIRONMENT"),
			Version:     v.GetString("OTEL_SERVICE_VERSION"),
			Endpoint:    v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
			Headers:     v.GetString("OTEL_EXPORTER_OTLP_HEADERS"),
			Insecure:    v.GetBool("OTEL_EXPORTER_OTLP_INSECURE"),
			SampleRatio: v.GetFloat64("OTEL_SAMPLER_RATIO"),
		},
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if strings.TrimSpace(c.JWTSecretKey) == "" {
		return fmt.Errorf("JWT_SECRET_KEY must not be empty")
	}
	if c.Career.EvalConcurrency < 0 {
		return fmt.Errorf("CAREER_EVAL_CONCURRENCY must be >= 0, got %d", c.Career.EvalConcurrency)
	}
	if c.Career.BootstrapEnabled && c.Career.BootstrapReference == "" {
		return fmt.Errorf("CAREER_BOOTSTRAP_REFERENCE is required when bootstrap is enabled")
	}
	switch strings.ToLower(strings.TrimSpace(c.DB.Driver)) {
	case "", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DB.Driver)
	}
	return nil
}

// UsesDefaultSecret reports whether tokens are verified with the development secret.
func (c Config) UsesDefaultSecret() bool { return c.JWTSecretKey == defaultJWTSecret }

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
