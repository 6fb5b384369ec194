package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/spec-kit/plantpal-service/internal/upload"
)

const defaultJWTSecret = "dev-secret"

// Config aggregates runtime configuration for the service.
type Config struct {
	App        AppConfig
	Postgres   PostgresConfig
	Redis      RedisConfig
	Logger     LoggerConfig
	Auth       AuthConfig
	Upload     UploadConfig
	RateLimit  RateLimitConfig
	Realtime   RealtimeConfig
	PlantID    PlantIDConfig
	Cloudinary CloudinaryConfig
	Assistant  AssistantConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	CORSOrigins           string
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	Schema         string
	AppName        string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	URL      string
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret       string
	TokenTTLMinutes int
	BcryptCost      int
}

// UploadConfig bounds image uploads.
type UploadConfig struct {
	Field    string
	MaxBytes int64
}

// RateLimitConfig throttles routes that call paid providers.
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
	Burst             int
}

// RealtimeConfig controls the websocket notification listener.
type RealtimeConfig struct {
	Host                string
	Port                string
	AllowedOrigins      []string
	TrustClientRoom     bool
	Fanout              string
	SendQueueSize       int
	PingIntervalSeconds int
	ReadTimeoutSeconds  int
	WriteTimeoutSeconds int
}

// PlantIDConfig points at the Plant.id v2 API.
type PlantIDConfig struct {
	BaseURL        string
	APIKey         string
	TimeoutSeconds int
}

// CloudinaryConfig holds image store credentials and folders.
type CloudinaryConfig struct {
	CloudName     string
	APIKey        string
	APISecret     string
	GardenFolder  string
	ProfileFolder string
}

// AssistantConfig targets Groq's OpenAI-compatible chat endpoint.
type AssistantConfig struct {
	BaseURL        string
	APIKey         string
	Model          string
	TimeoutSeconds int
}

// Load reads configuration from environment variables, applying defaults where possible.
// The given env files are loaded first; with none, ".env" is tried.
func Load(envFiles ...string) (*Config, error) {
	_ = godotenv.Load(envFiles...)

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	providerTimeout := getEnvAsInt("PROVIDER_TIMEOUT_SECONDS", 20)

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "plantpal-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("PORT", getEnv("APP_PORT", "5000")),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			CORSOrigins:           getEnv("CORS_ORIGINS", "*"),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			Schema:         os.Getenv("POSTGRES_SCHEMA"),
			AppName:        getEnv("APP_NAME", "plantpal-service"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			URL:      os.Getenv("REDIS_URL"),
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:       getEnv("JWT_SECRET", getEnv("AUTH_JWT_SECRET", defaultJWTSecret)),
			TokenTTLMinutes: getEnvAsInt("AUTH_TOKEN_TTL_MINUTES", 120),
			BcryptCost:      getEnvAsInt("AUTH_BCRYPT_COST", 10),
		},
		Upload: UploadConfig{
			Field:    getEnv("UPLOAD_FIELD", "image"),
			MaxBytes: int64(getEnvAsInt("UPLOAD_MAX_BYTES", 8<<20)),
		},
		RateLimit: RateLimitConfig{
			Enabled:           getEnvAsBool("RATE_LIMIT_ENABLED", true),
			RequestsPerMinute: getEnvAsInt("RATE_LIMIT_REQUESTS_PER_MINUTE", 30),
			Burst:             getEnvAsInt("RATE_LIMIT_BURST", 5),
		},
		Realtime: RealtimeConfig{
			Host:                getEnv("REALTIME_HOST", "0.0.0.0"),
			Port:                getEnv("REALTIME_PORT", "5001"),
			AllowedOrigins:      getEnvAsList("REALTIME_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
			TrustClientRoom:     getEnvAsBool("REALTIME_TRUST_CLIENT_ROOM", false),
			Fanout:              strings.ToLower(getEnv("REALTIME_FANOUT", "local")),
			SendQueueSize:       getEnvAsInt("REALTIME_SEND_QUEUE_SIZE", 16),
			PingIntervalSeconds: getEnvAsInt("REALTIME_PING_INTERVAL_SECONDS", 25),
			ReadTimeoutSeconds:  getEnvAsInt("REALTIME_READ_TIMEOUT_SECONDS", 60),
			WriteTimeoutSeconds: getEnvAsInt("REALTIME_WRITE_TIMEOUT_SECONDS", 10),
		},
		PlantID: PlantIDConfig{
			BaseURL:        strings.TrimRight(getEnv("PLANT_ID_BASE_URL", "https://api.plant.id/v2"), "/"),
			APIKey:         os.Getenv("PLANT_ID_API_KEY"),
			TimeoutSeconds: providerTimeout,
		},
		Cloudinary: CloudinaryConfig{
			CloudName:     os.Getenv("CLOUDINARY_CLOUD_NAME"),
			APIKey:        os.Getenv("CLOUDINARY_API_KEY"),
			APISecret:     os.Getenv("CLOUDINARY_API_SECRET"),
			GardenFolder:  getEnv("CLOUDINARY_GARDEN_FOLDER", "plantpal_garden"),
			ProfileFolder: getEnv("CLOUDINARY_PROFILE_FOLDER", "plantpal_profiles"),
		},
		Assistant: AssistantConfig{
			BaseURL:        getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
			APIKey:         os.Getenv("GROQ_API_KEY"),
			Model:          getEnv("GROQ_MODEL", "llama-3.1-8b-instant"),
			TimeoutSeconds: providerTimeout,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects combinations the service cannot run with.
func (c *Config) Validate() error {
	if c.App.Env == "production" && (c.Auth.JWTSecret == "" || c.Auth.JWTSecret == defaultJWTSecret) {
		return errors.New("JWT_SECRET must be set in production")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET must not be empty")
	}
	switch c.Realtime.Fanout {
	case "local", "redis":
	default:
		return fmt.Errorf("invalid REALTIME_FANOUT %q: want local or redis", c.Realtime.Fanout)
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	return seconds(a.RequestTimeoutSeconds)
}

// TokenTTL returns the lifetime of issued identity tokens.
func (a AuthConfig) TokenTTL() time.Duration {
	return time.Duration(a.TokenTTLMinutes) * time.Minute
}

// Intake returns the effective per-file upload settings, with defaults and the
// in-memory clamp applied.
func (u UploadConfig) Intake() upload.Config {
	return upload.Config{Field: u.Field, MaxBytes: u.MaxBytes}.Normalized()
}

// BodyLimit is the fiber body limit derived from the effective file cap.
func (u UploadConfig) BodyLimit() int {
	return u.Intake().BodyLimit()
}

// RequestsPerSecond converts the per-minute budget for x/time/rate.
func (r RateLimitConfig) RequestsPerSecond() float64 {
	return float64(r.RequestsPerMinute) / 60
}

// Addr returns the realtime bind address.
func (r RealtimeConfig) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

func (r RealtimeConfig) PingInterval() time.Duration { return seconds(r.PingIntervalSeconds) }
func (r RealtimeConfig) ReadTimeout() time.Duration  { return seconds(r.ReadTimeoutSeconds) }
func (r RealtimeConfig) WriteTimeout() time.Duration { return seconds(r.WriteTimeoutSeconds) }

// Timeout bounds a single Plant.id call.
func (p PlantIDConfig) Timeout() time.Duration { return seconds(p.TimeoutSeconds) }

// Timeout bounds a single chat completion.
func (a AssistantConfig) Timeout() time.Duration { return seconds(a.TimeoutSeconds) }

func seconds(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
