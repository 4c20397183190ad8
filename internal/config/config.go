package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	Auth      AuthConfig
	OAuth     OAuthConfig
	Redis     RedisConfig
	Plans     PlansConfig
	MongoDB   MongoDBConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	BaseURL      string // externally reachable base URL, builds verification/callback URLs
	CORSAllow    []string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type AuthConfig struct {
	SigningSecret string
	TokenTTL      time.Duration
	SessionTTL    time.Duration
	PollInterval  time.Duration
	AllowlistPath string
	DeviceStore   string // "memory" | "redis"
}

type OAuthConfig struct {
	Issuer       string
	ClientID     string
	ClientSecret string
	// AuthURL/TokenURL pin explicit endpoints for insecure mode, where no
	// provider discovery happens.
	AuthURL  string
	TokenURL string
	// AllowInsecure skips ID-token signature verification. Never enable
	// outside local integration testing.
	AllowInsecure bool
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type PlansConfig struct {
	DataDir       string
	Backend       string // "file" | "mongo"
	ScriptsSource string // "file" | "bucket"
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RateLimitConfig struct {
	Enabled       bool
	UseRedis      bool
	RPS           float64
	Burst         int
	WindowSeconds int
}

// LoadConfig loads configuration from environment variables and .env file.
// The signing secret and allow-list path are hard requirements: the service
// refuses to start without them rather than falling back to an
// unauthenticated mode.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env")

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_ENVIRONMENT", "development")
	viper.SetDefault("BASE_URL", "http://localhost:8080")
	viper.SetDefault("AUTH_TOKEN_TTL", 720)
	viper.SetDefault("DEVICE_SESSION_TTL", 600)
	viper.SetDefault("DEVICE_POLL_INTERVAL", 2)
	viper.SetDefault("DEVICE_STORE", "memory")
	viper.SetDefault("OAUTH_ISSUER", "https://accounts.google.com")
	viper.SetDefault("OAUTH_AUTH_URL", "https://accounts.google.com/o/oauth2/v2/auth")
	viper.SetDefault("OAUTH_TOKEN_URL", "https://oauth2.googleapis.com/token")
	viper.SetDefault("PLANS_DATA_DIR", "data")
	viper.SetDefault("PLANS_BACKEND", "file")
	viper.SetDefault("SCRIPTS_SOURCE", "file")
	viper.SetDefault("MONGODB_TIMEOUT", 10)
	viper.SetDefault("RATE_LIMIT_RPS", 5.0)
	viper.SetDefault("RATE_LIMIT_BURST", 10)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)

	cfg := &Config{
		Server: ServerConfig{
			Port:         viper.GetString("SERVER_PORT"),
			Host:         viper.GetString("SERVER_HOST"),
			Environment:  viper.GetString("SERVER_ENVIRONMENT"),
			BaseURL:      strings.TrimRight(viper.GetString("BASE_URL"), "/"),
			CORSAllow:    splitCSV(viper.GetString("CORS_ALLOW")),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Auth: AuthConfig{
			SigningSecret: viper.GetString("AUTH_SIGNING_SECRET"),
			TokenTTL:      time.Duration(viper.GetInt("AUTH_TOKEN_TTL")) * time.Minute,
			SessionTTL:    time.Duration(viper.GetInt("DEVICE_SESSION_TTL")) * time.Second,
			PollInterval:  time.Duration(viper.GetInt("DEVICE_POLL_INTERVAL")) * time.Second,
			AllowlistPath: viper.GetString("ALLOWLIST_PATH"),
			DeviceStore:   viper.GetString("DEVICE_STORE"),
		},
		OAuth: OAuthConfig{
			Issuer:        viper.GetString("OAUTH_ISSUER"),
			ClientID:      viper.GetString("GOOGLE_CLIENT_ID"),
			ClientSecret:  viper.GetString("GOOGLE_CLIENT_SECRET"),
			AuthURL:       viper.GetString("OAUTH_AUTH_URL"),
			TokenURL:      viper.GetString("OAUTH_TOKEN_URL"),
			AllowInsecure: viper.GetBool("ALLOW_INSECURE_OAUTH"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       0,
		},
		Plans: PlansConfig{
			DataDir:       viper.GetString("PLANS_DATA_DIR"),
			Backend:       viper.GetString("PLANS_BACKEND"),
			ScriptsSource: viper.GetString("SCRIPTS_SOURCE"),
		},
		MongoDB: MongoDBConfig{
			URI:      viper.GetString("MONGODB_URI"),
			Database: viper.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(viper.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		RateLimit: RateLimitConfig{
			Enabled:       viper.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis:      viper.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:           viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         viper.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds: viper.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Auth.SigningSecret == "" {
		return fmt.Errorf("AUTH_SIGNING_SECRET is required")
	}
	if len(c.Auth.SigningSecret) < 32 {
		return fmt.Errorf("AUTH_SIGNING_SECRET must be at least 32 bytes")
	}
	if c.Auth.AllowlistPath == "" {
		return fmt.Errorf("ALLOWLIST_PATH is required")
	}
	if c.Auth.DeviceStore != "memory" && c.Auth.DeviceStore != "redis" {
		return fmt.Errorf("DEVICE_STORE must be \"memory\" or \"redis\", got %q", c.Auth.DeviceStore)
	}
	if c.Auth.DeviceStore == "redis" && c.Redis.Host == "" {
		return fmt.Errorf("DEVICE_STORE=redis requires REDIS_HOST")
	}
	if !c.OAuth.AllowInsecure && (c.OAuth.ClientID == "" || c.OAuth.ClientSecret == "") {
		return fmt.Errorf("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET are required unless ALLOW_INSECURE_OAUTH=true")
	}
	if c.Plans.Backend == "mongo" && c.MongoDB.URI == "" {
		return fmt.Errorf("PLANS_BACKEND=mongo requires MONGODB_URI")
	}
	return nil
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
