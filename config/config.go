package config

import (
	"net"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// MemorySQLite keeps memory-mode messages in process, so they vanish together with the
// in-memory users. Set SQLITE_PATH to a file to keep them across restarts.
const MemorySQLite = "file::memory:?cache=shared"

type Config struct {
	HTTPAddr string
	GRPCAddr string

	Storage     string
	DatabaseURL string
	SQLitePath  string

	JWTSecret    []byte
	TokenTTL     time.Duration
	CookieSecure bool
	BcryptCost   int
	// PasswordMinEntropy is the minimum entropy in bits accepted for new passwords.
	PasswordMinEntropy float64

	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
	// TrustedProxies lists proxy IPs or CIDRs whose X-Forwarded-For is believed.
	TrustedProxies []string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	OTPTTL        time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	MediaDir     string
	MediaBaseURL string

	LogLevel  string
	LogFormat string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTP_ADDR", ":5001")
	v.SetDefault("GRPC_ADDR", ":9090")
	v.SetDefault("STORAGE", StoragePostgres)
	v.SetDefault("SQLITE_PATH", MemorySQLite)
	v.SetDefault("TOKEN_TTL", 7*24*time.Hour)
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("PASSWORD_MIN_ENTROPY", 40)
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173")
	v.SetDefault("RATE_LIMIT_RPS", 10)
	v.SetDefault("RATE_LIMIT_BURST", 20)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("OTP_TTL", 10*time.Minute)
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("MEDIA_DIR", "media")
	v.SetDefault("MEDIA_BASE_URL", "http://localhost:5001/media")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

// LoadConfig reads configuration from the environment, after loading a .env file if one exists.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		HTTPAddr:           v.GetString("HTTP_ADDR"),
		GRPCAddr:           v.GetString("GRPC_ADDR"),
		Storage:            strings.ToLower(v.GetString("STORAGE")),
		DatabaseURL:        v.GetString("DATABASE_URL"),
		SQLitePath:         v.GetString("SQLITE_PATH"),
		JWTSecret:          []byte(v.GetString("JWT_SECRET")),
		TokenTTL:           v.GetDuration("TOKEN_TTL"),
		CookieSecure:       v.GetBool("COOKIE_SECURE"),
		BcryptCost:         v.GetInt("BCRYPT_COST"),
		PasswordMinEntropy: v.GetFloat64("PASSWORD_MIN_ENTROPY"),
		AllowedOrigins:     splitList(v.GetString("ALLOWED_ORIGINS")),
		RateLimitRPS:       v.GetFloat64("RATE_LIMIT_RPS"),
		RateLimitBurst:     v.GetInt("RATE_LIMIT_BURST"),
		TrustedProxies:     splitList(v.GetString("TRUSTED_PROXIES")),
		RedisAddr:          v.GetString("REDIS_ADDR"),
		RedisPassword:      v.GetString("REDIS_PASSWORD"),
		RedisDB:            v.GetInt("REDIS_DB"),
		OTPTTL:             v.GetDuration("OTP_TTL"),
		SMTPHost:           v.GetString("SMTP_HOST"),
		SMTPPort:           v.GetInt("SMTP_PORT"),
		SMTPUsername:       v.GetString("SMTP_USERNAME"),
		SMTPPassword:       v.GetString("SMTP_PASSWORD"),
		SMTPFrom:           v.GetString("SMTP_FROM"),
		MediaDir:           v.GetString("MEDIA_DIR"),
		MediaBaseURL:       strings.TrimRight(v.GetString("MEDIA_BASE_URL"), "/"),
		LogLevel:           v.GetString("LOG_LEVEL"),
		LogFormat:          v.GetString("LOG_FORMAT"),
	}
	if cfg.SMTPFrom == "" {
		cfg.SMTPFrom = cfg.SMTPUsername
	}

	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	if len(c.JWTSecret) == 0 {
		return errors.New("JWT_SECRET is required")
	}
	switch c.Storage {
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for postgres storage")
		}
	case StorageMemory:
	default:
		return errors.Errorf("unknown STORAGE %q", c.Storage)
	}
	for _, p := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(p); err != nil && net.ParseIP(p) == nil {
			return errors.Errorf("TRUSTED_PROXIES: %q is not an IP or CIDR", p)
		}
	}
	if c.TokenTTL <= 0 || c.OTPTTL <= 0 {
		return errors.New("TOKEN_TTL and OTP_TTL must be positive")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
