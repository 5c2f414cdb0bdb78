// Package config loads the service configuration from a .env file and the
// process environment into an explicit Config value that is passed down to
// every component that needs it.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env  string
	Port string

	MongoURI    string
	MongoDBName string

	JWTSecret        string
	JWTExpire        time.Duration
	JWTCookieExpire  time.Duration
	ResetTokenExpire time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPEmail    string
	SMTPPassword string
	FromName     string
	FromEmail    string

	GeocoderURL       string
	GeocoderUserAgent string
	GeocoderCountry   string
	RedisURL          string

	LogFile string

	RateLimitWindow time.Duration
	RateLimitMax    int
	CORSOrigin      string
	// TrustedProxies lists proxy IPs or CIDRs whose X-Forwarded-For is
	// believed when keying the rate limiter.
	TrustedProxies  []string
	// PublicURL is the externally reachable base URL used in emailed links.
	PublicURL       string
}

// Load reads the optional env file and builds a Config. A missing file is not
// an error; variables already present in the environment take precedence.
func Load(path string) (*Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("load env file %s: %w", path, err)
		}
	}

	cfg := &Config{
		Env:               getEnv("NODE_ENV", EnvDevelopment),
		Port:              getEnv("PORT", "5000"),
		MongoURI:          getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:       getEnv("MONGO_DB_NAME", "devcamper"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		SMTPHost:          os.Getenv("SMTP_HOST"),
		SMTPEmail:         os.Getenv("SMTP_EMAIL"),
		SMTPPassword:      os.Getenv("SMTP_PASSWORD"),
		FromName:          getEnv("FROM_NAME", "DevCamper"),
		FromEmail:         getEnv("FROM_EMAIL", "noreply@devcamper.io"),
		GeocoderURL:       getEnv("GEOCODER_URL", "https://nominatim.openstreetmap.org"),
		GeocoderUserAgent: getEnv("GEOCODER_USER_AGENT", "DevCamperAPI/1.0"),
		GeocoderCountry:   getEnv("GEOCODER_COUNTRY", "us"),
		RedisURL:          os.Getenv("REDIS_URL"),
		LogFile:           os.Getenv("LOG_FILE"),
		CORSOrigin:        getEnv("CORS_ORIGIN", "*"),
		TrustedProxies:    splitList(os.Getenv("TRUSTED_PROXIES")),
		PublicURL:         strings.TrimRight(os.Getenv("PUBLIC_URL"), "/"),
	}

	var err error
	if cfg.JWTExpire, err = ParseDuration(getEnv("JWT_EXPIRE", "30d")); err != nil {
		return nil, fmt.Errorf("JWT_EXPIRE: %w", err)
	}
	cookieDays, err := strconv.Atoi(getEnv("JWT_COOKIE_EXPIRE", "30"))
	if err != nil {
		return nil, fmt.Errorf("JWT_COOKIE_EXPIRE: %w", err)
	}
	cfg.JWTCookieExpire = time.Duration(cookieDays) * 24 * time.Hour

	if cfg.ResetTokenExpire, err = ParseDuration(getEnv("RESET_TOKEN_EXPIRE", "10m")); err != nil {
		return nil, fmt.Errorf("RESET_TOKEN_EXPIRE: %w", err)
	}
	if cfg.SMTPPort, err = strconv.Atoi(getEnv("SMTP_PORT", "2525")); err != nil {
		return nil, fmt.Errorf("SMTP_PORT: %w", err)
	}
	if cfg.RateLimitWindow, err = ParseDuration(getEnv("RATE_LIMIT_WINDOW", "10m")); err != nil {
		return nil, fmt.Errorf("RATE_LIMIT_WINDOW: %w", err)
	}
	if cfg.RateLimitMax, err = strconv.Atoi(getEnv("RATE_LIMIT_MAX", "100")); err != nil {
		return nil, fmt.Errorf("RATE_LIMIT_MAX: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is not set")
	}
	if c.JWTExpire <= 0 {
		return fmt.Errorf("JWT_EXPIRE must be positive")
	}
	if c.RateLimitMax <= 0 || c.RateLimitWindow <= 0 {
		return fmt.Errorf("rate limit window and max must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, EnvProduction)
}

func (c *Config) Addr() string {
	return ":" + c.Port
}

// ParseDuration accepts Go durations ("90m", "2h") and the day suffix used by
// token expiry settings ("30d").
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
