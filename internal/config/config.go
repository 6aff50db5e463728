// Package config loads the server configuration from TUTORCENTER_*
// environment variables, optionally seeded from a .env file.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Prefix is prepended to every variable name.
const Prefix = "TUTORCENTER_"

// Session backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// csrfKeyLength is the gorilla/csrf auth key size in bytes.
const csrfKeyLength = 32

// minSecretLength applies to the reset-token secret in production.
const minSecretLength = 32

// defaultAdminPassword is only acceptable outside production.
const defaultAdminPassword = "change-me-now"

// Config is the immutable server configuration.
type Config struct {
	Addr    string
	Env     string
	DBPath  string
	BaseURL string
	Center  string

	SessionTTL     time.Duration
	SessionBackend string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int

	CSRFKey        []byte
	TrustedOrigins []string
	ResetSecret    []byte
	ResetTTL       time.Duration

	ResendAPIKey string
	MailFrom     string
	ReplyTo      string

	AdminEmail    string
	AdminPassword string
	DemoDomain    string // seeds demo accounts outside production when set

	SlowRequest time.Duration
	SlowQuery   time.Duration
	RateLimit   int // auth POSTs per IP per minute

	// LogLevel and LogFormat come from the unprefixed LOG_LEVEL and
	// LOG_FORMAT, so a .env file can set them too.
	LogLevel  string
	LogFormat string
}

// IsProduction reports whether the server runs in production mode.
func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// SecureCookies reports whether cookies carry the Secure attribute.
func (c Config) SecureCookies() bool {
	return c.IsProduction() || strings.HasPrefix(c.BaseURL, "https://")
}

// Load reads files (".env" when none are given) into the environment
// without overriding variables already set, then parses the environment.
// A missing .env file is not an error.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return Parse(os.Getenv)
}

// Parse builds a Config from getenv. Secrets left empty outside production
// are generated, so sessions and reset links do not survive a restart.
// POST: Returned config passes Validate, or an error is returned
func Parse(getenv func(string) string) (Config, error) {
	e := env{getenv: getenv}
	c := Config{
		Addr:           e.str("ADDR", ":8080"),
		Env:            strings.ToLower(e.str("ENV", EnvDevelopment)),
		DBPath:         e.str("DB_PATH", "tutorcenter.db"),
		BaseURL:        strings.TrimRight(e.str("BASE_URL", "http://localhost:8080"), "/"),
		Center:         e.str("CENTER_NAME", "Tutoring Center"),
		SessionTTL:     e.duration("SESSION_TTL", 24*time.Hour),
		SessionBackend: strings.ToLower(e.str("SESSION_BACKEND", BackendMemory)),
		RedisAddr:      e.str("REDIS_ADDR", ""),
		RedisPassword:  e.str("REDIS_PASSWORD", ""),
		RedisDB:        e.integer("REDIS_DB", 0),
		TrustedOrigins: e.list("TRUSTED_ORIGINS"),
		ResetSecret:    []byte(e.str("RESET_SECRET", "")),
		ResetTTL:       e.duration("RESET_TTL", time.Hour),
		ResendAPIKey:   e.str("RESEND_API_KEY", ""),
		MailFrom:       e.str("MAIL_FROM", "Tutoring Center <noreply@localhost>"),
		ReplyTo:        e.str("REPLY_TO", ""),
		AdminEmail:     strings.ToLower(e.str("ADMIN_EMAIL", "admin@localhost.test")),
		AdminPassword:  e.str("ADMIN_PASSWORD", defaultAdminPassword),
		DemoDomain:     e.str("DEMO_DOMAIN", ""),
		SlowRequest:    e.duration("SLOW_REQUEST", 200*time.Millisecond),
		SlowQuery:      e.duration("SLOW_QUERY", 50*time.Millisecond),
		RateLimit:      e.integer("RATE_LIMIT", 10),
		LogLevel:       strings.TrimSpace(getenv("LOG_LEVEL")),
		LogFormat:      strings.TrimSpace(getenv("LOG_FORMAT")),
	}
	if raw := e.str("CSRF_KEY", ""); raw != "" {
		key, err := hex.DecodeString(raw)
		if err != nil {
			e.fail("CSRF_KEY", fmt.Errorf("must be hex: %w", err))
		}
		c.CSRFKey = key
	}
	if len(e.errs) > 0 {
		return Config{}, errors.Join(e.errs...)
	}

	if !c.IsProduction() {
		if len(c.CSRFKey) == 0 {
			c.CSRFKey = randomBytes(csrfKeyLength)
		}
		if len(c.ResetSecret) == 0 {
			c.ResetSecret = randomBytes(minSecretLength)
		}
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks internal consistency, plus the hardening production needs.
func (c Config) Validate() error {
	var errs []error
	if c.Env != EnvDevelopment && c.Env != EnvProduction {
		errs = append(errs, fmt.Errorf("%sENV must be %q or %q", Prefix, EnvDevelopment, EnvProduction))
	}
	switch c.SessionBackend {
	case BackendMemory:
	case BackendRedis:
		if c.RedisAddr == "" {
			errs = append(errs, fmt.Errorf("%sREDIS_ADDR is required for the redis session backend", Prefix))
		}
	default:
		errs = append(errs, fmt.Errorf("%sSESSION_BACKEND must be %q or %q", Prefix, BackendMemory, BackendRedis))
	}
	if c.SessionTTL <= 0 || c.ResetTTL <= 0 {
		errs = append(errs, errors.New("session and reset TTLs must be positive"))
	}
	if len(c.CSRFKey) != csrfKeyLength {
		errs = append(errs, fmt.Errorf("%sCSRF_KEY must be %d hex-encoded bytes", Prefix, csrfKeyLength))
	}
	if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("%sBASE_URL must be an absolute URL", Prefix))
	}
	if c.RateLimit < 1 {
		errs = append(errs, fmt.Errorf("%sRATE_LIMIT must be at least 1", Prefix))
	}

	if c.IsProduction() {
		if len(c.ResetSecret) < minSecretLength {
			errs = append(errs, fmt.Errorf("%sRESET_SECRET must be at least %d characters in production", Prefix, minSecretLength))
		}
		if c.AdminPassword == defaultAdminPassword {
			errs = append(errs, fmt.Errorf("%sADMIN_PASSWORD must be changed in production", Prefix))
		}
		if c.ResendAPIKey == "" {
			errs = append(errs, fmt.Errorf("%sRESEND_API_KEY is required in production", Prefix))
		}
		if !strings.HasPrefix(c.BaseURL, "https://") {
			errs = append(errs, fmt.Errorf("%sBASE_URL must use https in production", Prefix))
		}
	}
	return errors.Join(errs...)
}

type env struct {
	getenv func(string) string
	errs   []error
}

func (e *env) str(key, fallback string) string {
	if v := strings.TrimSpace(e.getenv(Prefix + key)); v != "" {
		return v
	}
	return fallback
}

func (e *env) duration(key string, fallback time.Duration) time.Duration {
	raw := e.str(key, "")
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		e.fail(key, err)
		return fallback
	}
	return d
}

func (e *env) integer(key string, fallback int) int {
	raw := e.str(key, "")
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		e.fail(key, err)
		return fallback
	}
	return n
}

func (e *env) list(key string) []string {
	var out []string
	for _, part := range strings.Split(e.str(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (e *env) fail(key string, err error) {
	e.errs = append(e.errs, fmt.Errorf("%s%s: %w", Prefix, key, err))
}

func randomBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("crypto/rand: %v", err))
	}
	return b
}
