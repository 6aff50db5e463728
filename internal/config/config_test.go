package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func envMap(kv map[string]string) func(string) string {
	return func(k string) string { return kv[k] }
}

func TestParse_Defaults(t *testing.T) {
	c, err := Parse(envMap(nil))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.Addr != ":8080" || c.Env != EnvDevelopment || c.SessionBackend != BackendMemory {
		t.Errorf("config = %+v", c)
	}
	if c.SessionTTL != 24*time.Hour || c.ResetTTL != time.Hour {
		t.Errorf("ttls = %v/%v", c.SessionTTL, c.ResetTTL)
	}
	if len(c.CSRFKey) != 32 || len(c.ResetSecret) < 32 {
		t.Error("development secrets not generated")
	}
	if c.SecureCookies() {
		t.Error("plain http development should not use Secure cookies")
	}
}

func TestParse_Overrides(t *testing.T) {
	c, err := Parse(envMap(map[string]string{
		"TUTORCENTER_ADDR":            ":9000",
		"TUTORCENTER_SESSION_TTL":     "2h",
		"TUTORCENTER_SESSION_BACKEND": "Redis",
		"TUTORCENTER_REDIS_ADDR":      "localhost:6379",
		"TUTORCENTER_REDIS_DB":        "3",
		"TUTORCENTER_TRUSTED_ORIGINS": "a.example, b.example,,",
		"TUTORCENTER_CSRF_KEY":        strings.Repeat("ab", 32),
		"TUTORCENTER_BASE_URL":        "https://tutor.example/",
	}))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.Addr != ":9000" || c.SessionTTL != 2*time.Hour || c.SessionBackend != BackendRedis || c.RedisDB != 3 {
		t.Errorf("config = %+v", c)
	}
	if len(c.TrustedOrigins) != 2 || c.TrustedOrigins[1] != "b.example" {
		t.Errorf("trusted origins = %v", c.TrustedOrigins)
	}
	if c.CSRFKey[0] != 0xab || c.BaseURL != "https://tutor.example" || !c.SecureCookies() {
		t.Errorf("csrf/base = %x %q", c.CSRFKey[:1], c.BaseURL)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"bad duration", map[string]string{"TUTORCENTER_SESSION_TTL": "forever"}, "SESSION_TTL"},
		{"bad int", map[string]string{"TUTORCENTER_REDIS_DB": "three"}, "REDIS_DB"},
		{"bad hex", map[string]string{"TUTORCENTER_CSRF_KEY": "zz"}, "CSRF_KEY"},
		{"short key", map[string]string{"TUTORCENTER_CSRF_KEY": "abcd"}, "CSRF_KEY"},
		{"unknown backend", map[string]string{"TUTORCENTER_SESSION_BACKEND": "memcached"}, "SESSION_BACKEND"},
		{"redis without addr", map[string]string{"TUTORCENTER_SESSION_BACKEND": "redis"}, "REDIS_ADDR"},
		{"unknown env", map[string]string{"TUTORCENTER_ENV": "staging"}, "ENV"},
		{"relative base url", map[string]string{"TUTORCENTER_BASE_URL": "/app"}, "BASE_URL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(envMap(tt.env))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want mention of %s", err, tt.want)
			}
		})
	}
}

func TestParse_ProductionRequirements(t *testing.T) {
	_, err := Parse(envMap(map[string]string{"TUTORCENTER_ENV": "production"}))
	if err == nil {
		t.Fatal("bare production config accepted")
	}
	for _, want := range []string{"CSRF_KEY", "RESET_SECRET", "ADMIN_PASSWORD", "RESEND_API_KEY", "https"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error does not mention %s: %v", want, err)
		}
	}

	c, err := Parse(envMap(map[string]string{
		"TUTORCENTER_ENV":            "production",
		"TUTORCENTER_CSRF_KEY":       strings.Repeat("01", 32),
		"TUTORCENTER_RESET_SECRET":   strings.Repeat("s", 40),
		"TUTORCENTER_ADMIN_PASSWORD": "a-real-admin-password",
		"TUTORCENTER_RESEND_API_KEY": "re_test",
		"TUTORCENTER_BASE_URL":       "https://tutor.example",
	}))
	if err != nil {
		t.Fatalf("complete production config rejected: %v", err)
	}
	if !c.IsProduction() || !c.SecureCookies() {
		t.Errorf("config = %+v", c)
	}
}

func TestLoad_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("TUTORCENTER_CENTER_NAME=Bright Minds\nLOG_LEVEL=debug\nLOG_FORMAT=text\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"TUTORCENTER_CENTER_NAME", "LOG_LEVEL", "LOG_FORMAT"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Center != "Bright Minds" {
		t.Errorf("center = %q", c.Center)
	}
	if c.LogLevel != "debug" || c.LogFormat != "text" {
		t.Errorf("log settings from .env = %q/%q", c.LogLevel, c.LogFormat)
	}
}

func TestLoad_MissingFileIsFine(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("Load: %v", err)
	}
}
