package config

import (
	"flag"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// resetFlagSet создаёт новый FlagSet перед каждым вызовом NewConfig,
// чтобы избежать повторной регистрации одних и тех же флагов между тестами.
func resetFlagSet(t *testing.T) {
	t.Helper()
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	// подавляем вывод парсера флагов в тестах
	flag.CommandLine.SetOutput(os.Stderr)
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"DATABASE_URI", "DB_DRIVER", "AUTH_SECRET", "SESSION_TTL", "ADMIN_KEY", "PUBLIC_URL", "APP_ENV",
		"MYSQL_HOST", "MYSQL_PORT", "MYSQL_USER", "MYSQL_PASS", "MYSQL_NAME",
		"BROKER", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
		"BASE_URL", "ENABLE_HTTPS", "STATE_FILE",
	} {
		t.Setenv(k, "")
	}
}

func TestNewConfig_DefaultsWhenEnvEmpty(t *testing.T) {
	clearEnv(t)

	resetFlagSet(t)
	cfg := NewConfig()

	assert.Equal(t, "dev-secret-key", cfg.AuthSecret)
	assert.Equal(t, "localhost:8081", cfg.BaseURL)
	assert.Equal(t, "http://localhost:8081", cfg.ServerURL)
	assert.Equal(t, "http://localhost:8081", cfg.PublicURL)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.True(t, strings.HasPrefix(cfg.DatabaseDSN, "file:"))
	assert.Equal(t, "memory", cfg.Broker)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.False(t, cfg.IsProduction())
	assert.NotEmpty(t, cfg.StateFile)
}

func TestNewConfig_BaseURLAndHTTPS(t *testing.T) {
	clearEnv(t)
	t.Setenv("BASE_URL", "example.com:443")
	t.Setenv("ENABLE_HTTPS", "true")
	t.Setenv("AUTH_SECRET", "top")
	t.Setenv("PUBLIC_URL", "https://invoices.example.com/")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("BROKER", "Redis")

	resetFlagSet(t)
	cfg := NewConfig()

	assert.Equal(t, "example.com:443", cfg.BaseURL)
	assert.Equal(t, "https://example.com:443", cfg.ServerURL)
	assert.Equal(t, "top", cfg.AuthSecret)
	assert.Equal(t, "https://invoices.example.com", cfg.PublicURL)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "redis", cfg.Broker)
}

func TestNewConfig_InvalidBaseURLFallback(t *testing.T) {
	// Невалидный BASE_URL (со схемой) должен откатиться на localhost:8081
	clearEnv(t)
	t.Setenv("BASE_URL", "http://bad:8080")
	t.Setenv("ENABLE_HTTPS", "false")

	resetFlagSet(t)
	cfg := NewConfig()

	assert.Equal(t, "localhost:8081", cfg.BaseURL)
	assert.True(t, strings.HasPrefix(cfg.ServerURL, "http://localhost:8081"))
}

func TestNewConfig_MySQLFromParts(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("MYSQL_HOST", "db")
	t.Setenv("MYSQL_USER", "app")
	t.Setenv("MYSQL_PASS", "pw")
	t.Setenv("MYSQL_NAME", "invoices")

	resetFlagSet(t)
	cfg := NewConfig()

	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.True(t, strings.HasPrefix(cfg.DatabaseDSN, "app:pw@tcp(db:3306)/invoices?"), cfg.DatabaseDSN)
	assert.Contains(t, cfg.DatabaseDSN, "parseTime=true")
	assert.Contains(t, cfg.DatabaseDSN, "charset=utf8mb4")
}

func TestNewConfig_FlagOverridesEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URI", "from-env")

	resetFlagSet(t)
	origArgs := os.Args
	os.Args = []string{"server", "-d", "from-flag", "-db-driver", "postgres"}
	defer func() { os.Args = origArgs }()
	cfg := NewConfig()

	assert.Equal(t, "from-flag", cfg.DatabaseDSN)
	assert.Equal(t, "postgres", cfg.DBDriver)
}
