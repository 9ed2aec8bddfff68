package config

import (
	"flag"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
)

type Config struct {
	// Server-side settings
	DatabaseDSN string        `env:"DATABASE_URI"`
	DBDriver    string        `env:"DB_DRIVER"` // sqlite | postgres | mysql
	AuthSecret  string        `env:"AUTH_SECRET"`
	SessionTTL  time.Duration `env:"SESSION_TTL"`
	AdminKey    string        `env:"ADMIN_KEY"`
	PublicURL   string        `env:"PUBLIC_URL"` // адрес для ссылок в QR-коде
	AppEnv      string        `env:"APP_ENV"`

	// MySQL без готового DSN
	MySQLHost string `env:"MYSQL_HOST"`
	MySQLPort string `env:"MYSQL_PORT"`
	MySQLUser string `env:"MYSQL_USER"`
	MySQLPass string `env:"MYSQL_PASS"`
	MySQLName string `env:"MYSQL_NAME"`

	// Рассылка событий комнат
	Broker        string `env:"BROKER"` // memory | redis
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB"`

	// Shared settings
	BaseURL     string `env:"BASE_URL"`
	EnableHTTPS bool   `env:"ENABLE_HTTPS"`

	// Client-side settings
	ServerURL string `env:"-"`
	StateFile string `env:"STATE_FILE"`
	Version   bool   `env:"-"` // show client version and exit (flag only)
}

func NewConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	_ = env.Parse(cfg)

	// флаги переопределяют значения из env
	// Server flags
	flag.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "строка подключения к БД")
	flag.StringVar(&cfg.DBDriver, "db-driver", cfg.DBDriver, "драйвер БД: sqlite, postgres, mysql")
	flag.StringVar(&cfg.AuthSecret, "auth-secret", cfg.AuthSecret, "секрет для подписи JWT")
	flag.StringVar(&cfg.AdminKey, "admin-key", cfg.AdminKey, "ключ администратора (X-Admin-Key)")
	flag.StringVar(&cfg.PublicURL, "public-url", cfg.PublicURL, "публичный адрес сервиса для ссылок проверки")
	flag.StringVar(&cfg.Broker, "broker", cfg.Broker, "рассылка событий: memory или redis")
	flag.StringVar(&cfg.RedisAddr, "redis-addr", cfg.RedisAddr, "адрес Redis host:port")
	// Shared/client flags
	flag.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "address of the InvoiceRoom server (host:port)")
	flag.BoolVar(&cfg.EnableHTTPS, "https", cfg.EnableHTTPS, "enable HTTPS (client: prefer https scheme for BaseURL)")
	// Client flags
	flag.StringVar(&cfg.StateFile, "state-file", cfg.StateFile, "path to client state file (session and buyer tokens)")
	flag.BoolVar(&cfg.Version, "version", cfg.Version, "Show client version and exit")

	flag.Parse()

	// Defaults
	if cfg.AuthSecret == "" {
		cfg.AuthSecret = "dev-secret-key"
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.AppEnv == "" {
		cfg.AppEnv = "development"
	}

	// validate BaseURL: must be in "address:port" (no scheme, no path). Otherwise use default.
	hostPortRe := regexp.MustCompile(`^[A-Za-z0-9\.\-]+:\d{1,5}$`)
	if !hostPortRe.MatchString(cfg.BaseURL) {
		cfg.BaseURL = "localhost:8081"
	}

	if cfg.EnableHTTPS {
		cfg.ServerURL = "https://" + cfg.BaseURL
	} else {
		cfg.ServerURL = "http://" + cfg.BaseURL
	}
	cfg.PublicURL = strings.TrimRight(cfg.PublicURL, "/")
	if cfg.PublicURL == "" {
		cfg.PublicURL = cfg.ServerURL
	}

	cfg.DBDriver = strings.ToLower(cfg.DBDriver)
	switch cfg.DBDriver {
	case "postgres", "postgresql", "mysql":
	default:
		cfg.DBDriver = "sqlite"
	}
	if cfg.DatabaseDSN == "" {
		cfg.DatabaseDSN = cfg.defaultDSN()
	}

	cfg.Broker = strings.ToLower(cfg.Broker)
	if cfg.Broker != "redis" {
		cfg.Broker = "memory"
	}
	if cfg.RedisAddr == "" {
		cfg.RedisAddr = "localhost:6379"
	}

	// Fill client defaults if empty
	if cfg.StateFile == "" {
		home, _ := os.UserHomeDir()
		cfg.StateFile = filepath.Join(home, ".invoiceroom_state.json")
	}

	return cfg
}

// IsProduction сообщает, что сервис запущен в боевом окружении.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func (c *Config) defaultDSN() string {
	switch c.DBDriver {
	case "mysql":
		return c.MySQLDSN()
	case "postgres", "postgresql":
		return ""
	}
	return "file:invoiceroom.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// MySQLDSN собирает DSN из MYSQL_* переменных.
func (c *Config) MySQLDSN() string {
	port := c.MySQLPort
	if port == "" {
		port = "3306"
	}
	host := c.MySQLHost
	if host == "" {
		host = "localhost"
	}

	mc := mysql.NewConfig()
	mc.User = c.MySQLUser
	mc.Passwd = c.MySQLPass
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(host, port)
	mc.DBName = c.MySQLName
	mc.ParseTime = true
	mc.Loc = time.UTC
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN()
}
