package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Progress  ProgressConfig  `mapstructure:"progress"`
	Views     ViewsConfig     `mapstructure:"views"`
	Log       LogConfig       `mapstructure:"log"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Driver    string `mapstructure:"driver"`
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
	// Path is the database file when Driver is sqlite.
	Path string `mapstructure:"path"`
}

type RedisConfig struct {
	Enabled  bool `mapstructure:"enabled"`
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

// CatalogConfig describes where question sets and lessons are loaded from.
type CatalogConfig struct {
	Type          string        `mapstructure:"type"`
	BaseURL       string        `mapstructure:"base_url"`
	QuestionsPath string        `mapstructure:"questions_path"`
	LessonsPath   string        `mapstructure:"lessons_path"`
	QuestionsFile string        `mapstructure:"questions_file"`
	LessonsFile   string        `mapstructure:"lessons_file"`
	Timeout       time.Duration `mapstructure:"timeout"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`
}

type ProgressConfig struct {
	Sink         string        `mapstructure:"sink"`
	URL          string        `mapstructure:"url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	TickInterval time.Duration `mapstructure:"tick_interval"`
	PersistEvery int           `mapstructure:"persist_every"`
}

type ViewsConfig struct {
	IdleTTL       time.Duration `mapstructure:"idle_ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type LogConfig struct {
	File string `mapstructure:"file"`
	// Level overrides the mode-derived level (debug, info, warn, error).
	Level string `mapstructure:"level"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

const (
	CatalogHTTP = "http"
	CatalogFile = "file"

	SinkHTTP     = "http"
	SinkDatabase = "database"
	SinkNone     = "none"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.parsetime", true)
	v.SetDefault("catalog.type", CatalogHTTP)
	v.SetDefault("catalog.timeout", 10*time.Second)
	v.SetDefault("progress.sink", SinkHTTP)
	v.SetDefault("progress.timeout", 5*time.Second)
	v.SetDefault("progress.tick_interval", time.Second)
	v.SetDefault("progress.persist_every", 5)
	v.SetDefault("views.idle_ttl", 30*time.Minute)
	v.SetDefault("views.sweep_interval", time.Minute)
	v.SetDefault("log.file", "logs/app.log")
	v.SetDefault("rate_limit.max_requests", 6000)
	v.SetDefault("rate_limit.window_minutes", 1)
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("EDU_PLAYER")
	v.AutomaticEnv()
	setDefaults(v)

	// Database
	v.BindEnv("database.host", "DATABASE_HOST")
	v.BindEnv("database.port", "DATABASE_PORT")
	v.BindEnv("database.user", "DATABASE_USER")
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "DATABASE_NAME")

	// JWT
	v.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	v.BindEnv("server.mode", "SERVER_MODE")

	// Catalog / progress
	v.BindEnv("catalog.base_url", "CATALOG_BASE_URL")
	v.BindEnv("progress.url", "PROGRESS_URL")
	v.BindEnv("progress.sink", "PROGRESS_SINK")

	// Tracing
	v.BindEnv("tracing.enabled", "TRACING_ENABLED")
	v.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.Database.Enabled && cfg.Database.Driver == "sqlite" && cfg.Database.Path != "" {
		if dir := filepath.Dir(cfg.Database.Path); dir != "." {
			os.MkdirAll(dir, 0755)
		}
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Mode == "release" && len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(c.JWT.Secret))
	}

	switch c.Catalog.Type {
	case CatalogHTTP:
		if c.Catalog.BaseURL == "" {
			return fmt.Errorf("catalog.base_url is required for the http catalog")
		}
	case CatalogFile:
		if c.Catalog.QuestionsFile == "" || c.Catalog.LessonsFile == "" {
			return fmt.Errorf("catalog.questions_file and catalog.lessons_file are required for the file catalog")
		}
	default:
		return fmt.Errorf("unknown catalog type %q", c.Catalog.Type)
	}

	switch c.Progress.Sink {
	case SinkHTTP:
		if c.Progress.URL == "" {
			return fmt.Errorf("progress.url is required for the http sink")
		}
	case SinkDatabase:
		if !c.Database.Enabled {
			return fmt.Errorf("progress.sink database requires database.enabled")
		}
	case SinkNone:
	default:
		return fmt.Errorf("unknown progress sink %q", c.Progress.Sink)
	}

	if c.Progress.PersistEvery <= 0 {
		return fmt.Errorf("progress.persist_every must be positive")
	}
	if c.Progress.TickInterval <= 0 {
		return fmt.Errorf("progress.tick_interval must be positive")
	}

	return nil
}
