// Package config loads timecard settings from defaults, an optional YAML file,
// a .env file and TIMECARD_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/mellaniegambe/timecard/internal/output"
)

// Version is set at build time via -ldflags.
var Version = "dev"

const envPrefix = "TIMECARD"

// Config holds all timecard configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Extractor ExtractorConfig `mapstructure:"extractor"`
	Backend   BackendConfig   `mapstructure:"backend"`
	Output    OutputConfig    `mapstructure:"output"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	Mode            string        `mapstructure:"mode"` // gin mode: debug, release, test
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes"`
	MaxBatches      int           `mapstructure:"max_batches"`
	AutoSave        bool          `mapstructure:"auto_save"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// ExtractorConfig selects and configures the AI extraction provider.
type ExtractorConfig struct {
	Provider string        `mapstructure:"provider"` // http, openai
	Endpoint string        `mapstructure:"endpoint"`
	APIKey   string        `mapstructure:"api_key"`
	Model    string        `mapstructure:"model"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Field    string        `mapstructure:"field"`
	Prompt   string        `mapstructure:"prompt"`
	Detail   string        `mapstructure:"detail"`
}

// Extra returns the provider-specific settings that are set.
func (e ExtractorConfig) Extra() map[string]string {
	vars := []struct {
		value    string
		extraKey string
	}{
		{e.Field, "field"},
		{e.Prompt, "prompt"},
		{e.Detail, "detail"},
	}

	var m map[string]string
	for _, v := range vars {
		if v.value != "" {
			if m == nil {
				m = make(map[string]string)
			}
			m[v.extraKey] = v.value
		}
	}
	return m
}

// BackendConfig selects where images and records are saved.
type BackendConfig struct {
	Kind     string         `mapstructure:"kind"` // supabase, sql, none
	Supabase SupabaseConfig `mapstructure:"supabase"`
	SQL      SQLConfig      `mapstructure:"sql"`
	Images   ImagesConfig   `mapstructure:"images"`
}

// SupabaseConfig holds the hosted backend settings.
type SupabaseConfig struct {
	URL    string `mapstructure:"url"`
	Key    string `mapstructure:"key"`
	Bucket string `mapstructure:"bucket"`
	Table  string `mapstructure:"table"`
}

// SQLConfig holds the gorm backend settings.
type SQLConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	LogLevel        string        `mapstructure:"log_level"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// ImagesConfig is the local image directory used with the sql backend.
type ImagesConfig struct {
	Dir     string `mapstructure:"dir"`
	BaseURL string `mapstructure:"base_url"`
}

// OutputConfig lists the sinks notified after each save.
type OutputConfig struct {
	Verbosity      string            `mapstructure:"verbosity"`
	Stdout         bool              `mapstructure:"stdout"`
	Pretty         bool              `mapstructure:"pretty"`
	File           string            `mapstructure:"file"`
	FileMaxSize    int64             `mapstructure:"file_max_size"`
	WebhookURL     string            `mapstructure:"webhook_url"`
	WebhookHeaders map[string]string `mapstructure:"webhook_headers"`
	AMQPURL        string            `mapstructure:"amqp_url"`
	AMQPQueue      string            `mapstructure:"amqp_queue"`
	Async          bool              `mapstructure:"async"`
	BufferSize     int               `mapstructure:"buffer_size"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.max_upload_bytes", 32<<20)
	v.SetDefault("server.max_batches", 100)
	v.SetDefault("server.auto_save", true)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "5m")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("extractor.provider", "http")
	v.SetDefault("extractor.endpoint", "")
	v.SetDefault("extractor.api_key", "")
	v.SetDefault("extractor.model", "")
	v.SetDefault("extractor.timeout", "2m")
	v.SetDefault("extractor.field", "")
	v.SetDefault("extractor.prompt", "")
	v.SetDefault("extractor.detail", "")

	v.SetDefault("backend.kind", "supabase")
	v.SetDefault("backend.supabase.url", "")
	v.SetDefault("backend.supabase.key", "")
	v.SetDefault("backend.supabase.bucket", "timecards")
	v.SetDefault("backend.supabase.table", "timecard_results")
	v.SetDefault("backend.sql.driver", "sqlite")
	v.SetDefault("backend.sql.dsn", "data/timecard.db")
	v.SetDefault("backend.sql.log_level", "warn")
	v.SetDefault("backend.sql.max_open_conns", 10)
	v.SetDefault("backend.sql.max_idle_conns", 5)
	v.SetDefault("backend.sql.conn_max_lifetime", "1h")
	v.SetDefault("backend.images.dir", "data/images")
	v.SetDefault("backend.images.base_url", "http://localhost:8080/images")

	v.SetDefault("output.verbosity", "standard")
	v.SetDefault("output.stdout", false)
	v.SetDefault("output.pretty", false)
	v.SetDefault("output.file", "")
	v.SetDefault("output.file_max_size", 0)
	v.SetDefault("output.webhook_url", "")
	v.SetDefault("output.amqp_url", "")
	v.SetDefault("output.amqp_queue", "timecards.saved")
	v.SetDefault("output.async", true)
	v.SetDefault("output.buffer_size", 64)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
}

// Load reads configuration. path names a YAML file; when empty, ./timecard.yaml
// is used if it exists.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("timecard")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The hosted backend's conventional variable names also work.
	v.BindEnv("backend.supabase.url", "TIMECARD_BACKEND_SUPABASE_URL", "SUPABASE_URL")
	v.BindEnv("backend.supabase.key", "TIMECARD_BACKEND_SUPABASE_KEY", "SUPABASE_ANON_KEY")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// Part selects configuration sections for Check.
type Part uint8

const (
	PartServer Part = 1 << iota
	PartExtractor
	PartBackend

	PartAll = PartServer | PartExtractor | PartBackend
)

// Validate checks every section. Returns all problems joined.
func (c Config) Validate() error {
	return c.Check(PartAll)
}

// Check validates the output and log settings plus the selected parts, so a
// command that never extracts does not need extractor credentials.
func (c Config) Check(parts Part) error {
	var errs []error

	if parts&PartBackend != 0 {
		switch c.Backend.Kind {
		case "supabase":
			if c.Backend.Supabase.URL == "" || c.Backend.Supabase.Key == "" {
				errs = append(errs, errors.New("supabase backend requires TIMECARD_BACKEND_SUPABASE_URL and TIMECARD_BACKEND_SUPABASE_KEY"))
			}
		case "sql":
			if c.Backend.SQL.DSN == "" {
				errs = append(errs, errors.New("sql backend requires TIMECARD_BACKEND_SQL_DSN"))
			}
			if c.Backend.Images.Dir == "" {
				errs = append(errs, errors.New("sql backend requires TIMECARD_BACKEND_IMAGES_DIR"))
			}
		case "none":
		default:
			errs = append(errs, fmt.Errorf("backend kind must be supabase, sql or none, got %q", c.Backend.Kind))
		}
	}

	if parts&PartExtractor != 0 {
		switch c.Extractor.Provider {
		case "http":
			if c.Extractor.Endpoint == "" {
				errs = append(errs, errors.New("http extractor requires TIMECARD_EXTRACTOR_ENDPOINT"))
			}
		case "openai":
			if c.Extractor.APIKey == "" {
				errs = append(errs, errors.New("openai extractor requires TIMECARD_EXTRACTOR_API_KEY"))
			}
		}
		if c.Extractor.Timeout < 0 {
			errs = append(errs, fmt.Errorf("extractor timeout must be >= 0, got %v", c.Extractor.Timeout))
		}
	}

	if parts&PartServer != 0 {
		if c.Server.MaxUploadBytes <= 0 {
			errs = append(errs, fmt.Errorf("server max upload bytes must be > 0, got %d", c.Server.MaxUploadBytes))
		}
		if c.Server.ShutdownTimeout <= 0 {
			errs = append(errs, fmt.Errorf("server shutdown timeout must be > 0, got %v", c.Server.ShutdownTimeout))
		}
	}

	if _, err := output.ParseVerbosity(c.Output.Verbosity); err != nil {
		errs = append(errs, fmt.Errorf("output verbosity: %w", err))
	}
	if c.Output.FileMaxSize < 0 {
		errs = append(errs, fmt.Errorf("output file max size must be >= 0, got %d", c.Output.FileMaxSize))
	}

	return errors.Join(errs...)
}
