package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// AI provider names
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderNone   = "none"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Storage    StorageConfig    `mapstructure:"storage"`
	AI         AIConfig         `mapstructure:"ai"`
	Validation ValidationConfig `mapstructure:"validation"`
	Worker     WorkerConfig     `mapstructure:"worker"`
	Logger     LoggerConfig     `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	// MigrationsDir overrides the embedded migrations when set
	MigrationsDir string `mapstructure:"migrations_dir"`
}

// StorageConfig holds blob store configuration
type StorageConfig struct {
	BaseDir string `mapstructure:"base_dir"`
}

// AIConfig holds AI review configuration
type AIConfig struct {
	Provider     string        `mapstructure:"provider"`
	OpenAIAPIKey string        `mapstructure:"openai_api_key"`
	GeminiAPIKey string        `mapstructure:"gemini_api_key"`
	Model        string        `mapstructure:"model"`
	Temperature  float32       `mapstructure:"temperature"`
	MaxTokens    int           `mapstructure:"max_tokens"`
	Timeout      time.Duration `mapstructure:"timeout"`
	PromptsPath  string        `mapstructure:"prompts_path"`
}

// ValidationConfig holds validator thresholds and extraction defaults
type ValidationConfig struct {
	MathTolerance      float64 `mapstructure:"math_tolerance"`
	MaxDiscountPercent float64 `mapstructure:"max_discount_percent"`
	DefaultTaxRate     float64 `mapstructure:"default_tax_rate"`
	DefaultCurrency    string  `mapstructure:"default_currency"`
	PersistRetries     int     `mapstructure:"persist_retries"`
	MaxUploadMB        int     `mapstructure:"max_upload_mb"`
}

// WorkerConfig holds background worker configuration
type WorkerConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	BatchSize      int           `mapstructure:"batch_size"`
	Concurrency    int           `mapstructure:"concurrency"`
	ProcessTimeout time.Duration `mapstructure:"process_timeout"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load reads configuration from configPath, a .env file in the working
// directory and the environment. A missing config file leaves the defaults.
func Load(configPath string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)
	bindEnvVars(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadDotEnv applies path to the process environment without overriding
// variables that are already set
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := gotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)

	// Database defaults
	v.SetDefault("database.path", "data/quotes.db")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.migrations_dir", "")

	v.SetDefault("storage.base_dir", "data/blobs")

	// AI defaults
	v.SetDefault("ai.provider", ProviderNone)
	v.SetDefault("ai.model", "")
	v.SetDefault("ai.temperature", 0.2)
	v.SetDefault("ai.max_tokens", 2048)
	v.SetDefault("ai.timeout", 30*time.Second)
	v.SetDefault("ai.prompts_path", "")

	// Validation defaults
	v.SetDefault("validation.math_tolerance", 0.01)
	v.SetDefault("validation.max_discount_percent", 30.0)
	v.SetDefault("validation.default_tax_rate", 0.10)
	v.SetDefault("validation.default_currency", "KRW")
	v.SetDefault("validation.persist_retries", 3)
	v.SetDefault("validation.max_upload_mb", 100)

	// Worker defaults
	v.SetDefault("worker.enabled", true)
	v.SetDefault("worker.poll_interval", 5*time.Second)
	v.SetDefault("worker.batch_size", 10)
	v.SetDefault("worker.concurrency", 4)
	v.SetDefault("worker.process_timeout", 2*time.Minute)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars(v *viper.Viper) {
	v.SetEnvPrefix("QUOTE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Credentials and paths under their conventional names
	_ = v.BindEnv("ai.openai_api_key", "OPENAI_API_KEY")
	_ = v.BindEnv("ai.gemini_api_key", "GEMINI_API_KEY")
	_ = v.BindEnv("database.path", "QUOTE_DB_PATH")
	_ = v.BindEnv("storage.base_dir", "QUOTE_STORAGE_DIR")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.AI.Provider {
	case ProviderOpenAI, ProviderGemini, ProviderNone:
	default:
		return fmt.Errorf("ai.provider must be openai, gemini or none, got %q", c.AI.Provider)
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Storage.BaseDir == "" {
		return fmt.Errorf("storage.base_dir is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Validation.MathTolerance < 0 {
		return fmt.Errorf("validation.math_tolerance must not be negative")
	}
	if c.Validation.MaxDiscountPercent < 0 || c.Validation.MaxDiscountPercent > 100 {
		return fmt.Errorf("validation.max_discount_percent must be between 0 and 100")
	}
	if c.Validation.DefaultTaxRate < 0 || c.Validation.DefaultTaxRate >= 1 {
		return fmt.Errorf("validation.default_tax_rate must be a fraction below 1")
	}
	if c.Validation.MaxUploadMB <= 0 {
		return fmt.Errorf("validation.max_upload_mb must be positive")
	}

	return nil
}

// Address returns host:port for the HTTP server
func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
