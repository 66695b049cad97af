// Package config provides centralized configuration management
// using Viper for configuration loading and validation
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Auth       AuthConfig       `mapstructure:"auth"`
	AI         AIConfig         `mapstructure:"ai"`
	Nutrition  NutritionConfig  `mapstructure:"nutrition"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	Storage    StorageConfig    `mapstructure:"storage"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Features   FeatureFlags     `mapstructure:"features"`

	v *viper.Viper
}

// AppConfig contains application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	MaxHeaderBytes    int           `mapstructure:"max_header_bytes"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins    []string      `mapstructure:"allowed_origins"`
	AllowedOriginGlob []string      `mapstructure:"allowed_origin_patterns"`
	EnableCompression bool          `mapstructure:"enable_compression"`
	EnableH2C         bool          `mapstructure:"enable_h2c"`
}

// DatabaseConfig contains database configuration
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Path            string        `mapstructure:"path"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Database        string        `mapstructure:"database"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	LogLevel        string        `mapstructure:"log_level"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// RedisConfig contains Redis configuration
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	Database     int           `mapstructure:"database"`
	MaxRetries   int           `mapstructure:"max_retries"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// AuthConfig contains authentication configuration
type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret"`
	JWTExpiration time.Duration `mapstructure:"jwt_expiration"`
	BCryptCost    int           `mapstructure:"bcrypt_cost"`
}

// ProviderConfig describes one remote AI provider
type ProviderConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Model       string  `mapstructure:"model"`
	VisionModel string  `mapstructure:"vision_model"`
	RecipeModel string  `mapstructure:"recipe_model"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// Enabled reports whether the provider has credentials
func (p ProviderConfig) Enabled() bool {
	return strings.TrimSpace(p.APIKey) != ""
}

// AIConfig contains AI provider configuration
type AIConfig struct {
	Perplexity      ProviderConfig `mapstructure:"perplexity"`
	Gemini          ProviderConfig `mapstructure:"gemini"`
	OpenAI          ProviderConfig `mapstructure:"openai"`
	Cooldown        time.Duration  `mapstructure:"cooldown"`
	ProviderTimeout time.Duration  `mapstructure:"provider_timeout"`
	SummaryTimeout  time.Duration  `mapstructure:"summary_timeout"`
}

// NutritionConfig contains the nutrition lookup API configuration
type NutritionConfig struct {
	AppID   string        `mapstructure:"app_id"`
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// MonitoringConfig contains monitoring configuration
type MonitoringConfig struct {
	EnableMetrics  bool          `mapstructure:"enable_metrics"`
	MetricsPath    string        `mapstructure:"metrics_path"`
	EnableTracing  bool          `mapstructure:"enable_tracing"`
	OTLPEndpoint   string        `mapstructure:"otlp_endpoint"`
	OTLPInsecure   bool          `mapstructure:"otlp_insecure"`
	SamplingRate   float64       `mapstructure:"sampling_rate"`
	ServiceName    string        `mapstructure:"service_name"`
	HealthCheckURL string        `mapstructure:"health_check_path"`
	HealthCacheTTL time.Duration `mapstructure:"health_cache_ttl"` // 0 disables readiness caching
}

// StorageConfig contains meal image storage configuration
type StorageConfig struct {
	Provider     string   `mapstructure:"provider"`
	LocalPath    string   `mapstructure:"local_path"`
	PublicPath   string   `mapstructure:"public_path"`
	MaxFileSize  int64    `mapstructure:"max_file_size"`
	AllowedTypes []string `mapstructure:"allowed_types"`
	S3Bucket     string   `mapstructure:"s3_bucket"`
	S3Region     string   `mapstructure:"s3_region"`
	S3Endpoint   string   `mapstructure:"s3_endpoint"`
	S3Prefix     string   `mapstructure:"s3_prefix"`
	CDNBaseURL   string   `mapstructure:"cdn_base_url"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enable          bool          `mapstructure:"enable"`
	RequestsPerMin  int           `mapstructure:"requests_per_min"`
	BurstSize       int           `mapstructure:"burst_size"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// FeatureFlags contains feature toggles
type FeatureFlags struct {
	StrictFoodValidation bool `mapstructure:"strict_food_validation"`
}

// legacyEnv maps config keys onto the bare environment variable names the
// service has always accepted, in addition to the HEALTHYLIFE_ prefixed ones.
var legacyEnv = map[string]string{
	"server.port":                     "PORT",
	"cors_origin":                     "CORS_ORIGIN",
	"auth.jwt_secret":                 "JWT_SECRET",
	"ai.perplexity.api_key":           "PERPLEXITY_API_KEY",
	"ai.gemini.api_key":               "GOOGLE_API_KEY",
	"ai.gemini.model":                 "GEMINI_MODEL",
	"ai.gemini.vision_model":          "GEMINI_VISION_MODEL",
	"ai.openai.api_key":               "OPENAI_API_KEY",
	"ai.openai.model":                 "OPENAI_MODEL",
	"ai.openai.vision_model":          "OPENAI_VISION_MODEL",
	"nutrition.app_id":                "NUTRITIONIX_APP_ID",
	"nutrition.api_key":               "NUTRITIONIX_API_KEY",
	"features.strict_food_validation": "STRICT_FOOD_VALIDATION",
	"database.path":                   "DATABASE_PATH",
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/healthylife")
	}

	v.SetEnvPrefix("HEALTHYLIFE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, env := range legacyEnv {
		prefixed := "HEALTHYLIFE_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return nil, fmt.Errorf("failed to bind env %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		// It's okay if config file doesn't exist, we have defaults
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	config, err := decode(v)
	if err != nil {
		return nil, err
	}

	return config, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// CORS_ORIGIN is a comma separated list
	if raw := v.GetString("cors_origin"); raw != "" {
		for _, origin := range strings.Split(raw, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				config.Server.AllowedOrigins = append(config.Server.AllowedOrigins, origin)
			}
		}
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	config.v = v
	return &config, nil
}

// Watch re-reads the config file whenever it changes and hands the new
// configuration to onChange. It is a no-op when no config file was loaded.
func (c *Config) Watch(onChange func(*Config), onError func(error)) bool {
	if c.v == nil || c.v.ConfigFileUsed() == "" {
		return false
	}

	c.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		next, err := decode(c.v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(next)
	})
	c.v.WatchConfig()
	return true
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "HealthyLife")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "json")

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "90s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.request_timeout", "75s")
	v.SetDefault("server.max_header_bytes", 1<<20) // 1MB
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173"})
	v.SetDefault("server.allowed_origin_patterns", []string{"https://*.vercel.app"})
	v.SetDefault("server.enable_compression", true)
	v.SetDefault("server.enable_h2c", false)
	v.SetDefault("cors_origin", "")

	// Database defaults
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "healthylife.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.database", "healthylife")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.auto_migrate", true)

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.database", 0)
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.dial_timeout", "5s")
	v.SetDefault("redis.read_timeout", "3s")
	v.SetDefault("redis.write_timeout", "3s")
	v.SetDefault("redis.key_prefix", "healthylife:")

	// Auth defaults
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.jwt_expiration", "168h") // 7 days
	v.SetDefault("auth.bcrypt_cost", 10)

	// AI provider defaults
	v.SetDefault("ai.perplexity.api_key", "")
	v.SetDefault("ai.perplexity.base_url", "https://api.perplexity.ai")
	v.SetDefault("ai.perplexity.model", "sonar-pro")
	v.SetDefault("ai.perplexity.recipe_model", "sonar")
	v.SetDefault("ai.perplexity.temperature", 0.6)
	v.SetDefault("ai.perplexity.max_tokens", 280)
	v.SetDefault("ai.gemini.api_key", "")
	v.SetDefault("ai.gemini.base_url", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("ai.gemini.model", "gemini-1.5-flash")
	v.SetDefault("ai.gemini.vision_model", "gemini-1.5-flash")
	v.SetDefault("ai.gemini.recipe_model", "gemini-1.5-flash")
	v.SetDefault("ai.gemini.temperature", 0.8)
	v.SetDefault("ai.gemini.max_tokens", 280)
	v.SetDefault("ai.openai.api_key", "")
	v.SetDefault("ai.openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("ai.openai.model", "gpt-4o-mini")
	v.SetDefault("ai.openai.vision_model", "gpt-4o-mini")
	v.SetDefault("ai.openai.temperature", 0.6)
	v.SetDefault("ai.openai.max_tokens", 280)
	v.SetDefault("ai.cooldown", "30s")
	v.SetDefault("ai.provider_timeout", "20s")
	v.SetDefault("ai.summary_timeout", "15s")

	// Nutrition defaults
	v.SetDefault("nutrition.app_id", "")
	v.SetDefault("nutrition.api_key", "")
	v.SetDefault("nutrition.base_url", "https://trackapi.nutritionix.com/v2")
	v.SetDefault("nutrition.timeout", "10s")

	// Monitoring defaults
	v.SetDefault("monitoring.enable_metrics", true)
	v.SetDefault("monitoring.metrics_path", "/metrics")
	v.SetDefault("monitoring.enable_tracing", false)
	v.SetDefault("monitoring.otlp_endpoint", "localhost:4318")
	v.SetDefault("monitoring.otlp_insecure", true)
	v.SetDefault("monitoring.sampling_rate", 0.1)
	v.SetDefault("monitoring.service_name", "healthylife-api")
	v.SetDefault("monitoring.health_check_path", "/api/health")
	v.SetDefault("monitoring.health_cache_ttl", "5s")

	// Storage defaults
	v.SetDefault("storage.provider", "local")
	v.SetDefault("storage.local_path", "uploads")
	v.SetDefault("storage.public_path", "/uploads")
	v.SetDefault("storage.max_file_size", 5*1024*1024)
	v.SetDefault("storage.allowed_types", []string{
		"image/jpeg", "image/png", "image/webp", "image/gif", "image/heic", "image/heif",
	})
	v.SetDefault("storage.s3_bucket", "")
	v.SetDefault("storage.s3_region", "us-east-1")
	v.SetDefault("storage.s3_endpoint", "")
	v.SetDefault("storage.s3_prefix", "healthylife/meals")
	v.SetDefault("storage.cdn_base_url", "")

	// Rate limit defaults
	v.SetDefault("rate_limit.enable", true)
	v.SetDefault("rate_limit.requests_per_min", 30)
	v.SetDefault("rate_limit.burst_size", 10)
	v.SetDefault("rate_limit.cleanup_interval", "5m")

	// Feature flags
	v.SetDefault("features.strict_food_validation", false)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app.name is required")
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for sqlite")
		}
	case "postgres":
		if c.Database.Database == "" {
			return fmt.Errorf("database.database is required")
		}
	default:
		return fmt.Errorf("database.driver must be sqlite or postgres, got %q", c.Database.Driver)
	}

	if c.Auth.JWTSecret == "" && c.IsProduction() {
		return fmt.Errorf("auth.jwt_secret is required in production")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	if c.AI.Cooldown <= 0 {
		return fmt.Errorf("ai.cooldown must be positive")
	}

	if c.Storage.Provider == "s3" && c.Storage.S3Bucket == "" {
		return fmt.Errorf("storage.s3_bucket is required when storage.provider is s3")
	}

	return nil
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment returns true if running in development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// GetDSN returns the postgres connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.Username,
		c.Database.Password,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// NutritionEnabled reports whether nutrition lookups can call the remote API
func (c *Config) NutritionEnabled() bool {
	return c.Nutrition.AppID != "" && c.Nutrition.APIKey != ""
}
