package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Store      StoreConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Auth       AuthConfig
	JWT        JWTConfig
	AI         AIConfig
	Curriculum CurriculumConfig `mapstructure:"curriculum"`
	Storage    StorageConfig
	Tracing    TracingConfig   `mapstructure:"tracing"`
	CORS       CORSConfig      `mapstructure:"cors"`
	RateLimit  RateLimitConfig `mapstructure:"rate_limit"`
	Log        LogConfig       `mapstructure:"log"`

	// 配置文件实际路径，热加载时使用
	ConfigFile string `mapstructure:"-"`
}

type ServerConfig struct {
	Port string
	Mode string
	// 路由前缀，原函数部署时的路径，例如 /make-server
	RoutePrefix string `mapstructure:"route_prefix"`
}

// StoreConfig 选择键值存储后端: memory | redis | sql
type StoreConfig struct {
	Driver        string `mapstructure:"driver"`
	MaxCASRetries int    `mapstructure:"max_cas_retries"`
}

type DatabaseConfig struct {
	// mysql | postgres | sqlite
	Driver    string
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool   `mapstructure:"parse_time"`
	SSLMode   string `mapstructure:"ssl_mode"`
	// sqlite 文件路径，":memory:" 表示内存库
	Path     string
	LogLevel string `mapstructure:"log_level"`
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// AuthConfig 认证提供方: local | supabase
type AuthConfig struct {
	Provider           string        `mapstructure:"provider"`
	SupabaseURL        string        `mapstructure:"supabase_url"`
	SupabaseServiceKey string        `mapstructure:"supabase_service_key"`
	SupabaseAnonKey    string        `mapstructure:"supabase_anon_key"`
	Timeout            time.Duration `mapstructure:"timeout"`
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_hours"`
	Issuer     string        `mapstructure:"issuer"`
}

// AIConfig 大模型配置: gemini | openai
type AIConfig struct {
	Provider        string        `mapstructure:"provider"`
	BaseURL         string        `mapstructure:"base_url"`
	APIKey          string        `mapstructure:"api_key"`
	Model           string        `mapstructure:"model"`
	Temperature     float32       `mapstructure:"temperature"`
	MaxOutputTokens int           `mapstructure:"max_output_tokens"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// CurriculumConfig 课程大纲: classic 为五阶段（每阶段一种题型），extended 为 30 阶段编号
type CurriculumConfig struct {
	Catalog  string `mapstructure:"catalog"`
	MaxStage int    `mapstructure:"max_stage"`
}

// StorageConfig 课程归档存储: none | local | minio
type StorageConfig struct {
	Type          string `mapstructure:"type"`
	LocalPath     string `mapstructure:"local_path"`
	MinioEndpoint string `mapstructure:"minio_endpoint"`
	MinioAccessID string `mapstructure:"minio_access_key"`
	MinioSecret   string `mapstructure:"minio_secret_key"`
	MinioBucket   string `mapstructure:"minio_bucket"`
	MinioSecure   bool   `mapstructure:"minio_secure"`
}

type TracingConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	CollectorEndpoint string  `mapstructure:"collector_endpoint"`
	ServiceName       string  `mapstructure:"service_name"`
	SampleRatio       float64 `mapstructure:"sample_ratio"`
	Insecure          bool    `mapstructure:"insecure"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

type LogConfig struct {
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

const (
	geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	geminiModel   = "gemini-2.5-flash"
	openAIBaseURL = "https://api.openai.com/v1"
	openAIModel   = "gpt-4o-mini"
)

// applyProviderDefaults 切换到 openai 且未改动 gemini 默认值时，替换为 openai 的默认地址和模型
func (c *AIConfig) applyProviderDefaults() {
	if c.Provider != "openai" {
		return
	}
	if c.BaseURL == geminiBaseURL {
		c.BaseURL = openAIBaseURL
	}
	if c.Model == geminiModel {
		c.Model = openAIModel
	}
}

// DevJWTSecret 仅用于本地调试，release 模式下禁止使用
const DevJWTSecret = "lingua-dev-secret-do-not-use-in-release"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.route_prefix", "/make-server")

	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.max_cas_retries", 10)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "data/lingua.db")
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.parse_time", true)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.log_level", "warn")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)

	v.SetDefault("auth.provider", "local")
	v.SetDefault("auth.timeout", 10*time.Second)

	v.SetDefault("jwt.secret", DevJWTSecret)
	v.SetDefault("jwt.expire_hours", 72)
	v.SetDefault("jwt.issuer", "lingua")

	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.base_url", geminiBaseURL)
	v.SetDefault("ai.model", geminiModel)
	v.SetDefault("ai.temperature", 0.7)
	v.SetDefault("ai.max_output_tokens", 2048)
	v.SetDefault("ai.timeout", 60*time.Second)

	v.SetDefault("curriculum.catalog", "classic")
	v.SetDefault("curriculum.max_stage", 5)

	v.SetDefault("storage.type", "none")
	v.SetDefault("storage.local_path", "data/lessons")
	v.SetDefault("storage.minio_bucket", "lessons")

	v.SetDefault("tracing.service_name", "lingua-backend")
	v.SetDefault("tracing.sample_ratio", 0.1)

	v.SetDefault("cors.allowed_origins", []string{"*"})

	v.SetDefault("rate_limit.max_requests", 600)
	v.SetDefault("rate_limit.window_minutes", 1)

	v.SetDefault("log.file", "logs/app.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)
}

func bindEnv(v *viper.Viper) {
	// Database
	v.BindEnv("database.driver", "DATABASE_DRIVER")
	v.BindEnv("database.host", "DATABASE_HOST")
	v.BindEnv("database.port", "DATABASE_PORT")
	v.BindEnv("database.user", "DATABASE_USER")
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "DATABASE_NAME")
	v.BindEnv("database.path", "DATABASE_PATH")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Store
	v.BindEnv("store.driver", "STORE_DRIVER")

	// Server
	v.BindEnv("server.mode", "SERVER_MODE")
	v.BindEnv("server.port", "PORT")

	// Auth
	v.BindEnv("auth.provider", "AUTH_PROVIDER")
	v.BindEnv("auth.supabase_url", "SUPABASE_URL")
	v.BindEnv("auth.supabase_service_key", "SUPABASE_SERVICE_ROLE_KEY")
	v.BindEnv("auth.supabase_anon_key", "SUPABASE_ANON_KEY")

	// JWT
	v.BindEnv("jwt.secret", "JWT_SECRET")

	// AI
	v.BindEnv("ai.provider", "AI_PROVIDER")
	v.BindEnv("ai.base_url", "AI_BASE_URL")
	v.BindEnv("ai.api_key", "AI_API_KEY", "GEMINI_API_KEY")
	v.BindEnv("ai.model", "AI_MODEL")

	// Storage
	v.BindEnv("storage.type", "STORAGE_TYPE")
	v.BindEnv("storage.minio_endpoint", "MINIO_ENDPOINT")
	v.BindEnv("storage.minio_access_key", "MINIO_ACCESS_KEY")
	v.BindEnv("storage.minio_secret_key", "MINIO_SECRET_KEY")
	v.BindEnv("storage.minio_bucket", "MINIO_BUCKET")

	// Tracing
	v.BindEnv("tracing.enabled", "TRACING_ENABLED")
	v.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")
}

// LoadConfig 从目录 path 读取 config.yaml，文件不存在时只使用默认值和环境变量
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("LINGUA")
	v.AutomaticEnv()

	setDefaults(v)
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.ConfigFile = v.ConfigFileUsed()

	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour
	cfg.AI.applyProviderDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Storage.Type == "local" {
		if _, err := os.Stat(cfg.Storage.LocalPath); os.IsNotExist(err) {
			os.MkdirAll(cfg.Storage.LocalPath, 0755)
		}
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Curriculum.MaxStage < 1 {
		return fmt.Errorf("curriculum.max_stage must be at least 1, got %d", c.Curriculum.MaxStage)
	}

	switch c.Curriculum.Catalog {
	case "classic", "extended":
	default:
		return fmt.Errorf("unknown curriculum catalog %q", c.Curriculum.Catalog)
	}

	switch c.Store.Driver {
	case "memory", "redis", "sql":
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	switch c.Auth.Provider {
	case "local":
		// 生产环境校验 JWT Secret 强度
		if c.Server.Mode == "release" {
			if c.JWT.Secret == DevJWTSecret {
				return fmt.Errorf("JWT secret must be set explicitly in release mode")
			}
			if len(c.JWT.Secret) < 32 {
				return fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(c.JWT.Secret))
			}
		}
	case "supabase":
		if c.Auth.SupabaseURL == "" || c.Auth.SupabaseServiceKey == "" {
			return fmt.Errorf("supabase auth requires auth.supabase_url and auth.supabase_service_key")
		}
	default:
		return fmt.Errorf("unknown auth provider %q", c.Auth.Provider)
	}

	switch c.AI.Provider {
	case "gemini", "openai":
	default:
		return fmt.Errorf("unknown ai provider %q", c.AI.Provider)
	}

	return nil
}
