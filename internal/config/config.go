package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/juju/errors"
)

type Config struct {
	Server   ServerConfig
	Backend  BackendConfig
	Redis    RedisConfig
	JWT      JWTConfig
	App      AppConfig
	Log      LogConfig
	Cache    CacheConfig
	Realtime RealtimeConfig
	Storage  StorageConfig
}

type ServerConfig struct {
	Port    string
	GinMode string
}

// BackendConfig aponta para o banco Postgres que faz o papel do backend hospedado.
// URL e AnonKey são obrigatórios.
type BackendConfig struct {
	URL      string
	AnonKey  string
	MaxConns int32
	MinConns int32
	Migrate  bool
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	ExpirationHours int
}

type AppConfig struct {
	Name string
	Env  string
}

type LogConfig struct {
	Level string
}

// CacheConfig controla o cache de consultas de cada sessão
type CacheConfig struct {
	StaleTime   time.Duration
	GCTime      time.Duration
	Retry       int
	SessionIdle time.Duration
}

type RealtimeConfig struct {
	RedisBridge bool
	Channel     string
}

type StorageConfig struct {
	Driver      string
	UploadsPath string
	// AWS S3
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AWSRegion          string
	AWSBucket          string
	// Cloudflare R2
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2AccountID       string
	R2Bucket          string
	R2PublicURL       string
}

// Load lê o .env (opcional) e as variáveis de ambiente.
// A ausência de BACKEND_URL ou BACKEND_ANON_KEY é um erro fatal de inicialização.
func Load() (*Config, error) {
	// .env é opcional
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:    getEnv("PORT", "8080"),
			GinMode: getEnv("GIN_MODE", "debug"),
		},
		Backend: BackendConfig{
			URL:      getEnv("BACKEND_URL", ""),
			AnonKey:  getEnv("BACKEND_ANON_KEY", ""),
			MaxConns: int32(getEnvAsInt("BACKEND_MAX_CONNS", 25)),
			MinConns: int32(getEnvAsInt("BACKEND_MIN_CONNS", 2)),
			Migrate:  getEnvAsBool("BACKEND_MIGRATE", false),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			ExpirationHours: getEnvAsInt("JWT_EXPIRATION_HOURS", 24),
		},
		App: AppConfig{
			Name: getEnv("APP_NAME", "concessionaria-api"),
			Env:  getEnv("APP_ENV", "development"),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Cache: CacheConfig{
			StaleTime:   getEnvAsDuration("QUERY_STALE_TIME", 5*time.Minute),
			GCTime:      getEnvAsDuration("QUERY_GC_TIME", 10*time.Minute),
			Retry:       getEnvAsInt("QUERY_RETRY", 3),
			SessionIdle: getEnvAsDuration("SESSION_IDLE_TIMEOUT", 2*time.Hour),
		},
		Realtime: RealtimeConfig{
			RedisBridge: getEnvAsBool("REALTIME_REDIS_BRIDGE", true),
			Channel:     getEnv("REALTIME_CHANNEL", "realtime:postgres_changes"),
		},
		Storage: StorageConfig{
			Driver:             getEnv("STORAGE_DRIVER", "local"),
			UploadsPath:        getEnv("UPLOADS_PATH", "./uploads"),
			AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
			AWSBucket:          getEnv("AWS_BUCKET", ""),
			R2AccessKeyID:      getEnv("R2_ACCESS_KEY_ID", ""),
			R2SecretAccessKey:  getEnv("R2_SECRET_ACCESS_KEY", ""),
			R2AccountID:        getEnv("R2_ACCOUNT_ID", ""),
			R2Bucket:           getEnv("R2_BUCKET", ""),
			R2PublicURL:        getEnv("R2_PUBLIC_URL", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate verifica as variáveis obrigatórias
func (c *Config) Validate() error {
	var missing []string
	if c.Backend.URL == "" {
		missing = append(missing, "BACKEND_URL")
	}
	if c.Backend.AnonKey == "" {
		missing = append(missing, "BACKEND_ANON_KEY")
	}
	if len(missing) > 0 {
		return errors.NotValidf("configuração ausente (%s)", strings.Join(missing, ", "))
	}
	return nil
}

// RedisAddr retorna host:port do Redis
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsProduction indica se a aplicação roda em produção
func (c *AppConfig) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
