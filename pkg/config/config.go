package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Storage provider identifiers persisted on every file row.
const (
	StorageProviderLocal    = "local"
	StorageProviderSupabase = "supabase"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	Cache    CacheConfig
	Storage  StorageConfig
	Uploads  UploadConfig
	Share    ShareConfig
	Admin    AdminConfig
	Cleanup  CleanupConfig
	CORS     CORSConfig
	Log      LogConfig
	Client   ClientConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// CacheConfig governs catalog listing caching.
type CacheConfig struct {
	Enabled    bool
	CatalogTTL time.Duration
}

// StorageConfig selects where uploaded PDFs are written.
type StorageConfig struct {
	Provider       string
	Dir            string
	SupabaseURL    string
	SupabaseKey    string
	SupabaseBucket string
}

// UploadConfig bounds accepted uploads.
type UploadConfig struct {
	MaxFileSizeBytes int64
}

// ShareConfig controls signed share links.
type ShareConfig struct {
	Secret string
	TTL    time.Duration
}

// AdminConfig holds the admin credential and token settings.
type AdminConfig struct {
	Password     string
	PasswordHash string
	JWTSecret    string
	TokenTTL     time.Duration
}

// CleanupConfig sizes the blob cleanup worker queue.
type CleanupConfig struct {
	Workers    int
	Retries    int
	RetryDelay time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// ClientConfig is injected into the HTTP client used by archive-cli.
type ClientConfig struct {
	BaseURL        string
	Timeout        time.Duration
	RetryBaseDelay time.Duration
	AdminPassword  string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Cache = CacheConfig{
		Enabled:    v.GetBool("ENABLE_CACHE"),
		CatalogTTL: parseDuration(v.GetString("CATALOG_CACHE_TTL"), 10*time.Minute),
	}

	cfg.Storage = StorageConfig{
		Provider:       strings.ToLower(strings.TrimSpace(v.GetString("STORAGE_PROVIDER"))),
		Dir:            v.GetString("STORAGE_DIR"),
		SupabaseURL:    v.GetString("SUPABASE_URL"),
		SupabaseKey:    v.GetString("SUPABASE_KEY"),
		SupabaseBucket: v.GetString("SUPABASE_BUCKET"),
	}

	maxUpload := v.GetInt64("MAX_UPLOAD_SIZE")
	if maxUpload <= 0 {
		maxUpload = 50 * 1024 * 1024
	}
	cfg.Uploads = UploadConfig{MaxFileSizeBytes: maxUpload}

	cfg.Share = ShareConfig{
		Secret: v.GetString("SHARE_LINK_SECRET"),
		TTL:    parseDuration(v.GetString("SHARE_LINK_TTL"), 24*time.Hour),
	}

	cfg.Admin = AdminConfig{
		Password:     v.GetString("ADMIN_PASSWORD"),
		PasswordHash: v.GetString("ADMIN_PASSWORD_HASH"),
		JWTSecret:    v.GetString("ADMIN_JWT_SECRET"),
		TokenTTL:     parseDuration(v.GetString("ADMIN_TOKEN_TTL"), 8*time.Hour),
	}

	cfg.Cleanup = CleanupConfig{
		Workers:    v.GetInt("CLEANUP_WORKERS"),
		Retries:    v.GetInt("CLEANUP_RETRIES"),
		RetryDelay: parseDuration(v.GetString("CLEANUP_RETRY_DELAY"), 5*time.Second),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Client = ClientConfig{
		BaseURL:        strings.TrimRight(v.GetString("ARCHIVE_API_BASE_URL"), "/"),
		Timeout:        parseDuration(v.GetString("ARCHIVE_CLIENT_TIMEOUT"), 30*time.Second),
		RetryBaseDelay: parseDuration(v.GetString("ARCHIVE_RETRY_BASE_DELAY"), 2*time.Second),
		AdminPassword:  v.GetString("ARCHIVE_ADMIN_PASSWORD"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "univ_archive")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("CATALOG_CACHE_TTL", "10m")

	v.SetDefault("STORAGE_PROVIDER", StorageProviderLocal)
	v.SetDefault("STORAGE_DIR", "./uploads")
	v.SetDefault("SUPABASE_URL", "")
	v.SetDefault("SUPABASE_KEY", "")
	v.SetDefault("SUPABASE_BUCKET", "archive")
	v.SetDefault("MAX_UPLOAD_SIZE", 50*1024*1024)

	v.SetDefault("SHARE_LINK_SECRET", "dev_share_secret")
	v.SetDefault("SHARE_LINK_TTL", "24h")

	v.SetDefault("ADMIN_PASSWORD", "")
	v.SetDefault("ADMIN_PASSWORD_HASH", "")
	v.SetDefault("ADMIN_JWT_SECRET", "dev_admin_secret")
	v.SetDefault("ADMIN_TOKEN_TTL", "8h")

	v.SetDefault("CLEANUP_WORKERS", 2)
	v.SetDefault("CLEANUP_RETRIES", 3)
	v.SetDefault("CLEANUP_RETRY_DELAY", "5s")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ARCHIVE_API_BASE_URL", "http://localhost:8080")
	v.SetDefault("ARCHIVE_CLIENT_TIMEOUT", "30s")
	v.SetDefault("ARCHIVE_RETRY_BASE_DELAY", "2s")
	v.SetDefault("ARCHIVE_ADMIN_PASSWORD", "")
}

// Validate rejects combinations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Storage.Provider {
	case StorageProviderLocal:
		if strings.TrimSpace(c.Storage.Dir) == "" {
			return errors.New("STORAGE_DIR is required for local storage")
		}
	case StorageProviderSupabase:
		if c.Storage.SupabaseURL == "" || c.Storage.SupabaseKey == "" {
			return errors.New("SUPABASE_URL and SUPABASE_KEY are required for supabase storage")
		}
	default:
		return errors.New("unsupported STORAGE_PROVIDER " + c.Storage.Provider)
	}
	if c.Admin.Password == "" && c.Admin.PasswordHash == "" {
		return errors.New("ADMIN_PASSWORD or ADMIN_PASSWORD_HASH must be set")
	}
	if c.Env == EnvProduction && c.Admin.PasswordHash == "" {
		return errors.New("ADMIN_PASSWORD_HASH is required in production")
	}
	return nil
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
