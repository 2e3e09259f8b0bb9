package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Gallery    GalleryConfig
	Storage    StorageConfig
	NATS       NATSConfig
	CloudWatch CloudWatchConfig
	Security   SecurityConfig
	LogLevel   string
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	UploadMaxBytes  int64
	RateLimitRPS    float64
	RateLimitBurst  int
}

type GalleryConfig struct {
	MaxImages       int
	MaxImageBytes   int64
	AllowedMimes    []string
	SnapshotKey     string
	PersistPayloads bool
	PersistTimeout  time.Duration
	NotificationTTL time.Duration
	JPEGQuality     int
	// MaxPixels ограничивает width*height при повороте
	MaxPixels int64
}

// StorageConfig выбирает backend для durable snapshot slot.
type StorageConfig struct {
	Backend  string // sqlite | postgres | redis | dynamodb | s3
	SQLite   SQLiteConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	DynamoDB DynamoDBConfig
	S3       S3Config
}

type SQLiteConfig struct {
	Path string
}

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Database        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type DynamoDBConfig struct {
	TableName       string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	KeyPrefix       string
}

type NATSConfig struct {
	Enabled       bool
	URL           string
	SubjectPrefix string
}

type CloudWatchConfig struct {
	LogsEnabled     bool
	LogGroupName    string
	LogStreamName   string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	BufferSize      int
	FlushInterval   time.Duration
}

type SecurityConfig struct {
	AllowedOrigins []string
	AuthEnabled    bool
	AuthToken      string
}

func Load() (*Config, error) {
	// .env необязателен
	_ = godotenv.Load()

	readTimeout, err := parseDuration(getEnv("SERVER_READ_TIMEOUT", "15s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_READ_TIMEOUT: %w", err)
	}

	persistTimeout, err := parseDuration(getEnv("PERSIST_TIMEOUT", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid PERSIST_TIMEOUT: %w", err)
	}

	notificationTTL, err := parseDuration(getEnv("NOTIFICATION_TTL", "3s"))
	if err != nil {
		return nil, fmt.Errorf("invalid NOTIFICATION_TTL: %w", err)
	}

	flushInterval, err := parseDuration(getEnv("CLOUDWATCH_LOGS_FLUSH_INTERVAL", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid CLOUDWATCH_LOGS_FLUSH_INTERVAL: %w", err)
	}

	maxImages, err := strconv.Atoi(getEnv("GALLERY_MAX_IMAGES", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid GALLERY_MAX_IMAGES: %w", err)
	}

	maxImageKB, err := strconv.Atoi(getEnv("GALLERY_MAX_IMAGE_KB", "500"))
	if err != nil {
		return nil, fmt.Errorf("invalid GALLERY_MAX_IMAGE_KB: %w", err)
	}

	jpegQuality, err := strconv.Atoi(getEnv("GALLERY_JPEG_QUALITY", "92"))
	if err != nil {
		return nil, fmt.Errorf("invalid GALLERY_JPEG_QUALITY: %w", err)
	}

	maxPixels, err := strconv.ParseInt(getEnv("GALLERY_MAX_PIXELS", "40000000"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid GALLERY_MAX_PIXELS: %w", err)
	}

	uploadMaxMB, err := strconv.Atoi(getEnv("UPLOAD_MAX_MB", "8"))
	if err != nil {
		return nil, fmt.Errorf("invalid UPLOAD_MAX_MB: %w", err)
	}

	rateLimitRPS, err := strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "5"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}

	rateLimitBurst, err := strconv.Atoi(getEnv("RATE_LIMIT_BURST", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	logsBufferSize, err := strconv.Atoi(getEnv("CLOUDWATCH_LOGS_BUFFER_SIZE", "50"))
	if err != nil {
		return nil, fmt.Errorf("invalid CLOUDWATCH_LOGS_BUFFER_SIZE: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			ReadTimeout:     readTimeout,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			UploadMaxBytes:  int64(uploadMaxMB) * 1024 * 1024,
			RateLimitRPS:    rateLimitRPS,
			RateLimitBurst:  rateLimitBurst,
		},
		Gallery: GalleryConfig{
			MaxImages:       maxImages,
			MaxImageBytes:   int64(maxImageKB) * 1024,
			AllowedMimes:    splitCSV(getEnv("GALLERY_ALLOWED_MIMES", "image/png,image/jpeg")),
			SnapshotKey:     getEnv("SNAPSHOT_KEY", "uploadedImages"),
			PersistPayloads: getEnvBool("PERSIST_PAYLOADS", true),
			PersistTimeout:  persistTimeout,
			NotificationTTL: notificationTTL,
			JPEGQuality:     jpegQuality,
			MaxPixels:       maxPixels,
		},
		Storage: StorageConfig{
			Backend: strings.ToLower(getEnv("STORAGE_BACKEND", "sqlite")),
			SQLite: SQLiteConfig{
				Path: getEnv("SQLITE_PATH", "data/gallery.db"),
			},
			Postgres: PostgresConfig{
				Host:            getEnv("DB_HOST", "localhost"),
				Port:            getEnv("DB_PORT", "5432"),
				User:            getEnv("DB_USER", "postgres"),
				Password:        getEnv("DB_PASSWORD", "postgres"),
				Database:        getEnv("DB_NAME", "gallery"),
				MaxOpenConns:    5,
				MaxIdleConns:    2,
				ConnMaxLifetime: 5 * time.Minute,
			},
			Redis: RedisConfig{
				Host:     getEnv("REDIS_HOST", "localhost"),
				Port:     getEnv("REDIS_PORT", "6379"),
				Password: getEnv("REDIS_PASSWORD", ""),
				DB:       redisDB,
			},
			DynamoDB: DynamoDBConfig{
				TableName:       getEnv("DYNAMODB_TABLE", "gallery-snapshots"),
				Region:          getEnv("DYNAMODB_REGION", "us-east-1"),
				Endpoint:        getEnv("DYNAMODB_ENDPOINT", ""),
				AccessKeyID:     getEnv("DYNAMODB_ACCESS_KEY_ID", ""),
				SecretAccessKey: getEnv("DYNAMODB_SECRET_ACCESS_KEY", ""),
			},
			S3: S3Config{
				Bucket:          getEnv("S3_BUCKET", ""),
				Region:          getEnv("S3_REGION", "us-east-1"),
				Endpoint:        getEnv("S3_ENDPOINT", ""),
				AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
				SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
				UsePathStyle:    getEnvBool("S3_USE_PATH_STYLE", true),
				KeyPrefix:       getEnv("S3_KEY_PREFIX", "gallery"),
			},
		},
		NATS: NATSConfig{
			Enabled:       getEnvBool("NATS_ENABLED", false),
			URL:           getEnv("NATS_URL", "nats://localhost:4222"),
			SubjectPrefix: getEnv("NATS_SUBJECT_PREFIX", "gallery"),
		},
		CloudWatch: CloudWatchConfig{
			LogsEnabled:     getEnvBool("CLOUDWATCH_LOGS_ENABLED", false),
			LogGroupName:    getEnv("CLOUDWATCH_LOG_GROUP", "/img-uploader"),
			LogStreamName:   getEnv("CLOUDWATCH_LOG_STREAM", "app"),
			Region:          getEnv("CLOUDWATCH_REGION", "us-east-1"),
			Endpoint:        getEnv("CLOUDWATCH_ENDPOINT", ""),
			AccessKeyID:     getEnv("CLOUDWATCH_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("CLOUDWATCH_SECRET_ACCESS_KEY", ""),
			BufferSize:      logsBufferSize,
			FlushInterval:   flushInterval,
		},
		Security: SecurityConfig{
			AllowedOrigins: splitCSV(getEnv("ALLOWED_ORIGINS", "http://localhost:8080,http://127.0.0.1:8080")),
			AuthEnabled:    getEnvBool("AUTH_ENABLED", false),
			AuthToken:      getEnv("AUTH_BEARER_TOKEN", ""),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Security.AuthEnabled && c.Security.AuthToken == "" {
		return fmt.Errorf("AUTH_BEARER_TOKEN is required when AUTH_ENABLED=true")
	}
	if c.Gallery.MaxImages <= 0 {
		return fmt.Errorf("GALLERY_MAX_IMAGES must be positive")
	}
	if c.Gallery.MaxImageBytes <= 0 {
		return fmt.Errorf("GALLERY_MAX_IMAGE_KB must be positive")
	}
	if len(c.Gallery.AllowedMimes) == 0 {
		return fmt.Errorf("GALLERY_ALLOWED_MIMES must not be empty")
	}
	if strings.TrimSpace(c.Gallery.SnapshotKey) == "" {
		return fmt.Errorf("SNAPSHOT_KEY must not be empty")
	}
	if c.Gallery.JPEGQuality < 1 || c.Gallery.JPEGQuality > 100 {
		return fmt.Errorf("GALLERY_JPEG_QUALITY must be within 1..100")
	}
	if c.Gallery.MaxPixels <= 0 {
		return fmt.Errorf("GALLERY_MAX_PIXELS must be positive")
	}

	switch c.Storage.Backend {
	case "sqlite", "postgres", "redis", "dynamodb":
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when STORAGE_BACKEND=s3")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_BACKEND: %s", c.Storage.Backend)
	}

	return nil
}

func (c *PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.Database)
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return parsed
}

func splitCSV(raw string) []string {
	items := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

func parseDuration(s string) (time.Duration, error) {
	return time.ParseDuration(s)
}
