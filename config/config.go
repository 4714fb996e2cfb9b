package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port          string
	AppEnv        string
	LogLevel      string
	SessionSecret string
	AuthRequired  bool
	CORSOrigins   []string

	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string

	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPass      string
	DBName      string

	DynamoUsersTable string
	DynamoFilesTable string
	DynamoEmailIndex string
	DynamoEndpoint   string

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	RabbitMQURL      string
	RabbitMQPrefetch int

	CleanupWorkerConcurrency int
	CleanupRate              float64
	CleanupBurst             int
	CleanupRetryMax          int
	CleanupRetryDelays       []time.Duration

	SignedURLTTL   time.Duration
	MaxUploadBytes int64
}

var AppConfig Config

// getEnv returns the environment value or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvBool(key string, defaultValue bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if value == "" {
		return defaultValue
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return defaultValue
	}
}

func getEnvInt64(key string, defaultValue int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvDurationList(key string, defaultValue []time.Duration) []time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	parts := strings.Split(raw, ",")
	out := make([]time.Duration, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		parsed, err := time.ParseDuration(part)
		if err != nil {
			return defaultValue
		}
		out = append(out, parsed)
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// getEnvList splits a comma separated value, dropping blanks.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// placeholder values shipped in env.example must not count as credentials.
func isPlaceholder(value string) bool {
	switch strings.TrimSpace(value) {
	case "", "your_aws_access_key_here", "your_aws_secret_key_here":
		return true
	}
	return false
}

// InitConfig loads configuration and initializes sub-configs.
func InitConfig() {
	rabbitURL := getEnv("RABBITMQ_URL", "")
	if rabbitURL == "" && getEnv("RABBITMQ_HOST", "") != "" {
		rabbitURL = fmt.Sprintf(
			"amqp://%s:%s@%s:%s/%s",
			url.PathEscape(getEnv("RABBITMQ_USER", "guest")),
			url.PathEscape(getEnv("RABBITMQ_PASSWORD", "guest")),
			getEnv("RABBITMQ_HOST", "localhost"),
			getEnv("RABBITMQ_PORT", "5672"),
			url.PathEscape(getEnv("RABBITMQ_VHOST", "/")),
		)
	}
	retryDelays := getEnvDurationList(
		"CLEANUP_RETRY_DELAYS",
		[]time.Duration{30 * time.Second, 2 * time.Minute, 10 * time.Minute},
	)
	AppConfig = Config{
		Port:          getEnv("PORT", "8000"),
		AppEnv:        getEnv("APP_ENV", "development"),
		LogLevel:      strings.ToLower(getEnv("LOG_LEVEL", "info")),
		SessionSecret: getEnv("SESSION_SECRET", getEnv("NEXTAUTH_SECRET", "")),
		AuthRequired:  getEnvBool("AUTH_REQUIRED", false),
		CORSOrigins:   getEnvList("CORS_ALLOWED_ORIGINS"),

		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		DBHost:      getEnv("DB_HOST", ""),
		DBPort:      getEnv("DB_PORT", "3306"),
		DBUser:      getEnv("DB_USER", "root"),
		DBPass:      getEnv("DB_PASS", "root"),
		DBName:      getEnv("DB_NAME", "next_express"),

		DynamoUsersTable: getEnv("DYNAMODB_USERS_TABLE", "users"),
		DynamoFilesTable: getEnv("DYNAMODB_FILES_TABLE", "files"),
		DynamoEmailIndex: getEnv("DYNAMODB_EMAIL_INDEX", "EmailIndex"),
		DynamoEndpoint:   getEnv("DYNAMODB_ENDPOINT", ""),

		RedisHost:     getEnv("REDIS_HOST", ""),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		RabbitMQURL:      rabbitURL,
		RabbitMQPrefetch: getEnvInt("RABBITMQ_PREFETCH", 8),

		CleanupWorkerConcurrency: getEnvInt("CLEANUP_WORKER_CONCURRENCY", 4),
		CleanupRate:              getEnvFloat("CLEANUP_RATE", 5),
		CleanupBurst:             getEnvInt("CLEANUP_BURST", 10),
		CleanupRetryMax:          getEnvInt("CLEANUP_RETRY_MAX", 3),
		CleanupRetryDelays:       retryDelays,

		SignedURLTTL:   getEnvDuration("SIGNED_URL_TTL", time.Hour),
		MaxUploadBytes: getEnvInt64("MAX_UPLOAD_BYTES", 32<<20),
	}
	if AppConfig.SessionSecret == "" {
		AppConfig.SessionSecret = "dev-session-secret"
	}

	InitStorageConfig()
}

// HasAWSCredentials reports whether real AWS credentials were supplied.
func (c Config) HasAWSCredentials() bool {
	return !isPlaceholder(c.AWSAccessKeyID) && !isPlaceholder(c.AWSSecretAccessKey)
}

// DynamoConfigured reports whether the key-value backend can be reached:
// either real credentials or a local endpoint override.
func (c Config) DynamoConfigured() bool {
	return c.HasAWSCredentials() || c.DynamoEndpoint != ""
}

// RelationalConfigured reports whether a SQL database was configured.
func (c Config) RelationalConfigured() bool {
	return c.DatabaseURL != "" || c.DBHost != ""
}

// RedisConfigured reports whether Redis was configured.
func (c Config) RedisConfigured() bool {
	return c.RedisHost != ""
}

// IsProduction reports whether the app runs with production settings.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}
