package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInitConfigDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("NEXTAUTH_SECRET", "from-nextauth")
	t.Setenv("RABBITMQ_URL", "")
	t.Setenv("RABBITMQ_HOST", "")
	InitConfig()

	assert.Equal(t, "8000", AppConfig.Port)
	assert.Equal(t, "us-east-1", AppConfig.AWSRegion)
	assert.Equal(t, "users", AppConfig.DynamoUsersTable)
	assert.Equal(t, "EmailIndex", AppConfig.DynamoEmailIndex)
	assert.Equal(t, "from-nextauth", AppConfig.SessionSecret)
	assert.Equal(t, time.Hour, AppConfig.SignedURLTTL)
	assert.Equal(t, int64(32<<20), AppConfig.MaxUploadBytes)
	assert.Equal(t, "", AppConfig.RabbitMQURL)
}

func TestRabbitURLFromParts(t *testing.T) {
	t.Setenv("RABBITMQ_URL", "")
	t.Setenv("RABBITMQ_HOST", "mq")
	t.Setenv("RABBITMQ_USER", "u")
	t.Setenv("RABBITMQ_PASSWORD", "p/ss")
	t.Setenv("RABBITMQ_PORT", "")
	t.Setenv("RABBITMQ_VHOST", "")
	InitConfig()
	assert.Equal(t, "amqp://u:p%2Fss@mq:5672/%2F", AppConfig.RabbitMQURL)
}

func TestEnvParsers(t *testing.T) {
	t.Setenv("X_DELAYS", "1s, 2m")
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Minute}, getEnvDurationList("X_DELAYS", nil))
	t.Setenv("X_DELAYS", "1s,bogus")
	assert.Equal(t, []time.Duration{time.Hour}, getEnvDurationList("X_DELAYS", []time.Duration{time.Hour}))

	t.Setenv("X_BOOL", "yes")
	assert.True(t, getEnvBool("X_BOOL", false))
	t.Setenv("X_BOOL", "maybe")
	assert.False(t, getEnvBool("X_BOOL", false))

	t.Setenv("X_INT", "12x")
	assert.Equal(t, 7, getEnvInt("X_INT", 7))
}

func TestCredentialDetection(t *testing.T) {
	c := Config{AWSAccessKeyID: "your_aws_access_key_here", AWSSecretAccessKey: "your_aws_secret_key_here"}
	assert.False(t, c.HasAWSCredentials())
	assert.False(t, c.DynamoConfigured())

	c.DynamoEndpoint = "http://localhost:8001"
	assert.True(t, c.DynamoConfigured())

	c = Config{AWSAccessKeyID: "AKIA", AWSSecretAccessKey: "secret"}
	assert.True(t, c.HasAWSCredentials())
	assert.False(t, c.RelationalConfigured())
	c.DatabaseURL = "postgres://localhost/app"
	assert.True(t, c.RelationalConfigured())
}

func TestStoreDriverSelection(t *testing.T) {
	t.Setenv("OBJECT_STORE", "")
	t.Setenv("MINIO_ENDPOINT", "")
	t.Setenv("AWS_S3_BUCKET_NAME", "")
	app := Config{Port: "8000"}
	cfg := buildStorageConfig(app)
	assert.Equal(t, StoreDriverMemory, cfg.Driver)
	assert.Equal(t, "local", cfg.Bucket)

	t.Setenv("AWS_S3_BUCKET_NAME", "uploads")
	app = Config{Port: "8000", AWSAccessKeyID: "AKIA", AWSSecretAccessKey: "secret"}
	assert.Equal(t, StoreDriverS3, buildStorageConfig(app).Driver)

	t.Setenv("MINIO_ENDPOINT", "localhost:9000")
	assert.Equal(t, StoreDriverMinio, buildStorageConfig(app).Driver)

	t.Setenv("OBJECT_STORE", "memory")
	assert.Equal(t, StoreDriverMemory, buildStorageConfig(app).Driver)
}
