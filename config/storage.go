package config

import (
	"strings"
	"sync"
)

const (
	StoreDriverS3     = "s3"
	StoreDriverMinio  = "minio"
	StoreDriverMemory = "memory"
)

// StorageConfig holds object storage settings.
type StorageConfig struct {
	Driver        string `json:"driver"` // s3, minio, memory
	Bucket        string `json:"bucket"`
	Region        string `json:"region"`
	MinioEndpoint string `json:"minio_endpoint"`
	MinioUseSSL   bool   `json:"minio_use_ssl"`
	AccessKey     string `json:"-"`
	SecretKey     string `json:"-"`
	// PublicBaseURL is where this process is reachable; memory-store links point at it.
	PublicBaseURL string `json:"public_base_url"`
}

var StorageConfigInstance *StorageConfig
var storageConfigOnce sync.Once

// InitStorageConfig initializes storage config.
func InitStorageConfig() {
	storageConfigOnce.Do(func() {
		StorageConfigInstance = buildStorageConfig(AppConfig)
	})
}

// ReloadStorageConfig rebuilds the storage config from AppConfig.
func ReloadStorageConfig() {
	StorageConfigInstance = buildStorageConfig(AppConfig)
}

func buildStorageConfig(app Config) *StorageConfig {
	cfg := &StorageConfig{
		Bucket:        getEnv("AWS_S3_BUCKET_NAME", ""),
		Region:        app.AWSRegion,
		MinioEndpoint: getEnv("MINIO_ENDPOINT", ""),
		MinioUseSSL:   getEnvBool("MINIO_USE_SSL", false),
		AccessKey:     app.AWSAccessKeyID,
		SecretKey:     app.AWSSecretAccessKey,
		PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:"+app.Port), "/"),
	}
	cfg.Driver = selectStoreDriver(strings.ToLower(getEnv("OBJECT_STORE", "")), cfg, app)
	if cfg.Driver == StoreDriverMemory && cfg.Bucket == "" {
		cfg.Bucket = "local"
	}
	return cfg
}

// selectStoreDriver honours an explicit choice, otherwise picks the most capable configured store.
func selectStoreDriver(explicit string, cfg *StorageConfig, app Config) string {
	switch explicit {
	case StoreDriverS3, StoreDriverMinio, StoreDriverMemory:
		return explicit
	}
	if cfg.MinioEndpoint != "" && cfg.Bucket != "" {
		return StoreDriverMinio
	}
	if app.HasAWSCredentials() && cfg.Bucket != "" {
		return StoreDriverS3
	}
	return StoreDriverMemory
}
