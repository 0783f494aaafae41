package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Uploads  UploadsConfig  `mapstructure:"uploads"`
	Storage  StorageConfig  `mapstructure:"storage"`
	S3       S3Config       `mapstructure:"s3"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

type DatabaseConfig struct {
	URI  string `mapstructure:"uri"`
	Name string `mapstructure:"name"`
}

// JWTConfig defines JWT specific configuration.
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

// UploadsConfig bounds the chunked upload protocol and the derivative
// image generation that runs on completed uploads.
type UploadsConfig struct {
	Dir           string        `mapstructure:"dir"`
	MaxFileSize   int64         `mapstructure:"max_file_size"`
	MaxPartSize   int64         `mapstructure:"max_part_size"`
	IdleTimeout   time.Duration `mapstructure:"idle_timeout"`
	IconWidth     int           `mapstructure:"icon_width"`
	IconHeight    int           `mapstructure:"icon_height"`
	PreviewWidth  int           `mapstructure:"preview_width"`
	PreviewHeight int           `mapstructure:"preview_height"`
}

// StorageConfig selects where completed uploads are published.
// "local" serves files straight from the uploads directory; "s3"
// mirrors them to an S3-compatible bucket and serves presigned URLs.
type StorageConfig struct {
	Provider string `mapstructure:"provider"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Environment overrides, e.g. jwt.expiration -> JWT_EXPIRATION.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("database.uri", "mongodb://localhost:27017")
	viper.SetDefault("database.name", "chat_app")
	viper.SetDefault("jwt.expiration", "24h")
	viper.SetDefault("uploads.dir", "uploads")
	viper.SetDefault("uploads.max_file_size", 64<<20)
	viper.SetDefault("uploads.max_part_size", 512<<10)
	viper.SetDefault("uploads.idle_timeout", "30s")
	viper.SetDefault("uploads.icon_width", 64)
	viper.SetDefault("uploads.icon_height", 64)
	viper.SetDefault("uploads.preview_width", 320)
	viper.SetDefault("uploads.preview_height", 240)
	viper.SetDefault("storage.provider", "local")
	viper.SetDefault("s3.use_ssl", true)

	err = viper.ReadInConfig()
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		// Config file is optional; env vars and defaults still apply.
		err = nil
	} else if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	return config, nil
}
