package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.Server.Address)
	require.Equal(t, "mongodb://localhost:27017", cfg.Database.URI)
	require.Equal(t, "chat_app", cfg.Database.Name)
	require.Equal(t, 24*time.Hour, cfg.JWT.Expiration)
	require.Equal(t, "uploads", cfg.Uploads.Dir)
	require.Equal(t, int64(64<<20), cfg.Uploads.MaxFileSize)
	require.Equal(t, int64(512<<10), cfg.Uploads.MaxPartSize)
	require.Equal(t, 30*time.Second, cfg.Uploads.IdleTimeout)
	require.Equal(t, 64, cfg.Uploads.IconWidth)
	require.Equal(t, 320, cfg.Uploads.PreviewWidth)
	require.Equal(t, 240, cfg.Uploads.PreviewHeight)
	require.Equal(t, "local", cfg.Storage.Provider)
	require.True(t, cfg.S3.UseSSL)
}

func TestLoadConfigFromFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	content := []byte(`
server:
  address: ":9090"
jwt:
  secret: "file-secret"
  expiration: "1h"
uploads:
  max_part_size: 1024
  idle_timeout: "5s"
storage:
  provider: "s3"
s3:
  bucket_name: "chat-files"
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o644))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	require.Equal(t, ":9090", cfg.Server.Address)
	require.Equal(t, "file-secret", cfg.JWT.Secret)
	require.Equal(t, time.Hour, cfg.JWT.Expiration)
	require.Equal(t, int64(1024), cfg.Uploads.MaxPartSize)
	require.Equal(t, 5*time.Second, cfg.Uploads.IdleTimeout)
	require.Equal(t, "s3", cfg.Storage.Provider)
	require.Equal(t, "chat-files", cfg.S3.BucketName)

	// Values absent from the file keep their defaults.
	require.Equal(t, "chat_app", cfg.Database.Name)
	require.Equal(t, int64(64<<20), cfg.Uploads.MaxFileSize)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("SERVER_ADDRESS", ":7070")
	t.Setenv("DATABASE_NAME", "chat_test")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, ":7070", cfg.Server.Address)
	require.Equal(t, "chat_test", cfg.Database.Name)
}
