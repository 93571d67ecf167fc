package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigWithDefaults(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")

	configContent := `port: 8080
upload_path: "/srv/uploads"`

	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "/srv/uploads", cfg.UploadPath)

	assert.Equal(t, 250.0, cfg.MaxSize)
	assert.Equal(t, 64, cfg.StreamingBufferSize)
	assert.Empty(t, cfg.AllowedOrigins)
	assert.Equal(t, ProviderIsGd, cfg.Shortener.Provider)
	assert.Equal(t, 5*time.Second, cfg.Shortener.Timeout)
	assert.Equal(t, 256, cfg.QR.Size)
	assert.Equal(t, "medium", cfg.QR.Level)
	assert.True(t, cfg.Shortener.Enabled())
}

func TestLoadConfigWithEmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")

	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoadConfigWithNonExistentFile(t *testing.T) {
	cfg, err := LoadConfig("/non/existent/path.yaml")

	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoadConfigWithInvalidYAML(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "invalid.yaml")

	invalidContent := `port: 8080
invalid: yaml: content: [`

	err := os.WriteFile(configPath, []byte(invalidContent), 0644)
	require.NoError(t, err)

	cfg, err := LoadConfig(configPath)
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoadConfigWithAllFields(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "full_config.yaml")

	fullConfigContent := `port: 9000
upload_path: "/custom/uploads"
static_path: "/custom/public"
max_size_mib: 1024.0
streaming_buffer_kib: 128
allowed_origins:
  - "https://drop.example.com"
  - "http://localhost:3000"
shortener:
  provider: tinyurl
  endpoint: "http://shortener.internal/api"
  timeout: 2s
qr:
  size: 512
  level: high`

	err := os.WriteFile(configPath, []byte(fullConfigContent), 0644)
	require.NoError(t, err)

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "/custom/uploads", cfg.UploadPath)
	assert.Equal(t, "/custom/public", cfg.StaticPath)
	assert.Equal(t, 1024.0, cfg.MaxSize)
	assert.Equal(t, 128, cfg.StreamingBufferSize)
	assert.Equal(t, []string{"https://drop.example.com", "http://localhost:3000"}, cfg.AllowedOrigins)
	assert.Equal(t, ProviderTinyURL, cfg.Shortener.Provider)
	assert.Equal(t, "http://shortener.internal/api", cfg.Shortener.Endpoint)
	assert.Equal(t, 2*time.Second, cfg.Shortener.Timeout)
	assert.Equal(t, 512, cfg.QR.Size)
	assert.Equal(t, "high", cfg.QR.Level)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")

	err := os.WriteFile(configPath, []byte("port: 8080\n"), 0644)
	require.NoError(t, err)

	t.Setenv("DROPQR_PORT", "9090")
	t.Setenv("DROPQR_SHORTENER_PROVIDER", "none")

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, ProviderNone, cfg.Shortener.Provider)
	assert.False(t, cfg.Shortener.Enabled())
}

func TestLoadConfigRejectsUnknownProvider(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")

	err := os.WriteFile(configPath, []byte("shortener:\n  provider: bitly\n"), 0644)
	require.NoError(t, err)

	cfg, err := LoadConfig(configPath)
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestDefault(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "./uploads", cfg.UploadPath)
	assert.Equal(t, int64(250*1024*1024), cfg.MaxSizeToBytes())
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Port:                3000,
			UploadPath:          "./uploads",
			MaxSize:             250,
			StreamingBufferSize: 64,
			Shortener:           ShortenerConfig{Provider: ProviderIsGd, Timeout: time.Second},
			QR:                  QRConfig{Size: 256},
		}
	}

	testCases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "negative port", mutate: func(c *Config) { c.Port = -1 }, wantErr: true},
		{name: "empty upload path", mutate: func(c *Config) { c.UploadPath = "" }, wantErr: true},
		{name: "zero max size", mutate: func(c *Config) { c.MaxSize = 0 }, wantErr: true},
		{name: "zero buffer", mutate: func(c *Config) { c.StreamingBufferSize = 0 }, wantErr: true},
		{name: "zero qr size", mutate: func(c *Config) { c.QR.Size = 0 }, wantErr: true},
		{name: "zero timeout", mutate: func(c *Config) { c.Shortener.Timeout = 0 }, wantErr: true},
		{name: "zero timeout without shortener", mutate: func(c *Config) {
			c.Shortener.Provider = ProviderNone
			c.Shortener.Timeout = 0
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMaxSizeToBytes(t *testing.T) {
	cfg := &Config{MaxSize: 250.0}

	result := cfg.MaxSizeToBytes()
	expected := int64(250 * 1024 * 1024)

	assert.Equal(t, expected, result)
}

func TestStreamingBufferSizeToBytes(t *testing.T) {
	cfg := &Config{StreamingBufferSize: 64}

	result := cfg.StreamingBufferSizeToBytes()
	expected := 64 * 1024

	assert.Equal(t, expected, result)
}
