package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Constants for default paths
const (
	defaultUploadPath = "./uploads"
	defaultStaticPath = ""
	envPrefix         = "DROPQR"
)

// Constants for upload settings
const (
	defaultMaxSize             = 250.0 // MiB
	defaultStreamingBufferSize = 64    // KiB
	defaultShortenerTimeout    = 5 * time.Second
	defaultQRSize              = 256
)

// Shortener providers
const (
	ProviderIsGd    = "isgd"
	ProviderTinyURL = "tinyurl"
	ProviderNone    = "none"
)

// ShortenerConfig configures the external link-shortening service
type ShortenerConfig struct {
	Provider string        `mapstructure:"provider" json:"provider"`
	Endpoint string        `mapstructure:"endpoint" json:"endpoint"` // Overrides the provider's default endpoint
	Timeout  time.Duration `mapstructure:"timeout" json:"timeout"`
}

// QRConfig configures QR code rendering
type QRConfig struct {
	Size  int    `mapstructure:"size" json:"size"`   // Image side in pixels
	Level string `mapstructure:"level" json:"level"` // low, medium, high, highest
}

// Config represents the application configuration
type Config struct {
	Port                int             `mapstructure:"port" json:"port"`
	UploadPath          string          `mapstructure:"upload_path" json:"upload_path"`                   // Path to uploaded files
	StaticPath          string          `mapstructure:"static_path" json:"static_path"`                   // Serve the UI from disk instead of the embedded copy
	MaxSize             float64         `mapstructure:"max_size_mib" json:"max_size_mib"`                 // Maximum file size in MiB
	StreamingBufferSize int             `mapstructure:"streaming_buffer_kib" json:"streaming_buffer_kib"` // Copy buffer in KiB
	AllowedOrigins      []string        `mapstructure:"allowed_origins" json:"allowed_origins"`           // Empty accepts any declared host
	Shortener           ShortenerConfig `mapstructure:"shortener" json:"shortener"`
	QR                  QRConfig        `mapstructure:"qr" json:"qr"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 3000)
	v.SetDefault("upload_path", defaultUploadPath)
	v.SetDefault("static_path", defaultStaticPath)
	v.SetDefault("max_size_mib", defaultMaxSize)
	v.SetDefault("streaming_buffer_kib", defaultStreamingBufferSize)
	v.SetDefault("allowed_origins", []string{})
	v.SetDefault("shortener.provider", ProviderIsGd)
	v.SetDefault("shortener.endpoint", "")
	v.SetDefault("shortener.timeout", defaultShortenerTimeout)
	v.SetDefault("qr.size", defaultQRSize)
	v.SetDefault("qr.level", "medium")
}

// New returns a viper instance with defaults and environment bindings applied.
// Environment variables use the DROPQR_ prefix, e.g. DROPQR_SHORTENER_PROVIDER.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadConfig loads a configuration from a YAML file layered over defaults and environment
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	v := New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	return FromViper(v)
}

// FromViper decodes and validates a configuration from an already prepared viper instance
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the configuration obtained from defaults and environment only
func Default() (*Config, error) {
	return FromViper(New())
}

// Validate checks that the configuration values are usable
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 0 and 65535")
	}
	if c.UploadPath == "" {
		return fmt.Errorf("upload_path must not be empty")
	}
	if c.MaxSize <= 0 {
		return fmt.Errorf("max_size_mib must be greater than 0")
	}
	if c.StreamingBufferSize <= 0 {
		return fmt.Errorf("streaming_buffer_kib must be greater than 0")
	}
	if c.QR.Size <= 0 {
		return fmt.Errorf("qr.size must be greater than 0")
	}

	switch c.Shortener.Provider {
	case ProviderIsGd, ProviderTinyURL, ProviderNone:
	default:
		return fmt.Errorf("unknown shortener provider %q", c.Shortener.Provider)
	}

	if c.Shortener.Provider != ProviderNone && c.Shortener.Timeout <= 0 {
		return fmt.Errorf("shortener.timeout must be greater than 0")
	}

	return nil
}

func (c *Config) MaxSizeToBytes() int64 {
	return int64(c.MaxSize * 1024 * 1024)
}

func (c *Config) StreamingBufferSizeToBytes() int {
	return c.StreamingBufferSize * 1024
}

// Enabled reports whether uploads should attempt link shortening
func (s ShortenerConfig) Enabled() bool {
	return s.Provider != "" && s.Provider != ProviderNone
}
