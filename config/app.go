package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kbukum/imgkit/download"
	"github.com/kbukum/imgkit/httpclient"
	"github.com/kbukum/imgkit/ledger"
	"github.com/kbukum/imgkit/observability"
	"github.com/kbukum/imgkit/resilience"
	"github.com/kbukum/imgkit/server"
	"github.com/kbukum/imgkit/storage"
	"github.com/kbukum/imgkit/uploader"
	"github.com/kbukum/imgkit/worker"
)

// ServiceName names the config directory, the env prefix and the logger.
const ServiceName = "imgkit"

// AppConfig is the whole of imgkit's configuration.
type AppConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Uploader UploaderConfig       `yaml:"uploader" mapstructure:"uploader"`
	Ledger   LedgerConfig         `yaml:"ledger" mapstructure:"ledger"`
	HTTP     HTTPConfig           `yaml:"http" mapstructure:"http"`
	Download DownloadConfig       `yaml:"download" mapstructure:"download"`
	Server   server.Config        `yaml:"server" mapstructure:"server"`
	Tracing  observability.Config `yaml:"tracing" mapstructure:"tracing"`
}

// Load reads, defaults and validates the configuration.
func Load(opts ...LoaderOption) (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := LoadConfig(ServiceName, cfg, opts...); err != nil {
		return nil, err
	}
	if err := cfg.ApplyDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyDefaults fills unset fields in every block.
func (c *AppConfig) ApplyDefaults() error {
	c.ServiceConfig.ApplyDefaults()
	c.Uploader.ApplyDefaults()
	if err := c.Ledger.ApplyDefaults(); err != nil {
		return err
	}
	c.HTTP.ApplyDefaults()
	c.Download.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Tracing.ApplyDefaults()
	return nil
}

// Validate checks every block.
func (c *AppConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Uploader.Validate(); err != nil {
		return fmt.Errorf("uploader: %w", err)
	}
	if err := c.Ledger.Validate(); err != nil {
		return fmt.Errorf("ledger: %w", err)
	}
	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http: %w", err)
	}
	if err := c.Download.Validate(); err != nil {
		return fmt.Errorf("download: %w", err)
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	return c.Tracing.Validate()
}

// UploaderConfig selects the default provider and holds its credentials.
// Credentials are only checked when a command uses them.
type UploaderConfig struct {
	Provider    string                   `yaml:"provider" mapstructure:"provider"`
	S3          storage.Credentials      `yaml:"s3" mapstructure:"s3"`
	ImgLa       storage.ImgLaCredentials `yaml:"imgla" mapstructure:"imgla"`
	KeyTemplate string                   `yaml:"key_template" mapstructure:"key_template"`
	Workers     int                      `yaml:"workers" mapstructure:"workers"`
}

func (c *UploaderConfig) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = string(storage.ProviderS3Compatible)
	}
	if strings.TrimSpace(c.KeyTemplate) == "" {
		c.KeyTemplate = uploader.DefaultKeyTemplate
	}
	if c.Workers <= 0 {
		c.Workers = worker.DefaultSize
	}
}

func (c *UploaderConfig) Validate() error {
	if _, err := storage.ParseProvider(c.Provider); err != nil {
		return fmt.Errorf("provider: %s", err.Error())
	}
	return nil
}

// Target builds the upload target for provider p, or for the configured
// provider when p is empty.
func (c *UploaderConfig) Target(p string) (uploader.Target, error) {
	if strings.TrimSpace(p) == "" {
		p = c.Provider
	}
	provider, err := storage.ParseProvider(p)
	if err != nil {
		return uploader.Target{}, err
	}
	if provider == storage.ProviderImgLa {
		return uploader.ImgLaTarget(c.ImgLa), nil
	}
	return uploader.S3Target(c.S3), nil
}

// LedgerConfig locates the upload history file.
type LedgerConfig struct {
	Path     string `yaml:"path" mapstructure:"path"`
	Capacity int    `yaml:"capacity" mapstructure:"capacity"`
}

func (c *LedgerConfig) ApplyDefaults() error {
	if c.Path == "" {
		p, err := ledger.DefaultPath()
		if err != nil {
			return fmt.Errorf("ledger: %w", err)
		}
		c.Path = p
	}
	if c.Capacity <= 0 {
		c.Capacity = ledger.DefaultCapacity
	}
	return nil
}

func (c *LedgerConfig) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("path is required")
	}
	return nil
}

// HTTPConfig bounds provider calls.
type HTTPConfig struct {
	UploadTimeout time.Duration `yaml:"upload_timeout" mapstructure:"upload_timeout"`
	APITimeout    time.Duration `yaml:"api_timeout" mapstructure:"api_timeout"`
	DeleteTimeout time.Duration `yaml:"delete_timeout" mapstructure:"delete_timeout"`
	// Backoffs is the wait before each retry of a dropped connection.
	Backoffs []time.Duration `yaml:"backoffs" mapstructure:"backoffs"`
	// S3MaxAttempts caps the AWS SDK's own retries. Zero keeps its default.
	S3MaxAttempts int           `yaml:"s3_max_attempts" mapstructure:"s3_max_attempts"`
	CacheSize     int           `yaml:"cache_size" mapstructure:"cache_size"`
	CacheTTL      time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
}

func (c *HTTPConfig) ApplyDefaults() {
	if c.UploadTimeout <= 0 {
		c.UploadTimeout = 40 * time.Second
	}
	if c.APITimeout <= 0 {
		c.APITimeout = 20 * time.Second
	}
	if c.DeleteTimeout <= 0 {
		c.DeleteTimeout = 20 * time.Second
	}
	if len(c.Backoffs) == 0 {
		c.Backoffs = append([]time.Duration(nil), resilience.DefaultBackoffs...)
	}
	if c.CacheSize <= 0 {
		c.CacheSize = 32
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = 5 * time.Minute
	}
}

func (c *HTTPConfig) Validate() error {
	for _, b := range c.Backoffs {
		if b < 0 {
			return fmt.Errorf("backoffs must be non-negative (got: %s)", b)
		}
	}
	if c.S3MaxAttempts < 0 {
		return fmt.Errorf("s3_max_attempts must be non-negative (got: %d)", c.S3MaxAttempts)
	}
	return nil
}

// RetryConfig is the dropped-connection policy for provider calls.
func (c *HTTPConfig) RetryConfig() *resilience.RetryConfig {
	return httpclient.RetryConfigWithBackoffs(c.Backoffs)
}

// DownloadConfig configures update asset downloads.
type DownloadConfig struct {
	Dir         string        `yaml:"dir" mapstructure:"dir"`
	ProxyPrefix string        `yaml:"proxy_prefix" mapstructure:"proxy_prefix"`
	UseProxy    bool          `yaml:"use_proxy" mapstructure:"use_proxy"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

func (c *DownloadConfig) ApplyDefaults() {
	if c.Dir == "" {
		c.Dir = download.DefaultDir()
	}
	if c.ProxyPrefix == "" {
		c.ProxyPrefix = download.DefaultProxyPrefix
	}
	if c.Timeout <= 0 {
		c.Timeout = download.DefaultTimeout
	}
}

func (c *DownloadConfig) Validate() error {
	if !strings.HasPrefix(c.ProxyPrefix, "http://") && !strings.HasPrefix(c.ProxyPrefix, "https://") {
		return fmt.Errorf("proxy_prefix must be an http(s) URL (got: %s)", c.ProxyPrefix)
	}
	return nil
}
