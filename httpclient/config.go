package httpclient

import (
	"fmt"
	"net/http"
	"time"

	"github.com/kbukum/imgkit/resilience"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "imgkit"
)

// Config configures the HTTP client.
type Config struct {
	// BaseURL is the base URL prepended to relative request paths.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// Timeout bounds every request that does not set its own. Defaults to 30s.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is sent on every request. Defaults to "imgkit".
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`

	// Auth configures default authentication applied to all requests.
	// Individual requests can override this.
	Auth *AuthConfig `yaml:"-" mapstructure:"-"`

	// Headers are default headers applied to all requests.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	// Retry configures retry behavior. Nil disables retry.
	Retry *resilience.RetryConfig `yaml:"-" mapstructure:"-"`

	// Transport overrides the HTTP transport. Tests inject failing transports here.
	Transport http.RoundTripper `yaml:"-" mapstructure:"-"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("httpclient: timeout must be positive")
	}
	return nil
}

// DefaultRetryConfig returns the retry policy for dropped connections:
// four attempts spaced 250ms, 800ms and 1500ms apart.
func DefaultRetryConfig() *resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	cfg.RetryIf = IsAbruptClose
	return &cfg
}

// RetryConfigWithBackoffs returns the dropped-connection policy with a custom
// schedule. The attempt count is one more than the number of backoffs.
func RetryConfigWithBackoffs(backoffs []time.Duration) *resilience.RetryConfig {
	if len(backoffs) == 0 {
		return DefaultRetryConfig()
	}
	return &resilience.RetryConfig{
		MaxAttempts: len(backoffs) + 1,
		Backoffs:    backoffs,
		RetryIf:     IsAbruptClose,
	}
}
