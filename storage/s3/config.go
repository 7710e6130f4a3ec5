package s3

import (
	"net/http"
	"time"

	"github.com/kbukum/imgkit/httpclient"
	"github.com/kbukum/imgkit/logger"
	"github.com/kbukum/imgkit/resilience"
	"github.com/kbukum/imgkit/storage/sigv4"
)

const (
	// DefaultUploadTimeout bounds a single PUT, direct or presigned.
	DefaultUploadTimeout = 40 * time.Second
	// DefaultDeleteTimeout bounds a DeleteObject call.
	DefaultDeleteTimeout = 20 * time.Second
)

// Options holds the collaborators of a Client. Zero values are replaced with
// defaults.
type Options struct {
	// Logger receives per-attempt debug lines and fallback warnings.
	Logger *logger.Logger

	// HTTP carries presigned PUTs. Defaults to a client with the
	// dropped-connection retry policy.
	HTTP *httpclient.Client

	// Retry is the dropped-connection policy for the default HTTP client.
	// Nil uses httpclient.DefaultRetryConfig.
	Retry *resilience.RetryConfig

	// Presigner signs fallback PUTs. Defaults to the wall clock.
	Presigner *sigv4.Presigner

	// SDKHTTPClient overrides the transport used by the AWS SDK.
	SDKHTTPClient *http.Client

	// SDKMaxAttempts caps the SDK's own retries. Zero keeps the SDK default.
	SDKMaxAttempts int

	UploadTimeout time.Duration
	DeleteTimeout time.Duration
}

// ApplyDefaults fills in zero-valued fields.
func (o *Options) ApplyDefaults() error {
	if o.Logger == nil {
		o.Logger = logger.NewNop()
	}
	if o.UploadTimeout <= 0 {
		o.UploadTimeout = DefaultUploadTimeout
	}
	if o.DeleteTimeout <= 0 {
		o.DeleteTimeout = DefaultDeleteTimeout
	}
	if o.Presigner == nil {
		o.Presigner = sigv4.New()
	}
	if o.HTTP == nil {
		retry := o.Retry
		if retry == nil {
			retry = httpclient.DefaultRetryConfig()
		}
		c, err := httpclient.New(httpclient.Config{
			Timeout: o.UploadTimeout,
			Retry:   retry,
		})
		if err != nil {
			return err
		}
		o.HTTP = c
	}
	return nil
}
