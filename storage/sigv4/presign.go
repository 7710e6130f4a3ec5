package sigv4

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kbukum/imgkit/errors"
	"github.com/kbukum/imgkit/storage"
	"github.com/kbukum/imgkit/validation"
)

const (
	algorithm       = "AWS4-HMAC-SHA256"
	terminator      = "aws4_request"
	serviceS3       = "s3"
	unsignedPayload = "UNSIGNED-PAYLOAD"
	amzDateFormat   = "20060102T150405Z"
	dateStampFormat = "20060102"

	awsHost = "s3.amazonaws.com"
)

// Request describes one object to presign.
type Request struct {
	AccessKeyID     string
	SecretAccessKey string
	// Region defaults to us-east-1.
	Region string
	Bucket string
	// Endpoint is the S3-compatible endpoint with scheme. Empty means AWS.
	Endpoint  string
	PathStyle bool
	Key       string
	// Expires is the lifetime in seconds. Zero or negative means 600.
	// Values above 604800 are passed through unchanged.
	Expires int
	// Method defaults to PUT.
	Method string
}

// RequestFor builds a PUT request from credentials.
func RequestFor(c storage.Credentials, key string, expires int) Request {
	c = c.Normalized()
	return Request{
		AccessKeyID:     c.AccessKeyID,
		SecretAccessKey: c.SecretAccessKey,
		Region:          c.Region,
		Bucket:          c.Bucket,
		Endpoint:        c.Endpoint,
		PathStyle:       c.PathStyle(),
		Key:             key,
		Expires:         expires,
	}
}

// Presigner signs requests against a clock.
type Presigner struct {
	now func() time.Time
}

// Option configures a Presigner.
type Option func(*Presigner)

// WithClock replaces time.Now. Tests pass a fixed instant.
func WithClock(now func() time.Time) Option {
	return func(p *Presigner) { p.now = now }
}

// New creates a Presigner.
func New(opts ...Option) *Presigner {
	p := &Presigner{now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Presign returns the presigned URL for req. The signature is the last
// query parameter.
func (p *Presigner) Presign(req Request) (string, error) {
	if err := validation.New().
		Required("accessKeyId", req.AccessKeyID).
		Required("secretAccessKey", req.SecretAccessKey).
		Required("bucket", req.Bucket).
		Required("key", req.Key).
		Validate(); err != nil {
		return "", err
	}

	method := req.Method
	if method == "" {
		method = "PUT"
	}
	region := req.Region
	if region == "" {
		region = storage.DefaultRegion
	}
	expires := req.Expires
	if expires <= 0 {
		expires = storage.DefaultPresignExpiry
	}

	scheme, host, uri, err := canonicalLocation(req)
	if err != nil {
		return "", err
	}

	now := p.now().UTC()
	amzDate := now.Format(amzDateFormat)
	dateStamp := now.Format(dateStampFormat)
	scope := strings.Join([]string{dateStamp, region, serviceS3, terminator}, "/")

	query := canonicalQuery(map[string]string{
		"X-Amz-Algorithm":     algorithm,
		"X-Amz-Credential":    req.AccessKeyID + "/" + scope,
		"X-Amz-Date":          amzDate,
		"X-Amz-Expires":       strconv.Itoa(expires),
		"X-Amz-SignedHeaders": "host",
	})

	canonicalRequest := strings.Join([]string{
		method,
		uri,
		query,
		"host:" + host + "\n",
		"host",
		unsignedPayload,
	}, "\n")

	stringToSign := strings.Join([]string{
		algorithm,
		amzDate,
		scope,
		hexSHA256(canonicalRequest),
	}, "\n")

	key := SigningKey(req.SecretAccessKey, dateStamp, region, serviceS3)
	signature := hex.EncodeToString(hmacSHA256(key, stringToSign))

	return scheme + "://" + host + uri + "?" + query + "&X-Amz-Signature=" + signature, nil
}

// SigningKey derives the per-day signing key:
// HMAC chain over "AWS4"+secret, date, region, service and "aws4_request".
func SigningKey(secret, dateStamp, region, service string) []byte {
	kDate := hmacSHA256([]byte("AWS4"+secret), dateStamp)
	kRegion := hmacSHA256(kDate, region)
	kService := hmacSHA256(kRegion, service)
	return hmacSHA256(kService, terminator)
}

// canonicalLocation returns the scheme, signing host and canonical URI.
func canonicalLocation(req Request) (scheme, host, uri string, err error) {
	encodedKey := EscapePathSegments(req.Key)

	if req.Endpoint == "" {
		if req.PathStyle {
			return "https", awsHost, "/" + req.Bucket + "/" + encodedKey, nil
		}
		return "https", req.Bucket + "." + awsHost, "/" + encodedKey, nil
	}

	u, perr := url.Parse(storage.NormalizeEndpoint(req.Endpoint))
	if perr != nil || u.Host == "" {
		return "", "", "", errors.InvalidInput("endpoint", fmt.Sprintf("cannot parse endpoint %q", req.Endpoint))
	}

	if req.PathStyle {
		endpointPath := strings.TrimRight(u.EscapedPath(), "/")
		return u.Scheme, u.Host, endpointPath + "/" + req.Bucket + "/" + encodedKey, nil
	}
	return u.Scheme, req.Bucket + "." + u.Host, "/" + encodedKey, nil
}

// canonicalQuery sorts parameters by name and encodes names and values.
func canonicalQuery(params map[string]string) string {
	names := make([]string, 0, len(params))
	for k := range params {
		names = append(names, k)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, k := range names {
		parts[i] = EscapeQuery(k) + "=" + EscapeQuery(params[k])
	}
	return strings.Join(parts, "&")
}

func hmacSHA256(key []byte, data string) []byte {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(data))
	return h.Sum(nil)
}

func hexSHA256(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
