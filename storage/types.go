package storage

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/kbukum/imgkit/errors"
	"github.com/kbukum/imgkit/validation"
)

// Provider tags which dialect an upload or record belongs to.
type Provider string

const (
	ProviderS3Compatible Provider = "s3compatible"
	ProviderImgLa        Provider = "imgla"
)

// ImgLaBucket is the bucket name stored on ImgLa records. Older records carry
// it without a provider tag.
const ImgLaBucket = "imgla"

const (
	// DefaultRegion is used when no region is configured or inferred.
	DefaultRegion = "us-east-1"
	// DefaultPresignExpiry is the presigned URL lifetime in seconds.
	DefaultPresignExpiry = 600
	// MaxPresignExpiry is the longest lifetime S3 accepts. It is not enforced.
	MaxPresignExpiry = 604800
	// R2HostSuffix identifies Cloudflare R2 endpoints, whose region is "auto".
	R2HostSuffix = ".r2.cloudflarestorage.com"
)

// ParseProvider maps a tag to a Provider. Empty means s3compatible.
func ParseProvider(s string) (Provider, error) {
	switch Provider(strings.ToLower(strings.TrimSpace(s))) {
	case "", ProviderS3Compatible, "s3":
		return ProviderS3Compatible, nil
	case ProviderImgLa, "lsky":
		return ProviderImgLa, nil
	default:
		return "", errors.InvalidInput("provider", fmt.Sprintf("unknown provider %q", s))
	}
}

// Credentials address an S3-compatible bucket. They are supplied per call
// and never persisted.
type Credentials struct {
	AccessKeyID     string `json:"accessKeyId" yaml:"access_key_id" mapstructure:"access_key_id"`
	SecretAccessKey string `json:"secretAccessKey" yaml:"secret_access_key" mapstructure:"secret_access_key"`
	Bucket          string `json:"bucket" yaml:"bucket" mapstructure:"bucket"`
	Region          string `json:"region,omitempty" yaml:"region" mapstructure:"region"`
	Endpoint        string `json:"endpoint,omitempty" yaml:"endpoint" mapstructure:"endpoint"`
	CustomDomain    string `json:"customDomain,omitempty" yaml:"custom_domain" mapstructure:"custom_domain"`
	// ForcePathStyle selects path-style addressing. Nil means true.
	ForcePathStyle *bool `json:"forcePathStyle,omitempty" yaml:"force_path_style" mapstructure:"force_path_style"`
	// ACLPublicRead sends the public-read canned ACL. Nil means true.
	ACLPublicRead *bool `json:"aclPublicRead,omitempty" yaml:"acl_public_read" mapstructure:"acl_public_read"`
}

// PathStyle reports whether path-style addressing is in effect.
func (c Credentials) PathStyle() bool {
	return c.ForcePathStyle == nil || *c.ForcePathStyle
}

// PublicRead reports whether uploads request the public-read ACL.
func (c Credentials) PublicRead() bool {
	return c.ACLPublicRead == nil || *c.ACLPublicRead
}

// Normalized returns a copy with the endpoint given a scheme and the region
// filled in.
func (c Credentials) Normalized() Credentials {
	c.AccessKeyID = strings.TrimSpace(c.AccessKeyID)
	c.SecretAccessKey = strings.TrimSpace(c.SecretAccessKey)
	c.Bucket = strings.TrimSpace(c.Bucket)
	c.Endpoint = NormalizeEndpoint(c.Endpoint)
	c.CustomDomain = strings.TrimSpace(c.CustomDomain)
	c.Region = InferRegion(c.Region, c.Endpoint)
	return c
}

// Validate rejects credentials that cannot address a bucket.
func (c Credentials) Validate() error {
	return validation.New().
		Required("accessKeyId", c.AccessKeyID).
		Required("secretAccessKey", c.SecretAccessKey).
		Required("bucket", c.Bucket).
		HTTPURL("endpoint", NormalizeEndpoint(c.Endpoint)).
		HTTPURL("customDomain", c.CustomDomain).
		Validate()
}

// Target returns the addressing subset used to build public URLs.
func (c Credentials) Target() Target {
	return Target{
		Bucket:       c.Bucket,
		Endpoint:     NormalizeEndpoint(c.Endpoint),
		PathStyle:    c.PathStyle(),
		CustomDomain: c.CustomDomain,
	}
}

// Target is everything needed to compute an object's public URL.
type Target struct {
	Bucket       string
	Endpoint     string
	PathStyle    bool
	CustomDomain string
}

// ImgLaCredentials address an ImgLa/Lsky instance.
type ImgLaCredentials struct {
	BaseURL    string `json:"baseUrl" yaml:"base_url" mapstructure:"base_url"`
	Token      string `json:"token" yaml:"token" mapstructure:"token"`
	StrategyID int64  `json:"strategyId,omitempty" yaml:"strategy_id" mapstructure:"strategy_id"`
	AlbumID    int64  `json:"albumId,omitempty" yaml:"album_id" mapstructure:"album_id"`
}

// DefaultStrategyID is used when no storage strategy is chosen.
const DefaultStrategyID = 1

// Normalized trims the base URL and fills the default strategy.
func (c ImgLaCredentials) Normalized() ImgLaCredentials {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	c.Token = strings.TrimSpace(c.Token)
	if c.StrategyID == 0 {
		c.StrategyID = DefaultStrategyID
	}
	return c
}

// Validate rejects credentials that cannot reach an instance.
func (c ImgLaCredentials) Validate() error {
	return validation.New().
		Required("baseUrl", c.BaseURL).
		HTTPURL("baseUrl", c.BaseURL).
		Required("token", c.Token).
		Validate()
}

// UploadResult is what a provider reports for a stored object.
type UploadResult struct {
	Key       string `json:"key"`
	PublicURL string `json:"publicUrl"`
	// RemoteKey is the ImgLa numeric id; zero for S3.
	RemoteKey int64 `json:"remoteKey,omitempty"`
}

// PresignedURL pairs a presigned PUT URL with the object's public URL.
type PresignedURL struct {
	PutURL    string `json:"putUrl"`
	PublicURL string `json:"publicUrl"`
}

// NormalizeEndpoint trims an endpoint and prefixes https:// when it has no
// scheme. Empty stays empty.
func NormalizeEndpoint(endpoint string) string {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return ""
	}
	if !strings.Contains(endpoint, "://") {
		endpoint = "https://" + endpoint
	}
	return endpoint
}

// InferRegion returns region when set, "auto" for Cloudflare R2 endpoints,
// and DefaultRegion otherwise.
func InferRegion(region, endpoint string) string {
	if r := strings.TrimSpace(region); r != "" {
		return r
	}
	if endpoint != "" {
		if u, err := url.Parse(NormalizeEndpoint(endpoint)); err == nil &&
			strings.HasSuffix(strings.ToLower(u.Hostname()), R2HostSuffix) {
			return "auto"
		}
	}
	return DefaultRegion
}
