// Package s3 uploads to and deletes from S3-compatible buckets with static
// credentials. Direct PUTs go through the AWS SDK; when one fails the object
// is sent again through a presigned PUT URL.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/kbukum/imgkit/errors"
	"github.com/kbukum/imgkit/httpclient"
	"github.com/kbukum/imgkit/logger"
	"github.com/kbukum/imgkit/storage"
	"github.com/kbukum/imgkit/storage/s3url"
	"github.com/kbukum/imgkit/storage/sigv4"
	"github.com/kbukum/imgkit/validation"
)

// Client talks to one bucket.
type Client struct {
	creds storage.Credentials
	api   *awss3.Client
	opts  Options
	log   *logger.Logger
}

// New validates creds and builds the SDK client. No request is sent.
func New(ctx context.Context, creds storage.Credentials, opts Options) (*Client, error) {
	creds = creds.Normalized()
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	if err := opts.ApplyDefaults(); err != nil {
		return nil, err
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(creds.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(creds.AccessKeyID, creds.SecretAccessKey, ""),
		),
		// Credentials come from the caller only.
		awsconfig.WithSharedConfigFiles([]string{}),
		awsconfig.WithSharedCredentialsFiles([]string{}),
	}
	if opts.SDKHTTPClient != nil {
		loadOpts = append(loadOpts, awsconfig.WithHTTPClient(opts.SDKHTTPClient))
	}
	if opts.SDKMaxAttempts > 0 {
		loadOpts = append(loadOpts, awsconfig.WithRetryMaxAttempts(opts.SDKMaxAttempts))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("load aws config: %w", err))
	}

	api := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if creds.Endpoint != "" {
			o.BaseEndpoint = aws.String(creds.Endpoint)
		}
		o.UsePathStyle = creds.PathStyle()
	})

	return &Client{
		creds: creds,
		api:   api,
		opts:  opts,
		log: opts.Logger.WithComponent("s3").WithFields(logger.Fields(
			logger.FieldBucket, creds.Bucket,
			logger.FieldEndpoint, creds.Endpoint,
		)),
	}, nil
}

// Credentials returns the normalized credentials the client was built with.
func (c *Client) Credentials() storage.Credentials { return c.creds }

// PublicURL returns the public URL of key in this bucket.
func (c *Client) PublicURL(key string) string {
	return s3url.PublicURL(c.creds.Target(), key)
}

// Put stores data under key. The public-read ACL is requested unless the
// credentials turn it off. If the SDK PUT fails the object is retried once
// through a presigned URL.
func (c *Client) Put(ctx context.Context, key string, data []byte, contentType string) (storage.UploadResult, error) {
	if err := validation.New().
		Required("key", key).
		NotEmpty("bytes", data).
		Validate(); err != nil {
		return storage.UploadResult{}, err
	}

	directErr := c.putDirect(ctx, key, data, contentType)
	if directErr == nil {
		c.log.Debug("object stored", logger.Fields(logger.FieldKey, key, "size", len(data)))
		return storage.UploadResult{Key: key, PublicURL: c.PublicURL(key)}, nil
	}

	c.log.Warn("direct put failed, retrying with presigned url", logger.Fields(
		logger.FieldKey, key,
		logger.FieldError, errors.Message(directErr),
	))

	res, presignErr := c.putPresigned(ctx, key, data, contentType)
	if presignErr != nil {
		return storage.UploadResult{}, bothFailed(directErr, presignErr)
	}
	c.log.Debug("object stored through presigned url", logger.Fields(logger.FieldKey, key))
	return res, nil
}

func (c *Client) putDirect(ctx context.Context, key string, data []byte, contentType string) error {
	ctx, cancel := context.WithTimeout(ctx, c.opts.UploadTimeout)
	defer cancel()

	input := &awss3.PutObjectInput{
		Bucket:        aws.String(c.creds.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if c.creds.PublicRead() {
		input.ACL = types.ObjectCannedACLPublicRead
	}

	_, err := c.api.PutObject(ctx, input)
	return mapError("s3 put", err)
}

func (c *Client) putPresigned(ctx context.Context, key string, data []byte, contentType string) (storage.UploadResult, error) {
	signed, err := Presign(c.opts.Presigner, c.creds, key, storage.DefaultPresignExpiry)
	if err != nil {
		return storage.UploadResult{}, err
	}

	req := httpclient.Request{
		Method:  "PUT",
		Path:    signed.PutURL,
		Body:    data,
		Auth:    httpclient.NoAuth(),
		Timeout: c.opts.UploadTimeout,
	}
	if contentType != "" {
		req.Headers = map[string]string{"Content-Type": contentType}
	}
	if _, err := c.opts.HTTP.Do(ctx, req); err != nil {
		return storage.UploadResult{}, storage.HTTPError("presigned put", err)
	}
	return storage.UploadResult{Key: key, PublicURL: signed.PublicURL}, nil
}

// Delete removes key from the bucket.
func (c *Client) Delete(ctx context.Context, key string) error {
	if err := validation.New().Required("key", key).Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.DeleteTimeout)
	defer cancel()

	_, err := c.api.DeleteObject(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(c.creds.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return mapError("s3 delete", err)
	}
	c.log.Debug("object deleted", logger.Fields(logger.FieldKey, key))
	return nil
}

// Presign signs a PUT for key without sending anything.
func (c *Client) Presign(key string, expires int) (storage.PresignedURL, error) {
	return Presign(c.opts.Presigner, c.creds, key, expires)
}

// Presign returns a presigned PUT URL and the object's public URL. Both use
// the same addressing mode and custom-domain override.
func Presign(p *sigv4.Presigner, creds storage.Credentials, key string, expires int) (storage.PresignedURL, error) {
	creds = creds.Normalized()
	if err := creds.Validate(); err != nil {
		return storage.PresignedURL{}, err
	}
	if p == nil {
		p = sigv4.New()
	}
	putURL, err := p.Presign(sigv4.RequestFor(creds, key, expires))
	if err != nil {
		return storage.PresignedURL{}, err
	}
	return storage.PresignedURL{
		PutURL:    putURL,
		PublicURL: s3url.PublicURL(creds.Target(), key),
	}, nil
}

// bothFailed reports a direct PUT and its presigned retry in one error
// carrying the code of the last failure.
func bothFailed(direct, presigned error) error {
	code := errors.ErrCodeInternal
	status := http.StatusInternalServerError
	if appErr, ok := errors.AsAppError(presigned); ok {
		code = appErr.Code
		status = appErr.HTTPStatus
	}
	return errors.New(code, fmt.Sprintf("upload failed: direct put: %s; presigned put: %s",
		errors.Message(direct), errors.Message(presigned)), status)
}
