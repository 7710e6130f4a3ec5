// Package imgla drives ImgLa/Lsky image hosts through their REST API:
// multipart upload, album/strategy/image listings and delete.
//
// Every call is bearer-authenticated. A response whose JSON says
// status:false is a failure whatever its HTTP status.
package imgla

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kbukum/imgkit/errors"
	"github.com/kbukum/imgkit/httpclient"
	"github.com/kbukum/imgkit/logger"
	"github.com/kbukum/imgkit/observability"
	"github.com/kbukum/imgkit/resilience"
	"github.com/kbukum/imgkit/storage"
	"github.com/kbukum/imgkit/validation"
)

const (
	pathUpload     = "/api/v1/upload"
	pathAlbums     = "/api/v1/albums"
	pathStrategies = "/api/v1/strategies"
	pathImages     = "/api/v1/images"

	// DefaultUploadTimeout bounds the multipart upload.
	DefaultUploadTimeout = 40 * time.Second
	// DefaultAPITimeout bounds listing calls.
	DefaultAPITimeout = 20 * time.Second
	// DefaultDeleteTimeout bounds each delete candidate.
	DefaultDeleteTimeout = 20 * time.Second

	defaultFileName    = "image"
	defaultContentType = "application/octet-stream"
)

// Options holds the collaborators of a Client.
type Options struct {
	Logger *logger.Logger
	// Cache shares album and strategy listings between clients. Nil gives
	// the client a private cache.
	Cache *Cache
	// Retry is the dropped-connection policy. Nil uses
	// httpclient.DefaultRetryConfig.
	Retry *resilience.RetryConfig
	// Transport overrides the HTTP transport.
	Transport http.RoundTripper
	// Metrics receives delete attempts. Nil uses observability.Default.
	Metrics *observability.Metrics

	UploadTimeout time.Duration
	APITimeout    time.Duration
	DeleteTimeout time.Duration
}

func (o *Options) applyDefaults() {
	if o.Logger == nil {
		o.Logger = logger.NewNop()
	}
	if o.Cache == nil {
		o.Cache = NewCache(0, 0)
	}
	if o.Retry == nil {
		o.Retry = httpclient.DefaultRetryConfig()
	}
	if o.Metrics == nil {
		o.Metrics = observability.Default()
	}
	if o.UploadTimeout <= 0 {
		o.UploadTimeout = DefaultUploadTimeout
	}
	if o.APITimeout <= 0 {
		o.APITimeout = DefaultAPITimeout
	}
	if o.DeleteTimeout <= 0 {
		o.DeleteTimeout = DefaultDeleteTimeout
	}
}

// Client is bound to one instance and token.
type Client struct {
	creds storage.ImgLaCredentials
	http  *httpclient.Client
	opts  Options
	log   *logger.Logger
}

// New validates creds and builds the HTTP client. No request is sent.
func New(creds storage.ImgLaCredentials, opts Options) (*Client, error) {
	creds = creds.Normalized()
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	opts.applyDefaults()

	hc, err := httpclient.New(httpclient.Config{
		BaseURL:   creds.BaseURL,
		Timeout:   opts.APITimeout,
		Auth:      httpclient.BearerAuth(creds.Token),
		Headers:   map[string]string{"Accept": "application/json"},
		Retry:     opts.Retry,
		Transport: opts.Transport,
	})
	if err != nil {
		return nil, errors.Internal(err)
	}

	return &Client{
		creds: creds,
		http:  hc,
		opts:  opts,
		log: opts.Logger.WithComponent("imgla").WithFields(logger.Fields(
			logger.FieldEndpoint, creds.BaseURL,
		)),
	}, nil
}

// Credentials returns the normalized credentials.
func (c *Client) Credentials() storage.ImgLaCredentials { return c.creds }

// UploadRequest is one file to upload.
type UploadRequest struct {
	FileName    string
	ContentType string
	Data        []byte
	// AlbumID overrides the credentials' album when non-zero.
	AlbumID int64
}

// Upload posts the file as multipart form data. The returned key is the
// remote pathname, or the numeric key when no pathname is reported.
func (c *Client) Upload(ctx context.Context, req UploadRequest) (storage.UploadResult, error) {
	if err := validation.New().NotEmpty("bytes", req.Data).Validate(); err != nil {
		return storage.UploadResult{}, err
	}
	const op = "imgla upload"

	fileName := strings.TrimSpace(req.FileName)
	if fileName == "" {
		fileName = defaultFileName
	}
	contentType := strings.TrimSpace(req.ContentType)
	if contentType == "" {
		contentType = defaultContentType
	}
	albumID := req.AlbumID
	if albumID == 0 {
		albumID = c.creds.AlbumID
	}

	form := &httpclient.MultipartBody{
		Files: []httpclient.FileField{{
			FieldName:   "file",
			FileName:    fileName,
			ContentType: contentType,
			Data:        req.Data,
		}},
	}
	form.AddField("strategy_id", strconv.FormatInt(c.creds.StrategyID, 10))
	form.AddField("permission", "0")
	if albumID != 0 {
		form.AddField("album_id", strconv.FormatInt(albumID, 10))
	}

	resp, err := httpclient.Post[envelope](c.http, ctx, pathUpload, form,
		httpclient.WithTimeout(c.opts.UploadTimeout))
	payload, err := unwrap(op, resp, err)
	if err != nil {
		return storage.UploadResult{}, err
	}

	var data uploadData
	if err := json.Unmarshal(payload, &data); err != nil {
		return storage.UploadResult{}, errors.DataIntegrity(op, "unexpected data shape")
	}
	publicURL := strings.TrimSpace(data.Links.URL)
	remoteKey := int64(data.Key)
	if publicURL == "" || remoteKey == 0 {
		return storage.UploadResult{}, errors.DataIntegrity(op, "missing url or key")
	}

	key := strings.TrimSpace(data.Pathname)
	if key == "" {
		key = strconv.FormatInt(remoteKey, 10)
	}
	c.log.Debug("image uploaded", logger.Fields(
		logger.FieldKey, key,
		"remote_key", remoteKey,
		"size", len(req.Data),
	))
	return storage.UploadResult{Key: key, PublicURL: publicURL, RemoteKey: remoteKey}, nil
}

// ListAlbums returns the token owner's albums. Results are cached.
func (c *Client) ListAlbums(ctx context.Context) ([]Album, error) {
	key := cacheKey(c.creds.BaseURL, c.creds.Token)
	if albums, ok := c.opts.Cache.albums.Get(key); ok {
		return albums, nil
	}

	resp, err := httpclient.Get[envelope](c.http, ctx, pathAlbums)
	payload, err := unwrap("imgla list albums", resp, err)
	if err != nil {
		return nil, err
	}
	var data albumsData
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, errors.DataIntegrity("imgla list albums", "unexpected data shape")
	}
	albums := data.Data
	if albums == nil {
		albums = []Album{}
	}
	c.opts.Cache.albums.Add(key, albums)
	return albums, nil
}

// ListStrategies returns the instance's storage strategies. Results are
// cached.
func (c *Client) ListStrategies(ctx context.Context) ([]Strategy, error) {
	key := cacheKey(c.creds.BaseURL, c.creds.Token)
	if strategies, ok := c.opts.Cache.strategies.Get(key); ok {
		return strategies, nil
	}

	resp, err := httpclient.Get[envelope](c.http, ctx, pathStrategies)
	payload, err := unwrap("imgla list strategies", resp, err)
	if err != nil {
		return nil, err
	}
	var data strategiesData
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, errors.DataIntegrity("imgla list strategies", "unexpected data shape")
	}
	strategies := data.Strategies
	if strategies == nil {
		strategies = []Strategy{}
	}
	c.opts.Cache.strategies.Add(key, strategies)
	return strategies, nil
}

// ListImages returns one page of images, optionally limited to an album.
// Pages start at 1.
func (c *Client) ListImages(ctx context.Context, page int, albumID int64) ([]Image, error) {
	if page < 1 {
		page = 1
	}
	opts := []httpclient.RequestOption{httpclient.WithQueryParam("page", strconv.Itoa(page))}
	if albumID > 0 {
		opts = append(opts, httpclient.WithQueryParam("album_id", strconv.FormatInt(albumID, 10)))
	}

	resp, err := httpclient.Get[envelope](c.http, ctx, pathImages, opts...)
	payload, err := unwrap("imgla list images", resp, err)
	if err != nil {
		return nil, err
	}
	var data imagesData
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, errors.DataIntegrity("imgla list images", "unexpected data shape")
	}
	if data.Data == nil {
		return []Image{}, nil
	}
	return data.Data, nil
}

// unwrap turns a typed response into its payload. An explicit status:false
// wins over the HTTP status; a 2xx body that is not a JSON object is a
// protocol error.
func unwrap(op string, resp *httpclient.TypedResponse[envelope], err error) (json.RawMessage, error) {
	if resp == nil {
		return nil, storage.HTTPError(op, err)
	}
	if resp.Decoded && resp.Data.failed() {
		return nil, errors.Protocol(op, resp.StatusCode, resp.Data.reason())
	}
	if !resp.Decoded && resp.IsSuccess() {
		return nil, errors.Protocol(op, resp.StatusCode, "response is not JSON: "+storage.BodyReason(resp.Raw))
	}
	if err != nil {
		return nil, storage.HTTPError(op, err)
	}
	if payload := resp.Data.payload(); len(payload) > 0 && string(payload) != "null" {
		return payload, nil
	}
	// Unwrapped responses carry the fields at the top level.
	return resp.Raw, nil
}
