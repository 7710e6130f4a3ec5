// Package uploader is the command facade over the storage providers. It
// picks the provider for each call, runs the work on a bounded worker pool
// and keeps the upload ledger in step with remote state.
package uploader

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/imgkit/errors"
	"github.com/kbukum/imgkit/ledger"
	"github.com/kbukum/imgkit/logger"
	"github.com/kbukum/imgkit/observability"
	"github.com/kbukum/imgkit/resilience"
	"github.com/kbukum/imgkit/storage"
	"github.com/kbukum/imgkit/storage/imgla"
	"github.com/kbukum/imgkit/storage/s3"
	"github.com/kbukum/imgkit/storage/sigv4"
	"github.com/kbukum/imgkit/validation"
	"github.com/kbukum/imgkit/worker"
)

// Options configures a Service. Zero values get defaults.
type Options struct {
	Logger      *logger.Logger
	Pool        *worker.Pool
	Cache       *imgla.Cache
	Presigner   *sigv4.Presigner
	KeyTemplate string
	// Retry is the dropped-connection policy for provider HTTP calls.
	Retry *resilience.RetryConfig
	// Clock stamps key templates and records.
	Clock func() time.Time

	UploadTimeout time.Duration
	APITimeout    time.Duration
	DeleteTimeout time.Duration
	// S3MaxAttempts caps the AWS SDK's own retries. Zero keeps its default.
	S3MaxAttempts int
}

// Service implements the upload, presign, delete, listing and history
// commands.
type Service struct {
	ledger *ledger.Ledger
	opts   Options
	log    *logger.Logger
}

// New creates a Service writing history to l.
func New(l *ledger.Ledger, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	if opts.Pool == nil {
		opts.Pool = worker.NewPool(worker.DefaultSize)
	}
	if opts.Cache == nil {
		opts.Cache = imgla.NewCache(0, 0)
	}
	if opts.Presigner == nil {
		opts.Presigner = sigv4.New()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Service{
		ledger: l,
		opts:   opts,
		log:    opts.Logger.WithComponent("uploader"),
	}
}

// Ledger returns the history the service writes to.
func (s *Service) Ledger() *ledger.Ledger { return s.ledger }

// Upload stores the file with the target's provider and records it in the
// ledger. A ledger write failure is logged; the upload itself stands.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (UploadResult, error) {
	if err := req.Target.validate(); err != nil {
		return UploadResult{}, err
	}
	if err := validation.Validate(req); err != nil {
		return UploadResult{}, err
	}

	return worker.Do(ctx, s.opts.Pool, func(ctx context.Context) (UploadResult, error) {
		ctx, done := observability.Track(ctx, string(req.Target.Provider), "upload",
			attribute.Int("imgkit.size", len(req.Data)))
		res, err := s.upload(ctx, req)
		done(err)
		if err != nil {
			s.log.Error("upload failed", logger.Fields(
				logger.FieldProvider, string(req.Target.Provider),
				logger.FieldError, errors.Message(err),
			))
			return UploadResult{}, err
		}
		observability.Default().RecordUploadBytes(ctx, string(req.Target.Provider), int64(len(req.Data)))
		return res, nil
	})
}

func (s *Service) upload(ctx context.Context, req UploadRequest) (UploadResult, error) {
	contentType := strings.TrimSpace(req.ContentType)
	if contentType == "" {
		contentType = DetectContentType(req.Data)
	}

	rec := ledger.Record{
		FileName:    req.FileName,
		ContentType: contentType,
		Size:        int64(len(req.Data)),
		Provider:    req.Target.Provider,
		UploadedAt:  s.opts.Clock().UTC().Format(time.RFC3339Nano),
	}

	var out storage.UploadResult
	switch req.Target.Provider {
	case storage.ProviderS3Compatible:
		client, err := s.s3Client(ctx, *req.Target.S3)
		if err != nil {
			return UploadResult{}, err
		}
		key := strings.TrimSpace(req.Key)
		if key == "" {
			key = s.renderKey(req.FileName, contentType, req.Data)
		}
		out, err = client.Put(ctx, key, req.Data, contentType)
		if err != nil {
			return UploadResult{}, err
		}
		rec.Bucket = client.Credentials().Bucket

	case storage.ProviderImgLa:
		client, err := s.imglaClient(*req.Target.ImgLa)
		if err != nil {
			return UploadResult{}, err
		}
		out, err = client.Upload(ctx, imgla.UploadRequest{
			FileName:    req.FileName,
			ContentType: contentType,
			Data:        req.Data,
			AlbumID:     req.AlbumID,
		})
		if err != nil {
			return UploadResult{}, err
		}
		rec.Bucket = storage.ImgLaBucket
		rec.RemoteKey = out.RemoteKey
		rec.AlbumID = req.AlbumID
		if rec.AlbumID == 0 {
			rec.AlbumID = client.Credentials().AlbumID
		}
	}

	rec.Key = out.Key
	rec.PublicURL = out.PublicURL
	stored, err := s.ledger.Record(rec)
	if err != nil {
		s.log.Warn("upload not recorded in history", logger.Fields(
			logger.FieldKey, out.Key,
			logger.FieldError, errors.Message(err),
		))
		stored = rec
	}

	s.log.Info("uploaded", logger.Fields(
		logger.FieldProvider, string(req.Target.Provider),
		logger.FieldKey, out.Key,
		"public_url", out.PublicURL,
	))
	return UploadResult{
		Key:       out.Key,
		PublicURL: out.PublicURL,
		RemoteKey: out.RemoteKey,
		Record:    stored,
	}, nil
}

func (s *Service) renderKey(fileName, contentType string, data []byte) string {
	return RenderKey(s.opts.KeyTemplate, KeyInput{
		FileName:    fileName,
		ContentType: contentType,
		Data:        data,
		Now:         s.opts.Clock(),
	})
}

// Presign signs a PUT for key. It sends nothing.
func (s *Service) Presign(creds storage.Credentials, key string, expires int) (storage.PresignedURL, error) {
	return s3.Presign(s.opts.Presigner, creds, key, expires)
}

// Delete removes the object remotely and, once the provider confirms, drops
// the matching ledger entries.
func (s *Service) Delete(ctx context.Context, req DeleteRequest) (DeleteResult, error) {
	if err := req.Target.validate(); err != nil {
		return DeleteResult{}, err
	}

	return worker.Do(ctx, s.opts.Pool, func(ctx context.Context) (DeleteResult, error) {
		ctx, done := observability.Track(ctx, string(req.Target.Provider), "delete")
		res, err := s.delete(ctx, req)
		done(err)
		if err != nil {
			s.log.Error("delete failed", logger.Fields(
				logger.FieldProvider, string(req.Target.Provider),
				logger.FieldError, errors.Message(err),
			))
		}
		return res, err
	})
}

func (s *Service) delete(ctx context.Context, req DeleteRequest) (DeleteResult, error) {
	var (
		res DeleteResult
		id  ledger.Identity
	)
	switch req.Target.Provider {
	case storage.ProviderS3Compatible:
		client, err := s.s3Client(ctx, *req.Target.S3)
		if err != nil {
			return res, err
		}
		if err := client.Delete(ctx, req.Key); err != nil {
			return res, err
		}
		id = ledger.Identity{Provider: storage.ProviderS3Compatible, Bucket: client.Credentials().Bucket, Key: req.Key}

	case storage.ProviderImgLa:
		client, err := s.imglaClient(*req.Target.ImgLa)
		if err != nil {
			return res, err
		}
		endpoint, err := client.Delete(ctx, req.RemoteKey)
		if err != nil {
			return res, err
		}
		res.Endpoint = endpoint
		id = ledger.Identity{Provider: storage.ProviderImgLa, RemoteKey: req.RemoteKey}
	}

	removed, err := s.ledger.Delete(id)
	if err != nil {
		return res, err
	}
	res.Removed = removed
	return res, nil
}

// History lists recorded uploads newest first. A provider narrows the view;
// the S3 view never shows ImgLa records.
func (s *Service) History(p storage.Provider) []ledger.Record {
	return ledger.ForProvider(s.ledger.List(), p)
}

// RecordHistory adds r to the ledger directly.
func (s *Service) RecordHistory(r ledger.Record) (ledger.Record, error) {
	if err := validation.New().
		Required("bucket", r.Bucket).
		Required("key", r.Key).
		Required("public_url", r.PublicURL).
		Validate(); err != nil {
		return ledger.Record{}, err
	}
	return s.ledger.Record(r)
}

// DeleteHistory removes ledger entries without touching the provider. Only
// ImgLa records carry a remote key, so a remote key without a provider
// targets ImgLa.
func (s *Service) DeleteHistory(id ledger.Identity) (int, error) {
	if id.RemoteKey == 0 && (id.Bucket == "" || id.Key == "") {
		return 0, errors.Validation("either remote_key or bucket and key are required")
	}
	if id.RemoteKey != 0 && id.Provider == "" {
		id.Provider = storage.ProviderImgLa
	}
	return s.ledger.Delete(id)
}

// ListAlbums returns the ImgLa albums visible to the token.
func (s *Service) ListAlbums(ctx context.Context, creds storage.ImgLaCredentials) ([]imgla.Album, error) {
	return runImgLa(ctx, s, creds, "list_albums", func(ctx context.Context, c *imgla.Client) ([]imgla.Album, error) {
		return c.ListAlbums(ctx)
	})
}

// ListStrategies returns the ImgLa storage strategies.
func (s *Service) ListStrategies(ctx context.Context, creds storage.ImgLaCredentials) ([]imgla.Strategy, error) {
	return runImgLa(ctx, s, creds, "list_strategies", func(ctx context.Context, c *imgla.Client) ([]imgla.Strategy, error) {
		return c.ListStrategies(ctx)
	})
}

// ListImages returns one page of remote ImgLa images as ledger records.
func (s *Service) ListImages(ctx context.Context, creds storage.ImgLaCredentials, page int, albumID int64) ([]ledger.Record, error) {
	return runImgLa(ctx, s, creds, "list_images", func(ctx context.Context, c *imgla.Client) ([]ledger.Record, error) {
		images, err := c.ListImages(ctx, page, albumID)
		if err != nil {
			return nil, err
		}
		records := make([]ledger.Record, len(images))
		for i, img := range images {
			records[i] = img.Record(albumID)
		}
		return records, nil
	})
}

func runImgLa[T any](ctx context.Context, s *Service, creds storage.ImgLaCredentials, op string, fn func(context.Context, *imgla.Client) (T, error)) (T, error) {
	client, err := s.imglaClient(creds)
	if err != nil {
		var zero T
		return zero, err
	}
	return worker.Do(ctx, s.opts.Pool, func(ctx context.Context) (T, error) {
		ctx, done := observability.Track(ctx, string(storage.ProviderImgLa), op)
		v, err := fn(ctx, client)
		done(err)
		return v, err
	})
}

func (s *Service) s3Client(ctx context.Context, creds storage.Credentials) (*s3.Client, error) {
	return s3.New(ctx, creds, s3.Options{
		Logger:         s.opts.Logger,
		Presigner:      s.opts.Presigner,
		SDKMaxAttempts: s.opts.S3MaxAttempts,
		UploadTimeout:  s.opts.UploadTimeout,
		DeleteTimeout:  s.opts.DeleteTimeout,
		Retry:          s.opts.Retry,
	})
}

func (s *Service) imglaClient(creds storage.ImgLaCredentials) (*imgla.Client, error) {
	return imgla.New(creds, imgla.Options{
		Logger:        s.opts.Logger,
		Cache:         s.opts.Cache,
		Retry:         s.opts.Retry,
		UploadTimeout: s.opts.UploadTimeout,
		APITimeout:    s.opts.APITimeout,
		DeleteTimeout: s.opts.DeleteTimeout,
	})
}
