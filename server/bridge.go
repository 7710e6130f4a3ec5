package server

import (
	"github.com/gin-gonic/gin"

	"github.com/kbukum/imgkit/download"
	"github.com/kbukum/imgkit/errors"
	"github.com/kbukum/imgkit/ledger"
	"github.com/kbukum/imgkit/server/endpoint"
	"github.com/kbukum/imgkit/storage"
	"github.com/kbukum/imgkit/uploader"
)

// Bridge exposes the uploader commands as JSON endpoints for the host app.
type Bridge struct {
	svc     *uploader.Service
	fetcher *download.Fetcher
}

// NewBridge creates a Bridge. fetcher may be nil, which disables the
// download route.
func NewBridge(svc *uploader.Service, fetcher *download.Fetcher) *Bridge {
	return &Bridge{svc: svc, fetcher: fetcher}
}

// RegisterRoutes mounts the command endpoints under /api/v1 and the health
// check at /healthz.
func (s *Server) RegisterRoutes(serviceName string, b *Bridge, checker endpoint.HealthChecker) {
	s.engine.GET("/healthz", endpoint.Health(serviceName, checker))

	v1 := s.engine.Group("/api/v1")

	s3g := v1.Group("/s3")
	s3g.POST("/upload", b.s3Upload)
	s3g.POST("/presign", b.s3Presign)
	s3g.POST("/delete", b.s3Delete)

	img := v1.Group("/imgla")
	img.POST("/upload", b.imglaUpload)
	img.POST("/albums", b.imglaAlbums)
	img.POST("/strategies", b.imglaStrategies)
	img.POST("/images", b.imglaImages)
	img.POST("/delete", b.imglaDelete)

	v1.GET("/history", b.listHistory)
	v1.POST("/history", b.recordHistory)
	v1.DELETE("/history", b.deleteHistory)

	if b.fetcher != nil {
		v1.POST("/download", b.download)
	}
}

type s3UploadRequest struct {
	Credentials storage.Credentials `json:"credentials"`
	Key         string              `json:"key"`
	FileName    string              `json:"fileName"`
	ContentType string              `json:"contentType"`
	Bytes       []byte              `json:"bytes"`
}

type s3PresignRequest struct {
	Credentials storage.Credentials `json:"credentials"`
	Key         string              `json:"key"`
	Expires     int                 `json:"expires"`
}

type s3DeleteRequest struct {
	Credentials storage.Credentials `json:"credentials"`
	Key         string              `json:"key"`
}

type imglaRequest struct {
	Credentials storage.ImgLaCredentials `json:"credentials"`
}

type imglaUploadRequest struct {
	Credentials storage.ImgLaCredentials `json:"credentials"`
	FileName    string                   `json:"fileName"`
	ContentType string                   `json:"contentType"`
	Bytes       []byte                   `json:"bytes"`
	AlbumID     int64                    `json:"albumId"`
}

type imglaImagesRequest struct {
	Credentials storage.ImgLaCredentials `json:"credentials"`
	Page        int                      `json:"page"`
	AlbumID     int64                    `json:"albumId"`
}

type imglaDeleteRequest struct {
	Credentials storage.ImgLaCredentials `json:"credentials"`
	RemoteKey   int64                    `json:"remoteKey"`
}

type downloadRequest struct {
	URL      string `json:"url"`
	UseProxy bool   `json:"useProxy"`
}

type downloadResponse struct {
	Path string `json:"path"`
}

type removedResponse struct {
	Removed int `json:"removed"`
}

// bindJSON decodes the body into v and answers 400 on failure.
func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		RespondWithError(c, errors.InvalidInput("body", err.Error()))
		return false
	}
	return true
}

func (b *Bridge) s3Upload(c *gin.Context) {
	var req s3UploadRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := b.svc.Upload(c.Request.Context(), uploader.UploadRequest{
		Target:      uploader.S3Target(req.Credentials),
		Key:         req.Key,
		FileName:    req.FileName,
		ContentType: req.ContentType,
		Data:        req.Bytes,
	})
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, res)
}

func (b *Bridge) s3Presign(c *gin.Context) {
	var req s3PresignRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := b.svc.Presign(req.Credentials, req.Key, req.Expires)
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, res)
}

func (b *Bridge) s3Delete(c *gin.Context) {
	var req s3DeleteRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := b.svc.Delete(c.Request.Context(), uploader.DeleteRequest{
		Target: uploader.S3Target(req.Credentials),
		Key:    req.Key,
	})
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, res)
}

func (b *Bridge) imglaUpload(c *gin.Context) {
	var req imglaUploadRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := b.svc.Upload(c.Request.Context(), uploader.UploadRequest{
		Target:      uploader.ImgLaTarget(req.Credentials),
		FileName:    req.FileName,
		ContentType: req.ContentType,
		Data:        req.Bytes,
		AlbumID:     req.AlbumID,
	})
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, res)
}

func (b *Bridge) imglaAlbums(c *gin.Context) {
	var req imglaRequest
	if !bindJSON(c, &req) {
		return
	}
	albums, err := b.svc.ListAlbums(c.Request.Context(), req.Credentials)
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, albums)
}

func (b *Bridge) imglaStrategies(c *gin.Context) {
	var req imglaRequest
	if !bindJSON(c, &req) {
		return
	}
	strategies, err := b.svc.ListStrategies(c.Request.Context(), req.Credentials)
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, strategies)
}

func (b *Bridge) imglaImages(c *gin.Context) {
	var req imglaImagesRequest
	if !bindJSON(c, &req) {
		return
	}
	records, err := b.svc.ListImages(c.Request.Context(), req.Credentials, req.Page, req.AlbumID)
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, records)
}

func (b *Bridge) imglaDelete(c *gin.Context) {
	var req imglaDeleteRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := b.svc.Delete(c.Request.Context(), uploader.DeleteRequest{
		Target:    uploader.ImgLaTarget(req.Credentials),
		RemoteKey: req.RemoteKey,
	})
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, res)
}

func (b *Bridge) listHistory(c *gin.Context) {
	var p storage.Provider
	if raw := c.Query("provider"); raw != "" {
		parsed, err := storage.ParseProvider(raw)
		if err != nil {
			RespondWithError(c, err)
			return
		}
		p = parsed
	}
	RespondOK(c, b.svc.History(p))
}

func (b *Bridge) recordHistory(c *gin.Context) {
	var rec ledger.Record
	if !bindJSON(c, &rec) {
		return
	}
	stored, err := b.svc.RecordHistory(rec)
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondCreated(c, stored)
}

func (b *Bridge) deleteHistory(c *gin.Context) {
	var id ledger.Identity
	if !bindJSON(c, &id) {
		return
	}
	removed, err := b.svc.DeleteHistory(id)
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, removedResponse{Removed: removed})
}

func (b *Bridge) download(c *gin.Context) {
	var req downloadRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := b.fetcher.Fetch(c.Request.Context(), req.URL, req.UseProxy)
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, downloadResponse{Path: p})
}
