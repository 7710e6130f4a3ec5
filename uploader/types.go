package uploader

import (
	"github.com/kbukum/imgkit/errors"
	"github.com/kbukum/imgkit/ledger"
	"github.com/kbukum/imgkit/storage"
)

// Target selects a provider and carries its credentials. Exactly one of S3
// and ImgLa must be set, matching Provider.
type Target struct {
	Provider storage.Provider          `json:"provider"`
	S3       *storage.Credentials      `json:"s3,omitempty"`
	ImgLa    *storage.ImgLaCredentials `json:"imgla,omitempty"`
}

// S3Target targets an S3-compatible bucket.
func S3Target(c storage.Credentials) Target {
	return Target{Provider: storage.ProviderS3Compatible, S3: &c}
}

// ImgLaTarget targets an ImgLa instance.
func ImgLaTarget(c storage.ImgLaCredentials) Target {
	return Target{Provider: storage.ProviderImgLa, ImgLa: &c}
}

func (t Target) validate() error {
	switch t.Provider {
	case storage.ProviderS3Compatible:
		if t.S3 == nil {
			return errors.MissingField("s3")
		}
	case storage.ProviderImgLa:
		if t.ImgLa == nil {
			return errors.MissingField("imgla")
		}
	default:
		_, err := storage.ParseProvider(string(t.Provider))
		if err != nil {
			return err
		}
		return errors.InvalidInput("provider", "provider must be normalized")
	}
	return nil
}

// UploadRequest is one file to store.
type UploadRequest struct {
	Target Target `json:"target"`
	// Key is the object key for S3 targets. Empty renders the key template.
	Key         string `json:"key,omitempty"`
	FileName    string `json:"fileName,omitempty"`
	ContentType string `json:"contentType,omitempty"`
	Data        []byte `json:"bytes" validate:"required,min=1"`
	// AlbumID overrides the ImgLa album.
	AlbumID int64 `json:"albumId,omitempty" validate:"gte=0"`
}

// UploadResult is what the upload command returns.
type UploadResult struct {
	Key       string `json:"key"`
	PublicURL string `json:"publicUrl"`
	RemoteKey int64  `json:"remoteKey,omitempty"`
	// Record is the ledger entry written for the upload.
	Record ledger.Record `json:"record"`
}

// DeleteRequest identifies a remote object.
type DeleteRequest struct {
	Target Target `json:"target"`
	// Key is the S3 object key.
	Key string `json:"key,omitempty"`
	// RemoteKey is the ImgLa image id.
	RemoteKey int64 `json:"remoteKey,omitempty"`
}

// DeleteResult reports a confirmed remote delete.
type DeleteResult struct {
	// Endpoint names the API shape that confirmed an ImgLa delete.
	Endpoint string `json:"endpoint,omitempty"`
	// Removed counts ledger entries dropped afterwards.
	Removed int `json:"removed"`
}
