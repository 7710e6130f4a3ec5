package ledger

import (
	"github.com/google/uuid"

	"github.com/kbukum/imgkit/storage"
)

// Record is one uploaded image. Field names are part of the on-disk format
// and only ever grow.
type Record struct {
	ID          string           `json:"id"`
	Bucket      string           `json:"bucket"`
	Key         string           `json:"key"`
	PublicURL   string           `json:"public_url"`
	UploadedAt  string           `json:"uploaded_at"`
	FileName    string           `json:"file_name,omitempty"`
	ContentType string           `json:"content_type,omitempty"`
	Size        int64            `json:"size,omitempty"`
	Provider    storage.Provider `json:"provider,omitempty"`
	RemoteKey   int64            `json:"remote_key,omitempty"`
	AlbumID     int64            `json:"album_id,omitempty"`
}

// IsImgLa reports whether r belongs to ImgLa. Records written before the
// provider tag existed are recognized by their bucket.
func (r Record) IsImgLa() bool {
	switch r.Provider {
	case storage.ProviderImgLa:
		return true
	case "":
		return r.Bucket == storage.ImgLaBucket
	default:
		return false
	}
}

// Identity returns the dedup identity of r.
func (r Record) Identity() Identity {
	if r.IsImgLa() && r.RemoteKey != 0 {
		return Identity{Provider: storage.ProviderImgLa, RemoteKey: r.RemoteKey}
	}
	return Identity{
		Provider:  storage.ProviderS3Compatible,
		Bucket:    r.Bucket,
		Key:       r.Key,
		PublicURL: r.PublicURL,
	}
}

// Identity selects ledger entries. ImgLa entries are matched by RemoteKey,
// S3 entries by Bucket and Key, plus PublicURL when it is set.
type Identity struct {
	Provider  storage.Provider `json:"provider,omitempty"`
	Bucket    string           `json:"bucket,omitempty"`
	Key       string           `json:"key,omitempty"`
	PublicURL string           `json:"public_url,omitempty"`
	RemoteKey int64            `json:"remote_key,omitempty"`
}

// isImgLa applies the same legacy bucket rule as Record.IsImgLa.
func (id Identity) isImgLa() bool {
	if id.Provider == storage.ProviderImgLa {
		return true
	}
	return id.Provider == "" && id.Bucket == storage.ImgLaBucket
}

// Matches reports whether r is selected by id.
func (id Identity) Matches(r Record) bool {
	if id.isImgLa() && id.RemoteKey != 0 {
		return r.IsImgLa() && r.RemoteKey == id.RemoteKey
	}
	if r.Bucket != id.Bucket || r.Key != id.Key {
		return false
	}
	return id.PublicURL == "" || r.PublicURL == id.PublicURL
}

// NewID returns a fresh record id. ImgLa ids carry an "imgla-" prefix.
func NewID(p storage.Provider) string {
	if p == storage.ProviderImgLa {
		return "imgla-" + uuid.NewString()
	}
	return uuid.NewString()
}

// ForProvider filters records for a gallery view. The S3 view hides ImgLa
// records, including untagged legacy ones. An empty provider keeps all.
func ForProvider(records []Record, p storage.Provider) []Record {
	if p == "" {
		return records
	}
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if r.IsImgLa() == (p == storage.ProviderImgLa) {
			out = append(out, r)
		}
	}
	return out
}
