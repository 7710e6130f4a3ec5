package imgla

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/kbukum/imgkit/ledger"
	"github.com/kbukum/imgkit/storage"
)

// Album is an ImgLa album.
type Album struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Intro    string `json:"intro,omitempty"`
	ImageNum int64  `json:"image_num,omitempty"`
}

// Strategy is a storage strategy configured on the instance.
type Strategy struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Image is one entry of the remote image listing. Size is reported in KiB.
type Image struct {
	Key        flexInt   `json:"key"`
	Name       string    `json:"name"`
	Pathname   string    `json:"pathname"`
	OriginName string    `json:"origin_name"`
	Size       flexFloat `json:"size"`
	Mimetype   string    `json:"mimetype"`
	Date       string    `json:"date"`
	Links      links     `json:"links"`
}

// RemoteKey returns the image's numeric id.
func (img Image) RemoteKey() int64 { return int64(img.Key) }

// URL returns the image's public URL.
func (img Image) URL() string { return strings.TrimSpace(img.Links.URL) }

// Record maps the image onto the ledger shape so remote and local listings
// render the same way.
func (img Image) Record(albumID int64) ledger.Record {
	key := strings.TrimSpace(img.Pathname)
	if key == "" {
		key = strconv.FormatInt(img.RemoteKey(), 10)
	}
	name := img.OriginName
	if name == "" {
		name = img.Name
	}
	return ledger.Record{
		ID:          "imgla-" + strconv.FormatInt(img.RemoteKey(), 10),
		Bucket:      storage.ImgLaBucket,
		Key:         key,
		PublicURL:   img.URL(),
		UploadedAt:  isoDate(img.Date),
		FileName:    name,
		ContentType: img.Mimetype,
		Size:        int64(math.Round(float64(img.Size) * 1024)),
		Provider:    storage.ProviderImgLa,
		RemoteKey:   img.RemoteKey(),
		AlbumID:     albumID,
	}
}

type links struct {
	URL string `json:"url"`
}

// envelope is the common response wrapper. Some deployments nest the
// payload under "result" instead of "data".
type envelope struct {
	Status  *bool           `json:"status"`
	Message string          `json:"message"`
	Code    json.RawMessage `json:"code,omitempty"`
	Data    json.RawMessage `json:"data"`
	Result  json.RawMessage `json:"result"`
}

func (e envelope) payload() json.RawMessage {
	if len(e.Data) > 0 && string(e.Data) != "null" {
		return e.Data
	}
	return e.Result
}

// failed reports an explicit status:false.
func (e envelope) failed() bool {
	return e.Status != nil && !*e.Status
}

func (e envelope) reason() string {
	msg := strings.TrimSpace(e.Message)
	code := strings.Trim(string(e.Code), `"`)
	switch {
	case msg != "" && code != "" && code != "null":
		return msg + " (code " + code + ")"
	case msg != "":
		return msg
	case code != "" && code != "null":
		return "code " + code
	default:
		return "status false"
	}
}

type uploadData struct {
	Key      flexInt `json:"key"`
	Pathname string  `json:"pathname"`
	Links    links   `json:"links"`
}

type albumsData struct {
	Data []Album `json:"data"`
}

type strategiesData struct {
	Strategies []Strategy `json:"strategies"`
}

type imagesData struct {
	CurrentPage int     `json:"current_page"`
	LastPage    int     `json:"last_page"`
	Data        []Image `json:"data"`
}

// flexInt accepts a JSON number or a numeric string. Anything else decodes
// to zero.
type flexInt int64

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		*f = flexInt(n)
		return nil
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil && v == math.Trunc(v) {
		*f = flexInt(int64(v))
		return nil
	}
	*f = 0
	return nil
}

type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexFloat(v)
	return nil
}

const lskyDateLayout = "2006-01-02 15:04:05"

// isoDate converts the listing's local "Y-m-d H:i:s" date to RFC 3339.
func isoDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC().Format(time.RFC3339)
	}
	if t, err := time.ParseInLocation(lskyDateLayout, s, time.Local); err == nil {
		return t.UTC().Format(time.RFC3339)
	}
	return s
}
