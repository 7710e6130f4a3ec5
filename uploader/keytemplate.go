package uploader

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultKeyTemplate places objects under year and month, followed by the
// file's base name and content hash.
const DefaultKeyTemplate = "{year}/{month}{fileName}{md5}.{extName}"

const fallbackExt = "png"

var nameExt = regexp.MustCompile(`\.([a-z0-9]+)$`)

// contentTypeExts maps content-type fragments to extensions, checked in order.
var contentTypeExts = []struct{ fragment, ext string }{
	{"jpeg", "jpg"},
	{"png", "png"},
	{"gif", "gif"},
	{"webp", "webp"},
	{"bmp", "bmp"},
	{"avif", "avif"},
	{"svg", "svg"},
}

// KeyInput is what a key template can refer to.
type KeyInput struct {
	FileName    string
	ContentType string
	Data        []byte
	// Now is rendered in its own location.
	Now time.Time
}

// RenderKey expands template. Supported placeholders are {year} {month}
// {day} {hour} {minute} {second} {fileName} {extName} and {md5}; unknown
// ones are left as is. Leading slashes are stripped. An empty template uses
// DefaultKeyTemplate.
func RenderKey(template string, in KeyInput) string {
	if strings.TrimSpace(template) == "" {
		template = DefaultKeyTemplate
	}
	sum := md5.Sum(in.Data)
	now := in.Now

	r := strings.NewReplacer(
		"{year}", fmt.Sprintf("%04d", now.Year()),
		"{month}", fmt.Sprintf("%02d", int(now.Month())),
		"{day}", fmt.Sprintf("%02d", now.Day()),
		"{hour}", fmt.Sprintf("%02d", now.Hour()),
		"{minute}", fmt.Sprintf("%02d", now.Minute()),
		"{second}", fmt.Sprintf("%02d", now.Second()),
		"{fileName}", baseNameNoExt(in.FileName),
		"{extName}", ExtName(in.FileName, in.ContentType, in.Data),
		"{md5}", hex.EncodeToString(sum[:]),
	)
	return strings.TrimLeft(r.Replace(template), "/")
}

// ExtName picks the key extension: the file name's own extension, then one
// implied by the content type, then one sniffed from the bytes, then png.
func ExtName(fileName, contentType string, data []byte) string {
	if m := nameExt.FindStringSubmatch(strings.ToLower(fileName)); m != nil {
		return m[1]
	}
	ct := strings.ToLower(contentType)
	for _, e := range contentTypeExts {
		if strings.Contains(ct, e.fragment) {
			return e.ext
		}
	}
	if len(data) > 0 {
		if ext := strings.TrimPrefix(mimetype.Detect(data).Extension(), "."); ext != "" {
			return ext
		}
	}
	return fallbackExt
}

// DetectContentType sniffs the MIME type of data.
func DetectContentType(data []byte) string {
	return mimetype.Detect(data).String()
}

// baseNameNoExt strips directories (either separator) and one extension.
func baseNameNoExt(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	base := path.Base(name)
	if base == "." || base == "/" {
		return ""
	}
	if ext := path.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}
