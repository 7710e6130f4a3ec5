// Package s3url computes the public URL of an object in an S3-compatible
// bucket. Everything here is pure.
package s3url

import (
	"net/url"
	"strings"

	"github.com/kbukum/imgkit/storage"
)

const (
	awsPathStyleBase = "https://s3.amazonaws.com"
	awsVirtualSuffix = ".s3.amazonaws.com"
)

// PublicURL returns the public URL for key in the bucket described by t.
//
// A custom domain wins over everything. Without an endpoint the public AWS
// domain is used. A virtual-host endpoint that cannot be parsed falls back
// to the path-style form.
func PublicURL(t storage.Target, key string) string {
	escaped := EscapeKey(key)

	if domain := strings.TrimSpace(t.CustomDomain); domain != "" {
		return strings.TrimRight(domain, "/") + "/" + escaped
	}

	endpoint := strings.TrimSpace(t.Endpoint)
	if endpoint == "" {
		if t.PathStyle {
			return awsPathStyleBase + "/" + t.Bucket + "/" + escaped
		}
		return "https://" + t.Bucket + awsVirtualSuffix + "/" + escaped
	}

	pathStyle := strings.TrimRight(endpoint, "/") + "/" + t.Bucket + "/" + escaped
	if t.PathStyle {
		return pathStyle
	}

	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return pathStyle
	}

	var b strings.Builder
	b.WriteString(u.Scheme)
	b.WriteString("://")
	b.WriteString(t.Bucket)
	b.WriteByte('.')
	b.WriteString(u.Host)
	if p := u.EscapedPath(); p != "" && p != "/" {
		b.WriteString(strings.TrimRight(p, "/"))
	}
	b.WriteByte('/')
	b.WriteString(escaped)
	return b.String()
}

// EscapeKey percent-encodes every byte of key except ASCII letters, digits
// and "-_.~". The "/" separator is escaped too.
func EscapeKey(key string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(key) * 3)
	for i := 0; i < len(key); i++ {
		c := key[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	return 'A' <= c && c <= 'Z' || 'a' <= c && c <= 'z' || '0' <= c && c <= '9' ||
		c == '-' || c == '_' || c == '.' || c == '~'
}
