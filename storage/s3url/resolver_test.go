package s3url

import (
	"net/url"
	"strings"
	"testing"

	"github.com/kbukum/imgkit/storage"
)

func TestPublicURL(t *testing.T) {
	tests := []struct {
		name   string
		target storage.Target
		key    string
		want   string
	}{
		{
			name:   "custom domain wins",
			target: storage.Target{Bucket: "b", Endpoint: "http://h:9000", PathStyle: true, CustomDomain: "https://cdn.example.com/"},
			key:    "a b.png",
			want:   "https://cdn.example.com/a%20b.png",
		},
		{
			name:   "path style",
			target: storage.Target{Bucket: "b", Endpoint: "http://h:9000/", PathStyle: true},
			key:    "a/b.png",
			want:   "http://h:9000/b/a%2Fb.png",
		},
		{
			name:   "virtual host keeps port",
			target: storage.Target{Bucket: "b", Endpoint: "http://h:9000"},
			key:    "x.png",
			want:   "http://b.h:9000/x.png",
		},
		{
			name:   "virtual host root path omitted",
			target: storage.Target{Bucket: "b", Endpoint: "https://s3.example.com/"},
			key:    "x.png",
			want:   "https://b.s3.example.com/x.png",
		},
		{
			name:   "virtual host keeps endpoint path",
			target: storage.Target{Bucket: "b", Endpoint: "https://gw.example.com/storage"},
			key:    "x.png",
			want:   "https://b.gw.example.com/storage/x.png",
		},
		{
			name:   "unparseable endpoint falls back to path style",
			target: storage.Target{Bucket: "b", Endpoint: "h:9000"},
			key:    "x.png",
			want:   "h:9000/b/x.png",
		},
		{
			name:   "aws path style",
			target: storage.Target{Bucket: "b", PathStyle: true},
			key:    "x.png",
			want:   "https://s3.amazonaws.com/b/x.png",
		},
		{
			name:   "aws virtual host",
			target: storage.Target{Bucket: "b"},
			key:    "x.png",
			want:   "https://b.s3.amazonaws.com/x.png",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PublicURL(tt.target, tt.key); got != tt.want {
				t.Errorf("PublicURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEscapeKey_RoundTrip(t *testing.T) {
	keys := []string{
		"2024/01/image.png",
		"with space/and+plus&amp=eq?.jpg",
		"unicode/图片-ü.webp",
		"~tilde_under-score.dot",
		"%already%2Fescaped",
	}
	target := storage.Target{Bucket: "b", Endpoint: "http://h:9000", PathStyle: true}
	for _, key := range keys {
		escaped := EscapeKey(key)
		for i := 0; i < len(escaped); i++ {
			c := escaped[i]
			if c != '%' && !isUnreserved(c) {
				t.Errorf("EscapeKey(%q) left %q unescaped", key, c)
			}
		}

		u := PublicURL(target, key)
		tail := strings.TrimPrefix(u, "http://h:9000/b/")
		decoded, err := url.PathUnescape(tail)
		if err != nil {
			t.Fatalf("PathUnescape(%q): %v", tail, err)
		}
		if decoded != key {
			t.Errorf("round trip of %q gave %q", key, decoded)
		}
	}
}
