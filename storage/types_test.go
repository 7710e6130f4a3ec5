package storage

import (
	"testing"

	"github.com/kbukum/imgkit/errors"
)

func TestParseProvider(t *testing.T) {
	tests := []struct {
		in   string
		want Provider
		err  bool
	}{
		{"", ProviderS3Compatible, false},
		{"S3Compatible", ProviderS3Compatible, false},
		{"imgla", ProviderImgLa, false},
		{" lsky ", ProviderImgLa, false},
		{"gcs", "", true},
	}
	for _, tt := range tests {
		got, err := ParseProvider(tt.in)
		if (err != nil) != tt.err {
			t.Errorf("ParseProvider(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseProvider(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestInferRegion(t *testing.T) {
	tests := []struct {
		region, endpoint, want string
	}{
		{"eu-west-1", "https://abc.r2.cloudflarestorage.com", "eu-west-1"},
		{"", "https://abc.r2.cloudflarestorage.com", "auto"},
		{"", "abc.R2.cloudflarestorage.com", "auto"},
		{"", "http://minio:9000", DefaultRegion},
		{"", "", DefaultRegion},
	}
	for _, tt := range tests {
		if got := InferRegion(tt.region, tt.endpoint); got != tt.want {
			t.Errorf("InferRegion(%q, %q) = %q, want %q", tt.region, tt.endpoint, got, tt.want)
		}
	}
}

func TestNormalizeEndpoint(t *testing.T) {
	if got := NormalizeEndpoint(" s3.example.com "); got != "https://s3.example.com" {
		t.Errorf("got %q", got)
	}
	if got := NormalizeEndpoint("http://h:9000"); got != "http://h:9000" {
		t.Errorf("got %q", got)
	}
	if got := NormalizeEndpoint(""); got != "" {
		t.Errorf("got %q", got)
	}
}

func TestCredentials_DefaultsAndValidate(t *testing.T) {
	c := Credentials{AccessKeyID: "AK", SecretAccessKey: "SK", Bucket: "b"}
	if !c.PathStyle() || !c.PublicRead() {
		t.Error("path style and public-read default to true")
	}
	off := false
	c.ForcePathStyle = &off
	if c.PathStyle() {
		t.Error("explicit false must disable path style")
	}
	if err := c.Validate(); err != nil {
		t.Errorf("unexpected error %v", err)
	}

	err := Credentials{AccessKeyID: "AK", SecretAccessKey: "SK"}.Validate()
	if !errors.IsCode(err, errors.ErrCodeMissingField) {
		t.Errorf("expected missing bucket, got %v", err)
	}
}

func TestImgLaCredentials_Normalized(t *testing.T) {
	c := ImgLaCredentials{BaseURL: " https://img.example.com/ ", Token: "t"}.Normalized()
	if c.BaseURL != "https://img.example.com" {
		t.Errorf("BaseURL = %q", c.BaseURL)
	}
	if c.StrategyID != DefaultStrategyID {
		t.Errorf("StrategyID = %d", c.StrategyID)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("unexpected error %v", err)
	}
	if err := (ImgLaCredentials{BaseURL: "https://x"}).Validate(); !errors.IsCode(err, errors.ErrCodeMissingField) {
		t.Errorf("expected missing token, got %v", err)
	}
}
