package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kbukum/imgkit/errors"
	"github.com/kbukum/imgkit/ledger"
)

// isolate points every config lookup at a fresh temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("IMGKIT_LEDGER_PATH", filepath.Join(dir, "history.json"))
	t.Setenv("IMGKIT_LOGGING_LEVEL", "error")
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestHistoryListEmpty(t *testing.T) {
	isolate(t)
	out, err := run(t, "history", "list")
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	if strings.TrimSpace(out) != "[]" {
		t.Errorf("expected empty list, got %q", out)
	}
}

func TestPresignUsesConfiguredBucket(t *testing.T) {
	isolate(t)
	t.Setenv("IMGKIT_UPLOADER_S3_ACCESS_KEY_ID", "AKID")
	t.Setenv("IMGKIT_UPLOADER_S3_SECRET_ACCESS_KEY", "secret")
	t.Setenv("IMGKIT_UPLOADER_S3_BUCKET", "photos")
	t.Setenv("IMGKIT_UPLOADER_S3_ENDPOINT", "https://minio.example.com")

	out, err := run(t, "presign", "2024/cat.png", "--expires", "60")
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	var res struct {
		PutURL    string `json:"putUrl"`
		PublicURL string `json:"publicUrl"`
	}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("output is not JSON: %s", out)
	}
	if !strings.HasPrefix(res.PutURL, "https://minio.example.com/photos/2024/cat.png?") {
		t.Errorf("unexpected putUrl %s", res.PutURL)
	}
	if !strings.Contains(res.PutURL, "X-Amz-Expires=60") {
		t.Errorf("expected custom expiry in %s", res.PutURL)
	}
	if res.PublicURL != "https://minio.example.com/photos/2024%2Fcat.png" {
		t.Errorf("unexpected publicUrl %s", res.PublicURL)
	}
}

func TestPresignWithoutCredentialsFails(t *testing.T) {
	isolate(t)
	_, err := run(t, "presign", "a.png")
	if !errors.IsCode(err, errors.ErrCodeInvalidInput) && !errors.IsCode(err, errors.ErrCodeMissingField) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUploadToImgLaRecordsHistory(t *testing.T) {
	dir := isolate(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("unexpected auth header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"status":true,"data":{"key":5,"pathname":"x/5.png","links":{"url":"https://img.example.com/5.png"}}}`)
	}))
	defer srv.Close()
	t.Setenv("IMGKIT_UPLOADER_PROVIDER", "imgla")
	t.Setenv("IMGKIT_UPLOADER_IMGLA_BASE_URL", srv.URL)
	t.Setenv("IMGKIT_UPLOADER_IMGLA_TOKEN", "tok")

	file := filepath.Join(dir, "5.png")
	if err := os.WriteFile(file, []byte("\x89PNG\r\n\x1a\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, "upload", file); err != nil {
		t.Fatalf("upload: %v", err)
	}

	out, err := run(t, "history", "list", "--provider", "imgla")
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	var records []ledger.Record
	if err := json.Unmarshal([]byte(out), &records); err != nil {
		t.Fatalf("output is not JSON: %s", out)
	}
	if len(records) != 1 || records[0].RemoteKey != 5 || records[0].FileName != "5.png" {
		t.Fatalf("unexpected history %+v", records)
	}

	out, err = run(t, "history", "delete", "--remote-key", "5")
	if err != nil {
		t.Fatalf("history delete: %v", err)
	}
	if !strings.Contains(out, `"removed": 1`) {
		t.Errorf("expected one removal, got %s", out)
	}
}

func TestDeleteNeedsATarget(t *testing.T) {
	isolate(t)
	if _, err := run(t, "delete"); err == nil {
		t.Fatal("expected an error without --key or --remote-key")
	}
}
