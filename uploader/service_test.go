package uploader

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/imgkit/errors"
	"github.com/kbukum/imgkit/ledger"
	"github.com/kbukum/imgkit/resilience"
	"github.com/kbukum/imgkit/storage"
)

var fixedNow = time.Date(2024, 3, 5, 6, 7, 8, 0, time.UTC)

func newTestService(t *testing.T) *Service {
	t.Helper()
	noRetry := resilience.NoRetry()
	l := ledger.New(filepath.Join(t.TempDir(), ledger.FileName))
	return New(l, Options{
		Clock:         func() time.Time { return fixedNow },
		Retry:         &noRetry,
		S3MaxAttempts: 1,
	})
}

func s3Server(t *testing.T, status int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func s3Creds(endpoint string) storage.Credentials {
	return storage.Credentials{
		AccessKeyID:     "AKID",
		SecretAccessKey: "secret",
		Bucket:          "images",
		Endpoint:        endpoint,
	}
}

func imglaCreds(url string) storage.ImgLaCredentials {
	return storage.ImgLaCredentials{BaseURL: url, Token: "tok", AlbumID: 3}
}

func TestService_UploadS3RecordsHistory(t *testing.T) {
	srv, _ := s3Server(t, http.StatusOK)
	svc := newTestService(t)

	res, err := svc.Upload(context.Background(), UploadRequest{
		Target:   S3Target(s3Creds(srv.URL)),
		FileName: "cat.png",
		Data:     pngHeader,
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if !strings.HasPrefix(res.Key, "2024/03cat") || !strings.HasSuffix(res.Key, ".png") {
		t.Errorf("Key = %q", res.Key)
	}
	if !strings.HasPrefix(res.PublicURL, srv.URL+"/images/2024%2F03cat") {
		t.Errorf("PublicURL = %q", res.PublicURL)
	}

	history := svc.History(storage.ProviderS3Compatible)
	if len(history) != 1 {
		t.Fatalf("expected 1 history record, got %d", len(history))
	}
	rec := history[0]
	if rec.Bucket != "images" || rec.Key != res.Key || rec.PublicURL != res.PublicURL {
		t.Errorf("record = %+v", rec)
	}
	if rec.ContentType != "image/png" || rec.Size != int64(len(pngHeader)) {
		t.Errorf("record content = %s/%d", rec.ContentType, rec.Size)
	}
	if rec.UploadedAt != "2024-03-05T06:07:08Z" {
		t.Errorf("UploadedAt = %q", rec.UploadedAt)
	}
}

func TestService_UploadS3ExplicitKeyDeduplicates(t *testing.T) {
	srv, _ := s3Server(t, http.StatusOK)
	svc := newTestService(t)

	for i := 0; i < 2; i++ {
		if _, err := svc.Upload(context.Background(), UploadRequest{
			Target: S3Target(s3Creds(srv.URL)),
			Key:    "fixed/a.png",
			Data:   []byte("x"),
		}); err != nil {
			t.Fatalf("Upload %d: %v", i, err)
		}
	}
	if n := len(svc.History("")); n != 1 {
		t.Errorf("expected 1 record after re-upload, got %d", n)
	}
}

func TestService_UploadImgLa(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
		}
		if r.FormValue("album_id") != "3" {
			t.Errorf("album_id = %q", r.FormValue("album_id"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"status":true,"data":{"key":88,"pathname":"p/88.png","links":{"url":"https://img.example.com/88.png"}}}`)
	}))
	defer srv.Close()

	svc := newTestService(t)
	res, err := svc.Upload(context.Background(), UploadRequest{
		Target:   ImgLaTarget(imglaCreds(srv.URL)),
		FileName: "88.png",
		Data:     pngHeader,
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if res.RemoteKey != 88 || res.Key != "p/88.png" {
		t.Errorf("result = %+v", res)
	}
	rec := res.Record
	if !strings.HasPrefix(rec.ID, "imgla-") || rec.Bucket != storage.ImgLaBucket || rec.AlbumID != 3 {
		t.Errorf("record = %+v", rec)
	}
	if n := len(svc.History(storage.ProviderS3Compatible)); n != 0 {
		t.Errorf("S3 view should hide ImgLa records, got %d", n)
	}
	if n := len(svc.History(storage.ProviderImgLa)); n != 1 {
		t.Errorf("ImgLa view = %d records", n)
	}
}

func TestService_UploadValidatesBeforeNetwork(t *testing.T) {
	srv, hits := s3Server(t, http.StatusOK)
	svc := newTestService(t)

	tests := []struct {
		name string
		req  UploadRequest
		code errors.ErrorCode
	}{
		{"no bytes", UploadRequest{Target: S3Target(s3Creds(srv.URL))}, errors.ErrCodeMissingField},
		{"no credentials", UploadRequest{Target: Target{Provider: storage.ProviderS3Compatible}, Data: []byte("x")}, errors.ErrCodeMissingField},
		{"no bucket", UploadRequest{Target: S3Target(storage.Credentials{AccessKeyID: "a", SecretAccessKey: "s", Endpoint: srv.URL}), Data: []byte("x")}, errors.ErrCodeMissingField},
		{"unknown provider", UploadRequest{Target: Target{Provider: "ftp"}, Data: []byte("x")}, errors.ErrCodeInvalidInput},
		{"negative album", UploadRequest{Target: ImgLaTarget(imglaCreds(srv.URL)), Data: []byte("x"), AlbumID: -1}, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Upload(context.Background(), tt.req)
			if !errors.IsCode(err, tt.code) {
				t.Errorf("expected %s, got %v", tt.code, err)
			}
		})
	}
	if hits.Load() != 0 {
		t.Errorf("no request should reach the provider, got %d", hits.Load())
	}
}

func TestService_DeleteImgLaFallbackReconcilesLedger(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		if r.URL.Path == "/api/v1/images/42" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, "<html>login</html>")
	}))
	defer srv.Close()

	svc := newTestService(t)
	if _, err := svc.RecordHistory(ledger.Record{
		Bucket: storage.ImgLaBucket, Key: "p/42.png", PublicURL: "https://img/42.png", RemoteKey: 42,
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.RecordHistory(ledger.Record{
		Bucket: storage.ImgLaBucket, Key: "p/43.png", PublicURL: "https://img/43.png", RemoteKey: 43, Provider: storage.ProviderImgLa,
	}); err != nil {
		t.Fatal(err)
	}

	res, err := svc.Delete(context.Background(), DeleteRequest{Target: ImgLaTarget(imglaCreds(srv.URL)), RemoteKey: 42})
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if res.Endpoint != "/api/v1/images/42" || res.Removed != 1 {
		t.Errorf("result = %+v", res)
	}
	mu.Lock()
	if len(paths) != 3 {
		t.Errorf("expected three attempts, got %v", paths)
	}
	mu.Unlock()
	remaining := svc.History("")
	if len(remaining) != 1 || remaining[0].RemoteKey != 43 {
		t.Errorf("remaining = %+v", remaining)
	}
}

func TestService_DeleteFailureKeepsLedger(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	svc := newTestService(t)
	if _, err := svc.RecordHistory(ledger.Record{
		Bucket: storage.ImgLaBucket, Key: "k", PublicURL: "u", RemoteKey: 5, Provider: storage.ProviderImgLa,
	}); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Delete(context.Background(), DeleteRequest{Target: ImgLaTarget(imglaCreds(srv.URL)), RemoteKey: 5}); err == nil {
		t.Fatal("expected error")
	}
	if n := len(svc.History("")); n != 1 {
		t.Errorf("record must stay when the remote delete failed, got %d", n)
	}
}

func TestService_DeleteS3(t *testing.T) {
	srv, _ := s3Server(t, http.StatusNoContent)
	svc := newTestService(t)
	if _, err := svc.RecordHistory(ledger.Record{Bucket: "images", Key: "a.png", PublicURL: "u1"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.RecordHistory(ledger.Record{Bucket: "images", Key: "b.png", PublicURL: "u2"}); err != nil {
		t.Fatal(err)
	}

	res, err := svc.Delete(context.Background(), DeleteRequest{Target: S3Target(s3Creds(srv.URL)), Key: "a.png"})
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if res.Removed != 1 {
		t.Errorf("Removed = %d", res.Removed)
	}
	if h := svc.History(""); len(h) != 1 || h[0].Key != "b.png" {
		t.Errorf("history = %+v", h)
	}
}

func TestService_Presign(t *testing.T) {
	svc := newTestService(t)
	got, err := svc.Presign(s3Creds("https://minio.example.com"), "a b.png", 120)
	if err != nil {
		t.Fatalf("Presign: %v", err)
	}
	if !strings.HasPrefix(got.PutURL, "https://minio.example.com/images/a%20b.png?") || !strings.Contains(got.PutURL, "X-Amz-Expires=120") {
		t.Errorf("PutURL = %s", got.PutURL)
	}
	if got.PublicURL != "https://minio.example.com/images/a%20b.png" {
		t.Errorf("PublicURL = %s", got.PublicURL)
	}
}

func TestService_DeleteHistoryRequiresIdentity(t *testing.T) {
	svc := newTestService(t)
	if _, err := svc.DeleteHistory(ledger.Identity{Bucket: "b"}); !errors.IsCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}

func TestService_DeleteHistoryByRemoteKeyOnly(t *testing.T) {
	svc := newTestService(t)
	for _, r := range []ledger.Record{
		{Bucket: storage.ImgLaBucket, Key: "a.png", PublicURL: "https://img.example.com/a.png", Provider: storage.ProviderImgLa, RemoteKey: 42},
		{Bucket: storage.ImgLaBucket, Key: "b.png", PublicURL: "https://img.example.com/b.png", RemoteKey: 43},
		{Bucket: "photos", Key: "c.png", PublicURL: "https://cdn.example.com/c.png"},
	} {
		if _, err := svc.RecordHistory(r); err != nil {
			t.Fatalf("RecordHistory: %v", err)
		}
	}

	for _, key := range []int64{42, 43} {
		removed, err := svc.DeleteHistory(ledger.Identity{RemoteKey: key})
		if err != nil {
			t.Fatalf("DeleteHistory(%d): %v", key, err)
		}
		if removed != 1 {
			t.Errorf("DeleteHistory(%d) removed %d, want 1", key, removed)
		}
	}
	if got := svc.History(""); len(got) != 1 || got[0].Key != "c.png" {
		t.Errorf("only the S3 record should remain, got %+v", got)
	}
}

func TestService_ListImagesAsRecords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"status":true,"data":{"data":[{"key":9,"pathname":"x/9.png","links":{"url":"https://img/9.png"}}]}}`)
	}))
	defer srv.Close()

	svc := newTestService(t)
	records, err := svc.ListImages(context.Background(), imglaCreds(srv.URL), 1, 0)
	if err != nil {
		t.Fatalf("ListImages: %v", err)
	}
	if len(records) != 1 || records[0].RemoteKey != 9 || records[0].Provider != storage.ProviderImgLa {
		t.Errorf("records = %+v", records)
	}
}

func TestService_UploadHonorsContext(t *testing.T) {
	srv, _ := s3Server(t, http.StatusOK)
	svc := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Upload(ctx, UploadRequest{Target: S3Target(s3Creds(srv.URL)), Data: []byte("x")})
	if err == nil {
		t.Fatal("expected an error for a cancelled context")
	}
}
