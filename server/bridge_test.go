package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kbukum/imgkit/component"
	"github.com/kbukum/imgkit/ledger"
	"github.com/kbukum/imgkit/logger"
	"github.com/kbukum/imgkit/resilience"
	"github.com/kbukum/imgkit/server/middleware"
	"github.com/kbukum/imgkit/uploader"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newTestBridge(t *testing.T) *httptest.Server {
	t.Helper()
	noRetry := resilience.NoRetry()
	l := ledger.New(filepath.Join(t.TempDir(), ledger.FileName))
	svc := uploader.New(l, uploader.Options{Retry: &noRetry, S3MaxAttempts: 1})

	cfg := Config{}
	cfg.ApplyDefaults()
	s := New(cfg, logger.NewNop())
	s.RegisterRoutes("imgkit", NewBridge(svc, nil), nil)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func call(t *testing.T, method, url string, body any) (int, envelope, http.Header) {
	t.Helper()
	var rd io.Reader = http.NoBody
	if body != nil {
		switch b := body.(type) {
		case string:
			rd = strings.NewReader(b)
		default:
			raw, err := json.Marshal(b)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			rd = bytes.NewReader(raw)
		}
	}
	req, err := http.NewRequest(method, url, rd)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	var env envelope
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("response is not JSON: %s", raw)
		}
	}
	return resp.StatusCode, env, resp.Header
}

func TestBridge_Health(t *testing.T) {
	ts := newTestBridge(t)
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get(middleware.HeaderRequestID) == "" {
		t.Error("expected request id header")
	}
}

func TestBridge_ImgLaUploadThenHistory(t *testing.T) {
	imgla := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/upload" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"status":true,"data":{"key":9,"pathname":"a/9.png","links":{"url":"https://img.example.com/9.png"}}}`)
	}))
	defer imgla.Close()
	ts := newTestBridge(t)

	status, env, _ := call(t, http.MethodPost, ts.URL+"/api/v1/imgla/upload", map[string]any{
		"credentials": map[string]any{"baseUrl": imgla.URL, "token": "tok"},
		"fileName":    "9.png",
		"bytes":       []byte("png-bytes"),
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d (%+v)", status, env.Error)
	}
	var res uploader.UploadResult
	if err := json.Unmarshal(env.Data, &res); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if res.RemoteKey != 9 || res.PublicURL != "https://img.example.com/9.png" {
		t.Errorf("unexpected result %+v", res)
	}

	status, env, _ = call(t, http.MethodGet, ts.URL+"/api/v1/history?provider=imgla", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	var records []ledger.Record
	if err := json.Unmarshal(env.Data, &records); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(records) != 1 || records[0].RemoteKey != 9 {
		t.Errorf("unexpected history %+v", records)
	}

	_, env, _ = call(t, http.MethodGet, ts.URL+"/api/v1/history?provider=s3compatible", nil)
	if string(env.Data) != "[]" {
		t.Errorf("expected empty s3 view, got %s", env.Data)
	}
}

func TestBridge_ImgLaFailureMapsToError(t *testing.T) {
	imgla := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"status":false,"message":"quota exceeded"}`)
	}))
	defer imgla.Close()
	ts := newTestBridge(t)

	status, env, _ := call(t, http.MethodPost, ts.URL+"/api/v1/imgla/upload", map[string]any{
		"credentials": map[string]any{"baseUrl": imgla.URL, "token": "tok"},
		"bytes":       []byte("x"),
	})
	if status != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", status)
	}
	if env.Error == nil || env.Error.Code != "PROTOCOL_ERROR" || !strings.Contains(env.Error.Message, "quota exceeded") {
		t.Errorf("unexpected error %+v", env.Error)
	}
}

func TestBridge_Presign(t *testing.T) {
	ts := newTestBridge(t)
	status, env, _ := call(t, http.MethodPost, ts.URL+"/api/v1/s3/presign", map[string]any{
		"credentials": map[string]any{
			"accessKeyId": "AKID", "secretAccessKey": "secret", "bucket": "b",
			"endpoint": "https://s3.example.com",
		},
		"key": "a/b.png",
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d (%+v)", status, env.Error)
	}
	var out struct {
		PutURL    string `json:"putUrl"`
		PublicURL string `json:"publicUrl"`
	}
	if err := json.Unmarshal(env.Data, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(out.PutURL, "X-Amz-Signature=") || !strings.Contains(out.PutURL, "X-Amz-Expires=600") {
		t.Errorf("unexpected putUrl %s", out.PutURL)
	}
	if out.PublicURL != "https://s3.example.com/b/a%2Fb.png" {
		t.Errorf("unexpected publicUrl %s", out.PublicURL)
	}
}

func TestBridge_BadInput(t *testing.T) {
	ts := newTestBridge(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		code   string
	}{
		{"malformed json", http.MethodPost, "/api/v1/s3/upload", "{not json", "INVALID_INPUT"},
		{"missing bytes", http.MethodPost, "/api/v1/s3/upload", map[string]any{
			"credentials": map[string]any{"accessKeyId": "a", "secretAccessKey": "s", "bucket": "b"},
		}, "MISSING_FIELD"},
		{"unknown provider filter", http.MethodGet, "/api/v1/history?provider=ftp", nil, "INVALID_INPUT"},
		{"empty identity", http.MethodDelete, "/api/v1/history", map[string]any{}, "INVALID_INPUT"},
		{"zero remote key", http.MethodPost, "/api/v1/imgla/delete", map[string]any{
			"credentials": map[string]any{"baseUrl": "https://img.example.com", "token": "tok"},
		}, "INVALID_INPUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env, _ := call(t, tt.method, ts.URL+tt.path, tt.body)
			if status != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", status)
			}
			if env.Error == nil || env.Error.Code != tt.code {
				t.Errorf("expected %s, got %+v", tt.code, env.Error)
			}
		})
	}
}

func TestBridge_RecordAndDeleteHistory(t *testing.T) {
	ts := newTestBridge(t)

	status, env, _ := call(t, http.MethodPost, ts.URL+"/api/v1/history", map[string]any{
		"bucket": "b", "key": "k.png", "public_url": "https://cdn.example.com/k.png",
	})
	if status != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%+v)", status, env.Error)
	}
	var rec ledger.Record
	if err := json.Unmarshal(env.Data, &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.ID == "" || rec.UploadedAt == "" {
		t.Errorf("expected id and timestamp filled, got %+v", rec)
	}

	status, env, _ = call(t, http.MethodDelete, ts.URL+"/api/v1/history", map[string]any{"bucket": "b", "key": "k.png"})
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d (%+v)", status, env.Error)
	}
	if string(env.Data) != `{"removed":1}` {
		t.Errorf("unexpected body %s", env.Data)
	}
}

func TestBridge_DeleteHistoryByRemoteKey(t *testing.T) {
	ts := newTestBridge(t)

	status, env, _ := call(t, http.MethodPost, ts.URL+"/api/v1/history", map[string]any{
		"bucket": "imgla", "key": "2024/a.png", "public_url": "https://img.example.com/a.png",
		"provider": "imgla", "remote_key": 42,
	})
	if status != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%+v)", status, env.Error)
	}

	status, env, _ = call(t, http.MethodDelete, ts.URL+"/api/v1/history", map[string]any{"remote_key": 42})
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d (%+v)", status, env.Error)
	}
	if string(env.Data) != `{"removed":1}` {
		t.Errorf("unexpected body %s", env.Data)
	}

	_, env, _ = call(t, http.MethodGet, ts.URL+"/api/v1/history", nil)
	if string(env.Data) != `[]` {
		t.Errorf("history should be empty, got %s", env.Data)
	}
}

func TestBridge_DownloadRouteNeedsFetcher(t *testing.T) {
	ts := newTestBridge(t)
	resp, err := http.Post(ts.URL+"/api/v1/download", "application/json", strings.NewReader(`{"url":"https://example.com/a.zip"}`))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 without a fetcher, got %d", resp.StatusCode)
	}
}

func TestComponent_Lifecycle(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	s := New(cfg, logger.NewNop())
	s.httpServer.Addr = "127.0.0.1:0"
	c := NewComponent(s)

	if h := c.Health(context.Background()); h.Status != component.StatusUnhealthy {
		t.Errorf("expected unhealthy before start, got %s", h.Status)
	}
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if h := c.Health(context.Background()); h.Status != component.StatusHealthy {
		t.Errorf("expected healthy after start, got %s", h.Status)
	}
	if strings.HasSuffix(s.Addr(), ":0") {
		t.Errorf("expected bound port, got %s", s.Addr())
	}
	if err := c.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := Config{Port: 70000}
	if err := cfg.Validate(); err == nil {
		t.Error("expected port error")
	}
	cfg = Config{}
	cfg.ApplyDefaults()
	if cfg.Host != "127.0.0.1" || cfg.Port != 8080 {
		t.Errorf("unexpected defaults %s:%d", cfg.Host, cfg.Port)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
