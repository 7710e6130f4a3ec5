package httpclient

import (
	"errors"
	"testing"
)

func TestErrorCode_String(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want string
	}{
		{ErrCodeTimeout, "timeout"},
		{ErrCodeConnection, "connection"},
		{ErrCodeAuth, "auth"},
		{ErrCodeNotFound, "not_found"},
		{ErrCodeRateLimit, "rate_limit"},
		{ErrCodeValidation, "validation"},
		{ErrCodeServer, "server"},
		{ErrorCode(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.code.String(); got != tt.want {
			t.Errorf("ErrorCode(%d).String() = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestError_Error(t *testing.T) {
	e := &Error{StatusCode: 404, Code: ErrCodeNotFound, Message: "HTTP 404"}
	want := "httpclient: not_found (HTTP 404): HTTP 404"
	if got := e.Error(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	e2 := &Error{Code: ErrCodeConnection, Message: "connection refused"}
	want2 := "httpclient: connection: connection refused"
	if got := e2.Error(); got != want2 {
		t.Errorf("got %q, want %q", got, want2)
	}
}

func TestClassifyStatusCode(t *testing.T) {
	tests := []struct {
		code    int
		wantNil bool
		errCode ErrorCode
	}{
		{200, true, 0},
		{204, true, 0},
		{400, false, ErrCodeValidation},
		{401, false, ErrCodeAuth},
		{403, false, ErrCodeAuth},
		{404, false, ErrCodeNotFound},
		{405, false, ErrCodeValidation},
		{429, false, ErrCodeRateLimit},
		{500, false, ErrCodeServer},
		{503, false, ErrCodeServer},
	}
	for _, tt := range tests {
		e := ClassifyStatusCode(tt.code, nil)
		if tt.wantNil {
			if e != nil {
				t.Errorf("ClassifyStatusCode(%d): expected nil, got %v", tt.code, e)
			}
			continue
		}
		if e == nil {
			t.Errorf("ClassifyStatusCode(%d): expected error, got nil", tt.code)
			continue
		}
		if e.Code != tt.errCode {
			t.Errorf("ClassifyStatusCode(%d).Code = %s, want %s", tt.code, e.Code, tt.errCode)
		}
		if e.IsTransport() {
			t.Errorf("ClassifyStatusCode(%d) should not be a transport error", tt.code)
		}
	}
}

func TestError_UnwrapAndTransport(t *testing.T) {
	inner := errors.New("dial tcp: no such host")
	e := NewConnectionError(inner)
	if !errors.Is(e, inner) {
		t.Error("expected connection error to wrap cause")
	}
	if !e.IsTransport() {
		t.Error("connection errors are transport errors")
	}
	if _, status := classify(t, e); status != 0 {
		t.Errorf("transport error status = %d, want 0", status)
	}
}

// classify returns the code and status of an *Error in err's chain.
func classify(t *testing.T, err error) (ErrorCode, int) {
	t.Helper()
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("expected *Error, got %T: %v", err, err)
	}
	return e.Code, e.StatusCode
}
