package httpclient

import (
	"errors"
	"io"
	"strings"
	"syscall"
)

// abruptCloseSignatures are message fragments produced when the peer drops a
// connection mid-exchange. Matching is case-insensitive.
var abruptCloseSignatures = []string{
	"connection reset by peer",
	"broken pipe",
	"unexpected eof",
	"server closed idle connection",
	"connection closed before message completed",
	"forcibly closed by the remote host",
	": eof",
}

// IsAbruptClose reports whether err is a connection error caused by the
// remote side closing the connection. Timeouts, refused connections, DNS
// failures and HTTP error statuses are not abrupt closes.
func IsAbruptClose(err error) bool {
	var e *Error
	if !errors.As(err, &e) || e.Code != ErrCodeConnection {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		return true
	}
	msg := strings.ToLower(e.Message)
	if msg == "eof" {
		return true
	}
	for _, sig := range abruptCloseSignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}
