package storage

import (
	stderrors "errors"
	"strings"
	"unicode/utf8"

	"github.com/kbukum/imgkit/errors"
	"github.com/kbukum/imgkit/httpclient"
)

const maxReasonLen = 200

// HTTPError translates an httpclient failure into an AppError for op.
// AppErrors pass through unchanged.
func HTTPError(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := errors.AsAppError(err); ok {
		return err
	}

	var he *httpclient.Error
	if !stderrors.As(err, &he) {
		return errors.Internal(err)
	}

	switch he.Code {
	case httpclient.ErrCodeTimeout:
		return errors.Timeout(op, he)
	case httpclient.ErrCodeConnection:
		return errors.ConnectionFailed(op, he)
	case httpclient.ErrCodeAuth:
		return errors.Unauthorized(op).WithDetail("status", he.StatusCode)
	}
	if he.StatusCode == 0 {
		return errors.InvalidInput("request", he.Message)
	}
	return errors.Protocol(op, he.StatusCode, BodyReason(he.Body))
}

// BodyReason shortens a response body to a one-line reason.
func BodyReason(body []byte) string {
	s := strings.Join(strings.Fields(string(body)), " ")
	if s == "" {
		return "empty response body"
	}
	if len(s) > maxReasonLen {
		cut := maxReasonLen
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut] + "..."
	}
	return s
}
