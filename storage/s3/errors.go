package s3

import (
	"context"
	stderrors "errors"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/kbukum/imgkit/errors"
)

// mapError converts an SDK failure into an AppError. API error codes are
// checked first, then the HTTP status, and anything without a response is
// a transport failure.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.Timeout(op, err)
	}

	status := 0
	var respErr *awshttp.ResponseError
	if stderrors.As(err, &respErr) {
		status = respErr.HTTPStatusCode()
	}

	var noKey *types.NoSuchKey
	if stderrors.As(err, &noKey) {
		return errors.NotFound("object", "").WithCause(err)
	}

	var apiErr smithy.APIError
	if stderrors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return errors.NotFound("object", "").WithCause(err)
		case "NoSuchBucket":
			return errors.NotFound("bucket", "").WithCause(err)
		case "AccessDenied", "Forbidden", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return errors.Unauthorized(op).WithCause(err)
		}
		reason := apiErr.ErrorCode()
		if msg := apiErr.ErrorMessage(); msg != "" {
			reason += ": " + msg
		}
		return errors.Protocol(op, status, reason)
	}

	if status > 0 {
		return errors.Protocol(op, status, respErr.Error())
	}
	return errors.ConnectionFailed(op, err)
}
