// Package server is the local HTTP bridge the host app calls instead of
// linking imgkit directly. It is a gin engine behind a net/http middleware
// chain (recovery, request id, CORS, body limit, request logging) with h2c
// enabled.
//
// Routes mirror the uploader commands:
//
//	POST   /api/v1/s3/upload | /s3/presign | /s3/delete
//	POST   /api/v1/imgla/upload | /albums | /strategies | /images | /delete
//	GET    /api/v1/history?provider=
//	POST   /api/v1/history
//	DELETE /api/v1/history
//	POST   /api/v1/download
//	GET    /healthz
//
// Successful responses are {"data": ...}. Failures are errors.ErrorResponse
// with the AppError's status.
package server
