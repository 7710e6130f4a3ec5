// Package sigv4 builds AWS Signature Version 4 presigned URLs for S3 object
// PUTs without the SDK's signer. It performs no I/O; the only input besides
// the request is the clock, read once per call.
package sigv4
