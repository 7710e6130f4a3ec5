// Package storage holds the types shared by imgkit's storage providers.
//
// Two providers exist and the set is closed:
//
//   - storage/s3: S3-compatible buckets (AWS, R2, MinIO, ...) addressed
//     with static credentials
//   - storage/imgla: ImgLa/Lsky image hosts driven through their REST API
//
// The URL resolver (storage/s3url) and presigner (storage/sigv4) are pure
// leaves used by the S3 provider.
package storage
