// Package config loads imgkit's configuration.
//
// Values come from a config.yml, a .env file and IMGKIT_-prefixed
// environment variables, in that order of increasing precedence. Nested keys
// map to underscores, so uploader.s3.bucket is IMGKIT_UPLOADER_S3_BUCKET.
//
//	cfg, err := config.Load()
//	cfg, err := config.Load(config.WithConfigFile("./imgkit.yml"))
package config
