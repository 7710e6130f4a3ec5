// Package logger provides structured logging for imgkit using zerolog.
//
// Loggers are tagged per component (s3, imgla, ledger, uploader, ...) and
// accept field maps built with Fields:
//
//	log := logger.WithComponent("imgla")
//	log.Warn("delete candidate failed", logger.Fields("endpoint", ep, "attempt", i))
//
// Credentials and bearer tokens must never be passed as fields.
package logger
