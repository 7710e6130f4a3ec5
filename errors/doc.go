// Package errors defines the error taxonomy shared by every imgkit command.
//
// Failures fall into five classes: input validation (rejected before any
// network call), transport (connection, TLS and timeout failures), protocol
// (non-2xx responses or 2xx responses the provider marks as failed), data
// integrity (successful responses missing required fields) and persistence
// (the history ledger could not be written). Every class is an *AppError;
// Message flattens any error into the single line shown to users.
package errors
