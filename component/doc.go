// Package component defines lifecycle-managed parts of the imgkit bridge
// process (telemetry, ledger, HTTP server) and a registry that starts them
// in order and stops them in reverse.
package component
