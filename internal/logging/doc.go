// Package logging provides structured logging for gatectl using zap.
//
// Logging is silent by default so that CLI output stays clean. Set the
// GATECTL_LOG_LEVEL environment variable to "debug", "info", "warn", or
// "error" to enable log output.
package logging
