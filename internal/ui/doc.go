// Package ui provides terminal output styling and the confirmation step
// for gatectl commands.
//
// The confirmation prompt is deliberately a caller-side step: the
// safety-checked commit in package gate never performs interactive I/O.
package ui
