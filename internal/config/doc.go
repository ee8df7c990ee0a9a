// Package config manages the gatectl configuration file.
//
// The configuration registry stores device definitions - the instrument
// endpoint, the gate-to-channel mapping, and the pretuned point - plus
// application preferences. It is persisted as YAML in the platform
// config directory and written atomically.
//
// The channel mapping and pretuned point of a device must cover the full
// 8-channel rollback set even though only the first 6 gates participate
// in the safety check.
package config
