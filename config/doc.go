// Package config loads service configuration from config.yml, a .env file
// and the process environment using Viper.
//
// Precedence, lowest first: loader defaults, config.yml, environment
// (including variables loaded from .env). Environment names map onto nested
// keys, so with WithEnvPrefix("VOICENOTE") the variable
// VOICENOTE_STAGING_UPLOAD_RETRY_COUNT sets staging.upload_retry_count.
//
// # Usage
//
//	cfg, err := config.Load[app.Config]("voicenote", config.WithEnvPrefix("VOICENOTE"))
package config
