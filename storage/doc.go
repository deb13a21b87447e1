// Package storage provides object storage abstractions with pluggable backends.
//
// Staged audio for long-running recognition lives here between upload and
// job cleanup. Backends register themselves with Providers from init:
//
//   - storage/gcs: Google Cloud Storage (required by Cloud Speech long-running recognition)
//   - storage/s3: Amazon S3 and S3-compatible storage
//   - storage/local: local filesystem storage for development and tests
//
// # Configuration
//
//	storage:
//	  enabled: true
//	  provider: "gcs"
//	  bucket: "voicenote-staging"
package storage
