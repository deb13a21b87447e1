// Package errors provides the error taxonomy shared by every stage of the
// transcription pipeline.
//
// Failures are created where they happen as *AppError values carrying a
// closed ErrorCode, an HTTP status and a retryable flag. The text shown to
// end users is produced once, at the boundary, by UserMessage, which has
// pt-BR and en catalogs.
package errors
