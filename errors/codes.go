package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Pipeline errors. Every job failure is reported with exactly one of these.
const (
	// ErrCodeConversionFailed indicates the transcoder exited non-zero or produced no output.
	ErrCodeConversionFailed ErrorCode = "CONVERSION_FAILED"
	// ErrCodeStagingFailed indicates the staging upload was exhausted.
	ErrCodeStagingFailed ErrorCode = "STAGING_FAILED"
	// ErrCodeRecognitionTimeout indicates an async recognition outlived its deadline.
	ErrCodeRecognitionTimeout ErrorCode = "RECOGNITION_TIMEOUT"
	// ErrCodeEmptyTranscript indicates recognition completed without any text.
	ErrCodeEmptyTranscript ErrorCode = "EMPTY_TRANSCRIPT"
	// ErrCodeResourceError indicates a local file could not be written or read.
	ErrCodeResourceError ErrorCode = "RESOURCE_ERROR"
	// ErrCodeProviderQuota indicates the provider rejected the audio for its length or quota.
	ErrCodeProviderQuota ErrorCode = "PROVIDER_QUOTA"
	// ErrCodeRecognitionFailed indicates any other recognition provider failure.
	ErrCodeRecognitionFailed ErrorCode = "RECOGNITION_FAILED"
	// ErrCodeInternal indicates an unexpected failure.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Request errors, produced by the HTTP surface before a job exists.
const (
	// ErrCodeInvalidInput indicates the request payload is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodePayloadTooLarge indicates the request body exceeded the configured limit.
	ErrCodePayloadTooLarge ErrorCode = "PAYLOAD_TOO_LARGE"
	// ErrCodeUnauthorized indicates the request is unauthorized.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrCodeInvalidToken indicates the bearer token is invalid.
	ErrCodeInvalidToken ErrorCode = "INVALID_TOKEN"
	// ErrCodeTokenExpired indicates the bearer token has expired.
	ErrCodeTokenExpired ErrorCode = "TOKEN_EXPIRED"
	// ErrCodeRateLimited indicates the caller exceeded its request rate.
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"
	// ErrCodeServiceUnavailable indicates a dependency is temporarily unavailable.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeStagingFailed:      true,
	ErrCodeRecognitionTimeout: true,
	ErrCodeRecognitionFailed:  true,
	ErrCodeServiceUnavailable: true,
	ErrCodeRateLimited:        true,
	ErrCodeInternal:           false,
}

// IsRetryableCode returns true if the caller may resubmit after this error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}

// PipelineCodes lists the closed set of codes a finished job can fail with.
func PipelineCodes() []ErrorCode {
	return []ErrorCode{
		ErrCodeConversionFailed,
		ErrCodeStagingFailed,
		ErrCodeRecognitionTimeout,
		ErrCodeEmptyTranscript,
		ErrCodeResourceError,
		ErrCodeProviderQuota,
		ErrCodeRecognitionFailed,
		ErrCodeInternal,
	}
}
