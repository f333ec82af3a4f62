package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation and configuration errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeConfigCorrupt        ErrorCode = 102
	ErrCodeMissingParameter     ErrorCode = 103
	ErrCodeInvalidVersion       ErrorCode = 104
	ErrCodeVersionMismatch      ErrorCode = 105

	// Persistence errors (200-299)
	ErrCodeWriteFailed  ErrorCode = 200
	ErrCodeRenameFailed ErrorCode = 201
	ErrCodeReadFailed   ErrorCode = 202
	ErrCodeEncodeFailed ErrorCode = 203
	ErrCodeDecodeFailed ErrorCode = 204

	// Control and status errors (300-399)
	ErrCodeControlWriteFailed ErrorCode = 300
	ErrCodeStatusWriteFailed  ErrorCode = 301

	// Log management errors (400-499)
	ErrCodeLogAppendFailed   ErrorCode = 400
	ErrCodeLogCompressFailed ErrorCode = 401
	ErrCodeLogDeleteFailed   ErrorCode = 402
	ErrCodeLogQueryFailed    ErrorCode = 403
	ErrCodeLogExportFailed   ErrorCode = 404

	// Provider errors (500-599)
	ErrCodeProviderUnavailable     ErrorCode = 500
	ErrCodeProviderRateLimited     ErrorCode = 501
	ErrCodeProviderResponseInvalid ErrorCode = 502
	ErrCodeInvalidProvider         ErrorCode = 503
)
