package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Process supervision errors
const (
	// ErrCodeLaunchFailed indicates the external executable could not be started.
	ErrCodeLaunchFailed ErrorCode = "LAUNCH_FAILED"
	// ErrCodeStreamFailed indicates reading stdout or stderr failed mid-stream.
	ErrCodeStreamFailed ErrorCode = "STREAM_FAILED"
	// ErrCodeTimeout indicates the process did not exit within its bound.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeNonZeroExit indicates the process exited with a failure code.
	ErrCodeNonZeroExit ErrorCode = "NON_ZERO_EXIT"
	// ErrCodeCanceled indicates the invocation was aborted by shutdown.
	ErrCodeCanceled ErrorCode = "CANCELED"
)

// Dispatch errors
const (
	// ErrCodeQueueFull indicates the worker queue cannot accept more work.
	ErrCodeQueueFull ErrorCode = "QUEUE_FULL"
	// ErrCodeServiceUnavailable indicates the component is not running.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
)

// Validation errors
const (
	// ErrCodeModelNotFound indicates a model name is not in the cached list.
	ErrCodeModelNotFound ErrorCode = "MODEL_NOT_FOUND"
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
)

// Authentication errors
const (
	// ErrCodeUnauthorized indicates the request is unauthorized.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
)

// Internal errors
const (
	// ErrCodeInternal indicates an unexpected internal failure.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// No code is retryable: commands are reported once and never re-run.
var retryableCodes = map[ErrorCode]bool{}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
