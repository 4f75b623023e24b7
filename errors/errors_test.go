package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestAppError_New(t *testing.T) {
	err := New(ErrCodeModelNotFound, "not found", http.StatusNotFound)
	if err.Code != ErrCodeModelNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeModelNotFound, err.Code)
	}
	if err.Message != "not found" {
		t.Errorf("expected message 'not found', got %q", err.Message)
	}
	if err.HTTPStatus != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, err.HTTPStatus)
	}
	if err.Retryable {
		t.Error("MODEL_NOT_FOUND should not be retryable")
	}
}

func TestAppError_NothingIsRetryable(t *testing.T) {
	codes := []ErrorCode{
		ErrCodeLaunchFailed, ErrCodeStreamFailed, ErrCodeTimeout, ErrCodeNonZeroExit,
		ErrCodeCanceled, ErrCodeQueueFull, ErrCodeModelNotFound, ErrCodeInternal,
	}
	for _, code := range codes {
		if IsRetryableCode(code) {
			t.Errorf("%s should not be retryable", code)
		}
	}
}

func TestAppError_LaunchFailed(t *testing.T) {
	cause := fmt.Errorf("executable file not found in $PATH")
	err := LaunchFailed("ollama", cause)
	if err.Code != ErrCodeLaunchFailed {
		t.Errorf("expected LAUNCH_FAILED, got %s", err.Code)
	}
	if err.Details["binary"] != "ollama" {
		t.Errorf("expected binary=ollama, got %v", err.Details["binary"])
	}
	if !stderrors.Is(err, cause) {
		t.Error("expected cause in chain")
	}
}

func TestAppError_NonZeroExit(t *testing.T) {
	err := NonZeroExit("list", 127)
	if err.Code != ErrCodeNonZeroExit {
		t.Errorf("expected NON_ZERO_EXIT, got %s", err.Code)
	}
	if err.Details["exit_code"] != 127 {
		t.Errorf("expected exit_code=127, got %v", err.Details["exit_code"])
	}
	if err.HTTPStatus != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", err.HTTPStatus)
	}
}

func TestAppError_Timeout(t *testing.T) {
	err := Timeout("serve")
	if err.Code != ErrCodeTimeout {
		t.Errorf("expected TIMEOUT, got %s", err.Code)
	}
	if err.HTTPStatus != http.StatusGatewayTimeout {
		t.Errorf("expected 504, got %d", err.HTTPStatus)
	}
}

func TestAppError_ModelNotFound(t *testing.T) {
	err := ModelNotFound("gpt-unknown")
	if err.Details["model"] != "gpt-unknown" {
		t.Errorf("expected model detail, got %v", err.Details["model"])
	}
	if !strings.Contains(err.Message, "gpt-unknown") {
		t.Errorf("expected model name in message, got %q", err.Message)
	}
}

func TestAppError_QueueFull(t *testing.T) {
	err := QueueFull(64)
	if err.HTTPStatus != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", err.HTTPStatus)
	}
	if err.Details["capacity"] != 64 {
		t.Errorf("expected capacity=64, got %v", err.Details["capacity"])
	}
}

func TestAppError_Unauthorized_DefaultReason(t *testing.T) {
	err := Unauthorized("")
	if err.Message != "Authentication required." {
		t.Errorf("unexpected message %q", err.Message)
	}
}

func TestAppError_ErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{"without cause", Timeout("ps"), "TIMEOUT: The command took too long and was terminated."},
		{"with cause", Internal(fmt.Errorf("boom")), "INTERNAL_ERROR: An unexpected error occurred. (cause: boom)"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.err.Error(); got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestAppError_WithDetails(t *testing.T) {
	err := Validation("bad").WithDetail("a", 1).WithDetails(map[string]any{"b": 2})
	if err.Details["a"] != 1 || err.Details["b"] != 2 {
		t.Errorf("unexpected details %v", err.Details)
	}
}

func TestAsAppError_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", StreamFailed("stdout", fmt.Errorf("read failed")))
	appErr, ok := AsAppError(wrapped)
	if !ok {
		t.Fatal("expected AppError in chain")
	}
	if appErr.Code != ErrCodeStreamFailed {
		t.Errorf("expected STREAM_FAILED, got %s", appErr.Code)
	}
	if !IsAppError(wrapped) {
		t.Error("IsAppError should report true")
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(Canceled("list", nil)); got != ErrCodeCanceled {
		t.Errorf("expected CANCELED, got %s", got)
	}
	if got := CodeOf(fmt.Errorf("plain")); got != ErrCodeInternal {
		t.Errorf("expected INTERNAL_ERROR for plain error, got %s", got)
	}
}

func TestToResponse(t *testing.T) {
	resp := ModelNotFound("x").ToResponse()
	if resp.Error.Code != ErrCodeModelNotFound {
		t.Errorf("expected MODEL_NOT_FOUND, got %s", resp.Error.Code)
	}
	if resp.Error.Details["model"] != "x" {
		t.Errorf("expected details to be carried over")
	}
}
