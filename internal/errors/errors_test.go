package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "error with cause",
			err: Wrap(KindConnection, "dial", "failed to connect",
				errors.New("connection refused")),
			contains: []string{"[connection:dial]", "failed to connect", "connection refused"},
		},
		{
			name:     "error without cause",
			err:      New(KindConfig, "validate", "api key is required"),
			contains: []string{"[config:validate]", "api key is required"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errStr := tt.err.Error()
			for _, substr := range tt.contains {
				if !strings.Contains(errStr, substr) {
					t.Errorf("error string %q does not contain %q", errStr, substr)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	originalErr := errors.New("original error")
	wrappedErr := Wrap(KindTransport, "send", "wrapped", originalErr)

	if !errors.Is(wrappedErr, originalErr) {
		t.Error("Unwrap should return the original error")
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(KindTransport, "send", "wrapped", nil) != nil {
		t.Error("Wrap(nil) should return nil")
	}
}

func TestWrapKeepsExistingKind(t *testing.T) {
	inner := New(KindRemote, "receive", "quota exceeded")
	outer := Wrap(KindTransport, "session", "failed", fmt.Errorf("context: %w", inner))

	if outer.Kind != KindRemote {
		t.Errorf("expected kind %q, got %q", KindRemote, outer.Kind)
	}
}

func TestIsKind(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		kind     Kind
		expected bool
	}{
		{
			name:     "direct error kind match",
			err:      New(KindConfig, "test", "message"),
			kind:     KindConfig,
			expected: true,
		},
		{
			name:     "wrapped by fmt",
			err:      fmt.Errorf("outer: %w", New(KindProtocol, "test", "message")),
			kind:     KindProtocol,
			expected: true,
		},
		{
			name:     "different kind",
			err:      New(KindConfig, "test", "message"),
			kind:     KindTransport,
			expected: false,
		},
		{
			name:     "plain error",
			err:      errors.New("plain"),
			kind:     KindConfig,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			kind:     KindUnknown,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsKind(tt.err, tt.kind); got != tt.expected {
				t.Errorf("IsKind() = %v, want %v", got, tt.expected)
			}
		})
	}
}
