package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "without cause",
			err:  NewNotFoundError("$/Acme/trunk/a.cs"),
			want: "NOT_FOUND: $/Acme/trunk/a.cs not found",
		},
		{
			name: "with cause",
			err:  NewProcessFailedError(3, "tf get", errors.New("exit status 3")),
			want: "PROCESS_FAILED: ERROR CODE [3].  Failed to execute: tf get (exit status 3)",
		},
		{
			name: "hung",
			err:  NewProcessHungError("tf get"),
			want: "PROCESS_HUNG: Process hung: tf get",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPredicates_SeeThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("changeset 11: %w", NewServicesUnavailableError("tf get"))

	if !IsServicesUnavailable(wrapped) {
		t.Error("IsServicesUnavailable(wrapped) = false, want true")
	}
	if IsProcessHung(wrapped) {
		t.Error("IsProcessHung(wrapped) = true, want false")
	}
	if IsNotFound(errors.New("plain")) {
		t.Error("IsNotFound(plain) = true, want false")
	}
	if !IsProcessFailed(fmt.Errorf("x: %w", NewProcessFailedError(8, "robocopy", nil))) {
		t.Error("IsProcessFailed(wrapped) = false, want true")
	}
	if !IsUnauthorized(NewUnauthorizedError("denied")) {
		t.Error("IsUnauthorized = false, want true")
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := NewInternalError("failed", cause)
	if !errors.Is(err, cause) {
		t.Errorf("errors.Is(err, cause) = false, want true")
	}
}
