package ssdp

import (
	"errors"
	"fmt"
	"syscall"
	"testing"
)

func TestError_Is(t *testing.T) {
	err := newError(ErrKindBindFailed, "bind udp4 :1900", syscall.EADDRINUSE)
	wrapped := fmt.Errorf("begin: %w", err)

	if !errors.Is(wrapped, ErrBindFailed) {
		t.Error("errors.Is(wrapped, ErrBindFailed) = false")
	}
	if errors.Is(wrapped, ErrJoinFailed) {
		t.Error("errors.Is(wrapped, ErrJoinFailed) = true")
	}
	if !errors.Is(wrapped, syscall.EADDRINUSE) {
		t.Error("underlying error lost")
	}

	var target *Error
	if !errors.As(wrapped, &target) || target.Kind != ErrKindBindFailed {
		t.Errorf("errors.As() = %v, want BindFailed", target)
	}
}

func TestError_Error(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{ErrNotStarted, "NotStarted"},
		{newError(ErrKindNoInterface, "eth9", nil), "NoInterface: eth9"},
		{newError(ErrKindJoinFailed, "join", errors.New("denied")), "JoinFailed: join: denied"},
		{&Error{Kind: ErrorKind(42)}, "ErrorKind(42)"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %v, want %v", got, tt.want)
		}
	}
}
