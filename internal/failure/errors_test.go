package failure

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestKindOfWrapped(t *testing.T) {
	base := New(Export, "await-artifact", errors.New("no file"))
	wrapped := fmt.Errorf("pipeline: %w", base)

	if got := KindOf(wrapped); got != Export {
		t.Errorf("Expected kind %q, got %q", Export, got)
	}
	if KindOf(errors.New("plain")) != "" {
		t.Error("Expected empty kind for an error outside the taxonomy")
	}
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("boom"), true},
		{"auth", New(Auth, "login", context.DeadlineExceeded), true},
		{"navigation", New(Navigation, "open-report", nil), true},
		{"conversion", New(Conversion, "convert", nil), false},
		{"delete", New(Delete, "cleanup", nil), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsFatal(tc.err); got != tc.want {
				t.Errorf("IsFatal(%v) = %v, expected %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	err := New(Auth, "login", context.DeadlineExceeded)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("Expected errors.Is to see the wrapped cause")
	}
	if err.Error() != "auth error [login]: context deadline exceeded" {
		t.Errorf("Unexpected message: %s", err.Error())
	}
}
