package channels

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsPermanent(t *testing.T) {
	base := errors.New("Forbidden: bot was blocked by the user")
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", base, false},
		{"permanent", Permanent(1, base), true},
		{"transient", Transient(1, base), false},
		{"wrapped permanent", fmt.Errorf("follow-up: %w", Permanent(1, base)), true},
		{"sentinel", ErrPermanent, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPermanent(tt.err); got != tt.want {
				t.Fatalf("IsPermanent(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestDeliveryError_Unwrap(t *testing.T) {
	base := errors.New("boom")
	err := Transient(5, base)
	if !errors.Is(err, base) {
		t.Fatal("DeliveryError does not unwrap to the cause")
	}
	if got := err.Error(); got != "send to 5 (transient): boom" {
		t.Fatalf("Error() = %q", got)
	}
}

func TestPreview(t *testing.T) {
	if got := Preview("hello\n  world", 40); got != "hello world" {
		t.Errorf("Preview = %q", got)
	}
	if got := Preview("abcdefghij", 6); got != "abc..." {
		t.Errorf("Preview = %q, want abc...", got)
	}
}
