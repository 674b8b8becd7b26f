package tpm

import (
	"errors"
	"testing"
)

func TestDevNodePattern(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"tpm0", true},
		{"tpm1", true},
		{"tpmrm0", true},
		{"tpmrm12", true},
		{"tpm", false},
		{"tpmrm", false},
		{"tpm0p1", false},
		{"atpm0", false},
		{"sda", false},
	}

	for _, tt := range tests {
		if got := devNodePattern.MatchString(tt.name); got != tt.want {
			t.Errorf("devNodePattern.MatchString(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestSelect(t *testing.T) {
	if _, err := Select(nil); !errors.Is(err, ErrNoTPM) {
		t.Errorf("Select(nil) error = %v, want ErrNoTPM", err)
	}

	dev, err := Select([]string{"/dev/tpm0"})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if dev != "/dev/tpm0" {
		t.Errorf("Select = %q, want /dev/tpm0", dev)
	}

	// The resource-managed node sorts after the raw node and wins.
	dev, err = Select([]string{"/dev/tpm0", "/dev/tpmrm0"})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if dev != "/dev/tpmrm0" {
		t.Errorf("Select = %q, want /dev/tpmrm0", dev)
	}
}
