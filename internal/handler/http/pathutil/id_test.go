package pathutil

import (
	"errors"
	"testing"
)

func TestParseTaskID(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"canonical", "6f1c2b7e-9a43-4c1d-8e0b-1f2a3b4c5d6e", "6f1c2b7e-9a43-4c1d-8e0b-1f2a3b4c5d6e", false},
		{"upper case normalized", "6F1C2B7E-9A43-4C1D-8E0B-1F2A3B4C5D6E", "6f1c2b7e-9a43-4c1d-8e0b-1f2a3b4c5d6e", false},
		{"numeric", "123", "", true},
		{"empty", "", "", true},
		{"injection", "1; DROP TABLE tasks", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTaskID(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidID) {
					t.Fatalf("expected ErrInvalidID, got %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseTaskID(%q) = %q, %v; want %q", tt.raw, got, err, tt.want)
			}
		})
	}
}
