package storage_test

import (
	"errors"
	"testing"

	"github.com/finsightai/finsight/pkg/storage"
)

func TestParseMaxResults(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		max     int32
		want    int32
		wantErr bool
	}{
		{"empty defaults to max", "", 50, 50, false},
		{"valid value", "10", 50, 10, false},
		{"clamped to max", "500", 50, 50, false},
		{"exactly max", "50", 50, 50, false},
		{"zero rejected", "0", 50, 0, true},
		{"negative rejected", "-5", 50, 0, true},
		{"not a number", "abc", 50, 0, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := storage.ParseMaxResults(tc.input, tc.max)
			if tc.wantErr {
				if !errors.Is(err, storage.ErrInvalidMaxResults) {
					t.Fatalf("err = %v, want ErrInvalidMaxResults", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMaxResults: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %d, want %d", got, tc.want)
			}
		})
	}
}
