package helpers

import (
	"testing"
	"time"
)

func TestBerlinDate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		at   time.Time
		want string
	}{
		{
			name: "plain monday",
			at:   time.Date(2026, time.January, 5, 12, 0, 0, 0, time.UTC),
			want: "Montag, 5. Januar 2026",
		},
		{
			name: "utc midnight rolls into berlin new year",
			at:   time.Date(2025, time.December, 31, 23, 30, 0, 0, time.UTC),
			want: "Donnerstag, 1. Januar 2026",
		},
		{
			name: "summer time offset",
			at:   time.Date(2026, time.June, 30, 22, 30, 0, 0, time.UTC),
			want: "Mittwoch, 1. Juli 2026",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := BerlinDate(tt.at); got != tt.want {
				t.Fatalf("BerlinDate() = %q, want %q", got, tt.want)
			}
		})
	}
}
