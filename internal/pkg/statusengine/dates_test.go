package statusengine

import (
	"errors"
	"testing"
	"time"

	"github.com/hoangtran-dev/subkeeper/app/models"
)

func TestParseFlexibleDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2025-03-10", "2025-03-10"},
		{"2025-03-10 14:30:00", "2025-03-10"},
		{"10/03/2025", "2025-03-10"},
		{"5/3/2025", "2025-03-05"},
		{"10-03-2025", "2025-03-10"},
		{"2025-03-10T08:00:00Z", "2025-03-10"},
		{"  2025-03-10  ", "2025-03-10"},
	}

	for _, tt := range tests {
		got, err := ParseFlexibleDate(tt.in, time.UTC)
		if err != nil {
			t.Fatalf("ParseFlexibleDate(%q): %v", tt.in, err)
		}
		if got.Format(DateFormat) != tt.want {
			t.Fatalf("ParseFlexibleDate(%q) = %s, want %s", tt.in, got.Format(DateFormat), tt.want)
		}
	}
}

func TestParseFlexibleDateRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "   ", "soon", "2025/13/45"} {
		if _, err := ParseFlexibleDate(in, time.UTC); !errors.Is(err, ErrUnparseableDate) {
			t.Fatalf("ParseFlexibleDate(%q): expected ErrUnparseableDate, got %v", in, err)
		}
	}
}

func TestEffectiveExpiry(t *testing.T) {
	t.Run("stored value wins", func(t *testing.T) {
		o := &models.Order{OrderDate: "2025-01-01", ExpiryDate: "15/03/2025", TotalDays: 30}
		got, ok := EffectiveExpiry(o, time.UTC)
		if !ok || got.Format(DateFormat) != "2025-03-15" {
			t.Fatalf("EffectiveExpiry = (%v, %v), want 2025-03-15", got, ok)
		}
	})

	t.Run("derived from order date and span", func(t *testing.T) {
		o := &models.Order{OrderDate: "2025-03-01", ExpiryDate: "unknown", TotalDays: 30}
		got, ok := EffectiveExpiry(o, time.UTC)
		if !ok || got.Format(DateFormat) != "2025-03-30" {
			t.Fatalf("EffectiveExpiry = (%v, %v), want 2025-03-30", got, ok)
		}
	})

	t.Run("nothing usable", func(t *testing.T) {
		o := &models.Order{OrderDate: "???", ExpiryDate: "???", TotalDays: 30}
		if _, ok := EffectiveExpiry(o, time.UTC); ok {
			t.Fatal("expected no effective expiry")
		}
	})

	t.Run("zero span", func(t *testing.T) {
		o := &models.Order{OrderDate: "2025-03-01", ExpiryDate: "", TotalDays: 0}
		if _, ok := EffectiveExpiry(o, time.UTC); ok {
			t.Fatal("expected no effective expiry for zero total days")
		}
	})
}
