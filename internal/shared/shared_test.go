package shared

import (
	"testing"
	"time"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercases", "Dawn Light", "dawn_light"},
		{"collapses runs", "  dawn   light ", "dawn_light"},
		{"tabs and newlines", "dawn\tlight\nrises", "dawn_light_rises"},
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
		{"already slugged", "dawn_light", "dawn_light"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slugify(tt.input); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "0:00"},
		{59, "0:59"},
		{60, "1:00"},
		{181, "3:01"},
		{3600, "60:00"},
		{-5, "0:00"},
	}

	for _, tt := range tests {
		if got := FormatDuration(tt.seconds); got != tt.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestDayKey(t *testing.T) {
	ts := time.Date(2025, 6, 5, 23, 59, 0, 0, time.UTC)
	if got := DayKey(ts); got != "2025-06-05" {
		t.Errorf("DayKey = %q, want 2025-06-05", got)
	}
}

func TestDayKeysSortLexicographically(t *testing.T) {
	earlier := DayKey(time.Date(2025, 9, 30, 0, 0, 0, 0, time.UTC))
	later := DayKey(time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC))
	if !(earlier < later) {
		t.Errorf("Expected %q < %q", earlier, later)
	}
}

func TestGenerateID(t *testing.T) {
	a := GenerateID()
	b := GenerateID()
	if a == b {
		t.Error("Expected distinct ids")
	}
	if len(a) != 36 {
		t.Errorf("Expected UUID string, got %q", a)
	}
}
