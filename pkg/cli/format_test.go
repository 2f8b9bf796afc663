package cli

import (
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		ms   int
		want string
	}{
		{500, "500ms"},
		{1500, "1.5s"},
		{65000, "1m5.0s"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.ms); got != tt.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{512, "512 B"},
		{2048, "2.00 KB"},
		{3 * 1024 * 1024, "3.00 MB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.bytes); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}

func TestFormatAgo(t *testing.T) {
	if got := FormatAgo(time.Time{}); got != "-" {
		t.Errorf("zero time = %q, want -", got)
	}
	if got := FormatAgo(time.Now().Add(-30 * time.Second)); got != "just now" {
		t.Errorf("30s = %q", got)
	}
	if got := FormatAgo(time.Now().Add(-90 * time.Minute)); got != "1h ago" {
		t.Errorf("90m = %q", got)
	}
	if got := FormatAgo(time.Now().Add(-49 * time.Hour)); got != "2d ago" {
		t.Errorf("49h = %q", got)
	}
}
