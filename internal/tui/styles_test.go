package tui

import (
	"strings"
	"testing"
)

func TestHelpEntryFormat(t *testing.T) {
	result := helpEntry("q", "quit")
	if !strings.Contains(result, "q") {
		t.Errorf("helpEntry('q','quit') does not contain key 'q': %q", result)
	}
	if !strings.Contains(result, "quit") {
		t.Errorf("helpEntry('q','quit') does not contain label 'quit': %q", result)
	}
}

func TestHelpEntryMultipleKeys(t *testing.T) {
	tests := []struct {
		key   string
		label string
	}{
		{"j/k", "nav"},
		{"enter", "save"},
		{"esc", "cancel"},
		{"ctrl+s", "submit"},
	}

	for _, tc := range tests {
		t.Run(tc.key, func(t *testing.T) {
			result := helpEntry(tc.key, tc.label)
			if !strings.Contains(result, tc.key) {
				t.Errorf("helpEntry(%q, %q) missing key", tc.key, tc.label)
			}
			if !strings.Contains(result, tc.label) {
				t.Errorf("helpEntry(%q, %q) missing label", tc.key, tc.label)
			}
		})
	}
}

func TestShimmerLogoContainsLetters(t *testing.T) {
	logo := renderShimmerLogo(0)
	for _, letter := range "COURSETIDE" {
		if !strings.Contains(logo, string(letter)) {
			t.Errorf("shimmer logo frame 0 missing letter %q", string(letter))
		}
	}
}

func TestShimmerLogoStableAcrossFrames(t *testing.T) {
	// Colors change per frame but the letter content must not.
	for _, frame := range []int{0, 1, 50, 999} {
		logo := renderShimmerLogo(frame)
		if !strings.Contains(logo, "C") || !strings.Contains(logo, "E") {
			t.Errorf("shimmer logo frame %d lost letters: %q", frame, logo)
		}
	}
}

func TestClampByte(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{-5, 0},
		{0, 0},
		{127.9, 127},
		{255, 255},
		{300, 255},
	}
	for _, tc := range tests {
		if got := clampByte(tc.in); got != tc.want {
			t.Errorf("clampByte(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestHelpViewListsCommands(t *testing.T) {
	view := helpView()
	for _, want := range []string{"coursetide", "logout", "--version", "ctrl+s", "Courses"} {
		if !strings.Contains(view, want) {
			t.Errorf("help view missing %q", want)
		}
	}
}
