package service

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncate(t *testing.T) {
	if got := truncate("short", 200); got != "short" {
		t.Errorf("short input must pass through, got %q", got)
	}

	long := strings.Repeat("a", 300)
	got := truncate(long, 200)
	if got != strings.Repeat("a", 200)+"..." {
		t.Errorf("unexpected truncation: %q", got)
	}
}

func TestTruncate_KeepsRunesIntact(t *testing.T) {
	// Place a multi-byte rune straddling the cut offset
	raw := strings.Repeat("a", 199) + "世界"
	got := truncate(raw, 200)

	if !utf8.ValidString(got) {
		t.Fatalf("truncated output is not valid UTF-8: %q", got)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("expected ellipsis suffix, got %q", got)
	}
	if strings.ContainsRune(got, utf8.RuneError) {
		t.Errorf("expected no replacement characters, got %q", got)
	}
}

func TestMalformedResponseError_ValidUTF8Message(t *testing.T) {
	raw := strings.Repeat("界", 100) // 300 bytes, cut lands mid-rune
	err := &MalformedResponseError{Raw: raw}

	if !utf8.ValidString(err.Error()) {
		t.Errorf("error message is not valid UTF-8: %q", err.Error())
	}
}
