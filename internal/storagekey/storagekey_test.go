package storagekey

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "untitled"},
		{"   ", "untitled"},
		{"...", "untitled"},
		{"hello", "hello"},
		{"a/b\\c", "a_b_c"},
		{`<>:"|?*`, "_______"},
		{"line\nbreak\ttab\r", "line_break_tab_"},
		{" .hidden. ", "hidden"},
		{"旅行 攻略", "旅行 攻略"},
	}
	for _, tt := range tests {
		if got := Sanitize(tt.in); got != tt.want {
			t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeTruncatesByCharacter(t *testing.T) {
	in := strings.Repeat("好", 100)
	got := Sanitize(in)
	if n := utf8.RuneCountInString(got); n != MaxLen {
		t.Errorf("rune count = %d, want %d", n, MaxLen)
	}
}

func TestSanitizeTruncationExposesDot(t *testing.T) {
	in := strings.Repeat("a", 79) + ". tail"
	got := Sanitize(in)
	if strings.HasSuffix(got, ".") || strings.HasSuffix(got, " ") {
		t.Errorf("trailing dot/space left: %q", got)
	}
	if Sanitize(got) != got {
		t.Errorf("not idempotent: %q -> %q", got, Sanitize(got))
	}
}

func TestSanitizeProperties(t *testing.T) {
	inputs := []string{
		"", " ", ".", "..a..", "a/b", strings.Repeat("x", 200),
		strings.Repeat(" .", 60) + "z", "ok?\n", strings.Repeat("é", 81) + " ",
		"\xff\xfe bad utf8", strings.Repeat("a", 80) + "/",
	}
	for _, in := range inputs {
		once := Sanitize(in)
		if twice := Sanitize(once); twice != once {
			t.Errorf("Sanitize not idempotent for %q: %q -> %q", in, once, twice)
		}
		if once == "" {
			t.Errorf("Sanitize(%q) is empty", in)
		}
		if utf8.RuneCountInString(once) > MaxLen {
			t.Errorf("Sanitize(%q) longer than %d", in, MaxLen)
		}
		if forbidden.MatchString(once) {
			t.Errorf("Sanitize(%q) = %q keeps forbidden characters", in, once)
		}
	}
}

func TestKey(t *testing.T) {
	if got := Key("My: Trip", "n1"); got != "My_ Trip_n1" {
		t.Errorf("Key = %q", got)
	}
	if Key("t", "n1") != Key("t", "n1") {
		t.Error("Key is not deterministic")
	}
	if got := Key("", "n1"); got != "untitled_n1" {
		t.Errorf("Key with empty title = %q", got)
	}
	if !strings.HasSuffix(Key("x", "n1"), Suffix("n1")) {
		t.Error("Key must end with Suffix")
	}
}

func TestIdentityOf(t *testing.T) {
	tests := []struct {
		folder string
		want   string
		ok     bool
	}{
		{"Title_n1", "n1", true},
		{"a_b_c_n2", "n2", true},
		{"noidentity", "", false},
		{"trailing_", "", true},
	}
	for _, tt := range tests {
		got, ok := IdentityOf(tt.folder)
		if got != tt.want || ok != tt.ok {
			t.Errorf("IdentityOf(%q) = %q, %v", tt.folder, got, ok)
		}
	}
}
