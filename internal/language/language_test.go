package language

import "testing"

func TestCanonical(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in   string
		want string
	}{
		{"ru", "ru"},
		{"rus", "ru"},
		{"ru-RU", "ru"},
		{"russian", "ru"},
		{"EN", "en"},
		{"english", "en"},
		{"auto", ""},
		{"", ""},
		{"zz-not-a-language", ""},
	}
	for _, tc := range cases {
		if got := Canonical(tc.in); got != tc.want {
			t.Errorf("Canonical(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestIsAuto(t *testing.T) {
	t.Parallel()
	if !IsAuto("") || !IsAuto("auto") || !IsAuto(" AUTO ") {
		t.Fatal("expected auto detection for empty/auto values")
	}
	if IsAuto("ru") {
		t.Fatal("explicit code should not be auto")
	}
}

func TestDisplayName(t *testing.T) {
	t.Parallel()
	if got := DisplayName("ru"); got != "Russian" {
		t.Fatalf("DisplayName(ru) = %q", got)
	}
	if got := DisplayName("auto"); got != "auto" {
		t.Fatalf("DisplayName(auto) = %q", got)
	}
}
