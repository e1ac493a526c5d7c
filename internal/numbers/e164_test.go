package numbers

import "testing"

func TestNormalizeE164(t *testing.T) {
	cases := map[string]string{
		"":                  "",
		"   ":               "",
		"+1 (555) 123-4567": "+15551234567",
		"+44 20 7123 4567":  "+442071234567",
		"5551234567":        "+15551234567",
		"(555) 123-4567":    "+15551234567",
		"15551234567":       "+15551234567",
		"1-555-123-4567":    "+15551234567",
		"442071234567":      "+442071234567",
		"25551234567":       "+25551234567",
	}
	for in, want := range cases {
		if got := NormalizeE164(in); got != want {
			t.Errorf("NormalizeE164(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLooksDialable(t *testing.T) {
	if looksDialable("+") || looksDialable("") || looksDialable("+1a") {
		t.Fatalf("expected non-dialable inputs to be rejected")
	}
	if !looksDialable("+15551234567") {
		t.Fatalf("expected E.164 number to be dialable")
	}
}
