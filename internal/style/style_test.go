package style

import (
	"image/color"
	"testing"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.NRGBA
	}{
		{"#fff", color.NRGBA{255, 255, 255, 255}},
		{"#FF0000", color.NRGBA{255, 0, 0, 255}},
		{"#00ff0080", color.NRGBA{0, 255, 0, 128}},
		{"black", color.NRGBA{0, 0, 0, 255}},
		{" Yellow ", color.NRGBA{255, 255, 0, 255}},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if err != nil {
			t.Errorf("ParseColor(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseColorInvalid(t *testing.T) {
	for _, in := range []string{"", "#12", "#zzzzzz", "chartreuse-ish", "12345"} {
		if _, err := ParseColor(in); err == nil {
			t.Errorf("ParseColor(%q) expected error", in)
		}
	}
}

func TestFormatColorRoundTrip(t *testing.T) {
	c := color.NRGBA{R: 0x12, G: 0x34, B: 0x56, A: 0xff}
	if got := FormatColor(c); got != "#123456" {
		t.Errorf("FormatColor = %q", got)
	}
}

func TestIsBold(t *testing.T) {
	tests := map[string]bool{"bold": true, "700": true, "600": true, "500": false, "normal": false, "": false}
	for in, want := range tests {
		if got := IsBold(in); got != want {
			t.Errorf("IsBold(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestValidate(t *testing.T) {
	s := Default()
	if err := s.Validate(); err != nil {
		t.Fatalf("default style invalid: %v", err)
	}
	s.Position = 101
	if err := s.Validate(); err == nil {
		t.Error("expected error for position > 100")
	}
	s = Default()
	s.DisplayMode = "marquee"
	if err := s.Validate(); err == nil {
		t.Error("expected error for unknown display mode")
	}
	s = Default()
	s.Weight = "heavy"
	if err := s.Validate(); err == nil {
		t.Error("expected error for unknown weight")
	}
}
