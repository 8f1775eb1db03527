package cards

import (
	"image"
	"image/color"
	"testing"
)

func TestFitPreservesAspectAndNeverEnlarges(t *testing.T) {
	wide := image.NewRGBA(image.Rect(0, 0, 200, 100))
	got := Fit(wide, 50, 50).Bounds()
	if got.Dx() != 50 || got.Dy() != 25 {
		t.Fatalf("expected 50x25, got %v", got)
	}

	small := image.NewRGBA(image.Rect(0, 0, 10, 10))
	if Fit(small, 50, 50) != image.Image(small) {
		t.Fatal("expected small image returned unchanged")
	}
}

func TestParseHex(t *testing.T) {
	got, err := parseHex("#6B46C1")
	if err != nil {
		t.Fatalf("parseHex: %v", err)
	}
	if got != (color.NRGBA{R: 0x6B, G: 0x46, B: 0xC1, A: 0xFF}) {
		t.Fatalf("unexpected colour %+v", got)
	}
	withAlpha, err := parseHex("#000000B4")
	if err != nil || withAlpha.A != 0xB4 {
		t.Fatalf("unexpected alpha parse %+v, %v", withAlpha, err)
	}
	for _, bad := range []string{"", "6B46C1", "#6B46C", "#GGGGGG"} {
		if _, err := parseHex(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestRoundedMaskClipsCorners(t *testing.T) {
	m := &roundedMask{rect: image.Rect(0, 0, 20, 20), radius: 5}
	if a := m.At(0, 0).(color.Alpha).A; a != 0 {
		t.Fatalf("corner should be transparent, got %d", a)
	}
	if a := m.At(10, 0).(color.Alpha).A; a != 0xFF {
		t.Fatalf("edge midpoint should be opaque, got %d", a)
	}
	if a := m.At(10, 10).(color.Alpha).A; a != 0xFF {
		t.Fatalf("centre should be opaque, got %d", a)
	}
}
