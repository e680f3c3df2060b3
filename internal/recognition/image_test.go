package recognition

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func decodeSize(t *testing.T, data []byte) (int, int) {
	t.Helper()
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to decode result: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("expected jpeg output, got %s", format)
	}
	return cfg.Width, cfg.Height
}

func TestDownscale_ShrinksWideImage(t *testing.T) {
	out, err := Downscale(testJPEG(t, 400, 100), 200)
	if err != nil {
		t.Fatalf("Downscale() error: %v", err)
	}
	w, h := decodeSize(t, out)
	if w != 200 || h != 50 {
		t.Errorf("got %dx%d, want 200x50", w, h)
	}
}

func TestDownscale_ShrinksTallImage(t *testing.T) {
	out, err := Downscale(testJPEG(t, 100, 400), 200)
	if err != nil {
		t.Fatalf("Downscale() error: %v", err)
	}
	w, h := decodeSize(t, out)
	if w != 50 || h != 200 {
		t.Errorf("got %dx%d, want 50x200", w, h)
	}
}

func TestDownscale_KeepsSmallImage(t *testing.T) {
	out, err := Downscale(testJPEG(t, 80, 60), 200)
	if err != nil {
		t.Fatalf("Downscale() error: %v", err)
	}
	w, h := decodeSize(t, out)
	if w != 80 || h != 60 {
		t.Errorf("got %dx%d, want original 80x60", w, h)
	}
}

func TestDownscale_ConvertsPNG(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			src.Set(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 4), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatal(err)
	}

	out, err := Downscale(buf.Bytes(), 200)
	if err != nil {
		t.Fatalf("Downscale() error: %v", err)
	}
	decodeSize(t, out) // asserts jpeg format
}

func TestDownscale_RejectsGarbage(t *testing.T) {
	if _, err := Downscale([]byte("not an image"), 200); err == nil {
		t.Error("expected error for undecodable data")
	}
}
