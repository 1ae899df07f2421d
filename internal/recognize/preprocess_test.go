package recognize

import (
	"bytes"
	"image"
	"image/png"
	"testing"
)

func TestPreprocessScalesAndEncodesPNG(t *testing.T) {
	data := testImage(t)

	out, err := Preprocess(data, 2)
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}

	img, format, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if format != "png" {
		t.Fatalf("output format = %q, want png", format)
	}
	bounds := img.Bounds()
	if bounds.Dx() != 40 || bounds.Dy() != 20 {
		t.Fatalf("output size = %dx%d, want 40x20", bounds.Dx(), bounds.Dy())
	}
}

func TestPreprocessUnitScaleKeepsDimensions(t *testing.T) {
	out, err := Preprocess(testImage(t), 1)
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	img, _, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if img.Bounds().Dx() != 20 || img.Bounds().Dy() != 10 {
		t.Fatalf("output size = %dx%d, want 20x10", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestPreprocessRejectsGarbage(t *testing.T) {
	if _, err := Preprocess([]byte("garbage"), 2); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestPreprocessIsGrayscale(t *testing.T) {
	out, err := Preprocess(testImage(t), 2)
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if _, ok := img.(*image.Gray); !ok {
		t.Fatalf("output image type = %T, want *image.Gray", img)
	}
}
