package imagestats

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"

	apperrors "go-defect-analyzer/internal/errors"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func uniformImage(w, h int, c color.RGBA) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestExtractUniformImage(t *testing.T) {
	extractor := NewExtractor()
	data := encodePNG(t, uniformImage(8, 6, color.RGBA{R: 100, G: 105, B: 130, A: 255}))

	stats, err := extractor.Extract(data)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if stats.Width != 8 || stats.Height != 6 {
		t.Errorf("Expected 8x6, got %dx%d", stats.Width, stats.Height)
	}

	const tolerance = 0.01
	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"mean.red", stats.Mean.Red, 100},
		{"mean.green", stats.Mean.Green, 105},
		{"mean.blue", stats.Mean.Blue, 130},
		{"mean.luminance", stats.Mean.Luminance, (100 + 105 + 130) / 3.0},
		{"stddev.red", stats.StdDev.Red, 0},
		{"stddev.blue", stats.StdDev.Blue, 0},
		{"stddev.luminance", stats.StdDev.Luminance, 0},
		{"min.blue", stats.Min.Blue, 130},
		{"max.blue", stats.Max.Blue, 130},
	}
	for _, c := range checks {
		if math.Abs(c.got-c.want) > tolerance {
			t.Errorf("%s: expected %.3f, got %.3f", c.name, c.want, c.got)
		}
	}
}

func TestExtractTwoToneImage(t *testing.T) {
	extractor := NewExtractor()

	// Left half black, right half white: mean 127.5, population stddev 127.5.
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			v := uint8(0)
			if x >= 5 {
				v = 255
			}
			img.Set(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}

	stats, err := extractor.Extract(encodePNG(t, img))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if math.Abs(stats.Mean.Luminance-127.5) > 0.01 {
		t.Errorf("Expected mean luminance 127.5, got %.3f", stats.Mean.Luminance)
	}
	if math.Abs(stats.StdDev.Luminance-127.5) > 0.01 {
		t.Errorf("Expected stddev luminance 127.5, got %.3f", stats.StdDev.Luminance)
	}
	if stats.Min.Luminance > 0.01 {
		t.Errorf("Expected min luminance 0, got %.3f", stats.Min.Luminance)
	}
	if math.Abs(stats.Max.Luminance-255) > 0.01 {
		t.Errorf("Expected max luminance 255, got %.3f", stats.Max.Luminance)
	}
}

func TestExtractIsDeterministic(t *testing.T) {
	extractor := NewExtractor()

	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 16), G: uint8(y * 16), B: uint8((x + y) * 8), A: 255})
		}
	}
	data := encodePNG(t, img)

	first, err := extractor.Extract(data)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := extractor.Extract(data)
		if err != nil {
			t.Fatalf("Extract failed on run %d: %v", i, err)
		}
		if again != first {
			t.Fatalf("Run %d produced different statistics", i)
		}
	}
}

func TestExtractRejectsMalformedInput(t *testing.T) {
	extractor := NewExtractor()

	testCases := []struct {
		name string
		data []byte
	}{
		{"Empty input", nil},
		{"Not an image", []byte("definitely not an image")},
		{"Truncated header", []byte{0x89, 0x50, 0x4E, 0x47}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := extractor.Extract(tc.data)
			if err == nil {
				t.Fatal("Expected an error, got nil")
			}
			if !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
				t.Errorf("Expected validation error, got %v", err)
			}
		})
	}
}

func TestMetricPathResolution(t *testing.T) {
	extractor := NewExtractor()
	data := encodePNG(t, uniformImage(4, 4, color.RGBA{R: 50, G: 100, B: 150, A: 255}))

	stats, err := extractor.Extract(data)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if v, ok := stats.Metric("mean.blue"); !ok || math.Abs(v-150) > 0.01 {
		t.Errorf("mean.blue: ok=%v v=%.3f", ok, v)
	}
	if v, ok := stats.Metric("std_dev.green"); !ok || v > 0.01 {
		t.Errorf("std_dev.green: ok=%v v=%.3f", ok, v)
	}
	if _, ok := stats.Metric("median.blue"); ok {
		t.Error("median.blue should be unknown")
	}
	if _, ok := stats.Metric("mean.alpha"); ok {
		t.Error("mean.alpha should be unknown")
	}
	if _, ok := stats.Metric("mean"); ok {
		t.Error("path without a channel should be unknown")
	}
}
