// Package imagestats computes per-channel intensity statistics for defect
// rule evaluation. Extraction is deterministic: identical bytes always yield
// identical statistics.
package imagestats

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	apperrors "go-defect-analyzer/internal/errors"
	"go-defect-analyzer/pkg/models"
)

// Extractor decodes raster images and computes their channel statistics.
type Extractor interface {
	Extract(data []byte) (models.ImageStatistics, error)
}

type extractor struct{}

// NewExtractor creates a statistics extractor supporting JPEG, PNG, GIF,
// WebP, BMP and TIFF input.
func NewExtractor() Extractor {
	return &extractor{}
}

// Extract decodes the image and computes mean, standard deviation, min and
// max per color channel on the 0-255 scale. Malformed input yields a
// validation error and no partial statistics.
func (e *extractor) Extract(data []byte) (models.ImageStatistics, error) {
	if len(data) == 0 {
		return models.ImageStatistics{}, apperrors.NewValidationError("empty image data", nil)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return models.ImageStatistics{}, apperrors.NewValidationError("undecodable image data", err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return models.ImageStatistics{}, apperrors.NewValidationError("image has no pixels", nil)
	}

	n := width * height
	reds := make([]float64, 0, n)
	greens := make([]float64, 0, n)
	blues := make([]float64, 0, n)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			// 16-bit channel values scaled onto the 0-255 range
			reds = append(reds, float64(r)/257.0)
			greens = append(greens, float64(g)/257.0)
			blues = append(blues, float64(b)/257.0)
		}
	}

	stats := models.ImageStatistics{
		Width:  width,
		Height: height,
		Mean: models.ChannelValues{
			Red:   stat.Mean(reds, nil),
			Green: stat.Mean(greens, nil),
			Blue:  stat.Mean(blues, nil),
		},
		StdDev: models.ChannelValues{
			Red:   stat.PopStdDev(reds, nil),
			Green: stat.PopStdDev(greens, nil),
			Blue:  stat.PopStdDev(blues, nil),
		},
		Min: models.ChannelValues{
			Red:   floats.Min(reds),
			Green: floats.Min(greens),
			Blue:  floats.Min(blues),
		},
		Max: models.ChannelValues{
			Red:   floats.Max(reds),
			Green: floats.Max(greens),
			Blue:  floats.Max(blues),
		},
	}

	// Luminance is derived per statistic as the arithmetic mean of the three
	// color channels.
	stats.Mean.Luminance = channelAverage(stats.Mean)
	stats.StdDev.Luminance = channelAverage(stats.StdDev)
	stats.Min.Luminance = channelAverage(stats.Min)
	stats.Max.Luminance = channelAverage(stats.Max)

	return stats, nil
}

func channelAverage(cv models.ChannelValues) float64 {
	return (cv.Red + cv.Green + cv.Blue) / 3.0
}
