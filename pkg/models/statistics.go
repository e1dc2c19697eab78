package models

import "strings"

// ChannelValues holds one statistic (mean, stddev, min or max) for each of
// the three color channels plus the derived luminance channel. Values are on
// the 0-255 scale regardless of the source image bit depth.
type ChannelValues struct {
	Red       float64 `json:"red"`
	Green     float64 `json:"green"`
	Blue      float64 `json:"blue"`
	Luminance float64 `json:"luminance"`
}

// ImageStatistics is the immutable per-request statistics sample the rule
// engine evaluates against. Derived from image bytes, never persisted.
type ImageStatistics struct {
	Mean   ChannelValues `json:"mean"`
	StdDev ChannelValues `json:"std_dev"`
	Min    ChannelValues `json:"min"`
	Max    ChannelValues `json:"max"`
	Width  int           `json:"width"`
	Height int           `json:"height"`
}

// Metric resolves a dotted statistic path such as "mean.blue" or
// "stddev.luminance". The second return value is false for unknown paths;
// rule clauses referencing one fail closed.
func (s ImageStatistics) Metric(path string) (float64, bool) {
	parts := strings.SplitN(strings.ToLower(path), ".", 2)
	if len(parts) != 2 {
		return 0, false
	}

	var cv ChannelValues
	switch parts[0] {
	case "mean":
		cv = s.Mean
	case "stddev", "std_dev":
		cv = s.StdDev
	case "min":
		cv = s.Min
	case "max":
		cv = s.Max
	default:
		return 0, false
	}

	switch parts[1] {
	case "red":
		return cv.Red, true
	case "green":
		return cv.Green, true
	case "blue":
		return cv.Blue, true
	case "luminance":
		return cv.Luminance, true
	default:
		return 0, false
	}
}
