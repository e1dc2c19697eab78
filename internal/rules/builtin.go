package rules

import "go-defect-analyzer/pkg/models"

// BuiltinRules returns the five default defect heuristics. Each is a native
// predicate over the 0-255 channel statistics; the thresholds are fixed and
// documented inline so custom rule sets can be written against the same
// scale.
func BuiltinRules() []Rule {
	return []Rule{
		{
			ID:             "water-leak",
			Label:          "Water leak stain",
			Severity:       models.SeverityModerate,
			Description:    "Blue-shifted even tone typical of damp or water-stained surfaces",
			Recommendation: "Trace the moisture source and check plumbing and waterproofing above the stain",
			// blue dominates red by >10, blue tone is even (stddev < 25)
			// and bright enough (mean > 110)
			predicate: func(s models.ImageStatistics) bool {
				return s.Mean.Blue-s.Mean.Red > 10 &&
					s.StdDev.Blue < 25 &&
					s.Mean.Blue > 110
			},
		},
		{
			ID:             "mold",
			Label:          "Mold growth",
			Severity:       models.SeveritySevere,
			Description:    "Green-shifted mottled texture on a dark surface",
			Recommendation: "Improve ventilation and have the affected area treated before repainting",
			// green dominates red by >8 on a dark (mean luminance < 120),
			// speckled (green stddev > 30) surface
			predicate: func(s models.ImageStatistics) bool {
				return s.Mean.Green-s.Mean.Red > 8 &&
					s.Mean.Luminance < 120 &&
					s.StdDev.Green > 30
			},
		},
		{
			ID:             "wall-crack",
			Label:          "Wall crack",
			Severity:       models.SeveritySevere,
			Description:    "High-contrast linear feature across an otherwise uniform wall",
			Recommendation: "Monitor the crack width and consult a structural engineer if it exceeds 3mm",
			// strong contrast (luminance stddev > 45) with near-black pixels
			// (min < 30) on a light wall (mean luminance > 100)
			predicate: func(s models.ImageStatistics) bool {
				return s.StdDev.Luminance > 45 &&
					s.Min.Luminance < 30 &&
					s.Mean.Luminance > 100
			},
		},
		{
			ID:             "paint-peel",
			Label:          "Peeling paint",
			Severity:       models.SeverityMinor,
			Description:    "Wide tonal range with bright exposed patches suggesting flaking paint",
			Recommendation: "Scrape loose paint, sand and reprime before repainting",
			// full tonal range (max-min > 180) with moderate, not extreme,
			// texture (luminance stddev in 30..70)
			predicate: func(s models.ImageStatistics) bool {
				return s.Max.Luminance-s.Min.Luminance > 180 &&
					s.StdDev.Luminance >= 30 && s.StdDev.Luminance <= 70 &&
					s.Mean.Luminance > 130
			},
		},
		{
			ID:             "tile-crack",
			Label:          "Cracked tile",
			Severity:       models.SeverityModerate,
			Description:    "Dark fracture lines across a bright glazed surface",
			Recommendation: "Replace the affected tiles and check the substrate for movement",
			// bright glazed background (mean luminance > 140) cut by dark
			// lines (min < 40) with pronounced contrast (stddev > 50)
			predicate: func(s models.ImageStatistics) bool {
				return s.Mean.Luminance > 140 &&
					s.Min.Luminance < 40 &&
					s.StdDev.Luminance > 50
			},
		},
	}
}
