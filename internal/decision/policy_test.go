package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-defect-analyzer/internal/settings"
	"go-defect-analyzer/pkg/models"
)

func okResult(source models.Source, confidences ...float64) models.AnalysisResult {
	r := models.AnalysisResult{Source: source, Success: true}
	for _, c := range confidences {
		r.Candidates = append(r.Candidates, models.DetectionCandidate{
			Source: source, Label: "water-leak", Confidence: c,
			Severity: models.SeverityModerate,
		})
	}
	return r
}

func failedResult(source models.Source, msg string) models.AnalysisResult {
	return models.AnalysisResult{Source: source, Error: msg}
}

func TestSelectSingleLocal(t *testing.T) {
	final := Select(settings.ModeSingleLocal, []models.AnalysisResult{
		okResult(models.SourceLocal, 0.65),
	})
	require.NotNil(t, final.Source)
	assert.Equal(t, models.SourceLocal, *final.Source)
	assert.Len(t, final.Candidates, 1)
}

func TestSelectSingleLocalEmptySuccessQualifies(t *testing.T) {
	// A successful local run with no matched rules is a definitive "no defect
	// found", not an absence of a result.
	final := Select(settings.ModeSingleLocal, []models.AnalysisResult{
		okResult(models.SourceLocal),
	})
	require.NotNil(t, final.Source)
	assert.Equal(t, models.SourceLocal, *final.Source)
	assert.NotNil(t, final.Candidates)
	assert.Empty(t, final.Candidates)
	assert.Empty(t, final.Reason)
}

func TestSelectRemoteEmptySuccessDoesNotQualify(t *testing.T) {
	final := Select(settings.ModeSingleCloudVision, []models.AnalysisResult{
		okResult(models.SourceCloudVision),
	})
	assert.Nil(t, final.Source)
	assert.Equal(t, ReasonNoResult, final.Reason)
}

func TestSelectSingleModeNeverFallsBack(t *testing.T) {
	// Cloud vision failed, but a healthy local result is in the bag. In a
	// single-provider mode it must be ignored.
	final := Select(settings.ModeSingleCloudVision, []models.AnalysisResult{
		okResult(models.SourceLocal, 0.65),
		failedResult(models.SourceCloudVision, "401 unauthorized"),
	})
	assert.Nil(t, final.Source)
	assert.Equal(t, ReasonNoResult, final.Reason)
	assert.NotNil(t, final.Candidates)
	assert.Empty(t, final.Candidates)
}

func TestSelectHybridPriority(t *testing.T) {
	testCases := []struct {
		name    string
		results []models.AnalysisResult
		want    *models.Source
	}{
		{
			name: "Inference beats cloud vision and local",
			results: []models.AnalysisResult{
				okResult(models.SourceLocal, 0.9),
				okResult(models.SourceCloudVision, 0.95),
				okResult(models.SourceInference, 0.7),
			},
			want: sourcePtr(models.SourceInference),
		},
		{
			name: "Cloud vision beats local",
			results: []models.AnalysisResult{
				okResult(models.SourceLocal, 0.9),
				okResult(models.SourceCloudVision, 0.7),
			},
			want: sourcePtr(models.SourceCloudVision),
		},
		{
			name: "Local wins when remotes fail",
			results: []models.AnalysisResult{
				okResult(models.SourceLocal, 0.5),
				failedResult(models.SourceInference, "timeout"),
			},
			want: sourcePtr(models.SourceLocal),
		},
		{
			name: "Empty remote success falls through to local",
			results: []models.AnalysisResult{
				okResult(models.SourceLocal, 0.5),
				okResult(models.SourceInference),
			},
			want: sourcePtr(models.SourceLocal),
		},
		{
			name: "Everything failed",
			results: []models.AnalysisResult{
				failedResult(models.SourceLocal, "extraction failed"),
				failedResult(models.SourceCloudVision, "503"),
			},
			want: nil,
		},
		{
			name:    "No results at all",
			results: nil,
			want:    nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			final := Select(settings.ModeHybrid, tc.results)
			if tc.want == nil {
				assert.Nil(t, final.Source)
				assert.Equal(t, ReasonNoResult, final.Reason)
			} else {
				require.NotNil(t, final.Source)
				assert.Equal(t, *tc.want, *final.Source)
			}
		})
	}
}

func TestSelectIgnoresResultOrder(t *testing.T) {
	a := []models.AnalysisResult{
		okResult(models.SourceLocal, 0.5),
		okResult(models.SourceCloudVision, 0.7),
	}
	b := []models.AnalysisResult{a[1], a[0]}

	finalA := Select(settings.ModeHybrid, a)
	finalB := Select(settings.ModeHybrid, b)
	require.NotNil(t, finalA.Source)
	require.NotNil(t, finalB.Source)
	assert.Equal(t, *finalA.Source, *finalB.Source)
}

func sourcePtr(s models.Source) *models.Source { return &s }
