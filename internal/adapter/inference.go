package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go-defect-analyzer/pkg/models"
)

// InferenceAdapter sends the image to a remote single-purpose image
// classifier and maps its label/score pairs into candidates. The model to
// query comes from settings, so operators can switch classifiers without a
// redeploy.
type InferenceAdapter struct {
	endpoint string
	apiKey   string
	timeout  time.Duration
	client   *http.Client
}

// NewInferenceAdapter creates the generic inference adapter.
func NewInferenceAdapter(endpoint, apiKey string, timeout time.Duration) *InferenceAdapter {
	return &InferenceAdapter{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		apiKey:   apiKey,
		timeout:  timeout,
		client:   &http.Client{Timeout: timeout},
	}
}

// Source identifies the generic inference backend.
func (a *InferenceAdapter) Source() models.Source {
	return models.SourceInference
}

// classification is one label/score pair from the classifier.
type classification struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Analyze posts the raw image bytes to the classifier endpoint.
func (a *InferenceAdapter) Analyze(ctx context.Context, req Request) models.AnalysisResult {
	start := time.Now()
	result := models.AnalysisResult{Source: models.SourceInference}

	modelID := req.Settings.InferenceModelID
	if modelID == "" {
		result.Error = "no inference model configured in settings"
		result.ElapsedSec = time.Since(start).Seconds()
		return result
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	classifications, err := a.classify(ctx, modelID, req.Image)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			result.Error = fmt.Sprintf("inference call timed out after %s", a.timeout)
		} else {
			result.Error = fmt.Sprintf("inference call failed: %v", err)
		}
		result.ElapsedSec = time.Since(start).Seconds()
		return result
	}

	candidates := make([]models.DetectionCandidate, 0, len(classifications))
	for _, c := range classifications {
		candidates = append(candidates, models.DetectionCandidate{
			Source:      models.SourceInference,
			Label:       c.Label,
			Confidence:  clamp(c.Score),
			Severity:    severityForLabel(c.Label),
			Description: fmt.Sprintf("classifier %s scored %q at %.2f", modelID, c.Label, c.Score),
		})
	}

	result.Success = true
	result.Candidates = truncate(candidates, req.Settings.MaxDetections)
	result.Summary = fmt.Sprintf("classifier returned %d labels", len(classifications))
	result.ElapsedSec = time.Since(start).Seconds()
	return result
}

// classify performs the HTTP exchange with the classifier.
func (a *InferenceAdapter) classify(ctx context.Context, modelID string, image []byte) ([]classification, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.endpoint+"/models/"+modelID, bytes.NewReader(image))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/octet-stream")
	httpReq.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("classifier returned status %d: %s", resp.StatusCode, firstLine(raw))
	}

	var classifications []classification
	if err := json.Unmarshal(raw, &classifications); err != nil {
		// Some inference servers nest the list one level deeper.
		var nested [][]classification
		if err2 := json.Unmarshal(raw, &nested); err2 != nil || len(nested) == 0 {
			return nil, fmt.Errorf("malformed classifier response: %w", err)
		}
		classifications = nested[0]
	}
	return classifications, nil
}

// severityForLabel maps known defect labels onto the severity scale used by
// the built-in rules; unknown labels default to moderate.
func severityForLabel(label string) models.Severity {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "mold", "wall-crack", "structural-crack":
		return models.SeveritySevere
	case "paint-peel", "discoloration":
		return models.SeverityMinor
	default:
		return models.SeverityModerate
	}
}
