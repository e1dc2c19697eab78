package adapter

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go-defect-analyzer/pkg/models"
)

// defectTaxonomyPrompt instructs the multimodal model to answer with a
// machine-parseable detection list using the same labels as the built-in
// rules.
const defectTaxonomyPrompt = `You are a building inspection assistant. Examine the attached photograph for building defects.
Known defect labels: water-leak, mold, wall-crack, paint-peel, tile-crack, other.
Respond with JSON only, no prose, in this exact shape:
{"detections":[{"label":"<defect label>","confidence":<0..1>,"severity":"minor|moderate|severe","description":"<what you see>","recommendation":"<suggested remedy>"}]}
Use an empty detections array if the photograph shows no defect.`

// CloudVisionAdapter sends the image plus the defect taxonomy prompt to an
// OpenAI-compatible chat-completions endpoint and parses the structured
// reply. A reply that cannot be parsed as JSON degrades to a zero-candidate
// success carrying the raw text, not an error.
type CloudVisionAdapter struct {
	endpoint string
	apiKey   string
	model    string
	timeout  time.Duration
	client   *http.Client
}

// NewCloudVisionAdapter creates the cloud vision-language adapter. The
// caller guarantees the credentials are present; unconfigured backends are
// treated as disabled before invocation, not here.
func NewCloudVisionAdapter(endpoint, apiKey, model string, timeout time.Duration) *CloudVisionAdapter {
	return &CloudVisionAdapter{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		apiKey:   apiKey,
		model:    model,
		timeout:  timeout,
		client:   &http.Client{Timeout: timeout},
	}
}

// Source identifies the cloud vision-language backend.
func (a *CloudVisionAdapter) Source() models.Source {
	return models.SourceCloudVision
}

type chatMessageContent struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL *struct {
		URL string `json:"url"`
	} `json:"image_url,omitempty"`
}

type chatRequest struct {
	Model       string `json:"model"`
	Temperature float64 `json:"temperature"`
	Messages    []struct {
		Role    string               `json:"role"`
		Content []chatMessageContent `json:"content"`
	} `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Analyze performs the remote multimodal call.
func (a *CloudVisionAdapter) Analyze(ctx context.Context, req Request) models.AnalysisResult {
	start := time.Now()
	result := models.AnalysisResult{Source: models.SourceCloudVision}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	content, err := a.complete(ctx, req.Image)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			result.Error = fmt.Sprintf("cloud vision call timed out after %s", a.timeout)
		} else {
			result.Error = fmt.Sprintf("cloud vision call failed: %v", err)
		}
		result.ElapsedSec = time.Since(start).Seconds()
		return result
	}

	detections, ok := parseDetections(content)
	result.Success = true
	if !ok {
		// Unstructured reply: degrade to a zero-candidate result carrying
		// the raw text so operators can see what the model said.
		result.Candidates = nil
		result.Summary = strings.TrimSpace(content)
		result.ElapsedSec = time.Since(start).Seconds()
		return result
	}

	candidates := make([]models.DetectionCandidate, 0, len(detections))
	for _, d := range detections {
		candidates = append(candidates, models.DetectionCandidate{
			Source:         models.SourceCloudVision,
			Label:          d.Label,
			Confidence:     clamp(d.Confidence),
			Severity:       normalizeSeverity(d.Severity),
			Description:    d.Description,
			Recommendation: d.Recommendation,
		})
	}
	result.Candidates = truncate(candidates, req.Settings.MaxDetections)
	result.Summary = fmt.Sprintf("model reported %d detections", len(detections))
	result.ElapsedSec = time.Since(start).Seconds()
	return result
}

// complete performs the chat-completions HTTP exchange and returns the
// model's reply text.
func (a *CloudVisionAdapter) complete(ctx context.Context, image []byte) (string, error) {
	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image)

	payload := chatRequest{Model: a.model, Temperature: 0}
	payload.Messages = make([]struct {
		Role    string               `json:"role"`
		Content []chatMessageContent `json:"content"`
	}, 1)
	payload.Messages[0].Role = "user"
	payload.Messages[0].Content = []chatMessageContent{
		{Type: "text", Text: defectTaxonomyPrompt},
		{Type: "image_url", ImageURL: &struct {
			URL string `json:"url"`
		}{URL: dataURL}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.endpoint+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("provider returned status %d: %s", resp.StatusCode, firstLine(raw))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("provider returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

func firstLine(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}

func normalizeSeverity(s string) models.Severity {
	switch models.Severity(strings.ToLower(strings.TrimSpace(s))) {
	case models.SeverityMinor:
		return models.SeverityMinor
	case models.SeveritySevere:
		return models.SeveritySevere
	default:
		return models.SeverityModerate
	}
}
