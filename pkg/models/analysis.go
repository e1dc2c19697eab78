package models

import "time"

// Source identifies which analysis backend produced a result.
type Source string

const (
	SourceLocal       Source = "local"
	SourceCloudVision Source = "cloud-vision"
	SourceInference   Source = "generic-inference"
)

// Severity classifies how serious a detected defect is.
type Severity string

const (
	SeverityMinor    Severity = "minor"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// DetectionCandidate is one possible defect surfaced by an adapter.
// Candidates are per-request values and are never persisted.
type DetectionCandidate struct {
	Source         Source   `json:"source"`
	Label          string   `json:"label"`
	Confidence     float64  `json:"confidence"`
	Severity       Severity `json:"severity"`
	Description    string   `json:"description"`
	Recommendation string   `json:"recommendation,omitempty"`
}

// AnalysisResult is the outcome of one adapter invocation. Adapters never
// return Go errors; a failure is captured here with Success=false.
type AnalysisResult struct {
	Source     Source               `json:"source"`
	Success    bool                 `json:"success"`
	Candidates []DetectionCandidate `json:"candidates,omitempty"`
	Summary    string               `json:"summary,omitempty"`
	Error      string               `json:"error,omitempty"`
	ElapsedSec float64              `json:"elapsed_sec"`
}

// TopConfidence returns the highest candidate confidence, or 0 when the
// result carries no candidates.
func (r AnalysisResult) TopConfidence() float64 {
	top := 0.0
	for _, c := range r.Candidates {
		if c.Confidence > top {
			top = c.Confidence
		}
	}
	return top
}

// FinalDecision is the single arbitrated output of an analysis request.
// Source is nil when no backend produced a usable result; Reason then says
// why. This is a normal return value, not an error condition.
type FinalDecision struct {
	Source     *Source              `json:"source"`
	Candidates []DetectionCandidate `json:"candidates"`
	Reason     string               `json:"reason,omitempty"`
}

// Unavailable builds the sentinel decision used when nothing qualified.
func Unavailable(reason string) FinalDecision {
	return FinalDecision{Source: nil, Candidates: []DetectionCandidate{}, Reason: reason}
}

// DecisionOutcome is the full record of one analysis request: every adapter
// response tagged by source plus the arbitrated final decision.
type DecisionOutcome struct {
	RequestID string           `json:"request_id"`
	Mode      string           `json:"mode"`
	Provider  string           `json:"provider,omitempty"`
	Responses []AnalysisResult `json:"responses"`
	Final     FinalDecision    `json:"final_detection"`
	Timestamp time.Time        `json:"timestamp"`
}
