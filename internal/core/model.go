package core

import (
	"time"
)

// AnalysisStatus reflects the outcome of one analysis submission.
type AnalysisStatus string

const (
	StatusComplete AnalysisStatus = "complete"
	StatusFailed   AnalysisStatus = "failed"
)

// Severity classifies a single detected bias.
type Severity string

const (
	SeverityLow      Severity = "Low"
	SeverityModerate Severity = "Moderate"
	SeverityHigh     Severity = "High"
	SeverityCritical Severity = "Critical"
)

// ParseSeverity maps an upstream severity string onto the known levels.
// Unrecognized or empty input maps to Moderate.
func ParseSeverity(s string) Severity {
	switch normalizeEnum(s) {
	case "low":
		return SeverityLow
	case "moderate", "medium":
		return SeverityModerate
	case "high":
		return SeverityHigh
	case "critical":
		return SeverityCritical
	default:
		return SeverityModerate
	}
}

// Reliability grades how trustworthy the detection run itself is.
type Reliability string

const (
	ReliabilityHigh     Reliability = "High"
	ReliabilityModerate Reliability = "Moderate"
	ReliabilityLow      Reliability = "Low"
)

// ParseReliability maps an upstream reliability string case-insensitively.
// Anything unrecognized, including the empty string, maps to Moderate.
func ParseReliability(s string) Reliability {
	switch normalizeEnum(s) {
	case "high":
		return ReliabilityHigh
	case "low":
		return ReliabilityLow
	default:
		return ReliabilityModerate
	}
}

// DatasetSummary carries the basic shape and statistics of the analyzed
// dataset. Absent upstream fields default to 0, never to negative values.
type DatasetSummary struct {
	Rows     int     `json:"rows"`
	Columns  int     `json:"columns"`
	Mean     float64 `json:"mean"`
	Median   float64 `json:"median"`
	Mode     float64 `json:"mode"`
	Max      float64 `json:"max"`
	Min      float64 `json:"min"`
	StdDev   float64 `json:"stdDev"`
	Variance float64 `json:"variance"`
}

// BiasEntry is one detected-bias finding tied to a dataset column or
// feature. AIExplanation is already sanitized when the entry is built;
// raw upstream text is never stored here.
type BiasEntry struct {
	ID            string   `json:"id"`
	BiasType      string   `json:"bias_type"`
	Column        string   `json:"column"`
	Severity      Severity `json:"severity"`
	Description   string   `json:"description"`
	AIExplanation string   `json:"ai_explanation"`
	Definition    string   `json:"definition"`
}

// Assessment holds the document-level AI commentary on the dataset.
type Assessment struct {
	Fairness        string   `json:"fairness"`
	Recommendations []string `json:"recommendations"`
	Conclusion      string   `json:"conclusion"`
}

// AnalysisResult is the canonical record every upstream response variant
// is converted into. It is constructed once per successful submission or
// cache load and treated as read-only afterwards; consumers that need to
// mutate (history, comparison) work on a Clone.
type AnalysisResult struct {
	ID          string         `json:"id"`
	DatasetName string         `json:"datasetName"`
	UploadDate  time.Time      `json:"uploadDate"`
	Status      AnalysisStatus `json:"status"`

	Dataset DatasetSummary `json:"dataset"`

	FairnessScore float64       `json:"fairnessScore"`
	FairnessLabel FairnessLabel `json:"fairnessLabel"`
	BiasRisk      BiasRisk      `json:"biasRisk"`

	ReliabilityLevel   Reliability `json:"reliabilityLevel"`
	ReliabilityMessage string      `json:"reliabilityMessage,omitempty"`
	OverallMessage     string      `json:"overallMessage"`

	TotalBiases     int            `json:"totalBiases"`
	SeveritySummary map[string]int `json:"severitySummary,omitempty"`
	DetectedBiases  []BiasEntry    `json:"detectedBiases"`

	Assessment Assessment `json:"assessment"`

	// Opaque pass-through payloads for the presentation layer. The
	// pipeline never inspects these beyond carrying them along.
	Distributions map[string]any   `json:"distributions,omitempty"`
	RawBiasReport []map[string]any `json:"rawBiasReport,omitempty"`
	Plots         map[string]any   `json:"plots,omitempty"`
}

// Clone returns a deep copy. History and comparison features copy-read
// results, so stored records are never shared with callers by reference.
func (r *AnalysisResult) Clone() *AnalysisResult {
	if r == nil {
		return nil
	}
	out := *r
	if r.DetectedBiases != nil {
		out.DetectedBiases = make([]BiasEntry, len(r.DetectedBiases))
		copy(out.DetectedBiases, r.DetectedBiases)
	}
	if r.SeveritySummary != nil {
		out.SeveritySummary = make(map[string]int, len(r.SeveritySummary))
		for k, v := range r.SeveritySummary {
			out.SeveritySummary[k] = v
		}
	}
	if r.Assessment.Recommendations != nil {
		out.Assessment.Recommendations = append([]string(nil), r.Assessment.Recommendations...)
	}
	out.Distributions = cloneAnyMap(r.Distributions)
	out.Plots = cloneAnyMap(r.Plots)
	if r.RawBiasReport != nil {
		out.RawBiasReport = make([]map[string]any, len(r.RawBiasReport))
		for i, m := range r.RawBiasReport {
			out.RawBiasReport[i] = cloneAnyMap(m)
		}
	}
	return &out
}

// cloneAnyMap shallow-copies the top level of an opaque payload map.
// Nested values stay shared; the pipeline treats them as immutable.
func cloneAnyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
