package analysis

import (
	"strings"
	"testing"

	"github.com/d-bias/dbias-go/internal/core"
)

func TestNormalize_GroupedByType(t *testing.T) {
	n := NewNormalizer()
	result, err := n.Normalize(decode(t, `{
		"fairness_score": 55,
		"biases": {
			"Representation Bias": [
				{"column": "sex", "severity": "High", "description": "skewed"},
				{"column": "race", "severity": "Moderate", "description": "uneven"}
			],
			"Correlation Bias": [
				{"column": "age", "severity": "Low", "description": "linked"}
			]
		}
	}`), "d.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.DetectedBiases) != 3 {
		t.Fatalf("expected 3 entries, got %v", result.DetectedBiases)
	}

	// Types are walked alphabetically; entries keep their order inside
	// each group.
	first := result.DetectedBiases[0]
	if first.BiasType != "Correlation Bias" || first.Column != "age" {
		t.Errorf("first entry = %+v", first)
	}
	if first.ID != "correlation_bias_0" {
		t.Errorf("synthesized id = %q", first.ID)
	}
	if got := result.DetectedBiases[1]; got.ID != "representation_bias_0" || got.Column != "sex" {
		t.Errorf("second entry = %+v", got)
	}
	if got := result.DetectedBiases[2]; got.ID != "representation_bias_1" || got.Column != "race" {
		t.Errorf("third entry = %+v", got)
	}
}

func TestNormalize_FlatCrossRef(t *testing.T) {
	payload := `{
		"fairness_score": 48,
		"biases": [
			{"id": "bias_0003", "description": "from summary"},
			{"id": "bias_9999", "description": "dangling"}
		],
		"detailed_report": [
			{"Type": "Outlier Bias", "Feature": "income", "Severity": "Critical"},
			{"Type": "Missing Data Bias", "Feature": "zip", "Severity": "Low"},
			{"Type": "Representation Bias", "Feature": "sex", "Severity": "High"}
		]
	}`
	n := NewNormalizer()
	result, err := n.Normalize(decode(t, payload), "d.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.DetectedBiases) != 2 {
		t.Fatalf("entries = %v", result.DetectedBiases)
	}

	// 0003 resolves 1-based against the report, so index 2.
	resolved := result.DetectedBiases[0]
	if resolved.BiasType != "Representation Bias" || resolved.Column != "sex" {
		t.Errorf("cross-ref backfill failed: %+v", resolved)
	}
	if resolved.Severity != core.SeverityHigh {
		t.Errorf("severity should come from the report, got %q", resolved.Severity)
	}

	// 9999 is out of range: fields stay blank, nothing panics.
	dangling := result.DetectedBiases[1]
	if dangling.BiasType != "" || dangling.Column != "" {
		t.Errorf("out-of-range cross-ref should leave fields blank: %+v", dangling)
	}
	if dangling.Severity != core.SeverityModerate {
		t.Errorf("severity default = %q", dangling.Severity)
	}
}

func TestBuildEntry_SeverityFallbackChain(t *testing.T) {
	tests := []struct {
		name   string
		entry  map[string]any
		detail map[string]any
		want   core.Severity
	}{
		{"from entry", map[string]any{"severity": "Critical"}, map[string]any{"Severity": "Low"}, core.SeverityCritical},
		{"from report", map[string]any{}, map[string]any{"Severity": "Low"}, core.SeverityLow},
		{"default", map[string]any{}, nil, core.SeverityModerate},
		{"unrecognized", map[string]any{"severity": "catastrophic"}, nil, core.SeverityModerate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildEntry(tt.entry, tt.detail, "fb", map[string]bool{})
			if got.Severity != tt.want {
				t.Errorf("severity = %q, want %q", got.Severity, tt.want)
			}
		})
	}
}

func TestBuildEntry_DefinitionFallsBackToType(t *testing.T) {
	entry := buildEntry(map[string]any{"bias_type": "Outlier Bias"}, nil, "fb", map[string]bool{})
	if entry.Definition != "Outlier Bias" {
		t.Errorf("definition = %q", entry.Definition)
	}

	explicit := buildEntry(map[string]any{"bias_type": "Outlier Bias", "definition": "extreme values"}, nil, "fb", map[string]bool{})
	if explicit.Definition != "extreme values" {
		t.Errorf("explicit definition = %q", explicit.Definition)
	}
}

func TestBuildEntry_ExplanationSanitized(t *testing.T) {
	entry := buildEntry(map[string]any{
		"description":    "column skews male",
		"ai_explanation": "Real detail here.\n\nActionable Recommendations:\n1. global advice",
	}, nil, "fb", map[string]bool{})

	if entry.AIExplanation != "Real detail here." {
		t.Errorf("explanation = %q", entry.AIExplanation)
	}

	empty := buildEntry(map[string]any{"description": "column skews male"}, nil, "fb", map[string]bool{})
	if empty.AIExplanation != "column skews male" {
		t.Errorf("explanation fallback = %q", empty.AIExplanation)
	}
}

func TestBuildEntry_MultiColumnJoined(t *testing.T) {
	entry := buildEntry(map[string]any{"columns": []any{"sex", "race"}}, nil, "fb", map[string]bool{})
	if entry.Column != "sex, race" {
		t.Errorf("column = %q", entry.Column)
	}
}

func TestNormalize_EntryIDsUnique(t *testing.T) {
	n := NewNormalizer()
	result, err := n.Normalize(decode(t, `{
		"fairness_score": 50,
		"biases": [
			{"id": "dup", "description": "a"},
			{"id": "dup", "description": "b"},
			{"description": "c"}
		]
	}`), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seen := map[string]bool{}
	for _, b := range result.DetectedBiases {
		if b.ID == "" {
			t.Error("entry with empty id")
		}
		if seen[b.ID] {
			t.Errorf("duplicate id %q", b.ID)
		}
		seen[b.ID] = true
	}
}

func TestCrossRefIndex(t *testing.T) {
	tests := []struct {
		id     string
		want   int
		wantOK bool
	}{
		{"bias_0003", 2, true},
		{"bias_0001", 0, true},
		{"corr_9999", 9998, true},
		{"bias_0000", 0, false},
		{"bias_12", 0, false},
		{"no-digits", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := crossRefIndex(tt.id)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("crossRefIndex(%q) = (%d, %v), want (%d, %v)", tt.id, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestNormalize_MalformedEntriesSkipped(t *testing.T) {
	n := NewNormalizer()
	result, err := n.Normalize(decode(t, `{
		"fairness_score": 50,
		"biases": ["just a string", 42, {"id": "real", "description": "ok"}]
	}`), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.DetectedBiases) != 1 || result.DetectedBiases[0].ID != "real" {
		t.Errorf("entries = %+v", result.DetectedBiases)
	}
	if !strings.Contains(result.DetectedBiases[0].Description, "ok") {
		t.Errorf("description = %q", result.DetectedBiases[0].Description)
	}
}
