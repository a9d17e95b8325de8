package explain

import (
	"strings"
	"testing"
)

func TestSanitizeExplanation_TruncatesBoilerplate(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"reliability", "Useful explanation here.\n\n## Overall Reliability Assessment\nThe dataset is..."},
		{"fairness", "Useful explanation here.\n\nFairness & Ethical Implications:\neverything below is global"},
		{"fairness and", "Useful explanation here.\n\n**Fairness and Ethics**\nglobal text"},
		{"conclusion", "Useful explanation here.\n### Concluding Summary\nwrap up"},
		{"recommendations", "Useful explanation here.\n\nActionable Recommendations:\n1. do things"},
		{"severity summary", "Useful explanation here.\n\nSeverity Summary: 2 high, 1 low"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeExplanation(tt.text, "fallback")
			if got != "Useful explanation here." {
				t.Errorf("got %q", got)
			}
		})
	}
}

func TestSanitizeExplanation_EarliestHeaderWins(t *testing.T) {
	text := "Keep this.\n\nConcluding Summary\nmid part\nOverall Reliability Assessment\ntail"
	got := SanitizeExplanation(text, "")
	if got != "Keep this." {
		t.Errorf("got %q", got)
	}
}

func TestSanitizeExplanation_Fallback(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		fallback string
		want     string
	}{
		{"empty text", "", "column skews male", "column skews male"},
		{"only boilerplate", "Overall Reliability Assessment\nall global", "desc", "desc"},
		{"whitespace", "   \n\t", "", ""},
		{"clean text untouched", "Plain explanation.", "ignored", "Plain explanation."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeExplanation(tt.text, tt.fallback); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSanitizeExplanation_Idempotent(t *testing.T) {
	text := "Useful explanation.\n\nActionable Recommendations:\n1. resample"
	once := SanitizeExplanation(text, "fb")
	twice := SanitizeExplanation(once, "fb")
	if once != twice {
		t.Errorf("not idempotent: %q vs %q", once, twice)
	}
}

func TestSanitizeExplanation_MidSentenceMentionKept(t *testing.T) {
	text := "See the overall reliability assessment for context; this bias is local."
	got := SanitizeExplanation(text, "")
	if !strings.Contains(got, "this bias is local") {
		t.Errorf("mid-sentence mention should not truncate, got %q", got)
	}
}
