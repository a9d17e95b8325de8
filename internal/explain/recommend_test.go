package explain

import (
	"reflect"
	"testing"
)

func TestParseRecommendations(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "numbered",
			text: "1. Do X\n2. Do Y",
			want: []string{"Do X", "Do Y"},
		},
		{
			name: "numbered with parens",
			text: "1) Resample the data\n2) Audit the source",
			want: []string{"Resample the data", "Audit the source"},
		},
		{
			name: "bulleted",
			text: "- Do X\n- Do Y",
			want: []string{"Do X", "Do Y"},
		},
		{
			name: "star bullets",
			text: "* first\n* second",
			want: []string{"first", "second"},
		},
		{
			name: "plain sentence",
			text: "Just one sentence.",
			want: []string{"Just one sentence."},
		},
		{
			name: "empty",
			text: "",
			want: []string{},
		},
		{
			name: "whitespace only",
			text: "  \n\t ",
			want: []string{},
		},
		{
			name: "numbered wins over bullets",
			text: "1. Primary action\n- stray bullet inside",
			want: []string{"Primary action - stray bullet inside"},
		},
		{
			name: "preamble dropped",
			text: "Recommendations:\n1. Do X\n2. Do Y",
			want: []string{"Do X", "Do Y"},
		},
		{
			name: "multiline item collapses to one line",
			text: "1. Do X\nwith a continuation line\n2. Do Y",
			want: []string{"Do X with a continuation line", "Do Y"},
		},
		{
			name: "whitespace runs inside items collapse",
			text: "- Audit  the\tsampling step\n- Re-balance   classes",
			want: []string{"Audit the sampling step", "Re-balance classes"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseRecommendations(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseRecommendations(%q) = %#v, want %#v", tt.text, got, tt.want)
			}
		})
	}
}

func TestParseRecommendations_NeverNil(t *testing.T) {
	for _, input := range []string{"", "   ", "no markers at all", "1. x"} {
		if got := ParseRecommendations(input); got == nil {
			t.Errorf("nil result for %q", input)
		}
	}
}
