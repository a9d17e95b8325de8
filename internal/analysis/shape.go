// Package analysis converts the heterogeneous JSON responses of the
// bias-analysis backend into the one canonical AnalysisResult record.
// Several incompatible upstream shapes remain in the wild and all of
// them must keep decoding.
package analysis

import "regexp"

// Shape identifies which upstream response variant a payload uses.
type Shape int

const (
	// ShapePreNormalized payloads already look like a canonical record;
	// missing sub-fields are defaulted, derived fields recomputed.
	ShapePreNormalized Shape = iota
	// ShapeGroupedByType payloads carry bias entries grouped under a
	// mapping from bias-type name to entry list.
	ShapeGroupedByType
	// ShapeFlatWithCrossRef payloads carry a flat entry list whose ids
	// end in a 4-digit index resolved against a detailed report array.
	ShapeFlatWithCrossRef
)

func (s Shape) String() string {
	switch s {
	case ShapePreNormalized:
		return "pre-normalized"
	case ShapeGroupedByType:
		return "grouped-by-type"
	default:
		return "flat-with-crossref"
	}
}

// crossRefIDPattern matches entry ids carrying a trailing 4-digit
// 1-based index into the detailed report array.
var crossRefIDPattern = regexp.MustCompile(`(\d{4})$`)

// DetectShape classifies a raw payload. Predicates run in order; the
// first structural match wins. Anything that matches nothing is treated
// as flat, whose conversion degrades gracefully on absent fields.
func DetectShape(raw map[string]any) Shape {
	for _, key := range []string{"fairnessScore", "detectedBiases"} {
		if _, ok := raw[key]; ok {
			return ShapePreNormalized
		}
	}

	for _, key := range []string{"biases", "bias_types"} {
		if v, ok := raw[key]; ok {
			switch v.(type) {
			case map[string]any:
				return ShapeGroupedByType
			case []any:
				return ShapeFlatWithCrossRef
			}
		}
	}

	return ShapeFlatWithCrossRef
}
