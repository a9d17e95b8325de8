package explain

import (
	"regexp"
	"strings"
)

// boilerplateHeaders are document-level report sections that the model
// sometimes duplicates inside a single bias explanation. A per-bias
// explanation ends where the first of these begins.
var boilerplateHeaders = []*regexp.Regexp{
	regexp.MustCompile(`(?im)^[\s>*\-]*#{0,6}[\s*]*overall\s+reliability\s+assessment\b`),
	regexp.MustCompile(`(?im)^[\s>*\-]*#{0,6}[\s*]*fairness\s*(?:&|and)\s*ethic\w*\b`),
	regexp.MustCompile(`(?im)^[\s>*\-]*#{0,6}[\s*]*concluding\s+summary\b`),
	regexp.MustCompile(`(?im)^[\s>*\-]*#{0,6}[\s*]*actionable\s+recommendations?\b`),
	regexp.MustCompile(`(?im)^[\s>*\-]*#{0,6}[\s*]*analysis\s+of\s+(?:detected\s+)?bias\w*\b`),
	regexp.MustCompile(`(?im)^[\s>*\-]*#{0,6}[\s*]*severity\s+summary\b`),
}

// SanitizeExplanation strips trailing document-level boilerplate from a
// per-bias explanation by truncating at the earliest boilerplate header.
// When nothing useful remains it falls back to the supplied default
// description, then to the empty string.
func SanitizeExplanation(text, fallback string) string {
	cleaned := NormalizeText(text)

	cut := len(cleaned)
	for _, pattern := range boilerplateHeaders {
		if loc := pattern.FindStringIndex(cleaned); loc != nil && loc[0] < cut {
			cut = loc[0]
		}
	}
	cleaned = strings.TrimSpace(cleaned[:cut])

	if cleaned == "" {
		return strings.TrimSpace(fallback)
	}
	return cleaned
}
