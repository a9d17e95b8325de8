// Package explain parses the free-text AI explanations attached to bias
// findings into structures the dashboard can render. All parsers here are
// pure functions of their input: no clock, no network, no hidden state,
// so re-parsing on every render is safe.
package explain

import (
	"regexp"
	"strings"
)

// SectionLabel names one of the fixed explanation sections the upstream
// model is prompted to produce.
type SectionLabel string

const (
	SectionMeaning  SectionLabel = "Meaning"
	SectionHarm     SectionLabel = "Harm"
	SectionImpact   SectionLabel = "Impact"
	SectionSeverity SectionLabel = "Severity Explanation"
	SectionFix      SectionLabel = "Fix"
)

// sectionAliases maps lowercased header words onto canonical labels.
// The upstream wording has drifted across prompt versions; all observed
// spellings must keep parsing.
var sectionAliases = map[string]SectionLabel{
	"meaning":              SectionMeaning,
	"harm":                 SectionHarm,
	"impact":               SectionImpact,
	"severity explanation": SectionSeverity,
	"severity rationale":   SectionSeverity,
	"fix":                  SectionFix,
	"mitigation":           SectionFix,
	"recommendation":       SectionFix,
	"recommendations":      SectionFix,
}

// Sections maps a canonical label to its accumulated content lines.
type Sections map[SectionLabel][]string

// Structured reports whether at least one section carries non-trivial
// content. Callers fall back to block rendering of the raw text when
// this is false.
func (s Sections) Structured() bool {
	for _, lines := range s {
		for _, line := range lines {
			if strings.TrimSpace(line) != "" {
				return true
			}
		}
	}
	return false
}

// Get returns the joined content of one section, trimmed.
func (s Sections) Get(label SectionLabel) string {
	return strings.TrimSpace(strings.Join(s[label], "\n"))
}

// headerPattern matches a potential section header line: optional bullet
// and bold markup around a label, optionally followed by inline content
// after a colon. Examples that must match:
//
//	**Meaning:** the dataset skews male
//	*   **Fix**: resample
//	Severity Explanation:
//	- Harm: minority groups are underserved
var headerPattern = regexp.MustCompile(`^\s*(?:[*\-•]+\s*)*\*{0,2}([A-Za-z][A-Za-z ]{2,25}?)\*{0,2}\s*[:：]\s*(.*)$`)

// bareSeverityPattern matches content that is nothing but a severity
// word, optionally bolded or punctuated. Such a "Severity Explanation"
// adds no information and is dropped as noise.
var bareSeverityPattern = regexp.MustCompile(`(?i)^[\s*_]*(low|moderate|high|critical)[\s*_.!]*$`)

// ExtractSections scans explanation text line by line for the fixed
// section labels and accumulates each section's content until the next
// header. Unlabeled text before the first header is dropped. The result
// is never nil and never errors, regardless of input.
func ExtractSections(text string) Sections {
	out := make(Sections)
	var current SectionLabel
	inSection := false

	for _, raw := range strings.Split(NormalizeText(text), "\n") {
		line := strings.TrimRight(raw, " \t")

		if label, inline, ok := matchSectionHeader(line); ok {
			current = label
			inSection = true
			if _, exists := out[current]; !exists {
				out[current] = nil
			}
			if inline != "" {
				out[current] = append(out[current], inline)
			}
			continue
		}

		if !inSection {
			continue // leading prose before the first header is not a section
		}
		if strings.TrimSpace(line) == "" && len(out[current]) == 0 {
			continue
		}
		out[current] = append(out[current], line)
	}

	// Trim trailing blank lines accumulated before the end of input.
	for label, lines := range out {
		for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
			lines = lines[:len(lines)-1]
		}
		out[label] = lines
	}

	dropBareSeverity(out)
	return out
}

// matchSectionHeader classifies a line as a section header, returning
// the canonical label and any inline content after the colon.
func matchSectionHeader(line string) (SectionLabel, string, bool) {
	m := headerPattern.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}
	key := strings.ToLower(strings.TrimSpace(m[1]))
	label, ok := sectionAliases[key]
	if !ok {
		return "", "", false
	}
	inline := strings.TrimSpace(stripInlineMarkup(m[2]))
	return label, inline, true
}

// dropBareSeverity discards a Severity Explanation that is empty or just
// restates the severity word.
func dropBareSeverity(s Sections) {
	content := s.Get(SectionSeverity)
	if content == "" || bareSeverityPattern.MatchString(content) {
		delete(s, SectionSeverity)
	}
}

// NormalizeText normalizes line endings, strips trailing whitespace per
// line, and collapses runs of blank lines down to one. Markdown syntax
// is preserved.
func NormalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = trailingSpacePattern.ReplaceAllString(text, "")
	text = blankRunPattern.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

var (
	trailingSpacePattern = regexp.MustCompile(`(?m)[ \t]+$`)
	blankRunPattern      = regexp.MustCompile(`\n{3,}`)
)
