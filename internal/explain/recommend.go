package explain

import (
	"regexp"
	"strings"
)

var (
	numberedItemPattern  = regexp.MustCompile(`(?m)^\s*\d+[.)]\s+`)
	bulletItemPattern    = regexp.MustCompile(`(?m)^\s*[*\-•]+\s+`)
	whitespaceRunPattern = regexp.MustCompile(`\s+`)
)

// ParseRecommendations splits free-form recommendation text into a list
// of individual items. Numbered lists take precedence over bullet lists;
// text with neither becomes a single item. Empty input yields an empty
// slice, never nil items.
func ParseRecommendations(text string) []string {
	cleaned := NormalizeText(text)
	if cleaned == "" {
		return []string{}
	}

	if items := splitListItems(cleaned, numberedItemPattern); len(items) > 0 {
		return items
	}
	if items := splitListItems(cleaned, bulletItemPattern); len(items) > 0 {
		return items
	}
	return []string{collapseWhitespace(cleaned)}
}

// collapseWhitespace folds newlines and whitespace runs inside an item
// down to single spaces.
func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRunPattern.ReplaceAllString(s, " "))
}

// splitListItems splits text on marker matches and returns the trimmed
// non-empty segments that follow each marker. Returns nil when the text
// contains no markers at all.
func splitListItems(text string, marker *regexp.Regexp) []string {
	locs := marker.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}

	items := make([]string, 0, len(locs))
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		item := collapseWhitespace(text[loc[1]:end])
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}
