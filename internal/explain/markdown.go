package explain

import (
	"regexp"
	"strings"
)

// Bullet is one list item in a decomposed explanation.
type Bullet struct {
	Text string `json:"text"`
	// Order is the 1-based number for numbered items, 0 for plain bullets.
	Order int `json:"order,omitempty"`
	// Level is the nesting depth derived from indentation, capped at 3.
	Level int `json:"level"`
}

// Document is the generic markdown-ish decomposition of explanation text
// that lacks the named-section structure. Elements appear in source order
// within their own lists.
type Document struct {
	Headers    []string `json:"headers"`
	Paragraphs []string `json:"paragraphs"`
	Bullets    []Bullet `json:"bullets"`
}

// Empty reports whether nothing was extracted.
func (d Document) Empty() bool {
	return len(d.Headers) == 0 && len(d.Paragraphs) == 0 && len(d.Bullets) == 0
}

var (
	mdHeaderPattern = regexp.MustCompile(`^(#{2,6})\s*(.+)$`)
	bulletPattern   = regexp.MustCompile(`^(\s*)(?:(\d+)[.)]|[*\-•]+)\s+(.+)$`)
	// labelLinePattern matches "Label: value" lines that read as implied
	// list entries when they follow a header or another colon-ended line.
	labelLinePattern = regexp.MustCompile(`^([A-Z][A-Za-z0-9 /_-]{0,40})[:：]\s+(.+)$`)
	// horizontal rules and other pure punctuation lines are noise.
	rulePattern = regexp.MustCompile(`^[\s*\-_=~]{3,}$`)
	// noiseLabelPattern drops internal detector annotations that leak
	// into the AI text.
	noiseLabelPattern = regexp.MustCompile(`(?i)^\s*detect(?:ion|ed)\s*[:：]`)
	// inlineStarBullet finds a star bullet glued to the end of a sentence
	// ("...values. * Fix: ...") so it can be moved onto its own line.
	inlineStarBullet = regexp.MustCompile(`([.!?:])[ \t]+\*[ \t]+`)
	boldPattern      = regexp.MustCompile(`\*\*([^*]+)\*\*`)
)

// Decompose splits free text into headers, paragraphs and bullets. It is
// the fallback rendering path for explanations without the named-section
// structure and for quick unstructured previews.
func Decompose(text string) Document {
	var doc Document

	normalized := NormalizeText(text)
	// Star bullets embedded mid-sentence become their own lines so the
	// bullet scanner below sees them.
	normalized = inlineStarBullet.ReplaceAllString(normalized, "$1\n* ")

	var para []string
	lastWasHeader := false
	lastEndedWithColon := false

	flushPara := func() {
		if len(para) > 0 {
			doc.Paragraphs = append(doc.Paragraphs, strings.Join(para, " "))
			para = nil
		}
	}

	for _, raw := range strings.Split(normalized, "\n") {
		line := strings.TrimRight(raw, " \t")
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			flushPara()
			lastWasHeader = false

		case rulePattern.MatchString(trimmed), noiseLabelPattern.MatchString(trimmed):
			flushPara()
			lastWasHeader = false
			lastEndedWithColon = false

		case mdHeaderPattern.MatchString(trimmed):
			flushPara()
			m := mdHeaderPattern.FindStringSubmatch(trimmed)
			doc.Headers = append(doc.Headers, stripInlineMarkup(m[2]))
			lastWasHeader = true
			lastEndedWithColon = false

		case bulletPattern.MatchString(line):
			flushPara()
			m := bulletPattern.FindStringSubmatch(line)
			doc.Bullets = append(doc.Bullets, Bullet{
				Text:  stripInlineMarkup(m[3]),
				Order: parseOrder(m[2]),
				Level: indentLevel(m[1]),
			})
			lastWasHeader = false
			lastEndedWithColon = strings.HasSuffix(trimmed, ":")

		case (lastWasHeader || lastEndedWithColon) && labelLinePattern.MatchString(trimmed):
			// A "Label: value" line right after a header or a colon line
			// reads as an implied list entry, not prose. Keeping the
			// header flag set lets a run of label lines all promote.
			flushPara()
			doc.Bullets = append(doc.Bullets, Bullet{Text: stripInlineMarkup(trimmed)})
			lastWasHeader = true
			lastEndedWithColon = false

		default:
			para = append(para, stripInlineMarkup(trimmed))
			lastWasHeader = false
			lastEndedWithColon = strings.HasSuffix(trimmed, ":")
		}
	}
	flushPara()

	return doc
}

// stripInlineMarkup converts **bold** spans to an emphasis wrapper and
// removes every other literal asterisk.
func stripInlineMarkup(s string) string {
	s = boldPattern.ReplaceAllString(s, "<strong>$1</strong>")
	s = strings.ReplaceAll(s, "*", "")
	return strings.TrimSpace(s)
}

func parseOrder(num string) int {
	if num == "" {
		return 0
	}
	order := 0
	for _, r := range num {
		order = order*10 + int(r-'0')
	}
	return order
}

func indentLevel(indent string) int {
	spaces := 0
	for _, r := range indent {
		if r == '\t' {
			spaces += 4
		} else {
			spaces++
		}
	}
	level := spaces / 2
	if level > 3 {
		level = 3
	}
	return level
}
