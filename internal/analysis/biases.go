package analysis

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/d-bias/dbias-go/internal/core"
	"github.com/d-bias/dbias-go/internal/explain"
)

// buildPreNormalizedBiases converts an already-canonical entry list,
// filling defaults without re-deriving present fields.
func buildPreNormalizedBiases(entries []any) []core.BiasEntry {
	out := make([]core.BiasEntry, 0, len(entries))
	seen := make(map[string]bool)
	for i, raw := range entries {
		m, ok := asEntryMap(raw)
		if !ok {
			continue
		}
		out = append(out, buildEntry(m, nil, fmt.Sprintf("bias_%d", i), seen))
	}
	return out
}

// buildGroupedBiases flattens a bias-type → entry-list mapping into one
// ordered list. JSON decoding loses the upstream key order, so types are
// walked alphabetically to keep the output deterministic. Entry ids are
// synthesized from type and position.
func buildGroupedBiases(groups map[string]any) []core.BiasEntry {
	types := make([]string, 0, len(groups))
	for t := range groups {
		types = append(types, t)
	}
	sort.Strings(types)

	var out []core.BiasEntry
	seen := make(map[string]bool)
	for _, biasType := range types {
		entries, ok := groups[biasType].([]any)
		if !ok {
			continue
		}
		for i, raw := range entries {
			m, ok := asEntryMap(raw)
			if !ok {
				continue
			}
			if _, has := pickString(m, "bias_type", "biasType", "type", "Type"); !has {
				m = withKey(m, "bias_type", biasType)
			}
			fallbackID := fmt.Sprintf("%s_%d", slug(biasType), i)
			entry := buildEntry(m, nil, fallbackID, seen)
			out = append(out, entry)
		}
	}
	return out
}

// buildFlatBiases converts a flat entry list, resolving each entry's
// trailing 4-digit id index (1-based) against the detailed report array
// to backfill type and column when the entry itself omits them.
// Out-of-range indices leave those fields blank.
func buildFlatBiases(entries []any, report []any) []core.BiasEntry {
	out := make([]core.BiasEntry, 0, len(entries))
	seen := make(map[string]bool)
	for i, raw := range entries {
		m, ok := asEntryMap(raw)
		if !ok {
			continue
		}
		var detail map[string]any
		if id, ok := pickString(m, "id", "bias_id"); ok {
			if idx, ok := crossRefIndex(id); ok && idx < len(report) {
				detail, _ = asEntryMap(report[idx])
			}
		}
		out = append(out, buildEntry(m, detail, fmt.Sprintf("bias_%d", i), seen))
	}
	return out
}

// buildEntry is the single constructor every shape funnels through.
// detail is the cross-referenced detailed-report record, nil when the
// shape has none or the index was out of range.
func buildEntry(m, detail map[string]any, fallbackID string, seen map[string]bool) core.BiasEntry {
	biasType, _ := pickString(m, "bias_type", "biasType", "type", "Type")
	if biasType == "" && detail != nil {
		biasType, _ = pickString(detail, "Type", "type", "bias_type")
	}

	column := pickColumn(m)
	if column == "" && detail != nil {
		column, _ = pickString(detail, "Feature", "feature", "column")
	}

	severity, ok := pickString(m, "severity", "Severity")
	if !ok && detail != nil {
		severity, _ = pickString(detail, "Severity", "severity")
	}

	description, ok := pickString(m, "description", "Description", "desc")
	if !ok && detail != nil {
		description, _ = pickString(detail, "Description", "description")
	}

	rawExplanation, _ := pickString(m, "ai_explanation", "aiExplanation", "explanation")
	explanation := explain.SanitizeExplanation(rawExplanation, description)

	definition, ok := pickString(m, "definition")
	if !ok {
		definition = biasType
	}

	id, _ := pickString(m, "id", "bias_id")
	id = uniqueID(id, fallbackID, seen)

	return core.BiasEntry{
		ID:            id,
		BiasType:      biasType,
		Column:        column,
		Severity:      core.ParseSeverity(severity),
		Description:   description,
		AIExplanation: explanation,
		Definition:    definition,
	}
}

// pickColumn reads the affected feature name(s); multiple columns are
// comma-joined.
func pickColumn(m map[string]any) string {
	if cols, ok := pickStringList(m, "columns", "features"); ok {
		return strings.Join(cols, ", ")
	}
	col, _ := pickString(m, "column", "feature", "Feature")
	return col
}

// crossRefIndex extracts the trailing 4-digit index of an entry id and
// converts it from 1-based to 0-based. Ids without the suffix, or with
// index zero, resolve to nothing.
func crossRefIndex(id string) (int, bool) {
	m := crossRefIDPattern.FindStringSubmatch(id)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return 0, false
	}
	return n - 1, true
}

// uniqueID keeps entry ids unique within one result, falling back to a
// synthesized id and finally a uuid suffix on collision.
func uniqueID(id, fallback string, seen map[string]bool) string {
	if id == "" {
		id = fallback
	}
	if id == "" {
		id = uuid.NewString()
	}
	for seen[id] {
		id = fallback + "_" + uuid.NewString()[:8]
	}
	seen[id] = true
	return id
}

// slug lowercases a bias-type name into an id-safe fragment.
func slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "_")
	return s
}

// withKey copies a raw entry map with one extra key, leaving the decoded
// payload untouched.
func withKey(m map[string]any, key string, value any) map[string]any {
	out := make(map[string]any, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	out[key] = value
	return out
}
