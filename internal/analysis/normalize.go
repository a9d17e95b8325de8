package analysis

import (
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cast"

	"github.com/d-bias/dbias-go/internal/core"
	"github.com/d-bias/dbias-go/internal/explain"
	"github.com/d-bias/dbias-go/internal/logging"
)

// Normalizer converts raw decoded backend payloads into canonical
// records. It holds no per-call state; one instance serves concurrent
// submissions.
type Normalizer struct {
	log *logging.Logger
	now func() time.Time
}

// NormalizerOption configures a Normalizer.
type NormalizerOption func(*Normalizer)

// WithLogger sets the logger used for consistency warnings.
func WithLogger(log *logging.Logger) NormalizerOption {
	return func(n *Normalizer) {
		n.log = log
	}
}

// WithClock replaces the clock used for defaulted upload dates.
func WithClock(now func() time.Time) NormalizerOption {
	return func(n *Normalizer) {
		n.now = now
	}
}

// NewNormalizer creates a normalizer.
func NewNormalizer(opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{
		log: logging.NewNop(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize converts one raw payload. Individual missing or miskeyed
// fields are defaulted, never errors; only a payload that is not an
// object at all is malformed. fallbackDatasetName fills in when the
// payload carries no dataset name of its own.
func (n *Normalizer) Normalize(raw map[string]any, fallbackDatasetName string) (*core.AnalysisResult, error) {
	if raw == nil {
		return nil, core.ErrMalformed("payload is not an object")
	}

	var biases []core.BiasEntry
	switch DetectShape(raw) {
	case ShapePreNormalized:
		entries, _ := pickList(raw, "detectedBiases", "detected_biases")
		biases = buildPreNormalizedBiases(entries)
	case ShapeGroupedByType:
		groups, _ := pickMap(raw, "biases", "bias_types")
		biases = buildGroupedBiases(groups)
	default:
		entries, ok := pickList(raw, "biases")
		if !ok {
			entries, _ = pickList(raw, "bias_report")
		}
		report, _ := pickList(raw, "detailed_report", "bias_report")
		biases = buildFlatBiases(entries, report)
	}

	return n.build(raw, fallbackDatasetName, biases), nil
}

// build is the single canonical constructor. All shapes funnel through
// here so defaulting and derivation logic exists exactly once.
func (n *Normalizer) build(raw map[string]any, fallbackDatasetName string, biases []core.BiasEntry) *core.AnalysisResult {
	score, _ := pickFloat(raw, "fairnessScore", "fairness_score", "score")
	score = core.ClampScore(score)

	id, ok := pickString(raw, "id", "analysis_id")
	if !ok {
		id = uuid.NewString()
	}

	name, ok := pickString(raw, "datasetName", "dataset_name", "filename")
	if !ok {
		name = fallbackDatasetName
	}

	status := core.StatusComplete
	if s, _ := pickString(raw, "status"); s == string(core.StatusFailed) {
		status = core.StatusFailed
	}

	total, ok := pickInt(raw, "totalBiases", "total_biases")
	if !ok {
		// The grouped shape carries its count under a metadata block.
		if meta, found := pickMap(raw, "metadata"); found {
			total, ok = pickInt(meta, "total_biases", "totalBiases")
		}
	}
	if !ok || total < 0 {
		total = len(biases)
	}

	reliability, _ := pickString(raw, "reliabilityLevel", "reliability_level", "reliability")
	reliabilityMsg, _ := pickString(raw, "reliabilityMessage", "reliability_message")
	overall, _ := pickString(raw, "overallMessage", "overall_message", "summary")

	result := &core.AnalysisResult{
		ID:          id,
		DatasetName: name,
		UploadDate:  n.uploadDate(raw),
		Status:      status,
		Dataset:     datasetSummary(raw),

		FairnessScore: score,
		FairnessLabel: core.FairnessLabelForScore(score),
		BiasRisk:      core.BiasRiskForScore(score),

		ReliabilityLevel:   core.ParseReliability(reliability),
		ReliabilityMessage: reliabilityMsg,
		OverallMessage:     overall,

		TotalBiases:     total,
		SeveritySummary: n.severitySummary(raw, biases, id),
		DetectedBiases:  biases,
		Assessment:      assessment(raw),
	}

	if dist, ok := pickMap(raw, "distributions"); ok {
		result.Distributions = dist
	}
	if plots, ok := pickMap(raw, "plots"); ok {
		result.Plots = plots
	}
	if report, ok := pickList(raw, "rawBiasReport", "bias_report"); ok {
		for _, item := range report {
			if m, ok := asEntryMap(item); ok {
				result.RawBiasReport = append(result.RawBiasReport, m)
			}
		}
	}

	return result
}

// uploadDate reads the upstream timestamp, accepting RFC 3339 and the
// backend's second-resolution variant, defaulting to the current time.
func (n *Normalizer) uploadDate(raw map[string]any) time.Time {
	s, ok := pickString(raw, "uploadDate", "upload_date", "timestamp")
	if !ok {
		return n.now().UTC()
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return n.now().UTC()
}

// severitySummary recomputes the per-severity counts from the built
// entries. An upstream-provided summary is kept in the record, but a
// mismatch with the recomputed counts is logged as a warning; upstream
// does not reconcile the two and the discrepancy is worth surfacing.
func (n *Normalizer) severitySummary(raw map[string]any, biases []core.BiasEntry, id string) map[string]int {
	computed := make(map[string]int)
	for _, b := range biases {
		computed[string(b.Severity)]++
	}
	if len(computed) == 0 {
		computed = nil
	}

	provided, ok := pickMap(raw, "severitySummary", "severity_summary")
	if !ok {
		return computed
	}

	upstream := make(map[string]int, len(provided))
	for k, v := range provided {
		if count, err := cast.ToIntE(v); err == nil {
			upstream[string(core.ParseSeverity(k))] += count
		}
	}

	if !equalCounts(upstream, computed) {
		n.log.WithAnalysis(id).Warn("severity summary disagrees with detected biases",
			"upstream", upstream,
			"computed", computed)
	}
	return upstream
}

func equalCounts(a, b map[string]int) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

// datasetSummary reads the dataset statistics block, tolerating the
// historical field renames. Absent fields default to 0 and negative
// values are clamped.
func datasetSummary(raw map[string]any) core.DatasetSummary {
	block, ok := pickMap(raw, "dataset", "dataset_summary", "summary_stats")
	if !ok {
		block = raw
	}

	rows, _ := pickInt(block, "rows", "num_rows", "total_rows")
	cols, _ := pickInt(block, "columns", "num_columns", "total_columns")
	mean, _ := pickFloat(block, "mean", "avg")
	median, _ := pickFloat(block, "median")
	mode, _ := pickFloat(block, "mode")
	max, _ := pickFloat(block, "max", "maximum")
	min, _ := pickFloat(block, "min", "minimum")
	stdDev, _ := pickFloat(block, "stdDev", "std_dev", "std")
	variance, _ := pickFloat(block, "variance", "var")

	return core.DatasetSummary{
		Rows:     nonNegativeInt(rows),
		Columns:  nonNegativeInt(cols),
		Mean:     nonNegative(mean),
		Median:   nonNegative(median),
		Mode:     nonNegative(mode),
		Max:      nonNegative(max),
		Min:      nonNegative(min),
		StdDev:   nonNegative(stdDev),
		Variance: nonNegative(variance),
	}
}

// assessment reads the document-level commentary block. The grouped
// shape names it "overall". Recommendations arrive either as a ready
// list or as one free-text block that needs splitting.
func assessment(raw map[string]any) core.Assessment {
	block, ok := pickMap(raw, "assessment", "overall")
	if !ok {
		return core.Assessment{}
	}

	fairness, _ := pickString(block, "fairness", "fairness_ethics")
	conclusion, _ := pickString(block, "conclusion", "concluding_summary")

	recs, ok := pickStringList(block, "recommendations", "actionable_recommendations")
	if ok && len(recs) == 1 {
		// A single element is usually one free-text block, not a
		// one-item list; splitting a genuine one-item list is a no-op.
		recs = explain.ParseRecommendations(recs[0])
	}

	return core.Assessment{
		Fairness:        fairness,
		Recommendations: recs,
		Conclusion:      conclusion,
	}
}
