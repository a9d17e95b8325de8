// Package service wires the ingestion pipeline together: throttle,
// transport, normalizer, cache and history. Each call carries its own
// context; the only state shared across concurrent submissions is the
// throttle marker.
package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/d-bias/dbias-go/internal/adapters/cache"
	"github.com/d-bias/dbias-go/internal/adapters/history"
	"github.com/d-bias/dbias-go/internal/analysis"
	"github.com/d-bias/dbias-go/internal/core"
	"github.com/d-bias/dbias-go/internal/logging"
	"github.com/d-bias/dbias-go/internal/throttle"
	"github.com/d-bias/dbias-go/internal/transport"
)

// PlotModes are the accepted return_plots option values.
var PlotModes = map[string]bool{
	"none": true,
	"json": true,
	"png":  true,
	"both": true,
}

// Config carries the externally supplied pipeline settings.
type Config struct {
	BaseURL string

	AnalyzeTimeout     time.Duration
	LightweightTimeout time.Duration
	MaxRetries         int
	MinSubmitInterval  time.Duration
}

// Pipeline drives submissions through throttle, transport and the
// normalizer, persisting results to the cache and history stores.
type Pipeline struct {
	cfg        Config
	client     *transport.Client
	gate       *throttle.Gate
	normalizer *analysis.Normalizer
	cache      *cache.Store
	history    *history.Store
	log        *logging.Logger
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithTransport replaces the transport client.
func WithTransport(client *transport.Client) PipelineOption {
	return func(p *Pipeline) {
		p.client = client
	}
}

// WithGate replaces the submission throttle.
func WithGate(gate *throttle.Gate) PipelineOption {
	return func(p *Pipeline) {
		p.gate = gate
	}
}

// WithCache attaches a cache store.
func WithCache(store *cache.Store) PipelineOption {
	return func(p *Pipeline) {
		p.cache = store
	}
}

// WithHistory attaches a history store.
func WithHistory(store *history.Store) PipelineOption {
	return func(p *Pipeline) {
		p.history = store
	}
}

// WithLogger sets the logger.
func WithLogger(log *logging.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.log = log
	}
}

// NewPipeline creates a pipeline. Cache and history stores are optional;
// without them results are simply not persisted.
func NewPipeline(cfg Config, opts ...PipelineOption) *Pipeline {
	if cfg.AnalyzeTimeout <= 0 {
		cfg.AnalyzeTimeout = transport.DefaultAnalyzeTimeout
	}
	if cfg.LightweightTimeout <= 0 {
		cfg.LightweightTimeout = transport.DefaultLightweightTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = transport.DefaultMaxRetries
	}
	if cfg.MinSubmitInterval <= 0 {
		cfg.MinSubmitInterval = 3 * time.Second
	}

	p := &Pipeline{
		cfg: cfg,
		log: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.client == nil {
		p.client = transport.NewClient(transport.WithLogger(p.log))
	}
	if p.gate == nil {
		p.gate = throttle.NewGate(cfg.MinSubmitInterval)
	}
	p.normalizer = analysis.NewNormalizer(analysis.WithLogger(p.log))
	return p
}

// AnalyzeRequest describes one dataset submission.
type AnalyzeRequest struct {
	FilePath string
	// Excluded columns are skipped by the detector.
	Excluded []string
	// RunSummary asks the backend for the AI explanation text.
	RunSummary bool
	// ReturnPlots is one of none, json, png, both.
	ReturnPlots string
}

// Validate checks the request before any network work happens.
func (r *AnalyzeRequest) Validate() error {
	if strings.TrimSpace(r.FilePath) == "" {
		return core.ErrValidation(core.CodeMissingFile, "no dataset file given")
	}
	if _, err := os.Stat(r.FilePath); err != nil {
		return core.ErrValidation(core.CodeMissingFile, "dataset file not readable: "+r.FilePath).WithCause(err)
	}
	if r.ReturnPlots != "" && !PlotModes[r.ReturnPlots] {
		return core.ErrValidation(core.CodeInvalidConfig, "return_plots must be one of none, json, png, both")
	}
	return nil
}

// Analyze submits a dataset for analysis and returns the canonical
// record. The call is throttled against other submissions, runs under
// the heavy timeout, and on success persists the result to the cache
// and history stores.
func (p *Pipeline) Analyze(ctx context.Context, req AnalyzeRequest) (*core.AnalysisResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if err := p.gate.Wait(ctx); err != nil {
		return nil, err
	}

	file, err := os.Open(req.FilePath)
	if err != nil {
		return nil, core.ErrValidation(core.CodeMissingFile, "opening dataset: "+err.Error()).WithCause(err)
	}
	defer file.Close()

	fields := map[string]string{
		"run_gemini":   boolString(req.RunSummary),
		"return_plots": req.ReturnPlots,
	}
	if fields["return_plots"] == "" {
		fields["return_plots"] = "none"
	}
	if len(req.Excluded) > 0 {
		fields["excluded"] = strings.Join(req.Excluded, ",")
	}

	body, header, err := transport.Multipart("file", filepath.Base(req.FilePath), file, fields)
	if err != nil {
		return nil, err
	}

	datasetName := filepath.Base(req.FilePath)
	log := p.log.WithComponent("pipeline").WithDataset(datasetName)
	log.Info("submitting dataset for analysis")

	resp, err := p.client.Do(ctx, transport.Request{
		Method:         http.MethodPost,
		URL:            p.endpoint("/api/analyze"),
		Body:           body,
		Header:         header,
		Timeout:        p.cfg.AnalyzeTimeout,
		MaxRetries:     p.cfg.MaxRetries,
		RequireSuccess: true,
	})
	if err != nil {
		return nil, err
	}

	raw, err := decodeObject(resp.Body)
	if err != nil {
		return nil, err
	}

	result, err := p.normalizer.Normalize(raw, datasetName)
	if err != nil {
		return nil, err
	}

	p.persist(ctx, result, log)
	log.WithAnalysis(result.ID).Info("analysis complete",
		"fairnessScore", result.FairnessScore,
		"totalBiases", result.TotalBiases)
	return result, nil
}

// UploadInfo is the backend's quick validation of an uploaded dataset.
type UploadInfo struct {
	Rows    int      `json:"rows"`
	Cols    int      `json:"cols"`
	Columns []string `json:"columns"`
}

// Upload sends a dataset for validation only, returning its shape and
// column names without running the analysis.
func (p *Pipeline) Upload(ctx context.Context, path string) (*UploadInfo, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, core.ErrValidation(core.CodeMissingFile, "opening dataset: "+err.Error()).WithCause(err)
	}
	defer file.Close()

	body, header, err := transport.Multipart("file", filepath.Base(path), file, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(ctx, transport.Request{
		Method:         http.MethodPost,
		URL:            p.endpoint("/api/upload"),
		Body:           body,
		Header:         header,
		Timeout:        p.cfg.LightweightTimeout,
		MaxRetries:     p.cfg.MaxRetries,
		RequireSuccess: true,
	})
	if err != nil {
		return nil, err
	}

	var info UploadInfo
	if err := json.Unmarshal(resp.Body, &info); err != nil {
		return nil, core.ErrMalformed("upload response is not valid JSON").WithCause(err)
	}
	return &info, nil
}

// Latest fetches the most recently cached analysis from the backend,
// falling back to the local cache when the backend is unreachable.
// "Nothing cached yet" is (nil, nil), never an error: not-found
// statuses and network or decoding failures all end up there so the
// caller can offer a graceful empty state.
func (p *Pipeline) Latest(ctx context.Context) (*core.AnalysisResult, error) {
	resp, err := p.client.Do(ctx, transport.Request{
		Method:  http.MethodGet,
		URL:     p.endpoint("/api/analysis/latest"),
		Timeout: p.cfg.LightweightTimeout,
	})
	if err != nil {
		if core.IsCanceled(err) {
			return nil, err
		}
		return p.latestFromLocalCache()
	}
	if !resp.Success() {
		return p.latestFromLocalCache()
	}

	raw, err := decodeObject(resp.Body)
	if err != nil {
		return p.latestFromLocalCache()
	}
	result, err := p.normalizer.Normalize(raw, "")
	if err != nil {
		return p.latestFromLocalCache()
	}
	return result, nil
}

func (p *Pipeline) latestFromLocalCache() (*core.AnalysisResult, error) {
	if p.cache == nil {
		return nil, nil
	}
	result, err := p.cache.Load()
	if err != nil {
		p.log.Warn("local cache unreadable", "error", err.Error())
		return nil, nil
	}
	return result, nil
}

// Ping checks backend reachability.
func (p *Pipeline) Ping(ctx context.Context) error {
	_, err := p.client.Do(ctx, transport.Request{
		Method:         http.MethodGet,
		URL:            p.cfg.BaseURL,
		Timeout:        p.cfg.LightweightTimeout,
		MaxRetries:     p.cfg.MaxRetries,
		RequireSuccess: true,
	})
	return err
}

// History lists stored analyses, newest first. Without a history store
// it returns an empty list.
func (p *Pipeline) History(ctx context.Context, limit int) ([]history.Summary, error) {
	if p.history == nil {
		return nil, nil
	}
	return p.history.List(ctx, limit)
}

// HistoryRecord loads one stored analysis by id.
func (p *Pipeline) HistoryRecord(ctx context.Context, id string) (*core.AnalysisResult, error) {
	if p.history == nil {
		return nil, core.ErrNotFound("analysis", id)
	}
	return p.history.Get(ctx, id)
}

// persist best-effort saves a fresh result. Persistence failures are
// logged, not surfaced; the caller already holds the result.
func (p *Pipeline) persist(ctx context.Context, result *core.AnalysisResult, log *logging.Logger) {
	if p.cache != nil {
		if err := p.cache.Save(result); err != nil {
			log.Warn("caching result failed", "error", err.Error())
		}
	}
	if p.history != nil {
		if err := p.history.Save(ctx, result); err != nil {
			log.Warn("recording history failed", "error", err.Error())
		}
	}
}

// endpoint joins the base URL with a path, tolerating trailing slashes.
func (p *Pipeline) endpoint(path string) string {
	base := strings.TrimRight(p.cfg.BaseURL, "/")
	if u, err := url.Parse(base + path); err == nil {
		return u.String()
	}
	return base + path
}

// decodeObject decodes a JSON object payload. Anything that is not an
// object is malformed; transport already guaranteed a readable body.
func decodeObject(body []byte) (map[string]any, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, core.ErrMalformed("response payload is not a JSON object").WithCause(err)
	}
	return raw, nil
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
