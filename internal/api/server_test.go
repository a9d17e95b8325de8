package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/d-bias/dbias-go/internal/adapters/cache"
	"github.com/d-bias/dbias-go/internal/adapters/history"
	"github.com/d-bias/dbias-go/internal/core"
	"github.com/d-bias/dbias-go/internal/service"
	"github.com/d-bias/dbias-go/internal/throttle"
)

// newTestServer wires a server whose pipeline talks to backendHandler.
func newTestServer(t *testing.T, backendHandler http.HandlerFunc, opts ...service.PipelineOption) *Server {
	t.Helper()
	backend := httptest.NewServer(backendHandler)
	t.Cleanup(backend.Close)

	opts = append(opts, service.WithGate(throttle.NewGate(0)))
	pipeline := service.NewPipeline(service.Config{
		BaseURL:            backend.URL,
		AnalyzeTimeout:     5 * time.Second,
		LightweightTimeout: 2 * time.Second,
	}, opts...)
	return NewServer(pipeline)
}

func TestServer_Healthz(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body["status"] != "ok" {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestServer_LatestFromBackend(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": "fresh", "fairnessScore": 72, "detectedBiases": []}`))
	})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analysis/latest", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	var result core.AnalysisResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.ID != "fresh" || result.FairnessLabel != core.FairnessGood {
		t.Errorf("result = %+v", result)
	}
}

func TestServer_LatestEmptyIs404(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analysis/latest", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 (never 500) when nothing is cached", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body["error"] == "" {
		t.Errorf("404 body should be a JSON error: %s", rec.Body.String())
	}
}

func TestServer_Analyze(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/analyze" {
			t.Errorf("backend path = %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{
			"fairness_score": 45,
			"bias_report": [{"Type": "Outlier Bias", "Feature": "income", "Severity": "High", "Description": "tail"}]
		}`))
	})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "adult.csv")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = part.Write([]byte("age,income\n39,5000\n"))
	_ = mw.WriteField("run_gemini", "true")
	_ = mw.WriteField("excluded", "zip, ssn")
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	var result core.AnalysisResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.DatasetName != "adult.csv" || result.FairnessLabel != core.FairnessPoor {
		t.Errorf("result = %+v", result)
	}
	if len(result.DetectedBiases) != 1 {
		t.Errorf("biases = %+v", result.DetectedBiases)
	}
}

func TestServer_AnalyzeMissingFilePart(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("run_gemini", "false")
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d body = %s", rec.Code, rec.Body.String())
	}
}

func TestServer_AnalyzeBackendFailureIs502(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "detector crashed", http.StatusBadRequest)
	})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("file", "adult.csv")
	_, _ = part.Write([]byte("a,b\n1,2\n"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d body = %s", rec.Code, rec.Body.String())
	}
}

func TestServer_History(t *testing.T) {
	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })

	saved := &core.AnalysisResult{
		ID: "h-1", DatasetName: "adult.csv", Status: core.StatusComplete,
		FairnessScore: 60, FairnessLabel: core.FairnessFair, BiasRisk: core.RiskModerate,
	}
	if err := store.Save(context.Background(), saved); err != nil {
		t.Fatal(err)
	}

	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {}, service.WithHistory(store))

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/history", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var listing struct {
		Analyses []history.Summary `json:"analyses"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listing); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(listing.Analyses) != 1 || listing.Analyses[0].ID != "h-1" {
		t.Errorf("listing = %+v", listing)
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/history/h-1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("record status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/history/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing record status = %d", rec.Code)
	}
}

func TestServer_HistoryWithoutStoreIsEmptyList(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/history", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var listing struct {
		Analyses []history.Summary `json:"analyses"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listing); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if listing.Analyses == nil || len(listing.Analyses) != 0 {
		t.Errorf("analyses = %#v, want empty list", listing.Analyses)
	}
}

func TestServer_LatestFallsBackToLocalCache(t *testing.T) {
	store := cache.NewStore(filepath.Join(t.TempDir(), "cache.json"))
	if err := store.Save(&core.AnalysisResult{ID: "cached", Status: core.StatusComplete}); err != nil {
		t.Fatal(err)
	}

	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}, service.WithCache(store))

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analysis/latest", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	var result core.AnalysisResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil || result.ID != "cached" {
		t.Errorf("result = %+v err = %v", result, err)
	}
}
