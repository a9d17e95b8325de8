// Package cache persists the most recent canonical analysis record as a
// JSON file so the dashboard keeps working between runs and without a
// reachable backend.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/d-bias/dbias-go/internal/core"
)

// DefaultFileName is the cache file written next to the config dir.
const DefaultFileName = "analysis_response.json"

// Store reads and writes the single cached analysis record.
type Store struct {
	path string
}

// NewStore creates a cache store at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// envelope wraps the record with integrity metadata.
type envelope struct {
	Version   int                  `json:"version"`
	Checksum  string               `json:"checksum"`
	UpdatedAt time.Time            `json:"updated_at"`
	Result    *core.AnalysisResult `json:"result"`
}

// Save writes the record atomically. A crash mid-write leaves the
// previous cache intact.
func (s *Store) Save(result *core.AnalysisResult) error {
	if result == nil {
		return core.ErrValidation(core.CodeInvalidConfig, "nothing to cache")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	resultBytes, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}
	hash := sha256.Sum256(resultBytes)

	data, err := json.MarshalIndent(envelope{
		Version:   1,
		Checksum:  hex.EncodeToString(hash[:]),
		UpdatedAt: time.Now().UTC(),
		Result:    result,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling envelope: %w", err)
	}

	if err := atomicWriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("writing cache file: %w", err)
	}
	return nil
}

// Load reads the cached record. A missing file returns (nil, nil): the
// caller offers a "nothing cached yet" experience, not an error. A file
// that fails to decode or verify is an error.
func (s *Store) Load() (*core.AnalysisResult, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading cache file: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, core.ErrMalformed("cache file is not valid JSON").WithCause(err)
	}
	if env.Result == nil {
		return nil, core.ErrMalformed("cache file carries no result")
	}

	if env.Checksum != "" {
		resultBytes, err := json.Marshal(env.Result)
		if err != nil {
			return nil, fmt.Errorf("remarshaling result: %w", err)
		}
		hash := sha256.Sum256(resultBytes)
		if hex.EncodeToString(hash[:]) != env.Checksum {
			return nil, core.ErrMalformed("cache checksum mismatch")
		}
	}

	return env.Result, nil
}

// Exists reports whether a cache file is present.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}
