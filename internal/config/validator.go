package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation: %s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors collects multiple validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

// Validate validates the entire configuration.
func (v *Validator) Validate(cfg *Config) error {
	v.validateLog(&cfg.Log)
	v.validateBackend(&cfg.Backend)
	v.validateCache(&cfg.Cache)
	v.validateHistory(&cfg.History)
	v.validateServer(&cfg.Server)

	if len(v.errors) > 0 {
		return v.errors
	}
	return nil
}

// Errors returns the collected validation errors.
func (v *Validator) Errors() ValidationErrors {
	return v.errors
}

func (v *Validator) addError(field string, value interface{}, msg string) {
	v.errors = append(v.errors, ValidationError{
		Field:   field,
		Value:   value,
		Message: msg,
	})
}

func (v *Validator) validateLog(cfg *LogConfig) {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[cfg.Level] {
		v.addError("log.level", cfg.Level, "must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{
		"auto": true, "text": true, "json": true,
	}
	if !validFormats[cfg.Format] {
		v.addError("log.format", cfg.Format, "must be one of: auto, text, json")
	}

	if cfg.File != "" && !isValidPath(cfg.File) {
		v.addError("log.file", cfg.File, "invalid file path")
	}
}

func (v *Validator) validateBackend(cfg *BackendConfig) {
	if cfg.BaseURL == "" {
		v.addError("backend.base_url", cfg.BaseURL, "base URL required")
	} else if u, err := url.Parse(cfg.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		v.addError("backend.base_url", cfg.BaseURL, "must be an absolute http(s) URL")
	} else if u.Scheme != "http" && u.Scheme != "https" {
		v.addError("backend.base_url", cfg.BaseURL, "scheme must be http or https")
	}

	v.validateDuration("backend.analyze_timeout", cfg.AnalyzeTimeout)
	v.validateDuration("backend.request_timeout", cfg.RequestTimeout)
	v.validateDuration("backend.min_submit_interval", cfg.MinSubmitInterval)

	if cfg.MaxRetries < 0 || cfg.MaxRetries > 10 {
		v.addError("backend.max_retries", cfg.MaxRetries, "must be between 0 and 10")
	}
}

func (v *Validator) validateDuration(field, value string) {
	d, err := time.ParseDuration(value)
	if err != nil {
		v.addError(field, value, "invalid duration format")
		return
	}
	if d < 0 {
		v.addError(field, value, "must be non-negative")
	}
}

func (v *Validator) validateCache(cfg *CacheConfig) {
	if cfg.Dir == "" {
		v.addError("cache.dir", cfg.Dir, "directory required")
	} else if !isValidPath(cfg.Dir) {
		v.addError("cache.dir", cfg.Dir, "invalid directory path")
	}
}

func (v *Validator) validateHistory(cfg *HistoryConfig) {
	if !cfg.Enabled {
		return
	}
	if cfg.Path == "" {
		v.addError("history.path", cfg.Path, "path required when enabled")
	} else if !isValidPath(cfg.Path) {
		v.addError("history.path", cfg.Path, "invalid file path")
	}
}

func (v *Validator) validateServer(cfg *ServerConfig) {
	if cfg.Addr == "" {
		v.addError("server.addr", cfg.Addr, "listen address required")
	}
}

func isValidPath(path string) bool {
	dir := filepath.Dir(path)
	_, err := os.Stat(dir)
	return err == nil || os.IsNotExist(err)
}

// ValidateConfig is a convenience function that creates a validator and validates config.
func ValidateConfig(cfg *Config) error {
	v := NewValidator()
	return v.Validate(cfg)
}
