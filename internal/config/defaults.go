package config

import (
	"fmt"
	"os"
)

// DefaultConfigYAML contains the starter configuration written by `dbias init`.
// Values not specified here use the built-in defaults.
const DefaultConfigYAML = `# D-BIAS Configuration
#
# Values not specified here use sensible defaults.

# Analysis backend
backend:
  base_url: http://localhost:5000
  # Upper bound for a full analysis run, including model-generated
  # explanations. Lightweight calls (ping, latest) use request_timeout.
  analyze_timeout: 20m
  request_timeout: 30s
  # Additional attempts after a retryable failure.
  max_retries: 1
  # Minimum spacing between analysis submissions.
  min_submit_interval: 3s

# Local cache of the most recent normalized analysis
cache:
  dir: .dbias/cache

# SQLite-backed analysis history
history:
  enabled: true
  path: .dbias/history.db

# Local HTTP server (dbias serve)
server:
  addr: :8080

# Logging
log:
  level: info
  # auto | text | json
  format: auto
`

// WriteDefaultConfig writes the starter configuration to path atomically.
// Existing files are preserved unless overwrite is set.
func WriteDefaultConfig(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
		}
	}
	return AtomicWrite(path, []byte(DefaultConfigYAML))
}
