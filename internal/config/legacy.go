package config

import (
	"os"
	"strings"
)

// legacyEnvKeys maps environment variables recognized by earlier
// deployments to their canonical config keys.
var legacyEnvKeys = map[string]string{
	"DBIAS_BACKEND_URL":   "backend.base_url",
	"ANALYSIS_CACHE_DIR":  "cache.dir",
	"ANALYSIS_CACHE_PATH": "cache.dir",
}

// applyLegacyEnv folds legacy environment variables in as defaults.
// Config files, flags, and the sectioned DBIAS_* variables still win.
func (l *Loader) applyLegacyEnv() {
	for env, key := range legacyEnvKeys {
		val, ok := os.LookupEnv(env)
		if !ok || val == "" {
			continue
		}
		canonical := l.envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if _, ok := os.LookupEnv(canonical); ok {
			continue
		}
		l.v.SetDefault(key, val)
	}
}
