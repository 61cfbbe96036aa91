package config

import (
	"os"
	"path/filepath"
)

// defaultCacheDir is the per-user cache location for materialized models:
// $XDG_CACHE_HOME/enhance-service (or the platform equivalent), falling back
// to the system temp directory.
func defaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "enhance-service")
	}
	return filepath.Join(os.TempDir(), "enhance-service")
}
