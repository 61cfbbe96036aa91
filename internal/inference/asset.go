package inference

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// DefaultLockTimeout bounds how long CacheAsset waits for another process
// copying the same asset.
const DefaultLockTimeout = 30 * time.Second

// ErrAssetCache wraps filesystem failures while materializing a model asset.
var ErrAssetCache = errors.New("inference: asset cache error")

// CacheAsset copies the named asset from assets into cacheDir and returns the
// cached path. An existing non-empty copy is reused as is; a missing or
// zero-length one is (re)written via a temp file and rename while holding an
// advisory lock, so concurrent constructions never observe a partial file.
func CacheAsset(assets fs.FS, name, cacheDir string) (string, error) {
	if assets == nil {
		return "", fmt.Errorf("%w: no asset source", ErrAssetCache)
	}
	path := filepath.Join(cacheDir, filepath.Base(name))
	if cached(path) {
		return path, nil
	}

	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return "", fmt.Errorf("%w: failed to create cache directory: %v", ErrAssetCache, err)
	}

	lock, err := newFileLock(path+".lock", DefaultLockTimeout)
	if err != nil {
		return "", fmt.Errorf("%w: failed to create lock: %v", ErrAssetCache, err)
	}
	if err := lock.Lock(); err != nil {
		lock.Unlock()
		return "", fmt.Errorf("%w: failed to acquire lock: %v", ErrAssetCache, err)
	}
	defer lock.Unlock()

	// Another process may have finished the copy while we waited.
	if cached(path) {
		return path, nil
	}

	src, err := assets.Open(name)
	if err != nil {
		return "", fmt.Errorf("%w: failed to open asset %s: %v", ErrAssetCache, name, err)
	}
	defer src.Close()

	tmp := path + ".tmp"
	dst, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return "", fmt.Errorf("%w: failed to create temp file: %v", ErrAssetCache, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("%w: failed to copy asset: %v", ErrAssetCache, err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("%w: failed to flush asset: %v", ErrAssetCache, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp) // cleanup on failure
		return "", fmt.Errorf("%w: failed to rename temp file: %v", ErrAssetCache, err)
	}

	return path, nil
}

func cached(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.Mode().IsRegular() && st.Size() > 0
}
