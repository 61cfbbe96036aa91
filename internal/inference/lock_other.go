//go:build !unix

package inference

import "time"

// fileLock is a no-op where flock is unavailable; the temp-file rename in
// CacheAsset still keeps readers from seeing a partial copy.
type fileLock struct{}

func newFileLock(string, time.Duration) (*fileLock, error) { return &fileLock{}, nil }

func (*fileLock) Lock() error   { return nil }
func (*fileLock) Unlock() error { return nil }
