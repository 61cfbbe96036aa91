//go:build !unix

package pipeline

import (
	"os"
	"runtime"
)

// HostPlatform reports the host name and Go architecture.
type HostPlatform struct{}

// Labels implements Platform.
func (HostPlatform) Labels() (string, string) {
	name, err := os.Hostname()
	if err != nil {
		name = runtime.GOOS
	}
	return name, runtime.GOARCH
}
