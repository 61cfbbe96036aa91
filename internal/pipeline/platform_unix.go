//go:build unix

package pipeline

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// HostPlatform reports the node name and machine architecture from uname(2).
type HostPlatform struct{}

// Labels implements Platform.
func (HostPlatform) Labels() (string, string) {
	var u unix.Utsname
	if err := unix.Uname(&u); err != nil {
		return runtime.GOOS, runtime.GOARCH
	}
	return unix.ByteSliceToString(u.Nodename[:]), unix.ByteSliceToString(u.Machine[:])
}
