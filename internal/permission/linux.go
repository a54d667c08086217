//go:build linux

package permission

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"golang.org/x/sys/unix"
)

// CurrentPlatform reports the running OS and its kernel major release.
func CurrentPlatform() Platform {
	var u unix.Utsname
	if err := unix.Uname(&u); err != nil {
		return Platform{OS: runtime.GOOS}
	}
	return Platform{OS: runtime.GOOS, Release: parseRelease(unix.ByteSliceToString(u.Release[:]))}
}

// procRequester grants the radio permissions to root or to a process
// holding CAP_NET_ADMIN and CAP_NET_RAW. Linux has no interactive prompt,
// so Request only re-checks.
type procRequester struct {
	statusPath string
	euid       func() int
}

// NewSystemRequester returns the requester for this OS.
func NewSystemRequester() Requester {
	return &procRequester{statusPath: "/proc/self/status", euid: unix.Geteuid}
}

func (r *procRequester) Check(_ context.Context, p Permission) (bool, error) {
	switch p {
	case BluetoothScan, BluetoothConnect:
	default:
		return true, nil
	}
	if r.euid() == 0 {
		return true, nil
	}
	data, err := os.ReadFile(r.statusPath)
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", r.statusPath, err)
	}
	mask, err := parseCapEff(string(data))
	if err != nil {
		return false, err
	}
	return hasCap(mask, unix.CAP_NET_ADMIN) && hasCap(mask, unix.CAP_NET_RAW), nil
}

func (r *procRequester) Request(ctx context.Context, p Permission) (bool, error) {
	return r.Check(ctx, p)
}
