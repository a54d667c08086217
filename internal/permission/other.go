//go:build !linux

package permission

import (
	"context"
	"runtime"
)

// CurrentPlatform reports the running OS. The release is not tracked off
// Linux.
func CurrentPlatform() Platform {
	return Platform{OS: runtime.GOOS}
}

// grantAll leaves prompting to the OS Bluetooth stack, which asks the user
// on first radio use.
type grantAll struct{}

// NewSystemRequester returns the requester for this OS.
func NewSystemRequester() Requester { return grantAll{} }

func (grantAll) Check(context.Context, Permission) (bool, error)   { return true, nil }
func (grantAll) Request(context.Context, Permission) (bool, error) { return true, nil }
