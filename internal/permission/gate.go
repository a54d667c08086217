// Package permission resolves the OS grants needed before scanning.
package permission

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"rover-radar.klederson.com/internal/logging"
)

// Permission is one OS-level grant.
type Permission string

const (
	BluetoothScan    Permission = "bluetooth-scan"
	BluetoothConnect Permission = "bluetooth-connect"
	FineLocation     Permission = "fine-location"
)

var ErrPermissionDenied = errors.New("permission denied")

// Platform identifies the host OS and its release. For Android the release
// is the API level.
type Platform struct {
	OS      string
	Release int
}

// Required returns the permissions a platform asks for before a BLE scan.
// Android 12 (API 31) split the radio grants out of location.
func Required(p Platform) []Permission {
	switch p.OS {
	case "android":
		switch {
		case p.Release >= 31:
			return []Permission{BluetoothScan, BluetoothConnect}
		case p.Release >= 23:
			return []Permission{FineLocation}
		}
		return nil
	case "linux":
		return []Permission{BluetoothScan, BluetoothConnect}
	default:
		return nil
	}
}

// Requester checks and requests individual permissions.
type Requester interface {
	Check(ctx context.Context, p Permission) (bool, error)
	Request(ctx context.Context, p Permission) (bool, error)
}

// Result lists the outcome per permission.
type Result struct {
	Granted []Permission
	Denied  []Permission
}

// Gate resolves the required permissions once and remembers the outcome.
type Gate struct {
	platform  Platform
	requester Requester
	log       *zap.Logger

	mu       sync.Mutex
	resolved bool
	result   Result
	err      error
}

// NewGate returns a gate for platform.
func NewGate(platform Platform, requester Requester, log *zap.Logger) *Gate {
	return &Gate{
		platform:  platform,
		requester: requester,
		log:       logging.Component(log, "permission"),
	}
}

// Resolve checks each required permission and requests the missing ones.
// It returns an error wrapping ErrPermissionDenied if any stays denied.
// Later calls return the first outcome.
func (g *Gate) Resolve(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.resolved {
		return g.err
	}

	var res Result
	var errs []error
	for _, p := range Required(g.platform) {
		ok, err := g.requester.Check(ctx, p)
		if err == nil && !ok {
			ok, err = g.requester.Request(ctx, p)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p, err))
		}
		if ok {
			res.Granted = append(res.Granted, p)
		} else {
			res.Denied = append(res.Denied, p)
		}
	}
	if err := errors.Join(errs...); err != nil {
		g.log.Warn("permission check failed", zap.Error(err))
	}

	g.resolved = true
	g.result = res
	if len(res.Denied) > 0 {
		g.err = fmt.Errorf("%w: %s", ErrPermissionDenied, joinPermissions(res.Denied))
		g.log.Error("permissions refused",
			zap.String("os", g.platform.OS),
			zap.Int("release", g.platform.Release),
			zap.Strings("denied", permissionStrings(res.Denied)),
		)
		return g.err
	}
	g.log.Info("permissions granted",
		zap.String("os", g.platform.OS),
		zap.Strings("granted", permissionStrings(res.Granted)),
	)
	return nil
}

// Resolved returns the outcome once Resolve has run.
func (g *Gate) Resolved() (Result, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.result, g.resolved
}

func permissionStrings(ps []Permission) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = string(p)
	}
	return out
}

func joinPermissions(ps []Permission) string {
	return strings.Join(permissionStrings(ps), ", ")
}
