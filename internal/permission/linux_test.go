//go:build linux

package permission

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeStatus(t *testing.T, capEff string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "status")
	require.NoError(t, os.WriteFile(path, []byte("Name:\ttest\nCapEff:\t"+capEff+"\n"), 0o644))
	return path
}

func TestProcRequester(t *testing.T) {
	ctx := context.Background()
	nonRoot := func() int { return 1000 }

	r := &procRequester{statusPath: writeStatus(t, "0000000000003000"), euid: nonRoot}
	ok, err := r.Check(ctx, BluetoothScan)
	require.NoError(t, err)
	assert.True(t, ok)

	r = &procRequester{statusPath: writeStatus(t, "0000000000001000"), euid: nonRoot}
	ok, err = r.Request(ctx, BluetoothConnect)
	require.NoError(t, err)
	assert.False(t, ok, "CAP_NET_RAW missing")

	ok, err = r.Check(ctx, FineLocation)
	require.NoError(t, err)
	assert.True(t, ok, "location is not a Linux concept")

	r = &procRequester{statusPath: "/nonexistent/status", euid: func() int { return 0 }}
	ok, err = r.Check(ctx, BluetoothScan)
	require.NoError(t, err)
	assert.True(t, ok, "root skips the capability check")

	r = &procRequester{statusPath: "/nonexistent/status", euid: nonRoot}
	_, err = r.Check(ctx, BluetoothScan)
	assert.Error(t, err)
}

func TestCurrentPlatform(t *testing.T) {
	p := CurrentPlatform()
	assert.Equal(t, "linux", p.OS)
	assert.Greater(t, p.Release, 0)
}
