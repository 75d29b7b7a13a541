package sensor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanOpensMatchingDevicesOnce(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "usb-XBIB-U-SS-if00-port0"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "usb-Other-Device-if00"), nil, 0o644))

	reg := NewRegistry()
	var attached []string
	opener := func(path string) (int, error) { return 42, nil }

	err := Scan(dir, reg, opener, testLogger(), func(path string, fd int) {
		attached = append(attached, path)
	})
	require.NoError(t, err)
	assert.Len(t, attached, 1)

	attached = nil
	err = Scan(dir, reg, opener, testLogger(), func(path string, fd int) {
		attached = append(attached, path)
	})
	require.NoError(t, err)
	assert.Empty(t, attached, "already-open device should not be reattached")
}

func TestScanMissingDirectoryIsNotAnError(t *testing.T) {
	reg := NewRegistry()
	err := Scan(filepath.Join(t.TempDir(), "missing"), reg, nil, testLogger(), func(string, int) {
		t.Fatal("attach should not be called")
	})
	assert.NoError(t, err)
}

func TestScanSkipsDeviceWhenOpenFails(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "xbib-u-ss-broken"), nil, 0o644))

	reg := NewRegistry()
	opener := func(path string) (int, error) { return 0, os.ErrPermission }

	called := false
	err := Scan(dir, reg, opener, testLogger(), func(string, int) { called = true })
	require.NoError(t, err)
	assert.False(t, called)
	assert.False(t, reg.isOpen(filepath.Join(dir, "xbib-u-ss-broken")))
}
