//go:build linux

package edidhelper

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"EDIDInspect/edid/edidtest"
)

func writeConnector(t *testing.T, root, name, status string, raw []byte) {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "status"), []byte(status+"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "edid"), raw, 0o644))
}

func TestGetScreens_Sysfs(t *testing.T) {
	root := t.TempDir()
	old := drmRoot
	drmRoot = root
	t.Cleanup(func() { drmRoot = old })

	sample := edidtest.Sample()
	writeConnector(t, root, "card0-HDMI-A-1", "connected", sample)
	writeConnector(t, root, "card0-DP-1", "disconnected", nil)
	writeConnector(t, root, "card1-eDP-1", "connected", sample[:128])
	require.NoError(t, os.MkdirAll(filepath.Join(root, "renderD128"), 0o755))

	screens, err := GetScreens()
	require.NoError(t, err)
	require.Len(t, screens, 2)
	require.Equal(t, "card0-HDMI-A-1", screens[0].Name)
	require.Equal(t, "HDMI-A-1", screens[0].Description)
	require.Equal(t, sample, screens[0].Raw)
	require.Equal(t, "card1-eDP-1", screens[1].Name)
	require.Len(t, screens[1].Raw, 128)
}

func TestGetScreens_NoDRM(t *testing.T) {
	old := drmRoot
	drmRoot = filepath.Join(t.TempDir(), "missing")
	t.Cleanup(func() { drmRoot = old })

	_, err := GetScreens()
	require.ErrorIs(t, err, ErrUnsupported)
}

func TestGetScreens_ConnectedWithoutEDID(t *testing.T) {
	root := t.TempDir()
	old := drmRoot
	drmRoot = root
	t.Cleanup(func() { drmRoot = old })

	writeConnector(t, root, "card0-DP-2", "connected", nil)

	screens, err := GetScreens()
	require.Error(t, err)
	require.Empty(t, screens)
}
