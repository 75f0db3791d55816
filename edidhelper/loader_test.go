package edidhelper

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"EDIDInspect/edid/edidtest"
)

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "monitor.bin")
	sample := edidtest.Sample()
	require.NoError(t, os.WriteFile(path, sample, 0o644))

	raw, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, sample, raw)
}

func TestLoadFile_TruncatesAtLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.bin")
	require.NoError(t, os.WriteFile(path, make([]byte, MaxEDIDSize+100), 0o644))

	raw, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, raw, MaxEDIDSize)

	raw, err = LoadFileLimit(path, 128)
	require.NoError(t, err)
	require.Len(t, raw, 128)
}

func TestLoadFile_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.bin")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	raw, err := LoadFile(path)
	require.NoError(t, err)
	require.Empty(t, raw)
}

func TestLoadFile_Errors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.bin"))
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = LoadFileLimit("whatever", 0)
	require.Error(t, err)
}
