package cryptox

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// usePepperFile points the package at path for one test.
func usePepperFile(t *testing.T, path string) {
	t.Helper()

	prev := pepperFile
	SetPepperPath(path)
	t.Cleanup(func() { SetPepperPath(prev) })
}

func TestPepperCreatedOnceAndReused(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets", "pepper")
	usePepperFile(t, path)

	first, err := Pepper()
	require.NoError(t, err)
	require.NotEmpty(t, first)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, first, string(data))

	// A fresh load reads the file rather than generating a new pepper.
	SetPepperPath(path)
	second, err := Pepper()
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestPepperTrimsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pepper")
	require.NoError(t, os.WriteFile(path, []byte("from-ops\n"), 0600))
	usePepperFile(t, path)

	p, err := Pepper()
	require.NoError(t, err)
	require.Equal(t, "from-ops", p)
}

func TestPepperRejectsEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pepper")
	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0600))
	usePepperFile(t, path)

	_, err := Pepper()
	require.Error(t, err)
}
