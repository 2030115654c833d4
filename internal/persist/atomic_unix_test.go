//go:build !windows

package persist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/clipstash/internal/history"
)

func TestSaveKeepsHistoryPrivate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "clipstash")
	path := filepath.Join(dir, "clipboard.json")
	require.NoError(t, New(path, 30).Save([]history.Entry{entry(history.TextPayload("secret"), 0)}))

	fi, err := os.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), fi.Mode().Perm())

	fi, err = os.Stat(path)
	require.NoError(t, err)
	assert.Zero(t, fi.Mode().Perm()&0o077)
}
