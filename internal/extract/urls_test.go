package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadURLFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "urls.txt")
	content := "https://example.com/a\n\n  https://example.com/b  \n\nhttps://example.com/c"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	urls := ReadURLFile(path)
	assert.Equal(t, []string{
		"https://example.com/a",
		"https://example.com/b",
		"https://example.com/c",
	}, urls, "blank lines skipped, surrounding whitespace trimmed")
}

func TestReadURLFileMissing(t *testing.T) {
	t.Parallel()

	assert.Nil(t, ReadURLFile(filepath.Join(t.TempDir(), "nope.txt")))
}

func TestReadURLFileEmpty(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "urls.txt")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	assert.Empty(t, ReadURLFile(path))
}
