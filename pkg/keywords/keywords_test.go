package keywords

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "keywords.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestReadFile(t *testing.T) {
	path := writeFile(t, "best coffee maker\n\n  how to brew coffee  \n\nespresso vs drip\n")

	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"best coffee maker", "how to brew coffee", "espresso vs drip"}, got)
}

func TestReadFile_SingleLineNoNewline(t *testing.T) {
	path := writeFile(t, "only keyword")

	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"only keyword"}, got)
}

func TestReadFile_Empty(t *testing.T) {
	path := writeFile(t, "\n\n   \n")

	_, err := ReadFile(path)
	assert.Error(t, err)
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}
