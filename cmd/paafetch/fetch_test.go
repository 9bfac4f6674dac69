package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/internetyev/paafetch/pkg/config"
	"github.com/internetyev/paafetch/pkg/ratelimit"
)

// saveFetchFlags snapshots the command's package-level flag variables
// and restores them when the test finishes.
func saveFetchFlags(t *testing.T) {
	t.Helper()
	origKeyword := fetchKeyword
	origFile := keywordsFile
	origConfigJSON := configJSON
	origSilent := silentMode
	origQuiet := quiet
	t.Cleanup(func() {
		fetchKeyword = origKeyword
		keywordsFile = origFile
		configJSON = origConfigJSON
		silentMode = origSilent
		quiet = origQuiet
	})
}

func TestCollectKeywords_KeywordAndFileCombine(t *testing.T) {
	saveFetchFlags(t)

	path := filepath.Join(t.TempDir(), "keywords.txt")
	require.NoError(t, os.WriteFile(path, []byte("tea\n\ncocoa\n"), 0600))

	fetchKeyword = "coffee"
	keywordsFile = path

	roots, err := collectKeywords()
	require.NoError(t, err)
	assert.Equal(t, []string{"coffee", "tea", "cocoa"}, roots)
}

func TestCollectKeywords_KeywordOnly(t *testing.T) {
	saveFetchFlags(t)

	fetchKeyword = "  coffee  "
	keywordsFile = ""

	roots, err := collectKeywords()
	require.NoError(t, err)
	assert.Equal(t, []string{"coffee"}, roots)
}

func TestCollectKeywords_BlankKeyword(t *testing.T) {
	saveFetchFlags(t)

	fetchKeyword = "   "
	keywordsFile = ""

	_, err := collectKeywords()
	assert.Error(t, err)
}

func TestResolveOverwrite_SilentProceeds(t *testing.T) {
	saveFetchFlags(t)

	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, os.WriteFile(path, []byte("keyword,question\n"), 0600))

	silentMode = true
	allowed, err := resolveOverwrite(path, false)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestResolveOverwrite_ConfigAllows(t *testing.T) {
	saveFetchFlags(t)

	silentMode = false
	allowed, err := resolveOverwrite(filepath.Join(t.TempDir(), "out.csv"), true)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestResolveOverwrite_MissingFileNeedsNoPrompt(t *testing.T) {
	saveFetchFlags(t)

	silentMode = false
	quiet = false
	allowed, err := resolveOverwrite(filepath.Join(t.TempDir(), "new.csv"), false)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestResolveOverwrite_QuietRefusesExistingFile(t *testing.T) {
	saveFetchFlags(t)

	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, os.WriteFile(path, []byte("keyword,question\n"), 0600))

	silentMode = false
	quiet = true
	_, err := resolveOverwrite(path, false)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "--overwrite")
}

func TestResolveCredentials_ConfigJSON(t *testing.T) {
	saveFetchFlags(t)

	path := filepath.Join(t.TempDir(), "dataforseo.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"api_login":"user@example.com","api_password":"secret"}`), 0600))

	configJSON = path
	cfg := config.DefaultConfig()

	require.NoError(t, resolveCredentials(cfg))
	assert.Equal(t, "user@example.com", cfg.API.Login)
	assert.Equal(t, "secret", cfg.API.Password)
}

func TestResolveCredentials_ConfigJSONMissingFile(t *testing.T) {
	saveFetchFlags(t)

	configJSON = filepath.Join(t.TempDir(), "nope.json")
	cfg := config.DefaultConfig()

	assert.Error(t, resolveCredentials(cfg))
}

func TestNewRateLimiter(t *testing.T) {
	bucket := newRateLimiter(&config.RateLimitConfig{RequestsPerMinute: 60, BurstSize: 5})
	assert.IsType(t, &ratelimit.TokenBucket{}, bucket)

	window := newRateLimiter(&config.RateLimitConfig{RequestsPerMinute: 60})
	assert.IsType(t, &ratelimit.SlidingWindow{}, window)
}
