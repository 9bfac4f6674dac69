package checkpoint

import (
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/internetyev/paafetch/pkg/paa"
)

func testOptions() paa.Options {
	return paa.Options{Depth: 2, MaxQuestions: 20, MaxRequests: 15}
}

func TestDigest_StableAndOrderInsensitive(t *testing.T) {
	opts := testOptions()

	a := Digest([]string{"coffee", "tea"}, opts)
	b := Digest([]string{"tea", "coffee"}, opts)
	c := Digest([]string{"Coffee ", " TEA"}, opts)

	assert.Equal(t, a, b)
	assert.Equal(t, a, c)
}

func TestDigest_ChangesWithBudgets(t *testing.T) {
	base := Digest([]string{"coffee"}, testOptions())
	other := Digest([]string{"coffee"}, paa.Options{Depth: 3, MaxQuestions: 20, MaxRequests: 15})

	assert.NotEqual(t, base, other)
}

func TestLoad_FreshState(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	st, err := Load([]string{"coffee"}, testOptions())
	require.NoError(t, err)

	assert.False(t, st.IsDone("coffee"))
	assert.Equal(t, 0, st.DoneCount())
}

func TestMarkDone_PersistsAcrossLoads(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	keywords := []string{"coffee", "tea"}
	opts := testOptions()

	st, err := Load(keywords, opts)
	require.NoError(t, err)

	require.NoError(t, st.MarkDone(paa.Result{
		Keyword:      "coffee",
		Questions:    []string{"What is coffee?"},
		RequestsUsed: 1,
	}))

	reloaded, err := Load(keywords, opts)
	require.NoError(t, err)

	assert.True(t, reloaded.IsDone("coffee"))
	assert.True(t, reloaded.IsDone("COFFEE "))
	assert.False(t, reloaded.IsDone("tea"))

	res, ok := reloaded.Get("coffee")
	require.True(t, ok)
	assert.Equal(t, []string{"What is coffee?"}, res.Questions)
	assert.Equal(t, 1, res.RequestsUsed)
}

func TestRemove_DeletesCheckpoint(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	keywords := []string{"coffee"}
	opts := testOptions()

	st, err := Load(keywords, opts)
	require.NoError(t, err)
	require.NoError(t, st.MarkDone(paa.Result{Keyword: "coffee"}))
	require.NoError(t, st.Remove())

	reloaded, err := Load(keywords, opts)
	require.NoError(t, err)
	assert.False(t, reloaded.IsDone("coffee"))
}

func TestDiscard(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	keywords := []string{"coffee"}
	opts := testOptions()

	st, err := Load(keywords, opts)
	require.NoError(t, err)
	require.NoError(t, st.MarkDone(paa.Result{Keyword: "coffee"}))

	require.NoError(t, Discard(keywords, opts))

	reloaded, err := Load(keywords, opts)
	require.NoError(t, err)
	assert.Equal(t, 0, reloaded.DoneCount())
}

func TestMarkDone_ConcurrentWorkers(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	keywords := make([]string, 20)
	for i := range keywords {
		keywords[i] = fmt.Sprintf("keyword %d", i)
	}
	opts := testOptions()

	st, err := Load(keywords, opts)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, len(keywords))
	for i, kw := range keywords {
		wg.Add(1)
		go func(i int, kw string) {
			defer wg.Done()
			errs[i] = st.MarkDone(paa.Result{Keyword: kw, RequestsUsed: 1})
		}(i, kw)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	// Every root must survive a reload, so the file on disk has to be
	// valid JSON containing all of them.
	reloaded, err := Load(keywords, opts)
	require.NoError(t, err)
	assert.Equal(t, len(keywords), reloaded.DoneCount())
	for _, kw := range keywords {
		assert.True(t, reloaded.IsDone(kw))
	}
}

func TestLoad_CorruptCheckpointStartsFresh(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	keywords := []string{"coffee"}
	opts := testOptions()

	st, err := Load(keywords, opts)
	require.NoError(t, err)
	require.NoError(t, st.MarkDone(paa.Result{Keyword: "coffee"}))

	// Overwrite the file with garbage, then load again.
	require.NoError(t, writeGarbage(t, keywords, opts))

	reloaded, err := Load(keywords, opts)
	require.NoError(t, err)
	assert.Equal(t, 0, reloaded.DoneCount())
}

func writeGarbage(t *testing.T, keywords []string, opts paa.Options) error {
	t.Helper()
	st, err := Load(keywords, opts)
	if err != nil {
		return err
	}
	return os.WriteFile(st.path, []byte("{not json"), 0600)
}
