package main

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HFocko/Dashboard/internal/pkg/config"
)

const netflixCSV = `show_id,type,title,release_year,duration
s1,Movie,Dick Johnson Is Dead,2020,90 min
s2,TV Show,Blood & Water,2021,2 Seasons
s3,Movie,My Little Pony,2019,91 min
`

// testApp wires an app over a temporary data directory holding the
// netflix source plus one malformed and one unsupported document
func testApp(t *testing.T) *app {
	t.Helper()
	dataDir := t.TempDir()
	files := map[string]string{
		"netflix_titles.csv": netflixCSV,
		"broken.csv":         "a,b\n1,bad \"quote\n",
		"notes.txt":          "not a dataset",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dataDir, name), []byte(content), 0644))
	}

	cfg := &config.Config{
		Environment:    "test",
		DataDir:        dataDir,
		DefaultDataset: "netflix",
		ChartOutputDir: t.TempDir(),
		ChartWidth:     400,
		ChartHeight:    300,
	}
	a, err := newApp(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommandTree(t *testing.T) {
	root := newRootCmd()

	for _, name := range []string{"datasets", "sources", "summary", "table", "charts", "warm", "worker", "history"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}

	table, _, err := root.Find([]string{"table"})
	require.NoError(t, err)
	assert.NotNil(t, table.Flags().Lookup("search"))
	assert.NotNil(t, table.Flags().Lookup("sort"))
	assert.Equal(t, "1", table.Flags().Lookup("page").DefValue)
	assert.NotNil(t, root.PersistentFlags().Lookup("dataset"))
}

func TestPlainTable(t *testing.T) {
	out := plainTable([]string{"ID", "Title"}, [][]string{{"netflix", "Netflix Titles"}})
	assert.Contains(t, out, "netflix")
	assert.Contains(t, out, "Netflix Titles")
}

func TestShortHash(t *testing.T) {
	assert.Equal(t, "0123456789ab", shortHash("0123456789abcdef"))
	assert.Equal(t, "abc", shortHash("abc"))
}

func TestDatasetsCommand_ShowsSourceState(t *testing.T) {
	a := testApp(t)
	sum := sha256.Sum256([]byte(netflixCSV))

	out, err := run(t, newDatasetsCmd(func() *app { return a }))
	require.NoError(t, err)

	assert.Contains(t, out, "netflix_titles.csv")
	assert.Contains(t, out, hex.EncodeToString(sum[:])[:12])
	assert.Contains(t, out, "missing")
}

func TestSourcesCommand(t *testing.T) {
	a := testApp(t)

	out, err := run(t, newSourcesCmd(func() *app { return a }))
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	find := func(name string) string {
		for _, l := range lines {
			if strings.Contains(l, name) {
				return l
			}
		}
		return ""
	}
	assert.Contains(t, find("broken.csv"), "malformed")
	assert.Contains(t, find("notes.txt"), "unsupported")
	netflix := find("netflix_titles.csv")
	assert.Contains(t, netflix, "CSV")
	assert.Contains(t, netflix, "netflix")
}

func TestTableCommand_PrintsFinalPageOnce(t *testing.T) {
	a := testApp(t)
	cmd := newTableCmd(func() *app { return a }, func() string { return "netflix" })

	out, err := run(t, cmd, "--search", "movie", "--sort", "release_year")
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(out, "Dick Johnson Is Dead"))
	assert.Contains(t, out, "My Little Pony")
	assert.NotContains(t, out, "Blood & Water")
}

func TestChartsCommand_RendersThroughCoordinator(t *testing.T) {
	a := testApp(t)
	outDir := t.TempDir()

	stale := filepath.Join(outDir, "old_pie.png")
	require.NoError(t, os.WriteFile(stale, []byte("png"), 0644))
	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	cmd := newChartsCmd(func() *app { return a }, func() string { return "netflix" })
	out, err := run(t, cmd, "--out", outDir)
	require.NoError(t, err)

	for _, name := range []string{"netflix_pie.png", "netflix_line.png", "netflix_bar.png"} {
		assert.Contains(t, out, name)
		assert.FileExists(t, filepath.Join(outDir, name))
	}
	assert.NoFileExists(t, stale)
}

func TestWarmCommand(t *testing.T) {
	a := testApp(t)

	out, err := run(t, newWarmCmd(func() *app { return a }), "--refresh", "netflix")
	require.NoError(t, err)
	assert.Contains(t, out, "netflix\twarmed")

	_, err = run(t, newWarmCmd(func() *app { return a }), "--refresh", "--async", "netflix")
	assert.Error(t, err)

	_, err = run(t, newWarmCmd(func() *app { return a }), "addiction")
	assert.Error(t, err)
}

func TestOpsMux(t *testing.T) {
	a := testApp(t)
	mux := opsMux(a)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"backend":"memory"`)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
