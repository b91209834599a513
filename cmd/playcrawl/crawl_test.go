package main

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nao1215/playcrawl/internal/config"
	"github.com/nao1215/playcrawl/internal/model"
)

func TestNewCrawlCmd(t *testing.T) {
	t.Parallel()

	cmd := NewCrawlCmd()
	assert.Equal(t, "crawl", cmd.Use)

	for name, def := range map[string]string{
		"keywords":       "",
		"max-item":       "0",
		"download-delay": "0",
		"output":         config.DefaultOutput,
		"no-db":          "false",
		"markdown":       "false",
	} {
		flag := cmd.Flags().Lookup(name)
		require.NotNil(t, flag, name)
		assert.Equal(t, def, flag.DefValue, name)
	}
	assert.True(t, cmd.Flags().Lookup("search-url").Hidden)
}

func TestCrawlCmd_ConfigurationErrors(t *testing.T) {
	t.Parallel()

	tests := map[string][]string{
		"no keywords":       {},
		"blank keywords":    {"--keywords", " , "},
		"negative max item": {"--keywords", "cat", "--max-item=-1"},
		"non numeric delay": {"--keywords", "cat", "--download-delay", "soon"},
		"blank output":      {"--keywords", "cat", "--output", " "},
		"zero concurrency":  {"--keywords", "cat", "--concurrency", "0"},
	}
	for name, extra := range tests {
		name := name
		extra := extra
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			args := append([]string{"crawl", "--config", emptyConfig(t), "--no-db"}, extra...)
			_, _, err := executeCmd(t, args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "configuration error")
		})
	}

	t.Run("missing config file", func(t *testing.T) {
		t.Parallel()

		_, _, err := executeCmd(t, "crawl", "-k", "cat", "--config", filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		assert.ErrorIs(t, err, config.ErrConfigNotFound)
	})
}

func TestBuildConfig_FlagsOverrideFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`keywords: [cat, dog]
max_item: 5
output: from-file.jsonl
concurrency: 4
headers:
  X-Test: "1"
`), 0o600))

	cmd := NewRootCmd()
	crawl, _, err := cmd.Find([]string{"crawl"})
	require.NoError(t, err)
	require.NoError(t, crawl.ParseFlags([]string{"--config", path, "--max-item", "7", "--no-db"}))

	cfg, err := buildConfig(crawl)
	require.NoError(t, err)
	assert.Equal(t, []string{"cat", "dog"}, cfg.Keywords)
	assert.Equal(t, 7, cfg.MaxItem)
	assert.Equal(t, "from-file.jsonl", cfg.Output)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, "1", cfg.Headers["X-Test"])
	assert.False(t, cfg.SaveToDB)
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestCrawlCmd_EndToEnd(t *testing.T) {
	t.Parallel()

	server := storeServer(t)
	dir := t.TempDir()
	output := filepath.Join(dir, "out", "item.csv")
	dbDir := filepath.Join(dir, "db")

	stdout, _, err := executeCmd(t, crawlArgs(t, server,
		"--keywords", "cat",
		"--output", output,
		"--db-dir", dbDir,
	)...)
	require.NoError(t, err)
	assert.Contains(t, stdout, "CRAWL SUMMARY")
	assert.Contains(t, stdout, "Pages Exhausted")
	assert.Contains(t, stdout, output)

	records := readCSV(t, output)
	require.Len(t, records, 4, "header and three unique apps")
	assert.Equal(t, model.ItemFields, records[0])
	ids := make([]string, 0, 3)
	for _, rec := range records[1:] {
		ids = append(ids, rec[0])
		assert.Equal(t, "cat", rec[15])
		assert.NotEmpty(t, rec[16], "fingerprint")
	}
	assert.ElementsMatch(t, []string{"com.a", "com.b", "com.c"}, ids)

	t.Run("history lists the run", func(t *testing.T) {
		stdout, _, err := executeCmd(t, "history", "--db-dir", dbDir)
		require.NoError(t, err)
		assert.Contains(t, stdout, "Crawl runs (1)")
		assert.Contains(t, stdout, "pages exhausted")
	})

	t.Run("history shows run items as json", func(t *testing.T) {
		stdout, _, err := executeCmd(t, "history", "--db-dir", dbDir, "--run-id", "1", "--json")
		require.NoError(t, err)

		var detail struct {
			Run struct {
				Items  int    `json:"items"`
				Reason string `json:"reason"`
			} `json:"run"`
			Items []model.AppItem `json:"items"`
		}
		require.NoError(t, json.Unmarshal([]byte(stdout), &detail))
		assert.Equal(t, 3, detail.Run.Items)
		assert.Equal(t, "pages exhausted", detail.Run.Reason)
		assert.Len(t, detail.Items, 3)
	})
}

func TestCrawlCmd_MaxItem(t *testing.T) {
	t.Parallel()

	server := storeServer(t)
	output := filepath.Join(t.TempDir(), "items.jsonl")

	stdout, _, err := executeCmd(t, crawlArgs(t, server,
		"-k", "cat",
		"--max-item", "2",
		"--concurrency", "1",
		"-o", output,
		"--no-db",
		"--markdown",
	)...)
	require.NoError(t, err)
	assert.Contains(t, stdout, "# Crawl Summary")
	assert.Contains(t, stdout, "Budget Reached")

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	lines := 0
	for _, b := range data {
		if b == '\n' {
			lines++
		}
	}
	assert.Equal(t, 2, lines)
}
