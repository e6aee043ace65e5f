package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/exploitsearch/internal/config"
	domai "github.com/bryanwahyu/exploitsearch/internal/domain/ai"
)

const catalogCSV = `id,file,description,date_published,author,type,platform,port,date_added,date_updated,verified,codes,tags,aliases,screenshot_url,application_url,source_url
1,exploits/linux/remote/1.py,Remote Code Execution (RCE) on Linux,2020-01-01,alice,remote,linux,,,,1,CVE-2020-0001,,,,,
2,,RCE in Windows service,2023-06-01,bob,remote,windows,,,,0,,,,,,
3,,SQL injection in login form,2022-02-02,carol,webapps,php,,,,1,CVE-2022-1111;OSVDB-9,,,,,
`

type stubClient struct{ segments []string }

func (s stubClient) Generate(ctx context.Context, prompt string) ([]string, error) {
	return s.segments, nil
}

func setup(t *testing.T, extra string) string {
	t.Helper()
	dir := t.TempDir()
	catalog := filepath.Join(dir, "files_exploits.csv")
	require.NoError(t, os.WriteFile(catalog, []byte(catalogCSV), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "exploits", "linux", "remote"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "exploits", "linux", "remote", "1.py"), []byte("import os\n"), 0o644))

	cfgPath := filepath.Join(dir, "config.yaml")
	body := "catalog:\n  path: " + catalog + "\n  sourceRoot: " + dir + "\n" + extra
	require.NoError(t, os.WriteFile(cfgPath, []byte(body), 0o644))
	t.Setenv(config.CatalogEnv, "")
	return cfgPath
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func stubAI(t *testing.T, client domai.Client) {
	t.Helper()
	prev := newAIClient
	newAIClient = func(ctx context.Context, cfg *config.Config) (domai.Client, error) { return client, nil }
	t.Cleanup(func() { newAIClient = prev })
}

func TestSearchCommand(t *testing.T) {
	cfg := setup(t, "")

	out, err := run(t, "--config", cfg, "search", "RCE")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[1], "1 "), lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "2 "), lines[2])
	assert.Equal(t, "2 of 2 matches", lines[3])

	out, err = run(t, "--config", cfg, "search", "--json", "-n", "1")
	require.NoError(t, err)
	assert.Contains(t, out, `"total": 3`)
	assert.Contains(t, out, `"signatures": "CVE-2022-1111, OSVDB-9"`)
}

func TestShowCommand(t *testing.T) {
	cfg := setup(t, "")
	htmlPath := filepath.Join(t.TempDir(), "1.html")

	out, err := run(t, "--config", cfg, "show", "1", "--html", htmlPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Link:        https://www.exploit-db.com/exploits/1")
	assert.Contains(t, out, "Source language: python")

	page, err := os.ReadFile(htmlPath)
	require.NoError(t, err)
	assert.Contains(t, string(page), "<html")

	out, err = run(t, "--config", cfg, "show", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Brak ścieżki do pliku.")

	_, err = run(t, "--config", cfg, "show", "999")
	assert.ErrorContains(t, err, "exploit not found")
}

func TestAnalyzeCommandDisabled(t *testing.T) {
	cfg := setup(t, "")
	stubAI(t, nil)

	_, err := run(t, "--config", cfg, "analyze", "1")
	require.ErrorIs(t, err, domai.ErrDisabled)
	assert.Equal(t, "AI analysis disabled - no API key configured", describe(err))
}

func TestAnalyzeCommandExports(t *testing.T) {
	dir := t.TempDir()
	cfg := setup(t, "database:\n  driver: sqlite\n  dsn: "+filepath.Join(dir, "history.db")+"\n")
	stubAI(t, stubClient{segments: []string{"```html", "<h2>Ryzyko</h2>", "<p>9/10</p>", "```"}})

	pdfPath := filepath.Join(dir, "a.pdf")
	docxPath := filepath.Join(dir, "a.docx")
	out, err := run(t, "--config", cfg, "analyze", "3", "--pdf", pdfPath, "--docx", docxPath)
	require.NoError(t, err)

	assert.Contains(t, out, "analysis requested: exploit=3 request=1")
	assert.Contains(t, out, "Ryzyko\n9/10")
	assert.FileExists(t, pdfPath)
	assert.FileExists(t, docxPath)

	// the stored analysis is visible to the next process
	a := buildApp(context.Background(), mustLoad(t, cfg))
	defer a.Close()
	stored, err := a.ai.LatestFor(context.Background(), "3")
	require.NoError(t, err)
	assert.Equal(t, "<h2>Ryzyko</h2>\n<p>9/10</p>", stored.Result)
}

func TestMissingCatalogKeepsRunning(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("catalog:\n  path: /does/not/exist.csv\n"), 0o644))
	t.Setenv(config.CatalogEnv, "")

	out, err := run(t, "--config", cfgPath, "search")
	require.NoError(t, err)
	assert.Contains(t, out, "0 of 0 matches")
}

func mustLoad(t *testing.T, path string) *config.Config {
	t.Helper()
	cfg, err := config.Load(path)
	require.NoError(t, err)
	return cfg
}
