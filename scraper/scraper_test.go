package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/farrelathalla/anvil-upgrades/item"
	"github.com/farrelathalla/anvil-upgrades/recipes"
)

const upgradePage = `<html><body>
<h3><span class="mw-headline">Navigation</span></h3>
<table><tr><th>Page</th></tr><tr><td>Home</td></tr></table>
<h3><span class="mw-headline">Upgrades</span></h3>
<table class="wikitable">
  <tr><th>Upgrade</th><th> Input </th><th>Notes</th><th>Output</th></tr>
  <tr>
    <td data-item="enderio:item_dark_steel_upgrade@1">Empowered I</td>
    <td><code>enderio:dark_steel_sword</code> Dark Steel Sword</td>
    <td>first tier</td>
    <td>enderio:dark_steel_sword{"empowered":1}</td>
  </tr>
  <tr><td></td><td>enderio:dark_steel_sword</td><td>blank upgrade</td><td>x:y</td></tr>
  <tr>
    <td data-item="enderio:item_dark_steel_upgrade@1">Empowered I</td>
    <td>enderio:dark_steel_pickaxe</td>
    <td></td>
    <td>enderio:dark_steel_pickaxe{"empowered":1}</td>
  </tr>
</table>
</body></html>`

func TestParse(t *testing.T) {
	paths, err := Parse(strings.NewReader(upgradePage))
	require.NoError(t, err)

	upgrade := item.Of("enderio:item_dark_steel_upgrade", 1)
	want := []recipes.UpgradePath{
		{
			Input:   item.Of("enderio:dark_steel_sword", 0),
			Upgrade: upgrade,
			Output:  item.MustNew("enderio:dark_steel_sword", 0, map[string]any{"empowered": 1}),
		},
		{
			Input:   item.Of("enderio:dark_steel_pickaxe", 0),
			Upgrade: upgrade,
			Output:  item.MustNew("enderio:dark_steel_pickaxe", 0, map[string]any{"empowered": 1}),
		},
	}
	assert.Equal(t, want, paths)
}

func TestParse_NoTable(t *testing.T) {
	_, err := Parse(strings.NewReader(`<table><tr><th>Name</th></tr></table>`))
	assert.ErrorIs(t, err, ErrNoTable)
}

func TestParse_BadIdentity(t *testing.T) {
	page := `<table><tr><th>Input</th><th>Upgrade</th><th>Output</th></tr>
<tr><td>a:b@oops</td><td>c:d</td><td>e:f</td></tr></table>`
	_, err := Parse(strings.NewReader(page))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 1")
}

func TestRun_SavesAndLoads(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(upgradePage))
	}))
	defer srv.Close()

	file := filepath.Join(t.TempDir(), "upgrades.json")
	scraped, err := Run(context.Background(), srv.URL, file, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, scraped, 2)

	loaded, err := LoadData(file)
	require.NoError(t, err)
	assert.Equal(t, scraped, loaded)
}

func TestRun_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := Run(context.Background(), srv.URL, filepath.Join(t.TempDir(), "x.json"), zap.NewNop())
	assert.ErrorContains(t, err, "404")
}

func TestLoadData_Missing(t *testing.T) {
	_, err := LoadData(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestSave_ReplacesExistingFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "upgrades.json")
	require.NoError(t, os.WriteFile(file, []byte("stale"), 0644))

	paths := []recipes.UpgradePath{{
		Input:   item.Of("enderio:dark_steel_sword", 0),
		Upgrade: item.Of("enderio:item_dark_steel_upgrade", 1),
		Output:  item.MustNew("enderio:dark_steel_sword", 0, map[string]any{"empowered": 1}),
	}}
	require.NoError(t, Save(file, paths))

	loaded, err := LoadData(file)
	require.NoError(t, err)
	assert.Equal(t, paths, loaded)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file left behind")
}

func TestSave_FailureLeavesNoPartialFile(t *testing.T) {
	dir := t.TempDir()
	// a non-empty directory cannot be replaced by a file
	target := filepath.Join(dir, "upgrades.json")
	require.NoError(t, os.MkdirAll(filepath.Join(target, "keep"), 0755))

	err := Save(target, nil)
	require.Error(t, err)

	info, statErr := os.Stat(target)
	require.NoError(t, statErr)
	assert.True(t, info.IsDir())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file left behind")
}

func TestSave_MissingDirectory(t *testing.T) {
	err := Save(filepath.Join(t.TempDir(), "missing", "upgrades.json"), nil)
	assert.Error(t, err)
}
