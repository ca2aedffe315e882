// SPDX-License-Identifier: Apache-2.0

package sidecar_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/autobericht/bericht-mcp/internal/schema"
	"github.com/autobericht/bericht-mcp/internal/sidecar"
	"github.com/autobericht/bericht-mcp/internal/spider"
)

const fullSidecar = `{
  "meta": {"createdBy": "editor", "updatedAt": "2025-01-01T00:00:00Z"},
  "photos": {"photoTagOptions": {"observations": ["Leiter"]}},
  "report": {
    "project": {
      "meta": {"locale": "de-CH"},
      "chapters": [
        {"id": "1", "title": {"de": "Organisation"}, "rows": [
          {"id": "1.1.1", "sectionId": "1.1", "remark": "kept", "workstate": {"includeFinding": true, "done": true, "selectedLevel": 3}}
        ]}
      ]
    }
  },
  "spider": {"overrides": {"1": {"useCompany": true, "company": "70"}}}
}`

const bareProject = `{"chapters": [{"id": "2", "rows": []}]}`

func parse(t *testing.T, doc string) *sidecar.Document {
	t.Helper()
	v, err := schema.Default()
	require.NoError(t, err)
	d, err := sidecar.Parse(v, "test.json", []byte(doc))
	require.NoError(t, err)
	return d
}

func decodeMap(t *testing.T, b []byte) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(b, &out))
	return out
}

// ---------------------------------------------------------------------------
// Parse
// ---------------------------------------------------------------------------

func TestParse_FullSidecar(t *testing.T) {
	doc := parse(t, fullSidecar)
	require.True(t, doc.HasProject())

	project, err := doc.Project()
	require.NoError(t, err)
	require.Len(t, project.Chapters, 1)
	assert.Equal(t, "Organisation", project.Chapters[0].Title.Resolve("de"))
	assert.Equal(t, 3.0, project.Chapters[0].Rows[0].Workstate.SelectedLevel.Value)

	overrides, err := doc.Overrides()
	require.NoError(t, err)
	require.Contains(t, overrides, "1")
	assert.Equal(t, true, overrides["1"].UseCompany)
	assert.Equal(t, "70", overrides["1"].Company)
}

func TestParse_BareProject(t *testing.T) {
	doc := parse(t, bareProject)
	require.True(t, doc.HasProject())

	project, err := doc.Project()
	require.NoError(t, err)
	assert.Equal(t, "2", string(project.Chapters[0].ID))

	overrides, err := doc.Overrides()
	require.NoError(t, err)
	assert.Nil(t, overrides)
}

func TestParse_NoProject(t *testing.T) {
	doc := parse(t, `{"photos": {}}`)
	assert.False(t, doc.HasProject())
	_, err := doc.Project()
	assert.ErrorIs(t, err, sidecar.ErrNoProject)
}

func TestParse_InvalidProject(t *testing.T) {
	v, err := schema.Default()
	require.NoError(t, err)
	_, err = sidecar.Parse(v, "bad.json", []byte(`{"report": {"project": {"chapters": [{"rows": []}]}}}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, schema.ErrInvalid)
}

// ---------------------------------------------------------------------------
// Merge
// ---------------------------------------------------------------------------

func TestMerge_PreservesUnknownData(t *testing.T) {
	doc := parse(t, fullSidecar)
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	res := &spider.Result{SchemaVersion: spider.SchemaVersion, WeightsSource: "bundle:data/weights.json", GeneratedAt: now}

	out, err := doc.Merge(res, now)
	require.NoError(t, err)
	merged := decodeMap(t, out)

	assert.Contains(t, merged, "photos")
	meta := merged["meta"].(map[string]any)
	assert.Equal(t, "editor", meta["createdBy"])
	assert.Equal(t, "2026-10-18T12:00:00Z", meta["updatedAt"])

	row := merged["report"].(map[string]any)["project"].(map[string]any)["chapters"].([]any)[0].(map[string]any)["rows"].([]any)[0].(map[string]any)
	assert.Equal(t, "kept", row["remark"])

	assert.Equal(t, "bundle:data/weights.json", merged["spider"].(map[string]any)["weightsSource"])
}

func TestMerge_BareProjectBecomesSidecar(t *testing.T) {
	out, err := parse(t, bareProject).Merge(nil, time.Unix(0, 0))
	require.NoError(t, err)
	merged := decodeMap(t, out)

	assert.NotContains(t, merged, "chapters")
	assert.NotContains(t, merged, "spider")
	assert.Contains(t, merged["report"].(map[string]any), "project")
}

// ---------------------------------------------------------------------------
// Store
// ---------------------------------------------------------------------------

func TestStore_SaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, sidecar.FileName)
	require.NoError(t, os.WriteFile(path, []byte(fullSidecar), 0o644))

	now := time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC)
	store, err := sidecar.NewStore(path, zaptest.NewLogger(t))
	require.NoError(t, err)
	store.WithClock(func() time.Time { return now })
	assert.Equal(t, path, store.Path())

	doc, err := store.Load()
	require.NoError(t, err)

	res := &spider.Result{
		SchemaVersion: spider.SchemaVersion,
		Overrides:     spider.Overrides{"1": {UseCompany: true}},
	}
	require.NoError(t, store.Save(doc, res))

	reloaded, err := store.Load()
	require.NoError(t, err)
	overrides, err := reloaded.Overrides()
	require.NoError(t, err)
	assert.Equal(t, true, overrides["1"].UseCompany)
	assert.Nil(t, overrides["1"].Company)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "only the sidecar and its backup remain")

	backup, err := os.ReadFile(path + sidecar.BackupSuffix)
	require.NoError(t, err)
	assert.Equal(t, fullSidecar, string(backup))
}

func TestStore_SaveKeepsPreviousVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, sidecar.FileName)
	require.NoError(t, os.WriteFile(path, []byte(fullSidecar), 0o600))

	store, err := sidecar.NewStore(path, nil)
	require.NoError(t, err)
	doc, err := store.Load()
	require.NoError(t, err)

	first := &spider.Result{SchemaVersion: spider.SchemaVersion, Overrides: spider.Overrides{"1": {UseCompany: true}}}
	require.NoError(t, store.Save(doc, first))
	saved, err := os.ReadFile(path)
	require.NoError(t, err)

	doc, err = store.Load()
	require.NoError(t, err)
	second := &spider.Result{SchemaVersion: spider.SchemaVersion, Overrides: spider.Overrides{"2": {UseCompany: true}}}
	require.NoError(t, store.Save(doc, second))

	backup, err := os.ReadFile(path + sidecar.BackupSuffix)
	require.NoError(t, err)
	assert.Equal(t, string(saved), string(backup), "the backup holds the sidecar as it was before the last save")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm(), "permissions of the replaced sidecar are kept")
}

func TestStore_SaveWithoutPreviousFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "source.json")
	require.NoError(t, os.WriteFile(src, []byte(fullSidecar), 0o644))
	source, err := sidecar.NewStore(src, nil)
	require.NoError(t, err)
	doc, err := source.Load()
	require.NoError(t, err)

	path := filepath.Join(dir, sidecar.FileName)
	store, err := sidecar.NewStore(path, nil)
	require.NoError(t, err)
	require.NoError(t, store.Save(doc, &spider.Result{SchemaVersion: spider.SchemaVersion}))

	_, err = os.Stat(path)
	require.NoError(t, err)
	_, err = os.Stat(path + sidecar.BackupSuffix)
	assert.ErrorIs(t, err, os.ErrNotExist, "nothing to back up on the first save")
}

func TestStore_LoadMissing(t *testing.T) {
	store, err := sidecar.NewStore(filepath.Join(t.TempDir(), sidecar.FileName), nil)
	require.NoError(t, err)
	_, err = store.Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
