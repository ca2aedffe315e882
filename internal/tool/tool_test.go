// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/autobericht/bericht-mcp/internal/report"
	"github.com/autobericht/bericht-mcp/internal/spider"
	"github.com/autobericht/bericht-mcp/internal/weights"
)

const testSidecar = `{
  "meta": {"createdBy": "editor"},
  "report": {"project": {"chapters": [
    {"id": "1", "title": {"de": "Organisation", "fr": "Organisation FR"}, "rows": [
      {"kind": "section", "id": "1.1", "title": "1.1 Leitung"},
      {"id": "1.1.1", "sectionId": "1.1",
       "master": {"finding": "Kein Konzept", "recommendation": "Konzept erstellen"},
       "workstate": {"includeFinding": true, "done": true, "priority": 2, "selectedLevel": 3},
       "customer": {"answer": 1}},
      {"id": "1.1.2", "sectionId": "1.1",
       "workstate": {"includeFinding": false, "selectedLevel": 2},
       "customer": {"answer": 0}}
    ]},
    {"id": "4.8", "title": "Beobachtungen", "rows": [
      {"id": "4.8.1", "titleOverride": "Leiter", "master": {"finding": "Leiter defekt"},
       "workstate": {"includeFinding": true, "done": true}}
    ]}
  ]}},
  "spider": {"overrides": {"1": {"useConsultant": true, "consultant": "80"}}}
}`

const testWeights = `{"items":[{"id":"1.1.1","weight":2},{"id":"1.1.2","weight":1}]}`

var fixedTime = time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)

func newToolset(t *testing.T) *Toolset {
	t.Helper()
	ts, err := New(nil, zaptest.NewLogger(t))
	require.NoError(t, err)
	return ts.WithClock(func() time.Time { return fixedTime })
}

func float(v float64) *float64 { return &v }

// ---------------------------------------------------------------------------
// assemble_chapter
// ---------------------------------------------------------------------------

func TestAssembleChapter(t *testing.T) {
	ctx := context.Background()
	req := &mcp.CallToolRequest{}
	ts := newToolset(t)

	tests := []struct {
		name           string
		input          InputAssembleChapter
		wantErr        bool
		errContains    string
		validateOutput func(t *testing.T, output OutputAssembleChapter)
	}{
		{
			name:        "empty content returns error",
			input:       InputAssembleChapter{},
			wantErr:     true,
			errContains: "content is required",
		},
		{
			name: "all chapters are assembled in document order",
			input: InputAssembleChapter{
				Content: testSidecar,
			},
			validateOutput: func(t *testing.T, output OutputAssembleChapter) {
				require.Len(t, output.Chapters, 2)
				assert.Equal(t, 2, output.TotalFindings)

				first := output.Chapters[0]
				assert.Equal(t, "Organisation", first.Title)
				assert.Equal(t, []report.Node{
					{Kind: report.NodeSection, ID: "1.1", Title: "Leitung"},
					{Kind: report.NodeFinding, ID: "1.1.1", Finding: "Kein Konzept", Recommendation: "Konzept erstellen", Priority: "2"},
				}, first.Nodes)

				second := output.Chapters[1]
				assert.Equal(t, []report.Node{
					{Kind: report.NodeFinding, ID: "4.8.1", Title: "Leiter", Finding: "Leiter defekt"},
				}, second.Nodes)
			},
		},
		{
			name: "single chapter in another language",
			input: InputAssembleChapter{
				Content:   testSidecar,
				ChapterID: "1",
				Lang:      "fr",
			},
			validateOutput: func(t *testing.T, output OutputAssembleChapter) {
				require.Len(t, output.Chapters, 1)
				assert.Equal(t, "Organisation FR", output.Chapters[0].Title)
				assert.Equal(t, 1, output.TotalFindings)
			},
		},
		{
			name: "explicit title chapters replace the default",
			input: InputAssembleChapter{
				Content:       testSidecar,
				ChapterID:     "4.8",
				TitleChapters: []string{},
			},
			validateOutput: func(t *testing.T, output OutputAssembleChapter) {
				require.Len(t, output.Chapters[0].Nodes, 1)
				assert.Empty(t, output.Chapters[0].Nodes[0].Title)
			},
		},
		{
			name: "bare project document is accepted",
			input: InputAssembleChapter{
				Content: `{"chapters":[{"id":"2","rows":[]}]}`,
			},
			validateOutput: func(t *testing.T, output OutputAssembleChapter) {
				require.Len(t, output.Chapters, 1)
				assert.NotNil(t, output.Chapters[0].Nodes)
				assert.Empty(t, output.Chapters[0].Nodes)
			},
		},
		{
			name:        "unknown chapter returns error",
			input:       InputAssembleChapter{Content: testSidecar, ChapterID: "9"},
			wantErr:     true,
			errContains: `chapter "9" not found`,
		},
		{
			name:        "unknown kind returns error",
			input:       InputAssembleChapter{Content: testSidecar, Kind: "spiral"},
			wantErr:     true,
			errContains: "unknown numbering kind",
		},
		{
			name:        "document without project returns error",
			input:       InputAssembleChapter{Content: `{"photos":{}}`, SourceID: "photos.json"},
			wantErr:     true,
			errContains: "photos.json: no report project",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, output, err := ts.AssembleChapter(ctx, req, tt.input)

			if tt.wantErr {
				require.Error(t, err)
				if tt.errContains != "" {
					assert.Contains(t, err.Error(), tt.errContains)
				}
				return
			}
			require.NoError(t, err)
			if tt.validateOutput != nil {
				tt.validateOutput(t, output)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// compute_spider
// ---------------------------------------------------------------------------

func TestComputeSpider(t *testing.T) {
	ctx := context.Background()
	req := &mcp.CallToolRequest{}
	ts := newToolset(t)

	baseline := spider.ChapterScore{ID: "1", Label: "1. Organisation", WeightSum: 3, Company: 65, Consultant: 65}

	tests := []struct {
		name           string
		input          InputComputeSpider
		wantErr        bool
		errContains    string
		validateOutput func(t *testing.T, output OutputComputeSpider)
	}{
		{
			name:        "empty content returns error",
			input:       InputComputeSpider{Weights: testWeights},
			wantErr:     true,
			errContains: "content is required",
		},
		{
			name:  "inline weights and stored overrides",
			input: InputComputeSpider{Content: testSidecar, Weights: testWeights},
			validateOutput: func(t *testing.T, output OutputComputeSpider) {
				res := output.Result
				assert.Equal(t, spider.SchemaVersion, res.SchemaVersion)
				assert.Equal(t, inlineWeights, res.WeightsSource)
				assert.Equal(t, fixedTime, res.GeneratedAt)
				assert.Equal(t, []spider.ChapterScore{baseline}, res.Baseline.Chapters11)
				assert.Equal(t, []spider.ChapterScore{baseline}, res.Baseline.Chapters14)

				effective := baseline
				effective.Consultant = 80
				assert.Equal(t, []spider.ChapterScore{effective}, res.Effective.Chapters11)
				assert.Equal(t, spider.Pair{Company: 65, Consultant: 80}, output.Scores["1"])
				assert.Equal(t, float(80), res.Overrides["1"].Consultant)
			},
		},
		{
			name: "input overrides replace stored ones",
			input: InputComputeSpider{
				Content:   testSidecar,
				Weights:   testWeights,
				Overrides: map[string]spider.RawOverride{"1": {UseCompany: true, Company: float64(10)}},
			},
			validateOutput: func(t *testing.T, output OutputComputeSpider) {
				assert.Equal(t, spider.Pair{Company: 10, Consultant: 65}, output.Scores["1"])
			},
		},
		{
			name:  "bundled weights when nothing else is given",
			input: InputComputeSpider{Content: testSidecar},
			validateOutput: func(t *testing.T, output OutputComputeSpider) {
				assert.Equal(t, weights.BundledName, output.Result.WeightsSource)
				assert.Len(t, output.Result.Baseline.Chapters14, 14)
				assert.Len(t, output.Result.Baseline.Chapters11, 11)
			},
		},
		{
			name:        "invalid inline weights",
			input:       InputComputeSpider{Content: testSidecar, Weights: `{"items": 3}`},
			wantErr:     true,
			errContains: "invalid input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, output, err := ts.ComputeSpider(ctx, req, tt.input)

			if tt.wantErr {
				require.Error(t, err)
				if tt.errContains != "" {
					assert.Contains(t, err.Error(), tt.errContains)
				}
				return
			}
			require.NoError(t, err)
			if tt.validateOutput != nil {
				tt.validateOutput(t, output)
			}
		})
	}
}

func TestComputeSpider_ProjectWeights(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "weights.json"), []byte(testWeights), 0o644))

	_, output, err := newToolset(t).ComputeSpider(context.Background(), &mcp.CallToolRequest{}, InputComputeSpider{
		Content:    testSidecar,
		ProjectDir: dir,
	})
	require.NoError(t, err)
	assert.Equal(t, "project/weights.json", output.Result.WeightsSource)
	assert.Equal(t, 65.0, output.Scores["1"].Company)
}

// ---------------------------------------------------------------------------
// Override and ordering tools
// ---------------------------------------------------------------------------

func TestNormalizeOverrides(t *testing.T) {
	_, output, err := newToolset(t).NormalizeOverrides(context.Background(), &mcp.CallToolRequest{}, InputNormalizeOverrides{
		Overrides: map[string]spider.RawOverride{
			"1": {UseCompany: "yes", Company: "55"},
			"2": {UseConsultant: float64(0), Consultant: "n/a"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, spider.Overrides{
		"1": {UseCompany: true, Company: float(55)},
		"2": {},
	}, output.Overrides)

	_, empty, err := newToolset(t).NormalizeOverrides(context.Background(), &mcp.CallToolRequest{}, InputNormalizeOverrides{})
	require.NoError(t, err)
	assert.NotNil(t, empty.Overrides)
	assert.Empty(t, empty.Overrides)
}

func TestApplyOverrides(t *testing.T) {
	rows := []spider.ChapterScore{
		{ID: "1", Company: 50, Consultant: 25},
		{ID: "2", Company: 75, Consultant: 75},
	}
	_, output, err := newToolset(t).ApplyOverrides(context.Background(), &mcp.CallToolRequest{}, InputApplyOverrides{
		Rows: rows,
		Overrides: map[string]spider.RawOverride{
			"1": {UseCompany: true, Company: float64(90), Consultant: float64(0)},
			"2": {UseConsultant: true},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []spider.ChapterScore{
		{ID: "1", Company: 90, Consultant: 25},
		{ID: "2", Company: 75, Consultant: 75},
	}, output.Rows)
	assert.Equal(t, 50.0, rows[0].Company, "input rows must not change")
}

func TestMoveRow(t *testing.T) {
	ctx := context.Background()
	req := &mcp.CallToolRequest{}
	ts := newToolset(t)

	tests := []struct {
		name      string
		input     InputMoveRow
		wantErr   bool
		wantOrder []string
		wantMoved bool
	}{
		{name: "move down", input: InputMoveRow{Order: []string{"a", "b", "c"}, RowID: "a", Delta: 1}, wantOrder: []string{"b", "a", "c"}, wantMoved: true},
		{name: "move up", input: InputMoveRow{Order: []string{"a", "b", "c"}, RowID: "c", Delta: -2}, wantOrder: []string{"c", "b", "a"}, wantMoved: true},
		{name: "past the end", input: InputMoveRow{Order: []string{"a", "b"}, RowID: "b", Delta: 1}, wantOrder: []string{"a", "b"}},
		{name: "unknown row", input: InputMoveRow{Order: []string{"a"}, RowID: "z", Delta: 1}, wantOrder: []string{"a"}},
		{name: "missing row id", input: InputMoveRow{Order: []string{"a"}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, output, err := ts.MoveRow(ctx, req, tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOrder, output.Order)
			assert.Equal(t, tt.wantMoved, output.Moved)
		})
	}
}

// ---------------------------------------------------------------------------
// Server wiring
// ---------------------------------------------------------------------------

func TestRegister_InMemoryServer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	server := mcp.NewServer(&mcp.Implementation{Name: "bericht", Version: "test"}, nil)
	newToolset(t).Register(server)

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	defer serverSession.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "test"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer session.Close()

	list, err := session.ListTools(ctx, &mcp.ListToolsParams{})
	require.NoError(t, err)
	var names []string
	for _, tool := range list.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, Names(), names)

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      MetadataAssembleChapter.Name,
		Arguments: map[string]any{"content": testSidecar, "chapter_id": "4.8"},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)

	raw, err := json.Marshal(res.StructuredContent)
	require.NoError(t, err)
	var output OutputAssembleChapter
	require.NoError(t, json.Unmarshal(raw, &output))
	require.Len(t, output.Chapters, 1)
	assert.Equal(t, 1, output.TotalFindings)
	assert.Equal(t, "4.8.1", output.Chapters[0].Nodes[0].ID)
}
