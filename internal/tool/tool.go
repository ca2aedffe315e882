// SPDX-License-Identifier: Apache-2.0

// Package tool exposes report assembly and spider scoring as MCP tools.
package tool

import (
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/autobericht/bericht-mcp/internal/config"
	"github.com/autobericht/bericht-mcp/internal/report"
	"github.com/autobericht/bericht-mcp/internal/schema"
	"github.com/autobericht/bericht-mcp/internal/sidecar"
	"github.com/autobericht/bericht-mcp/internal/spider"
)

// Toolset holds the defaults and collaborators shared by the tool handlers.
type Toolset struct {
	opts      *config.Options
	logger    *zap.Logger
	validator *schema.Validator
	clock     func() time.Time
}

// New creates a Toolset. Nil options mean defaults; a nil logger disables
// logging.
func New(opts *config.Options, logger *zap.Logger) (*Toolset, error) {
	if opts == nil {
		opts = config.NewOptions()
		if err := opts.Validate(); err != nil {
			return nil, err
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	validator, err := schema.Default()
	if err != nil {
		return nil, err
	}
	return &Toolset{opts: opts, logger: logger, validator: validator, clock: time.Now}, nil
}

// WithClock overrides the clock stamped into spider results.
func (t *Toolset) WithClock(clock func() time.Time) *Toolset {
	t.clock = clock
	return t
}

// Register adds every tool to server.
func (t *Toolset) Register(server *mcp.Server) {
	mcp.AddTool(server, MetadataAssembleChapter, t.AssembleChapter)
	mcp.AddTool(server, MetadataComputeSpider, t.ComputeSpider)
	mcp.AddTool(server, MetadataNormalizeOverrides, t.NormalizeOverrides)
	mcp.AddTool(server, MetadataApplyOverrides, t.ApplyOverrides)
	mcp.AddTool(server, MetadataMoveRow, t.MoveRow)
}

// Names lists the registered tool names.
func Names() []string {
	return []string{
		MetadataAssembleChapter.Name,
		MetadataComputeSpider.Name,
		MetadataNormalizeOverrides.Name,
		MetadataApplyOverrides.Name,
		MetadataMoveRow.Name,
	}
}

// parseDocument decodes a sidecar or bare project document given as text.
func (t *Toolset) parseDocument(content, sourceID string) (*sidecar.Document, report.Project, error) {
	if content == "" {
		return nil, report.Project{}, fmt.Errorf("content is required")
	}
	if sourceID == "" {
		sourceID = "content"
	}
	doc, err := sidecar.Parse(t.validator, sourceID, []byte(content))
	if err != nil {
		return nil, report.Project{}, err
	}
	project, err := doc.Project()
	if err != nil {
		return nil, report.Project{}, fmt.Errorf("%s: %w", sourceID, err)
	}
	return doc, project, nil
}

func (t *Toolset) lang(override string) string {
	if override != "" {
		return override
	}
	return t.opts.Lang
}

// objectSchema is the output schema of every tool. Outputs are described
// in the tool descriptions; only the top-level shape is enforced.
var objectSchema = map[string]interface{}{"type": "object"}

var overridesSchema = map[string]interface{}{
	"type":        "object",
	"description": "Manual overrides keyed by chapter id: {useCompany, useConsultant, company, consultant}.",
	"additionalProperties": map[string]interface{}{
		"type": "object",
	},
}

func rawOverrides(in map[string]spider.RawOverride) map[string]spider.RawOverride {
	if in == nil {
		return map[string]spider.RawOverride{}
	}
	return in
}
