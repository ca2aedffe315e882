// SPDX-License-Identifier: Apache-2.0

package weights

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/goccy/go-yaml"
	"go.uber.org/zap"

	"github.com/autobericht/bericht-mcp/internal/schema"
	"github.com/autobericht/bericht-mcp/internal/spider"
)

// ErrNotFound is returned by a Source that has nothing to offer.
var ErrNotFound = errors.New("weights not found")

// Source supplies raw weights table content. Load returns the content and
// the name of what it actually read; implementations hold no state between
// calls and may be shared by concurrent loads.
type Source interface {
	// Name labels the source before anything is read, e.g. "project/weights.json".
	Name() string
	Load(ctx context.Context) (data []byte, name string, err error)
}

// Result is a decoded weights table and the source it came from.
type Result struct {
	Table  spider.WeightsTable
	Source string
}

// Provider loads the weights table from the first source that has one.
// Sources are tried in registration order, so a project-local table is
// registered before the bundled default.
type Provider struct {
	sources   []Source
	validator *schema.Validator
	logger    *zap.Logger
}

// NewProvider creates a Provider over sources. A nil logger disables logging.
func NewProvider(logger *zap.Logger, sources ...Source) (*Provider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	validator, err := schema.Default()
	if err != nil {
		return nil, err
	}
	return &Provider{
		sources:   sources,
		validator: validator,
		logger:    logger,
	}, nil
}

// Load returns the table of the first source that has one. A source that
// exists but holds an invalid table is an error; later sources are not
// consulted.
func (p *Provider) Load(ctx context.Context) (Result, error) {
	for _, src := range p.sources {
		data, name, err := src.Load(ctx)
		if errors.Is(err, ErrNotFound) {
			p.logger.Debug("weights source empty", zap.String("source", src.Name()))
			continue
		}
		if err != nil {
			return Result{}, fmt.Errorf("weights source %q failed: %w", src.Name(), err)
		}
		table, err := Decode(p.validator, name, data)
		if err != nil {
			return Result{}, err
		}
		p.logger.Info("weights loaded",
			zap.String("source", name),
			zap.Int("items", len(table.Items)),
			zap.Int("chapters", len(table.Chapters)))
		return Result{Table: table, Source: name}, nil
	}
	return Result{}, fmt.Errorf("weights.json not found (project or bundle): %w", ErrNotFound)
}

// RegisteredSources returns the names of all sources in lookup order.
func (p *Provider) RegisteredSources() []string {
	names := make([]string, len(p.sources))
	for i, src := range p.sources {
		names[i] = src.Name()
	}
	return names
}

// Decode parses a JSON or YAML weights table and validates its shape.
func Decode(validator *schema.Validator, name string, data []byte) (spider.WeightsTable, error) {
	content := bytes.TrimSpace(data)
	if len(content) == 0 {
		return spider.WeightsTable{}, fmt.Errorf("%w: %s is empty", spider.ErrInvalidInput, name)
	}
	if content[0] != '{' {
		converted, err := yaml.YAMLToJSON(content)
		if err != nil {
			return spider.WeightsTable{}, fmt.Errorf("failed to convert YAML weights %s: %w", name, err)
		}
		content = converted
	}
	if err := validator.Validate(schema.Weights, name, content); err != nil {
		return spider.WeightsTable{}, fmt.Errorf("%w: %w", spider.ErrInvalidInput, err)
	}
	var table spider.WeightsTable
	if err := json.Unmarshal(content, &table); err != nil {
		return spider.WeightsTable{}, fmt.Errorf("%w: failed to decode %s: %v", spider.ErrInvalidInput, name, err)
	}
	if table.Items == nil {
		table.Items = []spider.WeightItem{}
	}
	return table, nil
}
