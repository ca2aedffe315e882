// SPDX-License-Identifier: Apache-2.0

// Package sidecar reads and writes project_sidecar.json, the file the
// editor keeps next to a project's photos. Only the report project and the
// spider block are interpreted; every other key is carried through untouched.
package sidecar

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/autobericht/bericht-mcp/internal/report"
	"github.com/autobericht/bericht-mcp/internal/schema"
	"github.com/autobericht/bericht-mcp/internal/spider"
)

// FileName is the sidecar's name inside a project folder.
const FileName = "project_sidecar.json"

// ErrNoProject is returned when a document holds no report project.
var ErrNoProject = errors.New("no report project in document")

// Document is a parsed sidecar. The raw top-level keys are kept so that
// saving does not drop data this tool does not understand.
type Document struct {
	raw     map[string]json.RawMessage
	project json.RawMessage
	bare    bool
}

type reportBlock struct {
	Project json.RawMessage `json:"project"`
}

type spiderBlock struct {
	Overrides map[string]spider.RawOverride `json:"overrides"`
}

// Parse decodes a sidecar or a bare project document.
func Parse(validator *schema.Validator, name string, data []byte) (*Document, error) {
	if err := validator.Validate(schema.Sidecar, name, data); err != nil {
		return nil, err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	doc := &Document{raw: raw}

	if block, ok := raw["report"]; ok && !isNull(block) {
		var rb reportBlock
		if err := json.Unmarshal(block, &rb); err != nil {
			return nil, fmt.Errorf("failed to decode report block of %s: %w", name, err)
		}
		if hasChapters(rb.Project) {
			doc.project = rb.Project
		}
	}
	if doc.project == nil && hasChapters(data) {
		doc.project = json.RawMessage(data)
		doc.bare = true
	}
	if doc.project != nil {
		if err := validator.Validate(schema.Project, name, doc.project); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func isNull(b json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(b), []byte("null"))
}

func hasChapters(b []byte) bool {
	var shape struct {
		Chapters json.RawMessage `json:"chapters"`
	}
	if len(b) == 0 || json.Unmarshal(b, &shape) != nil {
		return false
	}
	return len(shape.Chapters) > 0 && !isNull(shape.Chapters)
}

// HasProject reports whether the document carries a report project.
func (d *Document) HasProject() bool {
	return d.project != nil
}

// Project decodes the report project.
func (d *Document) Project() (report.Project, error) {
	if d.project == nil {
		return report.Project{}, ErrNoProject
	}
	var project report.Project
	if err := json.Unmarshal(d.project, &project); err != nil {
		return report.Project{}, fmt.Errorf("failed to decode report project: %w", err)
	}
	return project, nil
}

// Overrides returns the stored spider overrides, or nil.
func (d *Document) Overrides() (map[string]spider.RawOverride, error) {
	block, ok := d.raw["spider"]
	if d.bare || !ok || isNull(block) {
		return nil, nil
	}
	var sb spiderBlock
	if err := json.Unmarshal(block, &sb); err != nil {
		return nil, fmt.Errorf("failed to decode spider overrides: %w", err)
	}
	return sb.Overrides, nil
}

// Merge returns the document with the project stored under report.project,
// the spider result under spider and meta.updatedAt set to now. A bare
// project document becomes a full sidecar.
func (d *Document) Merge(res *spider.Result, now time.Time) ([]byte, error) {
	out := make(map[string]json.RawMessage, len(d.raw)+3)
	if !d.bare {
		for k, v := range d.raw {
			out[k] = v
		}
	}

	meta := map[string]json.RawMessage{}
	if block, ok := out["meta"]; ok && !isNull(block) {
		if err := json.Unmarshal(block, &meta); err != nil {
			return nil, fmt.Errorf("failed to decode sidecar meta: %w", err)
		}
	}
	stamp, err := json.Marshal(now.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return nil, err
	}
	meta["updatedAt"] = stamp

	if out["meta"], err = json.Marshal(meta); err != nil {
		return nil, err
	}
	if d.project != nil {
		if out["report"], err = json.Marshal(reportBlock{Project: d.project}); err != nil {
			return nil, err
		}
	}
	if res != nil {
		if out["spider"], err = json.Marshal(res); err != nil {
			return nil, err
		}
	}
	return json.MarshalIndent(out, "", "  ")
}

// Store loads and saves one sidecar file.
type Store struct {
	path      string
	validator *schema.Validator
	logger    *zap.Logger
	clock     func() time.Time
}

// NewStore creates a Store for path. A nil logger disables logging.
func NewStore(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	validator, err := schema.Default()
	if err != nil {
		return nil, err
	}
	return &Store{path: path, validator: validator, logger: logger, clock: time.Now}, nil
}

// WithClock overrides the clock for testing.
func (s *Store) WithClock(clock func() time.Time) *Store {
	s.clock = clock
	return s
}

// Path returns the file the store reads and writes.
func (s *Store) Path() string {
	return s.path
}

// Load reads and parses the sidecar.
func (s *Store) Load() (*Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	doc, err := Parse(s.validator, s.path, data)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("sidecar loaded",
		zap.String("path", s.path),
		zap.Bool("project", doc.HasProject()),
		zap.Bool("bare", doc.bare))
	return doc, nil
}

// Save merges res into doc and atomically replaces the sidecar file. The
// previous sidecar is kept next to it with BackupSuffix appended.
func (s *Store) Save(doc *Document, res *spider.Result) error {
	data, err := doc.Merge(res, s.clock())
	if err != nil {
		return err
	}
	backedUp, err := replaceSidecar(s.path, append(data, '\n'))
	if err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	s.logger.Info("sidecar saved",
		zap.String("path", s.path),
		zap.Int("bytes", len(data)+1),
		zap.Bool("backup", backedUp),
	)
	return nil
}
