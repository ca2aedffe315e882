// SPDX-License-Identifier: Apache-2.0

package weights

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

//go:embed data/weights.json
var bundled embed.FS

// BundledName labels the table compiled into the binary.
const BundledName = "bundle:data/weights.json"

// projectFileNames are tried in order inside a project directory.
var projectFileNames = []string{"weights.json", "weights.yaml", "weights.yml"}

// FileSource reads a weights table from a single file.
type FileSource struct {
	path  string
	label string
}

// NewFileSource creates a FileSource labelled label (the path when empty).
func NewFileSource(path, label string) *FileSource {
	if label == "" {
		label = path
	}
	return &FileSource{path: path, label: label}
}

func (s *FileSource) Name() string {
	return s.label
}

func (s *FileSource) Load(ctx context.Context) ([]byte, string, error) {
	data, err := readWeightsFile(ctx, s.path)
	if err != nil {
		return nil, "", err
	}
	return data, s.label, nil
}

func readWeightsFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if path == "" {
		return nil, ErrNotFound
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// ProjectSource looks for weights.json (or .yaml/.yml) in a project folder.
type ProjectSource struct {
	dir string
}

// NewProjectSource creates a ProjectSource for dir.
func NewProjectSource(dir string) *ProjectSource {
	return &ProjectSource{dir: dir}
}

// Name is the preferred file; Load reports the one actually read.
func (s *ProjectSource) Name() string {
	return "project/" + projectFileNames[0]
}

func (s *ProjectSource) Load(ctx context.Context) ([]byte, string, error) {
	if s.dir == "" {
		return nil, "", ErrNotFound
	}
	for _, name := range projectFileNames {
		data, err := readWeightsFile(ctx, filepath.Join(s.dir, name))
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, "", err
		}
		return data, "project/" + name, nil
	}
	return nil, "", ErrNotFound
}

// EmbeddedSource serves the table compiled into the binary.
type EmbeddedSource struct{}

func NewEmbeddedSource() *EmbeddedSource {
	return &EmbeddedSource{}
}

func (s *EmbeddedSource) Name() string {
	return BundledName
}

func (s *EmbeddedSource) Load(_ context.Context) ([]byte, string, error) {
	data, err := bundled.ReadFile("data/weights.json")
	if err != nil {
		return nil, "", err
	}
	return data, BundledName, nil
}

// DefaultSources returns the lookup chain: an explicit file, the project
// folder, a bundled override file and finally the embedded table. Empty
// arguments are skipped.
func DefaultSources(explicit, projectDir, bundledPath string) []Source {
	var sources []Source
	if explicit != "" {
		sources = append(sources, NewFileSource(explicit, "project/"+filepath.Base(explicit)))
	}
	if projectDir != "" {
		sources = append(sources, NewProjectSource(projectDir))
	}
	if bundledPath != "" {
		sources = append(sources, NewFileSource(bundledPath, "bundle:"+filepath.Base(bundledPath)))
	}
	return append(sources, NewEmbeddedSource())
}
