// SPDX-License-Identifier: Apache-2.0

// Package config holds the runtime options shared by the bericht commands
// and translates Cobra/Viper flag values into the option structs the
// report, spider and weights packages consume.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/autobericht/bericht-mcp/internal/report"
	"github.com/autobericht/bericht-mcp/internal/sidecar"
	"github.com/autobericht/bericht-mcp/internal/spider"
	"github.com/autobericht/bericht-mcp/internal/weights"
)

// Output formats understood by the assemble and spider commands.
const (
	OutputJSON = "json"
	OutputYAML = "yaml"
)

// DefaultTitleChapters lists the chapters whose findings carry their title.
var DefaultTitleChapters = []string{"4.8"}

// Options holds all CLI configuration.
type Options struct {
	Lang           string
	TitleChapters  []string
	Weights        string
	BundledWeights string
	LogLevel       string
	Verbose        bool
	KindRaw        string
	Output         string

	Kind report.ChapterKind
}

// NewOptions returns Options with defaults applied.
func NewOptions() *Options {
	return &Options{
		Lang:          spider.DefaultLang,
		TitleChapters: append([]string(nil), DefaultTitleChapters...),
		LogLevel:      "info",
		Output:        OutputJSON,
	}
}

// AddPersistentFlags registers the options every subcommand shares.
func (o *Options) AddPersistentFlags(cmd *cobra.Command) []string {
	return o.BindFlags(cmd.PersistentFlags())
}

// BindFlags attaches the shared flags to fs and returns their names.
func (o *Options) BindFlags(fs *pflag.FlagSet) []string {
	var names []string
	fs.StringVar(&o.Lang, "lang", o.Lang, "Language used to resolve chapter titles")
	names = append(names, "lang")
	fs.StringSliceVar(&o.TitleChapters, "title-chapters", o.TitleChapters, "Chapters whose findings show their title override")
	names = append(names, "title-chapters")
	fs.StringVar(&o.Weights, "weights", o.Weights, "Explicit weights table (JSON or YAML); takes precedence over the project folder")
	names = append(names, "weights")
	fs.StringVar(&o.BundledWeights, "bundled-weights", o.BundledWeights, "Replacement for the weights table compiled into the binary")
	names = append(names, "bundled-weights")
	fs.StringVar(&o.LogLevel, "log-level", o.LogLevel, "Log level: debug, info, warn or error")
	names = append(names, "log-level")
	fs.BoolVarP(&o.Verbose, "verbose", "v", o.Verbose, "Shorthand for --log-level=debug")
	names = append(names, "verbose")
	fs.StringVar(&o.KindRaw, "kind", o.KindRaw, "Numbering kind: auto, structured or flat")
	names = append(names, "kind")
	fs.StringVarP(&o.Output, "output", "o", o.Output, "Output format: json or yaml")
	names = append(names, "output")
	return names
}

// Validate normalizes the options and resolves derived fields.
func (o *Options) Validate() error {
	o.Lang = strings.ToLower(strings.TrimSpace(o.Lang))
	if o.Lang == "" {
		o.Lang = spider.DefaultLang
	}

	var chapters []string
	for _, id := range o.TitleChapters {
		if id = strings.TrimSpace(id); id != "" {
			chapters = append(chapters, id)
		}
	}
	o.TitleChapters = chapters

	kind, ok := report.ParseChapterKind(o.KindRaw)
	if !ok {
		return fmt.Errorf("unknown numbering kind %q (expected auto, structured or flat)", o.KindRaw)
	}
	o.Kind = kind

	o.Output = strings.ToLower(strings.TrimSpace(o.Output))
	switch o.Output {
	case "":
		o.Output = OutputJSON
	case OutputJSON, OutputYAML:
	default:
		return fmt.Errorf("unknown output format %q (expected json or yaml)", o.Output)
	}

	if o.Verbose {
		o.LogLevel = "debug"
	}
	switch strings.ToLower(o.LogLevel) {
	case "debug", "info", "", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log level %q (expected debug, info, warn, or error)", o.LogLevel)
	}
	return nil
}

// ReportOptions returns the assembly options for these settings.
func (o *Options) ReportOptions() report.Options {
	return report.Options{
		TitleChapters: append([]string(nil), o.TitleChapters...),
		Kind:          o.Kind,
	}
}

// WeightSources returns the weights lookup chain for a project folder.
func (o *Options) WeightSources(projectDir string) []weights.Source {
	return weights.DefaultSources(o.Weights, projectDir, o.BundledWeights)
}

// ResolveInput maps a command argument to the sidecar file and the project
// folder. A directory argument means its project_sidecar.json.
func ResolveInput(arg string, isDir bool) (file, projectDir string) {
	if isDir {
		return filepath.Join(arg, sidecar.FileName), arg
	}
	return arg, filepath.Dir(arg)
}
