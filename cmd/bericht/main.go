// SPDX-License-Identifier: Apache-2.0

// Command bericht assembles AutoBericht report chapters and spider chart
// scores from a project sidecar, and serves the same operations over MCP.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/autobericht/bericht-mcp/internal/config"
)

// Set with -ldflags "-X main.version=...".
var version = "dev"

// app carries the state shared by all subcommands.
type app struct {
	opts   *config.Options
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{opts: config.NewOptions(), logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "bericht",
		Short: "Assemble AutoBericht report chapters and spider scores",
		Long: `bericht reads a project's project_sidecar.json and produces the final
report rows (section headers and renumbered findings) and the spider chart
scores per chapter.

Settings come from flags, BERICHT_* environment variables or a config.yaml
in $XDG_CONFIG_HOME/bericht, ~/.config/bericht or the working directory.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.bindViper(cmd); err != nil {
				return err
			}
			if err := a.opts.Validate(); err != nil {
				return err
			}
			logger, err := buildLogger(a.opts.LogLevel)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}
	a.opts.AddPersistentFlags(root)

	root.AddCommand(
		newAssembleCmd(a),
		newSpiderCmd(a),
		newServeCmd(a),
		newVersionCmd(),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil && !errors.Is(err, pflag.ErrHelp) {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// bindViper layers the config file and BERICHT_* environment variables
// under the flags: a flag set on the command line always wins.
func (a *app) bindViper(cmd *cobra.Command) error {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.SetEnvPrefix("BERICHT")
	v.AutomaticEnv()
	configFile := os.Getenv("BERICHT_CONFIG")
	configureConfigFile(v, configFile)

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	if err := readConfigFile(v, configFile != ""); err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var setErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Changed || !v.IsSet(f.Name) || setErr != nil {
			return
		}
		val := fmt.Sprintf("%v", v.Get(f.Name))
		if _, ok := f.Value.(pflag.SliceValue); ok {
			val = strings.Join(v.GetStringSlice(f.Name), ",")
		}
		if val == "" {
			return
		}
		if err := f.Value.Set(val); err != nil {
			setErr = fmt.Errorf("invalid value for %s: %w", f.Name, err)
		}
	})
	return setErr
}

func configureConfigFile(v *viper.Viper, explicitPath string) {
	if explicitPath != "" {
		v.SetConfigFile(explicitPath)
		return
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, dir := range configSearchDirs() {
		v.AddConfigPath(dir)
	}
}

func readConfigFile(v *viper.Viper, strict bool) error {
	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if errors.As(err, &cfgErr) && !strict {
			return nil
		}
		return err
	}
	return nil
}

func configSearchDirs() []string {
	var dirs []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		dirs = append(dirs, filepath.Join(xdg, "bericht"))
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		dirs = append(dirs, filepath.Join(home, ".config", "bericht"))
	}
	return append(dirs, ".")
}

// buildLogger returns a production logger writing JSON to stderr, which
// keeps stdout free for command output and the MCP stdio transport.
func buildLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	switch strings.ToLower(level) {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	case "info", "":
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	case "warn", "warning":
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	default:
		return nil, fmt.Errorf("unknown log level %q (expected debug, info, warn, or error)", level)
	}
	return cfg.Build()
}

// writeOutput prints v as indented JSON or as YAML.
func (a *app) writeOutput(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if a.opts.Output == config.OutputYAML {
		if data, err = yaml.JSONToYAML(data); err != nil {
			return fmt.Errorf("failed to convert output to YAML: %w", err)
		}
	} else {
		data = append(data, '\n')
	}
	_, err = w.Write(data)
	return err
}

// resolveInput maps the command argument (a project folder or a file) to
// the sidecar path and the project folder. No argument means the working
// directory.
func resolveInput(args []string) (file, projectDir string, err error) {
	arg := "."
	if len(args) > 0 {
		arg = args[0]
	}
	info, err := os.Stat(arg)
	if err != nil {
		return "", "", err
	}
	file, projectDir = config.ResolveInput(arg, info.IsDir())
	return file, projectDir, nil
}
