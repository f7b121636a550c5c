// Command cpinspect decodes model files the way the viewer does and
// prints what it found: segments, bounds, colors and profile values.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/chazu/cpview/pkg/config"
	"github.com/chazu/cpview/pkg/viewer"
)

type options struct {
	configPath string
	segments   int
	policy     string
	tolerance  int
	verbose    bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:          "cpinspect",
		Short:        "Inspect cathodic protection models",
		Long:         "Decode STL and OBJ models into segments and report their geometry, names and gradient colors.",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "TOML config file")
	flags.IntVarP(&opts.segments, "segments", "n", 0, "Slice count for models without named parts (0 = config)")
	flags.StringVar(&opts.policy, "policy", "", "Boundary policy: shared or per-chain (empty = config)")
	flags.IntVar(&opts.tolerance, "tolerance", -1, "Binary STL size tolerance in bytes (-1 = config)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log decoder details to stderr")

	root.AddCommand(
		newInspectCmd(opts),
		newColorsCmd(opts),
		newJacketCmd(opts),
		newProfileCmd(opts),
	)
	return root
}

// config loads the config file, if any, and applies flag overrides.
func (o *options) config() (config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		loaded, err := config.Load(o.configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	if o.segments > 0 {
		cfg.SegmentCount = o.segments
	}
	if o.policy != "" {
		cfg.Potentials.Policy = o.policy
	}
	if o.tolerance >= 0 {
		cfg.STL.SizeTolerance = o.tolerance
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func (o *options) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// newViewer returns a headless viewer for cmd's settings.
func (o *options) newViewer(cmd *cobra.Command) (*viewer.Viewer, error) {
	cfg, err := o.config()
	if err != nil {
		return nil, err
	}
	return viewer.New(cfg, nil, o.logger(cmd.ErrOrStderr())), nil
}

func loadModel(cmd *cobra.Command, o *options, path string) (*viewer.Viewer, error) {
	v, err := o.newViewer(cmd)
	if err != nil {
		return nil, err
	}
	if err := v.LoadFile(cmd.Context(), path); err != nil {
		v.Close()
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return v, nil
}
