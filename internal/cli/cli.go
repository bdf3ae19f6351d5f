package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nodify/pkg/cache"
	"github.com/matzehuels/nodify/pkg/errors"
	"github.com/matzehuels/nodify/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "nodify"

// =============================================================================
// Runner Factory
// =============================================================================

// cacheFlags holds the caching flags shared by several commands.
type cacheFlags struct {
	noCache bool
	refresh bool
	redis   string
}

func (f *cacheFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "ignore cached results and recompute")
	cmd.Flags().StringVar(&f.redis, "redis", os.Getenv("NODIFY_REDIS_URL"), "cache in Redis instead of the local cache directory (redis://...)")
}

// newRunner creates a pipeline runner for CLI use. A non-empty scope
// isolates cache keys of custom function tables.
func (c *CLI) newRunner(ctx context.Context, flags cacheFlags, scope string) (*pipeline.Runner, error) {
	store, err := newCache(ctx, flags)
	if err != nil {
		return nil, err
	}
	var keyer cache.Keyer
	if scope != "" {
		keyer = cache.NewScopedKeyer(nil, "tables:"+scope+":")
	}
	return pipeline.NewRunner(store, keyer, c.Logger), nil
}

func newCache(ctx context.Context, flags cacheFlags) (cache.Cache, error) {
	switch {
	case flags.noCache:
		return cache.NewNullCache(), nil
	case flags.redis != "":
		if err := errors.ValidateRedisURL(flags.redis); err != nil {
			return nil, err
		}
		return cache.NewRedisCache(ctx, flags.redis)
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/nodify/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// layoutFlags holds the flags that map onto pipeline options.
type layoutFlags struct {
	config   string
	formats  string
	location []float64
	scale    []float64
	opts     pipeline.Options
}

func (f *layoutFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.config, "config", pipeline.ConfigFile, "config file with default options")
	cmd.Flags().StringVar(&f.opts.Tables, "tables", "", "TOML file with extra function tables")
	cmd.Flags().StringVar(&f.opts.Alignment, "align", "", "node alignment within a column: TOP, CENTER (default), BOTTOM")
	cmd.Flags().BoolVar(&f.opts.Frame, "frame", false, "wrap every displayed line in a frame")
	cmd.Flags().StringVar(&f.opts.FrameTitle, "title", "", "frame label (default: Line N)")
	cmd.Flags().Float64SliceVar(&f.location, "location", nil, "top-center of the first line as x,y")
	cmd.Flags().Float64SliceVar(&f.scale, "scale", nil, "layout scale as x,y")
}

// options merges the flags over the config file and validates the result.
func (f *layoutFlags) options() (pipeline.Options, error) {
	opts := f.opts
	var err error
	if opts.Location, err = pair("location", f.location); err != nil {
		return opts, err
	}
	if opts.Scale, err = pair("scale", f.scale); err != nil {
		return opts, err
	}
	if f.formats != "" {
		opts.Formats = parseFormats(f.formats)
	}

	defaults, err := pipeline.LoadConfig(f.config)
	if err != nil {
		return opts, err
	}
	opts = opts.Merge(defaults)
	return opts, opts.ValidateAndSetDefaults()
}

// pair converts an x,y flag into an array. An unset flag yields zeros.
func pair(name string, v []float64) ([2]float64, error) {
	switch len(v) {
	case 0:
		return [2]float64{}, nil
	case 2:
		return [2]float64{v[0], v[1]}, nil
	}
	return [2]float64{}, errors.New(errors.ErrCodeInvalidInput, "--%s takes two values (x,y), got %d", name, len(v))
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// readInput reads a script from path, or from stdin when path is "-".
func readInput(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}
