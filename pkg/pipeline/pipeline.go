// Package pipeline runs the complete nodify compile pipeline.
//
// This package implements the compile → arrange → export sequence used by
// both the CLI and the HTTP API, so every entry point applies the same
// defaults, caching and logging.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Compile: Parse and evaluate every source line into a host graph
//  2. Arrange: Insert variable definitions, assign coordinates, stack lines
//  3. Export: Encode the result as JSON, YAML, Graphviz DOT or SVG
//
// Compile and arrange produce a [graph.Document], which is cached as a unit.
// Exported artifacts are cached per format.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Alignment: "TOP",
//	    Frame:     true,
//	    Formats:   []string{"json", "svg"},
//	}
//	result, err := runner.Execute(ctx, "a = 1 + 2\noutput = a * 3", opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nodify/pkg/cache"
	"github.com/matzehuels/nodify/pkg/errors"
	"github.com/matzehuels/nodify/pkg/graph"
	"github.com/matzehuels/nodify/pkg/host"
	"github.com/matzehuels/nodify/pkg/layout"
	"github.com/matzehuels/nodify/pkg/registry"
	"github.com/matzehuels/nodify/pkg/render/nodelink"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultAlignment is the default node alignment within a column.
	DefaultAlignment = string(layout.AlignCenter)

	// DefaultCacheTTL is how long compiled documents and artifacts are kept.
	DefaultCacheTTL = 24 * time.Hour
)

// Format constants for output formats.
const (
	FormatJSON = graph.FormatJSON
	FormatYAML = graph.FormatYAML
	FormatDOT  = "dot"
	FormatSVG  = "svg"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatYAML: true,
	FormatDOT:  true,
	FormatSVG:  true,
}

// ValidEngines is the set of supported Graphviz engines.
var ValidEngines = map[string]bool{
	nodelink.EngineNeato: true,
	nodelink.EngineDot:   true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the compile pipeline.
// The toml tags match the keys of a nodify.toml config file.
type Options struct {
	// Compile options
	Tables     string `json:"tables,omitempty" toml:"tables"` // custom function table file
	Expression bool   `json:"expression,omitempty" toml:"expression"`

	// Layout options
	Location   [2]float64 `json:"location,omitempty" toml:"location"`
	Scale      [2]float64 `json:"scale,omitempty" toml:"scale"`
	Alignment  string     `json:"alignment,omitempty" toml:"alignment"`
	Frame      bool       `json:"frame,omitempty" toml:"frame"`
	FrameTitle string     `json:"frame_title,omitempty" toml:"frame_title"`

	// Export options
	Formats  []string `json:"formats,omitempty" toml:"formats"`
	Engine   string   `json:"engine,omitempty" toml:"engine"`
	Detailed bool     `json:"detailed,omitempty" toml:"detailed"`

	// Cache options
	CacheTTL time.Duration `json:"cache_ttl,omitempty" toml:"cache_ttl"`
	Refresh  bool          `json:"refresh,omitempty" toml:"-"`

	// Runtime options (not serialized)
	Logger   *log.Logger        `json:"-" toml:"-"`
	Registry *registry.Registry `json:"-" toml:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Document is the compiled and arranged graph.
	Document *graph.Document

	// DocumentHash identifies the document in artifact cache keys.
	DocumentHash string

	// Artifacts contains exported outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Lines       int
	NodeCount   int
	LinkCount   int
	CompileTime time.Duration
	ExportTime  time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	DocumentHit bool // Whether the document came from cache
	ExportHit   bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: json, yaml, dot, svg)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateEngine checks that a Graphviz engine is valid. Empty is allowed.
func ValidateEngine(engine string) error {
	if engine != "" && !ValidEngines[engine] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid engine: %q (must be one of: neato, dot)", engine)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks every field and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}

	if o.Alignment == "" {
		o.Alignment = DefaultAlignment
	}
	a, err := layout.ParseAlignment(o.Alignment)
	if err != nil {
		return err
	}
	o.Alignment = string(a)

	if o.Scale[0] == 0 {
		o.Scale[0] = 1
	}
	if o.Scale[1] == 0 {
		o.Scale[1] = 1
	}

	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
	for i, f := range o.Formats {
		o.Formats[i] = strings.ToLower(strings.TrimSpace(f))
	}
	o.Formats = slices.Compact(o.Formats)
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if err := ValidateEngine(o.Engine); err != nil {
		return err
	}

	if o.CacheTTL < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "cache_ttl cannot be negative")
	}
	if o.CacheTTL == 0 {
		o.CacheTTL = DefaultCacheTTL
	}

	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	o.validated = true
	return nil
}

// LayoutOptions returns the layout configuration.
func (o *Options) LayoutOptions() layout.Options {
	return layout.Options{
		Location:   host.Vec{X: o.Location[0], Y: o.Location[1]},
		Scale:      host.Vec{X: o.Scale[0], Y: o.Scale[1]},
		Alignment:  layout.Alignment(o.Alignment),
		AddFrame:   o.Frame,
		FrameTitle: o.FrameTitle,
	}
}

// NodelinkOptions returns the DOT export configuration.
func (o *Options) NodelinkOptions() nodelink.Options {
	return nodelink.Options{Detailed: o.Detailed, Engine: o.Engine}
}

// DocumentKeyOpts returns cache key options for compilation.
func (o *Options) DocumentKeyOpts() cache.DocumentKeyOpts {
	return cache.DocumentKeyOpts{
		Alignment:  o.Alignment,
		Location:   o.Location,
		Scale:      o.Scale,
		AddFrame:   o.Frame,
		FrameTitle: o.FrameTitle,
		Expression: o.Expression,
	}
}

// ArtifactKeyOpts returns cache key options for an exported format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	opts := cache.ArtifactKeyOpts{Format: format}
	if format == FormatDOT || format == FormatSVG {
		opts.Engine = o.Engine
		opts.Detailed = o.Detailed
	}
	return opts
}
