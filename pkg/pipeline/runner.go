package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nodify/pkg/cache"
	"github.com/matzehuels/nodify/pkg/graph"
	"github.com/matzehuels/nodify/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete compile → arrange → export pipeline with caching.
func (r *Runner) Execute(ctx context.Context, source string, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{}

	compileStart := time.Now()
	doc, hash, hit, err := r.CompileWithCacheInfo(ctx, source, opts)
	if err != nil {
		return nil, err
	}
	result.Document = doc
	result.DocumentHash = hash
	result.Stats.CompileTime = time.Since(compileStart)
	result.Stats.Lines = len(doc.Lines)
	result.Stats.NodeCount = doc.NodeCount()
	result.Stats.LinkCount = len(doc.Links)
	result.CacheInfo.DocumentHit = hit

	r.Logger.Info("compiled source",
		"session", doc.SessionID,
		"lines", result.Stats.Lines,
		"nodes", result.Stats.NodeCount,
		"cached", hit,
		"duration", result.Stats.CompileTime)

	exportStart := time.Now()
	artifacts, exportHit, err := r.ExportWithCacheInfo(ctx, doc, hash, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Stats.ExportTime = time.Since(exportStart)
	result.CacheInfo.ExportHit = exportHit

	r.Logger.Info("exported outputs",
		"formats", opts.Formats,
		"cached", exportHit,
		"duration", result.Stats.ExportTime)

	return result, nil
}

// CompileWithCacheInfo compiles source with caching. It returns the
// document, the hash used to key its artifacts, and whether it was cached.
func (r *Runner) CompileWithCacheInfo(ctx context.Context, source string, opts Options) (*graph.Document, string, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, "", false, err
	}

	scope, err := LoadTables(&opts)
	if err != nil {
		return nil, "", false, err
	}
	keyer := r.Keyer
	if scope != "" {
		keyer = cache.NewScopedKeyer(keyer, "tables:"+scope+":")
	}

	cacheKey := keyer.DocumentKey(cache.Hash([]byte(source)), opts.DocumentKeyOpts())
	hash := cache.Hash([]byte(cacheKey))
	hooks := observability.Cache()

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var doc graph.Document
			if err := cache.Unmarshal(data, &doc); err == nil {
				hooks.OnCacheHit(ctx, cacheKey)
				return &doc, hash, true, nil
			}
			// If deserialization fails, fall through to recompile
		} else if err != nil {
			r.Logger.Warn("cache read failed", "error", err)
		}
		hooks.OnCacheMiss(ctx, cacheKey)
	}

	doc, err := Compile(ctx, source, opts)
	if err != nil {
		return nil, "", false, err
	}

	if data, err := cache.Marshal(doc); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, opts.CacheTTL); err != nil {
			r.Logger.Warn("cache write failed", "error", err)
		} else {
			hooks.OnCacheSet(ctx, cacheKey, len(data))
		}
	}

	return doc, hash, false, nil
}

// Compile is a convenience wrapper that calls CompileWithCacheInfo and discards the cache info.
func (r *Runner) Compile(ctx context.Context, source string, opts Options) (*graph.Document, error) {
	doc, _, _, err := r.CompileWithCacheInfo(ctx, source, opts)
	return doc, err
}

// ExportWithCacheInfo exports a document with caching and reports whether
// every artifact came from cache. An empty hash disables caching.
func (r *Runner) ExportWithCacheInfo(ctx context.Context, doc *graph.Document, hash string, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}

	if hash != "" && !opts.Refresh {
		artifacts := make(map[string][]byte, len(opts.Formats))
		for _, format := range opts.Formats {
			key := r.Keyer.ArtifactKey(hash, opts.ArtifactKeyOpts(format))
			data, hit, err := r.Cache.Get(ctx, key)
			if err != nil || !hit {
				break
			}
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			return artifacts, true, nil
		}
	}

	hooks := observability.Pipeline()
	hooks.OnExportStart(ctx, opts.Formats)
	start := time.Now()
	artifacts, err := Export(ctx, doc, opts)
	hooks.OnExportComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, false, fmt.Errorf("export: %w", err)
	}

	if hash != "" {
		for format, data := range artifacts {
			key := r.Keyer.ArtifactKey(hash, opts.ArtifactKeyOpts(format))
			_ = r.Cache.Set(ctx, key, data, opts.CacheTTL)
		}
	}

	return artifacts, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
