package pipeline

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/matzehuels/nodify/pkg/cache"
	"github.com/matzehuels/nodify/pkg/errors"
	"github.com/matzehuels/nodify/pkg/graph"
	"github.com/matzehuels/nodify/pkg/host"
	"github.com/matzehuels/nodify/pkg/observability"
	"github.com/matzehuels/nodify/pkg/registry"
	"github.com/matzehuels/nodify/pkg/session"
)

// Compile compiles source into a fresh in-memory host and arranges every
// displayed line. Compile errors keep their code and source line.
func Compile(ctx context.Context, source string, opts Options) (*graph.Document, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if err := errors.ValidateSource(source); err != nil {
		return nil, err
	}

	src := session.Script(source)
	if opts.Expression {
		expr := strings.TrimSpace(source)
		if strings.ContainsAny(expr, "\r\n") {
			return nil, errors.New(errors.ErrCodeInvalidInput, "expression mode accepts a single line")
		}
		src = session.Expression(expr)
	}

	h := host.NewMemory()
	res, err := session.Compile(ctx, h, src, session.Options{
		Registry: opts.Registry,
		Logger:   opts.Logger,
	})
	if err != nil {
		return nil, err
	}

	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, len(res.Lines))
	start := time.Now()
	arranged, err := res.Arrange(h, opts.LayoutOptions())
	hooks.OnLayoutComplete(ctx, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("arrange: %w", err)
	}

	opts.Logger.Debug("arranged lines", "lines", len(arranged), "duration", time.Since(start))
	return graph.FromResult(h, res, arranged), nil
}

// LoadTables sets opts.Registry from opts.Tables and returns a short hash
// of the table file for scoping cache keys. It returns "" when the
// built-in tables are used.
func LoadTables(opts *Options) (string, error) {
	if opts.Tables == "" || opts.Registry != nil {
		return "", nil
	}

	data, err := os.ReadFile(opts.Tables)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.Wrap(errors.ErrCodeFileNotFound, err, "function table %s", opts.Tables)
		}
		return "", errors.Wrap(errors.ErrCodeInvalidPath, err, "read function table %s", opts.Tables)
	}

	reg, err := registry.New()
	if err != nil {
		return "", err
	}
	if err := reg.Merge(data); err != nil {
		return "", err
	}
	opts.Registry = reg
	return cache.Hash(data)[:12], nil
}
