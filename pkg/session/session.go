// Package session compiles multi-line sources into a host graph.
//
// A compile session reads lines from a [LineSource], expands macros, parses
// each line and hands it to a fresh [build.Builder]. Variables and their
// usage are tracked across lines. After the last line, every displayed line
// is prepared for layout with variable definitions inserted at their last
// use.
//
// # Displayed Lines
//
// A line is displayed when it is a free expression, assigns to the sink, or
// defines a variable no later line uses. Other definitions surface only
// inside the line that consumes them last:
//
//	a = 2 + 3      // inserted into line 2
//	b = a * 4      // inserted into line 3
//	output = b     // displayed
//
// # Failure
//
// Any parse or evaluation error removes every node and graph the session
// created, and is returned tagged with its 1-based source line:
//
//	res, err := session.Compile(ctx, h, session.Script(src), session.Options{})
//	if err != nil {
//	    fmt.Println(errors.LineOf(err), errors.UserMessage(err))
//	}
package session

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/nodify/pkg/build"
	"github.com/matzehuels/nodify/pkg/errors"
	"github.com/matzehuels/nodify/pkg/eval"
	"github.com/matzehuels/nodify/pkg/host"
	"github.com/matzehuels/nodify/pkg/layout"
	"github.com/matzehuels/nodify/pkg/observability"
	"github.com/matzehuels/nodify/pkg/parser"
	"github.com/matzehuels/nodify/pkg/registry"
	"github.com/matzehuels/nodify/pkg/symbol"
)

// ParseFunc parses one source line. A nil symbol with a nil error marks a
// line without an expression.
type ParseFunc func(line string) (*symbol.Symbol, error)

// Options configures a compile session.
type Options struct {
	// Registry resolves identifiers. Nil uses the built-in tables.
	Registry *registry.Registry
	// Parse parses lines. Nil uses parser.Parse.
	Parse ParseFunc
	// Logger receives progress messages. Nil discards them.
	Logger *log.Logger
	// Hooks receives session events. Nil uses the registered hooks.
	Hooks observability.CompileHooks
}

func (o Options) withDefaults() Options {
	if o.Registry == nil {
		o.Registry = registry.MustNew()
	}
	if o.Parse == nil {
		o.Parse = parser.Parse
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	if o.Hooks == nil {
		o.Hooks = observability.Compile()
	}
	return o
}

// Variable is a name bound at the end of a session.
type Variable struct {
	Name string
	Node host.NodeID
	Uses int
}

// Result is a compiled session.
type Result struct {
	// SessionID identifies the session in logs and exported documents.
	SessionID string
	// Root is the top-level graph of the host.
	Root host.GraphID
	// Lines holds the displayed lines in source order, ready for layout.
	Lines []layout.Line
	// Variables lists the final bindings in first-definition order.
	Variables []Variable
	// Warnings maps 1-based source lines to their warnings.
	Warnings map[int][]string
	// FrameTitle is the frame label suggested by the source, if any.
	FrameTitle string
	// SourceLines counts every line read, blank ones included.
	SourceLines int
}

// Arrange positions the displayed lines in h. An empty opts.FrameTitle
// falls back to the title suggested by the source.
func (r *Result) Arrange(h host.Host, opts layout.Options) ([]layout.ArrangedLine, error) {
	if opts.FrameTitle == "" {
		opts.FrameTitle = r.FrameTitle
	}
	return layout.ArrangeLines(h, r.Lines, opts)
}

type entry struct {
	number int
	kind   build.Kind
	node   host.NodeID
	table  *build.Table
}

// Compile reads every line of src and builds its nodes in h. On failure all
// nodes created by the session are removed before the error is returned.
func Compile(ctx context.Context, h host.Host, src LineSource, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	id := uuid.NewString()
	start := time.Now()
	opts.Hooks.OnCompileStart(ctx, id)

	rec := &recorder{Host: h}
	c := &compiler{
		id:        id,
		opts:      opts,
		rec:       rec,
		ctx:       &eval.Context{Host: rec, Registry: opts.Registry, Vars: eval.NewVarTable(), Logger: opts.Logger},
		tracker:   build.NewTracker(),
		displayed: make(build.NodeSet),
		macros:    NewMacros(),
		res:       &Result{SessionID: id, Root: h.Root(), Warnings: make(map[int][]string)},
	}
	if t, ok := src.(titled); ok {
		c.res.FrameTitle = t.FrameTitle()
	}

	err := c.read(ctx, src)
	if err == nil {
		c.prepare()
	}
	opts.Hooks.OnCompileComplete(ctx, id, c.res.SourceLines, time.Since(start), err)
	if err != nil {
		if rbErr := rec.rollback(); rbErr != nil {
			opts.Logger.Error("rollback failed", "session", id, "error", rbErr)
		}
		return nil, err
	}

	opts.Logger.Info("compiled",
		"session", id,
		"lines", c.res.SourceLines,
		"displayed", len(c.res.Lines),
		"duration", time.Since(start).Round(time.Microsecond))
	return c.res, nil
}

type compiler struct {
	id        string
	opts      Options
	rec       *recorder
	ctx       *eval.Context
	tracker   *build.Tracker
	displayed build.NodeSet
	macros    *Macros
	entries   []entry
	res       *Result
}

func (c *compiler) read(ctx context.Context, src LineSource) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		raw, ok, err := src.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		c.res.SourceLines++
		if err := c.line(ctx, c.res.SourceLines, raw); err != nil {
			if errors.GetCode(err) == "" {
				err = errors.Wrap(errors.ErrCodeInternal, err, "compile failed")
			}
			return errors.AtLine(c.res.SourceLines, err)
		}
	}
}

func (c *compiler) line(ctx context.Context, number int, raw string) error {
	text := c.macros.Expand(strings.TrimSpace(raw))
	sym, err := c.opts.Parse(text)
	if err != nil {
		return err
	}
	if sym == nil {
		return nil
	}

	c.tracker.ResetProcessed()
	idx := len(c.entries)
	res, err := build.NewBuilder(c.ctx, c.tracker, c.displayed, idx).Compile(c.res.Root, sym)
	if err != nil {
		return err
	}
	if len(res.Warnings) > 0 {
		c.res.Warnings[number] = append(c.res.Warnings[number], res.Warnings...)
	}
	if res.Kind == build.KindDefine {
		c.macros.DefineLine(res.Name, text)
	}

	c.opts.Logger.Debug("line", "line", number, "nodes", res.Table.Len(), "kind", res.Kind)
	c.opts.Hooks.OnLineCompiled(ctx, c.id, number, res.Table.Len(), res.Kind.String())

	if res.Table.Len() == 0 {
		return nil
	}
	table := res.Table
	if res.Kind == build.KindDefine {
		table = c.tracker.Register(res.Node, res.Table).Table
	} else {
		c.displayed.Add(res.Table.Nodes()...)
	}
	c.entries = append(c.entries, entry{number: number, kind: res.Kind, node: res.Node, table: table})
	return nil
}

// prepare inserts variable definitions into the lines that use them last
// and collects the displayed lines.
func (c *compiler) prepare() {
	root := c.res.Root
	for i, e := range c.entries {
		shown := e.kind != build.KindDefine
		if !shown {
			info, ok := c.tracker.Info(e.node)
			shown = !ok || len(info.UsageLines) == 0
		}
		e.table.Set(root, layout.InsertVarNodes(c.rec, e.table, root, c.tracker, i, shown))
		if shown {
			c.res.Lines = append(c.res.Lines, layout.Line{Number: e.number, Table: e.table})
		}
	}

	for _, name := range c.ctx.Vars.Names() {
		b, _ := c.ctx.Vars.Lookup(name)
		c.res.Variables = append(c.res.Variables, Variable{Name: name, Node: b.Node, Uses: b.Uses})
	}
}
