// Package pkg provides the core libraries for nodify, a compiler that turns
// arithmetic expression scripts into node graphs.
//
// # Overview
//
// A nodify source is a sequence of lines such as
//
//	radius = 2 + 3
//	area = 3.14 * radius ^ 2
//	output(area)
//
// Every line is parsed into an expression tree, evaluated into nodes and
// links inside a host graph, and then positioned on a canvas so each line
// occupies its own horizontal band. The pkg directory is organized into
// four areas:
//
//  1. Language ([parser], [symbol], [registry]) - syntax and function tables
//  2. Compiler ([eval], [build], [session], [host]) - graph construction
//  3. Presentation ([layout], [graph], [render/nodelink]) - positions and output
//  4. Infrastructure ([pipeline], [cache], [errors], [observability])
//
// # Architecture
//
// The typical data flow through nodify:
//
//	Source text
//	     ↓
//	[parser] package (one symbol tree per line)
//	     ↓
//	[build] package (evaluate into the host, track assignments)
//	     ↓
//	[session] package (multi-line compile with rollback)
//	     ↓
//	[layout] package (frames, columns, line stacking)
//	     ↓
//	JSON/YAML/DOT/SVG output
//
// # Quick Start
//
// Compile a script with caching and export it:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/nodify/pkg/cache"
//	    "github.com/matzehuels/nodify/pkg/pipeline"
//	)
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, nil)
//	defer runner.Close()
//
//	res, err := runner.Execute(context.Background(), "a = 2 + 3\na * 4", pipeline.Options{
//	    Formats: []string{pipeline.FormatJSON, pipeline.FormatSVG},
//	})
//	if err != nil {
//	    return err
//	}
//	svg := res.Artifacts[pipeline.FormatSVG]
//
// # Main Packages
//
// ## Language
//
// [parser] - Hand-written lexer and precedence-climbing parser for a single
// source line. Produces [symbol] trees and positions for error reporting.
//
// [symbol] - The expression tree: numbers, names, calls, operators, lists,
// assignments and groups.
//
// [registry] - Function and operator tables. Built-in functions ship in an
// embedded TOML file; custom tables merge on top of it.
//
// ## Compiler
//
// [host] - The graph surface the compiler writes into. [host.Memory] is an
// arena-backed implementation used by every entry point.
//
// [eval] - Turns one symbol into host nodes and reports variable use.
//
// [build] - Compiles a parsed line, tracking assignments, macros and the
// nodes each line created.
//
// [session] - Compiles a multi-line source. A failing line rolls the host
// back to its state before that line.
//
// ## Presentation
//
// [layout] - Positions nodes: frames around lines, column packing, line
// stacking and insertion shifts.
//
// [graph] - Serialization types for compiled documents (JSON and YAML).
//
// [render/nodelink] - DOT export and SVG rendering through Graphviz.
//
// ## Infrastructure
//
// [pipeline] - Complete compile pipeline (parse → compile → arrange → export)
// used by the CLI and the HTTP server.
//
// [cache] - Document and artifact caching with file, Redis and null backends.
//
// [errors] - Structured errors with codes, line numbers and user messages.
//
// [observability] - Hooks for cache, pipeline and server events.
//
// [buildinfo] - Version information injected at build time.
//
// # Testing
//
// Run tests:
//
//	go test ./...                 # All tests
//	go test ./pkg/layout/...      # Specific package
//	go test -run Example ./pkg/...
//
// [parser]: https://pkg.go.dev/github.com/matzehuels/nodify/pkg/parser
// [symbol]: https://pkg.go.dev/github.com/matzehuels/nodify/pkg/symbol
// [registry]: https://pkg.go.dev/github.com/matzehuels/nodify/pkg/registry
// [host]: https://pkg.go.dev/github.com/matzehuels/nodify/pkg/host
// [host.Memory]: https://pkg.go.dev/github.com/matzehuels/nodify/pkg/host#Memory
// [eval]: https://pkg.go.dev/github.com/matzehuels/nodify/pkg/eval
// [build]: https://pkg.go.dev/github.com/matzehuels/nodify/pkg/build
// [session]: https://pkg.go.dev/github.com/matzehuels/nodify/pkg/session
// [layout]: https://pkg.go.dev/github.com/matzehuels/nodify/pkg/layout
// [graph]: https://pkg.go.dev/github.com/matzehuels/nodify/pkg/graph
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/nodify/pkg/render/nodelink
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/nodify/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/nodify/pkg/cache
// [errors]: https://pkg.go.dev/github.com/matzehuels/nodify/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/nodify/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/nodify/pkg/buildinfo
package pkg
