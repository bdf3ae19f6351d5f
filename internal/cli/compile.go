package cli

import (
	"context"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nodify/pkg/pipeline"
)

// compileCommand creates the compile command.
func (c *CLI) compileCommand() *cobra.Command {
	var (
		layout  layoutFlags
		caching cacheFlags
		expr    string
		output  string
	)

	cmd := &cobra.Command{
		Use:   "compile [script]",
		Short: "Compile a script into a node graph document",
		Long: `Compile a script into a node graph document.

Each line of the script is one statement: a free expression, an assignment
to a variable, or an assignment to output. Use "-" to read from stdin, or
--expr to compile a single expression.

Without --output a single format is written to stdout. Several formats are
written next to the script as <script>.<format>.

Options not given on the command line are read from nodify.toml when present.`,
		Example: `  nodify compile shader.nfy
  nodify compile shader.nfy -f json,svg --frame --align TOP
  nodify compile -e "sqrt(x * x + 1)" -f dot
  cat shader.nfy | nodify compile - -o graph.yaml -f yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := layout.options()
			if err != nil {
				return err
			}

			input, source := "", expr
			if expr != "" {
				if len(args) > 0 {
					return errUsage("--expr cannot be combined with a script argument")
				}
				opts.Expression = true
			} else {
				if len(args) == 0 {
					return errUsage("a script path or --expr is required")
				}
				input = args[0]
				if source, err = readInput(cmd, input); err != nil {
					return err
				}
			}
			opts.Refresh = caching.refresh
			return c.runCompile(cmd.Context(), source, input, output, opts, caching)
		},
	}

	cmd.Flags().StringVarP(&expr, "expr", "e", "", "compile a single expression")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&layout.formats, "format", "f", "", "output format(s): json (default), yaml, dot, svg (comma-separated)")
	cmd.Flags().StringVar(&layout.opts.Engine, "engine", "", "graphviz engine for dot/svg: neato (default, pinned positions), dot")
	cmd.Flags().BoolVar(&layout.opts.Detailed, "detailed", false, "show port defaults in dot/svg output")
	layout.register(cmd)
	caching.register(cmd)

	return cmd
}

// runCompile runs the pipeline and writes every artifact.
func (c *CLI) runCompile(ctx context.Context, source, input, output string, opts pipeline.Options, caching cacheFlags) error {
	scope, err := pipeline.LoadTables(&opts)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, caching, scope)
	if err != nil {
		return err
	}
	defer runner.Close()

	toStdout := output == "" && len(opts.Formats) == 1
	status := c.stdout()
	if toStdout {
		status = c.stderr()
	}

	var sp *spinner
	if slices.Contains(opts.Formats, pipeline.FormatSVG) && !toStdout {
		sp = newSpinner(ctx, c.Err, status, "Rendering...")
		sp.start()
	}

	prog := newProgress(c.Logger)
	res, err := runner.Execute(ctx, source, opts)
	if err != nil {
		if sp != nil {
			sp.stopWithError("Compile failed")
		}
		return compileError(err)
	}
	if sp != nil {
		sp.stop()
	}
	prog.done("compile finished", "session", res.Document.SessionID)

	for _, line := range sortedLines(res.Document.Warnings) {
		for _, w := range res.Document.Warnings[line] {
			status.warning("line %d: %s", line, w)
		}
	}

	if toStdout {
		_, err := c.Out.Write(res.Artifacts[opts.Formats[0]])
		return err
	}

	paths, err := writeArtifacts(res.Artifacts, opts.Formats, outputBase(input, output), output != "" && len(opts.Formats) == 1)
	if err != nil {
		return err
	}

	status.success("Compiled %s", describeInput(input))
	status.stats(len(res.Document.Lines), res.Stats.NodeCount, res.Stats.LinkCount, res.CacheInfo.DocumentHit)
	for _, p := range paths {
		status.file(p)
	}
	return nil
}

// outputBase picks the base path for written artifacts.
func outputBase(input, output string) string {
	switch {
	case output != "":
		return output
	case input == "" || input == "-":
		return appName
	}
	return strings.TrimSuffix(input, filepath.Ext(input))
}

func describeInput(input string) string {
	switch input {
	case "":
		return "expression"
	case "-":
		return "stdin"
	}
	return input
}
