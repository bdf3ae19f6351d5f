package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nodify/pkg/cache"
	"github.com/matzehuels/nodify/pkg/graph"
	"github.com/matzehuels/nodify/pkg/pipeline"
)

// renderCommand creates the render command for exporting a compiled document.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		formatsStr string
		output     string
		caching    cacheFlags
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "render [document]",
		Short: "Export a compiled document as DOT or SVG",
		Long: `Export a compiled document as DOT or SVG.

The render command takes a document written by 'compile' (JSON or YAML) and
exports it without recompiling. The neato engine pins every node at its
computed position; the dot engine lays the graph out again.

Converting between json and yaml is also supported.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Formats = parseFormats(formatsStr)
			if len(opts.Formats) == 0 {
				opts.Formats = []string{pipeline.FormatSVG}
			}
			opts.Refresh = caching.refresh
			if err := opts.ValidateAndSetDefaults(); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], output, opts, caching)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), dot, json, yaml (comma-separated)")
	cmd.Flags().StringVar(&opts.Engine, "engine", "", "graphviz engine: neato (default, pinned positions), dot")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "show port defaults in socket labels")
	caching.register(cmd)

	return cmd
}

// runRender loads the document and exports it.
func (c *CLI) runRender(ctx context.Context, input, output string, opts pipeline.Options, caching cacheFlags) error {
	doc, data, err := readDocument(input)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, caching, "")
	if err != nil {
		return err
	}
	defer runner.Close()

	status := c.stdout()
	sp := newSpinner(ctx, c.Err, status, fmt.Sprintf("Exporting %s...", strings.Join(opts.Formats, ", ")))
	sp.start()

	artifacts, hit, err := runner.ExportWithCacheInfo(ctx, doc, cache.Hash(data), opts)
	if err != nil {
		sp.stopWithError("Export failed")
		return err
	}
	sp.stop()

	base := output
	if base == "" {
		base = strings.TrimSuffix(input, filepath.Ext(input))
		for _, f := range opts.Formats {
			if base+"."+f == input {
				return errUsage("refusing to overwrite %s, pass --output", input)
			}
		}
	}
	paths, err := writeArtifacts(artifacts, opts.Formats, base, output != "" && len(opts.Formats) == 1)
	if err != nil {
		return err
	}

	status.success("Exported %s", input)
	status.stats(len(doc.Lines), doc.NodeCount(), len(doc.Links), hit)
	for _, p := range paths {
		status.file(p)
	}
	return nil
}

// readDocument reads a JSON or YAML document and returns its raw bytes
// for cache keying.
func readDocument(path string) (*graph.Document, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}

	var doc *graph.Document
	switch graph.FormatForPath(path) {
	case graph.FormatYAML:
		doc, err = graph.ReadYAML(bytes.NewReader(data))
	default:
		doc, err = graph.ReadJSON(bytes.NewReader(data))
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load document %s: %w", path, err)
	}
	return doc, data, nil
}
