package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/nodify/pkg/errors"
	"github.com/matzehuels/nodify/pkg/graph"
	"github.com/matzehuels/nodify/pkg/render/nodelink"
)

// Export encodes a document in every requested format.
func Export(ctx context.Context, doc *graph.Document, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	artifacts := make(map[string][]byte, len(opts.Formats))

	// DOT source is shared by the dot and svg formats.
	var dot string
	dotSource := func() string {
		if dot == "" {
			dot = nodelink.ToDOT(doc, opts.NodelinkOptions())
		}
		return dot
	}

	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatJSON, FormatYAML:
			data, err = graph.Marshal(doc, format)
		case FormatDOT:
			data = []byte(dotSource())
		case FormatSVG:
			data, err = nodelink.RenderSVG(ctx, dotSource(), opts.NodelinkOptions())
		default:
			return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("export %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}
