package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/nodify/internal/server"
	"github.com/matzehuels/nodify/pkg/pipeline"
)

// serveCommand creates the serve command running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		config  string
		tables  string
		caching cacheFlags
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the compile API over HTTP",
		Long: `Serve the compile API over HTTP.

Routes:
  POST /v1/compile    compile a script into a document
  GET  /v1/functions  list the function tables
  GET  /v1/version    build information
  GET  /healthz       liveness probe

Compiled documents are cached locally, or in Redis with --redis. Options in
nodify.toml become the defaults for every request.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defaults, err := pipeline.LoadConfig(config)
			if err != nil {
				return err
			}
			if tables != "" {
				defaults.Tables = tables
			}
			scope, err := pipeline.LoadTables(&defaults)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			runner, err := c.newRunner(ctx, caching, scope)
			if err != nil {
				return err
			}
			defer runner.Close()

			p := c.stdout()
			p.info("Serving on %s", addr)
			if caching.redis != "" {
				p.detail("cache: redis")
			}
			return server.New(runner, defaults.Registry, defaults, c.Logger).ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", server.DefaultAddr, "listen address")
	cmd.Flags().StringVar(&config, "config", pipeline.ConfigFile, "config file with default options")
	cmd.Flags().StringVar(&tables, "tables", "", "TOML file with extra function tables")
	caching.register(cmd)

	return cmd
}
