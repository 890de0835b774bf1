package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/datasunrise-github/datasunrise-mcp-cli-sub000/internal/mcpserver"
	"github.com/datasunrise-github/datasunrise-mcp-cli-sub000/pkg/core/version"
)

var watchCatalog bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve MCP over stdio",
	Long: `Starts the MCP server on stdin/stdout.

Logs are written to stderr. With --watch a catalog file given in the
configuration is reloaded whenever it changes.

Example client configuration:
  {"command": "dsmcp", "args": ["serve", "--cli-path", "/opt/datasunrise/cmdline/executecommand.sh"]}`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVar(&watchCatalog, "watch", false, "reload the catalog file on change")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(appConfig)
	if err != nil {
		return err
	}
	defer a.Close()

	if appConfig.CLI.VerifyOnStart {
		if err := a.engine.Executor().Verify(ctx); err != nil {
			// tools stay usable; set_cli_executable_path can fix the path
			a.logger.Warn("dscli verification failed", "path", appConfig.CLI.Executable, "error", err)
		}
	}
	if watchCatalog {
		if err := a.registry.Watch(ctx); err != nil {
			a.logger.Warn("Catalog watch disabled", "error", err)
		}
	}

	srv := mcpserver.New(mcpserver.Options{
		Name:    appConfig.General.Name,
		Version: version.Server,
		Engine:  a.engine,
		Catalog: a.registry,
		Store:   a.store,
		Runner:  a.runnerConfig(),
	})

	a.logger.Info("dsmcp started",
		"version", version.Server,
		"executable", appConfig.CLI.Executable,
		"catalog", a.registry.Catalog().Source())

	err = srv.ServeStdio(ctx, os.Stdin, os.Stdout)
	a.logger.Info("dsmcp stopped")
	return err
}
