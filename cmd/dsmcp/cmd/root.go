package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/datasunrise-github/datasunrise-mcp-cli-sub000/pkg/core/config"
	"github.com/datasunrise-github/datasunrise-mcp-cli-sub000/pkg/core/logging"
)

var (
	cfgFile string
	verbose bool
	cliPath string

	appConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "dsmcp",
	Short: "DataSunrise CLI bridge for the Model Context Protocol",
	Long: `dsmcp exposes the DataSunrise command line (dscli) as MCP tools.

Commands:
  serve    - MCP server over stdio
  run      - run one catalog command
  catalog  - inspect the command catalog
  plan     - run a multi-step plan file
  params   - manage saved parameter sets
  history  - show recent invocations
  status   - check dscli, catalog and store`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// Execute runs the root command
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		printError("dsmcp", err)
	}
	return err
}

func init() {
	rootCmd.SilenceErrors = true
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $DSMCP_CONFIG or ./configs/dsmcp.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&cliPath, "cli-path", "", "path of the dscli executable")
}

// loadConfig resolves the configuration and configures logging before
// any subcommand runs
func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	if cfgFile != "" {
		appConfig, err = config.Load(cfgFile)
		if err == nil {
			appConfig.ApplyEnv()
		}
	} else {
		appConfig, err = config.LoadFromEnv()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if cliPath != "" {
		appConfig.CLI.Executable = cliPath
	}
	level := appConfig.General.LogLevel
	if verbose {
		level = "debug"
	}
	logging.Configure(logging.LoggerConfig{
		Level:  level,
		Format: appConfig.General.LogFormat,
	})
	return nil
}

func printError(msg string, err error) {
	fmt.Fprintf(os.Stderr, "%s %s: %v\n", errorStyle.Render("Error:"), msg, err)
}
