package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

var runJSON string

var runCmd = &cobra.Command{
	Use:   "run <tool> [name=value ...]",
	Short: "Run one catalog command",
	Long: `Runs a single catalog command through dscli and prints the result envelope.

Arguments are given as name=value pairs or as a JSON object with --json;
pairs override keys of the JSON object.

Examples:
  dsmcp run connect login=admin password=secret
  dsmcp run rule_add_masking name=Mask_SSN instance=pg maskColumns=db.public.users.ssn
  dsmcp run instance_show_one --json '{"name": "pg17"}'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runJSON, "json", "", "arguments as a JSON object")
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	toolArgs, err := parseToolArgs(runJSON, args[1:])
	if err != nil {
		return err
	}

	a, err := newApp(appConfig)
	if err != nil {
		return err
	}
	defer a.Close()

	result := a.engine.Invoke(ctx, args[0], toolArgs)
	if err := printJSON(cmd, result); err != nil {
		return err
	}
	if !result.Succeeded() {
		return fmt.Errorf("%s failed with exit code %d", args[0], result.ExitCode)
	}
	return nil
}

// parseToolArgs merges a JSON object with name=value pairs
func parseToolArgs(jsonArgs string, pairs []string) (map[string]interface{}, error) {
	out := make(map[string]interface{})
	if strings.TrimSpace(jsonArgs) != "" {
		if err := json.Unmarshal([]byte(jsonArgs), &out); err != nil {
			return nil, fmt.Errorf("--json must be a JSON object: %w", err)
		}
	}
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("argument %q is not name=value", p)
		}
		out[name] = value
	}
	return out, nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
