package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var paramsJSON string

var paramsCmd = &cobra.Command{
	Use:   "params",
	Short: "Manage saved parameter sets",
}

var paramsListCmd = &cobra.Command{
	Use:   "list [category]",
	Short: "List categories, or the sets of one category",
	Args:  cobra.MaximumNArgs(1),
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
		if len(args) == 0 {
			cats, err := a.store.ListCategories(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]interface{}{"categories": cats})
		}
		names, err := a.store.ListParameters(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd, map[string]interface{}{"category": args[0], "names": names})
	}),
}

var paramsGetCmd = &cobra.Command{
	Use:   "get <category> <name>",
	Short: "Print a parameter set",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
		params, err := a.store.GetParameters(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		return printJSON(cmd, params)
	}),
}

var paramsSaveCmd = &cobra.Command{
	Use:   "save <category> <name> [name=value ...]",
	Short: "Save or replace a parameter set",
	Args:  cobra.MinimumNArgs(2),
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
		params, err := parseToolArgs(paramsJSON, args[2:])
		if err != nil {
			return err
		}
		if err := a.store.SaveParameters(ctx, args[0], args[1], params); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s/%s\n", okStyle.Render("saved"), args[0], args[1])
		return nil
	}),
}

var paramsDeleteCmd = &cobra.Command{
	Use:   "delete <category> <name>",
	Short: "Delete a parameter set",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
		deleted, err := a.store.DeleteParameters(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		if !deleted {
			return fmt.Errorf("no parameter set %s/%s", args[0], args[1])
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s/%s\n", okStyle.Render("deleted"), args[0], args[1])
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(paramsCmd)
	paramsCmd.AddCommand(paramsListCmd, paramsGetCmd, paramsSaveCmd, paramsDeleteCmd)
	paramsSaveCmd.Flags().StringVar(&paramsJSON, "json", "", "parameters as a JSON object")
}

// withApp builds the app for a subcommand and closes it afterwards
func withApp(fn func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(appConfig)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd.Context(), cmd, a, args)
	}
}
