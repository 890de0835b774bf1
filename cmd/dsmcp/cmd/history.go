package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent invocations",
	Long: `Shows the invocation history recorded by the parameter store, newest first.
Secret parameter values are masked.`,
	Args: cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
		records, err := a.store.ListInvocations(ctx, historyLimit)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("No invocations recorded."))
			return nil
		}

		rows := make([][]string, 0, len(records))
		for _, r := range records {
			rows = append(rows, []string{
				r.StartedAt.Local().Format("2006-01-02 15:04:05"),
				r.Tool,
				statusText(r.ExitCode == 0 && r.Error == "", strconv.Itoa(r.ExitCode)),
				(time.Duration(r.DurationMs) * time.Millisecond).String(),
				truncate(r.Command, 60),
			})
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"TIME", "TOOL", "EXIT", "DURATION", "COMMAND"}, rows))
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of entries")
}
