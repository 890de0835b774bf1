package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/datasunrise-github/datasunrise-mcp-cli-sub000/internal/sequence"
)

var planJSON bool

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Run and check multi-step plan files",
	Long: `Plan files are YAML (or JSON) documents:

  name: mask new column
  steps:
    - tool: instance_update_metadata
      args: {instance: pg17}
    - branches:
        - condition: {type: step_succeeded, stepIndex: 0}
          targetStepIndex: 2
      defaultTargetStepIndex: 3
    - tool: rule_add_masking
      args: {name: Mask_Email, instance: pg17, maskColumns: db.public.users.email}

Custom conditions can be written as expressions:
  condition: {type: custom, expression: 'last.exitCode == 0 && count > 1'}`,
}

var planRunCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Execute a plan",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlan,
}

var planValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a plan without running it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		plan, err := sequence.LoadPlan(args[0], sequence.DecodeOptions{})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %d steps\n", okStyle.Render("valid"), args[0], len(plan.Steps))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(planCmd)
	planCmd.AddCommand(planRunCmd, planValidateCmd)
	planRunCmd.Flags().BoolVar(&planJSON, "json", false, "print the full report as JSON")
}

func runPlan(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	plan, err := sequence.LoadPlan(args[0], sequence.DecodeOptions{})
	if err != nil {
		return err
	}

	a, err := newApp(appConfig)
	if err != nil {
		return err
	}
	defer a.Close()

	report, runErr := sequence.NewRunner(a.engine, a.runnerConfig()).Run(ctx, plan)
	if planJSON {
		if err := printJSON(cmd, report); err != nil {
			return err
		}
	} else {
		fmt.Fprint(cmd.OutOrStdout(), renderReport(report))
	}

	if runErr != nil {
		return runErr
	}
	if report.Status != sequence.StatusCompleted {
		return fmt.Errorf("plan %s", report.Status)
	}
	return nil
}

func renderReport(report *sequence.Report) string {
	rows := make([][]string, 0, len(report.Steps))
	for _, s := range report.Steps {
		switch {
		case s.NextStep != nil:
			next := "continue"
			if *s.NextStep != sequence.Continue {
				next = "jump to " + strconv.Itoa(*s.NextStep)
			}
			rows = append(rows, []string{strconv.Itoa(s.Index), "(branch)", "", next})
		case s.Result != nil:
			rows = append(rows, []string{
				strconv.Itoa(s.Index),
				s.Tool,
				statusText(s.Result.Succeeded(), strconv.Itoa(s.Result.ExitCode)),
				truncate(s.Result.Command, 70),
			})
		}
	}

	title := fmt.Sprintf("Plan %s: %s", report.Plan, statusText(report.Status == sequence.StatusCompleted, string(report.Status)))
	out := titleStyle.Render(title) + "\n" +
		renderTable([]string{"STEP", "TOOL", "EXIT", "COMMAND / NEXT"}, rows) + "\n"
	if report.Error != "" {
		out += errorStyle.Render(report.Error) + "\n"
	}
	return out
}
