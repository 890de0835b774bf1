package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/datasunrise-github/datasunrise-mcp-cli-sub000/internal/store"
	"github.com/datasunrise-github/datasunrise-mcp-cli-sub000/pkg/core/health"
	"github.com/datasunrise-github/datasunrise-mcp-cli-sub000/pkg/core/version"
)

var (
	statusJSON    bool
	statusTimeout time.Duration
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the dscli executable, catalog and store",
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
		report := a.healthRegistry().CheckWithTimeout(ctx, statusTimeout)
		if statusJSON {
			if err := printJSON(cmd, report); err != nil {
				return err
			}
		} else {
			rows := make([][]string, 0, len(report.Checks))
			for _, c := range report.Checks {
				rows = append(rows, []string{
					c.Name,
					statusText(c.Status != health.StatusUnhealthy, string(c.Status)),
					truncate(c.Message, 60),
					c.Duration.Round(time.Millisecond).String(),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), titleStyle.Render(report.String()))
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"CHECK", "STATUS", "MESSAGE", "DURATION"}, rows))
		}
		if report.Status == health.StatusUnhealthy {
			return fmt.Errorf("bridge is unhealthy")
		}
		return nil
	}),
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "print the report as JSON")
	statusCmd.Flags().DurationVar(&statusTimeout, "timeout", 15*time.Second, "overall deadline for the checks")
	rootCmd.AddCommand(statusCmd)
}

// healthRegistry registers one check per component the bridge depends on
func (a *app) healthRegistry() *health.Registry {
	r := health.NewRegistry("dsmcp", version.Server)

	r.Register("dscli", func(ctx context.Context) health.CheckResult {
		executor := a.engine.Executor()
		details := map[string]interface{}{"path": executor.Path()}
		if err := executor.Verify(ctx); err != nil {
			return health.Unhealthy(err, details)
		}
		return health.Healthy("verified "+executor.Active(), details)
	})

	r.Register("catalog", func(ctx context.Context) health.CheckResult {
		c := a.registry.Catalog()
		details := map[string]interface{}{
			"commands":   c.Len(),
			"categories": len(c.Categories()),
		}
		if c.Len() == 0 {
			return health.Unhealthy(fmt.Errorf("catalog has no commands"), details)
		}
		return health.Healthy(fmt.Sprintf("%d commands", c.Len()), details)
	})

	r.Register("store", func(ctx context.Context) health.CheckResult {
		stats, err := a.store.Statistics(ctx)
		if err != nil {
			return health.Unhealthy(err, nil)
		}
		if _, ok := a.store.(*store.MemoryStore); ok {
			return health.Degraded("in-memory store, data is lost on exit", stats)
		}
		return health.Healthy("sqlite store "+a.cfg.Store.Path, stats)
	})

	return r
}
