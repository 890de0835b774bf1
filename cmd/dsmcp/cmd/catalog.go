package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/datasunrise-github/datasunrise-mcp-cli-sub000/internal/catalog"
)

var catalogCategory string

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the command catalog",
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog commands",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadCatalog()
		if err != nil {
			return err
		}

		cmds := c.ByCategory(catalogCategory)
		rows := make([][]string, 0, len(cmds))
		for _, spec := range cmds {
			rows = append(rows, []string{spec.ToolName, spec.Category, spec.BaseCommand, truncate(spec.Description, 60)})
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("Catalog %s (%d commands)", c.Source(), len(cmds))))
		fmt.Fprintln(out, renderTable([]string{"TOOL", "CATEGORY", "COMMAND", "DESCRIPTION"}, rows))
		fmt.Fprintln(out, mutedStyle.Render("Categories: "+strings.Join(c.Categories(), ", ")))
		return nil
	},
}

var catalogShowCmd = &cobra.Command{
	Use:   "show <tool>",
	Short: "Show the parameters of one command",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadCatalog()
		if err != nil {
			return err
		}
		spec, err := c.Lookup(args[0])
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), renderCommand(spec))
		return nil
	},
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a catalog file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := catalog.Load(args[0], catalog.Options{})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %d commands, %d sequences\n",
			okStyle.Render("valid"), args[0], c.Len(), len(c.Sequences()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogListCmd, catalogShowCmd, catalogValidateCmd)
	catalogListCmd.Flags().StringVarP(&catalogCategory, "category", "c", "", "only this category")
}

func loadCatalog() (*catalog.Catalog, error) {
	return catalog.LoadOrDefault(appConfig.Catalog.Path, catalog.Options{
		InjectSessionToken: appConfig.CLI.InjectSessionToken,
	})
}

func renderCommand(spec *catalog.CommandSpec) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(spec.ToolName))
	b.WriteString("  ")
	b.WriteString(mutedStyle.Render(spec.BaseCommand))
	if spec.HighRisk {
		b.WriteString("  " + errorStyle.Render("high risk"))
	}
	b.WriteString("\n")
	b.WriteString(spec.Description + "\n\n")

	rows := make([][]string, 0, len(spec.Params))
	for _, p := range spec.Params {
		required := ""
		if p.Required {
			required = "yes"
		}
		def := ""
		if p.HasDefault() {
			def = fmt.Sprint(p.Default)
		}
		rows = append(rows, []string{p.Name, string(p.Type), p.CLIFlag, required, def, truncate(p.Description, 50)})
	}
	b.WriteString(renderTable([]string{"PARAMETER", "TYPE", "FLAG", "REQUIRED", "DEFAULT", "DESCRIPTION"}, rows))
	b.WriteString("\n")

	if spec.Help != nil {
		if spec.Help.Details != "" {
			b.WriteString("\n" + strings.TrimSpace(spec.Help.Details) + "\n")
		}
		for _, ex := range spec.Help.Examples {
			b.WriteString("\n  " + mutedStyle.Render("# "+ex.Description) + "\n  " + ex.Command + "\n")
		}
		if len(spec.Help.RelatedCommands) > 0 {
			b.WriteString("\n" + mutedStyle.Render("Related: "+strings.Join(spec.Help.RelatedCommands, ", ")) + "\n")
		}
	}
	return b.String()
}
