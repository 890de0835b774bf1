// ============================================================================
// dsmcp - DataSunrise CLI bridge for the Model Context Protocol
// ============================================================================
//
// Package:     mcpserver
// Description: MCP tool definitions
// Created:     2025-12-17
// License:     MIT
// ============================================================================

package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/datasunrise-github/datasunrise-mcp-cli-sub000/internal/catalog"
)

// Tool names
const (
	ToolRunCommand          = "run_cli_command"
	ToolCommandSchema       = "get_command_schema"
	ToolSetExecutable       = "set_cli_executable_path"
	ToolEnhancedDescription = "get_enhanced_description"
	ToolListCommands        = "list_commands"
	ToolRunSequence         = "run_sequence"
	ToolSaveParameters      = "save_parameters"
	ToolGetParameters       = "get_parameters"
	ToolListParameters      = "list_parameters"
	ToolDeleteParameters    = "delete_parameters"
	ToolListInvocations     = "list_invocations"
)

func toolNames(c *catalog.Catalog) []string {
	names := make([]string, 0, c.Len())
	for _, cmd := range c.Commands() {
		names = append(names, cmd.ToolName)
	}
	return names
}

func runCommandTool(c *catalog.Catalog) mcp.Tool {
	return mcp.NewTool(ToolRunCommand,
		mcp.WithDescription("Executes a DataSunrise CLI command. Use `get_command_schema` to get the input schema for a specific command."),
		mcp.WithString("command_name",
			mcp.Required(),
			mcp.Description("The name of the CLI command to execute."),
			mcp.Enum(toolNames(c)...),
		),
		mcp.WithObject("arguments",
			mcp.Description("The arguments for the command."),
		),
	)
}

func commandSchemaTool(c *catalog.Catalog) mcp.Tool {
	return mcp.NewTool(ToolCommandSchema,
		mcp.WithDescription("Retrieves the input schema for a specific CLI command."),
		mcp.WithString("command_name",
			mcp.Required(),
			mcp.Description("The name of the command to get the schema for."),
			mcp.Enum(toolNames(c)...),
		),
	)
}

func setExecutableTool() mcp.Tool {
	return mcp.NewTool(ToolSetExecutable,
		mcp.WithDescription("Sets the path for the dscli executable for this session and verifies it."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("The absolute path to the dscli executable."),
		),
	)
}

func enhancedDescriptionTool() mcp.Tool {
	return mcp.NewTool(ToolEnhancedDescription,
		mcp.WithDescription("Retrieves enhanced documentation for a command or sequence"),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Name of the command or sequence"),
		),
		mcp.WithBoolean("isSequence",
			mcp.Description("Whether this is a sequence (true) or command (false)"),
			mcp.DefaultBool(false),
		),
	)
}

func listCommandsTool() mcp.Tool {
	return mcp.NewTool(ToolListCommands,
		mcp.WithDescription("Lists the available CLI commands, optionally filtered by category."),
		mcp.WithString("category",
			mcp.Description("Only list commands of this category, e.g. Rule or Instance."),
		),
	)
}

func runSequenceTool() mcp.Tool {
	return mcp.NewTool(ToolRunSequence,
		mcp.WithDescription("Runs several CLI commands in order. Step arguments may reference earlier "+
			"results with ${steps[N].result.path}. Conditional steps declare branches whose "+
			"condition selects the next step index."),
		mcp.WithArray("steps",
			mcp.Required(),
			mcp.Description("Steps: {tool, args, continueOnError, resultMapping} or {branches, defaultTargetStepIndex}."),
			mcp.Items(map[string]interface{}{"type": "object"}),
		),
		mcp.WithBoolean("autoResolve",
			mcp.Description("Fill missing parameters from earlier step results."),
		),
		mcp.WithString("name",
			mcp.Description("Optional name reported with the run."),
		),
	)
}

func saveParametersTool() mcp.Tool {
	return mcp.NewTool(ToolSaveParameters,
		mcp.WithDescription("Saves a named parameter set for later reuse, replacing an existing set with the same name."),
		mcp.WithString("category",
			mcp.Required(),
			mcp.Description("Category such as connections, instances or rules."),
		),
		mcp.WithString("name", mcp.Required(), mcp.Description("Name of the parameter set.")),
		mcp.WithObject("parameters", mcp.Required(), mcp.Description("The parameter values to store.")),
	)
}

func getParametersTool() mcp.Tool {
	return mcp.NewTool(ToolGetParameters,
		mcp.WithDescription("Returns a saved parameter set."),
		mcp.WithString("category", mcp.Required(), mcp.Description("Category of the set.")),
		mcp.WithString("name", mcp.Required(), mcp.Description("Name of the set.")),
	)
}

func listParametersTool() mcp.Tool {
	return mcp.NewTool(ToolListParameters,
		mcp.WithDescription("Lists saved parameter set names in a category, or the categories when none is given."),
		mcp.WithString("category", mcp.Description("Category to list.")),
	)
}

func deleteParametersTool() mcp.Tool {
	return mcp.NewTool(ToolDeleteParameters,
		mcp.WithDescription("Deletes a saved parameter set."),
		mcp.WithString("category", mcp.Required(), mcp.Description("Category of the set.")),
		mcp.WithString("name", mcp.Required(), mcp.Description("Name of the set.")),
	)
}

func listInvocationsTool() mcp.Tool {
	return mcp.NewTool(ToolListInvocations,
		mcp.WithDescription("Lists recent CLI invocations, newest first. Secret values are masked."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of entries, default 50.")),
	)
}
