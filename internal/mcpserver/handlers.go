// ============================================================================
// dsmcp - DataSunrise CLI bridge for the Model Context Protocol
// ============================================================================
//
// Package:     mcpserver
// Description: MCP tool handlers
// Created:     2025-12-17
// License:     MIT
// ============================================================================

package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	dserror "github.com/datasunrise-github/datasunrise-mcp-cli-sub000/foundation/core/error"
	"github.com/datasunrise-github/datasunrise-mcp-cli-sub000/internal/catalog"
	"github.com/datasunrise-github/datasunrise-mcp-cli-sub000/internal/sequence"
)

// jsonResult renders v as indented JSON text
func jsonResult(v interface{}, isError bool) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode tool result: %w", err)
	}
	result := mcp.NewToolResultText(string(data))
	result.IsError = isError
	return result, nil
}

func errorResult(err error) (*mcp.CallToolResult, error) {
	return jsonResult(map[string]interface{}{
		"error":     err.Error(),
		"errorCode": dserror.GetCode(err),
	}, true)
}

func (s *Server) handleRunCommand(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	name, err := requireString(args, "command_name")
	if err != nil {
		return errorResult(err)
	}
	commandArgs, err := objectArg(args, "arguments")
	if err != nil {
		return errorResult(err)
	}

	result := lockedInvoker{s}.Invoke(ctx, name, commandArgs)
	return jsonResult(result, !result.Succeeded())
}

func (s *Server) handleCommandSchema(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := requireString(req.GetArguments(), "command_name")
	if err != nil {
		return errorResult(err)
	}
	cmd, err := s.catalog.Lookup(name)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(catalog.InputSchema(cmd), false)
}

func (s *Server) handleSetExecutable(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := requireString(req.GetArguments(), "path")
	if err != nil {
		return errorResult(err)
	}

	executor := s.engine.Executor()
	executor.SetPath(path)
	if err := executor.Verify(ctx); err != nil {
		s.logger.Warn("Executable verification failed", "path", path, "error", err)
		result := mcp.NewToolResultText(fmt.Sprintf(
			"DataSunrise CLI executable path set to: %s, but verification FAILED.", path))
		result.IsError = true
		return result, nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"DataSunrise CLI executable path set and verified: %s", executor.Active())), nil
}

func (s *Server) handleEnhancedDescription(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	name, err := requireString(args, "name")
	if err != nil {
		return errorResult(err)
	}
	c := s.catalog.Catalog()

	if optionalBool(args, "isSequence", false) {
		seq, ok := c.Sequence(name)
		if !ok {
			return jsonResult(map[string]interface{}{
				"found":   false,
				"message": fmt.Sprintf("Unknown sequence: %s", name),
			}, true)
		}
		return jsonResult(map[string]interface{}{
			"found":       true,
			"name":        seq.Name,
			"description": seq.Description,
			"steps":       seq.Steps,
			"help":        seq.Help,
		}, false)
	}

	cmd, err := c.Lookup(name)
	if err != nil {
		return jsonResult(map[string]interface{}{
			"found":   false,
			"message": err.Error(),
		}, true)
	}
	return jsonResult(map[string]interface{}{
		"found":             true,
		"name":              cmd.ToolName,
		"description":       cmd.Description,
		"category":          cmd.Category,
		"baseCommand":       cmd.BaseCommand,
		"highRiskOperation": cmd.HighRisk,
		"inputSchema":       catalog.InputSchema(cmd),
		"help":              cmd.Help,
	}, false)
}

type commandSummary struct {
	ToolName    string `json:"toolName"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
}

func (s *Server) handleListCommands(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category := optionalString(req.GetArguments(), "category")
	c := s.catalog.Catalog()

	cmds := c.ByCategory(category)
	summaries := make([]commandSummary, 0, len(cmds))
	for _, cmd := range cmds {
		summaries = append(summaries, commandSummary{
			ToolName:    cmd.ToolName,
			Description: cmd.Description,
			Category:    cmd.Category,
		})
	}
	return jsonResult(map[string]interface{}{
		"count":      len(summaries),
		"categories": c.Categories(),
		"commands":   summaries,
	}, false)
}

func (s *Server) handleRunSequence(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	steps, ok := args["steps"].([]interface{})
	if !ok || len(steps) == 0 {
		return errorResult(dserror.New("steps must be a non-empty array").
			WithCode(dserror.CodeInvalidParameter))
	}

	plan, err := sequence.PlanFromSteps(steps, s.decode)
	if err != nil {
		return errorResult(err)
	}
	plan.Name = optionalString(args, "name")
	if v, ok := args["autoResolve"].(bool); ok {
		plan.AutoResolve = &v
	}

	report, err := s.runner.Run(ctx, plan)
	if report == nil {
		return errorResult(err)
	}
	return jsonResult(report, report.Status != sequence.StatusCompleted)
}

func (s *Server) handleSaveParameters(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	category, name, err := categoryAndName(args)
	if err != nil {
		return errorResult(err)
	}
	params, ok := args["parameters"]
	if !ok {
		return errorResult(missing("parameters"))
	}
	if err := s.store.SaveParameters(ctx, category, name, params); err != nil {
		return errorResult(err)
	}
	return jsonResult(map[string]interface{}{
		"saved":    true,
		"category": category,
		"name":     name,
	}, false)
}

func (s *Server) handleGetParameters(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category, name, err := categoryAndName(req.GetArguments())
	if err != nil {
		return errorResult(err)
	}
	params, err := s.store.GetParameters(ctx, category, name)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(map[string]interface{}{
		"category":   category,
		"name":       name,
		"parameters": params,
	}, false)
}

func (s *Server) handleListParameters(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category := optionalString(req.GetArguments(), "category")
	if category == "" {
		cats, err := s.store.ListCategories(ctx)
		if err != nil {
			return errorResult(err)
		}
		return jsonResult(map[string]interface{}{"categories": cats}, false)
	}

	names, err := s.store.ListParameters(ctx, category)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(map[string]interface{}{
		"category": category,
		"names":    names,
	}, false)
}

func (s *Server) handleDeleteParameters(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category, name, err := categoryAndName(req.GetArguments())
	if err != nil {
		return errorResult(err)
	}
	deleted, err := s.store.DeleteParameters(ctx, category, name)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(map[string]interface{}{
		"deleted":  deleted,
		"category": category,
		"name":     name,
	}, !deleted)
}

func (s *Server) handleListInvocations(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := optionalInt(req.GetArguments(), "limit", 50)
	records, err := s.store.ListInvocations(ctx, limit)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(map[string]interface{}{
		"count":       len(records),
		"invocations": records,
	}, false)
}
