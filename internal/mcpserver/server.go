// ============================================================================
// dsmcp - DataSunrise CLI bridge for the Model Context Protocol
// ============================================================================
//
// Package:     mcpserver
// Description: MCP server exposing the dscli catalog as tools over stdio
// Created:     2025-12-17
// License:     MIT
// ============================================================================

// Package mcpserver wires the engine, the plan runner and the parameter
// store into an MCP server. Handlers translate tool calls into engine
// calls and render every outcome as a JSON text result.
package mcpserver

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"sync"

	"github.com/mark3labs/mcp-go/server"

	"github.com/datasunrise-github/datasunrise-mcp-cli-sub000/internal/catalog"
	"github.com/datasunrise-github/datasunrise-mcp-cli-sub000/internal/engine"
	"github.com/datasunrise-github/datasunrise-mcp-cli-sub000/internal/sequence"
	"github.com/datasunrise-github/datasunrise-mcp-cli-sub000/internal/store"
	"github.com/datasunrise-github/datasunrise-mcp-cli-sub000/pkg/core/logging"
	"github.com/datasunrise-github/datasunrise-mcp-cli-sub000/pkg/core/version"
)

// Options configure a Server
type Options struct {
	Name    string
	Version string

	Engine  *engine.Engine
	Catalog *catalog.Registry

	// Store backs the parameter and history tools; nil leaves them out
	Store store.Store

	Runner sequence.RunnerConfig

	// Evaluators are the named custom conditions available to run_sequence
	Evaluators map[string]sequence.Evaluator
}

// Server is the MCP front end of the bridge
type Server struct {
	mcp     *server.MCPServer
	engine  *engine.Engine
	catalog *catalog.Registry
	store   store.Store
	runner  *sequence.Runner
	decode  sequence.DecodeOptions
	logger  *logging.Logger

	// one dscli invocation in flight at a time
	invokeMu sync.Mutex
}

// New creates the server and registers every tool
func New(opts Options) *Server {
	if opts.Name == "" {
		opts.Name = "datasunrise-cli"
	}
	if opts.Version == "" {
		opts.Version = version.Server
	}

	runnerCfg := opts.Runner
	if runnerCfg.Commands == nil {
		runnerCfg.Commands = opts.Catalog
	}

	s := &Server{
		engine:  opts.Engine,
		catalog: opts.Catalog,
		store:   opts.Store,
		decode:  sequence.DecodeOptions{Evaluators: opts.Evaluators},
		logger:  logging.New("mcpserver"),
	}
	s.runner = sequence.NewRunner(lockedInvoker{s}, runnerCfg)

	s.mcp = server.NewMCPServer(
		opts.Name,
		opts.Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)
	s.registerTools()

	// the command enum of run_cli_command follows the active catalog
	opts.Catalog.OnReload(func(c *catalog.Catalog) {
		s.mcp.AddTool(runCommandTool(c), s.handleRunCommand)
		s.mcp.AddTool(commandSchemaTool(c), s.handleCommandSchema)
		s.logger.Info("Tool definitions refreshed", "commands", c.Len())
	})
	return s
}

// MCPServer returns the underlying mcp-go server
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// ServeStdio serves JSON-RPC over in/out until ctx is cancelled or in
// is closed. Protocol errors are logged to stderr.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(log.New(os.Stderr, "[mcp] ", log.LstdFlags))

	s.logger.Info("Serving MCP over stdio", "commands", s.catalog.Catalog().Len())
	err := stdio.Listen(ctx, in, out)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (s *Server) registerTools() {
	c := s.catalog.Catalog()

	s.mcp.AddTool(runCommandTool(c), s.handleRunCommand)
	s.mcp.AddTool(commandSchemaTool(c), s.handleCommandSchema)
	s.mcp.AddTool(setExecutableTool(), s.handleSetExecutable)
	s.mcp.AddTool(enhancedDescriptionTool(), s.handleEnhancedDescription)
	s.mcp.AddTool(listCommandsTool(), s.handleListCommands)
	s.mcp.AddTool(runSequenceTool(), s.handleRunSequence)

	if s.store == nil {
		s.logger.Warn("Parameter store disabled, skipping parameter and history tools")
		return
	}
	s.mcp.AddTool(saveParametersTool(), s.handleSaveParameters)
	s.mcp.AddTool(getParametersTool(), s.handleGetParameters)
	s.mcp.AddTool(listParametersTool(), s.handleListParameters)
	s.mcp.AddTool(deleteParametersTool(), s.handleDeleteParameters)
	s.mcp.AddTool(listInvocationsTool(), s.handleListInvocations)
}

// lockedInvoker serializes plan steps with direct tool calls
type lockedInvoker struct {
	s *Server
}

func (l lockedInvoker) Invoke(ctx context.Context, tool string, args map[string]interface{}) *engine.InvocationResult {
	l.s.invokeMu.Lock()
	defer l.s.invokeMu.Unlock()
	return l.s.engine.Invoke(ctx, tool, args)
}

const instructions = `This server runs DataSunrise administrative commands through the dscli executable.

Use list_commands to discover commands and get_command_schema or get_enhanced_description
before calling run_cli_command. Call connect first; later commands reuse the session.

When stderr starts with a line "MCP-PROMPT: {...}", parse the JSON: it may name a
suggested_tool with tool_args to run before retrying. Never retry the same failing
masking rule twice without following the suggestion.

run_sequence executes several steps in one call. Step arguments may reference earlier
results with ${steps[N].result.path}; missing parameters are filled from earlier results
when autoResolve is on.`
