// Package log provides structured logging for the dsmcp bridge.
//
// Package: log
// Title: dsmcp Structured Logging
// Description: Leveled, field-based logging with JSON and text output.
//              The default output is stderr: stdout belongs to the MCP
//              stdio transport and must never carry log lines.
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2025-06-02
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with structured logging
// - 2025-06-02 v0.2.0: stderr default, invocation IDs, async mode removed
//
// Usage:
//
//	logger := log.New().WithName("engine")
//	logger.Info("command finished", log.Fields{"tool": "instance_show", "exit_code": 0})
//
//	timer := logger.StartTimer("invoke")
//	defer timer.Stop()
package log
