// Package error provides coded, contextual errors for the dsmcp bridge.
//
// Package: error
// Title: dsmcp Error Handling
// Description: Structured errors carrying a Code, a Severity, free-form details
//              and the operation that produced them. Codes group into the
//              categories the bridge reports to callers: specification,
//              transport, execution, plan, configuration and storage.
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2025-06-02
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with contextual errors and codes
// - 2025-06-02 v0.2.0: CLI bridge codes, stack capture removed
//
// Usage:
//
//	err := error.New("parameter name is required").
//		WithCode(error.CodeMissingRequiredParameter).
//		WithDetail("parameter", "name")
//
//	if error.HasCode(err, error.CodeMissingRequiredParameter) {
//		// caller mistake, never retried
//	}
package error
