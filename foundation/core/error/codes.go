// File: codes.go
// Title: Error Code Definitions
// Description: Standardized error codes used by the CLI bridge. The code is
//              what a tool caller sees in the errorCode field of a result.
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2025-06-02
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with core error codes
// - 2025-06-02 v0.2.0: Specification, transport, execution and plan codes

package error

// Code represents a structured error code for categorizing errors
type Code string

const (
	// Generic codes
	CodeUnknown  Code = "UNKNOWN"
	CodeInternal Code = "INTERNAL"
	CodeNotFound Code = "NOT_FOUND"

	// Specification errors (caller's fault, never retried)
	CodeMissingRequiredParameter Code = "MISSING_REQUIRED_PARAMETER"
	CodeUnknownCommand           Code = "UNKNOWN_COMMAND"
	CodeInvalidParameter         Code = "INVALID_PARAMETER"
	CodeMissingStepIndex         Code = "MISSING_STEP_INDEX"
	CodeMissingCustomEvaluator   Code = "MISSING_CUSTOM_EVALUATOR"
	CodeMalformedCondition       Code = "MALFORMED_CONDITION"

	// Transport errors
	CodeExecutableNotFound   Code = "EXECUTABLE_NOT_FOUND"
	CodeExecutableUnverified Code = "EXECUTABLE_UNVERIFIED"

	// Execution errors
	CodeExecutionFailed  Code = "EXECUTION_FAILED"
	CodeExecutionTimeout Code = "EXECUTION_TIMEOUT"

	// Plans
	CodePlanInvalid   Code = "PLAN_INVALID"
	CodePlanStepLimit Code = "PLAN_STEP_LIMIT"

	// Configuration and storage
	CodeConfigError   Code = "CONFIG_ERROR"
	CodeDatabaseError Code = "DATABASE_ERROR"
)

// String returns the string representation of the error code
func (c Code) String() string {
	return string(c)
}

// IsValid checks if the error code is a known valid code
func (c Code) IsValid() bool {
	switch c {
	case CodeUnknown, CodeInternal, CodeNotFound,
		CodeMissingRequiredParameter, CodeUnknownCommand, CodeInvalidParameter,
		CodeMissingStepIndex, CodeMissingCustomEvaluator, CodeMalformedCondition,
		CodeExecutableNotFound, CodeExecutableUnverified,
		CodeExecutionFailed, CodeExecutionTimeout,
		CodePlanInvalid, CodePlanStepLimit,
		CodeConfigError, CodeDatabaseError:
		return true
	default:
		return false
	}
}

// Category returns the high-level category of the error code
func (c Code) Category() string {
	switch c {
	case CodeMissingRequiredParameter, CodeUnknownCommand, CodeInvalidParameter,
		CodeMissingStepIndex, CodeMissingCustomEvaluator, CodeMalformedCondition:
		return "specification"
	case CodeExecutableNotFound, CodeExecutableUnverified:
		return "transport"
	case CodeExecutionFailed, CodeExecutionTimeout:
		return "execution"
	case CodePlanInvalid, CodePlanStepLimit:
		return "plan"
	case CodeConfigError:
		return "configuration"
	case CodeDatabaseError:
		return "storage"
	default:
		return "generic"
	}
}

// Retryable reports whether a caller may reasonably retry after this code.
// Specification errors never are; transport errors are once the executable
// path has been fixed.
func (c Code) Retryable() bool {
	switch c.Category() {
	case "transport", "execution":
		return true
	default:
		return false
	}
}
