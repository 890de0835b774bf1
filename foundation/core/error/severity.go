// File: severity.go
// Title: Error Severity Levels
// Description: Severity levels and the default severity for each code.
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2025-06-02
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation
// - 2025-06-02 v0.2.0: Mapping for CLI bridge codes

package error

// Severity represents the severity level of an error
type Severity int

const (
	// SeverityLow indicates a caller mistake that changes nothing on the appliance
	SeverityLow Severity = iota

	// SeverityMedium indicates a failed command with a usable diagnostic
	SeverityMedium

	// SeverityHigh indicates the bridge cannot reach the executable or its storage
	SeverityHigh

	// SeverityCritical indicates the bridge cannot continue
	SeverityCritical
)

// String returns the string representation of the severity level
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ShouldAlert returns true if this severity level should trigger alerts
func (s Severity) ShouldAlert() bool {
	return s >= SeverityHigh
}

// GetSeverityFromCode determines appropriate severity level based on error code
func GetSeverityFromCode(code Code) Severity {
	switch code.Category() {
	case "specification", "plan":
		return SeverityLow
	case "execution":
		return SeverityMedium
	case "transport", "storage", "configuration":
		return SeverityHigh
	}
	if code == CodeInternal {
		return SeverityCritical
	}
	return SeverityMedium
}
