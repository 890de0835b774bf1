// ============================================================================
// dsmcp - DataSunrise CLI bridge for the Model Context Protocol
// ============================================================================
//
// Package:     version
// Description: Central version management
// Created:     2025-12-06
// License:     MIT
// ============================================================================

package version

// Version constants
const (
	// Server is the version reported to MCP clients
	Server = "1.2.0"

	// Catalog is the version of the embedded command catalog format
	Catalog = "1"
)

// Build metadata, set via -ldflags
var (
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Component returns the version for a given component name
func Component(name string) string {
	switch name {
	case "catalog":
		return Catalog
	default:
		return Server
	}
}
