// ============================================================================
// dsmcp - DataSunrise CLI bridge for the Model Context Protocol
// ============================================================================
//
// Package:     catalog
// Description: Command and parameter descriptors for dscli operations
// Created:     2025-12-11
// License:     MIT
// ============================================================================

package catalog

// ParamType is the declared type of a command parameter
type ParamType string

const (
	// TypeString parameters are valued flags: -flag value
	TypeString ParamType = "string"
	// TypeBoolean parameters are presence flags: -flag
	TypeBoolean ParamType = "boolean"
	// TypeNumber parameters are valued flags with numeric values
	TypeNumber ParamType = "number"
)

// Valid reports whether t is a known parameter type
func (t ParamType) Valid() bool {
	switch t {
	case TypeString, TypeBoolean, TypeNumber:
		return true
	}
	return false
}

// ParameterSpec describes one input of a command
type ParameterSpec struct {
	Name        string      `yaml:"name" json:"name"`
	Type        ParamType   `yaml:"type" json:"type"`
	CLIFlag     string      `yaml:"cliName" json:"cliName"`
	Required    bool        `yaml:"required,omitempty" json:"required,omitempty"`
	Default     interface{} `yaml:"defaultValue,omitempty" json:"defaultValue,omitempty"`
	Description string      `yaml:"description,omitempty" json:"description,omitempty"`

	// Rewrite replaces an exact effective value before formatting,
	// e.g. localhost -> 127.0.0.1 for dsServer.
	Rewrite map[string]string `yaml:"rewrite,omitempty" json:"rewrite,omitempty"`
}

// HasDefault reports whether a default value is declared
func (p *ParameterSpec) HasDefault() bool {
	return p.Default != nil
}

// CommandSpec describes one dscli operation exposed as a tool.
// Specs are immutable after the catalog is loaded.
type CommandSpec struct {
	ToolName    string          `yaml:"toolName" json:"toolName"`
	Description string          `yaml:"description" json:"description"`
	BaseCommand string          `yaml:"baseCommand" json:"baseCommand"`
	Category    string          `yaml:"category,omitempty" json:"category,omitempty"`
	Params      []ParameterSpec `yaml:"params" json:"params"`

	// AutoName generates a rule name when the command is called with no
	// arguments at all.
	AutoName bool `yaml:"autoName,omitempty" json:"autoName,omitempty"`

	// AllowEmptyArguments marks commands that are meaningful with no input
	AllowEmptyArguments bool `yaml:"allowEmptyArguments,omitempty" json:"allowEmptyArguments,omitempty"`

	HighRisk bool `yaml:"highRiskOperation,omitempty" json:"highRiskOperation,omitempty"`

	Help *Help `yaml:"help,omitempty" json:"help,omitempty"`
}

// Param returns the parameter with the given name
func (c *CommandSpec) Param(name string) (*ParameterSpec, bool) {
	for i := range c.Params {
		if c.Params[i].Name == name {
			return &c.Params[i], true
		}
	}
	return nil, false
}

// Help is the extended documentation returned by get_enhanced_description
type Help struct {
	Details         string            `yaml:"details,omitempty" json:"details,omitempty"`
	Examples        []Example         `yaml:"examples,omitempty" json:"examples,omitempty"`
	RelatedCommands []string          `yaml:"relatedCommands,omitempty" json:"relatedCommands,omitempty"`
	CommonIssues    []string          `yaml:"commonIssues,omitempty" json:"commonIssues,omitempty"`
	Parameters      map[string]string `yaml:"parameters,omitempty" json:"parameters,omitempty"`
}

// Example is a documented invocation
type Example struct {
	Description string `yaml:"description" json:"description"`
	Command     string `yaml:"command" json:"command"`
}

// SequenceSpec documents a recommended multi-step workflow
type SequenceSpec struct {
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description"`
	Steps       []string `yaml:"steps" json:"steps"`
	Help        *Help    `yaml:"help,omitempty" json:"help,omitempty"`
}
