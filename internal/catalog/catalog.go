// ============================================================================
// dsmcp - DataSunrise CLI bridge for the Model Context Protocol
// ============================================================================
//
// Package:     catalog
// Description: YAML catalog loading, validation and lookup
// Created:     2025-12-11
// License:     MIT
// ============================================================================

package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	dserror "github.com/datasunrise-github/datasunrise-mcp-cli-sub000/foundation/core/error"
)

//go:embed default_catalog.yaml
var defaultCatalog []byte

// SessionTokenParam is the optional parameter injected into commands
// that run inside an existing dscli session.
var SessionTokenParam = ParameterSpec{
	Name:        "sessionToken",
	Type:        TypeString,
	CLIFlag:     "-sessionToken",
	Description: "Session token returned by connect; only needed for Multi sessions.",
}

// commands that open a session and therefore never take a token
var sessionOpeners = map[string]bool{
	"connect":       true,
	"connectOAuth2": true,
}

// Options control post-processing applied while loading
type Options struct {
	InjectSessionToken bool
}

// document is the on-disk layout of a catalog file
type document struct {
	Version   string         `yaml:"version"`
	Commands  []*CommandSpec `yaml:"commands"`
	Sequences []SequenceSpec `yaml:"sequences"`
}

// Catalog is an immutable set of commands indexed by tool name
type Catalog struct {
	version   string
	source    string
	commands  []*CommandSpec
	byName    map[string]*CommandSpec
	sequences map[string]*SequenceSpec
}

// Parse decodes and validates a catalog document
func Parse(data []byte, opts Options) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, dserror.Wrap(err, "invalid catalog YAML").WithCode(dserror.CodeConfigError)
	}
	return build(doc, opts)
}

// Load reads a catalog file from disk
func Load(path string, opts Options) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, dserror.Wrapf(err, "read catalog %s", path).WithCode(dserror.CodeConfigError)
	}
	c, err := Parse(data, opts)
	if err != nil {
		return nil, dserror.Wrapf(err, "load catalog %s", path)
	}
	c.source = path
	return c, nil
}

// Default returns the embedded catalog
func Default(opts Options) (*Catalog, error) {
	c, err := Parse(defaultCatalog, opts)
	if err != nil {
		return nil, err
	}
	c.source = "embedded"
	return c, nil
}

// LoadOrDefault loads path, or the embedded catalog when path is empty
func LoadOrDefault(path string, opts Options) (*Catalog, error) {
	if path == "" {
		return Default(opts)
	}
	return Load(path, opts)
}

func build(doc document, opts Options) (*Catalog, error) {
	c := &Catalog{
		version:   doc.Version,
		byName:    make(map[string]*CommandSpec, len(doc.Commands)),
		sequences: make(map[string]*SequenceSpec, len(doc.Sequences)),
	}

	for i, cmd := range doc.Commands {
		if cmd == nil {
			return nil, invalid("command #%d is empty", i)
		}
		if err := validate(cmd); err != nil {
			return nil, err
		}
		if _, dup := c.byName[cmd.ToolName]; dup {
			return nil, invalid("duplicate toolName %q", cmd.ToolName)
		}
		if opts.InjectSessionToken {
			injectSessionToken(cmd)
		}
		c.byName[cmd.ToolName] = cmd
		c.commands = append(c.commands, cmd)
	}

	for i := range doc.Sequences {
		seq := &doc.Sequences[i]
		if seq.Name == "" {
			return nil, invalid("sequence #%d has no name", i)
		}
		for _, step := range seq.Steps {
			if _, ok := c.byName[step]; !ok {
				return nil, invalid("sequence %q references unknown tool %q", seq.Name, step)
			}
		}
		c.sequences[seq.Name] = seq
	}

	return c, nil
}

func validate(cmd *CommandSpec) error {
	if cmd.ToolName == "" {
		return invalid("command with baseCommand %q has no toolName", cmd.BaseCommand)
	}
	if strings.TrimSpace(cmd.BaseCommand) == "" {
		return invalid("command %q has no baseCommand", cmd.ToolName)
	}

	seen := make(map[string]bool, len(cmd.Params))
	for i := range cmd.Params {
		p := &cmd.Params[i]
		if p.Type == "" {
			p.Type = TypeString
		}
		switch {
		case p.Name == "":
			return invalid("command %q: parameter #%d has no name", cmd.ToolName, i)
		case seen[p.Name]:
			return invalid("command %q: duplicate parameter %q", cmd.ToolName, p.Name)
		case p.CLIFlag == "":
			return invalid("command %q: parameter %q has no cliName", cmd.ToolName, p.Name)
		case !p.Type.Valid():
			return invalid("command %q: parameter %q has unknown type %q", cmd.ToolName, p.Name, p.Type)
		}
		seen[p.Name] = true
	}
	return nil
}

func injectSessionToken(cmd *CommandSpec) {
	if sessionOpeners[cmd.BaseCommand] {
		return
	}
	if _, exists := cmd.Param(SessionTokenParam.Name); exists {
		return
	}
	cmd.Params = append(cmd.Params, SessionTokenParam)
}

func invalid(format string, args ...interface{}) error {
	return dserror.New(fmt.Sprintf(format, args...)).WithCode(dserror.CodeConfigError).WithOperation("catalog.validate")
}

// Lookup returns the command registered under toolName
func (c *Catalog) Lookup(toolName string) (*CommandSpec, error) {
	cmd, ok := c.byName[toolName]
	if !ok {
		return nil, dserror.New(fmt.Sprintf("unknown command: %s", toolName)).
			WithCode(dserror.CodeUnknownCommand).
			WithDetail("tool", toolName)
	}
	return cmd, nil
}

// Commands returns all commands in catalog order
func (c *Catalog) Commands() []*CommandSpec {
	out := make([]*CommandSpec, len(c.commands))
	copy(out, c.commands)
	return out
}

// ByCategory returns the commands of one category, case-insensitively.
// An empty category returns every command.
func (c *Catalog) ByCategory(category string) []*CommandSpec {
	if category == "" {
		return c.Commands()
	}
	var out []*CommandSpec
	for _, cmd := range c.commands {
		if strings.EqualFold(cmd.Category, category) {
			out = append(out, cmd)
		}
	}
	return out
}

// Categories returns the distinct categories, sorted
func (c *Catalog) Categories() []string {
	set := make(map[string]bool)
	for _, cmd := range c.commands {
		if cmd.Category != "" {
			set[cmd.Category] = true
		}
	}
	out := make([]string, 0, len(set))
	for cat := range set {
		out = append(out, cat)
	}
	sort.Strings(out)
	return out
}

// Sequence returns a documented workflow by name
func (c *Catalog) Sequence(name string) (*SequenceSpec, bool) {
	s, ok := c.sequences[name]
	return s, ok
}

// Sequences returns the documented workflows sorted by name
func (c *Catalog) Sequences() []*SequenceSpec {
	out := make([]*SequenceSpec, 0, len(c.sequences))
	for _, s := range c.sequences {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of commands
func (c *Catalog) Len() int {
	return len(c.commands)
}

// Version returns the catalog document version
func (c *Catalog) Version() string {
	return c.version
}

// Source returns the file the catalog was loaded from, or "embedded"
func (c *Catalog) Source() string {
	return c.source
}
