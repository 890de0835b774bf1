package engine

import (
	"strings"

	"github.com/datasunrise-github/datasunrise-mcp-cli-sub000/internal/catalog"
)

// Synthesize joins the base command and the flags with single spaces.
// No escaping happens here beyond what Normalize applied.
func Synthesize(spec *catalog.CommandSpec, flags []Flag) string {
	var b strings.Builder
	b.WriteString(spec.BaseCommand)
	for _, f := range flags {
		b.WriteByte(' ')
		b.WriteString(f.String())
	}
	return b.String()
}

// BuildCommand normalizes args and synthesizes the invocation string.
// On a specification error no string is produced.
func BuildCommand(spec *catalog.CommandSpec, args ArgumentBag) (string, error) {
	flags, err := Normalize(spec, args)
	if err != nil {
		return "", err
	}
	return Synthesize(spec, flags), nil
}
