package mcpserver

import (
	"encoding/json"
	"strings"

	dserror "github.com/datasunrise-github/datasunrise-mcp-cli-sub000/foundation/core/error"
)

func missing(name string) error {
	return dserror.Newf("%s argument is required", name).
		WithCode(dserror.CodeInvalidParameter).
		WithDetail("argument", name)
}

func requireString(args map[string]interface{}, name string) (string, error) {
	v, ok := args[name].(string)
	if !ok || strings.TrimSpace(v) == "" {
		return "", missing(name)
	}
	return v, nil
}

func optionalString(args map[string]interface{}, name string) string {
	v, _ := args[name].(string)
	return v
}

func optionalBool(args map[string]interface{}, name string, def bool) bool {
	switch v := args[name].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true")
	}
	return def
}

func optionalInt(args map[string]interface{}, name string, def int) int {
	switch v := args[name].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return def
}

// objectArg returns a nested argument object. Some clients send the
// object JSON-encoded as a string; that form is accepted too.
func objectArg(args map[string]interface{}, name string) (map[string]interface{}, error) {
	switch v := args[name].(type) {
	case nil:
		return map[string]interface{}{}, nil
	case map[string]interface{}:
		return v, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return map[string]interface{}{}, nil
		}
		var m map[string]interface{}
		if err := json.Unmarshal([]byte(v), &m); err != nil {
			return nil, dserror.Wrapf(err, "%s must be an object", name).
				WithCode(dserror.CodeInvalidParameter)
		}
		return m, nil
	default:
		return nil, dserror.Newf("%s must be an object", name).
			WithCode(dserror.CodeInvalidParameter)
	}
}

func categoryAndName(args map[string]interface{}) (string, string, error) {
	category, err := requireString(args, "category")
	if err != nil {
		return "", "", err
	}
	name, err := requireString(args, "name")
	if err != nil {
		return "", "", err
	}
	return category, name, nil
}
