package catalog

// InputSchema builds the JSON schema object advertised for a command's
// arguments. Properties follow declaration order in "required".
func InputSchema(cmd *CommandSpec) map[string]interface{} {
	properties := make(map[string]interface{}, len(cmd.Params))
	required := make([]string, 0)

	for _, p := range cmd.Params {
		prop := map[string]interface{}{
			"type": jsonType(p.Type),
		}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		if p.HasDefault() {
			prop["default"] = p.Default
		}
		properties[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}

	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func jsonType(t ParamType) string {
	switch t {
	case TypeBoolean:
		return "boolean"
	case TypeNumber:
		return "number"
	default:
		return "string"
	}
}
