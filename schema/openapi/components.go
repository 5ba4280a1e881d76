package openapi

import (
	"strconv"
	"strings"
	"unicode"

	settings "github.com/mldkyt/go-settings"
)

// valueSchema is the JSON schema of a setting value as accepted by PUT.
func valueSchema(d settings.Descriptor) map[string]any {
	schema := map[string]any{}
	if d.Description != "" {
		schema["description"] = d.Description
	}
	switch d.Type {
	case settings.TypeToggle:
		schema["type"] = "boolean"
		if d.Default != "" {
			schema["default"] = d.Default == "yes"
		}
	case settings.TypeInteger:
		schema["type"] = "integer"
		schema["format"] = "int64"
		if def, err := strconv.ParseInt(d.Default, 10, 64); err == nil {
			schema["default"] = def
		}
	case settings.TypeChannel:
		schema["type"] = "string"
		schema["format"] = "channel-id"
	default:
		schema["type"] = "string"
		if d.Default != "" {
			schema["default"] = d.Default
		}
	}
	if c := d.Constraints; c != nil {
		if len(c.Choices) > 0 {
			values := make([]any, 0, len(c.Choices))
			for _, choice := range c.Choices {
				values = append(values, choice.Value)
			}
			schema["enum"] = values
		}
		if c.Minimum != nil {
			schema["exclusiveMinimum"] = *c.Minimum
		}
		if c.Maximum != nil {
			schema["exclusiveMaximum"] = *c.Maximum
		}
		if c.Sign != settings.SignAny {
			schema["x-sign"] = string(c.Sign)
		}
	}
	return schema
}

// groupSchema collects the settings of a group into one object component.
func groupSchema(group settings.GroupDescriptor) map[string]any {
	properties := map[string]any{}
	for _, item := range group.Items {
		if item.Kind != settings.ItemSetting {
			continue
		}
		properties[item.Item] = valueSchema(item)
	}
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if group.Description != "" {
		schema["description"] = group.Description
	}
	return schema
}

// argsSchema describes the args object of an action request.
func argsSchema(d settings.Descriptor) map[string]any {
	properties := map[string]any{}
	var required []string
	for _, param := range d.Params {
		prop := map[string]any{"type": paramType(param.Type)}
		if param.Description != "" {
			prop["description"] = param.Description
		}
		if len(param.Choices) > 0 {
			values := make([]any, 0, len(param.Choices))
			for _, choice := range param.Choices {
				values = append(values, choice.Value)
			}
			prop["enum"] = values
		}
		properties[param.Name] = prop
		if param.Required {
			required = append(required, param.Name)
		}
	}
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func paramType(t settings.ParamType) string {
	switch t {
	case settings.ParamInteger:
		return "integer"
	case settings.ParamNumber:
		return "number"
	case settings.ParamBoolean:
		return "boolean"
	default:
		return "string"
	}
}

// componentName turns "leveling-rewards" into "LevelingRewards".
func componentName(group string) string {
	var b strings.Builder
	upper := true
	for _, r := range group {
		if r == '-' || r == '_' || r == ' ' {
			upper = true
			continue
		}
		if upper {
			b.WriteRune(unicode.ToUpper(r))
			upper = false
			continue
		}
		b.WriteRune(r)
	}
	if b.Len() == 0 {
		return "Group"
	}
	return b.String()
}
