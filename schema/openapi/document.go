package openapi

import (
	"fmt"
	"sort"
	"strings"

	settings "github.com/mldkyt/go-settings"
)

type documentBuilder struct {
	config     generatorConfig
	groups     []settings.GroupDescriptor
	components map[string]any
}

func newDocumentBuilder(config generatorConfig, groups []settings.GroupDescriptor) *documentBuilder {
	return &documentBuilder{
		config:     config,
		groups:     groups,
		components: map[string]any{},
	}
}

func (b *documentBuilder) build() (map[string]any, error) {
	b.components["Result"] = resultSchema()
	b.components["ValueRequest"] = map[string]any{
		"type":     "object",
		"required": []string{"value"},
		"properties": map[string]any{
			"value": map[string]any{},
		},
	}

	paths := map[string]any{}
	for _, group := range b.groups {
		name := componentName(group.Name)
		if _, exists := b.components[name]; exists {
			name = combineComponentName(name, "Group")
		}
		b.components[name] = groupSchema(group)
		for _, item := range group.Items {
			switch item.Kind {
			case settings.ItemSetting:
				paths[b.settingPath(item)] = b.settingOperations(item)
			case settings.ItemAction:
				paths[b.actionPath(item)] = b.actionOperations(item)
			}
		}
	}

	document := map[string]any{
		"openapi": b.config.openAPIVersion,
		"info":    b.buildInfo(),
		"paths":   paths,
		"components": map[string]any{
			"schemas": b.components,
			"securitySchemes": map[string]any{
				"adminToken": map[string]any{
					"type":   "http",
					"scheme": "bearer",
				},
			},
		},
		"security": []any{map[string]any{"adminToken": []string{}}},
	}

	if err := validateDocument(document); err != nil {
		return nil, err
	}
	return document, nil
}

func (b *documentBuilder) buildInfo() map[string]any {
	info := map[string]any{
		"title":   b.config.info.Title,
		"version": b.config.info.Version,
	}
	if b.config.info.Description != "" {
		info["description"] = b.config.info.Description
	}
	return info
}

func (b *documentBuilder) settingPath(d settings.Descriptor) string {
	return fmt.Sprintf("%s/settings/%s/%s", b.config.basePath, d.Group, d.Item)
}

func (b *documentBuilder) actionPath(d settings.Descriptor) string {
	return fmt.Sprintf("%s/actions/%s/%s", b.config.basePath, d.Group, d.Item)
}

func (b *documentBuilder) settingOperations(d settings.Descriptor) map[string]any {
	id := operationSuffix(d)
	return map[string]any{
		"parameters": []any{domainParameter()},
		"get": map[string]any{
			"operationId": "get" + id,
			"summary":     d.Description,
			"responses":   b.responses("Current value"),
		},
		"put": map[string]any{
			"operationId": "set" + id,
			"summary":     d.Description,
			"requestBody": b.body(map[string]any{
				"type":     "object",
				"required": []string{"value"},
				"properties": map[string]any{
					"value": valueSchema(d),
				},
			}),
			"responses": b.responses("Value stored"),
		},
		"delete": map[string]any{
			"operationId": "reset" + id,
			"summary":     "Reset to the default value",
			"responses":   b.responses("Value reset"),
		},
	}
}

func (b *documentBuilder) actionOperations(d settings.Descriptor) map[string]any {
	return map[string]any{
		"parameters": []any{domainParameter()},
		"post": map[string]any{
			"operationId": "perform" + operationSuffix(d),
			"summary":     d.Description,
			"requestBody": b.body(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"args": argsSchema(d),
				},
			}),
			"responses": b.responses("Action performed"),
		},
	}
}

func (b *documentBuilder) body(schema map[string]any) map[string]any {
	return map[string]any{
		"required": true,
		"content": map[string]any{
			b.config.contentType: map[string]any{"schema": schema},
		},
	}
}

func (b *documentBuilder) responses(success string) map[string]any {
	result := map[string]any{"$ref": "#/components/schemas/Result"}
	content := func() map[string]any {
		return map[string]any{b.config.contentType: map[string]any{"schema": result}}
	}
	out := map[string]any{
		"200": map[string]any{"description": success, "content": content()},
	}
	for status, description := range map[string]string{
		"403": "Actor lacks permission",
		"404": "Unknown group or item",
		"422": "Value rejected by validation",
		"501": "Action has no handler",
		"503": "Settings store unavailable",
	} {
		out[status] = map[string]any{"description": description, "content": content()}
	}
	return out
}

func domainParameter() map[string]any {
	return map[string]any{
		"name":     "domain",
		"in":       "path",
		"required": true,
		"schema":   map[string]any{"type": "string"},
	}
}

func resultSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"kind": map[string]any{
				"type": "string",
				"enum": []any{"current", "confirmed", "rejected", "performed"},
			},
			"group":         map[string]any{"type": "string"},
			"item":          map[string]any{"type": "string"},
			"description":   map[string]any{"type": "string"},
			"display_value": map[string]any{"type": "string"},
			"value":         map[string]any{"type": "string"},
			"reason":        map[string]any{"type": "string"},
			"detail":        map[string]any{"type": "string"},
		},
		"required": []string{"kind"},
	}
}

func operationSuffix(d settings.Descriptor) string {
	return componentName(d.Group) + componentName(d.Item)
}

func combineComponentName(parts ...string) string {
	filtered := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		filtered = append(filtered, part)
	}
	if len(filtered) == 0 {
		return "Schema"
	}
	return strings.Join(filtered, "_")
}

var operationMethods = []string{"get", "put", "post", "delete"}

func validateDocument(document map[string]any) error {
	if document == nil {
		return fmt.Errorf("openapi: document cannot be nil")
	}
	openapi, _ := document["openapi"].(string)
	if openapi == "" {
		return fmt.Errorf("openapi: document missing version string")
	}
	info, _ := document["info"].(map[string]any)
	if info == nil {
		return fmt.Errorf("openapi: document missing info section")
	}
	if title, _ := info["title"].(string); title == "" {
		return fmt.Errorf("openapi: info.title must be set")
	}
	if version, _ := info["version"].(string); version == "" {
		return fmt.Errorf("openapi: info.version must be set")
	}
	paths, _ := document["paths"].(map[string]any)
	if len(paths) == 0 {
		return fmt.Errorf("openapi: document must define at least one path")
	}
	keys := make([]string, 0, len(paths))
	for key := range paths {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, pathKey := range keys {
		pathItem, _ := paths[pathKey].(map[string]any)
		if pathItem == nil {
			return fmt.Errorf("openapi: path %q invalid payload", pathKey)
		}
		if !strings.Contains(pathKey, "{domain}") {
			return fmt.Errorf("openapi: path %q missing {domain} parameter", pathKey)
		}
		operations := 0
		for _, method := range operationMethods {
			value, ok := pathItem[method]
			if !ok {
				continue
			}
			operations++
			operation, _ := value.(map[string]any)
			if operation == nil {
				return fmt.Errorf("openapi: operation %s %s invalid payload", method, pathKey)
			}
			if _, ok := operation["operationId"].(string); !ok {
				return fmt.Errorf("openapi: operation %s %s missing operationId", method, pathKey)
			}
			if _, ok := operation["responses"].(map[string]any); !ok {
				return fmt.Errorf("openapi: operation %s %s missing responses", method, pathKey)
			}
			if method == "put" || method == "post" {
				requestBody, _ := operation["requestBody"].(map[string]any)
				if requestBody == nil {
					return fmt.Errorf("openapi: operation %s %s missing requestBody", method, pathKey)
				}
			}
		}
		if operations == 0 {
			return fmt.Errorf("openapi: path %q missing operations", pathKey)
		}
	}
	return nil
}
