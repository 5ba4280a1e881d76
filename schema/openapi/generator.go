// Package openapi renders a settings tree as an OpenAPI 3.1 document
// describing the admin HTTP surface.
package openapi

import (
	settings "github.com/mldkyt/go-settings"
)

// Generator renders trees with a fixed configuration. It is safe for
// concurrent use.
type Generator struct {
	config generatorConfig
}

// NewGenerator constructs a generator.
func NewGenerator(opts ...GeneratorOption) Generator {
	cfg := defaultGeneratorConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return Generator{config: cfg}
}

// Generate renders tree. A nil tree yields a document with no paths, which
// fails validation.
func (g Generator) Generate(tree *settings.Tree) (map[string]any, error) {
	var groups []settings.GroupDescriptor
	if tree != nil {
		groups = tree.DescribeGroups()
	}
	return newDocumentBuilder(g.config, groups).build()
}

// Generate renders tree with a one-off generator.
func Generate(tree *settings.Tree, opts ...GeneratorOption) (map[string]any, error) {
	return NewGenerator(opts...).Generate(tree)
}
