//go:build !js_eval

package settings

// NewJSEvaluator returns nil unless built with the js_eval tag.
func NewJSEvaluator() Evaluator { return nil }
