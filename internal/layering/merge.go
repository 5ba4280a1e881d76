// Package layering composes per-group value maps ordered from strongest to
// weakest layer.
package layering

// Values maps group name to item name to value.
type Values map[string]map[string]any

// Merge returns a new Values where each (group, item) takes its value from the
// strongest layer that defines it. Layers are ordered strongest first; inputs
// are never mutated.
func Merge(layers ...Values) Values {
	merged := Values{}
	for i := len(layers) - 1; i >= 0; i-- {
		for group, items := range layers[i] {
			if items == nil {
				continue
			}
			dst, ok := merged[group]
			if !ok {
				dst = make(map[string]any, len(items))
				merged[group] = dst
			}
			for item, value := range items {
				dst[item] = value
			}
		}
	}
	return merged
}

// Set assigns value to (group, item), allocating the group map on demand.
func (v Values) Set(group, item string, value any) {
	items, ok := v[group]
	if !ok {
		items = map[string]any{}
		v[group] = items
	}
	items[item] = value
}

// Get returns the value at (group, item).
func (v Values) Get(group, item string) (any, bool) {
	items, ok := v[group]
	if !ok {
		return nil, false
	}
	value, ok := items[item]
	return value, ok
}
