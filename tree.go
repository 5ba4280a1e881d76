package settings

import (
	"fmt"
	"iter"
)

// Tree is the immutable configuration surface: groups of settings and actions,
// unique by name, with persistence keys unique across the whole tree. It is safe
// for concurrent use once constructed.
type Tree struct {
	groups []*Group
	index  map[string]*Group
}

// NewTree validates groups in a single pass and returns the tree. Any duplicate
// group name, item name or persistence key fails construction; no partially
// usable tree is ever returned.
func NewTree(groups ...*Group) (*Tree, error) {
	t := &Tree{
		groups: make([]*Group, 0, len(groups)),
		index:  make(map[string]*Group, len(groups)),
	}
	keys := make(map[string]string)
	for _, group := range groups {
		if group == nil {
			return nil, fmt.Errorf("%w: nil group", ErrNameRequired)
		}
		if _, exists := t.index[group.name]; exists {
			return nil, fmt.Errorf("%w: group %s", ErrDuplicateName, group.name)
		}
		for setting := range group.Settings() {
			path := group.name + "/" + setting.Name
			if owner, exists := keys[setting.Key]; exists {
				return nil, fmt.Errorf("%w: %q used by %s and %s", ErrDuplicateKey, setting.Key, owner, path)
			}
			keys[setting.Key] = path
		}
		t.index[group.name] = group
		t.groups = append(t.groups, group)
	}
	return t, nil
}

// Resolve performs an exact, case-sensitive two-level lookup. It never guesses:
// anything but an exact match yields ErrNotFound.
// The returned item is a copy; changing it does not affect the tree.
func (t *Tree) Resolve(group, item string) (Item, error) {
	g, ok := t.index[group]
	if !ok {
		return nil, fmt.Errorf("%w: group %q", ErrNotFound, group)
	}
	it, ok := g.Item(item)
	if !ok {
		return nil, fmt.Errorf("%w: %q in group %q", ErrNotFound, item, group)
	}
	return it, nil
}

// Setting resolves (group, item) and requires the result to be a setting.
func (t *Tree) Setting(group, item string) (*Setting, error) {
	it, err := t.Resolve(group, item)
	if err != nil {
		return nil, err
	}
	s, ok := it.(*Setting)
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s is an action, not a setting", ErrNotFound, group, item)
	}
	return s, nil
}

// Group returns the group named name.
func (t *Tree) Group(name string) (*Group, bool) {
	g, ok := t.index[name]
	return g, ok
}

// Groups yields group names in registration order. The sequence can be ranged
// over any number of times.
func (t *Tree) Groups() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, g := range t.groups {
			if !yield(g.name) {
				return
			}
		}
	}
}

// Items yields the item names of group, or nothing when the group is unknown.
func (t *Tree) Items(group string) iter.Seq[string] {
	g, ok := t.index[group]
	if !ok {
		return func(func(string) bool) {}
	}
	return g.Items()
}

// Settings yields every setting with its group name.
func (t *Tree) Settings() iter.Seq2[string, *Setting] {
	return func(yield func(string, *Setting) bool) {
		for _, g := range t.groups {
			for s := range g.Settings() {
				if !yield(g.name, s) {
					return
				}
			}
		}
	}
}

// TreeBuilder collects group builders and validates them once in Build.
type TreeBuilder struct {
	groups []*GroupBuilder
}

// NewTreeBuilder returns an empty builder.
func NewTreeBuilder() *TreeBuilder {
	return &TreeBuilder{}
}

// Group appends a group builder.
func (b *TreeBuilder) Group(g *GroupBuilder) *TreeBuilder {
	b.groups = append(b.groups, g)
	return b
}

// Build materialises every group (flattening subgroups) and validates the tree.
func (b *TreeBuilder) Build() (*Tree, error) {
	var groups []*Group
	for _, builder := range b.groups {
		if builder == nil {
			return nil, fmt.Errorf("%w: nil group builder", ErrNameRequired)
		}
		built, err := builder.flatten("")
		if err != nil {
			return nil, err
		}
		groups = append(groups, built...)
	}
	return NewTree(groups...)
}

// MustBuild is Build for trees assembled at process start; a misconfigured tree
// must not run, so it panics.
func (b *TreeBuilder) MustBuild() *Tree {
	tree, err := b.Build()
	if err != nil {
		panic(err)
	}
	return tree
}
