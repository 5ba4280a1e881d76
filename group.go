package settings

import (
	"fmt"
	"iter"
)

// Group is an immutable, named collection of settings and actions. Settings and
// actions share one namespace because both compete for the same selector slot.
type Group struct {
	name        string
	description string
	items       []Item
	index       map[string]Item
}

// NewGroup validates items and returns the group. Duplicate item names fail
// with ErrDuplicateName; a group without items fails with ErrEmptyGroup.
func NewGroup(name string, items ...Item) (*Group, error) {
	return newGroup(name, "", items)
}

func newGroup(name, description string, items []Item) (*Group, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: group", ErrNameRequired)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyGroup, name)
	}
	g := &Group{
		name:        name,
		description: description,
		items:       make([]Item, 0, len(items)),
		index:       make(map[string]Item, len(items)),
	}
	for _, it := range items {
		if err := g.add(it); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func (g *Group) add(it Item) error {
	if err := validateItem(it); err != nil {
		return fmt.Errorf("group %s: %w", g.name, err)
	}
	name := it.ItemName()
	if _, exists := g.index[name]; exists {
		return fmt.Errorf("%w: %s/%s", ErrDuplicateName, g.name, name)
	}
	owned := cloneItem(it)
	g.index[name] = owned
	g.items = append(g.items, owned)
	return nil
}

func validateItem(it Item) error {
	switch typed := it.(type) {
	case *Setting:
		if typed == nil {
			return fmt.Errorf("%w: nil setting", ErrKindRequired)
		}
		return typed.validate()
	case *Action:
		if typed == nil {
			return fmt.Errorf("%w: nil action", ErrNameRequired)
		}
		return typed.validate()
	default:
		return fmt.Errorf("%w: unsupported item %T", ErrKindRequired, it)
	}
}

// Name returns the group name.
func (g *Group) Name() string { return g.name }

// Description returns the optional group description.
func (g *Group) Description() string { return g.description }

// Item returns a copy of the item registered under name.
func (g *Group) Item(name string) (Item, bool) {
	it, ok := g.index[name]
	if !ok {
		return nil, false
	}
	return cloneItem(it), true
}

// Items yields item names in insertion order.
func (g *Group) Items() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, it := range g.items {
			if !yield(it.ItemName()) {
				return
			}
		}
	}
}

// Settings yields copies of the group's settings in insertion order.
func (g *Group) Settings() iter.Seq[*Setting] {
	return func(yield func(*Setting) bool) {
		for _, it := range g.items {
			if s, ok := it.(*Setting); ok {
				if !yield(s.clone()) {
					return
				}
			}
		}
	}
}

// Actions yields copies of the group's actions in insertion order.
func (g *Group) Actions() iter.Seq[*Action] {
	return func(yield func(*Action) bool) {
		for _, it := range g.items {
			if a, ok := it.(*Action); ok {
				if !yield(a.clone()) {
					return
				}
			}
		}
	}
}

// GroupBuilder composes a group fluently. The first invalid or duplicate item
// is recorded and returned by Build; later calls are ignored.
type GroupBuilder struct {
	name        string
	description string
	items       []Item
	names       map[string]struct{}
	subgroups   []*GroupBuilder
	err         error
}

// NewGroupBuilder starts a group named name.
func NewGroupBuilder(name string) *GroupBuilder {
	return &GroupBuilder{name: name, names: map[string]struct{}{}}
}

// Describe sets the group description shown in help output.
func (b *GroupBuilder) Describe(description string) *GroupBuilder {
	b.description = description
	return b
}

// Setting adds a setting definition.
func (b *GroupBuilder) Setting(s *Setting) *GroupBuilder {
	return b.add(s)
}

// Action adds an action subcommand.
func (b *GroupBuilder) Action(a *Action) *GroupBuilder {
	return b.add(a)
}

// Subgroup nests child under this group. The tree stays two levels deep: the
// child is registered as a sibling group named "<parent>-<child>".
func (b *GroupBuilder) Subgroup(child *GroupBuilder) *GroupBuilder {
	if b.err != nil {
		return b
	}
	if child == nil {
		b.err = fmt.Errorf("group %s: %w: nil subgroup", b.name, ErrNameRequired)
		return b
	}
	b.subgroups = append(b.subgroups, child)
	return b
}

func (b *GroupBuilder) add(it Item) *GroupBuilder {
	if b.err != nil {
		return b
	}
	if err := validateItem(it); err != nil {
		b.err = fmt.Errorf("group %s: %w", b.name, err)
		return b
	}
	name := it.ItemName()
	if _, exists := b.names[name]; exists {
		b.err = fmt.Errorf("%w: %s/%s", ErrDuplicateName, b.name, name)
		return b
	}
	b.names[name] = struct{}{}
	b.items = append(b.items, cloneItem(it))
	return b
}

// Build returns the group, or the first construction error. Subgroups are only
// materialised by TreeBuilder.
func (b *GroupBuilder) Build() (*Group, error) {
	if b.err != nil {
		return nil, b.err
	}
	return newGroup(b.name, b.description, b.items)
}

func (b *GroupBuilder) flatten(prefix string) ([]*Group, error) {
	name := b.name
	if prefix != "" {
		name = prefix + "-" + b.name
	}
	if b.err != nil {
		return nil, b.err
	}
	group, err := newGroup(name, b.description, b.items)
	if err != nil {
		return nil, err
	}
	out := []*Group{group}
	for _, child := range b.subgroups {
		nested, err := child.flatten(name)
		if err != nil {
			return nil, err
		}
		out = append(out, nested...)
	}
	return out, nil
}
