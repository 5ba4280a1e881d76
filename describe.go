package settings

// ItemKind distinguishes settings from actions in descriptors.
type ItemKind string

const (
	ItemSetting ItemKind = "setting"
	ItemAction  ItemKind = "action"
)

// Descriptor is the outward shape of one tree item, used for help text,
// input prompts and schema generation.
type Descriptor struct {
	Group       string       `json:"group"`
	Item        string       `json:"item"`
	Path        string       `json:"path"`
	Kind        ItemKind     `json:"kind"`
	Type        Type         `json:"type,omitempty"`
	Description string       `json:"description"`
	Key         string       `json:"key,omitempty"`
	Default     string       `json:"default,omitempty"`
	Constraints *Constraints `json:"constraints,omitempty"`
	Params      []Param      `json:"params,omitempty"`
}

// GroupDescriptor describes a group and its items.
type GroupDescriptor struct {
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Items       []Descriptor `json:"items"`
}

// Describe returns every item in registration order.
func (t *Tree) Describe() []Descriptor {
	var out []Descriptor
	for _, g := range t.groups {
		out = append(out, g.describe()...)
	}
	return out
}

// DescribeGroups returns the tree grouped the way help output lists it.
func (t *Tree) DescribeGroups() []GroupDescriptor {
	out := make([]GroupDescriptor, 0, len(t.groups))
	for _, g := range t.groups {
		out = append(out, GroupDescriptor{Name: g.name, Description: g.description, Items: g.describe()})
	}
	return out
}

// DescribeGroup returns the descriptor of one group.
func (t *Tree) DescribeGroup(name string) (GroupDescriptor, bool) {
	g, ok := t.index[name]
	if !ok {
		return GroupDescriptor{}, false
	}
	return GroupDescriptor{Name: g.name, Description: g.description, Items: g.describe()}, true
}

func (g *Group) describe() []Descriptor {
	out := make([]Descriptor, 0, len(g.items))
	for _, it := range g.items {
		out = append(out, describeItem(g.name, it))
	}
	return out
}

func describeItem(group string, it Item) Descriptor {
	d := Descriptor{Group: group, Item: it.ItemName(), Path: group + "/" + it.ItemName()}
	switch typed := it.(type) {
	case *Setting:
		d.Kind = ItemSetting
		d.Type = typed.Kind.Type()
		d.Description = typed.Description
		d.Key = typed.Key
		d.Default = typed.Default
		if c := typed.Kind.Constraints(); !c.empty() {
			d.Constraints = &c
		}
	case *Action:
		d.Kind = ItemAction
		d.Description = typed.Description
		d.Params = append([]Param(nil), typed.Params...)
	}
	return d
}

func (c Constraints) empty() bool {
	return len(c.Choices) == 0 && c.Minimum == nil && c.Maximum == nil && c.Sign == SignAny
}
