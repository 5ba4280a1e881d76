package settings

import (
	"errors"
	"fmt"
	"strconv"
)

// Item is a leaf of the tree: either a *Setting or an *Action.
type Item interface {
	ItemName() string
	item()
}

// Setting is a typed, named value stored under a stable persistence key.
//
// Key must never change once values have been written under it; Name is the
// user-facing selector and may be renamed freely. Groups keep their own copy of
// a setting, so changing a Setting after it was added has no effect on the tree.
type Setting struct {
	Name        string
	Key         string
	Description string
	Kind        Kind
	// Default is the stored form reported when the owning domain has no value.
	Default string
}

func (s *Setting) ItemName() string { return s.Name }

func (*Setting) item() {}

// Parse validates c with the setting's kind, labelling failures with the setting name.
func (s *Setting) Parse(c Candidate) (string, error) {
	value, err := s.Kind.Parse(c)
	if err != nil {
		var validation *ValidationError
		if errors.As(err, &validation) && validation.Setting == "" {
			validation.Setting = s.Name
		}
		return "", err
	}
	return value, nil
}

// Format renders a stored value for display.
func (s *Setting) Format(stored string, channels Channels) string {
	return s.Kind.Format(stored, channels)
}

func (s *Setting) validate() error {
	if s.Name == "" {
		return ErrNameRequired
	}
	if s.Key == "" {
		return fmt.Errorf("%w: %s", ErrKeyRequired, s.Name)
	}
	if s.Kind == nil {
		return fmt.Errorf("%w: %s", ErrKindRequired, s.Name)
	}
	if _, ok := s.Kind.(ChannelKind); ok && s.Default == "" {
		return nil
	}
	canonical, err := s.Kind.Parse(Text(s.Default))
	if err != nil {
		return fmt.Errorf("%w: %s default %q: %w", ErrInvalidDefault, s.Name, s.Default, err)
	}
	if canonical != s.Default {
		return fmt.Errorf("%w: %s default %q is not in stored form %q", ErrInvalidDefault, s.Name, s.Default, canonical)
	}
	return nil
}

func (s *Setting) clone() *Setting {
	c := *s
	c.Kind = s.Kind.clone()
	return &c
}

// Channel defines a channel-reference setting. It has no default channel.
func Channel(name, key, description string) *Setting {
	return &Setting{Name: name, Key: key, Description: description, Kind: ChannelKind{}}
}

// String defines a free-text setting.
func String(name, key, description, def string) *Setting {
	return &Setting{Name: name, Key: key, Description: description, Kind: StringKind{}, Default: def}
}

// StringChoice defines a string setting restricted to choices.
func StringChoice(name, key, description string, choices []Choice, def string) *Setting {
	return &Setting{
		Name:        name,
		Key:         key,
		Description: description,
		Kind:        ChoiceKind{Choices: append([]Choice(nil), choices...)},
		Default:     def,
	}
}

// Toggle defines a yes/no setting.
func Toggle(name, key, description string, def bool) *Setting {
	return &Setting{Name: name, Key: key, Description: description, Kind: ToggleKind{}, Default: toggleToken(def)}
}

// IntegerOption configures bounds and sign mode on an integer setting.
type IntegerOption func(*IntegerKind)

// WithMinimum sets the exclusive lower bound.
func WithMinimum(minimum int64) IntegerOption {
	return func(k *IntegerKind) {
		k.Minimum = &minimum
	}
}

// WithMaximum sets the exclusive upper bound.
func WithMaximum(maximum int64) IntegerOption {
	return func(k *IntegerKind) {
		k.Maximum = &maximum
	}
}

// WithSign restricts the sign of accepted values.
func WithSign(mode SignMode) IntegerOption {
	return func(k *IntegerKind) {
		k.Sign = mode
	}
}

// Integer defines a whole-number setting.
func Integer(name, key, description string, def int64, opts ...IntegerOption) *Setting {
	kind := IntegerKind{}
	for _, opt := range opts {
		if opt != nil {
			opt(&kind)
		}
	}
	return &Setting{
		Name:        name,
		Key:         key,
		Description: description,
		Kind:        kind,
		Default:     strconv.FormatInt(def, 10),
	}
}

// ParamType names the input type of an action parameter.
type ParamType string

const (
	ParamString  ParamType = "string"
	ParamInteger ParamType = "integer"
	ParamNumber  ParamType = "number"
	ParamBoolean ParamType = "boolean"
	ParamChannel ParamType = "channel"
	ParamRole    ParamType = "role"
)

// Param describes one input of an action subcommand.
type Param struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Type        ParamType `json:"type"`
	Required    bool      `json:"required"`
	Choices     []Choice  `json:"choices,omitempty"`
}

// Action is a free-form subcommand that triggers a side effect instead of
// reading or writing a single value. The engine only routes it.
type Action struct {
	Name        string
	Description string
	Params      []Param
}

func (a *Action) ItemName() string { return a.Name }

func (*Action) item() {}

func (a *Action) clone() *Action {
	c := *a
	c.Params = make([]Param, len(a.Params))
	for i, param := range a.Params {
		param.Choices = append([]Choice(nil), param.Choices...)
		c.Params[i] = param
	}
	return &c
}

func cloneItem(it Item) Item {
	switch typed := it.(type) {
	case *Setting:
		return typed.clone()
	case *Action:
		return typed.clone()
	}
	return it
}

func (a *Action) validate() error {
	if a.Name == "" {
		return ErrNameRequired
	}
	seen := make(map[string]struct{}, len(a.Params))
	for _, param := range a.Params {
		if param.Name == "" {
			return fmt.Errorf("%w: parameter of %s", ErrNameRequired, a.Name)
		}
		if _, ok := seen[param.Name]; ok {
			return fmt.Errorf("%w: parameter %s of %s", ErrDuplicateName, param.Name, a.Name)
		}
		seen[param.Name] = struct{}{}
	}
	return nil
}

// NewAction builds an action with the given parameters.
func NewAction(name, description string, params ...Param) *Action {
	return &Action{Name: name, Description: description, Params: append([]Param(nil), params...)}
}
