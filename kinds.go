package settings

import (
	"fmt"
	"strconv"
	"strings"
)

// Type names a setting kind in help output and wire formats.
type Type string

const (
	TypeChannel Type = "channel-reference"
	TypeString  Type = "string"
	TypeChoice  Type = "string-choice"
	TypeToggle  Type = "toggle"
	TypeInteger Type = "integer"
)

// ChannelID identifies a channel as returned by the front-end's channel picker.
type ChannelID string

// Channels maps channel identifiers to display names for one owning domain.
// Front-ends supply it per invocation; a missing name falls back to the id.
type Channels interface {
	ChannelName(id ChannelID) (string, bool)
}

// ChannelsFunc adapts a function to Channels.
type ChannelsFunc func(id ChannelID) (string, bool)

// ChannelName implements Channels.
func (f ChannelsFunc) ChannelName(id ChannelID) (string, bool) {
	if f == nil {
		return "", false
	}
	return f(id)
}

// Choice is one allowed value of a string-choice setting.
type Choice struct {
	Display string `json:"display"`
	Value   string `json:"value"`
}

// SignMode restricts the sign of an integer setting.
type SignMode string

const (
	SignAny          SignMode = ""
	SignOnlyNegative SignMode = "only-negative"
	SignOnlyPositive SignMode = "only-positive"
	SignOnlyZero     SignMode = "only-zero"
)

// Constraints exposes the validation metadata of a kind for help text.
type Constraints struct {
	Choices []Choice `json:"choices,omitempty"`
	Minimum *int64   `json:"minimum,omitempty"`
	Maximum *int64   `json:"maximum,omitempty"`
	Sign    SignMode `json:"sign,omitempty"`
}

// Kind validates candidates for one setting type and owns the encoding between
// typed values and the strings held by the store.
//
// The set of kinds is closed: sealed keeps implementations inside this package,
// so adding a kind means implementing every method below.
type Kind interface {
	// Type reports the wire name of the kind.
	Type() Type
	// Parse validates c and returns the canonical stored form.
	Parse(c Candidate) (string, error)
	// Format renders a stored value for display.
	Format(stored string, channels Channels) string
	// Decode maps a stored value onto its Go value (string, int64, bool or ChannelID).
	Decode(stored string) (any, error)
	// Constraints reports validation metadata for introspection.
	Constraints() Constraints

	sealed()
	clone() Kind
}

// ChannelKind stores a channel identifier.
type ChannelKind struct{}

func (ChannelKind) Type() Type { return TypeChannel }

func (ChannelKind) Parse(c Candidate) (string, error) {
	switch c.shape {
	case shapeChannel, shapeText:
		id := strings.TrimSpace(c.text)
		if id == "" {
			return "", invalidInput(c, "a channel is required")
		}
		return id, nil
	default:
		return "", invalidInput(c, "expected a channel")
	}
}

func (ChannelKind) Format(stored string, channels Channels) string {
	if stored == "" || channels == nil {
		return stored
	}
	if name, ok := channels.ChannelName(ChannelID(stored)); ok && name != "" {
		return name
	}
	return stored
}

func (ChannelKind) Decode(stored string) (any, error) {
	return ChannelID(stored), nil
}

func (ChannelKind) Constraints() Constraints { return Constraints{} }

func (ChannelKind) sealed() {}

func (k ChannelKind) clone() Kind { return k }

// StringKind stores text verbatim.
type StringKind struct{}

func (StringKind) Type() Type { return TypeString }

func (StringKind) Parse(c Candidate) (string, error) {
	if c.shape != shapeText {
		return "", invalidInput(c, "expected text")
	}
	return c.text, nil
}

func (StringKind) Format(stored string, _ Channels) string { return stored }

func (StringKind) Decode(stored string) (any, error) { return stored, nil }

func (StringKind) Constraints() Constraints { return Constraints{} }

func (StringKind) sealed() {}

func (k StringKind) clone() Kind { return k }

// ChoiceKind accepts one of a fixed set of values, compared case-sensitively.
type ChoiceKind struct {
	Choices []Choice
}

func (ChoiceKind) Type() Type { return TypeChoice }

func (k ChoiceKind) Parse(c Candidate) (string, error) {
	if c.shape != shapeText {
		return "", invalidInput(c, "expected one of: "+strings.Join(k.values(), ", "))
	}
	if !k.allows(c.text) {
		return "", &ValidationError{
			Reason:  ReasonInvalidChoice,
			Value:   c.text,
			Allowed: k.values(),
			Detail:  "Value must be one of: " + strings.Join(k.values(), ", "),
		}
	}
	return c.text, nil
}

func (ChoiceKind) Format(stored string, _ Channels) string { return stored }

func (ChoiceKind) Decode(stored string) (any, error) { return stored, nil }

func (k ChoiceKind) Constraints() Constraints {
	return Constraints{Choices: append([]Choice(nil), k.Choices...)}
}

func (ChoiceKind) sealed() {}

func (k ChoiceKind) clone() Kind {
	return ChoiceKind{Choices: append([]Choice(nil), k.Choices...)}
}

func (k ChoiceKind) allows(value string) bool {
	for _, choice := range k.Choices {
		if choice.Value == value {
			return true
		}
	}
	return false
}

func (k ChoiceKind) values() []string {
	out := make([]string, 0, len(k.Choices))
	for _, choice := range k.Choices {
		out = append(out, choice.Value)
	}
	return out
}

const (
	toggleOn  = "yes"
	toggleOff = "no"
)

// ToggleKind stores a boolean as the tokens "yes" and "no".
type ToggleKind struct{}

func (ToggleKind) Type() Type { return TypeToggle }

func (ToggleKind) Parse(c Candidate) (string, error) {
	switch c.shape {
	case shapeBool:
		return toggleToken(c.flag), nil
	case shapeText:
		text := strings.ToLower(strings.TrimSpace(c.text))
		switch text {
		case toggleOn, toggleOff:
			return text, nil
		}
		flag, err := strconv.ParseBool(text)
		if err != nil {
			return "", invalidInput(c, "expected yes or no")
		}
		return toggleToken(flag), nil
	default:
		return "", invalidInput(c, "expected yes or no")
	}
}

func (ToggleKind) Format(stored string, _ Channels) string { return stored }

func (ToggleKind) Decode(stored string) (any, error) {
	switch stored {
	case toggleOn:
		return true, nil
	case toggleOff:
		return false, nil
	default:
		return nil, fmt.Errorf("%w: toggle token %q", ErrCorruptValue, stored)
	}
}

func (ToggleKind) Constraints() Constraints { return Constraints{} }

func (ToggleKind) sealed() {}

func (k ToggleKind) clone() Kind { return k }

func toggleToken(flag bool) string {
	if flag {
		return toggleOn
	}
	return toggleOff
}

// IntegerKind stores a whole number as decimal text.
//
// Both bounds are exclusive: a value must be strictly below Maximum and strictly
// above Minimum. Bounds are checked before the sign mode.
type IntegerKind struct {
	Minimum *int64
	Maximum *int64
	Sign    SignMode
}

func (IntegerKind) Type() Type { return TypeInteger }

func (k IntegerKind) Parse(c Candidate) (string, error) {
	var value int64
	switch c.shape {
	case shapeNumber:
		value = c.number
	case shapeText:
		parsed, err := strconv.ParseInt(strings.TrimSpace(c.text), 10, 64)
		if err != nil {
			return "", invalidInput(c, "expected a whole number")
		}
		value = parsed
	default:
		return "", invalidInput(c, "expected a whole number")
	}
	if err := k.check(value); err != nil {
		return "", err
	}
	return strconv.FormatInt(value, 10), nil
}

func (k IntegerKind) check(value int64) error {
	raw := strconv.FormatInt(value, 10)
	if k.Maximum != nil && value >= *k.Maximum {
		return &ValidationError{
			Reason: ReasonOutOfRange,
			Value:  raw,
			Bound:  &Bound{Name: "maximum", Limit: *k.Maximum},
			Detail: fmt.Sprintf("The maximum value is %d", *k.Maximum),
		}
	}
	if k.Minimum != nil && value <= *k.Minimum {
		return &ValidationError{
			Reason: ReasonOutOfRange,
			Value:  raw,
			Bound:  &Bound{Name: "minimum", Limit: *k.Minimum},
			Detail: fmt.Sprintf("The minimum value is %d", *k.Minimum),
		}
	}
	var detail string
	switch k.Sign {
	case SignOnlyNegative:
		if value > 0 {
			detail = "Only negative values are allowed"
		}
	case SignOnlyPositive:
		if value < 0 {
			detail = "Only positive values are allowed"
		}
	case SignOnlyZero:
		if value != 0 {
			detail = "Only zero is allowed"
		}
	}
	if detail != "" {
		return &ValidationError{Reason: ReasonInvalidSign, Value: raw, Sign: k.Sign, Detail: detail}
	}
	return nil
}

func (IntegerKind) Format(stored string, _ Channels) string { return stored }

func (IntegerKind) Decode(stored string) (any, error) {
	value, err := strconv.ParseInt(stored, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: integer %q", ErrCorruptValue, stored)
	}
	return value, nil
}

func (k IntegerKind) Constraints() Constraints {
	return Constraints{Minimum: cloneInt(k.Minimum), Maximum: cloneInt(k.Maximum), Sign: k.Sign}
}

func (IntegerKind) sealed() {}

func (k IntegerKind) clone() Kind {
	return IntegerKind{Minimum: cloneInt(k.Minimum), Maximum: cloneInt(k.Maximum), Sign: k.Sign}
}

func cloneInt(v *int64) *int64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func invalidInput(c Candidate, detail string) error {
	return &ValidationError{Reason: ReasonInvalidInput, Value: c.String(), Detail: detail}
}
