package settings

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

type candidateShape uint8

const (
	shapeNone candidateShape = iota
	shapeText
	shapeNumber
	shapeBool
	shapeChannel
)

// Candidate is the raw input a front-end supplies for a setting. The zero value
// carries no input and selects the read path.
type Candidate struct {
	shape  candidateShape
	text   string
	number int64
	flag   bool
}

// NoValue returns an empty candidate (read intent).
func NoValue() Candidate {
	return Candidate{}
}

// Text wraps free text typed by a user or passed by a text front-end.
func Text(value string) Candidate {
	return Candidate{shape: shapeText, text: value}
}

// Number wraps a whole number picked through a numeric option.
func Number(value int64) Candidate {
	return Candidate{shape: shapeNumber, number: value}
}

// Bool wraps a boolean option.
func Bool(value bool) Candidate {
	return Candidate{shape: shapeBool, flag: value}
}

// ChannelRef wraps an identifier returned by the front-end's channel picker.
func ChannelRef(id ChannelID) Candidate {
	return Candidate{shape: shapeChannel, text: string(id)}
}

// IsSet reports whether the candidate carries a value.
func (c Candidate) IsSet() bool {
	return c.shape != shapeNone
}

// String renders the candidate for logs and activity metadata.
func (c Candidate) String() string {
	switch c.shape {
	case shapeText:
		return c.text
	case shapeNumber:
		return strconv.FormatInt(c.number, 10)
	case shapeBool:
		return strconv.FormatBool(c.flag)
	case shapeChannel:
		return "#" + c.text
	default:
		return "<none>"
	}
}

// CandidateFromJSON maps a decoded JSON scalar onto a Candidate. Numbers must be
// whole; objects and arrays are rejected.
func CandidateFromJSON(value any) (Candidate, error) {
	switch typed := value.(type) {
	case nil:
		return NoValue(), nil
	case string:
		return Text(typed), nil
	case bool:
		return Bool(typed), nil
	case float64:
		// float64(math.MaxInt64) rounds up to 2^63, which is already out of range.
		if typed != math.Trunc(typed) || typed >= math.MaxInt64 || typed < math.MinInt64 {
			return Candidate{}, fmt.Errorf("%w: %v is not a whole number", ErrInvalidInput, typed)
		}
		return Number(int64(typed)), nil
	case json.Number:
		n, err := typed.Int64()
		if err != nil {
			return Candidate{}, fmt.Errorf("%w: %s is not a whole number", ErrInvalidInput, typed)
		}
		return Number(n), nil
	case int:
		return Number(int64(typed)), nil
	case int64:
		return Number(typed), nil
	case uint64:
		if typed > math.MaxInt64 {
			return Candidate{}, fmt.Errorf("%w: %d is out of range", ErrInvalidInput, typed)
		}
		return Number(int64(typed)), nil
	default:
		return Candidate{}, fmt.Errorf("%w: unsupported value type %T", ErrInvalidInput, value)
	}
}
