package settings

import (
	"errors"
	"fmt"
)

// Reason classifies why an invocation was rejected.
type Reason string

const (
	ReasonNone          Reason = ""
	ReasonUnauthorized  Reason = "unauthorized"
	ReasonNotFound      Reason = "not-found"
	ReasonDuplicateName Reason = "duplicate-name"
	ReasonInvalidChoice Reason = "invalid-choice"
	ReasonOutOfRange    Reason = "out-of-range"
	ReasonInvalidSign   Reason = "invalid-sign"
	ReasonInvalidInput  Reason = "invalid-input"
	ReasonPersistence   Reason = "persistence"
	ReasonUnhandled     Reason = "unhandled"
	ReasonCorruptValue  Reason = "corrupt-value"
	ReasonInternal      Reason = "internal"
)

var (
	// ErrUnauthorized indicates the actor lacks the elevated permission.
	ErrUnauthorized = errors.New("settings: actor lacks permission")
	// ErrNotFound indicates a (group, item) selector that does not resolve.
	ErrNotFound = errors.New("settings: not found")
	// ErrDuplicateName indicates two groups, or two items within a group, share a name.
	ErrDuplicateName = errors.New("settings: names must be unique")
	// ErrDuplicateKey indicates two settings share a persistence key.
	ErrDuplicateKey = errors.New("settings: persistence keys must be unique")
	// ErrNameRequired indicates a group, setting or action without a name.
	ErrNameRequired = errors.New("settings: name must be provided")
	// ErrKeyRequired indicates a setting without a persistence key.
	ErrKeyRequired = errors.New("settings: persistence key must be provided")
	// ErrKindRequired indicates a setting without a kind.
	ErrKindRequired = errors.New("settings: kind must be provided")
	// ErrEmptyGroup indicates a group with neither settings nor actions.
	ErrEmptyGroup = errors.New("settings: group must contain at least one item")
	// ErrInvalidDefault indicates a default the setting's own kind rejects.
	ErrInvalidDefault = errors.New("settings: invalid default")

	ErrInvalidChoice = errors.New("settings: invalid choice")
	ErrOutOfRange    = errors.New("settings: value out of range")
	ErrInvalidSign   = errors.New("settings: invalid sign")
	ErrInvalidInput  = errors.New("settings: invalid input")

	// ErrPersistence wraps any failure reported by the store.
	ErrPersistence = errors.New("settings: store failure")
	// ErrUnhandled indicates an action with no registered handler.
	ErrUnhandled = errors.New("settings: action has no handler")
	// ErrCorruptValue indicates a stored token the kind cannot decode.
	ErrCorruptValue = errors.New("settings: corrupt stored value")
)

// Bound names the integer bound a value violated.
type Bound struct {
	Name  string `json:"name"`
	Limit int64  `json:"limit"`
}

// ValidationError reports a candidate rejected by a kind. Detail is safe to
// show to the invoking user.
type ValidationError struct {
	Reason  Reason
	Setting string
	Value   string
	Detail  string
	Allowed []string
	Bound   *Bound
	Sign    SignMode
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Setting == "" {
		return fmt.Sprintf("settings: %s: %s", e.Reason, e.Detail)
	}
	return fmt.Sprintf("settings: %s %s: %s", e.Setting, e.Reason, e.Detail)
}

// Unwrap exposes the sentinel matching Reason so callers can use errors.Is.
func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return sentinelFor(e.Reason)
}

func sentinelFor(reason Reason) error {
	switch reason {
	case ReasonUnauthorized:
		return ErrUnauthorized
	case ReasonNotFound:
		return ErrNotFound
	case ReasonDuplicateName:
		return ErrDuplicateName
	case ReasonInvalidChoice:
		return ErrInvalidChoice
	case ReasonOutOfRange:
		return ErrOutOfRange
	case ReasonInvalidSign:
		return ErrInvalidSign
	case ReasonInvalidInput:
		return ErrInvalidInput
	case ReasonPersistence:
		return ErrPersistence
	case ReasonUnhandled:
		return ErrUnhandled
	case ReasonCorruptValue:
		return ErrCorruptValue
	default:
		return nil
	}
}

// ReasonOf classifies err. Unknown errors are ReasonInternal; nil is ReasonNone.
func ReasonOf(err error) Reason {
	if err == nil {
		return ReasonNone
	}
	var validation *ValidationError
	if errors.As(err, &validation) {
		return validation.Reason
	}
	for _, candidate := range []Reason{
		ReasonUnauthorized,
		ReasonNotFound,
		ReasonDuplicateName,
		ReasonInvalidChoice,
		ReasonOutOfRange,
		ReasonInvalidSign,
		ReasonInvalidInput,
		ReasonPersistence,
		ReasonUnhandled,
		ReasonCorruptValue,
	} {
		if errors.Is(err, sentinelFor(candidate)) {
			return candidate
		}
	}
	return ReasonInternal
}

func persistenceError(op, domain, key string, err error) error {
	return fmt.Errorf("%w: %s %s/%s: %w", ErrPersistence, op, domain, key, err)
}
