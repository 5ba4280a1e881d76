package activity

import (
	"strings"
	"time"
)

// Verbs emitted by the settings engine.
const (
	VerbResolved       = "settings.resolved"
	VerbResolveFailed  = "settings.resolve_failed"
	VerbUnauthorized   = "settings.unauthorized"
	VerbRead           = "settings.read"
	VerbReadFailed     = "settings.read_failed"
	VerbValidated      = "settings.validated"
	VerbRejected       = "settings.rejected"
	VerbUpdated        = "settings.updated"
	VerbReset          = "settings.reset"
	VerbPersistFailed  = "settings.persist_failed"
	VerbActionDone     = "settings.action.performed"
	VerbActionFailed   = "settings.action.failed"
	ObjectTypeSetting  = "setting"
	ObjectTypeAction   = "action"
	ObjectTypeSelector = "selector"
)

// SettingEventInput describes the common fields of settings engine events.
type SettingEventInput struct {
	ActorID    string
	DomainID   string
	ObjectType string
	Group      string
	Item       string
	Key        string
	Channel    string
	Reason     string
	Detail     string
	Candidate  string
	Value      string
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildSettingEvent constructs an event for verb, deriving the object id from
// the (group, item) selector.
func BuildSettingEvent(verb string, input SettingEventInput) Event {
	metadata := cloneMap(input.Metadata)
	set := func(key, value string) {
		if value == "" {
			return
		}
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadata[key] = value
	}
	set("group", input.Group)
	set("item", input.Item)
	set("key", input.Key)
	set("detail", input.Detail)
	set("candidate", input.Candidate)
	set("value", input.Value)

	objectType := strings.TrimSpace(input.ObjectType)
	if objectType == "" {
		objectType = ObjectTypeSetting
	}

	objectID := strings.Trim(strings.TrimSpace(input.Group)+"/"+strings.TrimSpace(input.Item), "/")
	if objectID == "" {
		objectID = strings.TrimSpace(input.Key)
	}
	if objectID == "" {
		objectID = objectType
	}

	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		DomainID:   strings.TrimSpace(input.DomainID),
		ObjectType: objectType,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Reason:     strings.TrimSpace(input.Reason),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}
