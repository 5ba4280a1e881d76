package activity

import (
	"testing"
	"time"
)

func TestBuildSettingEventIncludesSelectorMetadata(t *testing.T) {
	meta := map[string]any{"custom": "value"}
	input := SettingEventInput{
		ActorID:   " actor ",
		DomainID:  " guild-1 ",
		Group:     "welcome",
		Item:      "name",
		Key:       "welcomeNameType",
		Candidate: "nickname",
		Value:     "nickname",
		Metadata:  meta,
	}

	event := BuildSettingEvent(VerbUpdated, input)

	if event.Verb != VerbUpdated {
		t.Fatalf("expected verb %s got %s", VerbUpdated, event.Verb)
	}
	if event.ObjectType != ObjectTypeSetting || event.ObjectID != "welcome/name" {
		t.Fatalf("unexpected object fields: %+v", event)
	}
	if event.ActorID != "actor" || event.DomainID != "guild-1" {
		t.Fatalf("unexpected identity fields: %+v", event)
	}
	if event.Metadata["key"] != "welcomeNameType" || event.Metadata["value"] != "nickname" {
		t.Fatalf("expected key/value metadata, got %+v", event.Metadata)
	}
	if event.Metadata["custom"] != "value" {
		t.Fatalf("expected custom metadata preserved, got %+v", event.Metadata)
	}
	event.Metadata["custom"] = "changed"
	if meta["custom"] != "value" {
		t.Fatalf("expected input metadata untouched, got %+v", meta)
	}
	if _, ok := event.Metadata["detail"]; ok {
		t.Fatalf("expected empty detail to be omitted, got %+v", event.Metadata)
	}
}

func TestBuildSettingEventFallsBackToKeyAndType(t *testing.T) {
	event := BuildSettingEvent(VerbRead, SettingEventInput{Key: "loggingChannel"})
	if event.ObjectID != "loggingChannel" {
		t.Fatalf("expected key fallback, got %q", event.ObjectID)
	}

	event = BuildSettingEvent(VerbRead, SettingEventInput{ObjectType: ObjectTypeAction})
	if event.ObjectID != ObjectTypeAction {
		t.Fatalf("expected object type fallback, got %q", event.ObjectID)
	}
}

func TestBuildSettingEventPreservesTimestamp(t *testing.T) {
	at := time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)
	event := BuildSettingEvent(VerbRejected, SettingEventInput{Group: "chatsummary", Item: "top-users", Reason: "out-of-range", OccurredAt: at})
	if !event.OccurredAt.Equal(at) {
		t.Fatalf("expected occurred_at preserved, got %v", event.OccurredAt)
	}
	if event.Reason != "out-of-range" {
		t.Fatalf("expected reason, got %q", event.Reason)
	}
}
