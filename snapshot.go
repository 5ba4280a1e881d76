package settings

import (
	"context"
	"fmt"

	"github.com/mldkyt/go-settings/internal/layering"
)

// Lookup returns the decoded value of group/item for domain, falling back to
// the default when nothing is stored. It performs no authorization and is
// meant for feature handlers that consume settings.
func (e *Engine) Lookup(ctx context.Context, domain, group, item string) (any, error) {
	s, err := e.tree.Setting(group, item)
	if err != nil {
		return nil, err
	}
	stored, ok, err := e.store.Get(ctx, domain, s.Key)
	if err != nil {
		return nil, persistenceError("get", domain, s.Key, err)
	}
	if !ok {
		stored = s.Default
	}
	value, err := s.Kind.Decode(stored)
	if err != nil {
		return nil, fmt.Errorf("%s/%s: %w", group, item, err)
	}
	return value, nil
}

// Snapshot returns every setting of domain as map[group]map[item]value, with
// stored values layered over defaults. Channel references are plain strings
// so rule expressions can compare them directly.
func (e *Engine) Snapshot(ctx context.Context, domain string) (map[string]map[string]any, error) {
	defaults := layering.Values{}
	stored := layering.Values{}
	for group, s := range e.tree.Settings() {
		def, err := snapshotValue(s, s.Default)
		if err != nil {
			return nil, fmt.Errorf("%s/%s default: %w", group, s.Name, err)
		}
		defaults.Set(group, s.Name, def)

		raw, ok, err := e.store.Get(ctx, domain, s.Key)
		if err != nil {
			return nil, persistenceError("get", domain, s.Key, err)
		}
		if !ok {
			continue
		}
		value, err := snapshotValue(s, raw)
		if err != nil {
			return nil, fmt.Errorf("%s/%s: %w", group, s.Name, err)
		}
		stored.Set(group, s.Name, value)
	}
	return layering.Merge(stored, defaults), nil
}

// Stored returns only the values explicitly stored for domain, in stored form.
func (e *Engine) Stored(ctx context.Context, domain string) (map[string]map[string]string, error) {
	out := map[string]map[string]string{}
	for group, s := range e.tree.Settings() {
		raw, ok, err := e.store.Get(ctx, domain, s.Key)
		if err != nil {
			return nil, persistenceError("get", domain, s.Key, err)
		}
		if !ok {
			continue
		}
		if out[group] == nil {
			out[group] = map[string]string{}
		}
		out[group][s.Name] = raw
	}
	return out, nil
}

func snapshotValue(s *Setting, raw string) (any, error) {
	value, err := s.Kind.Decode(raw)
	if err != nil {
		return nil, err
	}
	if id, ok := value.(ChannelID); ok {
		return string(id), nil
	}
	return value, nil
}
