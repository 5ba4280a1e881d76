package settings

import "context"

// Store persists raw string values keyed by (owning domain, persistence key).
//
// Encoding is owned by the kinds: the store never interprets values. Get
// reports absence with ok == false; an error always means the store itself
// failed and is never read as "not set".
type Store interface {
	Get(ctx context.Context, domain, key string) (value string, ok bool, err error)
	Set(ctx context.Context, domain, key, value string) error
	Delete(ctx context.Context, domain, key string) error
}
