package state

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	settings "github.com/mldkyt/go-settings"
)

var (
	// ErrClosed is returned by stores used after Close.
	ErrClosed = errors.New("state: store closed")
	// ErrInvalidRef is returned for refs with an empty or malformed part.
	ErrInvalidRef = errors.New("state: invalid ref")
	// ErrUnknownDriver is returned by Open for unsupported drivers.
	ErrUnknownDriver = errors.New("state: unknown driver")
)

// Ref identifies one stored value.
type Ref struct {
	Domain string
	Key    string
}

// Identifier returns the canonical "<domain>/<key>" storage key. Domains may
// not contain a slash so that per-domain prefix scans stay unambiguous.
func (r Ref) Identifier() (string, error) {
	if r.Domain == "" {
		return "", fmt.Errorf("%w: domain is required", ErrInvalidRef)
	}
	if r.Key == "" {
		return "", fmt.Errorf("%w: key is required", ErrInvalidRef)
	}
	if strings.Contains(r.Domain, "/") {
		return "", fmt.Errorf("%w: domain %q contains '/'", ErrInvalidRef, r.Domain)
	}
	return r.Domain + "/" + r.Key, nil
}

// Driver names a store implementation.
type Driver string

const (
	DriverMemory Driver = "memory"
	DriverSQLite Driver = "sqlite"
	DriverBadger Driver = "badger"
)

// Config selects and configures a store.
type Config struct {
	Driver Driver
	// Path is the SQLite file or the Badger directory. ":memory:" (sqlite) or
	// an empty path (badger) keeps the data in memory.
	Path   string
	Logger *slog.Logger
}

// Store is a settings.Store that owns resources.
type Store interface {
	settings.Store
	io.Closer
}

// Open constructs the store named by cfg.Driver.
func Open(cfg Config) (Store, error) {
	switch cfg.Driver {
	case DriverMemory, "":
		return NewMemoryStore(), nil
	case DriverSQLite:
		return NewSQLiteStore(cfg.Path)
	case DriverBadger:
		return NewBadgerStore(BadgerConfig{Dir: cfg.Path, InMemory: cfg.Path == "", Logger: cfg.Logger})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
