package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/dgraph-io/badger/v3"
	settings "github.com/mldkyt/go-settings"
)

var _ settings.Store = (*BadgerStore)(nil)

const badgerKeyPrefix = "settings/"

// BadgerConfig configures a BadgerStore.
type BadgerConfig struct {
	Dir      string
	InMemory bool
	// SyncWrites fsyncs every write. Settings writes are rare, so it is cheap.
	SyncWrites bool
	Logger     *slog.Logger
}

// BadgerStore keeps one key per (domain, key) pair under the "settings/"
// prefix.
type BadgerStore struct {
	db     *badger.DB
	closed atomic.Bool
}

// NewBadgerStore opens the database at cfg.Dir, or in memory.
func NewBadgerStore(cfg BadgerConfig) (*BadgerStore, error) {
	if cfg.Dir == "" && !cfg.InMemory {
		return nil, fmt.Errorf("state: badger dir is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	opts := badger.DefaultOptions(cfg.Dir)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites)
	opts.Logger = &badgerLogger{logger: logger}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("state: badger open: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func badgerKey(domain, key string) ([]byte, error) {
	id, err := Ref{Domain: domain, Key: key}.Identifier()
	if err != nil {
		return nil, err
	}
	return []byte(badgerKeyPrefix + id), nil
}

func (s *BadgerStore) Get(_ context.Context, domain, key string) (string, bool, error) {
	k, err := badgerKey(domain, key)
	if err != nil {
		return "", false, err
	}
	if s.closed.Load() {
		return "", false, ErrClosed
	}

	var value []byte
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(k)
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("state: badger get: %w", err)
	}
	return string(value), true, nil
}

func (s *BadgerStore) Set(_ context.Context, domain, key, value string) error {
	k, err := badgerKey(domain, key)
	if err != nil {
		return err
	}
	if s.closed.Load() {
		return ErrClosed
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(k, []byte(value))
	})
	if err != nil {
		return fmt.Errorf("state: badger set: %w", err)
	}
	return nil
}

func (s *BadgerStore) Delete(_ context.Context, domain, key string) error {
	k, err := badgerKey(domain, key)
	if err != nil {
		return err
	}
	if s.closed.Load() {
		return ErrClosed
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(k)
	})
	if err != nil {
		return fmt.Errorf("state: badger delete: %w", err)
	}
	return nil
}

// Domain returns every value stored for domain, keyed by persistence key.
func (s *BadgerStore) Domain(_ context.Context, domain string) (map[string]string, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	prefix := []byte(badgerKeyPrefix + domain + "/")
	out := map[string]string{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			out[string(item.Key()[len(prefix):])] = string(value)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("state: badger scan: %w", err)
	}
	return out, nil
}

// GC reclaims value-log space until badger reports nothing left to rewrite.
// It returns the number of rewritten log files.
func (s *BadgerStore) GC(discardRatio float64) (int, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}
	rewritten := 0
	for {
		err := s.db.RunValueLogGC(discardRatio)
		switch {
		case err == nil:
			rewritten++
		case errors.Is(err, badger.ErrNoRewrite), errors.Is(err, badger.ErrGCInMemoryMode):
			return rewritten, nil
		default:
			return rewritten, fmt.Errorf("state: badger gc: %w", err)
		}
	}
}

func (s *BadgerStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
