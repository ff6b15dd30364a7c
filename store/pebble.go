package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
)

// PebbleStore keeps one snapshot per desk name in a Pebble database.
type PebbleStore struct {
	db  *pebble.DB
	key []byte
}

func NewPebbleStore(path, name string) (*PebbleStore, error) {
	if name == "" {
		name = "default"
	}
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open pebble: %w", err)
	}
	return &PebbleStore{db: db, key: snapshotKey(name)}, nil
}

// keys: s:<desk name>
func snapshotKey(name string) []byte { return append([]byte("s:"), name...) }

func (s *PebbleStore) Get(ctx context.Context) ([]byte, error) {
	val, closer, err := s.db.Get(s.key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	defer closer.Close()

	// val is only valid until closer.Close
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (s *PebbleStore) Put(ctx context.Context, blob []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Set(s.key, blob, pebble.Sync)
}

// Delete drops the snapshot so the next load starts fresh.
func (s *PebbleStore) Delete(ctx context.Context) error {
	return s.db.Delete(s.key, pebble.Sync)
}

func (s *PebbleStore) Close() error { return s.db.Close() }
