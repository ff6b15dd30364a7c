// Package store persists the desk state as an opaque, versioned blob and
// restores it fail-closed: a snapshot that does not decode and validate is
// discarded in favour of a fresh state.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/papertrade/state"
	"go.uber.org/zap"
)

var (
	ErrNotFound = errors.New("snapshot not found")
	ErrCorrupt  = errors.New("corrupt snapshot")
)

// Store holds a single snapshot blob.
type Store interface {
	Get(ctx context.Context) ([]byte, error)
	Put(ctx context.Context, blob []byte) error
	Close() error
}

const snapshotVersion = 1

type envelope struct {
	Version int             `json:"version"`
	SavedAt time.Time       `json:"savedAt"`
	State   json.RawMessage `json:"state"`
}

// Encode serializes s into a snapshot blob.
func Encode(s state.State, now time.Time) ([]byte, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return json.Marshal(envelope{Version: snapshotVersion, SavedAt: now.UTC(), State: raw})
}

// Decode restores a snapshot on top of base, so fields missing from older
// snapshots keep base's defaults. The result must pass state.Validate.
func Decode(blob []byte, base state.State) (state.State, error) {
	var env envelope
	if err := json.Unmarshal(blob, &env); err != nil {
		return state.State{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if env.Version != snapshotVersion {
		return state.State{}, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, env.Version)
	}
	if len(bytes.TrimSpace(env.State)) == 0 || bytes.Equal(bytes.TrimSpace(env.State), []byte("null")) {
		return state.State{}, fmt.Errorf("%w: empty state", ErrCorrupt)
	}

	out := base
	// base's positions map must not be shared with the decoded result.
	out.Account = base.Account.Clone()
	if err := json.Unmarshal(env.State, &out); err != nil {
		return state.State{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if out.Account.Positions == nil {
		out.Account.Positions = base.Account.Clone().Positions
	}
	if err := out.Validate(); err != nil {
		return state.State{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return out, nil
}

// Save encodes s and writes it to st.
func Save(ctx context.Context, st Store, s state.State, now time.Time) error {
	blob, err := Encode(s, now)
	if err != nil {
		return err
	}
	if err := st.Put(ctx, blob); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// LoadOrInit restores the stored snapshot, or returns fresh when there is
// none or it cannot be trusted. Only storage I/O failures are returned as
// errors; a corrupt snapshot is logged and replaced.
func LoadOrInit(ctx context.Context, st Store, fresh state.State, log *zap.Logger) (state.State, error) {
	if log == nil {
		log = zap.NewNop()
	}

	blob, err := st.Get(ctx)
	if errors.Is(err, ErrNotFound) {
		log.Info("no snapshot found, starting fresh")
		return fresh, nil
	}
	if err != nil {
		return fresh, fmt.Errorf("load snapshot: %w", err)
	}

	s, err := Decode(blob, fresh)
	if err != nil {
		log.Warn("rejecting snapshot, starting fresh", zap.Error(err), zap.Int("bytes", len(blob)))
		return fresh, nil
	}

	log.Info("snapshot restored",
		zap.String("symbol", s.Symbol),
		zap.Int("orders", len(s.Orders)),
		zap.Int("trades", len(s.Trades)),
		zap.Float64("cash", s.Account.Cash),
	)
	return s, nil
}
