package id

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Generator hands out monotonic ULIDs. IDs minted within the same millisecond
// stay lexicographically increasing, so order ids sort by entry time.
type Generator struct {
	mu   sync.Mutex
	now  func() time.Time
	mono io.Reader
}

// NewGenerator seeds a generator from crypto/rand. now defaults to time.Now.
func NewGenerator(now func() time.Time) *Generator {
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return newGenerator(now, rand.New(rand.NewSource(seed)))
}

func newGenerator(now func() time.Time, entropy io.Reader) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{now: now, mono: ulid.Monotonic(entropy, 0)}
}

// New returns the next ULID string.
func (g *Generator) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(g.now().UTC()), g.mono)
	if err != nil {
		// Only possible if the clock runs backwards past the epoch or entropy overflows.
		panic(err)
	}
	return id.String()
}

var std = NewGenerator(nil)

// New returns a ULID string from the process-wide generator.
func New() string { return std.New() }

// Time extracts the millisecond timestamp embedded in a ULID.
func Time(s string) (time.Time, error) {
	u, err := ulid.ParseStrict(s)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(u.Time()), nil
}
