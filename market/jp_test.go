package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSnapToTick(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		price float64
		want  float64
	}{
		{"sub-1000 rounds to 0.1", 999.94, 999.9},
		{"sub-1000 rounds up", 512.36, 512.4},
		{"1000 band", 1234.4, 1234},
		{"1000 band rounds half up", 1234.5, 1235},
		{"5000 band", 5002, 5000},
		{"5000 band up", 5003, 5005},
		{"30000 band", 30004, 30000},
		{"30000 band up", 30006, 30010},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, SnapToTick(tt.price), 1e-9)
		})
	}
}

func TestEnforceLot(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int64(100), EnforceLot(150, false))
	assert.Equal(t, int64(0), EnforceLot(99, false))
	assert.Equal(t, int64(1200), EnforceLot(1200, false))
	assert.Equal(t, int64(150), EnforceLot(150, true))
	assert.Equal(t, int64(0), EnforceLot(-5, true))
}

func TestInSession(t *testing.T) {
	t.Parallel()

	at := func(h, m int) time.Time {
		return time.Date(2024, 3, 15, h, m, 0, 0, Tokyo)
	}

	assert.False(t, InSession(at(8, 59)))
	assert.True(t, InSession(at(9, 0)))
	assert.True(t, InSession(at(11, 29)))
	assert.False(t, InSession(at(11, 30)))
	assert.False(t, InSession(at(12, 0)))
	assert.True(t, InSession(at(12, 30)))
	assert.True(t, InSession(at(15, 29)))
	assert.False(t, InSession(at(15, 30)))

	// 01:00 UTC is 10:00 JST
	assert.True(t, InSession(time.Date(2024, 3, 15, 1, 0, 0, 0, time.UTC)))
}

func TestParseSession(t *testing.T) {
	t.Parallel()

	assert.Equal(t, SessionPTS, ParseSession("pts"))
	assert.Equal(t, SessionPTS, ParseSession(" PTS "))
	assert.Equal(t, SessionRegular, ParseSession(""))
	assert.Equal(t, SessionRegular, ParseSession("after-hours"))
}
