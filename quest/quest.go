// Package quest scores a desk for the kids UI: a handful of badges and an
// experience level derived read-only from state.
package quest

import (
	"fmt"
	"math"

	"github.com/rustyeddy/papertrade/state"
	"github.com/rustyeddy/papertrade/trading"
)

type Quest struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Done     bool   `json:"done"`
	Progress string `json:"progress"`
}

const (
	volumeGoal = 1000
	fillGoal   = 3
	levelStep  = 20000
	maxLevel   = 99
)

// Board evaluates every quest against s.
func Board(s state.State) []Quest {
	var volume int64
	for _, t := range s.Trades {
		volume += t.Qty
	}

	limitUsed := false
	for _, o := range s.Orders {
		if o.Kind() == trading.KindLimit {
			limitUsed = true
			break
		}
	}

	realized := s.Account.RealizedPnL
	profit := "keep going"
	if realized > 0 {
		profit = "CLEAR!"
	}

	return []Quest{
		{
			ID:       "first-order",
			Title:    "Place your first order",
			Done:     len(s.Orders) > 0,
			Progress: fmt.Sprintf("%d / 1", min(len(s.Orders), 1)),
		},
		{
			ID:       "limit-sniper",
			Title:    "Use a limit order",
			Done:     limitUsed,
			Progress: fmt.Sprintf("%d / 1", boolInt(limitUsed)),
		},
		{
			ID:       "volume-1000",
			Title:    "Trade 1,000 shares in total",
			Done:     volume >= volumeGoal,
			Progress: fmt.Sprintf("%d / %d", min(volume, volumeGoal), volumeGoal),
		},
		{
			ID:       "profit",
			Title:    "Book a realized profit",
			Done:     realized > 0,
			Progress: profit,
		},
		{
			ID:       "three-fills",
			Title:    "Collect three fills",
			Done:     len(s.Trades) >= fillGoal,
			Progress: fmt.Sprintf("%d / %d", min(len(s.Trades), fillGoal), fillGoal),
		},
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Level is the player's experience summary.
type Level struct {
	Score    int64 `json:"score"`
	Level    int64 `json:"level"`
	Progress int64 `json:"progressPct"`
	NextIn   int64 `json:"nextIn"`
	Stars    int64 `json:"stars"`
}

// Score rewards realized P&L plus open gains on the watched symbol. Open
// losses do not count against it and the score never goes below zero.
func Score(s state.State) Level {
	unrealized := 0.0
	if p, ok := s.Account.Positions[s.Symbol]; ok {
		if last, ok := s.LastPrice(); ok {
			unrealized = p.Unrealized(last)
		}
	}

	score := int64(math.Max(0, math.Round(s.Account.RealizedPnL+math.Max(0, unrealized))))
	rem := score % levelStep

	return Level{
		Score:    score,
		Level:    min(maxLevel, score/levelStep+1),
		Progress: min(100, int64(math.Round(float64(rem)/levelStep*100))),
		NextIn:   levelStep - rem,
		Stars:    min(5, max(1, score/(levelStep/2)+1)),
	}
}
