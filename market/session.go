package market

import (
	"fmt"
	"strings"
	"time"
)

// Session selects which trading hours the feed should include.
type Session string

const (
	SessionRegular Session = "regular"
	// SessionPTS includes proprietary trading system (pre/post market) prints.
	SessionPTS Session = "pts"
)

// ParseSession maps anything that is not "pts" to the regular session.
func ParseSession(s string) Session {
	if strings.EqualFold(strings.TrimSpace(s), string(SessionPTS)) {
		return SessionPTS
	}
	return SessionRegular
}

// Tokyo is Japan Standard Time. Japan does not observe DST, so a fixed zone
// avoids depending on the host tz database.
var Tokyo = time.FixedZone("JST", 9*60*60)

// Window is a half-open [Start, End) range of minutes after midnight JST.
type Window struct {
	Start int
	End   int
}

// TradingSessions are the TSE morning and afternoon sessions.
var TradingSessions = []Window{
	{Start: 9 * 60, End: 11*60 + 30},
	{Start: 12*60 + 30, End: 15*60 + 30},
}

// InSession reports whether t falls inside a TSE trading session.
func InSession(t time.Time) bool {
	jst := t.In(Tokyo)
	now := jst.Hour()*60 + jst.Minute()
	for _, w := range TradingSessions {
		if now >= w.Start && now < w.End {
			return true
		}
	}
	return false
}

func (w Window) String() string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d", w.Start/60, w.Start%60, w.End/60, w.End%60)
}
