package analyzer

import (
	"fmt"
	"time"
)

// SessionTimezone is the exchange session clock all time windows are pinned to.
const SessionTimezone = "America/Chicago"

// Window is one named intraday clock interval. Membership is half-open:
// start <= ts < end, so an observation at exactly the boundary belongs to the
// next window, never both. Start and End are minutes from midnight on the
// session clock.
type Window struct {
	Label string
	Start int
	End   int
}

// SessionWindows partitions the 08:30-15:00 session into 16 windows:
// 15-minute resolution around the open and close, 30-minute midday.
var SessionWindows = []Window{
	{"08:30-08:45", 510, 525},
	{"08:45-09:00", 525, 540},
	{"09:00-09:15", 540, 555},
	{"09:15-09:30", 555, 570},
	{"09:30-10:00", 570, 600},
	{"10:00-10:30", 600, 630},
	{"10:30-11:00", 630, 660},
	{"11:00-11:30", 660, 690},
	{"11:30-12:00", 690, 720},
	{"12:00-12:30", 720, 750},
	{"12:30-13:00", 750, 780},
	{"13:00-13:30", 780, 810},
	{"13:30-14:00", 810, 840},
	{"14:00-14:30", 840, 870},
	{"14:30-14:45", 870, 885},
	{"14:45-15:00", 885, 900},
}

// SessionLocation loads the session timezone.
func SessionLocation() (*time.Location, error) {
	loc, err := time.LoadLocation(SessionTimezone)
	if err != nil {
		return nil, fmt.Errorf("load session timezone: %w", err)
	}
	return loc, nil
}

// WindowFor maps a session-local timestamp to its window. The date part is
// ignored; only the clock time matters. Returns false outside the session.
func WindowFor(ts time.Time) (Window, bool) {
	minute := ts.Hour()*60 + ts.Minute()
	for _, w := range SessionWindows {
		if minute >= w.Start && minute < w.End {
			return w, true
		}
	}
	return Window{}, false
}
