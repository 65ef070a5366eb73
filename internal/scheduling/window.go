package scheduling

import (
	"errors"
	"fmt"
	"time"
)

// TimeWindow is a half-open interval [Start, End) on a single date.
// Windows that merely touch at a boundary do not overlap.
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// NewTimeWindow builds a window pinned to the given date, taking only the
// clock time from start and end.
func NewTimeWindow(date, start, end time.Time) TimeWindow {
	return TimeWindow{
		Start: pinToDate(date, start),
		End:   pinToDate(date, end),
	}
}

// Validate rejects windows whose end does not come strictly after the start.
func (w TimeWindow) Validate() error {
	if !w.End.After(w.Start) {
		return errors.New("window end must be after start")
	}
	return nil
}

// Overlaps is the single half-open interval test: s < otherEnd AND e > otherStart.
// It covers start-during, end-during and fully-encompassing in one clause.
func (w TimeWindow) Overlaps(other TimeWindow) bool {
	return w.Start.Before(other.End) && w.End.After(other.Start)
}

// SlotKey renders the window as the "HH:MM-HH:MM" key used by the
// vehicle-availability slot-load map.
func (w TimeWindow) SlotKey() string {
	return fmt.Sprintf("%s-%s", w.Start.Format("15:04"), w.End.Format("15:04"))
}

func (w TimeWindow) String() string {
	return fmt.Sprintf("%s %s", w.Start.Format("2006-01-02"), w.SlotKey())
}

func pinToDate(date, clock time.Time) time.Time {
	return time.Date(
		date.Year(), date.Month(), date.Day(),
		clock.Hour(), clock.Minute(), clock.Second(), 0,
		time.UTC,
	)
}
