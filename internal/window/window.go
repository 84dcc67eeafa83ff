package window

import (
	"fmt"
	"time"
)

const (
	StartHour = 6
	EndHour   = 18

	// dateLayout is what the dashboard's date-time inputs accept.
	dateLayout = "2006-01-02"
	timeLayout = "2006-01-02 15:04"
)

// Window is the reporting interval for one run.
type Window struct {
	DateKey string
	Start   time.Time
	End     time.Time
}

// Today returns the 06:00–18:00 window of the calendar day that now falls on in loc.
func Today(now time.Time, loc *time.Location) Window {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	year, month, day := local.Date()

	return Window{
		DateKey: local.Format(dateLayout),
		Start:   time.Date(year, month, day, StartHour, 0, 0, 0, loc),
		End:     time.Date(year, month, day, EndHour, 0, 0, 0, loc),
	}
}

// StartText is the start timestamp as typed into the dashboard.
func (w Window) StartText() string {
	return w.Start.Format(timeLayout)
}

// EndText is the end timestamp as typed into the dashboard.
func (w Window) EndText() string {
	return w.End.Format(timeLayout)
}

// Label is the window label used in mail subjects.
func (w Window) Label() string {
	return fmt.Sprintf("ช่วง%02d00ถึง%02d00", StartHour, EndHour)
}

// Range is a human-readable "06:00 - 18:00" span.
func (w Window) Range() string {
	return fmt.Sprintf("%s - %s", w.Start.Format("15:04"), w.End.Format("15:04"))
}

// LoadLocation resolves an IANA zone name, falling back to UTC when it is unknown.
func LoadLocation(name string) (*time.Location, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC, fmt.Errorf("failed to load timezone %q: %w", name, err)
	}
	return loc, nil
}
