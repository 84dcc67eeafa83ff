package config

import (
	"time"

	"dtc_dms_report/internal/wait"
)

// Timing collects every wait the run performs against the dashboard.
type Timing struct {
	// Operation bounds each individual browser command.
	Operation time.Duration
	// Strategy bounds a single fallback attempt so a missing element does
	// not consume the whole operation budget before the next strategy runs.
	Strategy time.Duration

	LoginSettle  time.Duration
	MenuSettle   time.Duration
	ReportSettle time.Duration
	SearchSettle time.Duration
	KeySettle    time.Duration

	OptionPoll   wait.Config
	DownloadPoll wait.Config

	Run time.Duration
}

var DefaultTiming = Timing{
	Operation:    60 * time.Second,
	Strategy:     10 * time.Second,
	LoginSettle:  30 * time.Second,
	MenuSettle:   2 * time.Second,
	ReportSettle: 5 * time.Second,
	SearchSettle: 5 * time.Second,
	KeySettle:    500 * time.Millisecond,
	OptionPoll: wait.Config{
		Interval:    250 * time.Millisecond,
		MaxInterval: 2 * time.Second,
		Timeout:     10 * time.Second,
	},
	DownloadPoll: wait.Config{
		Interval:    500 * time.Millisecond,
		MaxInterval: 2 * time.Second,
		Timeout:     15 * time.Second,
	},
	Run: 15 * time.Minute,
}

// FastTiming keeps every settle short; used by tests driving fake pages.
var FastTiming = Timing{
	Operation:    2 * time.Second,
	Strategy:     200 * time.Millisecond,
	LoginSettle:  0,
	MenuSettle:   0,
	ReportSettle: 0,
	SearchSettle: 0,
	KeySettle:    0,
	OptionPoll: wait.Config{
		Interval:    5 * time.Millisecond,
		MaxInterval: 20 * time.Millisecond,
		Timeout:     100 * time.Millisecond,
	},
	DownloadPoll: wait.Config{
		Interval:    5 * time.Millisecond,
		MaxInterval: 20 * time.Millisecond,
		Timeout:     200 * time.Millisecond,
	},
	Run: 30 * time.Second,
}
