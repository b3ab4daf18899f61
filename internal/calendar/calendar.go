package calendar

import (
	"fmt"
	"time"
)

// MinuteOfDay is a civil time-of-day expressed as minutes since midnight.
type MinuteOfDay int

// Segment describes one exchange's trading window in the shared civil
// timezone. The window applies on every weekday in Weekdays.
type Segment struct {
	Name     string
	Exchange string
	Start    MinuteOfDay // Inclusive
	End      MinuteOfDay // Inclusive
	Weekdays map[time.Weekday]bool
}

// Holiday closes the listed exchanges for one civil date.
type Holiday struct {
	Date      string // YYYY-MM-DD in the shared civil timezone
	Exchanges []string
	Name      string
}

// Calendar holds the static trading-hours tables for every segment.
type Calendar struct {
	segments []Segment
	byCode   map[string]int // Exchange code -> index into segments
	holidays map[string][]Holiday
	loc      *time.Location
}

// Status describes the trading state of one exchange at an instant.
type Status struct {
	Open     bool
	Message  string
	NextOpen string // Human description; empty while open
}

// New builds a Calendar. Nil segments/holidays use the built-in tables.
func New(segments []Segment, holidays []Holiday) *Calendar {
	if segments == nil {
		segments = DefaultSegments()
	}
	if holidays == nil {
		holidays = DefaultHolidays()
	}
	c := &Calendar{
		segments: segments,
		byCode:   make(map[string]int, len(segments)),
		holidays: make(map[string][]Holiday),
		loc:      civilLocation(),
	}
	for i, seg := range segments {
		c.byCode[seg.Exchange] = i
	}
	for _, h := range holidays {
		c.holidays[h.Date] = append(c.holidays[h.Date], h)
	}
	return c
}

// IsOpen reports whether the exchange is trading at now: not a holiday,
// weekday in the segment's trading set, and time-of-day within the
// segment's window (inclusive on both ends). Unknown exchange codes use
// the first configured segment's hours.
func (c *Calendar) IsOpen(exchangeCode string, now time.Time) bool {
	seg := c.segment(exchangeCode)
	local := now.In(c.loc)

	if c.isHoliday(exchangeCode, local) {
		return false
	}
	if !seg.Weekdays[local.Weekday()] {
		return false
	}
	tod := MinuteOfDay(local.Hour()*60 + local.Minute())
	return tod >= seg.Start && tod <= seg.End
}

// NextOpen describes when the exchange next opens. On holidays it returns
// a generic pointer at the holiday calendar instead of computing through
// consecutive holidays. The walk is bounded to a week.
func (c *Calendar) NextOpen(exchangeCode string, now time.Time) string {
	seg := c.segment(exchangeCode)
	local := now.In(c.loc)

	if c.isHoliday(exchangeCode, local) {
		return "check the holiday calendar for the next trading day"
	}

	tod := MinuteOfDay(local.Hour()*60 + local.Minute())
	if seg.Weekdays[local.Weekday()] && tod < seg.Start {
		return fmt.Sprintf("opens at %s IST", formatMinute(seg.Start))
	}

	day := local.Weekday()
	for i := 0; i < 7; i++ {
		day = (day + 1) % 7
		if seg.Weekdays[day] {
			return fmt.Sprintf("opens on %s at %s IST", day, formatMinute(seg.Start))
		}
	}
	return "no trading days configured"
}

// Status combines IsOpen and NextOpen into one report for display.
func (c *Calendar) Status(exchangeCode string, now time.Time) Status {
	seg := c.segment(exchangeCode)
	local := now.In(c.loc)

	if c.IsOpen(exchangeCode, now) {
		return Status{Open: true, Message: seg.Name + " open"}
	}
	if h, ok := c.holidayFor(exchangeCode, local); ok {
		return Status{
			Open:     false,
			Message:  "closed (" + h.Name + ")",
			NextOpen: c.NextOpen(exchangeCode, now),
		}
	}
	return Status{Open: false, Message: "closed", NextOpen: c.NextOpen(exchangeCode, now)}
}

// segment returns the table entry for a code, degrading to the first
// configured segment for unknown codes.
func (c *Calendar) segment(exchangeCode string) Segment {
	if i, ok := c.byCode[exchangeCode]; ok {
		return c.segments[i]
	}
	return c.segments[0]
}

func (c *Calendar) isHoliday(exchangeCode string, local time.Time) bool {
	_, ok := c.holidayFor(exchangeCode, local)
	return ok
}

func (c *Calendar) holidayFor(exchangeCode string, local time.Time) (Holiday, bool) {
	date := local.Format("2006-01-02")
	for _, h := range c.holidays[date] {
		for _, exc := range h.Exchanges {
			if exc == exchangeCode {
				return h, true
			}
		}
	}
	return Holiday{}, false
}

func formatMinute(m MinuteOfDay) string {
	return fmt.Sprintf("%02d:%02d", int(m)/60, int(m)%60)
}

// civilLocation resolves the shared civil timezone. Falls back to a fixed
// UTC+05:30 zone when the tz database is unavailable.
func civilLocation() *time.Location {
	if loc, err := time.LoadLocation("Asia/Kolkata"); err == nil {
		return loc
	}
	return time.FixedZone("IST", 5*3600+30*60)
}
