// Package model defines the persisted time-tracking document: work
// sessions with nested sub-activities, user settings, and the helpers
// for deriving and matching calendar dates.
package model

import (
	"errors"
	"time"
)

// DateLayout is the calendar-date form used as the query key for sessions.
const DateLayout = "2006-01-02"

// ErrBadTimestamp means a millisecond timestamp cannot be converted to a
// calendar date in YYYY-MM-DD form.
var ErrBadTimestamp = errors.New("timestamp not convertible to a calendar date")

// SubActivity is a named interval nested inside a work session.
// A nil EndTime means the activity is still running.
type SubActivity struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	StartTime int64  `json:"startTime"`
	EndTime   *int64 `json:"endTime"`
}

// Open reports whether the sub-activity has no end time yet.
func (a SubActivity) Open() bool {
	return a.EndTime == nil
}

// WorkSession is a top-level tracked interval. Date is derived from
// StartTime at creation and never changes afterward, even if the session
// spans midnight.
type WorkSession struct {
	ID            string        `json:"id"`
	StartTime     int64         `json:"startTime"`
	EndTime       *int64        `json:"endTime"`
	Date          string        `json:"date"`
	SubActivities []SubActivity `json:"subActivities"`
	Note          string        `json:"note,omitempty"`
}

// Open reports whether the session has no end time yet.
func (s WorkSession) Open() bool {
	return s.EndTime == nil
}

// InISOWeek reports whether the session's date falls in the given ISO-8601
// week-numbering year and week. Sessions whose date does not parse are
// never a match. Note the week-year can differ from the calendar year at
// year boundaries (Dec 31 may belong to week 1 of the next ISO year).
func (s WorkSession) InISOWeek(year, week int) bool {
	d, err := time.Parse(DateLayout, s.Date)
	if err != nil {
		return false
	}
	y, w := d.ISOWeek()
	return y == year && w == week
}

// AppSettings is opaque to the session lifecycle and passed through
// unchanged by every operation that touches sessions.
type AppSettings struct {
	WeeklyHoursTarget int    `json:"weeklyHoursTarget"`
	UserName          string `json:"userName"`
}

// AppData is the whole persisted document, the unit of load and save.
type AppData struct {
	Sessions []WorkSession `json:"sessions"`
	Settings AppSettings   `json:"settings"`
}

// DefaultSettings returns the settings used when no document exists yet.
func DefaultSettings() AppSettings {
	return AppSettings{
		WeeklyHoursTarget: 40,
		UserName:          "User",
	}
}

// DefaultAppData returns the empty document substituted for a missing or
// unreadable file.
func DefaultAppData() AppData {
	return AppData{
		Sessions: []WorkSession{},
		Settings: DefaultSettings(),
	}
}

// DateOfMillis converts a millisecond epoch timestamp to its UTC calendar
// date in YYYY-MM-DD form. It returns ErrBadTimestamp when the instant
// falls outside the range printable in that form.
func DateOfMillis(ms int64) (string, error) {
	t := time.UnixMilli(ms).UTC()
	if t.Year() < 1 || t.Year() > 9999 {
		return "", ErrBadTimestamp
	}
	return t.Format(DateLayout), nil
}
