package client

import (
	"fmt"
	"strings"
	"time"
)

// exportDateLayout is the ad-hoc local-time format the platform uses in
// its CSV exports.
const exportDateLayout = "2006-01-02 15:04"

// isoOffsetLayout always renders a numeric UTC offset, never "Z".
const isoOffsetLayout = "2006-01-02T15:04:05-07:00"

// eatZone is East Africa Time, a fixed UTC+3 offset. " EAT" is the only
// timezone suffix the platform's date strings are known to carry, and
// the only one this package accepts.
var eatZone = time.FixedZone("EAT", 3*60*60)

// ParseExportDate converts a date from the platform's export format
// ("2006-01-02 15:04", optionally suffixed " EAT") to an ISO-8601 string
// with a numeric UTC offset.
//
// An explicit loc always wins. With a nil loc, an " EAT" suffix selects
// UTC+3; otherwise the timezone from the login context is used, and
// ErrNoSessionData is returned when the session has not logged in. Any
// trailing token other than " EAT" is a parse error.
//
//	s.ParseExportDate("2018-06-02 04:20 EAT", nil)  // "2018-06-02T04:20:00+03:00"
func (s *Session) ParseExportDate(date string, loc *time.Location) (string, error) {
	if strings.HasSuffix(date, " EAT") {
		date = strings.TrimSuffix(date, " EAT")
		if loc == nil {
			loc = eatZone
		}
	}

	parsed, err := time.Parse(exportDateLayout, date)
	if err != nil {
		return "", fmt.Errorf("parse export date: %w", err)
	}

	if loc == nil {
		if s.login == nil {
			return "", ErrNoSessionData
		}
		loc, err = time.LoadLocation(s.login.TZ)
		if err != nil {
			return "", fmt.Errorf("login context timezone: %w", err)
		}
	}

	t := time.Date(parsed.Year(), parsed.Month(), parsed.Day(),
		parsed.Hour(), parsed.Minute(), 0, 0, loc)
	return t.Format(isoOffsetLayout), nil
}

// ToAccountTime converts an offset-aware instant into the timezone the
// logged-in account is configured with. Returns ErrNoSessionData before
// a successful Login.
func (s *Session) ToAccountTime(t time.Time) (time.Time, error) {
	if s.login == nil {
		return time.Time{}, ErrNoSessionData
	}
	loc, err := time.LoadLocation(s.login.TZ)
	if err != nil {
		return time.Time{}, fmt.Errorf("login context timezone: %w", err)
	}
	return t.In(loc), nil
}

// NormalizedMessage is the canonical shape of one exported message,
// used to produce stable per-message fingerprints for deduplication.
type NormalizedMessage struct {
	Sender string `json:"Sender"`
	// Date is POSIX seconds. Kept floating point so serialized records
	// fingerprint identically across pipeline runs and tools.
	Date    float64 `json:"Date"`
	Message string  `json:"Message"`
}

// NormalizeMessage extracts the canonical {Sender, Date, Message} form
// from one exported record. The value at dateField must be ISO-8601 with
// an offset; it is converted to UTC and reduced to whole POSIX seconds.
func NormalizeMessage(record map[string]string, senderField, dateField, messageField string) (NormalizedMessage, error) {
	t, err := time.Parse(time.RFC3339, record[dateField])
	if err != nil {
		return NormalizedMessage{}, fmt.Errorf("parse message date: %w", err)
	}
	return NormalizedMessage{
		Sender:  record[senderField],
		Date:    float64(t.UTC().Unix()),
		Message: record[messageField],
	}, nil
}
