package shared

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
}

// ParseTime accepts an RFC3339 timestamp, a local timestamp without zone or
// a plain date. dateOnly reports the last case so that range ends can be
// made inclusive of the whole day.
func ParseTime(raw string) (t time.Time, dateOnly bool, err error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if t, err = time.Parse(layout, raw); err == nil {
			return t, false, nil
		}
	}
	for _, layout := range []string{dateLayout, "2006/01/02"} {
		if t, err = time.Parse(layout, raw); err == nil {
			return t, true, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("invalid date or time %q", raw)
}

// Timestamp is a time.Time that unmarshals from any format ParseTime accepts
type Timestamp struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler
func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return nil
	}
	t, _, err := ParseTime(s)
	if err != nil {
		return err
	}
	ts.Time = t
	return nil
}

// MarshalJSON implements json.Marshaler
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	return ts.Time.MarshalJSON()
}
