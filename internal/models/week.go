package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

const weekLayout = "2006-01-02"

// Week identifies a meeting week by the date of its Monday.
type Week struct {
	time.Time
}

// WeekOf returns the week containing t.
func WeekOf(t time.Time) Week {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7
	return Week{Time: day.AddDate(0, 0, -offset)}
}

// ParseWeek parses a YYYY-MM-DD date and normalises it to the Monday of its week.
func ParseWeek(raw string) (Week, error) {
	t, err := time.Parse(weekLayout, raw)
	if err != nil {
		return Week{}, fmt.Errorf("invalid week %q: expected YYYY-MM-DD", raw)
	}
	return WeekOf(t), nil
}

// String renders the week as YYYY-MM-DD.
func (w Week) String() string {
	if w.IsZero() {
		return ""
	}
	return w.Format(weekLayout)
}

// Add returns the week n weeks later (or earlier for negative n).
func (w Week) Add(n int) Week {
	return Week{Time: w.AddDate(0, 0, 7*n)}
}

// WeeksSince returns how many whole weeks separate other from w.
func (w Week) WeeksSince(other Week) int {
	return int(w.Sub(other.Time).Hours() / (24 * 7))
}

// Before reports whether w starts before other.
func (w Week) Before(other Week) bool {
	return w.Time.Before(other.Time)
}

// Equal reports whether both weeks are the same.
func (w Week) Equal(other Week) bool {
	return w.Time.Equal(other.Time)
}

// MarshalJSON encodes the week as a date string.
func (w Week) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.String())
}

// UnmarshalJSON decodes a date string.
func (w *Week) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == "" {
		*w = Week{}
		return nil
	}
	parsed, err := ParseWeek(raw)
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}

// Value stores the week as a DATE.
func (w Week) Value() (driver.Value, error) {
	if w.IsZero() {
		return nil, nil
	}
	return w.String(), nil
}

// Scan reads DATE columns.
func (w *Week) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*w = Week{}
		return nil
	case time.Time:
		*w = WeekOf(v)
		return nil
	case []byte:
		return w.scanString(string(v))
	case string:
		return w.scanString(v)
	default:
		return fmt.Errorf("unsupported type %T for Week", value)
	}
}

func (w *Week) scanString(raw string) error {
	if len(raw) > len(weekLayout) {
		raw = raw[:len(weekLayout)]
	}
	parsed, err := ParseWeek(raw)
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}
