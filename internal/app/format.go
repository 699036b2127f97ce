package app

import "time"

// FormatTime renders t with only the precision that differs from now.
// Both times are compared in UTC.
func FormatTime(t, now time.Time) string {
	t, now = t.UTC(), now.UTC()
	switch {
	case t.Year() != now.Year():
		return t.Format("2006-01-02")
	case t.Month() != now.Month():
		return t.Format("01-02")
	case t.Day() != now.Day():
		return t.Format("02 15:04")
	case t.Hour() != now.Hour():
		return t.Format("15:04")
	default:
		return t.Format("15:04:05.000")
	}
}
