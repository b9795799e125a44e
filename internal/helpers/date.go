package helpers

import (
	"fmt"
	"time"
)

var germanWeekdays = [...]string{
	time.Sunday:    "Sonntag",
	time.Monday:    "Montag",
	time.Tuesday:   "Dienstag",
	time.Wednesday: "Mittwoch",
	time.Thursday:  "Donnerstag",
	time.Friday:    "Freitag",
	time.Saturday:  "Samstag",
}

var germanMonths = [...]string{
	time.January:   "Januar",
	time.February:  "Februar",
	time.March:     "März",
	time.April:     "April",
	time.May:       "Mai",
	time.June:      "Juni",
	time.July:      "Juli",
	time.August:    "August",
	time.September: "September",
	time.October:   "Oktober",
	time.November:  "November",
	time.December:  "Dezember",
}

// BerlinDate renders t as "Montag, 5. Januar 2026" in the brand's home
// zone. Prompt text and Slack headers share this format.
func BerlinDate(t time.Time) string {
	if loc, err := time.LoadLocation("Europe/Berlin"); err == nil {
		t = t.In(loc)
	}
	return fmt.Sprintf("%s, %d. %s %d",
		germanWeekdays[t.Weekday()], t.Day(), germanMonths[t.Month()], t.Year())
}
