package calendar

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

// Weekdays are the canonical weekday names accepted as recurring dates,
// Monday first.
var Weekdays = [7]string{"Mandag", "Tirsdag", "Onsdag", "Torsdag", "Fredag", "Lørdag", "Søndag"}

var months = [12]string{
	"januar", "februar", "mars", "april", "mai", "juni",
	"juli", "august", "september", "oktober", "november", "desember",
}

// rrule weekdays in the same Monday-first order as Weekdays.
var ruleDays = [7]rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA, rrule.SU}

// icsDays are the BYDAY codes for Weekdays.
var icsDays = [7]string{"MO", "TU", "WE", "TH", "FR", "SA", "SU"}

// WeekdayIndex converts Go's Sunday=0 numbering to Monday=0.
func WeekdayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// WeekdayByName returns the Monday-first index of an exact weekday name.
func WeekdayByName(name string) (int, bool) {
	for i, d := range Weekdays {
		if d == name {
			return i, true
		}
	}
	return 0, false
}

// MonthName is the lower-case Norwegian month name.
func MonthName(m time.Month) string {
	return months[m-1]
}

// ICSDay returns the iCalendar BYDAY code for a Go weekday.
func ICSDay(d time.Weekday) string {
	return icsDays[WeekdayIndex(d)]
}

func weekLabel(week int) string {
	return fmt.Sprintf("Uke %d", week)
}
