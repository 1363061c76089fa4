package calendar

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"kulturkal/internal/model"
)

var (
	ErrUnparsableDate = errors.New("unparsable date")
	ErrUnparsableTime = errors.New("unparsable time")
)

var (
	dateRegex  = regexp.MustCompile(`^\d{2}\.\d{2}\.\d{4}$`)
	clockRegex = regexp.MustCompile(`^(\d{1,2})[:.](\d{2})$`)
)

// Clock is a time of day.
type Clock struct {
	Hour   int
	Minute int
}

// DefaultStartClock is applied to events without a start time.
var DefaultStartClock = Clock{Hour: 18}

// ParseClock parses "HH:MM", "H:MM" or "HH.MM".
func ParseClock(s string) (Clock, error) {
	m := clockRegex.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Clock{}, fmt.Errorf("%w: %q", ErrUnparsableTime, s)
	}
	h, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	if h > 23 || mm > 59 {
		return Clock{}, fmt.Errorf("%w: %q", ErrUnparsableTime, s)
	}
	return Clock{Hour: h, Minute: mm}, nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// DateFields are the raw date/time cells of one row.
type DateFields struct {
	StartDate string
	StartTime string
	EndDate   string
	EndTime   string
}

// Resolved is the outcome of resolving a row's date cells.
type Resolved struct {
	Start     time.Time
	End       time.Time
	Repeating bool
}

// Resolver turns date expressions into instants relative to Now.
type Resolver struct {
	// Now anchors weekday recurrence; its Location is used for all dates.
	Now time.Time
	// DefaultClock applies when a row has no start time.
	DefaultClock Clock
}

// NewResolver returns a Resolver anchored at now using DefaultStartClock.
func NewResolver(now time.Time) *Resolver {
	return &Resolver{Now: now, DefaultClock: DefaultStartClock}
}

// Resolve computes start and end for one row. Problems are returned as
// diagnostics; an unparsable start date leaves Start at the zero sentinel.
func (r *Resolver) Resolve(title string, f DateFields) (Resolved, []model.Diagnostic) {
	var (
		out   Resolved
		diags []model.Diagnostic
	)

	startClock := r.DefaultClock
	if strings.TrimSpace(f.StartTime) != "" {
		c, err := ParseClock(f.StartTime)
		if err != nil {
			diags = append(diags, model.Diagnostic{Kind: model.DiagBadTime, Title: title, Field: "start_time", Value: f.StartTime})
		} else {
			startClock = c
		}
	}

	day, repeating, err := r.startDay(f.StartDate)
	if err != nil {
		diags = append(diags, model.Diagnostic{Kind: model.DiagBadDate, Title: title, Field: "start_date", Value: f.StartDate})
		return out, diags
	}
	out.Start = at(day, startClock)
	out.Repeating = repeating

	if strings.TrimSpace(f.EndDate) == "" {
		return out, diags
	}
	endDay, err := r.absoluteDate(f.EndDate)
	if err != nil {
		diags = append(diags, model.Diagnostic{Kind: model.DiagBadEndDate, Title: title, Field: "end_date", Value: f.EndDate})
		return out, diags
	}
	endClock := startClock
	if strings.TrimSpace(f.EndTime) != "" {
		c, err := ParseClock(f.EndTime)
		if err != nil {
			diags = append(diags, model.Diagnostic{Kind: model.DiagBadTime, Title: title, Field: "end_time", Value: f.EndTime})
		} else {
			endClock = c
		}
	}
	if end := at(endDay, endClock); end.After(out.Start) {
		out.End = end
	}
	return out, diags
}

// startDay resolves the start-date cell to midnight of a day. The bool is
// true for weekday names.
func (r *Resolver) startDay(expr string) (time.Time, bool, error) {
	if d, err := r.absoluteDate(expr); err == nil {
		return d, false, nil
	}
	if idx, ok := WeekdayByName(strings.TrimSpace(expr)); ok {
		return r.NextWeekday(idx), true, nil
	}
	return time.Time{}, false, fmt.Errorf("%w: %q", ErrUnparsableDate, expr)
}

// absoluteDate parses strict DD.MM.YYYY in the resolver's location.
func (r *Resolver) absoluteDate(expr string) (time.Time, error) {
	expr = strings.TrimSpace(expr)
	if !dateRegex.MatchString(expr) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnparsableDate, expr)
	}
	d, err := time.ParseInLocation("02.01.2006", expr, r.location())
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrUnparsableDate, err)
	}
	return d, nil
}

// NextWeekday returns midnight of the next day on or after today whose
// Monday-first index is idx.
func (r *Resolver) NextWeekday(idx int) time.Time {
	today := midnight(r.Now)
	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   today,
		Byweekday: []rrule.Weekday{ruleDays[idx]},
	})
	if err == nil {
		if next := rule.After(today, true); !next.IsZero() {
			return midnight(next.In(today.Location()))
		}
	}
	cur := WeekdayIndex(today.Weekday())
	diff := idx - cur
	if idx < cur {
		diff += 7
	}
	return today.AddDate(0, 0, diff)
}

func (r *Resolver) location() *time.Location {
	return r.Now.Location()
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func at(day time.Time, c Clock) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), c.Hour, c.Minute, 0, 0, day.Location())
}
