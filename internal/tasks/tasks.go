// Package tasks models project task rows read from the spreadsheet and
// derives the views the bot answers with.
package tasks

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Date is a calendar date without time of day. The zero value means the
// spreadsheet cell was empty or unparseable.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// IsZero reports whether the date is absent.
func (d Date) IsZero() bool { return d.Year == 0 }

// DateOf truncates t to its calendar date in t's location.
func DateOf(t time.Time) Date {
	y, m, dd := t.Date()
	return Date{Year: y, Month: m, Day: dd}
}

// AddDays returns the date n days later.
func (d Date) AddDays(n int) Date {
	return DateOf(time.Date(d.Year, d.Month, d.Day+n, 12, 0, 0, 0, time.UTC))
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%02d/%02d/%04d", d.Day, int(d.Month), d.Year)
}

var (
	brDate  = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4}|\d{2})$`)
	isoDate = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
)

// ParseDate reads "dd/mm/yyyy" (also "d/m/yy" and ISO "yyyy-mm-dd").
// Anything else, including impossible dates like 31/02/2024, is absent.
func ParseDate(s string) Date {
	s = strings.TrimSpace(s)
	var y, m, d int
	if g := brDate.FindStringSubmatch(s); g != nil {
		d, _ = strconv.Atoi(g[1])
		m, _ = strconv.Atoi(g[2])
		y, _ = strconv.Atoi(g[3])
		if len(g[3]) == 2 {
			y += 2000
		}
	} else if g := isoDate.FindStringSubmatch(s); g != nil {
		y, _ = strconv.Atoi(g[1])
		m, _ = strconv.Atoi(g[2])
		d, _ = strconv.Atoi(g[3])
	} else {
		return Date{}
	}
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return Date{}
	}
	t := time.Date(y, time.Month(m), d, 12, 0, 0, 0, time.UTC)
	if t.Day() != d || int(t.Month()) != m {
		return Date{}
	}
	return Date{Year: y, Month: time.Month(m), Day: d}
}

// Task is one row of the "Tarefas" sheet.
type Task struct {
	Title     string
	Priority  string
	Assignee  string
	Status    string
	Start     Date
	End       Date
	Milestone string
	Products  string
	Notes     string
}

// Valid reports whether the row carries a title. Rows without one are
// ignored everywhere.
func (t Task) Valid() bool {
	return strings.TrimSpace(t.Title) != ""
}

// Filter drops rows without a title.
func Filter(ts []Task) []Task {
	out := make([]Task, 0, len(ts))
	for _, t := range ts {
		if t.Valid() {
			out = append(out, t)
		}
	}
	return out
}
