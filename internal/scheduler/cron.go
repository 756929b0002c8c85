// Package scheduler sends the daily and weekly project digests to linked
// groups. Each project's timing comes from its spreadsheet meta and is
// matched minute by minute with cron expressions.
package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CronExpr is a parsed 5-field cron expression. Each field is a bitset of
// the values it allows.
type CronExpr struct {
	minute, hour, dom, month, dow uint64
	src                           string
}

// field describes one column of a cron expression.
type field struct {
	name   string
	lo, hi int
	names  map[string]int
}

var weekdays = map[string]int{
	"SUN": 0, "MON": 1, "TUE": 2, "WED": 3, "THU": 4, "FRI": 5, "SAT": 6,
	"DOM": 0, "SEG": 1, "TER": 2, "QUA": 3, "QUI": 4, "SEX": 5, "SAB": 6,
}

var months = map[string]int{
	"JAN": 1, "FEB": 2, "MAR": 3, "APR": 4, "MAY": 5, "JUN": 6,
	"JUL": 7, "AUG": 8, "SEP": 9, "OCT": 10, "NOV": 11, "DEC": 12,
	"FEV": 2, "ABR": 4, "MAI": 5, "AGO": 8, "SET": 9, "OUT": 10, "DEZ": 12,
}

var cronFields = [5]field{
	{name: "minute", lo: 0, hi: 59},
	{name: "hour", lo: 0, hi: 23},
	{name: "day-of-month", lo: 1, hi: 31},
	{name: "month", lo: 1, hi: 12, names: months},
	// 7 is accepted as Sunday and folded onto 0.
	{name: "day-of-week", lo: 0, hi: 7, names: weekdays},
}

// ParseCron parses "minute hour day-of-month month day-of-week". Each field
// takes *, N, N-M, */S, N-M/S, N/S and comma lists of those. Month and
// weekday fields also take English or Portuguese three-letter names
// ("MON-FRI", "SEG,QUA,SEX").
func ParseCron(expr string) (*CronExpr, error) {
	parts := strings.Fields(expr)
	if len(parts) != len(cronFields) {
		return nil, fmt.Errorf("cron: expected 5 fields, got %d", len(parts))
	}
	var sets [5]uint64
	for i, f := range cronFields {
		set, err := f.parse(parts[i])
		if err != nil {
			return nil, fmt.Errorf("cron: %s: %w", f.name, err)
		}
		sets[i] = set
	}
	if sets[4]&(1<<7) != 0 {
		sets[4] = sets[4]&^(1<<7) | 1
	}
	return &CronExpr{
		minute: sets[0], hour: sets[1], dom: sets[2], month: sets[3], dow: sets[4],
		src: strings.Join(parts, " "),
	}, nil
}

// String returns the normalised expression.
func (c *CronExpr) String() string { return c.src }

// Matches reports whether t's wall clock minute is allowed.
func (c *CronExpr) Matches(t time.Time) bool {
	return has(c.minute, t.Minute()) && has(c.hour, t.Hour()) && c.day(t)
}

func (c *CronExpr) day(t time.Time) bool {
	return has(c.month, int(t.Month())) && has(c.dom, t.Day()) && has(c.dow, int(t.Weekday()))
}

// Next returns the first matching minute after t, or the zero time when
// nothing matches within two years.
func (c *CronExpr) Next(t time.Time) time.Time {
	loc := t.Location()
	next := t.Truncate(time.Minute).Add(time.Minute)
	end := t.AddDate(2, 0, 0)
	for next.Before(end) {
		y, mo, d := next.Date()
		switch {
		case !has(c.month, int(mo)):
			next = time.Date(y, mo+1, 1, 0, 0, 0, 0, loc)
		case !c.day(next):
			next = time.Date(y, mo, d+1, 0, 0, 0, 0, loc)
		case !has(c.hour, next.Hour()):
			next = time.Date(y, mo, d, next.Hour()+1, 0, 0, 0, loc)
		case !has(c.minute, next.Minute()):
			next = next.Add(time.Minute)
		default:
			return next
		}
	}
	return time.Time{}
}

func (f field) parse(s string) (uint64, error) {
	var set uint64
	for _, item := range strings.Split(s, ",") {
		bits, err := f.item(item)
		if err != nil {
			return 0, err
		}
		set |= bits
	}
	return set, nil
}

// item handles one comma-separated element.
func (f field) item(s string) (uint64, error) {
	base, stepText, stepped := strings.Cut(s, "/")
	step := 1
	if stepped {
		n, err := strconv.Atoi(stepText)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid step %q", s)
		}
		step = n
	}

	lo, hi := f.lo, f.hi
	switch {
	case base == "*":
	case strings.Contains(base, "-"):
		a, b, _ := strings.Cut(base, "-")
		var err error
		if lo, err = f.value(a); err != nil {
			return 0, err
		}
		if hi, err = f.value(b); err != nil {
			return 0, err
		}
		if lo > hi {
			return 0, fmt.Errorf("range %q runs backwards", base)
		}
	default:
		v, err := f.value(base)
		if err != nil {
			return 0, err
		}
		lo = v
		// "N/S" runs from N to the end of the field; a bare "N" is just N.
		if !stepped {
			hi = v
		}
	}

	var set uint64
	for v := lo; v <= hi; v += step {
		set |= 1 << uint(v)
	}
	return set, nil
}

func (f field) value(s string) (int, error) {
	if v, ok := f.names[strings.ToUpper(s)]; ok {
		return v, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q", s)
	}
	if v < f.lo || v > f.hi {
		return 0, fmt.Errorf("value %d outside %d-%d", v, f.lo, f.hi)
	}
	return v, nil
}

func has(set uint64, v int) bool { return set&(1<<uint(v)) != 0 }

// ParseClock reads "HH:MM" (or "H") into hour and minute.
func ParseClock(hhmm string) (int, int, error) {
	hhmm = strings.TrimSpace(hhmm)
	h, m, _ := strings.Cut(hhmm, ":")
	hour, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid clock %q", hhmm)
	}
	minute := 0
	if m != "" {
		minute, err = strconv.Atoi(strings.TrimSpace(m))
		if err != nil || minute < 0 || minute > 59 {
			return 0, 0, fmt.Errorf("invalid clock %q", hhmm)
		}
	}
	return hour, minute, nil
}

// Daily reads a DailyReminderTime value: "HH:MM" for every day,
// "HH:MM SEG-SEX" to restrict the weekdays, or a full 5-field cron
// expression such as "0 9 * * 1-5".
func Daily(spec string) (*CronExpr, error) {
	fields := strings.Fields(spec)
	switch len(fields) {
	case 5:
		return ParseCron(spec)
	case 1:
		return atClock(fields[0], "*")
	case 2:
		return atClock(fields[0], fields[1])
	}
	return nil, fmt.Errorf("invalid daily spec %q", spec)
}

// Weekly reads a WeeklyWrap value: "FRI 17:30", "SEX 17:30", a day list
// such as "TER,SEX 18:00", or a full 5-field cron expression. The time
// defaults to 17:30.
func Weekly(spec string) (*CronExpr, error) {
	fields := strings.Fields(spec)
	switch len(fields) {
	case 5:
		return ParseCron(spec)
	case 1:
		return atClock("17:30", fields[0])
	case 2:
		return atClock(fields[1], fields[0])
	case 0:
		return nil, fmt.Errorf("empty weekly spec")
	}
	return nil, fmt.Errorf("invalid weekly spec %q", spec)
}

func atClock(hhmm, days string) (*CronExpr, error) {
	h, m, err := ParseClock(hhmm)
	if err != nil {
		return nil, err
	}
	return ParseCron(fmt.Sprintf("%d %d * * %s", m, h, days))
}
