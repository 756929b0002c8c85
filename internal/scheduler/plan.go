package scheduler

import (
	"fmt"
	"strings"
	"time"

	"github.com/brynix/brynixbot/internal/sheets"
)

// Meta keys read from the Dados_Projeto tab.
const (
	MetaProjectName = "ProjectName"
	MetaTimezone    = "Timezone"
	MetaDaily       = "DailyReminderTime"
	MetaWeekly      = "WeeklyWrap"
	MetaQuietHours  = "QuietHours"
	MetaTTS         = "TTS_Enabled"

	DefaultDaily  = "09:00"
	DefaultWeekly = "FRI 17:30"
)

// QuietHours is a daily window, in minutes since midnight, during which no
// digest is sent. Both ends are inclusive; Start > End wraps past midnight.
type QuietHours struct {
	Start, End int
}

// ParseQuietHours reads "20:00-08:00" (en dash accepted). Blank input returns nil.
func ParseQuietHours(s string) (*QuietHours, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, "–", "-"))
	if s == "" {
		return nil, nil
	}
	from, to, ok := strings.Cut(s, "-")
	if !ok {
		return nil, fmt.Errorf("invalid quiet hours %q", s)
	}
	sh, sm, err := ParseClock(from)
	if err != nil {
		return nil, err
	}
	eh, em, err := ParseClock(to)
	if err != nil {
		return nil, err
	}
	return &QuietHours{Start: sh*60 + sm, End: eh*60 + em}, nil
}

// Contains reports whether t's wall clock falls in the window.
func (q *QuietHours) Contains(t time.Time) bool {
	if q == nil {
		return false
	}
	m := t.Hour()*60 + t.Minute()
	if q.Start < q.End {
		return m >= q.Start && m <= q.End
	}
	return m >= q.Start || m <= q.End
}

// Plan is one project's digest schedule.
type Plan struct {
	Project  string
	Location *time.Location
	Daily    *CronExpr
	Weekly   *CronExpr
	Quiet    *QuietHours
	TTS      bool
}

// PlanFromMeta builds a plan from spreadsheet meta. Invalid entries fall
// back to the defaults and are reported in the returned warnings.
func PlanFromMeta(meta sheets.Meta, project, defaultTZ string) (Plan, []error) {
	var warns []error
	p := Plan{
		Project: meta.Get(MetaProjectName, project),
		TTS:     meta.Bool(MetaTTS),
	}

	tz := meta.Get(MetaTimezone, defaultTZ)
	loc, err := time.LoadLocation(tz)
	if err != nil {
		warns = append(warns, fmt.Errorf("timezone %q: %w", tz, err))
		loc, err = time.LoadLocation(defaultTZ)
		if err != nil {
			loc = time.UTC
		}
	}
	p.Location = loc

	if p.Daily, err = Daily(meta.Get(MetaDaily, DefaultDaily)); err != nil {
		warns = append(warns, fmt.Errorf("daily: %w", err))
		p.Daily, _ = Daily(DefaultDaily)
	}
	if p.Weekly, err = Weekly(meta.Get(MetaWeekly, DefaultWeekly)); err != nil {
		warns = append(warns, fmt.Errorf("weekly: %w", err))
		p.Weekly, _ = Weekly(DefaultWeekly)
	}
	if p.Quiet, err = ParseQuietHours(meta.Get(MetaQuietHours, "")); err != nil {
		warns = append(warns, fmt.Errorf("quiet hours: %w", err))
	}
	return p, warns
}

// NextDaily and NextWeekly return the next firing after now, in the plan's zone.
func (p Plan) NextDaily(now time.Time) time.Time  { return p.Daily.Next(now.In(p.Location)) }
func (p Plan) NextWeekly(now time.Time) time.Time { return p.Weekly.Next(now.In(p.Location)) }
