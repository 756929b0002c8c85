package bot

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/brynix/brynixbot/internal/activity"
)

// RecentLimit caps each recent-activity section of the summary.
const RecentLimit = 5

var recentSections = []struct {
	kind  activity.Kind
	title string
}{
	{activity.KindNote, "📝 *Últimas notas*"},
	{activity.KindDoc, "📎 *Docs recentes*"},
}

// recent renders the latest notes and documents journaled for chatID, or ""
// when there are none or the journal cannot be read.
func (r *Router) recent(ctx context.Context, chatID string) string {
	if r.journal == nil {
		return ""
	}
	var b strings.Builder
	for _, sec := range recentSections {
		entries, err := r.journal.List(ctx, activity.Filter{ChatID: chatID, Kind: sec.kind, Limit: RecentLimit})
		if err != nil {
			r.log.Warn().Err(err).Str("chat", chatID).Msg("list activity failed")
			return ""
		}
		if len(entries) == 0 {
			continue
		}
		b.WriteString("\n\n" + sec.title)
		for _, e := range entries {
			line := e.Text
			if e.Link != "" && !strings.Contains(line, e.Link) {
				line += " 🔗 " + e.Link
			}
			b.WriteString("\n• " + line)
		}
	}
	return b.String()
}

// counts renders how many notes, documents and reminders the group has on
// record, or "" when there are none.
func (r *Router) counts(ctx context.Context, chatID string) string {
	if r.journal == nil {
		return ""
	}
	entries, err := r.journal.List(ctx, activity.Filter{ChatID: chatID})
	if err != nil {
		r.log.Warn().Err(err).Str("chat", chatID).Msg("list activity failed")
		return ""
	}
	n := map[activity.Kind]int{}
	for _, e := range entries {
		n[e.Kind]++
	}
	if n[activity.KindNote]+n[activity.KindDoc]+n[activity.KindReminder] == 0 {
		return ""
	}
	return fmt.Sprintf("\n\n📦 *Registros*\n• Notas: %d | Docs: %d | Lembretes: %d",
		n[activity.KindNote], n[activity.KindDoc], n[activity.KindReminder])
}

// Reminder is a parsed /remind request.
type Reminder struct {
	Date string // d/m or d/m/yyyy as written
	Time string // hh:mm
	Task string
}

var (
	reminderTime = regexp.MustCompile(`\b(?:[01]?\d|2[0-3]):[0-5]\d\b`)
	reminderDate = regexp.MustCompile(`\b\d{1,2}/\d{1,2}(?:/\d{2,4})?\b`)
	reminderGlue = regexp.MustCompile(`^(?:[àa]s?|em|dia|para|de)\s+`)
)

// ParseReminder pulls the first date and clock time out of raw; the rest is
// the task.
func ParseReminder(raw string) Reminder {
	var rem Reminder
	rest := raw
	if m := reminderDate.FindString(rest); m != "" {
		rem.Date = m
		rest = strings.Replace(rest, m, " ", 1)
	}
	if m := reminderTime.FindString(rest); m != "" {
		rem.Time = m
		rest = strings.Replace(rest, m, " ", 1)
	}
	rest = strings.Join(strings.Fields(rest), " ")
	for {
		trimmed := reminderGlue.ReplaceAllString(rest, "")
		if trimmed == rest {
			break
		}
		rest = trimmed
	}
	rem.Task = strings.TrimSpace(strings.TrimLeft(rest, "-–: "))
	return rem
}

// When joins date and time, either of which may be empty.
func (r Reminder) When() string {
	return strings.TrimSpace(r.Date + " " + r.Time)
}

func (r Reminder) String() string {
	if w := r.When(); w != "" {
		return w + " – " + r.Task
	}
	return r.Task
}
