package tasks

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/brynix/brynixbot/internal/textnorm"
)

const (
	// OpenPreview bounds the open-task sample in the full summary.
	OpenPreview = 10
	// ListPreview bounds the next and late lists.
	ListPreview = 8
	// BriefGroups is how many status groups the brief summary shows.
	BriefGroups = 4

	noStatus = "Sem status"
)

var (
	completedStatus = regexp.MustCompile(`concluid[ao]s?`)
	lateStatus      = regexp.MustCompile(`atrasad`)
)

// IsCompleted matches statuses like "Concluída".
func IsCompleted(status string) bool {
	return completedStatus.MatchString(textnorm.Fold(status))
}

// IsLate matches statuses like "Atrasada". Lateness is read from the status
// label, never computed from dates.
func IsLate(status string) bool {
	return lateStatus.MatchString(textnorm.Fold(status))
}

// StatusCount is one status bucket.
type StatusCount struct {
	Status string
	Count  int
}

// GroupByStatus counts tasks per trimmed status label, largest first, ties
// by label. Empty statuses fall into "Sem status".
func GroupByStatus(ts []Task) []StatusCount {
	counts := map[string]int{}
	for _, t := range Filter(ts) {
		s := strings.TrimSpace(t.Status)
		if s == "" {
			s = noStatus
		}
		counts[s]++
	}
	out := make([]StatusCount, 0, len(counts))
	for s, n := range counts {
		out = append(out, StatusCount{Status: s, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Status < out[j].Status
	})
	return out
}

// OpenTasks returns tasks whose status is not a completed one.
func OpenTasks(ts []Task) []Task {
	var out []Task
	for _, t := range Filter(ts) {
		if !IsCompleted(t.Status) {
			out = append(out, t)
		}
	}
	return out
}

// DueSoon returns tasks ending today or tomorrow in now's location, capped
// at ListPreview. Tasks without a parseable end date never qualify.
func DueSoon(ts []Task, now time.Time) []Task {
	today := DateOf(now)
	tomorrow := today.AddDays(1)
	var out []Task
	for _, t := range Filter(ts) {
		if t.End.IsZero() {
			continue
		}
		if t.End == today || t.End == tomorrow {
			out = append(out, t)
			if len(out) == ListPreview {
				break
			}
		}
	}
	return out
}

// Late returns tasks whose status reads as overdue, capped at ListPreview.
func Late(ts []Task) []Task {
	var out []Task
	for _, t := range Filter(ts) {
		if IsLate(t.Status) {
			out = append(out, t)
			if len(out) == ListPreview {
				break
			}
		}
	}
	return out
}

// CountLate counts every overdue task without the preview cap.
func CountLate(ts []Task) int {
	n := 0
	for _, t := range Filter(ts) {
		if IsLate(t.Status) {
			n++
		}
	}
	return n
}

// Participants lists people from the resources sheet when it has any,
// otherwise the distinct task assignees. Names are deduplicated ignoring
// case and accents and sorted the same way.
func Participants(resources []string, ts []Task) []string {
	names := resources
	if len(nonEmpty(names)) == 0 {
		names = nil
		for _, t := range Filter(ts) {
			names = append(names, splitAssignees(t.Assignee)...)
		}
	}
	seen := map[string]bool{}
	var out []string
	for _, n := range nonEmpty(names) {
		key := textnorm.Fold(n)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, n)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return textnorm.Fold(out[i]) < textnorm.Fold(out[j])
	})
	return out
}

// splitAssignees handles cells like "Ana, Bruno / Carla".
func splitAssignees(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == '/'
	})
}

func nonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
