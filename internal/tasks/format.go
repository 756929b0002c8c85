package tasks

import (
	"fmt"
	"strings"
	"time"
)

func projectTitle(name string) string {
	if strings.TrimSpace(name) == "" {
		return "Projeto"
	}
	return strings.TrimSpace(name)
}

func assigneeOr(t Task, fallback string) string {
	if a := strings.TrimSpace(t.Assignee); a != "" {
		return a
	}
	return fallback
}

// FullSummary renders the status card: total, every status group and a
// sample of open tasks.
func FullSummary(project string, ts []Task) string {
	ts = Filter(ts)
	var b strings.Builder
	fmt.Fprintf(&b, "*%s — Status*\n", projectTitle(project))
	fmt.Fprintf(&b, "Total de tarefas: %d\n", len(ts))

	groups := GroupByStatus(ts)
	if len(groups) == 0 {
		b.WriteString("• (sem distribuição)\n")
	}
	for _, g := range groups {
		fmt.Fprintf(&b, "• %s: %d\n", g.Status, g.Count)
	}

	b.WriteString("\n*Abertas (amostra):*\n")
	open := OpenTasks(ts)
	if len(open) == 0 {
		b.WriteString("Nenhuma aberta.")
		return b.String()
	}
	if len(open) > OpenPreview {
		open = open[:OpenPreview]
	}
	lines := make([]string, 0, len(open))
	for _, t := range open {
		lines = append(lines, fmt.Sprintf("- %s (%s)", t.Title, assigneeOr(t, "s/resp")))
	}
	b.WriteString(strings.Join(lines, "\n"))
	return b.String()
}

// BriefSummary renders the short card: total, top status groups and the
// overdue count.
func BriefSummary(project string, ts []Task) string {
	ts = Filter(ts)
	lines := []string{
		fmt.Sprintf("*%s — Resumo Rápido*", projectTitle(project)),
		fmt.Sprintf("Total de tarefas: %d", len(ts)),
	}
	groups := GroupByStatus(ts)
	if len(groups) > BriefGroups {
		groups = groups[:BriefGroups]
	}
	if len(groups) == 0 {
		lines = append(lines, "• Sem dados")
	}
	for _, g := range groups {
		lines = append(lines, fmt.Sprintf("• %s: %d", g.Status, g.Count))
	}
	lines = append(lines, fmt.Sprintf("Atrasadas: %d", CountLate(ts)))
	return strings.Join(lines, "\n")
}

func bulletList(ts []Task) string {
	lines := make([]string, 0, len(ts))
	for _, t := range ts {
		line := "• " + t.Title
		if a := strings.TrimSpace(t.Assignee); a != "" {
			line += " _(" + a + ")_"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// NextReport lists tasks due today or tomorrow.
func NextReport(project string, ts []Task, now time.Time) string {
	title := fmt.Sprintf("*%s — Próximos (hoje/amanhã)*\n", projectTitle(project))
	due := DueSoon(ts, now)
	if len(due) == 0 {
		return title + "Nenhuma tarefa para hoje/amanhã."
	}
	return title + bulletList(due)
}

// LateReport lists overdue tasks, or says there are none.
func LateReport(project string, ts []Task) string {
	title := fmt.Sprintf("*%s — Atrasadas (top %d)*\n", projectTitle(project), ListPreview)
	late := Late(ts)
	if len(late) == 0 {
		return title + "Sem atrasadas. 👌"
	}
	return title + bulletList(late)
}

// WhoReport lists project participants.
func WhoReport(project string, names []string) string {
	title := fmt.Sprintf("*%s — Membros do projeto*\n", projectTitle(project))
	if len(names) == 0 {
		return title + "_Nenhum participante encontrado na planilha._"
	}
	lines := make([]string, 0, len(names))
	for _, n := range names {
		lines = append(lines, "• "+n)
	}
	return title + strings.Join(lines, "\n")
}

// WeeklyWrap prefixes the full summary with the weekly closing header.
func WeeklyWrap(project string, ts []Task) string {
	return fmt.Sprintf("*%s — Fechamento semanal*\n\n", projectTitle(project)) + FullSummary(project, ts)
}
