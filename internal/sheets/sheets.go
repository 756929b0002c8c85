// Package sheets reads project data from Google Sheets spreadsheets.
//
// A project spreadsheet has a "Dados_Projeto" tab of key/value pairs, a
// "Tarefas" tab with a header row, an optional "Rec_Projeto" tab listing
// people, and a "LOG" tab the bot appends to.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/brynix/brynixbot/internal/tasks"
	"github.com/brynix/brynixbot/internal/textnorm"
)

// Ranges read and written by the bot.
const (
	MetaRange      = "Dados_Projeto!A1:B10"
	TasksRange     = "Tarefas!A1:K1000"
	ResourcesRange = "Rec_Projeto!A1:F200"
	LogRange       = "LOG!A1"
)

// ErrInvalidSheetID means no spreadsheet id could be found in a reference.
var ErrInvalidSheetID = errors.New("sheets: invalid spreadsheet reference")

// Reader is the spreadsheet collaborator used by the bot and the scheduler.
type Reader interface {
	ReadMeta(ctx context.Context, sheetID string) (Meta, error)
	ReadTasks(ctx context.Context, sheetID string) ([]tasks.Task, error)
	ReadResources(ctx context.Context, sheetID string) ([]string, error)
	AppendLogRow(ctx context.Context, sheetID string, row LogRow) error
}

var (
	sheetURL = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9_-]+)`)
	rawID    = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

// ExtractSheetID accepts a spreadsheet URL or a bare id.
func ExtractSheetID(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", ErrInvalidSheetID
	}
	if m := sheetURL.FindStringSubmatch(ref); m != nil {
		return m[1], nil
	}
	if strings.Contains(ref, "/") || !rawID.MatchString(ref) {
		return "", ErrInvalidSheetID
	}
	return ref, nil
}

// Meta holds the Dados_Projeto key/value pairs. Keys are folded, so lookups
// ignore case and accents.
type Meta map[string]string

// Get returns the value for key or def when missing or blank.
func (m Meta) Get(key, def string) string {
	if v := strings.TrimSpace(m[textnorm.Fold(key)]); v != "" {
		return v
	}
	return def
}

// Bool reads TRUE/SIM/1 style flags.
func (m Meta) Bool(key string) bool {
	switch textnorm.Fold(m.Get(key, "")) {
	case "true", "sim", "yes", "1":
		return true
	}
	return false
}

// ParseMeta turns two-column rows into Meta.
func ParseMeta(rows [][]string) Meta {
	m := Meta{}
	for _, r := range rows {
		if len(r) == 0 || strings.TrimSpace(r[0]) == "" {
			continue
		}
		v := ""
		if len(r) > 1 {
			v = strings.TrimSpace(r[1])
		}
		m[textnorm.Fold(r[0])] = v
	}
	return m
}

// column aliases, already folded.
var taskColumns = map[string][]string{
	"title":     {"tarefa", "atividade"},
	"priority":  {"prioridade"},
	"assignee":  {"responsavel", "responsaveis"},
	"status":    {"status", "situacao"},
	"start":     {"data de inicio", "inicio"},
	"end":       {"data de termino", "termino", "data fim", "prazo"},
	"milestone": {"marco"},
	"products":  {"produtos"},
	"notes":     {"observacoes", "obs"},
}

// headerIndex maps each known field to its column, -1 when missing.
func headerIndex(header []string, columns map[string][]string) map[string]int {
	folded := make([]string, len(header))
	for i, h := range header {
		folded[i] = textnorm.Fold(h)
	}
	idx := make(map[string]int, len(columns))
	for field, aliases := range columns {
		idx[field] = -1
	aliasLoop:
		for _, a := range aliases {
			for i, h := range folded {
				if h == a {
					idx[field] = i
					break aliasLoop
				}
			}
		}
	}
	return idx
}

func cell(r []string, i int) string {
	if i < 0 || i >= len(r) {
		return ""
	}
	return strings.TrimSpace(r[i])
}

// ParseTasks maps rows (header first) to tasks. Rows without a title are
// dropped.
func ParseTasks(rows [][]string) []tasks.Task {
	if len(rows) < 2 {
		return nil
	}
	idx := headerIndex(rows[0], taskColumns)
	var out []tasks.Task
	for _, r := range rows[1:] {
		t := tasks.Task{
			Title:     cell(r, idx["title"]),
			Priority:  cell(r, idx["priority"]),
			Assignee:  cell(r, idx["assignee"]),
			Status:    cell(r, idx["status"]),
			Start:     tasks.ParseDate(cell(r, idx["start"])),
			End:       tasks.ParseDate(cell(r, idx["end"])),
			Milestone: cell(r, idx["milestone"]),
			Products:  cell(r, idx["products"]),
			Notes:     cell(r, idx["notes"]),
		}
		if t.Valid() {
			out = append(out, t)
		}
	}
	return out
}

var resourceColumns = map[string][]string{
	"name": {"nome", "recurso", "pessoa", "membro"},
}

// ParseResources reads the people column of Rec_Projeto.
func ParseResources(rows [][]string) []string {
	if len(rows) < 2 {
		return nil
	}
	col := headerIndex(rows[0], resourceColumns)["name"]
	if col < 0 {
		return nil
	}
	var out []string
	for _, r := range rows[1:] {
		if v := cell(r, col); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// LogRow is one entry of the LOG tab.
type LogRow struct {
	When    time.Time
	Kind    string // tipo: note, doc, daily, weekly, reminder
	Author  string
	Message string
	File    string
	Link    string
	Notes   string
}

// Values renders the row in column order.
func (r LogRow) Values() []string {
	when := r.When
	if when.IsZero() {
		when = time.Now()
	}
	return []string{
		when.Format("02/01/2006 15:04"),
		r.Kind,
		r.Author,
		r.Message,
		r.File,
		r.Link,
		r.Notes,
	}
}

func stringRows(values [][]interface{}) [][]string {
	out := make([][]string, len(values))
	for i, row := range values {
		out[i] = make([]string, len(row))
		for j, v := range row {
			if v == nil {
				continue
			}
			out[i][j] = fmt.Sprint(v)
		}
	}
	return out
}
