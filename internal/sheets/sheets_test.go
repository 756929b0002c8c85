package sheets

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/brynix/brynixbot/internal/tasks"
)

func TestExtractSheetID(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"https://docs.google.com/spreadsheets/d/1AbC-d_EfGhIjKlMnOpQrStUvWxYz/edit#gid=0", "1AbC-d_EfGhIjKlMnOpQrStUvWxYz", false},
		{"ABC123", "ABC123", false},
		{"  1AbC-d_EfGhIjKlMnOpQrStUvWxYz  ", "1AbC-d_EfGhIjKlMnOpQrStUvWxYz", false},
		{"", "", true},
		{"https://example.com/doc", "", true},
		{"planilha nova", "", true},
	}
	for _, tt := range tests {
		got, err := ExtractSheetID(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidSheetID, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestParseTasksMatchesHeadersLoosely(t *testing.T) {
	rows := [][]string{
		{"TAREFA", "Prioridade", "Responsável", "Status", "Data de Início", "Data de Término", "Marco", "Produtos", "Observações"},
		{"Kickoff", "Alta", "Ana", "Concluída", "01/02/2025", "03/02/2025", "M1", "Ata", "ok"},
		{"", "Baixa", "Ghost", "Atrasada"},
		{"Backlog", "", "", "Em andamento", "", "sem data"},
		{"Curta"},
	}
	got := ParseTasks(rows)
	require.Len(t, got, 3)

	assert.Equal(t, tasks.Task{
		Title:     "Kickoff",
		Priority:  "Alta",
		Assignee:  "Ana",
		Status:    "Concluída",
		Start:     tasks.Date{Year: 2025, Month: time.February, Day: 1},
		End:       tasks.Date{Year: 2025, Month: time.February, Day: 3},
		Milestone: "M1",
		Products:  "Ata",
		Notes:     "ok",
	}, got[0])
	assert.True(t, got[1].End.IsZero())
	assert.Equal(t, "Curta", got[2].Title)
	assert.Nil(t, ParseTasks(rows[:1]))
}

func TestParseMeta(t *testing.T) {
	m := ParseMeta([][]string{
		{"ProjectName", "Fênix"},
		{"Timezone", " America/Recife "},
		{"TTS_Enabled", "TRUE"},
		{"", "ignored"},
		{"QuietHours"},
	})
	assert.Equal(t, "Fênix", m.Get("projectname", ""))
	assert.Equal(t, "America/Recife", m.Get("Timezone", "America/Sao_Paulo"))
	assert.Equal(t, "09:00", m.Get("DailyReminderTime", "09:00"))
	assert.Equal(t, "x", m.Get("QuietHours", "x"))
	assert.True(t, m.Bool("TTS_Enabled"))
	assert.False(t, m.Bool("Missing"))
}

func TestParseResources(t *testing.T) {
	assert.Equal(t, []string{"Ana", "Bruno"}, ParseResources([][]string{{"Função", "Nome"}, {"PM", "Ana"}, {"Dev", " Bruno "}, {"QA", ""}}))
	assert.Nil(t, ParseResources([][]string{{"Coluna"}, {"x"}}))
}

func TestServiceAccountJSON(t *testing.T) {
	_, err := ServiceAccountJSON(`{"type":"service_account"}`)
	require.NoError(t, err)

	fixed, err := ServiceAccountJSON("{\"private_key\":\"-----BEGIN\nKEY\n-----END\"}")
	require.NoError(t, err)
	assert.True(t, json.Valid(fixed))

	_, err = ServiceAccountJSON("not json")
	assert.Error(t, err)
}

func TestLogRowValues(t *testing.T) {
	row := LogRow{When: time.Date(2025, 3, 4, 9, 5, 0, 0, time.UTC), Kind: "note", Author: "Ana", Message: "m"}
	assert.Equal(t, []string{"04/03/2025 09:05", "note", "Ana", "m", "", "", ""}, row.Values())
}

type fakeSheetsAPI struct {
	mu       sync.Mutex
	appended []string
}

func (f *fakeSheetsAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodPost && strings.Contains(r.URL.Path, ":append"):
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.appended = append(f.appended, string(body))
		f.mu.Unlock()
		_, _ = io.WriteString(w, `{"spreadsheetId":"S1"}`)
	case strings.Contains(r.URL.Path, "Tarefas"):
		_, _ = io.WriteString(w, `{"range":"Tarefas!A1:K1000","values":[["Tarefa","Status"],["A","Atrasada"],["","x"]]}`)
	case strings.Contains(r.URL.Path, "Dados_Projeto"):
		_, _ = io.WriteString(w, `{"values":[["ProjectName","Fênix"]]}`)
	default:
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"code":400,"message":"Unable to parse range"}}`)
	}
}

func TestGoogleReaderAgainstFakeAPI(t *testing.T) {
	api := &fakeSheetsAPI{}
	srv := httptest.NewServer(api)
	defer srv.Close()

	ctx := context.Background()
	r, err := NewGoogleReader(ctx, "", option.WithEndpoint(srv.URL+"/"), option.WithoutAuthentication())
	require.NoError(t, err)

	ts, err := r.ReadTasks(ctx, "S1")
	require.NoError(t, err)
	require.Len(t, ts, 1)
	assert.Equal(t, "Atrasada", ts[0].Status)

	meta, err := r.ReadMeta(ctx, "S1")
	require.NoError(t, err)
	assert.Equal(t, "Fênix", meta.Get("ProjectName", ""))

	_, err = r.ReadResources(ctx, "S1")
	assert.Error(t, err)

	require.NoError(t, r.AppendLogRow(ctx, "S1", LogRow{Kind: "note", Message: "olá"}))
	require.Len(t, api.appended, 1)
	assert.Contains(t, api.appended[0], "olá")
}
