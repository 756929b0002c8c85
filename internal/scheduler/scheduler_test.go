package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brynix/brynixbot/internal/activity"
	"github.com/brynix/brynixbot/internal/links"
	"github.com/brynix/brynixbot/internal/provider"
	"github.com/brynix/brynixbot/internal/sheets"
	"github.com/brynix/brynixbot/internal/tasks"
)

type staticLinks []links.Link

func (s staticLinks) Links(context.Context) ([]links.Link, error) { return s, nil }

type fakeSheets struct {
	mu      sync.Mutex
	meta    map[string]sheets.Meta
	tasks   []tasks.Task
	metaErr error
	logs    []sheets.LogRow
}

func (f *fakeSheets) ReadMeta(_ context.Context, id string) (sheets.Meta, error) {
	if f.metaErr != nil {
		return nil, f.metaErr
	}
	return f.meta[id], nil
}

func (f *fakeSheets) ReadTasks(context.Context, string) ([]tasks.Task, error) { return f.tasks, nil }
func (f *fakeSheets) ReadResources(context.Context, string) ([]string, error) { return nil, nil }

func (f *fakeSheets) AppendLogRow(_ context.Context, _ string, row sheets.LogRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, row)
	return nil
}

type sent struct {
	chatID string
	text   string
	audio  bool
}

type fakeSender struct {
	mu  sync.Mutex
	out []sent
}

func (f *fakeSender) SendText(_ context.Context, chatID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.out = append(f.out, sent{chatID: chatID, text: text})
	return nil
}

func (f *fakeSender) SendAudio(_ context.Context, chatID string, _ []byte, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.out = append(f.out, sent{chatID: chatID, audio: true})
	return nil
}

type fakeSpeaker struct{ text string }

func (f *fakeSpeaker) Speak(_ context.Context, req *provider.TTSRequest) (*provider.TTSResponse, error) {
	f.text = req.Text
	return &provider.TTSResponse{AudioData: []byte("ogg"), MimeType: "audio/ogg; codecs=opus"}, nil
}

type fakeJournal struct {
	mu      sync.Mutex
	entries []activity.Entry
}

func (f *fakeJournal) Record(_ context.Context, e activity.Entry) (activity.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, e)
	return e, nil
}

func meta(pairs ...string) sheets.Meta {
	var rows [][]string
	for i := 0; i+1 < len(pairs); i += 2 {
		rows = append(rows, []string{pairs[i], pairs[i+1]})
	}
	return sheets.ParseMeta(rows)
}

type harness struct {
	s       *Scheduler
	sheets  *fakeSheets
	sender  *fakeSender
	speaker *fakeSpeaker
	journal *fakeJournal
}

func newHarness(t *testing.T, m sheets.Meta) *harness {
	t.Helper()
	h := &harness{
		sheets: &fakeSheets{
			meta:  map[string]sheets.Meta{"sheet1": m},
			tasks: []tasks.Task{{Title: "Briefing", Status: "Em andamento"}, {Title: "Roteiro", Status: "Concluído"}},
		},
		sender:  &fakeSender{},
		speaker: &fakeSpeaker{},
		journal: &fakeJournal{},
	}
	h.s = New(Options{
		Config: Config{
			LockPath:        filepath.Join(t.TempDir(), "scheduler.lock"),
			DefaultTimezone: "UTC",
		},
		Links:   staticLinks{{ChatID: "g1@g.us", SheetID: "sheet1", ProjectName: "Campanha"}},
		Sheets:  h.sheets,
		Sender:  h.sender,
		Speaker: h.speaker,
		Journal: h.journal,
		Log:     zerolog.Nop(),
	})
	return h
}

// Monday 2025-03-10.
var monday9 = time.Date(2025, 3, 10, 9, 0, 10, 0, time.UTC)

func TestTickSendsDailyOncePerMinute(t *testing.T) {
	h := newHarness(t, meta("Timezone", "UTC", "DailyReminderTime", "09:00"))

	h.s.tick(context.Background(), monday9)
	h.s.tick(context.Background(), monday9.Add(30*time.Second))

	require.Len(t, h.sender.out, 1)
	assert.Equal(t, "g1@g.us", h.sender.out[0].chatID)
	assert.Contains(t, h.sender.out[0].text, "*Campanha — Status*")
	assert.Contains(t, h.sender.out[0].text, "Total de tarefas: 2")

	require.Len(t, h.sheets.logs, 1)
	assert.Equal(t, "daily", h.sheets.logs[0].Kind)
	assert.Equal(t, "bot", h.sheets.logs[0].Author)
	require.Len(t, h.journal.entries, 1)
	assert.Equal(t, activity.KindDaily, h.journal.entries[0].Kind)

	// Next day fires again.
	h.s.tick(context.Background(), monday9.AddDate(0, 0, 1))
	assert.Len(t, h.sender.out, 2)
}

func TestTickSkipsOtherMinutes(t *testing.T) {
	h := newHarness(t, meta("Timezone", "UTC"))
	h.s.tick(context.Background(), monday9.Add(5*time.Minute))
	assert.Empty(t, h.sender.out)
}

func TestTickHonorsProjectTimezone(t *testing.T) {
	h := newHarness(t, meta("Timezone", "America/Sao_Paulo", "DailyReminderTime", "09:00"))
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)

	h.s.tick(context.Background(), monday9)
	assert.Empty(t, h.sender.out, "09:00 UTC is 06:00 in São Paulo")

	h.s.tick(context.Background(), time.Date(2025, 3, 10, 9, 0, 0, 0, loc))
	assert.Len(t, h.sender.out, 1)
}

func TestUnknownTimezoneFallsBack(t *testing.T) {
	h := newHarness(t, meta("Timezone", "Nowhere/Invalid", "DailyReminderTime", "09:00"))
	h.s.tick(context.Background(), monday9)
	assert.Len(t, h.sender.out, 1)
}

func TestTickQuietHours(t *testing.T) {
	h := newHarness(t, meta("Timezone", "UTC", "DailyReminderTime", "09:00", "QuietHours", "20:00–09:30"))
	h.s.tick(context.Background(), monday9)
	assert.Empty(t, h.sender.out)
	assert.Empty(t, h.sheets.logs)
}

func TestTickWeeklyWrap(t *testing.T) {
	h := newHarness(t, meta("Timezone", "UTC", "WeeklyWrap", "FRI 17:30"))
	friday := time.Date(2025, 3, 14, 17, 30, 0, 0, time.UTC)
	h.s.tick(context.Background(), friday)

	require.Len(t, h.sender.out, 1)
	assert.Contains(t, h.sender.out[0].text, "*Campanha — Fechamento semanal*")
	require.Len(t, h.journal.entries, 1)
	assert.Equal(t, activity.KindWeekly, h.journal.entries[0].Kind)
}

func TestTickVoiceDigest(t *testing.T) {
	h := newHarness(t, meta("Timezone", "UTC", "TTS_Enabled", "TRUE", "ProjectName", "Lançamento"))
	h.s.tick(context.Background(), monday9)

	require.Len(t, h.sender.out, 2)
	assert.False(t, h.sender.out[0].audio)
	assert.True(t, h.sender.out[1].audio)
	assert.Equal(t, "Resumo diário do projeto Lançamento. 2 tarefas ativas.", h.speaker.text)
}

func TestTickMetaFailureSendsNothing(t *testing.T) {
	h := newHarness(t, meta())
	h.sheets.metaErr = errors.New("quota")
	h.s.tick(context.Background(), monday9)
	assert.Empty(t, h.sender.out)
}

func TestLockPreventsOverlap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scheduler.lock")
	a, b := NewFileLock(path), NewFileLock(path)

	ok, err := a.TryLock()
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = b.TryLock()
	require.NoError(t, err)
	assert.False(t, ok, "second holder must be refused")

	require.NoError(t, a.Unlock())
	ok, err = b.TryLock()
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, b.Unlock())
}

func TestTickSkippedWhileLocked(t *testing.T) {
	h := newHarness(t, meta("Timezone", "UTC"))
	other := NewFileLock(h.s.cfg.LockPath)
	ok, err := other.TryLock()
	require.NoError(t, err)
	require.True(t, ok)
	defer other.Unlock()

	h.s.tick(context.Background(), monday9)
	assert.Empty(t, h.sender.out)
}

func TestSemaphore(t *testing.T) {
	sem := NewSemaphore(2)
	assert.True(t, sem.TryAcquire())
	assert.True(t, sem.TryAcquire())
	assert.False(t, sem.TryAcquire())
	assert.Equal(t, 0, sem.Available())
	sem.Release()
	assert.Equal(t, 1, sem.Available())
	assert.Equal(t, 1, NewSemaphore(0).Cap())
}

func TestQuietHours(t *testing.T) {
	at := func(h, m int) time.Time { return time.Date(2025, 3, 10, h, m, 0, 0, time.UTC) }

	q, err := ParseQuietHours("20:00-08:00")
	require.NoError(t, err)
	assert.True(t, q.Contains(at(20, 0)))
	assert.True(t, q.Contains(at(23, 59)))
	assert.True(t, q.Contains(at(8, 0)))
	assert.False(t, q.Contains(at(8, 1)))
	assert.False(t, q.Contains(at(12, 0)))

	q, err = ParseQuietHours("12:00–13:00")
	require.NoError(t, err)
	assert.True(t, q.Contains(at(12, 30)))
	assert.False(t, q.Contains(at(13, 1)))

	q, err = ParseQuietHours("  ")
	require.NoError(t, err)
	assert.Nil(t, q)
	assert.False(t, q.Contains(at(3, 0)))

	_, err = ParseQuietHours("noite")
	assert.Error(t, err)
}

func TestPlanFromMeta(t *testing.T) {
	p, warns := PlanFromMeta(meta(), "Campanha", "UTC")
	assert.Empty(t, warns)
	assert.Equal(t, "Campanha", p.Project)
	assert.Equal(t, time.UTC, p.Location)
	assert.False(t, p.TTS)
	assert.Nil(t, p.Quiet)
	assert.Equal(t, time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC), p.NextDaily(monday9))
	assert.Equal(t, time.Date(2025, 3, 14, 17, 30, 0, 0, time.UTC), p.NextWeekly(monday9))

	p, warns = PlanFromMeta(meta("DailyReminderTime", "25:00", "WeeklyWrap", "someday", "QuietHours", "x"), "Campanha", "UTC")
	assert.Len(t, warns, 3)
	assert.True(t, p.Daily.Matches(monday9), "invalid daily falls back to 09:00")
	assert.NotNil(t, p.Weekly)

	p, warns = PlanFromMeta(meta("DailyReminderTime", "30 8 * * SEG-SEX", "WeeklyWrap", "0 12 * * SAB"), "Campanha", "UTC")
	assert.Empty(t, warns)
	assert.Equal(t, time.Date(2025, 3, 11, 8, 30, 0, 0, time.UTC), p.NextDaily(monday9))
	assert.Equal(t, time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC), p.NextWeekly(monday9))
}
