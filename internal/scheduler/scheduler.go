package scheduler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/brynix/brynixbot/internal/activity"
	"github.com/brynix/brynixbot/internal/links"
	"github.com/brynix/brynixbot/internal/provider"
	"github.com/brynix/brynixbot/internal/sheets"
	"github.com/brynix/brynixbot/internal/tasks"
)

// Config holds scheduler settings.
type Config struct {
	Enabled         bool          `envconfig:"SCHEDULER_ENABLED"`
	TickInterval    time.Duration `envconfig:"SCHEDULER_TICK"`
	MaxConcurrent   int           `envconfig:"SCHEDULER_MAX_CONCURRENT"`
	LockPath        string        `envconfig:"SCHEDULER_LOCK_PATH"`
	DefaultTimezone string        `envconfig:"SCHEDULER_TZ"`
	Voice           string        `envconfig:"TTS_VOICE"`
}

// DefaultConfig returns scheduler defaults. The tick is shorter than a
// minute so no minute is skipped; per-minute dedupe prevents double sends.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		Enabled:         true,
		TickInterval:    30 * time.Second,
		MaxConcurrent:   4,
		LockPath:        filepath.Join(home, ".brynixbot", "scheduler.lock"),
		DefaultTimezone: "America/Sao_Paulo",
		Voice:           "nova",
	}
}

// Sender delivers digests to a group.
type Sender interface {
	SendText(ctx context.Context, chatID, text string) error
	SendAudio(ctx context.Context, chatID string, data []byte, mimeType string) error
}

// LinkLister yields the linked groups.
type LinkLister interface {
	Links(ctx context.Context) ([]links.Link, error)
}

// Options wires the scheduler's collaborators. Speaker and Journal are optional.
type Options struct {
	Config  Config
	Links   LinkLister
	Sheets  sheets.Reader
	Sender  Sender
	Speaker provider.Speaker
	Journal activity.Recorder
	Log     zerolog.Logger
}

// Scheduler checks every linked project on each tick and sends the digests
// that are due.
type Scheduler struct {
	cfg     Config
	links   LinkLister
	sheets  sheets.Reader
	sender  Sender
	speaker provider.Speaker
	journal activity.Recorder
	log     zerolog.Logger
	sem     *Semaphore
	lock    *FileLock

	mu    sync.Mutex
	fired map[string]time.Time
}

// New creates a Scheduler.
func New(opts Options) *Scheduler {
	cfg := opts.Config
	def := DefaultConfig()
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = def.TickInterval
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = def.MaxConcurrent
	}
	if cfg.LockPath == "" {
		cfg.LockPath = def.LockPath
	}
	if cfg.DefaultTimezone == "" {
		cfg.DefaultTimezone = def.DefaultTimezone
	}
	return &Scheduler{
		cfg:     cfg,
		links:   opts.Links,
		sheets:  opts.Sheets,
		sender:  opts.Sender,
		speaker: opts.Speaker,
		journal: opts.Journal,
		log:     opts.Log,
		sem:     NewSemaphore(cfg.MaxConcurrent),
		lock:    NewFileLock(cfg.LockPath),
		fired:   make(map[string]time.Time),
	}
}

// Run starts the tick loop. Blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.cfg.LockPath), 0o755); err != nil {
		return fmt.Errorf("scheduler lock dir: %w", err)
	}
	s.log.Info().Dur("tick", s.cfg.TickInterval).Msg("scheduler started")
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("scheduler stopped")
			return ctx.Err()
		case t := <-ticker.C:
			s.tick(ctx, t)
		}
	}
}

// tick holds the file lock while every linked project is checked. Projects
// run concurrently up to MaxConcurrent; the rest wait for the next tick.
func (s *Scheduler) tick(ctx context.Context, now time.Time) {
	acquired, err := s.lock.TryLock()
	if err != nil {
		s.log.Warn().Err(err).Msg("scheduler lock error")
		return
	}
	if !acquired {
		s.log.Debug().Msg("scheduler tick skipped: lock held by another process")
		return
	}
	defer s.lock.Unlock()

	ls, err := s.links.Links(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("scheduler: list links failed")
		return
	}

	var wg sync.WaitGroup
	for _, l := range ls {
		if !s.sem.TryAcquire() {
			s.log.Warn().Str("chat", l.ChatID).Msg("scheduler: concurrency limit, project deferred")
			continue
		}
		wg.Add(1)
		go func(l links.Link) {
			defer wg.Done()
			defer s.sem.Release()
			if err := s.runProject(ctx, l, now); err != nil {
				s.log.Error().Err(err).Str("chat", l.ChatID).Str("sheet", l.SheetID).Msg("scheduler: project failed")
			}
		}(l)
	}
	wg.Wait()
}

// once reports whether key has not fired yet in this minute, and marks it.
func (s *Scheduler) once(key string, minute time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fired[key].Equal(minute) {
		return false
	}
	s.fired[key] = minute
	return true
}

func (s *Scheduler) runProject(ctx context.Context, l links.Link, now time.Time) error {
	meta, err := s.sheets.ReadMeta(ctx, l.SheetID)
	if err != nil {
		return fmt.Errorf("read meta: %w", err)
	}
	plan, warns := PlanFromMeta(meta, l.ProjectName, s.cfg.DefaultTimezone)
	for _, w := range warns {
		s.log.Warn().Err(w).Str("sheet", l.SheetID).Msg("scheduler: meta entry ignored")
	}

	local := now.In(plan.Location)
	if plan.Quiet.Contains(local) {
		return nil
	}
	minute := local.Truncate(time.Minute)

	if plan.Daily.Matches(local) && s.once(l.ChatID+"/daily", minute) {
		if err := s.sendDaily(ctx, l, plan, local); err != nil {
			return fmt.Errorf("daily: %w", err)
		}
	}
	if plan.Weekly.Matches(local) && s.once(l.ChatID+"/weekly", minute) {
		if err := s.sendWeekly(ctx, l, plan, local); err != nil {
			return fmt.Errorf("weekly: %w", err)
		}
	}
	return nil
}

func (s *Scheduler) sendDaily(ctx context.Context, l links.Link, plan Plan, at time.Time) error {
	ts, err := s.sheets.ReadTasks(ctx, l.SheetID)
	if err != nil {
		return fmt.Errorf("read tasks: %w", err)
	}
	if err := s.sender.SendText(ctx, l.ChatID, tasks.FullSummary(plan.Project, ts)); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	s.log.Info().Str("chat", l.ChatID).Str("project", plan.Project).Msg("daily digest sent")
	s.after(ctx, l, activity.KindDaily, "Resumo diário enviado", at)

	if plan.TTS && s.speaker != nil {
		text := fmt.Sprintf("Resumo diário do projeto %s. %d tarefas ativas.", plan.Project, len(tasks.Filter(ts)))
		audio, err := s.speaker.Speak(ctx, &provider.TTSRequest{Text: text, Voice: s.cfg.Voice})
		if err != nil {
			s.log.Warn().Err(err).Str("chat", l.ChatID).Msg("daily voice digest failed")
			return nil
		}
		if err := s.sender.SendAudio(ctx, l.ChatID, audio.AudioData, audio.MimeType); err != nil {
			s.log.Warn().Err(err).Str("chat", l.ChatID).Msg("daily voice digest not delivered")
		}
	}
	return nil
}

func (s *Scheduler) sendWeekly(ctx context.Context, l links.Link, plan Plan, at time.Time) error {
	ts, err := s.sheets.ReadTasks(ctx, l.SheetID)
	if err != nil {
		return fmt.Errorf("read tasks: %w", err)
	}
	if err := s.sender.SendText(ctx, l.ChatID, tasks.WeeklyWrap(plan.Project, ts)); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	s.log.Info().Str("chat", l.ChatID).Str("project", plan.Project).Msg("weekly wrap sent")
	s.after(ctx, l, activity.KindWeekly, "Resumo semanal enviado", at)
	return nil
}

// after appends the LOG row and journals the send. Both are best effort.
func (s *Scheduler) after(ctx context.Context, l links.Link, kind activity.Kind, msg string, at time.Time) {
	row := sheets.LogRow{When: at, Kind: string(kind), Author: "bot", Message: msg}
	if err := s.sheets.AppendLogRow(ctx, l.SheetID, row); err != nil {
		s.log.Warn().Err(err).Str("sheet", l.SheetID).Msg("append LOG row failed")
	}
	if s.journal == nil {
		return
	}
	if _, err := s.journal.Record(ctx, activity.Entry{ChatID: l.ChatID, Kind: kind, Author: "bot", Text: msg}); err != nil && !errors.Is(err, activity.ErrNoSink) {
		s.log.Warn().Err(err).Str("chat", l.ChatID).Msg("journal entry failed")
	}
}
