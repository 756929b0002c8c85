package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/brynix/brynixbot/internal/alert"
	"github.com/brynix/brynixbot/internal/bot"
)

// ErrNotConnected is returned by sends while no client exists.
var ErrNotConnected = errors.New("whatsapp: no active client")

// DefaultWatchdogInterval is how often RunWatchdog polls client health.
const DefaultWatchdogInterval = 60 * time.Second

// Alerter sends operator notifications.
type Alerter interface {
	Send(ctx context.Context, text string)
}

// Handler receives inbound messages.
type Handler interface {
	Route(ctx context.Context, msg bot.Message)
}

// Options configures a Supervisor. Factory is required.
type Options struct {
	Factory  Factory
	Handler  Handler
	Alerts   Alerter
	Cooldown *Cooldown
	Log      zerolog.Logger
}

// Supervisor owns the current client and replaces it when the connection
// goes bad. It also serves as the bot's transport.
type Supervisor struct {
	factory  Factory
	handler  Handler
	alerts   Alerter
	cooldown *Cooldown
	log      zerolog.Logger

	mu     sync.Mutex
	ctx    context.Context
	client Client
	gen    int
	state  State
	qr     string
}

// NewSupervisor creates a supervisor in the starting state.
func NewSupervisor(opts Options) *Supervisor {
	s := &Supervisor{
		factory:  opts.Factory,
		handler:  opts.Handler,
		alerts:   opts.Alerts,
		cooldown: opts.Cooldown,
		log:      opts.Log,
		ctx:      context.Background(),
		state:    StateStarting,
	}
	if s.cooldown == nil {
		s.cooldown = NewCooldown(DefaultCooldown, nil)
	}
	return s
}

// SetHandler sets the message handler. The router needs the supervisor as
// its transport, so the two are wired after construction.
func (s *Supervisor) SetHandler(h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = h
}

// Start builds and connects the first client. ctx bounds the lifetime of
// every client the supervisor creates.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	c, err := s.build(ctx)
	if err != nil {
		return err
	}
	if err := c.Connect(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	return nil
}

// build creates a client for a new generation and installs it.
func (s *Supervisor) build(ctx context.Context) (Client, error) {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.state = StateStarting
	s.qr = ""
	s.mu.Unlock()

	c, err := s.factory(ctx, s.events(gen))
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	s.mu.Lock()
	s.client = c
	s.mu.Unlock()
	return c, nil
}

// Stop disconnects the current client.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	c := s.client
	s.client = nil
	s.gen++
	s.mu.Unlock()
	if c != nil {
		s.teardown(c)
	}
}

// SafeReinit replaces the client unless a reinit already ran within the
// cooldown window. It reports whether a reinit was attempted.
func (s *Supervisor) SafeReinit(ctx context.Context, reason string) bool {
	if !s.cooldown.Allow() {
		s.log.Warn().Str("reason", reason).Msg("reinit dropped: cooldown active")
		return false
	}
	s.log.Warn().Str("reason", reason).Msg("reinitializing whatsapp client")

	s.mu.Lock()
	old := s.client
	s.client = nil
	s.mu.Unlock()
	if old != nil {
		s.teardown(old)
	}

	c, err := s.build(ctx)
	if err != nil {
		s.log.Error().Err(err).Str("reason", reason).Msg("reinit failed")
		return true
	}
	if err := c.Connect(ctx); err != nil {
		s.log.Error().Err(err).Str("reason", reason).Msg("reinit connect failed")
	}
	return true
}

// teardown disconnects c, swallowing panics.
func (s *Supervisor) teardown(c Client) {
	defer func() {
		if p := recover(); p != nil {
			s.log.Warn().Interface("panic", p).Msg("client teardown panicked")
		}
	}()
	c.Disconnect()
}

// CheckHealth is one watchdog tick.
func (s *Supervisor) CheckHealth(ctx context.Context) {
	s.mu.Lock()
	c := s.client
	s.mu.Unlock()

	var h Health
	if c != nil {
		h = c.Health()
	}
	if h.Bad() {
		s.alert(ctx, alert.Watchdog(string(h)))
		s.SafeReinit(ctx, "watchdog:"+string(h))
		return
	}
	if h == HealthConnected {
		s.mu.Lock()
		if s.state != StateReady {
			s.log.Info().Str("cached", string(s.state)).Msg("client connected, cached state corrected")
			s.state = StateReady
		}
		s.mu.Unlock()
	}
}

// RunWatchdog calls CheckHealth every interval until ctx ends.
func (s *Supervisor) RunWatchdog(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultWatchdogInterval
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.CheckHealth(ctx)
		}
	}
}

// State returns the cached connection state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// QR returns the last pairing code, if any.
func (s *Supervisor) QR() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.qr
}

// Status is the client's own health when it has one, else the cached state.
func (s *Supervisor) Status() string {
	s.mu.Lock()
	c, st := s.client, s.state
	s.mu.Unlock()
	if c != nil {
		if h := c.Health(); h != "" {
			return string(h)
		}
	}
	return string(st)
}

// Health returns the current client's health, empty when there is none.
func (s *Supervisor) Health() Health {
	s.mu.Lock()
	c := s.client
	s.mu.Unlock()
	if c == nil {
		return ""
	}
	return c.Health()
}

func (s *Supervisor) current() (Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil, ErrNotConnected
	}
	return s.client, nil
}

// Reply implements bot.Transport.
func (s *Supervisor) Reply(ctx context.Context, to bot.Message, text string) error {
	c, err := s.current()
	if err != nil {
		return err
	}
	return c.Reply(ctx, to, text)
}

// SendText sends an unquoted message.
func (s *Supervisor) SendText(ctx context.Context, chatID, text string) error {
	c, err := s.current()
	if err != nil {
		return err
	}
	for _, part := range bot.ChunkText(text, bot.MaxChunk) {
		if err := c.SendText(ctx, chatID, part); err != nil {
			return err
		}
	}
	return nil
}

// SendAudio sends a voice note.
func (s *Supervisor) SendAudio(ctx context.Context, chatID string, data []byte, mimeType string) error {
	c, err := s.current()
	if err != nil {
		return err
	}
	return c.SendAudio(ctx, chatID, data, mimeType)
}

// Self implements bot.Transport.
func (s *Supervisor) Self() bot.Identity {
	c, err := s.current()
	if err != nil {
		return bot.Identity{}
	}
	return c.Self()
}

func (s *Supervisor) alert(ctx context.Context, text string) {
	if s.alerts != nil {
		s.alerts.Send(ctx, text)
	}
}

// events binds callbacks to generation gen. Lifecycle events from a client
// that has since been replaced are ignored.
func (s *Supervisor) events(gen int) Events {
	live := func() (context.Context, bool) {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.ctx, s.gen == gen
	}
	setState := func(st State) (context.Context, bool) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.gen != gen {
			return nil, false
		}
		s.state = st
		return s.ctx, true
	}

	return Events{
		OnQR: func(code string) {
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.gen != gen {
				return
			}
			s.qr = code
			s.state = StateQR
			s.log.Info().Msg("pairing QR received")
		},
		OnAuthenticated: func() {
			if _, ok := setState(StateAuthenticated); ok {
				s.log.Info().Msg("whatsapp authenticated")
			}
		},
		OnReady: func() {
			ctx, ok := setState(StateReady)
			if !ok {
				return
			}
			s.mu.Lock()
			s.qr = ""
			s.mu.Unlock()
			s.log.Info().Msg("whatsapp ready")
			s.alert(ctx, alert.Online)
		},
		OnDisconnected: func(reason string) {
			ctx, ok := setState(StateDisconnected)
			if !ok {
				return
			}
			s.mu.Lock()
			s.qr = ""
			s.mu.Unlock()
			s.log.Warn().Str("reason", reason).Msg("whatsapp disconnected")
			s.alert(ctx, alert.Offline)
			go s.SafeReinit(ctx, "disconnected:"+reason)
		},
		OnAuthFailure: func(reason string) {
			ctx, ok := setState(StateDisconnected)
			if !ok {
				return
			}
			s.log.Error().Str("reason", reason).Msg("whatsapp auth failure")
			s.alert(ctx, alert.AuthFailure)
			go s.SafeReinit(ctx, "auth_failure:"+reason)
		},
		OnMessage: func(msg bot.Message) {
			ctx, _ := live()
			s.mu.Lock()
			h := s.handler
			s.mu.Unlock()
			if h != nil {
				h.Route(ctx, msg)
			}
		},
	}
}
