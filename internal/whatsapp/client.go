// Package whatsapp keeps the WhatsApp connection alive and exposes it to the
// router and the scheduler as a plain transport.
package whatsapp

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/brynix/brynixbot/internal/bot"
)

// State is the supervisor's view of the connection, mirrored from client events.
type State string

const (
	StateStarting      State = "starting"
	StateQR            State = "qr"
	StateAuthenticated State = "authenticated"
	StateReady         State = "ready"
	StateDisconnected  State = "disconnected"
)

// Health is the connection state reported by the client itself. Empty means
// the client has no state to report.
type Health string

const (
	HealthConnected  Health = "CONNECTED"
	HealthOpening    Health = "OPENING"
	HealthPairing    Health = "PAIRING"
	HealthConflict   Health = "CONFLICT"
	HealthUnpaired   Health = "UNPAIRED"
	HealthUnlaunched Health = "UNLAUNCHED"
)

// Bad reports whether the watchdog should force a reinit.
func (h Health) Bad() bool {
	switch h {
	case "", HealthConflict, HealthUnpaired, HealthUnlaunched:
		return true
	}
	return false
}

// Events are the callbacks a client reports its lifecycle and messages through.
type Events struct {
	OnQR            func(code string)
	OnAuthenticated func()
	OnReady         func()
	OnDisconnected  func(reason string)
	OnAuthFailure   func(reason string)
	OnMessage       func(msg bot.Message)
}

// Client is one messaging session.
type Client interface {
	Connect(ctx context.Context) error
	Disconnect()
	Health() Health
	Reply(ctx context.Context, to bot.Message, text string) error
	SendText(ctx context.Context, chatID, text string) error
	SendAudio(ctx context.Context, chatID string, data []byte, mimeType string) error
	Self() bot.Identity
}

// Factory builds a fresh client wired to ev.
type Factory func(ctx context.Context, ev Events) (Client, error)

// DefaultCooldown is the minimum spacing between two reinits.
const DefaultCooldown = 30 * time.Second

// Cooldown admits one reinit per window. The clock is injectable for tests.
type Cooldown struct {
	lim *rate.Limiter
	now func() time.Time
}

// NewCooldown returns a limiter that allows the first call immediately and
// then one call per window. A nil now uses time.Now.
func NewCooldown(window time.Duration, now func() time.Time) *Cooldown {
	if window <= 0 {
		window = DefaultCooldown
	}
	if now == nil {
		now = time.Now
	}
	return &Cooldown{lim: rate.NewLimiter(rate.Every(window), 1), now: now}
}

// Allow consumes the slot if the window has passed.
func (c *Cooldown) Allow() bool {
	return c.lim.AllowN(c.now(), 1)
}
