// Package activity keeps a journal of what the bot did for each group:
// notes, archived documents and reminders.
package activity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrNoSink is returned by Record when neither a store nor a publisher is
// configured, so nothing was kept.
var ErrNoSink = errors.New("activity: no journal sink configured")

// Kind classifies a journal entry.
type Kind string

const (
	KindNote     Kind = "note"
	KindDoc      Kind = "doc"
	KindReminder Kind = "reminder"
	KindDaily    Kind = "daily"
	KindWeekly   Kind = "weekly"
)

// Entry is one journaled action.
type Entry struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chatId"`
	Kind      Kind      `json:"kind"`
	Author    string    `json:"author,omitempty"`
	Text      string    `json:"text,omitempty"`
	Link      string    `json:"link,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Filter narrows List results. Zero fields match everything.
type Filter struct {
	ChatID string
	Kind   Kind
	Since  time.Time
	Limit  int
}

// Recorder is what handlers and the scheduler write to.
type Recorder interface {
	Record(ctx context.Context, e Entry) (Entry, error)
}

// Log is a Recorder that can read its entries back.
type Log interface {
	Recorder
	List(ctx context.Context, f Filter) ([]Entry, error)
}

// Publisher forwards entries to an external sink.
type Publisher interface {
	Publish(ctx context.Context, e Entry) error
}

// Journal stores entries and fans them out to an optional publisher.
type Journal struct {
	store *Store
	pub   Publisher
	log   zerolog.Logger
	now   func() time.Time
}

// NewJournal wires a store and an optional publisher (nil disables it).
func NewJournal(store *Store, pub Publisher, log zerolog.Logger) *Journal {
	return &Journal{store: store, pub: pub, log: log, now: time.Now}
}

// Record assigns an id and timestamp when missing, persists the entry and
// publishes it. Publication failures are logged only while a store holds
// the entry; without a store the publisher is the only sink and its error
// is returned.
func (j *Journal) Record(ctx context.Context, e Entry) (Entry, error) {
	if j.store == nil && j.pub == nil {
		return Entry{}, ErrNoSink
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = j.now().UTC()
	}
	if j.store != nil {
		if err := j.store.Insert(ctx, e); err != nil {
			return Entry{}, err
		}
	}
	if j.pub != nil {
		if err := j.pub.Publish(ctx, e); err != nil {
			if j.store == nil {
				return Entry{}, fmt.Errorf("publish activity: %w", err)
			}
			j.log.Warn().Err(err).Str("chat", e.ChatID).Str("kind", string(e.Kind)).Msg("activity publish failed")
		}
	}
	return e, nil
}

// List returns stored entries, newest first.
func (j *Journal) List(ctx context.Context, f Filter) ([]Entry, error) {
	if j.store == nil {
		return nil, nil
	}
	return j.store.List(ctx, f)
}
