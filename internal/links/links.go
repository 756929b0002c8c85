// Package links binds group conversations to project spreadsheets and keeps
// the per-conversation mute flag.
package links

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// ErrNotFound is returned by Registry lookups that require an existing link.
var ErrNotFound = errors.New("links: no link for conversation")

// Link is the binding between a chat and a project spreadsheet.
type Link struct {
	ChatID      string    `json:"chatId"`
	SheetID     string    `json:"spreadsheetId"`
	ProjectName string    `json:"projectName"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// KV is the persistence contract shared by every link backend.
type KV interface {
	Get(ctx context.Context, chatID string) (Link, bool, error)
	Set(ctx context.Context, link Link) error
	Remove(ctx context.Context, chatID string) error
	List(ctx context.Context) ([]Link, error)
}

// MemoryKV keeps links in a map. Lifetime is the process.
type MemoryKV struct {
	mu    sync.RWMutex
	links map[string]Link
}

// NewMemoryKV returns an empty in-memory store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{links: make(map[string]Link)}
}

func (m *MemoryKV) Get(_ context.Context, chatID string) (Link, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.links[chatID]
	return l, ok, nil
}

func (m *MemoryKV) Set(_ context.Context, link Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links[link.ChatID] = link
	return nil
}

func (m *MemoryKV) Remove(_ context.Context, chatID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.links, chatID)
	return nil
}

func (m *MemoryKV) List(_ context.Context) ([]Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Link, 0, len(m.links))
	for _, l := range m.links {
		out = append(out, l)
	}
	sortLinks(out)
	return out, nil
}

func sortLinks(ls []Link) {
	sort.Slice(ls, func(i, j int) bool { return ls[i].ChatID < ls[j].ChatID })
}

// Registry is the session store used by the router: links go through a KV,
// mute flags stay in memory.
type Registry struct {
	kv    KV
	now   func() time.Time
	mu    sync.RWMutex
	muted map[string]bool
}

// NewRegistry wraps kv. A nil kv falls back to memory.
func NewRegistry(kv KV) *Registry {
	if kv == nil {
		kv = NewMemoryKV()
	}
	return &Registry{kv: kv, now: time.Now, muted: make(map[string]bool)}
}

// GetLink returns the link for chatID or nil when none exists.
func (r *Registry) GetLink(ctx context.Context, chatID string) (*Link, error) {
	l, ok, err := r.kv.Get(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("get link %s: %w", chatID, err)
	}
	if !ok {
		return nil, nil
	}
	return &l, nil
}

// SetLink creates or overwrites the link for chatID.
func (r *Registry) SetLink(ctx context.Context, chatID, sheetID, projectName string) (Link, error) {
	chatID = strings.TrimSpace(chatID)
	if chatID == "" {
		return Link{}, errors.New("links: empty chat id")
	}
	l := Link{
		ChatID:      chatID,
		SheetID:     strings.TrimSpace(sheetID),
		ProjectName: strings.TrimSpace(projectName),
		UpdatedAt:   r.now().UTC(),
	}
	if err := r.kv.Set(ctx, l); err != nil {
		return Link{}, fmt.Errorf("set link %s: %w", chatID, err)
	}
	return l, nil
}

// RemoveLink deletes the link. Returns ErrNotFound when nothing was linked.
func (r *Registry) RemoveLink(ctx context.Context, chatID string) error {
	_, ok, err := r.kv.Get(ctx, chatID)
	if err != nil {
		return fmt.Errorf("get link %s: %w", chatID, err)
	}
	if !ok {
		return ErrNotFound
	}
	if err := r.kv.Remove(ctx, chatID); err != nil {
		return fmt.Errorf("remove link %s: %w", chatID, err)
	}
	return nil
}

// Links lists every stored link ordered by chat id.
func (r *Registry) Links(ctx context.Context) ([]Link, error) {
	return r.kv.List(ctx)
}

// IsMuted reports the mute flag for chatID.
func (r *Registry) IsMuted(chatID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.muted[chatID]
}

// SetMuted sets or clears the mute flag.
func (r *Registry) SetMuted(chatID string, muted bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if muted {
		r.muted[chatID] = true
		return
	}
	delete(r.muted, chatID)
}
