package links

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileKV stores links as a JSON object keyed by chat id. Writes go to a
// temporary file that is renamed over the target.
type FileKV struct {
	path  string
	mu    sync.Mutex
	links map[string]Link
}

// NewFileKV loads path if it exists. A missing file starts empty.
func NewFileKV(path string) (*FileKV, error) {
	f := &FileKV{path: path, links: make(map[string]Link)}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return f, nil
	case err != nil:
		return nil, fmt.Errorf("read links file: %w", err)
	}
	if len(data) == 0 {
		return f, nil
	}
	if err := json.Unmarshal(data, &f.links); err != nil {
		return nil, fmt.Errorf("parse links file %s: %w", path, err)
	}
	for id, l := range f.links {
		l.ChatID = id
		f.links[id] = l
	}
	return f, nil
}

func (f *FileKV) Get(_ context.Context, chatID string) (Link, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.links[chatID]
	return l, ok, nil
}

func (f *FileKV) Set(_ context.Context, link Link) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	prev, had := f.links[link.ChatID]
	f.links[link.ChatID] = link
	if err := f.flush(); err != nil {
		if had {
			f.links[link.ChatID] = prev
		} else {
			delete(f.links, link.ChatID)
		}
		return err
	}
	return nil
}

func (f *FileKV) Remove(_ context.Context, chatID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	prev, had := f.links[chatID]
	if !had {
		return nil
	}
	delete(f.links, chatID)
	if err := f.flush(); err != nil {
		f.links[chatID] = prev
		return err
	}
	return nil
}

func (f *FileKV) List(_ context.Context) ([]Link, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Link, 0, len(f.links))
	for _, l := range f.links {
		out = append(out, l)
	}
	sortLinks(out)
	return out, nil
}

func (f *FileKV) flush() error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create links dir: %w", err)
	}
	data, err := json.MarshalIndent(f.links, "", "  ")
	if err != nil {
		return fmt.Errorf("encode links: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write links: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace links file: %w", err)
	}
	return nil
}
