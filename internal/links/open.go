package links

import "fmt"

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Open builds the KV for backend. path is ignored for memory; driver only
// matters for sqlite.
func Open(backend, driver, path string) (KV, func() error, error) {
	noop := func() error { return nil }
	switch backend {
	case BackendMemory:
		return NewMemoryKV(), noop, nil
	case BackendJSON:
		kv, err := NewFileKV(path)
		if err != nil {
			return nil, noop, err
		}
		return kv, noop, nil
	case "", BackendSQLite:
		kv, err := NewSQLiteKV(driver, path)
		if err != nil {
			return nil, noop, err
		}
		return kv, kv.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown links backend %q", backend)
	}
}
