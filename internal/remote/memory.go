package remote

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// MemStorage is an in-memory Storage used by tests and by the
// executor's own test suite. Failures can be injected per object name
// to exercise partial-failure and abort paths.
type MemStorage struct {
	mu      sync.Mutex
	days    map[string]map[string][]byte
	fail    map[string]error
	listErr error
}

// NewMemStorage returns an empty MemStorage.
func NewMemStorage() *MemStorage {
	return &MemStorage{
		days: make(map[string]map[string][]byte),
		fail: make(map[string]error),
	}
}

// FailPut makes Put return err for the given object name until cleared
// with a nil err.
func (m *MemStorage) FailPut(name string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.fail, name)
		return
	}
	m.fail[name] = err
}

// FailList makes ListExisting return err.
func (m *MemStorage) FailList(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listErr = err
}

// Object returns the stored bytes for (date, name) and whether they
// exist.
func (m *MemStorage) Object(date, name string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.days[date][name]
	return data, ok
}

// ListExisting implements Storage.
func (m *MemStorage) ListExisting(ctx context.Context, date string) (Inventory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}

	inv := make(Inventory)
	for name := range m.days[date] {
		inv.Add(name)
	}
	return inv, nil
}

// Put implements Storage.
func (m *MemStorage) Put(ctx context.Context, date, name string, r io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read object %s: %w", name, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail[name]; err != nil {
		return err
	}
	if m.days[date] == nil {
		m.days[date] = make(map[string][]byte)
	}
	m.days[date][name] = data
	return nil
}
