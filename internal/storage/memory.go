package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"sync"
)

// Memory is an in-process Storage, used by tests and by tooling that must not
// touch the disk.
type Memory struct {
	mu      sync.Mutex
	blobs   map[string][]byte
	baseURL string
}

func NewMemory(baseURL string) *Memory {
	return &Memory{blobs: make(map[string][]byte), baseURL: baseURL}
}

func (m *Memory) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	clean, err := cleanName(name)
	if err != nil {
		return "", err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", clean, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for {
		if _, taken := m.blobs[clean]; !taken {
			break
		}
		clean = alternateName(clean)
	}
	m.blobs[clean] = data
	return clean, nil
}

func (m *Memory) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.blobs[name]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", name, fs.ErrNotExist)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *Memory) Delete(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, name)
	return nil
}

func (m *Memory) URL(name string) string {
	return m.baseURL + name
}

// Bytes returns a copy of a stored blob, or nil.
func (m *Memory) Bytes(name string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return bytes.Clone(m.blobs[name])
}

// Len reports how many blobs are stored.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.blobs)
}
