package blob

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// Memory keeps objects in a map. It exists for tests and credential-free
// local runs.
type Memory struct {
	mu      sync.Mutex
	next    int
	Objects map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{Objects: make(map[string][]byte)}
}

func (m *Memory) Put(_ context.Context, r io.Reader, prefix, filename, _ string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	url := fmt.Sprintf("mem://%s/%d-%s", prefix, m.next, filename)
	m.Objects[url] = data
	return url, nil
}

func (m *Memory) Delete(_ context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Objects, url)
	return nil
}

var _ Store = (*Memory)(nil)
