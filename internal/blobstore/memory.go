package blobstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Memory is an in-process Store for tests.
type Memory struct {
	mu    sync.RWMutex
	blobs map[string]memoryBlob

	// FailReads / FailWrites force errors to exercise fallback paths.
	FailReads  bool
	FailWrites bool
}

type memoryBlob struct {
	value       []byte
	contentType string
	metadata    map[string]string
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{blobs: make(map[string]memoryBlob)}
}

func (m *Memory) GetText(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FailReads {
		return "", false, fmt.Errorf("forced read failure")
	}
	blob, ok := m.blobs[key]
	if !ok {
		return "", false, nil
	}
	return string(blob.value), true, nil
}

func (m *Memory) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	raw, found, err := m.GetText(ctx, key)
	if err != nil || !found {
		return found, err
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, fmt.Errorf("blob %q is not valid JSON: %w", key, err)
	}
	return true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, opts SetOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites {
		return fmt.Errorf("forced write failure")
	}
	m.blobs[key] = memoryBlob{
		value:       append([]byte(nil), value...),
		contentType: opts.ContentType,
		metadata:    opts.Metadata,
	}
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, key)
	return nil
}

// ContentType reports the stored content type for key, for assertions.
func (m *Memory) ContentType(key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.blobs[key].contentType
}

// Metadata reports the stored metadata for key, for assertions.
func (m *Memory) Metadata(key string) map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.blobs[key].metadata
}
