package main

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap/zaptest"
)

// memoryKeyValueStore is an in-memory KeyValueStore.
type memoryKeyValueStore struct {
	mu     sync.Mutex
	values map[string]string
	sets   int
	err    error
}

func newMemoryKeyValueStore() *memoryKeyValueStore {
	return &memoryKeyValueStore{values: map[string]string{}}
}

func (m *memoryKeyValueStore) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", false, m.err
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memoryKeyValueStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.values[key] = value
	m.sets++
	return nil
}

// memoryDocumentStore is an in-memory DocumentStore whose reads and writes
// can be made to fail.
type memoryDocumentStore struct {
	mu     sync.Mutex
	docs   map[string][]byte
	sets   int
	getErr error
	setErr error
}

var errUnavailable = errors.New("unavailable")

func newMemoryDocumentStore() *memoryDocumentStore {
	return &memoryDocumentStore{docs: map[string][]byte{}}
}

func (m *memoryDocumentStore) Get(_ context.Context, collection, id string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	body, ok := m.docs[collection+"/"+id]
	if !ok {
		return nil, errDocumentNotFound
	}
	return append([]byte(nil), body...), nil
}

func (m *memoryDocumentStore) Set(_ context.Context, collection, id string, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.docs[collection+"/"+id] = append([]byte(nil), body...)
	m.sets++
	return nil
}

// newTestAdapter returns an adapter over fresh in-memory stores with the
// primary already attached.
func newTestAdapter(t *testing.T) (*StoreAdapter, *memoryDocumentStore, *memoryKeyValueStore) {
	t.Helper()
	primary := newMemoryDocumentStore()
	local := newMemoryKeyValueStore()
	a := NewStoreAdapter(local, zaptest.NewLogger(t))
	a.AttachPrimary(primary)
	return a, primary, local
}

func ptr(v float64) *float64 { return &v }

func strPtr(s string) *string { return &s }
