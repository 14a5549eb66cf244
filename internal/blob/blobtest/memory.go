// Package blobtest provides an in-memory blob store for tests.
package blobtest

import (
	"context"
	"errors"
	"sync"

	"diabeater-console/pkg/apperror"
)

var ErrInjected = errors.New("injected blob failure")

type Memory struct {
	mu         sync.Mutex
	objects    map[string][]byte
	FailUpload bool
	FailDelete bool
}

func NewMemory() *Memory {
	return &Memory{objects: map[string][]byte{}}
}

func (m *Memory) Upload(_ context.Context, key string, content []byte, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailUpload {
		return "", apperror.Transient("upload "+key, ErrInjected)
	}
	m.objects[key] = append([]byte(nil), content...)
	return "https://blobs.test/" + key, nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailDelete {
		return apperror.Transient("delete "+key, ErrInjected)
	}
	delete(m.objects, key)
	return nil
}

func (m *Memory) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
