package storage

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryGateway keeps objects in process memory. It backs local runs without
// object storage and the upload tests.
type MemoryGateway struct {
	mu      sync.RWMutex
	objects map[string]struct{}
	baseURL string

	// Fail hooks let callers simulate store errors.
	PresignErr error
	ExistsErr  error
	DeleteErr  error
}

// NewMemoryGateway returns an empty in-memory gateway serving URLs under baseURL.
func NewMemoryGateway(baseURL string) *MemoryGateway {
	if baseURL == "" {
		baseURL = "http://localhost/uploads"
	}
	return &MemoryGateway{objects: make(map[string]struct{}), baseURL: baseURL}
}

// GenerateKey implements Gateway.
func (m *MemoryGateway) GenerateKey(projectID uuid.UUID, filename string) string {
	return GenerateKey(projectID, filename)
}

// PresignPut implements Gateway. The returned URL is not signed.
func (m *MemoryGateway) PresignPut(_ context.Context, key, contentType string, _ time.Duration) (*PresignedUpload, error) {
	if m.PresignErr != nil {
		return nil, m.PresignErr
	}
	return &PresignedUpload{
		URL:    joinURL(m.baseURL, key),
		Method: http.MethodPut,
		Headers: map[string]string{
			"Content-Type": contentType,
			"x-amz-acl":    "public-read",
		},
	}, nil
}

// Put records key as uploaded.
func (m *MemoryGateway) Put(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = struct{}{}
}

// Exists implements Gateway.
func (m *MemoryGateway) Exists(_ context.Context, key string) (bool, error) {
	if m.ExistsErr != nil {
		return false, m.ExistsErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[key]
	return ok, nil
}

// Delete implements Gateway.
func (m *MemoryGateway) Delete(_ context.Context, key string) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

// PublicURL implements Gateway.
func (m *MemoryGateway) PublicURL(key string) string {
	return joinURL(m.baseURL, key)
}

// Len returns the number of stored objects.
func (m *MemoryGateway) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
