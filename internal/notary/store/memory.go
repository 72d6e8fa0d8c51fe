package store

import (
	"context"
	"sync"
	"time"

	"hati/internal/domain"
	"hati/pkg/sentinel"
)

// Memory is an in-process receipt cache with lazy TTL expiry.
type Memory struct {
	ttl time.Duration

	mu       sync.RWMutex
	receipts map[string]memoryEntry
	handles  map[string]handleEntry
}

type memoryEntry struct {
	receipt  domain.Receipt
	storedAt time.Time
}

type handleEntry struct {
	handle   domain.TxHandle
	storedAt time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		ttl:      ttl,
		receipts: make(map[string]memoryEntry),
		handles:  make(map[string]handleEntry),
	}
}

func (s *Memory) Put(_ context.Context, receipt domain.Receipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receipts[receipt.DocumentID] = memoryEntry{receipt: receipt, storedAt: time.Now()}
	return nil
}

func (s *Memory) Get(_ context.Context, documentID string) (domain.Receipt, error) {
	s.mu.RLock()
	entry, ok := s.receipts[documentID]
	s.mu.RUnlock()
	if !ok {
		return domain.Receipt{}, sentinel.ErrNotFound
	}
	if s.ttl > 0 && time.Since(entry.storedAt) > s.ttl {
		s.mu.Lock()
		delete(s.receipts, documentID)
		s.mu.Unlock()
		return domain.Receipt{}, sentinel.ErrNotFound
	}
	return entry.receipt, nil
}

func (s *Memory) Delete(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.receipts, documentID)
	return nil
}

func (s *Memory) PutHandle(_ context.Context, handle domain.TxHandle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handles[handle.DocumentID] = handleEntry{handle: handle, storedAt: time.Now()}
	return nil
}

func (s *Memory) GetHandle(_ context.Context, documentID string) (domain.TxHandle, error) {
	s.mu.RLock()
	entry, ok := s.handles[documentID]
	s.mu.RUnlock()
	if !ok {
		return domain.TxHandle{}, sentinel.ErrNotFound
	}
	if s.ttl > 0 && time.Since(entry.storedAt) > s.ttl {
		s.mu.Lock()
		delete(s.handles, documentID)
		s.mu.Unlock()
		return domain.TxHandle{}, sentinel.ErrNotFound
	}
	return entry.handle, nil
}
