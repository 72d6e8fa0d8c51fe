package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"hati/internal/domain"
	"hati/pkg/sentinel"
)

// Memory is an in-memory Store for development and unit tests.
type Memory struct {
	mu   sync.RWMutex
	docs map[uuid.UUID]*domain.Document
}

func NewMemory() *Memory {
	return &Memory{docs: make(map[uuid.UUID]*domain.Document)}
}

func (s *Memory) Create(_ context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.docs[doc.ID]; exists {
		return sentinel.ErrConflict
	}
	for _, existing := range s.docs {
		if existing.ContentHash == doc.ContentHash {
			return sentinel.ErrConflict
		}
	}
	cp := *doc
	s.docs[doc.ID] = &cp
	return nil
}

func (s *Memory) Get(_ context.Context, id uuid.UUID) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *doc
	return &cp, nil
}

func (s *Memory) GetByHash(_ context.Context, contentHash string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, doc := range s.docs {
		if doc.ContentHash == contentHash {
			cp := *doc
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *Memory) ListByOwner(_ context.Context, ownerID string) ([]*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Document
	for _, doc := range s.docs {
		if doc.OwnerID == ownerID {
			cp := *doc
			out = append(out, &cp)
		}
	}
	// Newest first, matching the postgres ORDER BY.
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Memory) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.docs, id)
	return nil
}

func (s *Memory) SetVerification(_ context.Context, id uuid.UUID, status domain.VerificationStatus, verifiedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	doc.VerificationStatus = status
	if status == domain.StatusVerified {
		at := verifiedAt
		doc.VerifiedAt = &at
	}
	doc.UpdatedAt = verifiedAt
	return nil
}

func (s *Memory) AttachTxHash(_ context.Context, id uuid.UUID, txHash string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if doc.BlockchainTxHash != nil {
		if *doc.BlockchainTxHash == txHash {
			return nil // idempotent re-apply
		}
		return sentinel.ErrConflict
	}
	h := txHash
	doc.BlockchainTxHash = &h
	doc.VerificationStatus = domain.StatusVerified
	v := at
	doc.VerifiedAt = &v
	doc.UpdatedAt = at
	return nil
}
