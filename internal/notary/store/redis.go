package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"hati/internal/domain"
	"hati/internal/platform/redis"
	"hati/pkg/sentinel"
)

// Redis caches receipts across processes, so a reconciliation can run from a
// different instance than the one that observed the confirmation.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func receiptKey(documentID string) string {
	return "receipt:" + documentID
}

func (s *Redis) Put(ctx context.Context, receipt domain.Receipt) error {
	payload, err := json.Marshal(receipt)
	if err != nil {
		return fmt.Errorf("marshal receipt: %w", err)
	}
	if err := s.client.Set(ctx, receiptKey(receipt.DocumentID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("cache receipt: %w", err)
	}
	return nil
}

func (s *Redis) Get(ctx context.Context, documentID string) (domain.Receipt, error) {
	payload, err := s.client.Get(ctx, receiptKey(documentID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return domain.Receipt{}, sentinel.ErrNotFound
	}
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("fetch cached receipt: %w", err)
	}

	var receipt domain.Receipt
	if err := json.Unmarshal(payload, &receipt); err != nil {
		return domain.Receipt{}, fmt.Errorf("decode cached receipt: %w", err)
	}
	return receipt, nil
}

func (s *Redis) Delete(ctx context.Context, documentID string) error {
	return s.client.Del(ctx, receiptKey(documentID)).Err()
}

func handleKey(documentID string) string {
	return "txhandle:" + documentID
}

func (s *Redis) PutHandle(ctx context.Context, handle domain.TxHandle) error {
	payload, err := json.Marshal(handle)
	if err != nil {
		return fmt.Errorf("marshal tx handle: %w", err)
	}
	if err := s.client.Set(ctx, handleKey(handle.DocumentID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("cache tx handle: %w", err)
	}
	return nil
}

func (s *Redis) GetHandle(ctx context.Context, documentID string) (domain.TxHandle, error) {
	payload, err := s.client.Get(ctx, handleKey(documentID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return domain.TxHandle{}, sentinel.ErrNotFound
	}
	if err != nil {
		return domain.TxHandle{}, fmt.Errorf("fetch cached tx handle: %w", err)
	}

	var handle domain.TxHandle
	if err := json.Unmarshal(payload, &handle); err != nil {
		return domain.TxHandle{}, fmt.Errorf("decode cached tx handle: %w", err)
	}
	return handle, nil
}
