package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/idempotency"
)

type idempotencyRecord struct {
	operation   string
	requestHash string
	status      idempotency.Status
	statusCode  int
	contentType string
	response    []byte
	updatedAt   time.Time
	expiresAt   time.Time
}

// Idempotency returns the idempotency key store.
func (s *Store) Idempotency() idempotency.Store {
	return &idempotencyStore{s: s}
}

type idempotencyStore struct {
	s *Store
}

func (st *idempotencyStore) AcquireKey(ctx context.Context, key, operation, requestHash string) (*idempotency.Replay, error) {
	var (
		replay *idempotency.Replay
		err    error
	)
	werr := st.s.write(ctx, func(t *memTx) error {
		now := st.s.now()
		rec, ok := st.s.idempotency[key]
		if !ok || now.After(rec.expiresAt) {
			st.s.idempotency[key] = &idempotencyRecord{
				operation:   operation,
				requestHash: requestHash,
				status:      idempotency.StatusPending,
				updatedAt:   now,
				expiresAt:   now.Add(st.s.idempotencyTTL),
			}
			return nil
		}

		if rec.operation != operation || rec.requestHash != requestHash {
			err = apperror.NewIdempotencyMismatch(key).
				WithDetail("stored_operation", rec.operation).
				WithDetail("request_operation", operation)
			return nil
		}

		switch rec.status {
		case idempotency.StatusSuccess, idempotency.StatusFailed:
			replay = &idempotency.Replay{
				StatusCode:  idempotency.NormalizeStatus(rec.statusCode),
				ContentType: idempotency.NormalizeContentType(rec.contentType),
				Body:        append([]byte(nil), rec.response...),
			}
		case idempotency.StatusPending:
			if now.Sub(rec.updatedAt) > idempotency.StaleAfter {
				rec.updatedAt = now
				return nil
			}
			err = apperror.NewIdempotencyConflict(key)
		}
		return nil
	})
	if werr != nil {
		return nil, werr
	}
	return replay, err
}

func (st *idempotencyStore) finish(ctx context.Context, key string, status idempotency.Status, statusCode int, contentType string, response any) error {
	var body []byte
	if response != nil {
		b, err := json.Marshal(response)
		if err != nil {
			return fmt.Errorf("marshal response: %w", err)
		}
		body = b
	}
	return st.s.write(ctx, func(t *memTx) error {
		rec, ok := st.s.idempotency[key]
		if !ok {
			return nil
		}
		rec.status = status
		rec.statusCode = statusCode
		rec.contentType = contentType
		rec.response = body
		rec.updatedAt = st.s.now()
		return nil
	})
}

func (st *idempotencyStore) CompleteKey(ctx context.Context, key string, statusCode int, contentType string, response any) error {
	return st.finish(ctx, key, idempotency.StatusSuccess, statusCode, contentType, response)
}

func (st *idempotencyStore) FailKey(ctx context.Context, key string, statusCode int, contentType string, response any) error {
	return st.finish(ctx, key, idempotency.StatusFailed, statusCode, contentType, response)
}

func (st *idempotencyStore) CleanupExpired(ctx context.Context) (int64, error) {
	var n int64
	err := st.s.write(ctx, func(t *memTx) error {
		now := st.s.now()
		for key, rec := range st.s.idempotency {
			if now.After(rec.expiresAt) {
				delete(st.s.idempotency, key)
				n++
			}
		}
		return nil
	})
	return n, err
}
