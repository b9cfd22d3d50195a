package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"shopledger/internal/core/id"
	"shopledger/internal/core/numerator"
	"shopledger/internal/domain/events"
)

// OutboxMessage is an event recorded by a committed transaction.
type OutboxMessage struct {
	ID            id.ID
	AggregateType string
	AggregateID   id.ID
	EventType     string
	Payload       json.RawMessage
	CreatedAt     time.Time
}

// Publish implements events.Publisher. The message is part of the running
// transaction and disappears on rollback.
func (s *Store) Publish(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	return s.write(ctx, func(t *memTx) error {
		s.outbox = append(s.outbox, OutboxMessage{
			ID:            id.New(),
			AggregateType: event.AggregateType,
			AggregateID:   event.AggregateID,
			EventType:     event.EventType,
			Payload:       payload,
			CreatedAt:     s.now(),
		})
		t.onRollback(func() { s.outbox = s.outbox[:len(s.outbox)-1] })
		return nil
	})
}

// Outbox returns the recorded events, oldest first.
func (s *Store) Outbox(ctx context.Context) []OutboxMessage {
	var out []OutboxMessage
	s.read(ctx, func() { out = append(out, s.outbox...) })
	return out
}

// DrainOutbox removes and returns the recorded events.
func (s *Store) DrainOutbox(ctx context.Context) []OutboxMessage {
	var out []OutboxMessage
	_ = s.write(ctx, func(t *memTx) error {
		out = s.outbox
		s.outbox = nil
		t.onRollback(func() { s.outbox = out })
		return nil
	})
	return out
}

// Numerator returns a numbering generator backed by the store. Inside a
// transaction the counter rolls back with it, so numbers stay gapless.
func (s *Store) Numerator() numerator.Generator {
	return &sequenceGenerator{s: s}
}

type sequenceGenerator struct {
	s *Store
}

// GetNextNumber implements numerator.Generator. Both strategies behave
// as strict in memory.
func (g *sequenceGenerator) GetNextNumber(ctx context.Context, cfg numerator.Config, _ *numerator.Options, period time.Time) (string, error) {
	var next int64
	key := numerator.SequenceKey(cfg, period)
	err := g.s.write(ctx, func(t *memTx) error {
		prev, existed := g.s.sequences[key]
		next = prev + 1
		g.s.sequences[key] = next
		t.onRollback(func() {
			if existed {
				g.s.sequences[key] = prev
			} else {
				delete(g.s.sequences, key)
			}
		})
		return nil
	})
	if err != nil {
		return "", err
	}
	return numerator.Format(cfg, period, next), nil
}

// SetNextNumber implements numerator.Generator.
func (g *sequenceGenerator) SetNextNumber(ctx context.Context, cfg numerator.Config, period time.Time, value int64) error {
	key := numerator.SequenceKey(cfg, period)
	return g.s.write(ctx, func(t *memTx) error {
		prev, existed := g.s.sequences[key]
		g.s.sequences[key] = value
		t.onRollback(func() {
			if existed {
				g.s.sequences[key] = prev
			} else {
				delete(g.s.sequences, key)
			}
		})
		return nil
	})
}
