package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

// BatchExecutor sends several statements in one round trip inside the
// current transaction (document lines).
type BatchExecutor struct {
	txManager *TxManager
}

// NewBatchExecutor creates a new batch executor.
func NewBatchExecutor(txManager *TxManager) *BatchExecutor {
	return &BatchExecutor{txManager: txManager}
}

// BatchQuery is one statement of a batch.
type BatchQuery struct {
	SQL  string
	Args []any
}

// QueryFrom renders a squirrel builder into a BatchQuery.
func QueryFrom(b squirrel.Sqlizer) (BatchQuery, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return BatchQuery{}, err
	}
	return BatchQuery{SQL: sql, Args: args}, nil
}

// ExecuteBatch executes the queries in a single round trip.
// It requires a transaction in ctx.
func (e *BatchExecutor) ExecuteBatch(ctx context.Context, queries []BatchQuery) error {
	if len(queries) == 0 {
		return nil
	}
	t := e.txManager.GetTx(ctx)
	if t == nil {
		return fmt.Errorf("ExecuteBatch requires transaction context")
	}

	batch := &pgx.Batch{}
	for _, q := range queries {
		batch.Queue(q.SQL, q.Args...)
	}

	results := t.SendBatch(ctx, batch)
	defer results.Close()

	for i := range queries {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("batch statement %d: %w", i+1, err)
		}
	}
	return nil
}
