package expense

import (
	"context"

	"shopledger/internal/core/id"
	"shopledger/internal/domain"
)

// Repository defines data access for expenses.
type Repository interface {
	Create(ctx context.Context, e *Expense) error
	GetByID(ctx context.Context, id id.ID) (*Expense, error)

	// List honours DateFrom/DateTo and Search (matched against category).
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Expense], error)
}
