package expense

import (
	"context"
	"fmt"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/core/numerator"
	"shopledger/internal/core/tx"
	"shopledger/internal/domain"
	"shopledger/pkg/logger"
)

// Service provides business operations for expenses.
type Service struct {
	repo      Repository
	txManager tx.Manager
	numerator numerator.Generator
	numOpts   *numerator.Options
}

// NewService creates a new expense service.
func NewService(repo Repository, txManager tx.Manager, gen numerator.Generator, opts *numerator.Options) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
		numerator: gen,
		numOpts:   opts,
	}
}

// Create records an expense and assigns its number.
func (s *Service) Create(ctx context.Context, e *Expense) error {
	if err := e.Validate(ctx); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if e.Number == "" {
			num, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig(numerator.PrefixExpense), s.numOpts, e.Date)
			if err != nil {
				return fmt.Errorf("generate number: %w", err)
			}
			e.Number = num
		}
		if err := s.repo.Create(ctx, e); err != nil {
			return fmt.Errorf("create expense: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "expense recorded", "expense_id", e.ID, "number", e.Number, "amount", e.Amount.String())
	return nil
}

// GetByID returns an expense.
func (s *Service) GetByID(ctx context.Context, expenseID id.ID) (*Expense, error) {
	e, err := s.repo.GetByID(ctx, expenseID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("Expense", expenseID.String())
		}
		return nil, err
	}
	return e, nil
}

// List returns expenses, newest first.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Expense], error) {
	return s.repo.List(ctx, filter)
}
