// Package expense records shop running costs. Expenses have no effect on
// stock or party balances.
package expense

import (
	"context"
	"strings"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/entity"
	"shopledger/internal/core/types"
)

// Expense is a single running cost.
type Expense struct {
	entity.Document

	// Category is free text (rent, utilities, wages...)
	Category string      `db:"category" json:"category"`
	Amount   types.Money `db:"amount" json:"amount"`
}

// NewExpense creates an expense dated now.
func NewExpense(category string, amount types.Money) *Expense {
	return &Expense{
		Document: entity.NewDocument(),
		Category: strings.TrimSpace(category),
		Amount:   amount,
	}
}

// Validate implements entity.Validatable interface.
func (e *Expense) Validate(ctx context.Context) error {
	if err := e.Document.Validate(ctx); err != nil {
		return err
	}
	if e.Category == "" {
		return apperror.NewFieldValidation("category", "category is required")
	}
	if !e.Amount.IsPositive() {
		return apperror.NewFieldValidation("amount", "amount must be positive")
	}
	if err := entity.CheckMoneyScale("amount", e.Amount); err != nil {
		return err
	}
	return nil
}
