package document_repo

import (
	"shopledger/internal/domain/documents/expense"
	"shopledger/internal/infrastructure/storage/postgres"
)

// ExpenseRepo implements expense.Repository. Search matches the category.
type ExpenseRepo struct {
	*BaseDocumentRepo[*expense.Expense]
}

var _ expense.Repository = (*ExpenseRepo)(nil)

// NewExpenseRepo creates a new expense repository.
func NewExpenseRepo(txManager *postgres.TxManager) *ExpenseRepo {
	return &ExpenseRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txManager,
			"expenses",
			"Expense",
			postgres.ExtractDBColumns[expense.Expense](),
			"",
			"category",
			func() *expense.Expense { return new(expense.Expense) },
		),
	}
}
