package reports

import (
	"context"
	"fmt"
	"time"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/types"
	"shopledger/internal/domain"
	"shopledger/internal/domain/catalogs/party"
	"shopledger/internal/domain/catalogs/product"
	"shopledger/internal/domain/documents/expense"
	"shopledger/internal/domain/documents/purchase"
	"shopledger/internal/domain/documents/sale"
)

// pageSize is the batch size used to walk repositories.
const pageSize = 500

// Service provides report generation operations.
type Service struct {
	products  product.Repository
	parties   party.Repository
	sales     sale.Repository
	purchases purchase.Repository
	expenses  expense.Repository
	now       func() time.Time
}

// NewService creates a new reports service.
func NewService(products product.Repository, parties party.Repository, sales sale.Repository, purchases purchase.Repository, expenses expense.Repository) *Service {
	return &Service{
		products:  products,
		parties:   parties,
		sales:     sales,
		purchases: purchases,
		expenses:  expenses,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// walk pages through a list call until it is exhausted.
func walk[T any](ctx context.Context, filter domain.ListFilter, list func(context.Context, domain.ListFilter) (domain.ListResult[T], error), fn func(T)) error {
	filter.Limit = pageSize
	filter.Offset = 0
	for {
		page, err := list(ctx, filter)
		if err != nil {
			return err
		}
		for _, item := range page.Items {
			fn(item)
		}
		if len(page.Items) < pageSize {
			return nil
		}
		filter.Offset += pageSize
	}
}

// GetStockBalance generates the stock balance report.
func (s *Service) GetStockBalance(ctx context.Context, filter StockBalanceFilter) (*StockBalanceReport, error) {
	// Set default pagination
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	if filter.Limit > 1000 {
		filter.Limit = 1000
	}

	report := &StockBalanceReport{
		AsOf:       s.now(),
		Items:      []StockBalanceItem{},
		TotalValue: types.Zero(),
	}

	var rows []StockBalanceItem
	err := walk(ctx, domain.ListFilter{OrderBy: "name"}, s.products.List, func(p *product.Product) {
		low := p.Stock <= p.ReorderLevel
		if filter.ExcludeZero && p.Stock == 0 {
			return
		}
		if filter.LowOnly && !low {
			return
		}
		rows = append(rows, StockBalanceItem{
			ProductID:      p.ID,
			ProductName:    p.Name,
			IsBatchTracked: p.IsBatchTracked,
			Stock:          p.Stock,
			ReorderLevel:   p.ReorderLevel,
			BuyPrice:       p.BuyPrice,
			Value:          types.LineTotal(p.BuyPrice, p.Stock),
			Low:            low,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("get stock balance report: %w", err)
	}

	for _, r := range rows {
		report.TotalStock += r.Stock
		report.TotalValue = report.TotalValue.Add(r.Value)
		if r.Low {
			report.LowCount++
		}
	}
	report.TotalItems = len(rows)

	if filter.Offset < len(rows) {
		end := min(filter.Offset+filter.Limit, len(rows))
		report.Items = rows[filter.Offset:end]
	}
	return report, nil
}

// GetPartyBalances summarizes the stored balances of customers or suppliers.
func (s *Service) GetPartyBalances(ctx context.Context, kind party.Kind) (*PartyBalanceSummary, error) {
	if kind != party.KindCustomer && kind != party.KindSupplier {
		return nil, apperror.NewFieldValidation("kind", "kind must be customer or supplier")
	}

	sum := &PartyBalanceSummary{
		Kind:    kind,
		Owed:    types.Zero(),
		Advance: types.Zero(),
	}
	err := walk(ctx, domain.ListFilter{Kind: string(kind), OrderBy: "name"}, s.parties.List, func(p *party.Party) {
		sum.Parties++
		switch {
		case p.CurrentBalance.IsPositive():
			sum.WithBalance++
			sum.Owed = sum.Owed.Add(p.CurrentBalance)
		case p.CurrentBalance.IsNegative():
			sum.WithBalance++
			sum.Advance = sum.Advance.Add(p.CurrentBalance.Abs())
		}
	})
	if err != nil {
		return nil, fmt.Errorf("get party balances: %w", err)
	}

	sum.Net = sum.Owed.Sub(sum.Advance)
	return sum, nil
}

// GetPeriodSummary totals sales, purchases and expenses dated within the period.
func (s *Service) GetPeriodSummary(ctx context.Context, filter PeriodFilter) (*PeriodSummary, error) {
	// Validate required dates
	if filter.From.IsZero() || filter.To.IsZero() {
		return nil, apperror.NewValidation("dateFrom and dateTo are required")
	}
	if filter.From.After(filter.To) {
		return nil, apperror.NewFieldValidation("dateFrom", "dateFrom must be before dateTo")
	}

	res := &PeriodSummary{
		From:      filter.From,
		To:        filter.To,
		Sales:     newTotals(),
		Purchases: newTotals(),
		Expenses:  newTotals(),
	}
	lf := domain.ListFilter{DateFrom: &filter.From, DateTo: &filter.To}

	err := walk(ctx, lf, s.sales.List, func(d *sale.Sale) {
		res.Sales.add(d.IsReversal(), d.Total, d.DueAmount)
	})
	if err != nil {
		return nil, fmt.Errorf("summarize sales: %w", err)
	}

	err = walk(ctx, lf, s.purchases.List, func(d *purchase.Purchase) {
		res.Purchases.add(d.IsReversal(), d.GrandTotal, d.DueAmount)
	})
	if err != nil {
		return nil, fmt.Errorf("summarize purchases: %w", err)
	}

	err = walk(ctx, lf, s.expenses.List, func(e *expense.Expense) {
		res.Expenses.add(false, e.Amount, types.Zero())
	})
	if err != nil {
		return nil, fmt.Errorf("summarize expenses: %w", err)
	}

	res.Net = res.Sales.Total.Sub(res.Purchases.Total).Sub(res.Expenses.Total)
	return res, nil
}

func newTotals() DocumentTotals {
	return DocumentTotals{Total: types.Zero(), Due: types.Zero()}
}

func (t *DocumentTotals) add(reversal bool, total, due types.Money) {
	if reversal {
		t.Reversals++
		t.Total = t.Total.Sub(total)
		t.Due = t.Due.Sub(due)
		return
	}
	t.Count++
	t.Total = t.Total.Add(total)
	t.Due = t.Due.Add(due)
}
