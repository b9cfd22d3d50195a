// Package reports provides read-only summaries over the ledger: stock
// valuation, outstanding party balances and period totals.
package reports

import (
	"time"

	"shopledger/internal/core/id"
	"shopledger/internal/core/types"
	"shopledger/internal/domain/catalogs/party"
)

// --- Stock Balance Report ---

// StockBalanceFilter defines filter for the stock balance report.
type StockBalanceFilter struct {
	// ExcludeZero drops products without stock
	ExcludeZero bool

	// LowOnly keeps products at or below their reorder level
	LowOnly bool

	// Pagination over the report rows
	Limit  int
	Offset int
}

// StockBalanceItem is one product row. Value is stock at the current buy price.
type StockBalanceItem struct {
	ProductID      id.ID       `json:"productId"`
	ProductName    string      `json:"productName"`
	IsBatchTracked bool        `json:"isBatchTracked"`
	Stock          int64       `json:"stock"`
	ReorderLevel   int64       `json:"reorderLevel"`
	BuyPrice       types.Money `json:"buyPrice"`
	Value          types.Money `json:"value"`
	Low            bool        `json:"low"`
}

// StockBalanceReport is the full stock balance report. Totals cover every
// matching row, not only the returned page.
type StockBalanceReport struct {
	AsOf       time.Time          `json:"asOf"`
	Items      []StockBalanceItem `json:"items"`
	TotalItems int                `json:"totalItems"`

	TotalStock int64       `json:"totalStock"`
	TotalValue types.Money `json:"totalValue"`
	LowCount   int         `json:"lowCount"`
}

// --- Party Balances ---

// PartyBalanceSummary aggregates the stored balances of one party kind.
// Owed is the sum of positive balances, Advance the magnitude of negative ones.
type PartyBalanceSummary struct {
	Kind        party.Kind  `json:"kind"`
	Parties     int         `json:"parties"`
	WithBalance int         `json:"withBalance"`
	Owed        types.Money `json:"owed"`
	Advance     types.Money `json:"advance"`
	Net         types.Money `json:"net"`
}

// --- Period Summary ---

// PeriodFilter bounds a period report. Both dates are inclusive.
type PeriodFilter struct {
	From time.Time
	To   time.Time
}

// DocumentTotals summarizes one document type. Reversals are subtracted.
type DocumentTotals struct {
	Count     int         `json:"count"`
	Reversals int         `json:"reversals"`
	Total     types.Money `json:"total"`
	Due       types.Money `json:"due"`
}

// PeriodSummary is the activity of a period.
type PeriodSummary struct {
	From      time.Time      `json:"from"`
	To        time.Time      `json:"to"`
	Sales     DocumentTotals `json:"sales"`
	Purchases DocumentTotals `json:"purchases"`
	Expenses  DocumentTotals `json:"expenses"`

	// Net is sales minus purchases and expenses
	Net types.Money `json:"net"`
}
