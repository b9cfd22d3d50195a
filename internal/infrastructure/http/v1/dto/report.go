package dto

import (
	"shopledger/internal/core/apperror"
	"shopledger/internal/domain/reports"
)

// StockBalanceQuery holds query parameters of the stock balance report.
type StockBalanceQuery struct {
	ExcludeZero bool `form:"excludeZero"`
	LowOnly     bool `form:"lowOnly"`
	Limit       int  `form:"limit" binding:"omitempty,min=1,max=1000"`
	Offset      int  `form:"offset" binding:"omitempty,min=0"`
}

// ToFilter converts query parameters to the report filter.
func (q StockBalanceQuery) ToFilter() reports.StockBalanceFilter {
	return reports.StockBalanceFilter{
		ExcludeZero: q.ExcludeZero,
		LowOnly:     q.LowOnly,
		Limit:       q.Limit,
		Offset:      q.Offset,
	}
}

// PeriodQuery holds the period of summary reports.
type PeriodQuery struct {
	DateFrom string `form:"dateFrom" binding:"required"`
	DateTo   string `form:"dateTo" binding:"required"`
}

// ToFilter parses the period bounds.
func (q PeriodQuery) ToFilter() (reports.PeriodFilter, error) {
	from, err := parseDate("dateFrom", q.DateFrom, false)
	if err != nil {
		return reports.PeriodFilter{}, err
	}
	to, err := parseDate("dateTo", q.DateTo, true)
	if err != nil {
		return reports.PeriodFilter{}, err
	}
	if from == nil || to == nil {
		return reports.PeriodFilter{}, apperror.NewValidation("dateFrom and dateTo are required")
	}
	return reports.PeriodFilter{From: *from, To: *to}, nil
}
