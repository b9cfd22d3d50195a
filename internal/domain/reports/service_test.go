package reports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/types"
	"shopledger/internal/domain/catalogs/party"
	"shopledger/internal/domain/catalogs/product"
	"shopledger/internal/domain/documents/expense"
	"shopledger/internal/domain/documents/sale"
	"shopledger/internal/infrastructure/storage/memory"
)

func newTestService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	s := memory.New()
	return NewService(s.Products(), s.Parties(), s.Sales(), s.Purchases(), s.Expenses()), s
}

func addProduct(t *testing.T, s *memory.Store, name string, stock, reorder int64, buyPrice string) {
	t.Helper()
	p := product.NewProduct(name, types.MustMoney("10"))
	p.Stock = stock
	p.ReorderLevel = reorder
	p.BuyPrice = types.MustMoney(buyPrice)
	require.NoError(t, s.Products().Create(context.Background(), p))
}

func TestGetStockBalance(t *testing.T) {
	svc, s := newTestService(t)
	addProduct(t, s, "Apples", 10, 2, "1.50")
	addProduct(t, s, "Bread", 1, 5, "2")
	addProduct(t, s, "Candles", 0, 0, "3")

	tests := []struct {
		name      string
		filter    StockBalanceFilter
		wantNames []string
		wantValue string
		wantLow   int
	}{
		{"all", StockBalanceFilter{}, []string{"Apples", "Bread", "Candles"}, "17", 2},
		{"exclude zero", StockBalanceFilter{ExcludeZero: true}, []string{"Apples", "Bread"}, "17", 1},
		{"low only", StockBalanceFilter{LowOnly: true}, []string{"Bread", "Candles"}, "2", 2},
		{"paged", StockBalanceFilter{Limit: 1, Offset: 1}, []string{"Bread"}, "17", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := svc.GetStockBalance(context.Background(), tt.filter)
			require.NoError(t, err)

			var names []string
			for _, item := range report.Items {
				names = append(names, item.ProductName)
			}
			assert.Equal(t, tt.wantNames, names)
			assert.True(t, types.MustMoney(tt.wantValue).Equal(report.TotalValue), "value %s", report.TotalValue)
			assert.Equal(t, tt.wantLow, report.LowCount)
		})
	}
}

func TestGetPartyBalances(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	for _, bal := range []string{"100", "-30", "0"} {
		p := party.NewParty(party.KindCustomer, "c"+bal)
		require.NoError(t, s.Parties().Create(ctx, p))
		require.NoError(t, s.Parties().UpdateBalance(ctx, p.ID, types.MustMoney(bal)))
	}
	require.NoError(t, s.Parties().Create(ctx, party.NewParty(party.KindSupplier, "s")))

	sum, err := svc.GetPartyBalances(ctx, party.KindCustomer)
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Parties)
	assert.Equal(t, 2, sum.WithBalance)
	assert.True(t, types.MustMoney("100").Equal(sum.Owed))
	assert.True(t, types.MustMoney("30").Equal(sum.Advance))
	assert.True(t, types.MustMoney("70").Equal(sum.Net))

	_, err = svc.GetPartyBalances(ctx, party.Kind("vendor"))
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestGetPeriodSummary(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()
	day := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	sold := sale.NewSale()
	sold.Date = day
	sold.Total = types.MustMoney("50")
	sold.DueAmount = types.MustMoney("20")
	require.NoError(t, s.Sales().Create(ctx, sold))

	reversal := sale.NewSale()
	reversal.Date = day.Add(time.Hour)
	reversal.Total = types.MustMoney("50")
	reversal.DueAmount = types.MustMoney("20")
	reversal.ReversalOf = &sold.ID
	require.NoError(t, s.Sales().Create(ctx, reversal))

	other := sale.NewSale()
	other.Date = day
	other.Total = types.MustMoney("30")
	require.NoError(t, s.Sales().Create(ctx, other))

	outside := sale.NewSale()
	outside.Date = day.AddDate(0, 1, 0)
	outside.Total = types.MustMoney("999")
	require.NoError(t, s.Sales().Create(ctx, outside))

	rent := expense.NewExpense("rent", types.MustMoney("12"))
	rent.Date = day
	require.NoError(t, s.Expenses().Create(ctx, rent))

	res, err := svc.GetPeriodSummary(ctx, PeriodFilter{
		From: day.Add(-time.Hour),
		To:   day.Add(2 * time.Hour),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Sales.Count)
	assert.Equal(t, 1, res.Sales.Reversals)
	assert.True(t, types.MustMoney("30").Equal(res.Sales.Total), "sales %s", res.Sales.Total)
	assert.True(t, types.Zero().Equal(res.Sales.Due))
	assert.Equal(t, 1, res.Expenses.Count)
	assert.True(t, types.MustMoney("18").Equal(res.Net), "net %s", res.Net)

	_, err = svc.GetPeriodSummary(ctx, PeriodFilter{From: day, To: day.Add(-time.Hour)})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}
