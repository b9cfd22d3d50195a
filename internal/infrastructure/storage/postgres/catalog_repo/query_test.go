package catalog_repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/core/types"
	"shopledger/internal/domain"
	"shopledger/internal/domain/catalogs/party"
	"shopledger/internal/domain/catalogs/product"
)

func testRepo() *BaseCatalogRepo[any] {
	return NewBaseCatalogRepo[any](nil, "test_table", "Test", []string{"id", "name", "created_at"}, []string{"name"}, func() any { return nil })
}

func TestParseOrderBy(t *testing.T) {
	repo := testRepo()

	tests := []struct {
		name    string
		orderBy string
		want    string
		wantErr bool
	}{
		{name: "Default", orderBy: "", want: "name ASC"},
		{name: "Ascending", orderBy: "name", want: "name ASC"},
		{name: "Plus", orderBy: "+name", want: "name ASC"},
		{name: "Descending", orderBy: "-name", want: "name DESC"},
		{name: "CamelCase", orderBy: "-createdAt", want: "created_at DESC"},
		{name: "Unknown", orderBy: "password", wantErr: true},
		{name: "Injection", orderBy: "name; DROP TABLE x", wantErr: true},
		{name: "Dash only", orderBy: "-", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.parseOrderBy(tt.orderBy)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestListQueries(t *testing.T) {
	repo := testRepo()

	q, countQ, err := repo.listQueries(repo.baseSelect(), domain.ListFilter{
		Search: "a_b",
		Limit:  10,
		Offset: 5,
	})
	require.NoError(t, err)

	sql, args, err := q.ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, name, created_at FROM test_table WHERE name ILIKE $1 ORDER BY name ASC, id ASC LIMIT 10 OFFSET 5", sql)
	assert.Equal(t, []any{`%a\_b%`}, args)

	countSQL, countArgs, err := countQ.ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) FROM (SELECT id, name, created_at FROM test_table WHERE name ILIKE $1) AS sub", countSQL)
	assert.Equal(t, args, countArgs)
}

func TestListQueries_IDs(t *testing.T) {
	repo := testRepo()
	ids := []id.ID{id.New(), id.New()}

	q, _, err := repo.listQueries(repo.baseSelect(), domain.ListFilter{IDs: ids, OrderBy: "-name"})
	require.NoError(t, err)

	sql, args, err := q.ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, name, created_at FROM test_table WHERE id IN ($1,$2) ORDER BY name DESC, id ASC", sql)
	assert.Len(t, args, 2)
}

func TestListQueries_InvalidOrder(t *testing.T) {
	repo := testRepo()

	_, _, err := repo.listQueries(repo.baseSelect(), domain.ListFilter{OrderBy: "secret"})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestUpdateQuery_OptimisticLock(t *testing.T) {
	repo := NewPartyRepo(nil)
	p := party.NewParty(party.KindCustomer, "Ann")
	p.Version = 4

	q, gotID, err := repo.updateQuery(p, nil)
	require.NoError(t, err)
	assert.Equal(t, p.ID, gotID)

	sql, args, err := q.ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "UPDATE parties SET ")
	assert.Contains(t, sql, "version = version + 1")
	assert.Contains(t, sql, "updated_at = NOW()")
	assert.Contains(t, sql, "WHERE id = $")
	assert.Contains(t, sql, "AND version = $")
	assert.Contains(t, sql, "RETURNING id, version")
	assert.NotContains(t, sql, "current_balance =")
	assert.NotContains(t, sql, "kind =")
	assert.Contains(t, args, 4)
}

func TestPartyKindSelect(t *testing.T) {
	repo := NewPartyRepo(nil)

	sql, args, err := repo.kindSelect(party.KindSupplier).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "FROM parties WHERE kind = $1")
	assert.Equal(t, []any{"supplier"}, args)

	sql, _, err = repo.kindSelect("").ToSql()
	require.NoError(t, err)
	assert.NotContains(t, sql, "WHERE")
}

func TestProductUpdate_ExpiryOnlyWithoutBatches(t *testing.T) {
	repo := NewProductRepo(nil)
	p := product.NewProduct("Milk", types.MustMoney("1.20"))

	q, _, err := repo.updateQuery(p, productExpirySet(p))
	require.NoError(t, err)

	sql, _, err := q.ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "expiry_date = CASE WHEN is_batch_tracked THEN NULL ELSE $")
	assert.NotContains(t, sql, "stock =")
	assert.NotContains(t, sql, "buy_price =")
}

func TestInventoryUpdate(t *testing.T) {
	p := product.NewProduct("Milk", types.MustMoney("1.20"))
	p.Stock = 12

	sql, args, err := inventoryUpdate(p).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "UPDATE products SET stock = $1, is_batch_tracked = $2, expiry_date = $3, buy_price = $4, updated_at = NOW() WHERE id = $5", sql)
	assert.Equal(t, int64(12), args[0])
	assert.Equal(t, p.ID.String(), args[4])
}

func TestBatchByProductQuery(t *testing.T) {
	repo := NewBatchRepo(nil)
	productID := id.New()

	sql, args, err := repo.byProductQuery(productID).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "FROM product_batches WHERE product_id = $1")
	assert.Contains(t, sql, "ORDER BY expiry_date ASC NULLS LAST, batch_number ASC")
	assert.Equal(t, []any{productID.String()}, args)
}

func TestColumnName(t *testing.T) {
	assert.Equal(t, "created_at", columnName("createdAt"))
	assert.Equal(t, "name", columnName("name"))
	assert.Equal(t, "reorder_level", columnName("reorderLevel"))
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\%`, escapeLike("50%"))
	assert.Equal(t, `a\_b\\c`, escapeLike(`a_b\c`))
}
