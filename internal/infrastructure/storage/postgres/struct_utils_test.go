package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopledger/internal/core/types"
	"shopledger/internal/domain/catalogs/party"
	"shopledger/internal/domain/documents/sale"
)

func TestExtractDBColumns_Embedded(t *testing.T) {
	cols := ExtractDBColumns[party.Party]()

	assert.Equal(t, []string{
		"id", "version", "created_at", "updated_at",
		"kind", "name", "phone", "email", "address", "current_balance",
	}, cols)
}

func TestExtractDBColumns_SkipsIgnored(t *testing.T) {
	cols := ExtractDBColumns[sale.Sale]()

	assert.Contains(t, cols, "reversal_of")
	assert.Contains(t, cols, "due_amount")
	assert.NotContains(t, cols, "lines")
	assert.NotContains(t, cols, "-")
}

func TestStructToMap(t *testing.T) {
	p := party.NewParty(party.KindCustomer, "Ann")
	p.CurrentBalance = types.MustMoney("12.50")
	p.Version = 3

	m := StructToMap(p)

	assert.Equal(t, p.ID, m["id"])
	assert.Equal(t, 3, m["version"])
	assert.Equal(t, party.KindCustomer, m["kind"])
	assert.Equal(t, "Ann", m["name"])
	assert.True(t, types.MustMoney("12.50").Equal(m["current_balance"].(types.Money)))

	var nilParty *party.Party
	assert.Nil(t, StructToMap(nilParty))
	assert.Nil(t, StructToMap(42))
}

func TestWithoutAndPick(t *testing.T) {
	cols := Without([]string{"id", "version", "name", "kind"}, "version", "kind")
	require.Equal(t, []string{"id", "name"}, cols)

	picked := Pick(map[string]any{"id": 1, "name": "x", "extra": true}, []string{"name", "missing"})
	assert.Equal(t, map[string]any{"name": "x"}, picked)
}
