package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLineTotal(t *testing.T) {
	assert.True(t, LineTotal(MustMoney("12.50"), 4).Equal(MustMoney("50")))
	assert.True(t, LineTotal(MustMoney("0.10"), 0).IsZero())
}

func TestSum(t *testing.T) {
	assert.True(t, Sum().IsZero())
	assert.True(t, Sum(MustMoney("0.1"), MustMoney("0.2")).Equal(MustMoney("0.3")))
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"identical", "10.00", "10", true},
		{"sub-cent noise", "10.001", "10.00", true},
		{"different", "10.01", "10.00", false},
		{"negative", "-5.5", "-5.50", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal(MustMoney(tt.a), MustMoney(tt.b)))
		})
	}
}

func TestRound(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"0.125", "0.13"},
		{"0.135", "0.14"},
		{"-0.125", "-0.13"},
		{"0.124", "0.12"},
		{"7", "7"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Round(MustMoney(tt.in))
			assert.True(t, MustMoney(tt.want).Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestHasMoneyScale(t *testing.T) {
	assert.True(t, HasMoneyScale(MustMoney("12.50")))
	assert.True(t, HasMoneyScale(MustMoney("12.5000")))
	assert.True(t, HasMoneyScale(MustMoney("-3")))
	assert.False(t, HasMoneyScale(MustMoney("0.125")))
	assert.False(t, HasMoneyScale(MustMoney("0.004")))
}
