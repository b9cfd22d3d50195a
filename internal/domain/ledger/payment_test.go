package ledger

import (
	"testing"

	"github.com/stretchr/testify/require"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/core/types"
	"shopledger/internal/domain/catalogs/party"
	"shopledger/internal/domain/documents/payment"
)

func receivedPayment(customerID id.ID, amount string) *payment.Payment {
	return payment.NewPayment(customerID, types.MustMoney(amount), payment.TypeReceived)
}

func TestApplyCustomerPayment(t *testing.T) {
	f := newFixture(t)
	c := f.party(party.KindCustomer, "Fay")

	_, err := f.svc.ApplyCustomerPayment(f.ctx, payment.NewPayment(c.ID, types.MustMoney("50"), payment.TypeGiven))
	require.NoError(t, err)
	assertMoney(t, "50", f.balance(c.ID))

	_, err = f.svc.ApplyCustomerPayment(f.ctx, receivedPayment(c.ID, "80"))
	require.NoError(t, err)
	assertMoney(t, "-30", f.balance(c.ID))
}

func TestApplyCustomerPayment_Errors(t *testing.T) {
	f := newFixture(t)
	c := f.party(party.KindCustomer, "Gus")
	s := f.party(party.KindSupplier, "Hal")

	tests := []struct {
		name    string
		payment *payment.Payment
		code    string
	}{
		{"zero amount", receivedPayment(c.ID, "0"), apperror.CodeValidation},
		{"negative amount", receivedPayment(c.ID, "-5"), apperror.CodeValidation},
		{"sub-cent amount", receivedPayment(c.ID, "0.125"), apperror.CodeValidation},
		{"below one cent", receivedPayment(c.ID, "0.004"), apperror.CodeValidation},
		{"unknown type", payment.NewPayment(c.ID, types.MustMoney("5"), payment.Type("barter")), apperror.CodeValidation},
		{"unknown customer", receivedPayment(id.New(), "5"), apperror.CodePartyNotFound},
		{"supplier id", receivedPayment(s.ID, "5"), apperror.CodePartyNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.ApplyCustomerPayment(f.ctx, tt.payment)
			assertCode(t, err, tt.code)
		})
	}
	assertMoney(t, "0", f.balance(c.ID))
}

func TestApplySupplierPayment(t *testing.T) {
	f := newFixture(t)
	s := f.party(party.KindSupplier, "Ivy")

	_, err := f.svc.ApplySupplierPayment(f.ctx, payment.NewSupplierPayment(s.ID, types.MustMoney("70"), payment.SupplierTypePaid))
	require.NoError(t, err)
	assertMoney(t, "-70", f.balance(s.ID))

	_, err = f.svc.ApplySupplierPayment(f.ctx, payment.NewSupplierPayment(s.ID, types.MustMoney("20"), payment.SupplierTypeRefund))
	require.NoError(t, err)
	assertMoney(t, "-50", f.balance(s.ID))

	_, err = f.svc.ApplySupplierPayment(f.ctx, payment.NewSupplierPayment(id.New(), types.MustMoney("1"), payment.SupplierTypePaid))
	assertCode(t, err, apperror.CodePartyNotFound)
}
