// Package party provides the customer and supplier catalog.
// Both kinds share one record type and differ only in the meaning of the
// balance sign.
package party

import (
	"context"
	"regexp"
	"strings"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/entity"
	"shopledger/internal/core/types"
)

var (
	emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phoneRE = regexp.MustCompile(`^\+?[0-9 ()-]{5,20}$`)
)

// Kind defines whether the party buys from or sells to the shop.
type Kind string

const (
	// KindCustomer: positive balance means the customer owes the shop.
	KindCustomer Kind = "customer"
	// KindSupplier: positive balance means the shop owes the supplier.
	KindSupplier Kind = "supplier"
)

// Label returns the human name used in errors.
func (k Kind) Label() string {
	switch k {
	case KindCustomer:
		return "Customer"
	case KindSupplier:
		return "Supplier"
	}
	return "Party"
}

// Party is a customer or a supplier.
type Party struct {
	entity.BaseEntity

	Kind Kind   `db:"kind" json:"kind"`
	Name string `db:"name" json:"name"`

	Phone   *string `db:"phone" json:"phone,omitempty"`
	Email   *string `db:"email" json:"email,omitempty"`
	Address *string `db:"address" json:"address,omitempty"`

	// CurrentBalance is derived state maintained by the ledger.
	// It is only written by ledger operations and reconciliation.
	CurrentBalance types.Money `db:"current_balance" json:"currentBalance"`
}

// NewParty creates a party with a zero balance.
func NewParty(kind Kind, name string) *Party {
	return &Party{
		BaseEntity:     entity.NewBaseEntity(),
		Kind:           kind,
		Name:           strings.TrimSpace(name),
		CurrentBalance: types.Zero(),
	}
}

// Validate implements entity.Validatable interface.
func (p *Party) Validate(ctx context.Context) error {
	if strings.TrimSpace(p.Name) == "" {
		return apperror.NewFieldValidation("name", "name is required")
	}

	if !IsValidKind(p.Kind) {
		return apperror.NewValidation("invalid party kind").
			WithDetail("field", "kind").
			WithDetail("value", string(p.Kind))
	}

	if p.Email != nil && *p.Email != "" && !emailRE.MatchString(*p.Email) {
		return apperror.NewFieldValidation("email", "invalid email format")
	}

	if p.Phone != nil && *p.Phone != "" && !phoneRE.MatchString(*p.Phone) {
		return apperror.NewFieldValidation("phone", "invalid phone format")
	}

	return nil
}

// IsCustomer returns true if the party is a customer.
func (p *Party) IsCustomer() bool {
	return p.Kind == KindCustomer
}

// IsSupplier returns true if the party is a supplier.
func (p *Party) IsSupplier() bool {
	return p.Kind == KindSupplier
}

// IsValidKind reports whether k is a known party kind.
func IsValidKind(k Kind) bool {
	switch k {
	case KindCustomer, KindSupplier:
		return true
	}
	return false
}
