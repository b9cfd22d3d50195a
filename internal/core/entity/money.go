package entity

import (
	"fmt"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/types"
)

// CheckMoneyScale rejects an amount with more fractional digits than the
// money columns keep. Returns nil when m fits.
func CheckMoneyScale(field string, m types.Money) *apperror.AppError {
	if types.HasMoneyScale(m) {
		return nil
	}
	return apperror.NewFieldValidation(field, fmt.Sprintf("%s must have at most %d decimal places", field, types.MoneyScale)).
		WithDetail("value", m.String())
}
