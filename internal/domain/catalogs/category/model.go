// Package category provides the product category catalog.
package category

import (
	"context"
	"strings"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/entity"
)

// Category groups products for listing and reporting.
type Category struct {
	entity.BaseEntity

	Name        string  `db:"name" json:"name"`
	Description *string `db:"description" json:"description,omitempty"`
}

// NewCategory creates a new Category.
func NewCategory(name string) *Category {
	return &Category{
		BaseEntity: entity.NewBaseEntity(),
		Name:       strings.TrimSpace(name),
	}
}

// Validate implements entity.Validatable interface.
func (c *Category) Validate(ctx context.Context) error {
	if strings.TrimSpace(c.Name) == "" {
		return apperror.NewFieldValidation("name", "name is required")
	}
	if len(c.Name) > 100 {
		return apperror.NewFieldValidation("name", "name must be at most 100 characters")
	}
	return nil
}
