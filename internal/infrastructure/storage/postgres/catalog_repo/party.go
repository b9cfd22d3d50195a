package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/core/types"
	"shopledger/internal/domain"
	"shopledger/internal/domain/catalogs/party"
	"shopledger/internal/infrastructure/storage/postgres"
)

const partiesTable = "parties"

// PartyRepo implements party.Repository for customers and suppliers.
type PartyRepo struct {
	*BaseCatalogRepo[*party.Party]
}

var _ party.Repository = (*PartyRepo)(nil)

// NewPartyRepo creates a new party repository.
func NewPartyRepo(txManager *postgres.TxManager) *PartyRepo {
	return &PartyRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txManager,
			partiesTable,
			"Party",
			postgres.ExtractDBColumns[party.Party](),
			[]string{"name", "phone", "email", "address"},
			func() *party.Party { return new(party.Party) },
		),
	}
}

// List narrows by filter.Kind when set.
func (r *PartyRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*party.Party], error) {
	return r.ListFrom(ctx, r.kindSelect(party.Kind(filter.Kind)), filter)
}

func (r *PartyRepo) kindSelect(kind party.Kind) squirrel.SelectBuilder {
	q := r.baseSelect()
	if kind != "" {
		q = q.Where(squirrel.Eq{"kind": string(kind)})
	}
	return q
}

// UpdateBalance implements party.Repository.
func (r *PartyRepo) UpdateBalance(ctx context.Context, partyID id.ID, balance types.Money) error {
	sql, args, err := builder.Update(partiesTable).
		Set("current_balance", types.Round(balance)).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": partyID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.WriteError("update balance", "Party", "id", partyID.String(), err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("Party", partyID.String())
	}
	return nil
}

// ListIDs implements party.Repository.
func (r *PartyRepo) ListIDs(ctx context.Context, kind party.Kind) ([]id.ID, error) {
	q := builder.Select("id").From(partiesTable).OrderBy("id")
	if kind != "" {
		q = q.Where(squirrel.Eq{"kind": string(kind)})
	}
	return r.SelectIDs(ctx, q)
}
