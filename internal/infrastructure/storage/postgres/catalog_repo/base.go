// Package catalog_repo provides PostgreSQL implementations of the catalog
// repositories (products, batches, parties, categories).
package catalog_repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/domain"
	"shopledger/internal/infrastructure/storage/postgres"
)

// builder renders squirrel queries with $n placeholders.
var builder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// BaseCatalogRepo provides the shared CatalogRepository operations.
// Embed it in specific catalog repositories.
type BaseCatalogRepo[T any] struct {
	txManager  *postgres.TxManager
	tableName  string
	entityName string
	selectCols []string

	// updateCols are the descriptive columns Update may write.
	// Derived ledger state is never listed here.
	updateCols []string

	newFn func() T
}

// NewBaseCatalogRepo creates a new base catalog repository.
func NewBaseCatalogRepo[T any](
	txManager *postgres.TxManager,
	tableName, entityName string,
	selectCols, updateCols []string,
	newFn func() T,
) *BaseCatalogRepo[T] {
	return &BaseCatalogRepo[T]{
		txManager:  txManager,
		tableName:  tableName,
		entityName: entityName,
		selectCols: selectCols,
		updateCols: updateCols,
		newFn:      newFn,
	}
}

func (r *BaseCatalogRepo[T]) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

func (r *BaseCatalogRepo[T]) baseSelect() squirrel.SelectBuilder {
	return builder.Select(r.selectCols...).From(r.tableName)
}

// Create inserts a new entity using its "db" tags.
func (r *BaseCatalogRepo[T]) Create(ctx context.Context, entity T) error {
	data := postgres.StructToMap(entity)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in entity")
	}

	sql, args, err := builder.Insert(r.tableName).SetMap(postgres.Pick(data, r.selectCols)).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.WriteError("insert", r.entityName, "id", fmt.Sprint(data["id"]), err)
	}
	return nil
}

// GetByID retrieves entity by ID.
func (r *BaseCatalogRepo[T]) GetByID(ctx context.Context, entityID id.ID) (T, error) {
	return r.FindOne(ctx, r.baseSelect().Where(squirrel.Eq{"id": entityID}), entityID.String())
}

// GetForUpdate retrieves entity by ID and locks the row until the
// transaction ends.
func (r *BaseCatalogRepo[T]) GetForUpdate(ctx context.Context, entityID id.ID) (T, error) {
	return r.FindOne(ctx, r.baseSelect().Where(squirrel.Eq{"id": entityID}).Suffix("FOR UPDATE"), entityID.String())
}

// FindOne executes q and scans a single row; NotFound names key.
func (r *BaseCatalogRepo[T]) FindOne(ctx context.Context, q squirrel.SelectBuilder, key string) (T, error) {
	entity := r.newFn()

	sql, args, err := q.ToSql()
	if err != nil {
		return entity, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.querier(ctx), entity, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return entity, apperror.NewNotFound(r.entityName, key)
		}
		return entity, fmt.Errorf("get %s: %w", r.tableName, err)
	}
	return entity, nil
}

// Update writes updateCols with optimistic locking and reloads the row
// into entity, so derived columns reflect the stored values.
func (r *BaseCatalogRepo[T]) Update(ctx context.Context, entity T) error {
	return r.UpdateWith(ctx, entity, nil)
}

// UpdateWith is Update with extra SET expressions.
func (r *BaseCatalogRepo[T]) UpdateWith(ctx context.Context, entity T, extra map[string]any) error {
	q, entityID, err := r.updateQuery(entity, extra)
	if err != nil {
		return err
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	if err := pgxscan.Get(ctx, r.querier(ctx), entity, sql, args...); err != nil {
		if !pgxscan.NotFound(err) {
			return postgres.WriteError("update", r.entityName, "id", entityID.String(), err)
		}
		exists, existsErr := r.Exists(ctx, entityID)
		if existsErr != nil {
			return existsErr
		}
		if exists {
			return apperror.NewConcurrentModification(r.entityName, entityID.String())
		}
		return apperror.NewNotFound(r.entityName, entityID.String())
	}
	return nil
}

func (r *BaseCatalogRepo[T]) updateQuery(entity T, extra map[string]any) (squirrel.UpdateBuilder, id.ID, error) {
	data := postgres.StructToMap(entity)
	entityID, ok := data["id"].(id.ID)
	if !ok {
		return squirrel.UpdateBuilder{}, entityID, fmt.Errorf("entity has no 'id' field")
	}
	version, ok := data["version"].(int)
	if !ok {
		return squirrel.UpdateBuilder{}, entityID, fmt.Errorf("entity has no 'version' field or it is not an int")
	}

	q := builder.Update(r.tableName).
		SetMap(postgres.Pick(data, r.updateCols))
	for col, val := range extra {
		q = q.Set(col, val)
	}
	q = q.
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": entityID}).
		Where(squirrel.Eq{"version": version}).
		Suffix("RETURNING " + strings.Join(r.selectCols, ", "))
	return q, entityID, nil
}

// List retrieves entities with filtering and pagination.
func (r *BaseCatalogRepo[T]) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[T], error) {
	return r.ListFrom(ctx, r.baseSelect(), filter)
}

// ListFrom applies the common filters, ordering and pagination to base.
func (r *BaseCatalogRepo[T]) ListFrom(ctx context.Context, base squirrel.SelectBuilder, filter domain.ListFilter) (domain.ListResult[T], error) {
	result := domain.ListResult[T]{
		Items:  []T{},
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q, countQ, err := r.listQueries(base, filter)
	if err != nil {
		return result, err
	}

	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}
	querier := r.querier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count %s: %w", r.tableName, err)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list %s: %w", r.tableName, err)
	}
	return result, nil
}

func (r *BaseCatalogRepo[T]) listQueries(q squirrel.SelectBuilder, filter domain.ListFilter) (squirrel.SelectBuilder, squirrel.SelectBuilder, error) {
	if filter.Search != "" {
		q = q.Where(squirrel.ILike{"name": "%" + escapeLike(filter.Search) + "%"})
	}
	if len(filter.IDs) > 0 {
		q = q.Where(squirrel.Eq{"id": filter.IDs})
	}

	countQ := builder.Select("COUNT(*)").FromSelect(q, "sub")

	orderBy, err := r.parseOrderBy(filter.OrderBy)
	if err != nil {
		return q, countQ, err
	}
	q = q.OrderBy(orderBy, "id ASC")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}
	return q, countQ, nil
}

// Exists checks if entity exists.
func (r *BaseCatalogRepo[T]) Exists(ctx context.Context, entityID id.ID) (bool, error) {
	sql, args, err := builder.Select("1").From(r.tableName).Where(squirrel.Eq{"id": entityID}).Limit(1).ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var one int
	err = r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("exists: %w", err)
	}
	return true, nil
}

// SelectIDs runs q (selecting a single id column) and returns the IDs.
func (r *BaseCatalogRepo[T]) SelectIDs(ctx context.Context, q squirrel.SelectBuilder) ([]id.ID, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rows, err := r.querier(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s ids: %w", r.tableName, err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[id.ID])
	if err != nil {
		return nil, fmt.Errorf("scan %s ids: %w", r.tableName, err)
	}
	return ids, nil
}

// parseOrderBy accepts "field" or "-field" for the whitelisted columns.
func (r *BaseCatalogRepo[T]) parseOrderBy(orderBy string) (string, error) {
	orderBy = strings.TrimSpace(orderBy)
	if orderBy == "" {
		return "name ASC", nil
	}

	direction := "ASC"
	field := orderBy
	if strings.HasPrefix(orderBy, "-") {
		direction = "DESC"
		field = strings.TrimPrefix(orderBy, "-")
	} else if strings.HasPrefix(orderBy, "+") {
		field = strings.TrimPrefix(orderBy, "+")
	}

	field = columnName(strings.TrimSpace(field))
	if field == "" || !containsCol(r.selectCols, field) {
		return "", apperror.NewValidation("invalid orderBy").WithDetail("orderBy", orderBy)
	}
	return field + " " + direction, nil
}

// columnName maps API camelCase names (createdAt) onto columns (created_at).
func columnName(field string) string {
	var b strings.Builder
	for i, c := range field {
		if c >= 'A' && c <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(c + ('a' - 'A'))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

func containsCol(cols []string, col string) bool {
	for _, c := range cols {
		if c == col {
			return true
		}
	}
	return false
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
