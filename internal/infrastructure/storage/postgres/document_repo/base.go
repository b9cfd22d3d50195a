// Package document_repo provides PostgreSQL implementations of the ledger
// document journals. Documents are append-only: there is no Update or Delete.
package document_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/domain"
	"shopledger/internal/infrastructure/storage/postgres"
)

var builder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var (
	newestFirst = []string{"date DESC", "created_at DESC", "id DESC"}
	oldestFirst = []string{"date ASC", "created_at ASC", "id ASC"}
)

// BaseDocumentRepo provides the shared journal operations for one document
// table.
type BaseDocumentRepo[T any] struct {
	txManager  *postgres.TxManager
	tableName  string
	entityName string
	selectCols []string

	// partyCol receives ListFilter.PartyID; empty when the journal has none
	partyCol string

	// searchCol receives ListFilter.Search
	searchCol string

	newFn func() T
}

// NewBaseDocumentRepo creates a new base document repository.
func NewBaseDocumentRepo[T any](
	txManager *postgres.TxManager,
	tableName, entityName string,
	selectCols []string,
	partyCol, searchCol string,
	newFn func() T,
) *BaseDocumentRepo[T] {
	return &BaseDocumentRepo[T]{
		txManager:  txManager,
		tableName:  tableName,
		entityName: entityName,
		selectCols: selectCols,
		partyCol:   partyCol,
		searchCol:  searchCol,
		newFn:      newFn,
	}
}

func (r *BaseDocumentRepo[T]) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

func (r *BaseDocumentRepo[T]) baseSelect() squirrel.SelectBuilder {
	return builder.Select(r.selectCols...).From(r.tableName)
}

// insertHeader inserts the document row. A second reversal of the same
// original violates the reversal_of unique key.
func (r *BaseDocumentRepo[T]) insertHeader(ctx context.Context, entity T) error {
	data := postgres.StructToMap(entity)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in entity")
	}

	sql, args, err := builder.Insert(r.tableName).SetMap(postgres.Pick(data, r.selectCols)).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.WriteError("insert", r.entityName, "number", fmt.Sprint(data["number"]), err)
	}
	return nil
}

// Create inserts a document without lines.
func (r *BaseDocumentRepo[T]) Create(ctx context.Context, entity T) error {
	return r.insertHeader(ctx, entity)
}

// GetByID retrieves a document header by ID.
func (r *BaseDocumentRepo[T]) GetByID(ctx context.Context, docID id.ID) (T, error) {
	entity := r.newFn()

	sql, args, err := r.baseSelect().Where(squirrel.Eq{"id": docID}).ToSql()
	if err != nil {
		return entity, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.querier(ctx), entity, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return entity, apperror.NewNotFound(r.entityName, docID.String())
		}
		return entity, fmt.Errorf("get %s: %w", r.tableName, err)
	}
	return entity, nil
}

// Where returns the documents matching cond, oldest first.
func (r *BaseDocumentRepo[T]) Where(ctx context.Context, cond squirrel.Sqlizer) ([]T, error) {
	sql, args, err := r.baseSelect().Where(cond).OrderBy(oldestFirst...).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	items := []T{}
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list %s: %w", r.tableName, err)
	}
	return items, nil
}

// List returns headers newest first. An OrderBy starting with "date" lists
// oldest first.
func (r *BaseDocumentRepo[T]) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[T], error) {
	result := domain.ListResult[T]{
		Items:  []T{},
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q, countQ := r.listQueries(filter)

	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
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

func (r *BaseDocumentRepo[T]) listQueries(filter domain.ListFilter) (squirrel.SelectBuilder, squirrel.SelectBuilder) {
	q := r.baseSelect()

	if filter.PartyID != nil && r.partyCol != "" {
		q = q.Where(squirrel.Eq{r.partyCol: *filter.PartyID})
	}
	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"date": *filter.DateTo})
	}
	if len(filter.IDs) > 0 {
		q = q.Where(squirrel.Eq{"id": filter.IDs})
	}
	if filter.Search != "" && r.searchCol != "" {
		q = q.Where(squirrel.ILike{r.searchCol: "%" + likeEscaper.Replace(filter.Search) + "%"})
	}

	countQ := builder.Select("COUNT(*)").FromSelect(q, "sub")

	if strings.HasPrefix(filter.OrderBy, "date") {
		q = q.OrderBy(oldestFirst...)
	} else {
		q = q.OrderBy(newestFirst...)
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}
	return q, countQ
}

// HasReversal reports whether a document reverses originalID.
func (r *BaseDocumentRepo[T]) HasReversal(ctx context.Context, originalID id.ID) (bool, error) {
	sql := "SELECT EXISTS (SELECT 1 FROM " + r.tableName + " WHERE reversal_of = $1)"

	var exists bool
	if err := r.querier(ctx).QueryRow(ctx, sql, originalID).Scan(&exists); err != nil {
		return false, fmt.Errorf("has reversal: %w", err)
	}
	return exists, nil
}

// insertLines queues one INSERT per line in a single batch.
func insertLines[L any](ctx context.Context, batch *postgres.BatchExecutor, table string, cols []string, lines []L) error {
	queries := make([]postgres.BatchQuery, 0, len(lines))
	for i := range lines {
		data := postgres.Pick(postgres.StructToMap(&lines[i]), cols)
		bq, err := postgres.QueryFrom(builder.Insert(table).SetMap(data))
		if err != nil {
			return fmt.Errorf("build insert line: %w", err)
		}
		queries = append(queries, bq)
	}
	return batch.ExecuteBatch(ctx, queries)
}

// selectLines loads the lines of one document ordered by line number.
func selectLines[L any](ctx context.Context, q postgres.Querier, table, fk string, cols []string, docID id.ID) ([]L, error) {
	sql, args, err := builder.Select(cols...).
		From(table).
		Where(squirrel.Eq{fk: docID}).
		OrderBy("line_no").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []L
	if err := pgxscan.Select(ctx, q, &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	return lines, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
