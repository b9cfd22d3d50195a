package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/entity"
	"shopledger/internal/core/id"
	"shopledger/internal/core/types"
	"shopledger/internal/domain"
	"shopledger/internal/domain/catalogs/category"
	"shopledger/internal/domain/catalogs/party"
	"shopledger/internal/domain/catalogs/product"
)

// catalog implements the shared CatalogRepository operations over a table.
type catalog[T any] struct {
	s          *Store
	tb         *table[T]
	entityName string
	base       func(*T) *entity.BaseEntity
	name       func(*T) string
}

func (c catalog[T]) create(ctx context.Context, v *T) error {
	return c.s.write(ctx, func(t *memTx) error {
		key := c.base(v).ID
		if c.tb.has(key) {
			return apperror.NewDuplicate(c.entityName, "id", key.String())
		}
		c.tb.insert(t, key, *v)
		return nil
	})
}

func (c catalog[T]) getByID(ctx context.Context, key id.ID) (*T, error) {
	var (
		v  *T
		ok bool
	)
	c.s.read(ctx, func() { v, ok = c.tb.get(key) })
	if !ok {
		return nil, apperror.NewNotFound(c.entityName, key.String())
	}
	return v, nil
}

// update checks the version, keeps the columns merge restores from the
// stored row and bumps the version.
func (c catalog[T]) update(ctx context.Context, v *T, merge func(stored, incoming *T)) error {
	return c.s.write(ctx, func(t *memTx) error {
		b := c.base(v)
		stored, ok := c.tb.get(b.ID)
		if !ok {
			return apperror.NewNotFound(c.entityName, b.ID.String())
		}
		if c.base(stored).Version != b.Version {
			return apperror.NewConcurrentModification(c.entityName, b.ID.String())
		}
		if merge != nil {
			merge(stored, v)
		}
		b.CreatedAt = c.base(stored).CreatedAt
		b.Touch()
		c.tb.replace(t, b.ID, *v)
		return nil
	})
}

func (c catalog[T]) list(ctx context.Context, filter domain.ListFilter, keep func(*T) bool) domain.ListResult[*T] {
	var items []*T
	c.s.read(ctx, func() {
		items = c.tb.all(func(v *T) bool {
			if len(filter.IDs) > 0 && !slices.Contains(filter.IDs, c.base(v).ID) {
				return false
			}
			if filter.Search != "" && !strings.Contains(strings.ToLower(c.name(v)), strings.ToLower(filter.Search)) {
				return false
			}
			return keep == nil || keep(v)
		})
	})

	desc := strings.HasPrefix(filter.OrderBy, "-")
	switch strings.TrimPrefix(filter.OrderBy, "-") {
	case "name", "":
		slices.SortStableFunc(items, func(a, b *T) int {
			return cmp.Compare(strings.ToLower(c.name(a)), strings.ToLower(c.name(b)))
		})
	case "created_at", "createdAt":
		slices.SortStableFunc(items, func(a, b *T) int {
			return c.base(a).CreatedAt.Compare(c.base(b).CreatedAt)
		})
	}
	if desc {
		slices.Reverse(items)
	}

	return domain.ListResult[*T]{
		Items:      paginate(items, filter.Limit, filter.Offset),
		TotalCount: int64(len(items)),
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}
}

func (c catalog[T]) exists(ctx context.Context, key id.ID) bool {
	var ok bool
	c.s.read(ctx, func() { ok = c.tb.has(key) })
	return ok
}

// --- Products ---

type productRepo struct {
	catalog[product.Product]
}

// Products returns the product repository.
func (s *Store) Products() product.Repository {
	return &productRepo{catalog[product.Product]{
		s:          s,
		tb:         s.products,
		entityName: "Product",
		base:       func(p *product.Product) *entity.BaseEntity { return &p.BaseEntity },
		name:       func(p *product.Product) string { return p.Name },
	}}
}

func (r *productRepo) Create(ctx context.Context, p *product.Product) error {
	return r.create(ctx, p)
}

func (r *productRepo) GetByID(ctx context.Context, key id.ID) (*product.Product, error) {
	return r.getByID(ctx, key)
}

// GetForUpdate returns the row; the transaction already holds the store lock.
func (r *productRepo) GetForUpdate(ctx context.Context, key id.ID) (*product.Product, error) {
	return r.getByID(ctx, key)
}

// Update writes descriptive fields only; inventory columns keep their stored values.
func (r *productRepo) Update(ctx context.Context, p *product.Product) error {
	return r.update(ctx, p, func(stored, in *product.Product) {
		in.Stock = stored.Stock
		in.IsBatchTracked = stored.IsBatchTracked
		in.BuyPrice = stored.BuyPrice
		if stored.IsBatchTracked {
			in.ExpiryDate = nil
		}
	})
}

func (r *productRepo) UpdateInventory(ctx context.Context, p *product.Product) error {
	return r.s.write(ctx, func(t *memTx) error {
		stored, ok := r.tb.get(p.ID)
		if !ok {
			return apperror.NewNotFound("Product", p.ID.String())
		}
		stored.Stock = p.Stock
		stored.IsBatchTracked = p.IsBatchTracked
		stored.ExpiryDate = p.ExpiryDate
		stored.BuyPrice = p.BuyPrice
		stored.UpdatedAt = r.s.now()
		r.tb.replace(t, p.ID, *stored)
		return nil
	})
}

func (r *productRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*product.Product], error) {
	return r.list(ctx, filter, nil), nil
}

func (r *productRepo) Exists(ctx context.Context, key id.ID) (bool, error) {
	return r.exists(ctx, key), nil
}

func (r *productRepo) ListBatchTrackedIDs(ctx context.Context) ([]id.ID, error) {
	var ids []id.ID
	r.s.read(ctx, func() {
		for _, p := range r.tb.all(func(p *product.Product) bool { return p.IsBatchTracked }) {
			ids = append(ids, p.ID)
		}
	})
	return ids, nil
}

// --- Batches ---

type batchRepo struct {
	s *Store
}

// Batches returns the product batch repository.
func (s *Store) Batches() product.BatchRepository {
	return &batchRepo{s: s}
}

func (r *batchRepo) Create(ctx context.Context, b *product.Batch) error {
	return r.s.write(ctx, func(t *memTx) error {
		for _, existing := range r.s.batches.rows {
			if existing.ProductID == b.ProductID && existing.BatchNumber == b.BatchNumber {
				return apperror.NewDuplicate("Batch", "batch_number", b.BatchNumber)
			}
		}
		r.s.batches.insert(t, b.ID, *b)
		return nil
	})
}

func (r *batchRepo) GetByID(ctx context.Context, key id.ID) (*product.Batch, error) {
	var (
		b  *product.Batch
		ok bool
	)
	r.s.read(ctx, func() { b, ok = r.s.batches.get(key) })
	if !ok {
		return nil, apperror.NewNotFound("Batch", key.String())
	}
	return b, nil
}

func (r *batchRepo) GetForUpdate(ctx context.Context, key id.ID) (*product.Batch, error) {
	return r.GetByID(ctx, key)
}

func (r *batchRepo) GetByNumber(ctx context.Context, productID id.ID, number string) (*product.Batch, error) {
	var found []*product.Batch
	r.s.read(ctx, func() {
		found = r.s.batches.all(func(b *product.Batch) bool {
			return b.ProductID == productID && b.BatchNumber == number
		})
	})
	if len(found) == 0 {
		return nil, apperror.NewNotFound("Batch", number)
	}
	return found[0], nil
}

func (r *batchRepo) ListByProduct(ctx context.Context, productID id.ID) ([]*product.Batch, error) {
	var batches []*product.Batch
	r.s.read(ctx, func() {
		batches = r.s.batches.all(func(b *product.Batch) bool { return b.ProductID == productID })
	})
	slices.SortStableFunc(batches, func(a, b *product.Batch) int {
		switch {
		case a.ExpiryDate == nil && b.ExpiryDate == nil:
		case a.ExpiryDate == nil:
			return 1
		case b.ExpiryDate == nil:
			return -1
		default:
			if c := a.ExpiryDate.Compare(*b.ExpiryDate); c != 0 {
				return c
			}
		}
		return cmp.Compare(a.BatchNumber, b.BatchNumber)
	})
	return batches, nil
}

func (r *batchRepo) UpdateStock(ctx context.Context, b *product.Batch) error {
	return r.s.write(ctx, func(t *memTx) error {
		stored, ok := r.s.batches.get(b.ID)
		if !ok {
			return apperror.NewNotFound("Batch", b.ID.String())
		}
		if b.CurrentStock < 0 || b.CurrentStock > b.InitialStock {
			return apperror.NewValidation("batch stock out of range").
				WithDetail("batch_id", b.ID.String()).
				WithDetail("current", b.CurrentStock).
				WithDetail("initial", b.InitialStock)
		}
		stored.InitialStock = b.InitialStock
		stored.CurrentStock = b.CurrentStock
		stored.Touch()
		r.s.batches.replace(t, b.ID, *stored)
		return nil
	})
}

func (r *batchRepo) SumCurrentStock(ctx context.Context, productID id.ID) (int64, error) {
	var sum int64
	r.s.read(ctx, func() {
		for _, b := range r.s.batches.rows {
			if b.ProductID == productID {
				sum += b.CurrentStock
			}
		}
	})
	return sum, nil
}

// --- Parties ---

type partyRepo struct {
	catalog[party.Party]
}

// Parties returns the customer/supplier repository.
func (s *Store) Parties() party.Repository {
	return &partyRepo{catalog[party.Party]{
		s:          s,
		tb:         s.parties,
		entityName: "Party",
		base:       func(p *party.Party) *entity.BaseEntity { return &p.BaseEntity },
		name:       func(p *party.Party) string { return p.Name },
	}}
}

func (r *partyRepo) Create(ctx context.Context, p *party.Party) error {
	return r.create(ctx, p)
}

func (r *partyRepo) GetByID(ctx context.Context, key id.ID) (*party.Party, error) {
	return r.getByID(ctx, key)
}

func (r *partyRepo) GetForUpdate(ctx context.Context, key id.ID) (*party.Party, error) {
	return r.getByID(ctx, key)
}

// Update writes contact fields; kind and balance keep their stored values.
func (r *partyRepo) Update(ctx context.Context, p *party.Party) error {
	return r.update(ctx, p, func(stored, in *party.Party) {
		in.Kind = stored.Kind
		in.CurrentBalance = stored.CurrentBalance
	})
}

func (r *partyRepo) UpdateBalance(ctx context.Context, key id.ID, balance types.Money) error {
	return r.s.write(ctx, func(t *memTx) error {
		stored, ok := r.tb.get(key)
		if !ok {
			return apperror.NewNotFound("Party", key.String())
		}
		stored.CurrentBalance = balance
		stored.UpdatedAt = r.s.now()
		r.tb.replace(t, key, *stored)
		return nil
	})
}

func (r *partyRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*party.Party], error) {
	return r.list(ctx, filter, func(p *party.Party) bool {
		return filter.Kind == "" || string(p.Kind) == filter.Kind
	}), nil
}

func (r *partyRepo) Exists(ctx context.Context, key id.ID) (bool, error) {
	return r.exists(ctx, key), nil
}

func (r *partyRepo) ListIDs(ctx context.Context, kind party.Kind) ([]id.ID, error) {
	var ids []id.ID
	r.s.read(ctx, func() {
		for _, p := range r.tb.all(func(p *party.Party) bool { return kind == "" || p.Kind == kind }) {
			ids = append(ids, p.ID)
		}
	})
	return ids, nil
}

// --- Categories ---

type categoryRepo struct {
	catalog[category.Category]
}

// Categories returns the category repository.
func (s *Store) Categories() category.Repository {
	return &categoryRepo{catalog[category.Category]{
		s:          s,
		tb:         s.categories,
		entityName: "Category",
		base:       func(c *category.Category) *entity.BaseEntity { return &c.BaseEntity },
		name:       func(c *category.Category) string { return c.Name },
	}}
}

func (r *categoryRepo) Create(ctx context.Context, c *category.Category) error {
	return r.create(ctx, c)
}

func (r *categoryRepo) GetByID(ctx context.Context, key id.ID) (*category.Category, error) {
	return r.getByID(ctx, key)
}

func (r *categoryRepo) Update(ctx context.Context, c *category.Category) error {
	return r.update(ctx, c, nil)
}

func (r *categoryRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*category.Category], error) {
	return r.list(ctx, filter, nil), nil
}

func (r *categoryRepo) Exists(ctx context.Context, key id.ID) (bool, error) {
	return r.exists(ctx, key), nil
}

func (r *categoryRepo) GetByName(ctx context.Context, name string) (*category.Category, error) {
	var found []*category.Category
	r.s.read(ctx, func() {
		found = r.tb.all(func(c *category.Category) bool { return strings.EqualFold(c.Name, strings.TrimSpace(name)) })
	})
	if len(found) == 0 {
		return nil, apperror.NewNotFound("Category", name)
	}
	return found[0], nil
}
