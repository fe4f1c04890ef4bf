package repository

import (
	"context"

	"storefront-service/internal/apperror"
	"storefront-service/internal/entity"
	"storefront-service/internal/sharding"
)

// CatalogRepository holds categories and products. Products are returned in
// insertion order. Stock changes go through ReserveStock/ReleaseStock only.
type CatalogRepository interface {
	ListCategories(ctx context.Context) ([]entity.Category, error)
	GetCategory(ctx context.Context, id int) (*entity.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*entity.Category, error)
	ListProducts(ctx context.Context) ([]entity.Product, error)
	GetProduct(ctx context.Context, id int) (*entity.Product, error)
	GetProductBySlug(ctx context.Context, slug string) (*entity.Product, error)
	// ReserveStock decrements every line or none of them.
	ReserveStock(ctx context.Context, lines []entity.StockLine) error
	ReleaseStock(ctx context.Context, lines []entity.StockLine) error
}

// MemoryCatalogRepository keeps the catalog in process memory. The product
// set is fixed at construction; each product's quantity is guarded by the
// lock stripe of its id.
type MemoryCatalogRepository struct {
	categories []entity.Category
	products   []*entity.Product
	byID       map[int]*entity.Product
	bySlug     map[string]*entity.Product
	locker     *sharding.KeyedLocker
}

func NewMemoryCatalogRepository(seed Seed, locker *sharding.KeyedLocker) *MemoryCatalogRepository {
	r := &MemoryCatalogRepository{
		categories: append([]entity.Category(nil), seed.Categories...),
		byID:       make(map[int]*entity.Product, len(seed.Products)),
		bySlug:     make(map[string]*entity.Product, len(seed.Products)),
		locker:     locker,
	}
	for i := range seed.Products {
		p := seed.Products[i]
		if p.SalePrice != nil {
			sale := *p.SalePrice
			p.SalePrice = &sale
		}
		r.products = append(r.products, &p)
		r.byID[p.ID] = &p
		r.bySlug[p.Slug] = &p
	}
	return r
}

func (r *MemoryCatalogRepository) ListCategories(ctx context.Context) ([]entity.Category, error) {
	return append([]entity.Category(nil), r.categories...), nil
}

func (r *MemoryCatalogRepository) GetCategory(ctx context.Context, id int) (*entity.Category, error) {
	for _, c := range r.categories {
		if c.ID == id {
			c := c
			return &c, nil
		}
	}
	return nil, apperror.NotFound("Category", id)
}

func (r *MemoryCatalogRepository) GetCategoryBySlug(ctx context.Context, slug string) (*entity.Category, error) {
	for _, c := range r.categories {
		if c.Slug == slug {
			c := c
			return &c, nil
		}
	}
	return nil, apperror.NotFound("Category", slug)
}

func (r *MemoryCatalogRepository) ListProducts(ctx context.Context) ([]entity.Product, error) {
	products := make([]entity.Product, 0, len(r.products))
	for _, p := range r.products {
		products = append(products, r.snapshot(p))
	}
	return products, nil
}

func (r *MemoryCatalogRepository) GetProduct(ctx context.Context, id int) (*entity.Product, error) {
	p, ok := r.byID[id]
	if !ok {
		return nil, apperror.NotFound("Product", id)
	}
	product := r.snapshot(p)
	return &product, nil
}

func (r *MemoryCatalogRepository) GetProductBySlug(ctx context.Context, slug string) (*entity.Product, error) {
	p, ok := r.bySlug[slug]
	if !ok {
		return nil, apperror.NotFound("Product", slug)
	}
	product := r.snapshot(p)
	return &product, nil
}

func (r *MemoryCatalogRepository) ReserveStock(ctx context.Context, lines []entity.StockLine) error {
	merged, err := r.lockable(lines)
	if err != nil {
		return err
	}

	unlock := r.locker.LockIDs(stockIDs(merged)...)
	defer unlock()

	// Lines for the same product are checked against their combined quantity.
	for _, l := range merged {
		p := r.byID[l.ProductID]
		if p.Quantity < l.Quantity {
			return &apperror.InsufficientStockError{
				ProductID:   p.ID,
				ProductName: p.Name,
				Available:   p.Quantity,
				Requested:   l.Quantity,
			}
		}
	}
	for _, l := range merged {
		r.byID[l.ProductID].Quantity -= l.Quantity
	}
	return nil
}

func (r *MemoryCatalogRepository) ReleaseStock(ctx context.Context, lines []entity.StockLine) error {
	merged, err := r.lockable(lines)
	if err != nil {
		return err
	}

	unlock := r.locker.LockIDs(stockIDs(merged)...)
	defer unlock()

	for _, l := range merged {
		r.byID[l.ProductID].Quantity += l.Quantity
	}
	return nil
}

// lockable merges lines per product after checking every product exists.
func (r *MemoryCatalogRepository) lockable(lines []entity.StockLine) ([]entity.StockLine, error) {
	for _, l := range lines {
		if _, ok := r.byID[l.ProductID]; !ok {
			return nil, apperror.NotFound("Product", l.ProductID)
		}
	}
	return mergeStockLines(lines)
}

func stockIDs(lines []entity.StockLine) []int {
	ids := make([]int, len(lines))
	for i, l := range lines {
		ids[i] = l.ProductID
	}
	return ids
}

func (r *MemoryCatalogRepository) snapshot(p *entity.Product) entity.Product {
	unlock := r.locker.LockIDs(p.ID)
	defer unlock()

	product := *p
	if p.SalePrice != nil {
		sale := *p.SalePrice
		product.SalePrice = &sale
	}
	return product
}
