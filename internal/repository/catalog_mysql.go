package repository

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"github.com/jmoiron/sqlx"

	"storefront-service/internal/apperror"
	"storefront-service/internal/entity"
)

const productColumns = `id, name, slug, description, price, sale_price, image_url, quantity, category_id,
	is_featured, is_best_seller, is_new, is_organic, is_premium, city, ratings, review_count, nutritional_info, weight`

// MySQLCatalogRepository reads the catalog from MySQL. Stock is reserved with
// conditional updates inside one transaction.
type MySQLCatalogRepository struct {
	db *sqlx.DB
}

func NewMySQLCatalogRepository(db *sqlx.DB) *MySQLCatalogRepository {
	return &MySQLCatalogRepository{db: db}
}

func (r *MySQLCatalogRepository) ListCategories(ctx context.Context) ([]entity.Category, error) {
	var categories []entity.Category
	query := `SELECT id, name, slug, description, image_url FROM categories ORDER BY id`
	if err := r.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *MySQLCatalogRepository) GetCategory(ctx context.Context, id int) (*entity.Category, error) {
	var category entity.Category
	query := `SELECT id, name, slug, description, image_url FROM categories WHERE id = ?`
	if err := r.db.GetContext(ctx, &category, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("Category", id)
		}
		return nil, err
	}
	return &category, nil
}

func (r *MySQLCatalogRepository) GetCategoryBySlug(ctx context.Context, slug string) (*entity.Category, error) {
	var category entity.Category
	query := `SELECT id, name, slug, description, image_url FROM categories WHERE slug = ?`
	if err := r.db.GetContext(ctx, &category, query, slug); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("Category", slug)
		}
		return nil, err
	}
	return &category, nil
}

func (r *MySQLCatalogRepository) ListProducts(ctx context.Context) ([]entity.Product, error) {
	var products []entity.Product
	query := `SELECT ` + productColumns + ` FROM products ORDER BY id`
	if err := r.db.SelectContext(ctx, &products, query); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *MySQLCatalogRepository) GetProduct(ctx context.Context, id int) (*entity.Product, error) {
	var product entity.Product
	query := `SELECT ` + productColumns + ` FROM products WHERE id = ?`
	if err := r.db.GetContext(ctx, &product, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("Product", id)
		}
		return nil, err
	}
	return &product, nil
}

func (r *MySQLCatalogRepository) GetProductBySlug(ctx context.Context, slug string) (*entity.Product, error) {
	var product entity.Product
	query := `SELECT ` + productColumns + ` FROM products WHERE slug = ?`
	if err := r.db.GetContext(ctx, &product, query, slug); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("Product", slug)
		}
		return nil, err
	}
	return &product, nil
}

func (r *MySQLCatalogRepository) ReserveStock(ctx context.Context, lines []entity.StockLine) error {
	merged, err := mergeStockLines(lines)
	if err != nil {
		return err
	}

	// Start a transaction
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	for _, line := range merged {
		res, err := tx.ExecContext(ctx, `UPDATE products SET quantity = quantity - ? WHERE id = ? AND quantity >= ?`,
			line.Quantity, line.ProductID, line.Quantity)
		if err != nil {
			tx.Rollback()
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			tx.Rollback()
			return err
		}
		if affected == 1 {
			continue
		}

		var current struct {
			Name     string `db:"name"`
			Quantity int    `db:"quantity"`
		}
		err = tx.GetContext(ctx, &current, `SELECT name, quantity FROM products WHERE id = ?`, line.ProductID)
		tx.Rollback()
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperror.NotFound("Product", line.ProductID)
			}
			return err
		}
		return &apperror.InsufficientStockError{
			ProductID:   line.ProductID,
			ProductName: current.Name,
			Available:   current.Quantity,
			Requested:   line.Quantity,
		}
	}

	// Commit the transaction
	return tx.Commit()
}

func (r *MySQLCatalogRepository) ReleaseStock(ctx context.Context, lines []entity.StockLine) error {
	merged, err := mergeStockLines(lines)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	for _, line := range merged {
		_, err := tx.ExecContext(ctx, `UPDATE products SET quantity = quantity + ? WHERE id = ?`, line.Quantity, line.ProductID)
		if err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// mergeStockLines sums lines per product and orders them by product id so
// concurrent transactions lock rows in the same order. Every line and every
// per-product sum must lie in [1, MaxLineQuantity].
func mergeStockLines(lines []entity.StockLine) ([]entity.StockLine, error) {
	totals := make(map[int]int, len(lines))
	for _, l := range lines {
		if l.Quantity < 1 || l.Quantity > entity.MaxLineQuantity {
			return nil, apperror.Validation("quantity", "must be between 1 and %d", entity.MaxLineQuantity)
		}
		totals[l.ProductID] += l.Quantity
		if totals[l.ProductID] > entity.MaxLineQuantity {
			return nil, apperror.Validation("quantity", "product %d exceeds %d units", l.ProductID, entity.MaxLineQuantity)
		}
	}
	merged := make([]entity.StockLine, 0, len(totals))
	for id, qty := range totals {
		merged = append(merged, entity.StockLine{ProductID: id, Quantity: qty})
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].ProductID < merged[j].ProductID })
	return merged, nil
}
