package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"storefront-service/internal/repository"
)

var tables = []struct {
	name  string
	query string
}{
	{"categories", `
		CREATE TABLE IF NOT EXISTS categories (
			id INT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			slug VARCHAR(255) NOT NULL UNIQUE,
			description TEXT NOT NULL,
			image_url VARCHAR(512) NOT NULL
		);
	`},
	{"products", `
		CREATE TABLE IF NOT EXISTS products (
			id INT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			slug VARCHAR(255) NOT NULL UNIQUE,
			description TEXT NOT NULL,
			price DOUBLE NOT NULL,
			sale_price DOUBLE NULL,
			image_url VARCHAR(512) NOT NULL,
			quantity INT NOT NULL,
			category_id INT NOT NULL,
			is_featured BOOLEAN NOT NULL DEFAULT FALSE,
			is_best_seller BOOLEAN NOT NULL DEFAULT FALSE,
			is_new BOOLEAN NOT NULL DEFAULT FALSE,
			is_organic BOOLEAN NOT NULL DEFAULT FALSE,
			is_premium BOOLEAN NOT NULL DEFAULT FALSE,
			city VARCHAR(20) NOT NULL,
			ratings DOUBLE NOT NULL DEFAULT 0,
			review_count INT NOT NULL DEFAULT 0,
			nutritional_info TEXT NOT NULL,
			weight VARCHAR(50) NOT NULL,
			CHECK (quantity >= 0),
			FOREIGN KEY (category_id) REFERENCES categories(id)
		);
	`},
	{"orders", `
		CREATE TABLE IF NOT EXISTS orders (
			id INT AUTO_INCREMENT PRIMARY KEY,
			status VARCHAR(20) NOT NULL,
			total_amount DOUBLE NOT NULL,
			full_name VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL,
			phone VARCHAR(20) NOT NULL,
			address TEXT NOT NULL,
			city VARCHAR(20) NOT NULL,
			pincode CHAR(6) NOT NULL,
			notes TEXT NOT NULL,
			payment_method VARCHAR(10) NOT NULL,
			session_id VARCHAR(255) NOT NULL,
			created_at DATETIME NOT NULL
		);
	`},
	{"order_items", `
		CREATE TABLE IF NOT EXISTS order_items (
			id INT AUTO_INCREMENT PRIMARY KEY,
			order_id INT NOT NULL,
			product_id INT NOT NULL,
			quantity INT NOT NULL,
			price DOUBLE NOT NULL,
			FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE
		);
	`},
}

// AutoMigrate creates the storefront tables if they do not exist, retrying
// each statement up to retries times.
func AutoMigrate(retries int, db *sql.DB) error {
	for _, t := range tables {
		_, err := db.Exec(t.query)
		if err != nil {
			// Retry creating the table
			for i := 0; i < retries; i++ {
				time.Sleep(retryDelay)
				_, err = db.Exec(t.query)
				if err == nil {
					break
				}
			}
		}
		if err != nil {
			return fmt.Errorf("migrate %s table: %w", t.name, err)
		}
	}
	return nil
}

var retryDelay = time.Second

// SeedCatalog inserts the seed catalog into an empty products table. It
// reports whether anything was inserted.
func SeedCatalog(ctx context.Context, db *sqlx.DB, seed repository.Seed) (bool, error) {
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(*) FROM products`); err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	if len(seed.Categories) > 0 {
		_, err = tx.NamedExecContext(ctx, `INSERT INTO categories (id, name, slug, description, image_url)
			VALUES (:id, :name, :slug, :description, :image_url)`, seed.Categories)
		if err != nil {
			return false, fmt.Errorf("seed categories: %w", err)
		}
	}
	if len(seed.Products) > 0 {
		_, err = tx.NamedExecContext(ctx, `INSERT INTO products (id, name, slug, description, price, sale_price, image_url, quantity,
			category_id, is_featured, is_best_seller, is_new, is_organic, is_premium, city, ratings, review_count, nutritional_info, weight)
			VALUES (:id, :name, :slug, :description, :price, :sale_price, :image_url, :quantity,
			:category_id, :is_featured, :is_best_seller, :is_new, :is_organic, :is_premium, :city, :ratings, :review_count, :nutritional_info, :weight)`,
			seed.Products)
		if err != nil {
			return false, fmt.Errorf("seed products: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}
