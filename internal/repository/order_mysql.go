package repository

import (
	"context"
	"database/sql"
	"errors"

	"storefront-service/internal/apperror"
	"storefront-service/internal/entity"
)

type MySQLOrderRepository struct {
	db *sql.DB
}

func NewMySQLOrderRepository(db *sql.DB) *MySQLOrderRepository {
	return &MySQLOrderRepository{db: db}
}

func (r *MySQLOrderRepository) CreateOrder(ctx context.Context, order *entity.Order) (*entity.Order, error) {
	// Start a transaction
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	// Insert order
	orderQuery := `INSERT INTO orders (status, total_amount, full_name, email, phone, address, city, pincode, notes, payment_method, session_id, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	s := order.Shipping
	res, err := tx.ExecContext(ctx, orderQuery, order.Status, order.TotalAmount, s.FullName, s.Email, s.Phone, s.Address, string(s.City), s.Pincode, s.Notes, string(order.PaymentMethod), order.SessionID, order.CreatedAt)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	orderID, err := res.LastInsertId()
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	// Insert order items
	itemQuery := `INSERT INTO order_items (order_id, product_id, quantity, price) VALUES (?, ?, ?, ?)`
	items := make([]entity.OrderItem, 0, len(order.Items))
	for _, item := range order.Items {
		res, err := tx.ExecContext(ctx, itemQuery, orderID, item.ProductID, item.Quantity, item.Price)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		itemID, err := res.LastInsertId()
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		item.ID = int(itemID)
		item.OrderID = int(orderID)
		items = append(items, item)
	}

	// Commit the transaction
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	created := *order
	created.ID = int(orderID)
	created.Items = items
	return &created, nil
}

func (r *MySQLOrderRepository) GetOrderByID(ctx context.Context, id int) (*entity.Order, error) {
	orderQuery := `SELECT id, status, total_amount, full_name, email, phone, address, city, pincode, notes, payment_method, session_id, created_at FROM orders WHERE id = ?`
	itemQuery := `SELECT id, order_id, product_id, quantity, price FROM order_items WHERE order_id = ? ORDER BY id`

	order := &entity.Order{}
	s := &order.Shipping
	var city, payment string
	err := r.db.QueryRowContext(ctx, orderQuery, id).Scan(&order.ID, &order.Status, &order.TotalAmount, &s.FullName, &s.Email, &s.Phone, &s.Address, &city, &s.Pincode, &s.Notes, &payment, &order.SessionID, &order.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("Order", id)
		}
		return nil, err
	}
	s.City = entity.Locality(city)
	order.PaymentMethod = entity.PaymentMethod(payment)

	rows, err := r.db.QueryContext(ctx, itemQuery, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		item := entity.OrderItem{}
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.Price); err != nil {
			return nil, err
		}
		order.Items = append(order.Items, item)
	}
	return order, rows.Err()
}

func (r *MySQLOrderRepository) DeleteOrder(ctx context.Context, id int) error {
	// Start a transaction
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = ?`, id)
	if err != nil {
		tx.Rollback()
		return err
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id)
	if err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}
