package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-harga/internal/order"
	"github.com/noah-isme/backend-harga/internal/timeline"
)

// Orders persists placed orders and their captured price lines.
type Orders struct {
	Pool *pgxpool.Pool
}

// Create inserts an order and its lines in one transaction.
func (r *Orders) Create(ctx context.Context, o order.Order) error {
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const insertOrder = `
INSERT INTO orders (id, email, order_date, created_at)
VALUES ($1, $2, $3, $4)
`
	if _, err := tx.Exec(ctx, insertOrder, o.ID, o.Email, o.OrderDate, time.Now().UTC()); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return order.ErrOrderExists
		}
		return fmt.Errorf("insert order: %w", err)
	}

	const insertLine = `
INSERT INTO order_lines (id, order_id, product_id, product_name, amount, effective_from, quantity)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`
	for _, line := range o.Lines {
		_, err := tx.Exec(ctx, insertLine,
			uuid.New(), o.ID, line.ProductID, line.ProductName,
			line.Price.Amount.String(), line.Price.EffectiveFrom, line.Quantity)
		if err != nil {
			return fmt.Errorf("insert order line: %w", err)
		}
	}
	return tx.Commit(ctx)
}

// GetByEmailAndDate loads the order identified by email and order date.
func (r *Orders) GetByEmailAndDate(ctx context.Context, email string, orderDate time.Time) (order.Order, error) {
	const q = `
SELECT id, email, order_date
FROM orders
WHERE email = $1 AND order_date = $2
`
	var o order.Order
	if err := r.Pool.QueryRow(ctx, q, email, orderDate).Scan(&o.ID, &o.Email, &o.OrderDate); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return order.Order{}, order.ErrOrderNotFound
		}
		return order.Order{}, fmt.Errorf("get order: %w", err)
	}
	o.OrderDate = o.OrderDate.UTC()

	lines, err := r.orderLines(ctx, []uuid.UUID{o.ID})
	if err != nil {
		return order.Order{}, err
	}
	o.Lines = lines[o.ID]
	return o, nil
}

// List returns orders placed within the optional [from, to] bounds, oldest
// first. Nil bounds are open.
func (r *Orders) List(ctx context.Context, from, to *time.Time) ([]order.Order, error) {
	const q = `
SELECT id, email, order_date
FROM orders
WHERE ($1::timestamptz IS NULL OR order_date >= $1)
  AND ($2::timestamptz IS NULL OR order_date <= $2)
ORDER BY order_date, email
`
	rows, err := r.Pool.Query(ctx, q, from, to)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []order.Order
	var ids []uuid.UUID
	for rows.Next() {
		var o order.Order
		if err := rows.Scan(&o.ID, &o.Email, &o.OrderDate); err != nil {
			return nil, err
		}
		o.OrderDate = o.OrderDate.UTC()
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	lines, err := r.orderLines(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Lines = lines[orders[i].ID]
	}
	return orders, nil
}

func (r *Orders) orderLines(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID][]order.Line, error) {
	result := make(map[uuid.UUID][]order.Line, len(orderIDs))
	if len(orderIDs) == 0 {
		return result, nil
	}
	const q = `
SELECT order_id, product_id, product_name, amount::text, effective_from, quantity
FROM order_lines
WHERE order_id = ANY($1)
ORDER BY order_id, product_name
`
	rows, err := r.Pool.Query(ctx, q, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("list order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var orderID uuid.UUID
		var line order.Line
		var amountText string
		var effectiveFrom time.Time
		if err := rows.Scan(&orderID, &line.ProductID, &line.ProductName, &amountText, &effectiveFrom, &line.Quantity); err != nil {
			return nil, err
		}
		amount, err := decimal.NewFromString(amountText)
		if err != nil {
			return nil, fmt.Errorf("parse amount %q: %w", amountText, err)
		}
		line.Price = timeline.Entry{Amount: amount, EffectiveFrom: effectiveFrom.UTC()}
		result[orderID] = append(result[orderID], line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
