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

	"github.com/noah-isme/backend-harga/internal/catalog"
	"github.com/noah-isme/backend-harga/internal/timeline"
)

const uniqueViolation = "23505"

// Products persists catalog products and their price histories.
type Products struct {
	Pool *pgxpool.Pool
}

// Create inserts a product and its initial price entries in one transaction.
func (r *Products) Create(ctx context.Context, product catalog.Product) error {
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const insertProduct = `
INSERT INTO products (id, name, created_at)
VALUES ($1, $2, $3)
`
	if _, err := tx.Exec(ctx, insertProduct, product.ID, product.Name, product.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return catalog.ErrProductExists
		}
		return fmt.Errorf("insert product: %w", err)
	}
	for _, entry := range product.Prices.Entries() {
		if err := insertPrice(ctx, tx, product.ID, entry); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// AppendPrice adds one price entry to a product's history. An entry with the
// same effective date as an existing one is dropped silently.
func (r *Products) AppendPrice(ctx context.Context, productID uuid.UUID, entry timeline.Entry) error {
	return insertPrice(ctx, r.Pool, productID, entry)
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertPrice(ctx context.Context, db execer, productID uuid.UUID, entry timeline.Entry) error {
	const q = `
INSERT INTO prices (id, product_id, amount, effective_from)
VALUES ($1, $2, $3, $4)
ON CONFLICT (product_id, effective_from) DO NOTHING
`
	if _, err := db.Exec(ctx, q, uuid.New(), productID, entry.Amount.String(), entry.EffectiveFrom); err != nil {
		return fmt.Errorf("insert price: %w", err)
	}
	return nil
}

// GetByName loads one product with its full price history.
func (r *Products) GetByName(ctx context.Context, name string) (catalog.Product, error) {
	const q = `
SELECT id, name, created_at
FROM products
WHERE name = $1
`
	var product catalog.Product
	if err := r.Pool.QueryRow(ctx, q, name).Scan(&product.ID, &product.Name, &product.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return catalog.Product{}, catalog.ErrProductNotFound
		}
		return catalog.Product{}, fmt.Errorf("get product: %w", err)
	}
	histories, err := r.priceHistories(ctx, []uuid.UUID{product.ID})
	if err != nil {
		return catalog.Product{}, err
	}
	product.Prices = histories[product.ID]
	return product, nil
}

// GetByNames loads several products keyed by name. Names without a matching
// product are simply absent from the result.
func (r *Products) GetByNames(ctx context.Context, names []string) (map[string]catalog.Product, error) {
	result := make(map[string]catalog.Product, len(names))
	if len(names) == 0 {
		return result, nil
	}
	const q = `
SELECT id, name, created_at
FROM products
WHERE name = ANY($1)
`
	rows, err := r.Pool.Query(ctx, q, names)
	if err != nil {
		return nil, fmt.Errorf("get products by name: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var product catalog.Product
		if err := rows.Scan(&product.ID, &product.Name, &product.CreatedAt); err != nil {
			return nil, err
		}
		result[product.Name] = product
		ids = append(ids, product.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	histories, err := r.priceHistories(ctx, ids)
	if err != nil {
		return nil, err
	}
	for name, product := range result {
		product.Prices = histories[product.ID]
		result[name] = product
	}
	return result, nil
}

// List returns every product with its price history, ordered by name.
func (r *Products) List(ctx context.Context) ([]catalog.Product, error) {
	const q = `
SELECT id, name, created_at
FROM products
ORDER BY name
`
	rows, err := r.Pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []catalog.Product
	var ids []uuid.UUID
	for rows.Next() {
		var product catalog.Product
		if err := rows.Scan(&product.ID, &product.Name, &product.CreatedAt); err != nil {
			return nil, err
		}
		products = append(products, product)
		ids = append(ids, product.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	histories, err := r.priceHistories(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range products {
		products[i].Prices = histories[products[i].ID]
	}
	return products, nil
}

func (r *Products) priceHistories(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]timeline.Timeline, error) {
	result := make(map[uuid.UUID]timeline.Timeline, len(productIDs))
	if len(productIDs) == 0 {
		return result, nil
	}
	const q = `
SELECT product_id, amount::text, effective_from
FROM prices
WHERE product_id = ANY($1)
ORDER BY product_id, effective_from
`
	rows, err := r.Pool.Query(ctx, q, productIDs)
	if err != nil {
		return nil, fmt.Errorf("list prices: %w", err)
	}
	defer rows.Close()

	entries := make(map[uuid.UUID][]timeline.Entry, len(productIDs))
	for rows.Next() {
		var productID uuid.UUID
		var amountText string
		var effectiveFrom time.Time
		if err := rows.Scan(&productID, &amountText, &effectiveFrom); err != nil {
			return nil, err
		}
		amount, err := decimal.NewFromString(amountText)
		if err != nil {
			return nil, fmt.Errorf("parse amount %q: %w", amountText, err)
		}
		entries[productID] = append(entries[productID], timeline.Entry{Amount: amount, EffectiveFrom: effectiveFrom.UTC()})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for id, list := range entries {
		result[id] = timeline.New(list...)
	}
	return result, nil
}
