package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-harga/internal/catalog"
	"github.com/noah-isme/backend-harga/internal/obs"
	"github.com/noah-isme/backend-harga/internal/timeline"
)

type orderStore interface {
	Create(ctx context.Context, o Order) error
	GetByEmailAndDate(ctx context.Context, email string, orderDate time.Time) (Order, error)
	List(ctx context.Context, from, to *time.Time) ([]Order, error)
}

type productProvider interface {
	GetByNames(ctx context.Context, names []string) (map[string]catalog.Product, error)
}

// Service orchestrates order placement, listing, and revaluation.
type Service struct {
	orders   orderStore
	products productProvider
	now      func() time.Time
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Orders   orderStore
	Products productProvider
	Now      func() time.Time
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Orders == nil {
		return nil, errors.New("order: order store is required")
	}
	if cfg.Products == nil {
		return nil, errors.New("order: product provider is required")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{orders: cfg.Orders, products: cfg.Products, now: now}, nil
}

// Create places an order for the given email. Requested lines naming the same
// product are merged, each product is priced with the entry effective at
// placement time, and the priced lines are persisted with the order.
func (s *Service) Create(ctx context.Context, email string, requested []RequestedLine) (Order, error) {
	email = strings.TrimSpace(email)
	merged := MergeLines(requested)

	names := make([]string, 0, len(merged))
	for name := range merged {
		names = append(names, name)
	}
	products, err := s.products.GetByNames(ctx, names)
	if err != nil {
		return Order{}, fmt.Errorf("load products: %w", err)
	}

	// Order timestamps are truncated to whole seconds so they round-trip
	// through the URL date layout used by the revaluation endpoint.
	placedAt := s.now().UTC().Truncate(time.Second)
	lines, err := BuildLines(products, merged, placedAt)
	if err != nil {
		obs.CountOrderCreated("rejected")
		return Order{}, err
	}

	o := Order{
		ID:        uuid.New(),
		Email:     email,
		OrderDate: placedAt,
		Lines:     lines,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		obs.CountOrderCreated("rejected")
		return Order{}, err
	}
	obs.CountOrderCreated("accepted")
	return o, nil
}

// List returns orders placed within the optional [from, to] bounds.
func (s *Service) List(ctx context.Context, from, to *time.Time) ([]Order, error) {
	return s.orders.List(ctx, from, to)
}

// Revalue answers what an existing order would have cost had it been placed
// at the given instant. The stored order is returned unchanged alongside the
// recomputed total.
func (s *Service) Revalue(ctx context.Context, email string, orderDate, at time.Time) (Order, decimal.Decimal, error) {
	o, err := s.orders.GetByEmailAndDate(ctx, email, orderDate)
	if err != nil {
		return Order{}, decimal.Decimal{}, err
	}

	names := make([]string, 0, len(o.Lines))
	for _, line := range o.Lines {
		names = append(names, line.ProductName)
	}
	products, err := s.products.GetByNames(ctx, names)
	if err != nil {
		return Order{}, decimal.Decimal{}, fmt.Errorf("load products: %w", err)
	}
	for _, name := range names {
		product, ok := products[name]
		if !ok {
			return Order{}, decimal.Decimal{}, fmt.Errorf("%w: %s", catalog.ErrProductNotFound, name)
		}
		if !product.Prices.HasPriceAtOrBefore(at) {
			return Order{}, decimal.Decimal{}, fmt.Errorf("no price for %q at %s: %w",
				name, at.Format(time.RFC3339), timeline.ErrNoPriceBefore)
		}
	}

	total, err := Revalue(o, products, at)
	if err != nil {
		return Order{}, decimal.Decimal{}, err
	}
	obs.CountRevaluation()
	return o, total, nil
}
