package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-harga/internal/obs"
	"github.com/noah-isme/backend-harga/internal/timeline"
)

type store interface {
	Create(ctx context.Context, product Product) error
	GetByName(ctx context.Context, name string) (Product, error)
	GetByNames(ctx context.Context, names []string) (map[string]Product, error)
	List(ctx context.Context) ([]Product, error)
	AppendPrice(ctx context.Context, productID uuid.UUID, entry timeline.Entry) error
}

type locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) error
}

// Service orchestrates product storage, price history updates, and caching.
type Service struct {
	store   store
	cache   *Cache
	locker  locker
	lockTTL time.Duration
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Store   store
	Cache   *Cache
	Locker  locker
	LockTTL time.Duration
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("catalog: store is required")
	}
	lockTTL := cfg.LockTTL
	if lockTTL <= 0 {
		lockTTL = 5 * time.Second
	}
	return &Service{
		store:   cfg.Store,
		cache:   cfg.Cache,
		locker:  cfg.Locker,
		lockTTL: lockTTL,
	}, nil
}

// Create registers a new product with an optional initial price history.
func (s *Service) Create(ctx context.Context, name string, entries []timeline.Entry) (Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Product{}, errors.New("catalog: product name is required")
	}
	product := Product{
		ID:        uuid.New(),
		Name:      name,
		Prices:    timeline.New(entries...),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Create(ctx, product); err != nil {
		return Product{}, fmt.Errorf("create product %q: %w", name, err)
	}
	_ = s.cache.SetJSON(ctx, productCacheKey(name), product)
	return product, nil
}

// GetByName returns a product with its full price history, cache-aside.
func (s *Service) GetByName(ctx context.Context, name string) (Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Product{}, ErrProductNotFound
	}
	key := productCacheKey(name)
	var cached Product
	if ok, err := s.cache.GetJSON(ctx, key, &cached); err == nil && ok {
		return cached, nil
	}
	product, err := s.store.GetByName(ctx, name)
	if err != nil {
		return Product{}, err
	}
	_ = s.cache.SetJSON(ctx, key, product)
	return product, nil
}

// GetByNames fetches several products at once, keyed by name. A name with no
// matching product is absent from the result rather than an error.
func (s *Service) GetByNames(ctx context.Context, names []string) (map[string]Product, error) {
	if len(names) == 0 {
		return map[string]Product{}, nil
	}
	return s.store.GetByNames(ctx, names)
}

// List returns all products with their price histories.
func (s *Service) List(ctx context.Context) ([]Product, error) {
	return s.store.List(ctx)
}

// CurrentPrice resolves the currently effective price for a product: the
// history entry with the greatest effective date.
func (s *Service) CurrentPrice(ctx context.Context, name string) (timeline.Entry, error) {
	product, err := s.GetByName(ctx, name)
	if err != nil {
		return timeline.Entry{}, err
	}
	return product.Prices.Current()
}

// UpdateCurrentPrice appends a new price entry to the product's history. The
// entry must be dated strictly after every recorded entry so the latest price
// only moves forward. Concurrent updates for the same product are serialised
// with a per-product lock.
func (s *Service) UpdateCurrentPrice(ctx context.Context, name string, entry timeline.Entry) (Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Product{}, ErrProductNotFound
	}

	var updated Product
	update := func(ctx context.Context) error {
		product, err := s.store.GetByName(ctx, name)
		if err != nil {
			return err
		}
		if latest, err := product.Prices.Current(); err == nil {
			if !entry.EffectiveFrom.After(latest.EffectiveFrom) {
				obs.CountPriceUpdate("rejected")
				return fmt.Errorf("%w: submitted %s, latest %s", ErrNonMonotonicPrice,
					entry.EffectiveFrom.Format(time.RFC3339), latest.EffectiveFrom.Format(time.RFC3339))
			}
		}
		if err := s.store.AppendPrice(ctx, product.ID, entry); err != nil {
			return fmt.Errorf("append price for %q: %w", name, err)
		}
		product.Prices.Append(entry)
		updated = product
		return nil
	}

	var err error
	if s.locker != nil {
		err = s.locker.WithLock(ctx, "price:"+name, s.lockTTL, update)
	} else {
		err = update(ctx)
	}
	if err != nil {
		return Product{}, err
	}

	obs.CountPriceUpdate("accepted")
	_ = s.cache.Invalidate(ctx, productCacheKey(name))
	return updated, nil
}
