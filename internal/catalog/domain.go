package catalog

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-harga/internal/timeline"
)

var (
	// ErrProductNotFound indicates the requested product does not exist.
	ErrProductNotFound = errors.New("catalog: product not found")
	// ErrProductExists indicates a product with the same name already exists.
	ErrProductExists = errors.New("catalog: product already exists")
	// ErrNonMonotonicPrice indicates a price submission dated at or before the
	// latest recorded price for the product.
	ErrNonMonotonicPrice = errors.New("catalog: price effective date must be after the latest recorded price")
)

// Product is a catalog entry together with its full price history.
type Product struct {
	ID        uuid.UUID         `json:"id"`
	Name      string            `json:"name"`
	Prices    timeline.Timeline `json:"prices"`
	CreatedAt time.Time         `json:"createdAt"`
}
