package order

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-harga/internal/timeline"
)

var (
	// ErrOrderNotFound indicates no order matches the given email and date.
	ErrOrderNotFound = errors.New("order: order not found")
	// ErrOrderExists indicates an order with the same email and date already exists.
	ErrOrderExists = errors.New("order: order already exists")
)

// Line is one priced position on an order. The price entry that was effective
// when the order was placed is captured on the line, so stored orders keep
// their historical totals even after later price updates.
type Line struct {
	ProductID   uuid.UUID      `json:"productId"`
	ProductName string         `json:"productName"`
	Price       timeline.Entry `json:"price"`
	Quantity    int64          `json:"quantity"`
}

// Order is a placed order with its captured price lines.
type Order struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	OrderDate time.Time `json:"orderDate"`
	Lines     []Line    `json:"lines"`
}
