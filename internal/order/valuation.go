package order

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-harga/internal/catalog"
)

// Total sums price times quantity across all lines and rounds the accumulated
// sum to two decimal places, half up. Rounding happens once on the full
// precision sum, never per line.
func Total(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, line := range lines {
		sum = sum.Add(line.Price.Amount.Mul(decimal.NewFromInt(line.Quantity)))
	}
	return sum.Round(2)
}

// BuildLines resolves a priced line for every requested product using the
// price effective at the given instant. Products map from name to catalog
// entry; quantities map from name to merged quantity. Lines come back sorted
// by product name so order payloads are deterministic.
func BuildLines(products map[string]catalog.Product, quantities map[string]int64, at time.Time) ([]Line, error) {
	names := make([]string, 0, len(quantities))
	for name := range quantities {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]Line, 0, len(names))
	for _, name := range names {
		product, ok := products[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", catalog.ErrProductNotFound, name)
		}
		entry, err := product.Prices.At(at)
		if err != nil {
			return nil, fmt.Errorf("resolve price for %q at %s: %w", name, at.Format(time.RFC3339), err)
		}
		lines = append(lines, Line{
			ProductID:   product.ID,
			ProductName: product.Name,
			Price:       entry,
			Quantity:    quantities[name],
		})
	}
	return lines, nil
}

// Revalue computes what the order total would have been had it been placed at
// the given instant, using each product's price effective then. The stored
// order is left untouched.
func Revalue(o Order, products map[string]catalog.Product, at time.Time) (decimal.Decimal, error) {
	quantities := make(map[string]int64, len(o.Lines))
	for _, line := range o.Lines {
		quantities[line.ProductName] += line.Quantity
	}
	lines, err := BuildLines(products, quantities, at)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return Total(lines), nil
}
