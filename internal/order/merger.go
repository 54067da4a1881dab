package order

// RequestedLine is one raw position from an order submission, before
// duplicate products are merged.
type RequestedLine struct {
	ProductName string
	Quantity    int64
}

// MergeLines collapses requested lines naming the same product into a single
// quantity per product. The result is independent of input order.
func MergeLines(lines []RequestedLine) map[string]int64 {
	merged := make(map[string]int64, len(lines))
	for _, line := range lines {
		merged[line.ProductName] += line.Quantity
	}
	return merged
}
