package product

// InventoryEstimator supplies a stock level per product name.
type InventoryEstimator interface {
	Estimate(product string) int
}

// NameHashEstimator derives a stable pseudo stock level from the product
// name: the sum of its character codes modulo 450, plus 50.
type NameHashEstimator struct{}

func (NameHashEstimator) Estimate(product string) int {
	sum := 0
	for _, r := range product {
		sum += int(r)
	}
	return sum%450 + 50
}
