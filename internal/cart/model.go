package cart

// Entry is one cart line joined with the product at read time, so the
// price always reflects the current catalog, not a snapshot.
type Entry struct {
	ProductID   int64
	Name        string
	Description string
	Price       float64
	Quantity    int
}

// LineTotal is the live price times quantity.
func (e Entry) LineTotal() float64 {
	return e.Price * float64(e.Quantity)
}

// Subtotal sums line totals over a cart snapshot.
func Subtotal(entries []Entry) float64 {
	var total float64
	for _, e := range entries {
		total += e.LineTotal()
	}
	return total
}
