package taxrates

import (
	"sort"

	"golang.org/x/text/cases"
)

// SortForDisplay orders rates by sequence number, breaking ties with a
// case-insensitive name comparison. The order is presentational only.
func SortForDisplay(rates []TaxRate) {
	fold := cases.Fold()
	keys := make(map[int]string, len(rates))
	for i := range rates {
		keys[i] = fold.String(rates[i].Name)
	}
	idx := make([]int, len(rates))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ra, rb := rates[idx[a]], rates[idx[b]]
		if ra.SequenceNo != rb.SequenceNo {
			return ra.SequenceNo < rb.SequenceNo
		}
		return keys[idx[a]] < keys[idx[b]]
	})
	sorted := make([]TaxRate, len(rates))
	for i, j := range idx {
		sorted[i] = rates[j]
	}
	copy(rates, sorted)
}
