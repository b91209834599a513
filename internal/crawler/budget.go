package crawler

import "sync/atomic"

// ItemBudget counts produced items against a configured maximum.
// A maximum of 0 means unlimited. The counter only ever grows.
type ItemBudget struct {
	max   int64
	count atomic.Int64
}

// NewItemBudget creates a budget allowing max items. Negative values are
// treated as unlimited.
func NewItemBudget(maxItem int) *ItemBudget {
	if maxItem < 0 {
		maxItem = 0
	}
	return &ItemBudget{max: int64(maxItem)}
}

// Exhausted reports whether max > 0 and count >= max.
func (b *ItemBudget) Exhausted() bool {
	return b.max > 0 && b.count.Load() >= b.max
}

// RecordSuccess counts one produced item and returns the new count.
func (b *ItemBudget) RecordSuccess() int {
	return int(b.count.Add(1))
}

// Count returns the number of items produced so far.
func (b *ItemBudget) Count() int {
	return int(b.count.Load())
}

// Max returns the configured maximum, 0 for unlimited.
func (b *ItemBudget) Max() int {
	return int(b.max)
}
