package oram

import "github.com/solidus-network/pvorm/group"

// Block is a plaintext (account_point, balance, assigned_leaf) triple, the
// shadow of an encrypted PVORM Block (spec §3). Blocks are value objects:
// Update never mutates one in place, it builds a new Block and replaces the
// bucket slot holding it.
type Block struct {
	AccountKey group.Point
	Balance    int64
	Leaf       int64
}

// Bucket is a fixed-capacity slotted container. A nil slot is the empty
// sentinel.
type Bucket struct {
	slots []*Block
}

func newBucket(capacity int) *Bucket {
	return &Bucket{slots: make([]*Block, capacity)}
}

func (b *Bucket) capacity() int { return len(b.slots) }

// firstEmptySlot returns the index of the first nil slot, or -1 if full.
func (b *Bucket) firstEmptySlot() int {
	for i, s := range b.slots {
		if s == nil {
			return i
		}
	}
	return -1
}

// occupancy counts the non-nil slots.
func (b *Bucket) occupancy() int {
	n := 0
	for _, s := range b.slots {
		if s != nil {
			n++
		}
	}
	return n
}
