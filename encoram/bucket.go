package encoram

import "github.com/solidus-network/pvorm/update"

// bucket is a fixed-capacity row of encrypted blocks. Unlike oram.Bucket,
// every slot always holds real ciphertext content - a filler block for an
// empty slot, never nil - so an observer cannot learn occupancy from shape.
type bucket struct {
	slots []update.Block
}

func newBucket(capacity int, filler update.Block) *bucket {
	b := &bucket{slots: make([]update.Block, capacity)}
	for i := range b.slots {
		b.slots[i] = filler
	}
	return b
}

func (b *bucket) clone() *bucket {
	cp := make([]update.Block, len(b.slots))
	copy(cp, b.slots)
	return &bucket{slots: cp}
}
