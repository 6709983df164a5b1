package oram

import (
	"crypto/rand"
	"math/big"

	"go.uber.org/atomic"

	"github.com/solidus-network/pvorm/group"
	"github.com/solidus-network/pvorm/syncutil"
)

// location is where an account's block currently sits: bucket index 0 is
// temp, 1 is the stash, 2..2^(D+1)-1 are path buckets addressed by the heap
// index of the node on the path to Leaf (spec §3: "the root position is
// absorbed by the stash", so heap index 1 coincides with the stash bucket
// and indices 2.. are ordinary tree nodes).
type location struct {
	Leaf      int64
	BucketIdx int64
	SlotIdx   int
}

// Tree is a deterministic circuit-ORAM: depth D, bucket size B, stash size
// S, indexing as in spec §3.
type Tree struct {
	Depth      int
	BucketSize int
	StashSize  int

	mu        syncutil.Mutex
	buckets   map[int64]*Bucket
	positions map[string]location
	ctr       atomic.Int64
	size      int64
	leaves    int64
}

// NewTree builds an empty tree of the given depth/bucket-size/stash-size.
// depth must be at least 1.
func NewTree(depth, bucketSize, stashSize int) *Tree {
	if depth < 1 || bucketSize < 1 || stashSize < 1 {
		panic("oram: depth, bucket size and stash size must be positive")
	}
	t := &Tree{
		Depth:      depth,
		BucketSize: bucketSize,
		StashSize:  stashSize,
		buckets:    make(map[int64]*Bucket),
		positions:  make(map[string]location),
		leaves:     int64(1) << uint(depth),
	}
	t.buckets[0] = newBucket(1)
	t.buckets[1] = newBucket(stashSize)
	return t
}

// bucket returns the bucket at heap index idx, lazily allocating tree
// buckets on first touch (a deployment's tree is sparse until populated;
// preallocating 2^(D+1) buckets up front would waste memory for shallow
// account counts relative to a large configured depth).
func (t *Tree) bucket(idx int64) *Bucket {
	b, ok := t.buckets[idx]
	if !ok {
		b = newBucket(t.BucketSize)
		t.buckets[idx] = b
	}
	return b
}

// temp returns the capacity-1 temp bucket.
func (t *Tree) temp() *Bucket { return t.buckets[0] }

// stash returns the capacity-S stash bucket.
func (t *Tree) stash() *Bucket { return t.buckets[1] }

// pathBucketIndex returns the heap index of the bucket at depth `level` on
// the path from root to leaf, for level in [0, depth]. Level 0 always
// yields 1 (the stash).
func pathBucketIndex(leaf int64, depth, level int) int64 {
	return (leaf + (int64(1) << uint(depth))) >> uint(depth-level)
}

// sharedPrefixDepth returns the largest d in [0, depth] such that a and b
// agree on their top d bits, i.e. the depth at which their paths to the
// root diverge.
func sharedPrefixDepth(a, b int64, depth int) int {
	for d := depth; d > 0; d-- {
		if a>>uint(depth-d) == b>>uint(depth-d) {
			return d
		}
	}
	return 0
}

// bitReverse reverses the low `bits` bits of x.
func bitReverse(x int64, bits int) int64 {
	var r int64
	for i := 0; i < bits; i++ {
		r = (r << 1) | (x & 1)
		x >>= 1
	}
	return r
}

// randomLeaf draws a uniform leaf index in [0, leaves).
func (t *Tree) randomLeaf() int64 {
	n, err := rand.Int(rand.Reader, big.NewInt(t.leaves))
	if err != nil {
		panic(err)
	}
	return n.Int64()
}

// Insert places a new account at build time. Fails if the account already
// exists or the tree is at capacity. Post-condition: the temp bucket is
// empty.
func (t *Tree) Insert(accountKey group.Point, balance int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := accountKey.String()
	if _, exists := t.positions[key]; exists {
		return ErrAccountExists
	}
	if t.size >= t.leaves {
		return ErrCapacityExceeded
	}

	leaf := t.randomLeaf()
	blk := &Block{AccountKey: accountKey, Balance: balance, Leaf: leaf}
	t.temp().slots[0] = blk
	t.positions[key] = location{Leaf: leaf, BucketIdx: 0, SlotIdx: 0}

	if err := t.doubleEvict(); err != nil {
		return err
	}
	t.size++
	return nil
}

// SlotEviction is one entry of an eviction's ordered touch sequence: a
// physical (bucket, slot) the eviction visited, and whether a real content
// exchange happened there (as opposed to a trivial no-op touch). This is
// the plaintext ORAM's only externally visible artifact (spec §4.6); the
// encrypted PVORM drives its reencryption-or-no-op choice per slot from the
// Real flag alone, never from plaintext content.
type SlotEviction struct {
	BucketIdx int64
	SlotIdx   int
	Real      bool
}

// UpdateTranscript is the record Update returns: the account's fresh leaf,
// its position before removal, the ordered evictions of the double eviction
// the update triggered, and (if the double eviction couldn't place
// everything along its two paths) where the leftover block was drained into
// the stash (spec §4.6).
type UpdateTranscript struct {
	NewLeaf       int64
	InitialBucket int64
	InitialSlot   int
	Evictions     [2][]SlotEviction
	Drain         *SlotEviction
}

// Update applies delta to accountKey's balance, reassigns it a fresh leaf
// and runs a double eviction, returning the transcript the encrypted PVORM
// replays to drive its own swaps.
func (t *Tree) Update(accountKey group.Point, delta int64) (*UpdateTranscript, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := accountKey.String()
	loc, ok := t.positions[key]
	if !ok {
		return nil, ErrAccountNotFound
	}

	origin := t.bucket(loc.BucketIdx)
	blk := origin.slots[loc.SlotIdx]
	newBalance := blk.Balance + delta
	if newBalance < 0 {
		return nil, ErrNegativeBalance
	}
	origin.slots[loc.SlotIdx] = nil

	newLeaf := t.randomLeaf()
	updated := &Block{AccountKey: accountKey, Balance: newBalance, Leaf: newLeaf}
	t.temp().slots[0] = updated
	t.positions[key] = location{Leaf: newLeaf, BucketIdx: 0, SlotIdx: 0}

	ev, drain, err := t.doubleEvictTranscript()
	if err != nil {
		return nil, err
	}

	return &UpdateTranscript{
		NewLeaf:       newLeaf,
		InitialBucket: loc.BucketIdx,
		InitialSlot:   loc.SlotIdx,
		Evictions:     ev,
		Drain:         drain,
	}, nil
}

// Balance returns the current balance of accountKey.
func (t *Tree) Balance(accountKey group.Point) (int64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	loc, ok := t.positions[accountKey.String()]
	if !ok {
		return 0, false
	}
	blk := t.bucket(loc.BucketIdx).slots[loc.SlotIdx]
	return blk.Balance, true
}

// Snapshot returns every touched bucket's slots, indexed by heap index. It
// is read-only: the caller must not mutate the returned blocks. Untouched
// buckets (never lazily allocated) are omitted; a caller that needs the
// full addressable range should treat any index absent here as all-empty.
func (t *Tree) Snapshot() map[int64][]*Block {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[int64][]*Block, len(t.buckets))
	for idx, b := range t.buckets {
		slots := make([]*Block, len(b.slots))
		copy(slots, b.slots)
		out[idx] = slots
	}
	return out
}
