package encoram

import (
	"math/bits"

	"github.com/solidus-network/pvorm/encrypt"
	"github.com/solidus-network/pvorm/executor"
	"github.com/solidus-network/pvorm/group"
	"github.com/solidus-network/pvorm/oram"
	"github.com/solidus-network/pvorm/syncutil"
	"github.com/solidus-network/pvorm/update"
	"github.com/solidus-network/pvorm/zk"
)

// OwnedPvorm is the owner side of spec §4.7: a plaintext oram.Tree mirrored
// block-for-block by an encrypted shadow, driven by the account's own
// secret key. It is the only place in the module that ever holds both a
// secret key and plaintext balances at once.
type OwnedPvorm struct {
	params     *group.Params
	secretKey  group.Scalar
	publicKey  group.Point
	depth      int
	bucketSize int
	stashSize  int

	mu     syncutil.Mutex
	plain  *oram.Tree
	enc    map[int64]*bucket
	filler update.Block
}

// Builder constructs an OwnedPvorm build-time (spec §6:
// "OwnedPvorm::Builder(params, secret_key, D, B, S)"): accumulate inserts,
// then Build once. Proofs are not needed at build time - only update()
// ever produces a PvormUpdate - so Build encrypts the tree's final layout
// directly rather than replaying per-insert eviction proofs.
type Builder struct {
	params    *group.Params
	secretKey group.Scalar
	publicKey group.Point
	plain     *oram.Tree
	err       error
}

// NewBuilder starts a Builder for a tree of the given depth/bucket-size/
// stash-size, owned by secretKey.
func NewBuilder(p *group.Params, secretKey group.Scalar, depth, bucketSize, stashSize int) *Builder {
	return &Builder{
		params:    p,
		secretKey: secretKey,
		publicKey: p.PointFromScalarMult(secretKey),
		plain:     oram.NewTree(depth, bucketSize, stashSize),
	}
}

// Insert queues an account for the tree. Errors (duplicate account,
// capacity exceeded) are sticky and surface from Build.
func (b *Builder) Insert(accountKey group.Point, balance int64) *Builder {
	if b.err == nil {
		b.err = b.plain.Insert(accountKey, balance)
	}
	return b
}

// Build finalizes the tree, encrypting its final layout under the
// builder's public key, and returns the resulting OwnedPvorm.
func (b *Builder) Build() (*OwnedPvorm, error) {
	if b.err != nil {
		return nil, b.err
	}

	filler := update.FillerBlock(b.params, b.publicKey)
	enc := make(map[int64]*bucket)
	for idx, slots := range b.plain.Snapshot() {
		eb := newBucket(len(slots), filler)
		for i, blk := range slots {
			if blk == nil {
				continue
			}
			eb.slots[i] = update.Block{
				EncKey:     encrypt.EncryptPoint(b.params, b.publicKey, blk.AccountKey),
				EncBalance: encrypt.EncryptValue(b.params, b.publicKey, b.params.ScalarFromInt64(blk.Balance)),
			}
		}
		enc[idx] = eb
	}

	return &OwnedPvorm{
		params:     b.params,
		secretKey:  b.secretKey,
		publicKey:  b.publicKey,
		depth:      b.plain.Depth,
		bucketSize: b.plain.BucketSize,
		stashSize:  b.plain.StashSize,
		plain:      b.plain,
		enc:        enc,
		filler:     filler,
	}, nil
}

func (o *OwnedPvorm) capacityFor(idx int64) int {
	switch idx {
	case 0:
		return 1
	case 1:
		return o.stashSize
	default:
		return o.bucketSize
	}
}

func (o *OwnedPvorm) encBucket(idx int64) *bucket {
	b, ok := o.enc[idx]
	if !ok {
		b = newBucket(o.capacityFor(idx), o.filler)
		o.enc[idx] = b
	}
	return b
}

func (o *OwnedPvorm) tempBlock() update.Block    { return o.encBucket(0).slots[0] }
func (o *OwnedPvorm) setTempBlock(b update.Block) { o.encBucket(0).slots[0] = b }

// rangeBits picks the bit width a MaxwellRangeProof needs to cover every
// value the deployment's discrete-log table can decode.
func rangeBits(vMax int64) int {
	return bits.Len64(uint64(vMax))
}

// walkSwaps replays a sequence of plaintext touches over the encrypted
// shadow state, producing one update.Swap per entry. It is the one routine
// that turns an oram.SlotEviction list - whatever its source - into proven
// ciphertext moves, and Update calls it for three distinct purposes: a
// single-entry read swap, a full per-eviction refresh pass, and a
// single-entry drain swap, besides the ordinary per-eviction walk.
//
// When real is true, an entry marked Real performs a genuine reencrypted
// exchange between temp and the slot (straight=false): whatever temp holds
// moves to the slot and vice versa. Every other entry (real is false, or
// the entry isn't marked Real) is a trivial in-place reencryption of both
// temp and the slot's current content (straight=true), changing neither
// side's plaintext. Every touch, real or not, produces a BlockSwapProof, so
// an observer of the resulting update.Swap list cannot distinguish a
// genuine relocation from a no-op refresh.
func (o *OwnedPvorm) walkSwaps(evictions []oram.SlotEviction, exec executor.Executor, real bool) ([]update.Swap, error) {
	swaps := make([]update.Swap, len(evictions))
	handles := make([]*executor.Handle, len(evictions))
	temp := o.tempBlock()

	for i, ev := range evictions {
		i, ev := i, ev
		preTemp := temp
		preSlot := o.encBucket(ev.BucketIdx).slots[ev.SlotIdx]

		straight := true
		var newTempContent, newSlotContent update.Block
		if real && ev.Real {
			straight = false
			newTempContent = reencryptBlock(o.params, o.publicKey, preSlot)
			newSlotContent = reencryptBlock(o.params, o.publicKey, preTemp)
		} else {
			newTempContent = reencryptBlock(o.params, o.publicKey, preTemp)
			newSlotContent = reencryptBlock(o.params, o.publicKey, preSlot)
		}

		params, secretKey, publicKey := o.params, o.secretKey, o.publicKey
		postTemp, postSlot := newTempContent, newSlotContent
		handles[i] = exec.Go(func() error {
			proof := update.BuildBlockSwapProof(params, secretKey, publicKey, preTemp, preSlot, postTemp, postSlot, straight)
			swaps[i] = update.Swap{
				BucketIdx:  ev.BucketIdx,
				SlotIdx:    ev.SlotIdx,
				NewTemp:    postTemp,
				NewInPvorm: postSlot,
				Proof:      proof,
			}
			return nil
		})

		o.encBucket(ev.BucketIdx).slots[ev.SlotIdx] = newSlotContent
		temp = newTempContent
	}

	if err := executor.JoinAll(handles...); err != nil {
		return nil, err
	}
	o.setTempBlock(temp)
	return swaps, nil
}

func reencryptBlock(p *group.Params, publicKey group.Point, b update.Block) update.Block {
	return update.Block{
		EncKey:     encrypt.Reencrypt(p, publicKey, b.EncKey),
		EncBalance: encrypt.Reencrypt(p, publicKey, b.EncBalance),
	}
}

// Update applies an incoming transaction to the account identified by
// encAccountKey (encrypted under this OwnedPvorm's own public key, as a
// transfer request addressed to this account would be), running spec
// §4.7's owner-side algorithm:
//
//  1. Decrypt the request.
//  2. Run the plaintext ORAM update, obtaining its transcript.
//  3. Read phase: the plaintext update pulled the account straight out of
//     its origin slot into temp, a move the eviction transcript never
//     records (it isn't part of either path's touch sequence). Mirror it
//     explicitly with a genuine temp/origin-slot exchange, then run a pure
//     reencryption refresh over both eviction paths so every slot on them
//     gets fresh randomness; together these are the pre-update swaps.
//  4. By now the real block sits in temp (any position-dependence in step 3
//     above would make this false and the next proof a false statement).
//     Prove the temp block's key matches the request's account key.
//  5. Fold the balance change into temp homomorphically.
//  6. Optionally prove the new balance is in range.
//  7. Write-back phase: replay both eviction paths again, now with genuine
//     relocation, mirroring exactly where the plaintext tree just placed
//     the updated block; if the double eviction couldn't place it and fell
//     back to draining into the stash, mirror that too. These are the
//     post-update swaps, and they leave temp holding filler again,
//     matching spec §3's invariant that temp encrypts identity between
//     updates.
func (o *OwnedPvorm) Update(encAccountKey, encBalanceChange encrypt.Cipher, includeRangeProof bool, exec executor.Executor) (*update.PvormUpdate, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	dec := encrypt.ForKey(o.params, o.secretKey)
	accountKey := dec.DecryptPoint(encAccountKey)
	delta, err := dec.DecryptBalance(encBalanceChange)
	if err != nil {
		return nil, err
	}

	transcript, err := o.plain.Update(accountKey, delta)
	if err != nil {
		return nil, err
	}

	readSwap, err := o.walkSwaps([]oram.SlotEviction{{
		BucketIdx: transcript.InitialBucket,
		SlotIdx:   transcript.InitialSlot,
		Real:      true,
	}}, exec, true)
	if err != nil {
		return nil, err
	}
	refresh1, err := o.walkSwaps(transcript.Evictions[0], exec, false)
	if err != nil {
		return nil, err
	}
	refresh2, err := o.walkSwaps(transcript.Evictions[1], exec, false)
	if err != nil {
		return nil, err
	}
	preSwaps := append(append(readSwap, refresh1...), refresh2...)

	accountKeyProof := zk.BuildPlaintextEqProof(o.params, o.secretKey, o.publicKey, o.tempBlock().EncKey, encAccountKey)

	o.setTempBlock(update.Block{
		EncKey:     o.tempBlock().EncKey,
		EncBalance: encrypt.Add(o.params, o.tempBlock().EncBalance, encBalanceChange),
	})

	var rangeProof *zk.MaxwellRangeProof
	if includeRangeProof {
		newBalance, ok := o.plain.Balance(accountKey)
		if !ok {
			return nil, oram.ErrAccountNotFound
		}
		rangeProof, err = zk.BuildMaxwellRangeProof(o.params, exec, o.secretKey, o.publicKey, o.tempBlock().EncBalance, newBalance, rangeBits(o.params.VMax))
		if err != nil {
			return nil, err
		}
	}

	write1, err := o.walkSwaps(transcript.Evictions[0], exec, true)
	if err != nil {
		return nil, err
	}
	write2, err := o.walkSwaps(transcript.Evictions[1], exec, true)
	if err != nil {
		return nil, err
	}
	postSwaps := append(write1, write2...)

	if transcript.Drain != nil {
		drainSwap, err := o.walkSwaps([]oram.SlotEviction{*transcript.Drain}, exec, true)
		if err != nil {
			return nil, err
		}
		postSwaps = append(postSwaps, drainSwap...)
	}

	return &update.PvormUpdate{
		TreeDepth:        uint32(o.depth),
		BucketSize:       uint8(o.bucketSize),
		StashSize:        uint8(o.stashSize),
		PublicKey:        o.publicKey,
		PreSwaps:         preSwaps,
		EncAccountKey:    encAccountKey,
		EncBalanceChange: encBalanceChange,
		AccountKeyProof:  accountKeyProof,
		HasRange:         includeRangeProof,
		RangeProof:       rangeProof,
		PostSwaps:        postSwaps,
	}, nil
}

// PublicKey returns the account's public key.
func (o *OwnedPvorm) PublicKey() group.Point { return o.publicKey }

// Balance returns accountKey's current plaintext balance.
func (o *OwnedPvorm) Balance(accountKey group.Point) (int64, bool) {
	return o.plain.Balance(accountKey)
}

// EncryptedSnapshot returns a verifier-side EncryptedPvorm reflecting this
// OwnedPvorm's current encrypted state, for publishing to counterparties.
// The returned value is an independent copy; mutating it (via
// ApplyLastVerifiedUpdate) does not affect o.
func (o *OwnedPvorm) EncryptedSnapshot() *EncryptedPvorm {
	o.mu.Lock()
	defer o.mu.Unlock()

	e := &EncryptedPvorm{
		params:     o.params,
		Depth:      o.depth,
		BucketSize: o.bucketSize,
		StashSize:  o.stashSize,
		PublicKey:  o.publicKey,
		buckets:    make(map[int64]*bucket, len(o.enc)),
		filler:     o.filler,
	}
	for idx, b := range o.enc {
		e.buckets[idx] = b.clone()
	}
	return e
}
