package encoram

import (
	"io"
	"sort"

	"github.com/solidus-network/pvorm/codec"
	"github.com/solidus-network/pvorm/encrypt"
	"github.com/solidus-network/pvorm/executor"
	"github.com/solidus-network/pvorm/group"
	"github.com/solidus-network/pvorm/syncutil"
	"github.com/solidus-network/pvorm/update"
	"github.com/solidus-network/pvorm/zk"
)

// EncryptedPvorm is the verifier side of spec §4.7: it holds only
// ciphertexts (no secret key, no plaintext), and checks a PvormUpdate's
// proofs without learning anything about the accounts it protects beyond
// what the proofs necessarily leak (tree shape, public key).
type EncryptedPvorm struct {
	mu syncutil.Mutex

	params     *group.Params
	Depth      int
	BucketSize int
	StashSize  int
	PublicKey  group.Point

	buckets map[int64]*bucket
	filler  update.Block

	// overlay holds the shadow state of the last successfully verified but
	// not-yet-applied update (spec §4.7: "a failed verification must not
	// mutate state; a verified-but-not-applied update is held until
	// apply_last_verified_update is called").
	overlay map[int64]*bucket
}

// NewEncryptedPvorm builds an EncryptedPvorm with every slot initialized to
// the filler block - an empty deployment's encrypted state.
func NewEncryptedPvorm(p *group.Params, depth, bucketSize, stashSize int, publicKey group.Point) *EncryptedPvorm {
	filler := update.FillerBlock(p, publicKey)
	e := &EncryptedPvorm{
		params:     p,
		Depth:      depth,
		BucketSize: bucketSize,
		StashSize:  stashSize,
		PublicKey:  publicKey,
		buckets:    make(map[int64]*bucket),
		filler:     filler,
	}
	e.buckets[0] = newBucket(1, filler)
	e.buckets[1] = newBucket(stashSize, filler)
	return e
}

// Write serializes the authoritative state (never the pending overlay) for
// persistence by store, behind a codec.Header (spec §6): shape, public key,
// then every touched bucket sorted by heap index so the encoding is
// deterministic across runs. timeoutMs is the deployment's configured
// transaction timeout, folded into the header.
func (e *EncryptedPvorm) Write(w io.Writer, timeoutMs uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := codec.DefaultHeader(timeoutMs).Write(w); err != nil {
		return err
	}
	if err := codec.WriteUint32(w, uint32(e.Depth)); err != nil {
		return err
	}
	if err := codec.WriteUint32(w, uint32(e.BucketSize)); err != nil {
		return err
	}
	if err := codec.WriteUint32(w, uint32(e.StashSize)); err != nil {
		return err
	}
	if err := codec.WritePoint(w, e.PublicKey, codec.Compressed); err != nil {
		return err
	}

	indices := make([]int64, 0, len(e.buckets))
	for idx := range e.buckets {
		indices = append(indices, idx)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })

	if err := codec.WriteUint32(w, uint32(len(indices))); err != nil {
		return err
	}
	for _, idx := range indices {
		if err := codec.WriteUint64(w, uint64(idx)); err != nil {
			return err
		}
		b := e.buckets[idx]
		if err := codec.WriteUint32(w, uint32(len(b.slots))); err != nil {
			return err
		}
		for _, slot := range b.slots {
			if err := slot.Write(w); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReadEncryptedPvorm reads a snapshot written by Write, rebuilding the
// filler block from params and the decoded public key. Rejects the
// snapshot outright if its header doesn't match this deployment's
// (version, curve, hash, transaction timeout) tuple.
func ReadEncryptedPvorm(r io.Reader, params *group.Params, timeoutMs uint64) (*EncryptedPvorm, error) {
	if _, err := codec.ReadHeader(r, codec.DefaultHeader(timeoutMs)); err != nil {
		return nil, err
	}

	var depth, bucketSize, stashSize uint32
	if err := codec.ReadUint32(r, &depth); err != nil {
		return nil, err
	}
	if err := codec.ReadUint32(r, &bucketSize); err != nil {
		return nil, err
	}
	if err := codec.ReadUint32(r, &stashSize); err != nil {
		return nil, err
	}
	publicKey, err := codec.ReadPoint(r, params.Suite, codec.Compressed)
	if err != nil {
		return nil, err
	}

	e := NewEncryptedPvorm(params, int(depth), int(bucketSize), int(stashSize), publicKey)

	var numBuckets uint32
	if err := codec.ReadUint32(r, &numBuckets); err != nil {
		return nil, err
	}
	for i := uint32(0); i < numBuckets; i++ {
		var idx uint64
		if err := codec.ReadUint64(r, &idx); err != nil {
			return nil, err
		}
		var capacity uint32
		if err := codec.ReadUint32(r, &capacity); err != nil {
			return nil, err
		}
		b := newBucket(int(capacity), e.filler)
		for s := range b.slots {
			blk, err := update.ReadBlock(r, params.Suite)
			if err != nil {
				return nil, err
			}
			b.slots[s] = blk
		}
		e.buckets[int64(idx)] = b
	}
	return e, nil
}

func (e *EncryptedPvorm) capacityFor(idx int64) int {
	switch idx {
	case 0:
		return 1
	case 1:
		return e.StashSize
	default:
		return e.BucketSize
	}
}

// authoritative returns the last-applied bucket at idx, lazily allocating
// filler-only buckets on first touch.
func (e *EncryptedPvorm) authoritative(idx int64) *bucket {
	b, ok := e.buckets[idx]
	if !ok {
		b = newBucket(e.capacityFor(idx), e.filler)
		e.buckets[idx] = b
	}
	return b
}

// VerifyUpdate checks every proof in u against the current authoritative
// state, following spec §4.7's nine-step verifier algorithm: match tree
// shape and public key, replay the pre-update swaps against a copy-on-write
// shadow, check the account-key proof and fold in the balance change, check
// the optional range proof, replay the post-update swaps, and only then
// commit the shadow as the pending verified update. Every step's proof
// check is scheduled on exec and joined once, so an honest update's cost is
// the latency of its slowest single proof rather than their sum.
//
// A failed verification never mutates e's authoritative state, and it
// discards any previously pending verified-but-unapplied update.
func (e *EncryptedPvorm) VerifyUpdate(u *update.PvormUpdate, exec executor.Executor) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if int(u.TreeDepth) != e.Depth || int(u.BucketSize) != e.BucketSize || int(u.StashSize) != e.StashSize {
		e.overlay = nil
		return false
	}
	if !u.PublicKey.Equal(e.PublicKey) {
		e.overlay = nil
		return false
	}

	overlay := make(map[int64]*bucket)
	get := func(idx int64) *bucket {
		if b, ok := overlay[idx]; ok {
			return b
		}
		return e.authoritative(idx)
	}
	cow := func(idx int64) *bucket {
		if b, ok := overlay[idx]; ok {
			return b
		}
		b := get(idx).clone()
		overlay[idx] = b
		return b
	}

	var handles []*executor.Handle
	temp := get(0).slots[0]

	replay := func(swaps []update.Swap) {
		for _, s := range swaps {
			s := s
			preTemp := temp
			preSlot := get(s.BucketIdx).slots[s.SlotIdx]
			handles = append(handles, exec.Go(func() error {
				if !s.Proof.Verify(e.params, e.PublicKey, preTemp, preSlot, s.NewTemp, s.NewInPvorm) {
					return zk.ErrProofInvalid
				}
				return nil
			}))
			cow(s.BucketIdx).slots[s.SlotIdx] = s.NewInPvorm
			temp = s.NewTemp
		}
	}

	replay(u.PreSwaps)

	accountKeyProof := u.AccountKeyProof
	tempAtAccountCheck := temp
	handles = append(handles, exec.Go(func() error {
		if !accountKeyProof.Verify(e.params, e.PublicKey, tempAtAccountCheck.EncKey, u.EncAccountKey) {
			return zk.ErrProofInvalid
		}
		return nil
	}))

	temp = update.Block{
		EncKey:     temp.EncKey,
		EncBalance: encrypt.Add(e.params, temp.EncBalance, u.EncBalanceChange),
	}

	if u.HasRange {
		rangeProof := u.RangeProof
		balAtRangeCheck := temp.EncBalance
		handles = append(handles, exec.Go(func() error {
			if !rangeProof.Verify(e.params, exec, e.PublicKey, balAtRangeCheck) {
				return zk.ErrProofInvalid
			}
			return nil
		}))
	}

	replay(u.PostSwaps)

	cow(0).slots[0] = temp

	if err := executor.JoinAll(handles...); err != nil {
		e.overlay = nil
		return false
	}

	e.overlay = overlay
	return true
}

// ApplyLastVerifiedUpdate flushes the pending verified update's shadow
// state into the authoritative buckets and clears the pending overlay.
func (e *EncryptedPvorm) ApplyLastVerifiedUpdate() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.overlay == nil {
		return ErrNoVerifiedUpdate
	}
	for idx, b := range e.overlay {
		e.buckets[idx] = b
	}
	e.overlay = nil
	return nil
}

// ApplyUpdateWithoutVerification applies u's swaps directly to the
// authoritative state without checking any proof. This is the insecure
// fast path spec §4.7 calls out for trusted offline replay (e.g.
// reconstructing state from an already-audited transaction log); it must
// never be used on an update from an untrusted source.
func (e *EncryptedPvorm) ApplyUpdateWithoutVerification(u *update.PvormUpdate) {
	e.mu.Lock()
	defer e.mu.Unlock()

	temp := e.authoritative(0).slots[0]
	apply := func(swaps []update.Swap) {
		for _, s := range swaps {
			e.authoritative(s.BucketIdx).slots[s.SlotIdx] = s.NewInPvorm
			temp = s.NewTemp
		}
	}
	apply(u.PreSwaps)
	temp = update.Block{
		EncKey:     temp.EncKey,
		EncBalance: encrypt.Add(e.params, temp.EncBalance, u.EncBalanceChange),
	}
	apply(u.PostSwaps)
	e.authoritative(0).slots[0] = temp
}

// AccountBalance is one entry of a full decryption (spec §4.7
// decrypt_all): an account's public key and its plaintext balance.
type AccountBalance struct {
	AccountKey group.Point
	Balance    int64
}

// DecryptAll decrypts every occupied slot under secretKey, skipping filler
// slots (those decrypting to the identity point). Intended for offline
// auditing only - an honest deployment never calls this against live
// account data outside of the account owning its own secret key.
func (e *EncryptedPvorm) DecryptAll(secretKey group.Scalar) []AccountBalance {
	e.mu.Lock()
	defer e.mu.Unlock()

	dec := encrypt.ForKey(e.params, secretKey)
	identity := e.params.Identity()

	var out []AccountBalance
	for _, b := range e.buckets {
		for _, slot := range b.slots {
			key := dec.DecryptPoint(slot.EncKey)
			if key.Equal(identity) {
				continue
			}
			balance, err := dec.DecryptBalance(slot.EncBalance)
			if err != nil {
				continue
			}
			out = append(out, AccountBalance{AccountKey: key, Balance: balance})
		}
	}
	return out
}
