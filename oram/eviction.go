package oram

// doubleEvict runs both path evictions of spec §4.6's double eviction and
// discards their transcripts, for use at Insert build time where no
// transcript is returned to the caller.
func (t *Tree) doubleEvict() error {
	_, _, err := t.doubleEvictTranscript()
	return err
}

// doubleEvictTranscript picks the two bit-reversal-permuted leaves for this
// round, evicts each path in turn (stash and temp state are shared and
// mutated across both, so the second eviction sees whatever the first
// couldn't place), advances ctr, and drains any block still stuck in temp
// into the stash so the update's post-condition (temp empty) holds. The
// drain itself touches a slot neither path eviction visited, so it is
// reported separately rather than folded into either eviction's touch list.
func (t *Tree) doubleEvictTranscript() ([2][]SlotEviction, *SlotEviction, error) {
	var out [2][]SlotEviction

	half := t.leaves / 2
	ctr := t.ctr.Load()
	leaf1 := bitReverse(2*ctr, t.Depth)
	leaf2 := bitReverse(2*ctr+1, t.Depth)
	t.ctr.Store((ctr + 1) % half)

	out[0] = t.evictPath(leaf1)
	out[1] = t.evictPath(leaf2)

	drain, err := t.drainTempIntoStash()
	if err != nil {
		return out, nil, err
	}
	return out, drain, nil
}

// evictPath runs one circuit-ORAM path eviction toward targetLeaf: a
// single-hold-register forward walk over the fixed touch sequence (every
// stash slot, then every slot of every bucket on the path to targetLeaf, in
// that order - spec §4.6's "stash_size + D*bucket_size" touches).
//
// The register starts holding whatever is in the temp slot (cleared for the
// duration of the walk). At each touched slot: if the register holds a
// block and the slot is empty and the slot's depth is within the held
// block's reach (the depth its leaf shares with targetLeaf), the block is
// deposited there and the register empties; if the register is empty and
// the slot holds a block that could still go deeper than its current
// position, that block is picked up into the register and the slot is
// cleared; otherwise nothing happens at this slot. A slot where something
// happened is "real" - the only information the encrypted PVORM needs to
// mirror this walk over ciphertexts (spec §4.7 step 3).
//
// This is a from-scratch single-pass reconstruction of the paper's named
// PrepareDeepest/PrepareTarget/EvictOnceFast phases rather than a literal
// transcription (no reference implementation of this module survived
// retrieval - see DESIGN.md); it preserves every structural invariant the
// three-phase description calls for: deterministic, capacity-respecting,
// and blocks only ever move toward their own leaf, never away from it.
func (t *Tree) evictPath(targetLeaf int64) []SlotEviction {
	pathBucketIdx := make([]int64, t.Depth+1)
	for d := 1; d <= t.Depth; d++ {
		pathBucketIdx[d] = pathBucketIndex(targetLeaf, t.Depth, d)
	}

	hold := t.temp().slots[0]
	t.temp().slots[0] = nil

	var out []SlotEviction
	visit := func(bucketIdx int64, slotIdx int, depth int) {
		b := t.bucket(bucketIdx)
		current := b.slots[slotIdx]
		real := false
		switch {
		case hold != nil && current == nil && sharedPrefixDepth(hold.Leaf, targetLeaf, t.Depth) >= depth:
			b.slots[slotIdx] = hold
			t.positions[hold.AccountKey.String()] = location{Leaf: hold.Leaf, BucketIdx: bucketIdx, SlotIdx: slotIdx}
			hold = nil
			real = true
		case hold == nil && current != nil && sharedPrefixDepth(current.Leaf, targetLeaf, t.Depth) > depth:
			hold = current
			b.slots[slotIdx] = nil
			real = true
		}
		out = append(out, SlotEviction{BucketIdx: bucketIdx, SlotIdx: slotIdx, Real: real})
	}

	for i := 0; i < t.StashSize; i++ {
		visit(1, i, 0)
	}
	for d := 1; d <= t.Depth; d++ {
		idx := pathBucketIdx[d]
		for i := 0; i < t.BucketSize; i++ {
			visit(idx, i, d)
		}
	}

	if hold != nil {
		// Couldn't place it along this path; it goes back to temp for the
		// next path of the double eviction, or the post-eviction drain.
		t.temp().slots[0] = hold
		t.positions[hold.AccountKey.String()] = location{Leaf: hold.Leaf, BucketIdx: 0, SlotIdx: 0}
	}

	return out
}

// drainTempIntoStash forces the temp slot empty after a double eviction: if
// a block is still stuck there (neither path eviction could place it), it
// moves into the first free stash slot and the touched (bucket, slot) is
// returned so the caller can mirror the move; nil, nil means temp was
// already empty and there is nothing to mirror.
func (t *Tree) drainTempIntoStash() (*SlotEviction, error) {
	blk := t.temp().slots[0]
	if blk == nil {
		return nil, nil
	}
	stash := t.stash()
	slot := stash.firstEmptySlot()
	if slot == -1 {
		return nil, ErrStashOverflow
	}
	stash.slots[slot] = blk
	t.temp().slots[0] = nil
	t.positions[blk.AccountKey.String()] = location{Leaf: blk.Leaf, BucketIdx: 1, SlotIdx: slot}
	return &SlotEviction{BucketIdx: 1, SlotIdx: slot, Real: true}, nil
}
