package update

import (
	"io"

	"github.com/solidus-network/pvorm/codec"
	"github.com/solidus-network/pvorm/group"
	"github.com/solidus-network/pvorm/zk"
)

// BlockSwapProof proves a slot's encrypted Block transitioned honestly
// during one eviction touch: a Block carries two ciphers (enc_key,
// enc_balance), so a swap of two Blocks is proven as two coupled
// single-cipher zk.DoubleSwapProofs sharing the same straight/swapped
// branch, one per field.
type BlockSwapProof struct {
	Key     *zk.DoubleSwapProof
	Balance *zk.DoubleSwapProof
}

// BuildBlockSwapProof proves that (postTemp, postSlot) is a reencryption of
// (preTemp, preSlot) under publicKey, straight (no real swap, the slot's
// resident block is untouched) or swapped (the two blocks traded places).
func BuildBlockSwapProof(p *group.Params, secretKey group.Scalar, publicKey group.Point, preTemp, preSlot, postTemp, postSlot Block, straight bool) *BlockSwapProof {
	return &BlockSwapProof{
		Key:     zk.BuildDoubleSwapProof(p, secretKey, publicKey, preTemp.EncKey, preSlot.EncKey, postTemp.EncKey, postSlot.EncKey, straight),
		Balance: zk.BuildDoubleSwapProof(p, secretKey, publicKey, preTemp.EncBalance, preSlot.EncBalance, postTemp.EncBalance, postSlot.EncBalance, straight),
	}
}

// Verify checks both coupled DoubleSwapProofs.
func (bp *BlockSwapProof) Verify(p *group.Params, publicKey group.Point, preTemp, preSlot, postTemp, postSlot Block) bool {
	return bp.Key.Verify(p, publicKey, preTemp.EncKey, preSlot.EncKey, postTemp.EncKey, postSlot.EncKey) &&
		bp.Balance.Verify(p, publicKey, preTemp.EncBalance, preSlot.EncBalance, postTemp.EncBalance, postSlot.EncBalance)
}

// Write serializes the proof: key proof then balance proof.
func (bp *BlockSwapProof) Write(w io.Writer) error {
	if err := bp.Key.Write(w); err != nil {
		return err
	}
	return bp.Balance.Write(w)
}

// ReadBlockSwapProof reads a proof written by Write.
func ReadBlockSwapProof(r io.Reader, suite group.Suite) (*BlockSwapProof, error) {
	key, err := zk.ReadDoubleSwapProof(r, suite)
	if err != nil {
		return nil, err
	}
	bal, err := zk.ReadDoubleSwapProof(r, suite)
	if err != nil {
		return nil, err
	}
	return &BlockSwapProof{Key: key, Balance: bal}, nil
}

// Swap is one entry of a PvormUpdate's pre- or post-update swap list (spec
// §4.8): the touched slot, the slot's and temp's new contents, and the
// proof tying them to what was there before.
type Swap struct {
	BucketIdx  int64
	SlotIdx    int
	NewTemp    Block
	NewInPvorm Block
	Proof      *BlockSwapProof
}

// Write serializes the swap: bucket_idx (u32), slot_idx (u8), new_temp,
// new_in_pvorm, then the swap proof.
func (s Swap) Write(w io.Writer) error {
	if err := codec.WriteUint32(w, uint32(s.BucketIdx)); err != nil {
		return err
	}
	if err := writeByte(w, byte(s.SlotIdx)); err != nil {
		return err
	}
	if err := s.NewTemp.Write(w); err != nil {
		return err
	}
	if err := s.NewInPvorm.Write(w); err != nil {
		return err
	}
	return s.Proof.Write(w)
}

// ReadSwap reads a swap written by Write.
func ReadSwap(r io.Reader, suite group.Suite) (Swap, error) {
	var bucketIdx uint32
	if err := codec.ReadUint32(r, &bucketIdx); err != nil {
		return Swap{}, err
	}
	slotIdx, err := readByte(r)
	if err != nil {
		return Swap{}, err
	}
	newTemp, err := ReadBlock(r, suite)
	if err != nil {
		return Swap{}, err
	}
	newInPvorm, err := ReadBlock(r, suite)
	if err != nil {
		return Swap{}, err
	}
	proof, err := ReadBlockSwapProof(r, suite)
	if err != nil {
		return Swap{}, err
	}
	return Swap{
		BucketIdx:  int64(bucketIdx),
		SlotIdx:    int(slotIdx),
		NewTemp:    newTemp,
		NewInPvorm: newInPvorm,
		Proof:      proof,
	}, nil
}

func writeByte(w io.Writer, b byte) error {
	_, err := w.Write([]byte{b})
	return err
}

func readByte(r io.Reader) (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, codec.ErrMalformedInput
	}
	return b[0], nil
}
