package update

import (
	"io"

	"github.com/solidus-network/pvorm/codec"
	"github.com/solidus-network/pvorm/encrypt"
	"github.com/solidus-network/pvorm/group"
	"github.com/solidus-network/pvorm/zk"
)

// PvormUpdate is the record an OwnedPvorm's update produces and every
// EncryptedPvorm's verify_update consumes (spec §4.8): tree shape, the
// ordered pre-update swap list, the request's encrypted account key and
// balance delta with its matching proof, an optional range proof, and the
// ordered post-update swap list.
type PvormUpdate struct {
	TreeDepth  uint32
	BucketSize uint8
	StashSize  uint8
	PublicKey  group.Point

	PreSwaps []Swap

	EncAccountKey    encrypt.Cipher
	EncBalanceChange encrypt.Cipher
	AccountKeyProof  *zk.PlaintextEqProof

	HasRange   bool
	RangeProof *zk.MaxwellRangeProof

	PostSwaps []Swap
}

// Write serializes the update behind a codec.Header (spec §6), then the
// payload in the exact field order of spec §4.8. timeoutMs is the
// deployment's configured transaction timeout, folded into the header so a
// reader configured for a different deployment rejects the update outright
// rather than silently misinterpreting it.
func (u *PvormUpdate) Write(w io.Writer, timeoutMs uint64) error {
	if err := codec.DefaultHeader(timeoutMs).Write(w); err != nil {
		return err
	}
	if err := codec.WriteUint32(w, u.TreeDepth); err != nil {
		return err
	}
	if err := writeByte(w, u.BucketSize); err != nil {
		return err
	}
	if err := writeByte(w, u.StashSize); err != nil {
		return err
	}
	if err := codec.WritePoint(w, u.PublicKey, codec.Compressed); err != nil {
		return err
	}

	if err := codec.WriteUint32(w, uint32(len(u.PreSwaps))); err != nil {
		return err
	}
	for _, s := range u.PreSwaps {
		if err := s.Write(w); err != nil {
			return err
		}
	}

	if err := codec.WritePair(w, u.EncAccountKey, codec.Compressed); err != nil {
		return err
	}
	if err := codec.WritePair(w, u.EncBalanceChange, codec.Compressed); err != nil {
		return err
	}
	if err := u.AccountKeyProof.Write(w); err != nil {
		return err
	}

	if err := codec.WriteBool(w, u.HasRange); err != nil {
		return err
	}
	if u.HasRange {
		if err := u.RangeProof.Write(w); err != nil {
			return err
		}
	}

	if err := codec.WriteUint32(w, uint32(len(u.PostSwaps))); err != nil {
		return err
	}
	for _, s := range u.PostSwaps {
		if err := s.Write(w); err != nil {
			return err
		}
	}
	return nil
}

// ReadPvormUpdate reads an update written by Write, rejecting it outright if
// its header doesn't match this deployment's (version, curve, hash,
// transaction timeout) tuple.
func ReadPvormUpdate(r io.Reader, suite group.Suite, timeoutMs uint64) (*PvormUpdate, error) {
	if _, err := codec.ReadHeader(r, codec.DefaultHeader(timeoutMs)); err != nil {
		return nil, err
	}

	u := &PvormUpdate{}

	if err := codec.ReadUint32(r, &u.TreeDepth); err != nil {
		return nil, err
	}
	bucketSize, err := readByte(r)
	if err != nil {
		return nil, err
	}
	u.BucketSize = bucketSize
	stashSize, err := readByte(r)
	if err != nil {
		return nil, err
	}
	u.StashSize = stashSize
	u.PublicKey, err = codec.ReadPoint(r, suite, codec.Compressed)
	if err != nil {
		return nil, err
	}

	var preLen uint32
	if err := codec.ReadUint32(r, &preLen); err != nil {
		return nil, err
	}
	u.PreSwaps = make([]Swap, preLen)
	for i := range u.PreSwaps {
		s, err := ReadSwap(r, suite)
		if err != nil {
			return nil, err
		}
		u.PreSwaps[i] = s
	}

	u.EncAccountKey, err = codec.ReadPair(r, suite, codec.Compressed)
	if err != nil {
		return nil, err
	}
	u.EncBalanceChange, err = codec.ReadPair(r, suite, codec.Compressed)
	if err != nil {
		return nil, err
	}
	u.AccountKeyProof, err = zk.ReadPlaintextEqProof(r, suite)
	if err != nil {
		return nil, err
	}

	u.HasRange, err = codec.ReadBool(r)
	if err != nil {
		return nil, err
	}
	if u.HasRange {
		u.RangeProof, err = zk.ReadMaxwellRangeProof(r, suite)
		if err != nil {
			return nil, err
		}
	}

	var postLen uint32
	if err := codec.ReadUint32(r, &postLen); err != nil {
		return nil, err
	}
	u.PostSwaps = make([]Swap, postLen)
	for i := range u.PostSwaps {
		s, err := ReadSwap(r, suite)
		if err != nil {
			return nil, err
		}
		u.PostSwaps[i] = s
	}

	return u, nil
}
