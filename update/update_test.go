package update

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/solidus-network/pvorm/encrypt"
	"github.com/solidus-network/pvorm/group"
	"github.com/solidus-network/pvorm/zk"
)

func testParams(t *testing.T) *group.Params {
	t.Helper()
	return group.Build(group.Opts{VMax: 1 << 16, Gap: 1 << 8})
}

func TestBlockRoundTrip(t *testing.T) {
	p := testParams(t)
	sk := p.RandomScalar()
	pk := p.PointFromScalarMult(sk)

	blk := Block{
		EncKey:     encrypt.EncryptPoint(p, pk, p.PointFromScalarMult(p.RandomScalar())),
		EncBalance: encrypt.EncryptValue(p, pk, p.ScalarFromInt64(123)),
	}

	var buf bytes.Buffer
	require.NoError(t, blk.Write(&buf))
	got, err := ReadBlock(&buf, p.Suite)
	require.NoError(t, err)
	require.True(t, got.EncKey.X.Equal(blk.EncKey.X))
	require.True(t, got.EncBalance.Y.Equal(blk.EncBalance.Y))
}

func TestFillerBlockDecryptsToIdentity(t *testing.T) {
	p := testParams(t)
	sk := p.RandomScalar()
	pk := p.PointFromScalarMult(sk)

	filler := FillerBlock(p, pk)
	dec := encrypt.ForKey(p, sk)
	require.True(t, dec.DecryptPoint(filler.EncKey).Equal(p.Identity()))
	require.True(t, dec.DecryptPoint(filler.EncBalance).Equal(p.Identity()))
}

func TestBlockSwapProofStraightAndSwapped(t *testing.T) {
	p := testParams(t)
	sk := p.RandomScalar()
	pk := p.PointFromScalarMult(sk)

	preTemp := FillerBlock(p, pk)
	preSlot := Block{
		EncKey:     encrypt.EncryptPoint(p, pk, p.PointFromScalarMult(p.RandomScalar())),
		EncBalance: encrypt.EncryptValue(p, pk, p.ScalarFromInt64(50)),
	}

	straightPostTemp := Block{EncKey: encrypt.Reencrypt(p, pk, preTemp.EncKey), EncBalance: encrypt.Reencrypt(p, pk, preTemp.EncBalance)}
	straightPostSlot := Block{EncKey: encrypt.Reencrypt(p, pk, preSlot.EncKey), EncBalance: encrypt.Reencrypt(p, pk, preSlot.EncBalance)}
	proof := BuildBlockSwapProof(p, sk, pk, preTemp, preSlot, straightPostTemp, straightPostSlot, true)
	require.True(t, proof.Verify(p, pk, preTemp, preSlot, straightPostTemp, straightPostSlot))

	swappedPostTemp := Block{EncKey: encrypt.Reencrypt(p, pk, preSlot.EncKey), EncBalance: encrypt.Reencrypt(p, pk, preSlot.EncBalance)}
	swappedPostSlot := Block{EncKey: encrypt.Reencrypt(p, pk, preTemp.EncKey), EncBalance: encrypt.Reencrypt(p, pk, preTemp.EncBalance)}
	require.False(t, proof.Verify(p, pk, preTemp, preSlot, swappedPostTemp, swappedPostSlot))

	swappedProof := BuildBlockSwapProof(p, sk, pk, preTemp, preSlot, swappedPostTemp, swappedPostSlot, false)
	require.True(t, swappedProof.Verify(p, pk, preTemp, preSlot, swappedPostTemp, swappedPostSlot))
}

func TestSwapRoundTrip(t *testing.T) {
	p := testParams(t)
	sk := p.RandomScalar()
	pk := p.PointFromScalarMult(sk)

	preTemp := FillerBlock(p, pk)
	preSlot := FillerBlock(p, pk)
	postTemp := Block{EncKey: encrypt.Reencrypt(p, pk, preTemp.EncKey), EncBalance: encrypt.Reencrypt(p, pk, preTemp.EncBalance)}
	postSlot := Block{EncKey: encrypt.Reencrypt(p, pk, preSlot.EncKey), EncBalance: encrypt.Reencrypt(p, pk, preSlot.EncBalance)}
	proof := BuildBlockSwapProof(p, sk, pk, preTemp, preSlot, postTemp, postSlot, true)

	s := Swap{BucketIdx: 7, SlotIdx: 2, NewTemp: postTemp, NewInPvorm: postSlot, Proof: proof}

	var buf bytes.Buffer
	require.NoError(t, s.Write(&buf))
	got, err := ReadSwap(&buf, p.Suite)
	require.NoError(t, err)
	require.Equal(t, s.BucketIdx, got.BucketIdx)
	require.Equal(t, s.SlotIdx, got.SlotIdx)
	require.True(t, got.Proof.Verify(p, pk, preTemp, preSlot, postTemp, postSlot))
}

func TestPvormUpdateRoundTrip(t *testing.T) {
	p := testParams(t)
	sk := p.RandomScalar()
	pk := p.PointFromScalarMult(sk)

	mkSwap := func(bucketIdx int64, slotIdx int) Swap {
		preTemp := FillerBlock(p, pk)
		preSlot := FillerBlock(p, pk)
		postTemp := Block{EncKey: encrypt.Reencrypt(p, pk, preTemp.EncKey), EncBalance: encrypt.Reencrypt(p, pk, preTemp.EncBalance)}
		postSlot := Block{EncKey: encrypt.Reencrypt(p, pk, preSlot.EncKey), EncBalance: encrypt.Reencrypt(p, pk, preSlot.EncBalance)}
		proof := BuildBlockSwapProof(p, sk, pk, preTemp, preSlot, postTemp, postSlot, true)
		return Swap{BucketIdx: bucketIdx, SlotIdx: slotIdx, NewTemp: postTemp, NewInPvorm: postSlot, Proof: proof}
	}

	encAccountKey := encrypt.EncryptPoint(p, pk, p.PointFromScalarMult(p.RandomScalar()))
	encBalanceChange := encrypt.EncryptValue(p, pk, p.ScalarFromInt64(10))
	accountKeyProof := zk.BuildPlaintextEqProof(p, sk, pk, encAccountKey, encAccountKey)

	u := &PvormUpdate{
		TreeDepth:        4,
		BucketSize:       4,
		StashSize:        8,
		PublicKey:        pk,
		PreSwaps:         []Swap{mkSwap(1, 0), mkSwap(1, 1)},
		EncAccountKey:    encAccountKey,
		EncBalanceChange: encBalanceChange,
		AccountKeyProof:  accountKeyProof,
		HasRange:         false,
		PostSwaps:        []Swap{mkSwap(2, 0)},
	}

	var buf bytes.Buffer
	require.NoError(t, u.Write(&buf, 30_000))
	got, err := ReadPvormUpdate(&buf, p.Suite, 30_000)
	require.NoError(t, err)

	require.Equal(t, u.TreeDepth, got.TreeDepth)
	require.Equal(t, u.BucketSize, got.BucketSize)
	require.Equal(t, u.StashSize, got.StashSize)
	require.Len(t, got.PreSwaps, 2)
	require.Len(t, got.PostSwaps, 1)
	require.False(t, got.HasRange)
	require.Nil(t, got.RangeProof)
}
