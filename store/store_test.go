package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/solidus-network/pvorm/encoram"
	"github.com/solidus-network/pvorm/group"
	"github.com/solidus-network/pvorm/update"
	"github.com/solidus-network/pvorm/zk"
)

func testParams(t *testing.T) *group.Params {
	t.Helper()
	return group.Build(group.Opts{VMax: 1 << 12, Gap: 1 << 6})
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := OpenMem(60_000)
	p := testParams(t)
	publicKey := p.PointFromScalarMult(p.RandomScalar())

	e := encoram.NewEncryptedPvorm(p, 4, 4, 8, publicKey)
	require.NoError(t, s.SaveSnapshot("bank-a", e))

	loaded, ok, err := s.LoadSnapshot("bank-a", p)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, e.Depth, loaded.Depth)
	require.True(t, e.PublicKey.Equal(loaded.PublicKey))

	_, ok, err = s.LoadSnapshot("unknown", p)
	require.NoError(t, err)
	require.False(t, ok)
}

// minimalUpdate builds a PvormUpdate with empty swap lists and no range
// proof, enough to exercise AppendUpdate/IterateUpdates' wire format
// without needing a full OwnedPvorm.Update call.
func minimalUpdate(p *group.Params, secretKey group.Scalar, publicKey group.Point) *update.PvormUpdate {
	filler := update.FillerBlock(p, publicKey)
	return &update.PvormUpdate{
		TreeDepth:        4,
		BucketSize:       4,
		StashSize:        8,
		PublicKey:        publicKey,
		EncAccountKey:    filler.EncKey,
		EncBalanceChange: filler.EncBalance,
		AccountKeyProof:  zk.BuildPlaintextEqProof(p, secretKey, publicKey, filler.EncKey, filler.EncKey),
	}
}

func TestUpdateLogAppendAndIterate(t *testing.T) {
	s := OpenMem(60_000)
	p := testParams(t)
	secretKey := p.RandomScalar()
	publicKey := p.PointFromScalarMult(secretKey)

	require.NoError(t, s.AppendUpdate("bank-a", 0, minimalUpdate(p, secretKey, publicKey)))
	require.NoError(t, s.AppendUpdate("bank-a", 1, minimalUpdate(p, secretKey, publicKey)))
	require.NoError(t, s.AppendUpdate("bank-b", 0, minimalUpdate(p, secretKey, publicKey)))

	var seqs []uint64
	require.NoError(t, s.IterateUpdates("bank-a", p.Suite, func(seq uint64, got *update.PvormUpdate) bool {
		seqs = append(seqs, seq)
		require.True(t, got.PublicKey.Equal(publicKey))
		return true
	}))
	require.Equal(t, []uint64{0, 1}, seqs)
}

func TestDLogTableCache(t *testing.T) {
	s := OpenMem(60_000)
	p, err := s.BuildParams(1<<12, 1<<6)
	require.NoError(t, err)

	_, ok, err := s.LoadDLogTable(1<<12, 1<<6)
	require.NoError(t, err)
	require.True(t, ok)

	p2, err := s.BuildParams(1<<12, 1<<6)
	require.NoError(t, err)
	point := p2.PointFromScalarMult(p2.ScalarFromInt64(42))
	k, err := p2.DLog.Lookup(p2, point)
	require.NoError(t, err)
	require.EqualValues(t, 42, k)
	_ = p
}
