package oram

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/solidus-network/pvorm/group"
)

func testParams(t *testing.T) *group.Params {
	t.Helper()
	return group.Build(group.Opts{VMax: 1 << 16, Gap: 1 << 8})
}

func randomAccountKey(t *testing.T, p *group.Params) group.Point {
	t.Helper()
	return p.Suite.Point().Mul(p.RandomScalar(), nil)
}

func TestInsertThenBalance(t *testing.T) {
	p := testParams(t)
	tree := NewTree(4, 4, 8)

	accounts := make([]group.Point, 7)
	for i := range accounts {
		accounts[i] = randomAccountKey(t, p)
		require.NoError(t, tree.Insert(accounts[i], int64(100*(i+1))))
	}

	for i, acc := range accounts {
		bal, ok := tree.Balance(acc)
		require.True(t, ok)
		require.EqualValues(t, 100*(i+1), bal)
	}
}

func TestInsertDuplicateRejected(t *testing.T) {
	p := testParams(t)
	tree := NewTree(3, 4, 8)
	acc := randomAccountKey(t, p)
	require.NoError(t, tree.Insert(acc, 10))
	require.ErrorIs(t, tree.Insert(acc, 10), ErrAccountExists)
}

func TestInsertCapacityExceeded(t *testing.T) {
	p := testParams(t)
	tree := NewTree(1, 4, 8) // 2 leaves
	require.NoError(t, tree.Insert(randomAccountKey(t, p), 1))
	require.NoError(t, tree.Insert(randomAccountKey(t, p), 1))
	require.ErrorIs(t, tree.Insert(randomAccountKey(t, p), 1), ErrCapacityExceeded)
}

func TestUpdateAppliesDeltaAndReassignsLeaf(t *testing.T) {
	p := testParams(t)
	tree := NewTree(4, 4, 8)
	acc := randomAccountKey(t, p)
	require.NoError(t, tree.Insert(acc, 500))

	transcript, err := tree.Update(acc, -200)
	require.NoError(t, err)
	require.GreaterOrEqual(t, transcript.NewLeaf, int64(0))
	require.Less(t, transcript.NewLeaf, tree.leaves)
	require.Len(t, transcript.Evictions[0], tree.StashSize+tree.Depth*tree.BucketSize)
	require.Len(t, transcript.Evictions[1], tree.StashSize+tree.Depth*tree.BucketSize)

	bal, ok := tree.Balance(acc)
	require.True(t, ok)
	require.EqualValues(t, 300, bal)
}

func TestUpdateRejectsNegativeBalance(t *testing.T) {
	p := testParams(t)
	tree := NewTree(4, 4, 8)
	acc := randomAccountKey(t, p)
	require.NoError(t, tree.Insert(acc, 50))
	_, err := tree.Update(acc, -100)
	require.ErrorIs(t, err, ErrNegativeBalance)
}

func TestUpdateUnknownAccount(t *testing.T) {
	p := testParams(t)
	tree := NewTree(4, 4, 8)
	_, err := tree.Update(randomAccountKey(t, p), 1)
	require.ErrorIs(t, err, ErrAccountNotFound)
}

func TestManyUpdatesPreserveInvariants(t *testing.T) {
	p := testParams(t)
	tree := NewTree(5, 4, 16)

	const n = 12
	accounts := make([]group.Point, n)
	want := make([]int64, n)
	for i := range accounts {
		accounts[i] = randomAccountKey(t, p)
		want[i] = int64(1000 + i)
		require.NoError(t, tree.Insert(accounts[i], want[i]))
	}

	for round := 0; round < 20; round++ {
		i := round % n
		delta := int64(round - 5)
		if want[i]+delta < 0 {
			continue
		}
		_, err := tree.Update(accounts[i], delta)
		require.NoError(t, err)
		want[i] += delta
	}

	for i, acc := range accounts {
		bal, ok := tree.Balance(acc)
		require.True(t, ok)
		require.Equal(t, want[i], bal, "account %d", i)
	}

	require.Nil(t, tree.temp().slots[0], "temp bucket must be empty at rest")
}

func TestBitReverseIsInvolution(t *testing.T) {
	for _, bits := range []int{1, 3, 8} {
		n := int64(1) << uint(bits)
		for x := int64(0); x < n; x++ {
			require.Equal(t, x, bitReverse(bitReverse(x, bits), bits))
		}
	}
}

func TestSharedPrefixDepth(t *testing.T) {
	require.Equal(t, 3, sharedPrefixDepth(0b101, 0b101, 3))
	require.Equal(t, 0, sharedPrefixDepth(0b001, 0b101, 3))
	require.Equal(t, 2, sharedPrefixDepth(0b100, 0b101, 3))
}
