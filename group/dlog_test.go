package group

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func testParams(t *testing.T) *Params {
	t.Helper()
	return Build(Opts{VMax: 1 << 12, Gap: 1 << 6})
}

func TestDLogTableLookupPositiveAndNegative(t *testing.T) {
	p := testParams(t)

	for _, k := range []int64{0, 1, 63, 64, 65, 1000, 4096} {
		point := p.PointFromScalarMult(p.ScalarFromInt64(k))
		got, err := p.DLog.Lookup(p, point)
		require.NoError(t, err)
		require.Equal(t, k, got)

		negPoint := p.PointFromScalarMult(p.ScalarFromInt64(-k))
		gotNeg, err := p.DLog.Lookup(p, negPoint)
		require.NoError(t, err)
		require.Equal(t, -k, gotNeg)
	}
}

func TestDLogTableLookupMiss(t *testing.T) {
	p := testParams(t)
	farPoint := p.PointFromScalarMult(p.ScalarFromInt64(p.VMax + 1000))
	_, err := p.DLog.Lookup(p, farPoint)
	require.ErrorIs(t, err, ErrDiscreteLogNotFound)
}

func TestDLogTableSaveLoadRoundTrip(t *testing.T) {
	p := testParams(t)

	var buf bytes.Buffer
	require.NoError(t, p.DLog.SaveTo(&buf))

	loaded, err := LoadFrom(&buf)
	require.NoError(t, err)

	p2 := BuildWithTable(Opts{VMax: p.VMax, Gap: p.DLogGap}, loaded)
	point := p2.PointFromScalarMult(p2.ScalarFromInt64(100))
	got, err := loaded.Lookup(p2, point)
	require.NoError(t, err)
	require.EqualValues(t, 100, got)
}
