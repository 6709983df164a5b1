package zk

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/solidus-network/pvorm/encrypt"
	"github.com/solidus-network/pvorm/executor"
	"github.com/solidus-network/pvorm/group"
)

func testParams(t *testing.T) *group.Params {
	t.Helper()
	return group.Build(group.Opts{VMax: 1 << 16, Gap: 1 << 8})
}

func TestPlaintextEqProofRoundTrip(t *testing.T) {
	p := testParams(t)
	sk := p.RandomScalar()
	pk := p.PointFromScalarMult(sk)

	msg := p.PointFromScalarMult(p.RandomScalar())
	c1 := encrypt.EncryptPoint(p, pk, msg)
	c2 := encrypt.Reencrypt(p, pk, c1)

	proof := BuildPlaintextEqProof(p, sk, pk, c1, c2)
	require.True(t, proof.Verify(p, pk, c1, c2))

	other := encrypt.EncryptPoint(p, pk, p.PointFromScalarMult(p.RandomScalar()))
	require.False(t, proof.Verify(p, pk, c1, other))
}

func TestPlaintextEqDisKeyProof(t *testing.T) {
	p := testParams(t)
	sk1, sk2 := p.RandomScalar(), p.RandomScalar()
	pk1, pk2 := p.PointFromScalarMult(sk1), p.PointFromScalarMult(sk2)

	msgScalar := p.RandomScalar()
	msgPoint := p.PointFromScalarMult(msgScalar)
	r1, r2 := p.RandomScalar(), p.RandomScalar()
	c1 := encrypt.Cipher{X: p.Suite.Point().Add(msgPoint, p.Suite.Point().Mul(r1, pk1)), Y: p.Suite.Point().Mul(r1, nil)}
	c2 := encrypt.Cipher{X: p.Suite.Point().Add(msgPoint, p.Suite.Point().Mul(r2, pk2)), Y: p.Suite.Point().Mul(r2, nil)}

	proof := BuildPlaintextEqDisKeyProof(p, msgScalar, r1, r2, pk1, pk2, c1, c2)
	require.True(t, proof.Verify(p, pk1, pk2, c1, c2))
	require.False(t, proof.Verify(p, pk2, pk1, c1, c2))
}

func TestOneOfTwoDlogProof(t *testing.T) {
	p := testParams(t)
	base := p.Generator()

	sk0 := p.RandomScalar()
	pk0 := p.PointFromScalarMult(sk0)
	point1a := p.Suite.Point().Mul(sk0, base)
	point2a := p.Suite.Point().Add(point1a, p.Generator())
	proof0 := BuildOneOfTwoDlogProof(p, sk0, pk0, base, point1a, point2a, 0)
	require.True(t, proof0.Verify(p, pk0, base, point1a, point2a))
	require.False(t, proof0.Verify(p, pk0, base, point2a, point1a))

	sk1 := p.RandomScalar()
	pk1 := p.PointFromScalarMult(sk1)
	point2b := p.Suite.Point().Mul(sk1, base)
	point1b := p.Suite.Point().Add(point2b, p.Generator())
	proof1 := BuildOneOfTwoDlogProof(p, sk1, pk1, base, point1b, point2b, 1)
	require.True(t, proof1.Verify(p, pk1, base, point1b, point2b))
}

func TestSchnorrSignature(t *testing.T) {
	p := testParams(t)
	sk := p.RandomScalar()
	pk := p.PointFromScalarMult(sk)

	sig := Sign(p, sk, []byte("transaction header bytes"))
	require.True(t, sig.Verify(p, pk, []byte("transaction header bytes")))
	require.False(t, sig.Verify(p, pk, []byte("tampered")))
}

func TestDoubleSwapProofStraightAndSwapped(t *testing.T) {
	p := testParams(t)
	sk := p.RandomScalar()
	pk := p.PointFromScalarMult(sk)

	m1 := p.PointFromScalarMult(p.RandomScalar())
	m2 := p.PointFromScalarMult(p.RandomScalar())
	pre1 := encrypt.EncryptPoint(p, pk, m1)
	pre2 := encrypt.EncryptPoint(p, pk, m2)

	straightPost1 := encrypt.Reencrypt(p, pk, pre1)
	straightPost2 := encrypt.Reencrypt(p, pk, pre2)
	swappedPost1 := encrypt.Reencrypt(p, pk, pre2)
	swappedPost2 := encrypt.Reencrypt(p, pk, pre1)

	straightProof := BuildDoubleSwapProof(p, sk, pk, pre1, pre2, straightPost1, straightPost2, true)
	require.True(t, straightProof.Verify(p, pk, pre1, pre2, straightPost1, straightPost2))
	require.False(t, straightProof.Verify(p, pk, pre1, pre2, swappedPost1, swappedPost2))

	swappedProof := BuildDoubleSwapProof(p, sk, pk, pre1, pre2, swappedPost1, swappedPost2, false)
	require.True(t, swappedProof.Verify(p, pk, pre1, pre2, swappedPost1, swappedPost2))
	require.False(t, swappedProof.Verify(p, pk, pre1, pre2, straightPost1, straightPost2))
}

func TestMaxwellRangeProof(t *testing.T) {
	p := testParams(t)
	sk := p.RandomScalar()
	pk := p.PointFromScalarMult(sk)

	balance := encrypt.EncryptValue(p, pk, p.ScalarFromInt64(42))
	proof, err := BuildMaxwellRangeProof(p, executor.Inline, sk, pk, balance, 42, 8)
	require.NoError(t, err)
	require.True(t, proof.Verify(p, executor.Inline, pk, balance))

	other := encrypt.EncryptValue(p, pk, p.ScalarFromInt64(43))
	require.False(t, proof.Verify(p, executor.Inline, pk, other))

	_, err = BuildMaxwellRangeProof(p, executor.Inline, sk, pk, balance, 1000, 8)
	require.ErrorIs(t, err, ErrRangeProofOutOfBounds)
}
