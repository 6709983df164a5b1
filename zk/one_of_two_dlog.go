package zk

import (
	"io"

	"github.com/solidus-network/pvorm/codec"
	"github.com/solidus-network/pvorm/group"
	"github.com/solidus-network/pvorm/hashscalar"
)

// OneOfTwoDlogProof proves knowledge of s such that publicKey = s*G and
// either point1 = s*base or point2 = s*base, without revealing which (spec
// §4.5). It is the Cramer-Damgard-Schoenmakers OR-composition of two
// discrete-log-equality statements sharing the witness s: the proof is
// symmetric in point1/point2 regardless of which branch the prover actually
// knows, which is what hides the chosen bit. MaxwellRangeProof uses one of
// these per encrypted bit.
type OneOfTwoDlogProof struct {
	C0, C1 group.Scalar
	Z0, Z1 group.Scalar
}

// BuildOneOfTwoDlogProof constructs a proof for publicKey = secretKey*G,
// where branch (0 or 1) is the true statement: branch 0 means
// point1 = secretKey*base, branch 1 means point2 = secretKey*base.
func BuildOneOfTwoDlogProof(p *group.Params, secretKey group.Scalar, publicKey, base, point1, point2 group.Point, branch int) *OneOfTwoDlogProof {
	suite := p.Suite

	points := [2]group.Point{point1, point2}
	truePoint := points[branch]
	falsePoint := points[1-branch]

	kTrue := p.RandomScalar()
	aTrue := suite.Point().Mul(kTrue, nil)
	bTrue := suite.Point().Mul(kTrue, base)

	cFalse := p.RandomScalar()
	zFalse := p.RandomScalar()
	aFalse := suite.Point().Sub(suite.Point().Mul(zFalse, nil), suite.Point().Mul(cFalse, publicKey))
	bFalse := suite.Point().Sub(suite.Point().Mul(zFalse, base), suite.Point().Mul(cFalse, falsePoint))

	var a0, b0, a1, b1 group.Point
	if branch == 0 {
		a0, b0 = aTrue, bTrue
		a1, b1 = aFalse, bFalse
	} else {
		a0, b0 = aFalse, bFalse
		a1, b1 = aTrue, bTrue
	}

	c := hashscalar.H(p, publicKey, base, point1, point2, a0, b0, a1, b1)

	cTrue := suite.Scalar().Sub(c, cFalse)
	zTrue := suite.Scalar().Add(kTrue, suite.Scalar().Mul(cTrue, secretKey))

	proof := &OneOfTwoDlogProof{}
	if branch == 0 {
		proof.C0, proof.Z0 = cTrue, zTrue
		proof.C1, proof.Z1 = cFalse, zFalse
	} else {
		proof.C0, proof.Z0 = cFalse, zFalse
		proof.C1, proof.Z1 = cTrue, zTrue
	}
	return proof
}

// Verify checks the proof against publicKey, base, point1 and point2.
func (pr *OneOfTwoDlogProof) Verify(p *group.Params, publicKey, base, point1, point2 group.Point) bool {
	suite := p.Suite

	a0 := suite.Point().Sub(suite.Point().Mul(pr.Z0, nil), suite.Point().Mul(pr.C0, publicKey))
	b0 := suite.Point().Sub(suite.Point().Mul(pr.Z0, base), suite.Point().Mul(pr.C0, point1))
	a1 := suite.Point().Sub(suite.Point().Mul(pr.Z1, nil), suite.Point().Mul(pr.C1, publicKey))
	b1 := suite.Point().Sub(suite.Point().Mul(pr.Z1, base), suite.Point().Mul(pr.C1, point2))

	cPrime := hashscalar.H(p, publicKey, base, point1, point2, a0, b0, a1, b1)
	cSum := suite.Scalar().Add(pr.C0, pr.C1)
	return cPrime.Equal(cSum)
}

// Write serializes the proof.
func (pr *OneOfTwoDlogProof) Write(w io.Writer) error {
	for _, s := range []group.Scalar{pr.C0, pr.C1, pr.Z0, pr.Z1} {
		if err := codec.WriteScalar(w, s); err != nil {
			return err
		}
	}
	return nil
}

// ReadOneOfTwoDlogProof reads a proof written by Write.
func ReadOneOfTwoDlogProof(r io.Reader, suite group.Suite) (*OneOfTwoDlogProof, error) {
	scalars := make([]group.Scalar, 4)
	for i := range scalars {
		s, err := codec.ReadScalar(r, suite)
		if err != nil {
			return nil, err
		}
		scalars[i] = s
	}
	return &OneOfTwoDlogProof{C0: scalars[0], C1: scalars[1], Z0: scalars[2], Z1: scalars[3]}, nil
}
