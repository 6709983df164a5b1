package zk

import (
	"io"

	"github.com/solidus-network/pvorm/codec"
	"github.com/solidus-network/pvorm/encrypt"
	"github.com/solidus-network/pvorm/group"
	"github.com/solidus-network/pvorm/hashscalar"
)

// DoubleSwapProof proves that the pair (post1, post2) is a reencryption of
// the pair (pre1, pre2) under publicKey, in either the straight pairing
// (post1~pre1, post2~pre2 - spec's "fake swap", where the eviction step
// touched this bucket slot without actually moving the real block) or the
// swapped pairing (post1~pre2, post2~pre1 - a genuine swap), without
// revealing which. It is the OR of two AND-of-two-PlaintextEq statements:
// each branch compresses its two PlaintextEq relations into a single
// (challenge, response) pair by reusing one nonce across both relations
// (valid because both relations share the same secret key), then the two
// branches are OR-composed exactly as in OneOfTwoDlogProof.
//
// The challenge is derived with HMulti over indices 0, 1 and 2, but only
// index 0's output is used: it is the combined challenge that the two
// branches' sub-challenges C0 and C1 must sum to. The outputs for indices 1
// and 2 are computed and discarded.
type DoubleSwapProof struct {
	C0, Sr0 group.Scalar // branch 0: post1~pre1, post2~pre2 (straight/fake)
	C1, Sr1 group.Scalar // branch 1: post1~pre2, post2~pre1 (swapped/real)
}

// swapBranchPoints recomputes (omegaA, omegaB, omegaK) for one branch given
// the pairing (preFirst<->postFirst, preSecond<->postSecond) and a
// (challenge, response) pair. The same formula serves both the honest
// prover's real branch (once it knows c) and the simulator's false branch,
// and the verifier's recomputation of both.
func swapBranchPoints(p *group.Params, publicKey group.Point, preFirst, postFirst, preSecond, postSecond encrypt.Cipher, c, sr group.Scalar) (omegaA, omegaB, omegaK group.Point) {
	suite := p.Suite
	xDiffA := suite.Point().Sub(postFirst.X, preFirst.X)
	yDiffA := suite.Point().Sub(postFirst.Y, preFirst.Y)
	xDiffB := suite.Point().Sub(postSecond.X, preSecond.X)
	yDiffB := suite.Point().Sub(postSecond.Y, preSecond.Y)

	omegaA = suite.Point().Add(suite.Point().Mul(c, xDiffA), suite.Point().Mul(sr, yDiffA))
	omegaB = suite.Point().Add(suite.Point().Mul(c, xDiffB), suite.Point().Mul(sr, yDiffB))
	omegaK = suite.Point().Add(suite.Point().Mul(c, publicKey), suite.Point().Mul(sr, nil))
	return
}

// BuildDoubleSwapProof constructs a proof that (post1, post2) reencrypts
// (pre1, pre2) under publicKey = secretKey*G, with straight=true asserting
// the non-swapped pairing and straight=false asserting the swapped one.
func BuildDoubleSwapProof(p *group.Params, secretKey group.Scalar, publicKey group.Point, pre1, pre2, post1, post2 encrypt.Cipher, straight bool) *DoubleSwapProof {
	suite := p.Suite

	// Real branch: pick a nonce, form commitments directly from the Y-diffs
	// (no challenge needed yet).
	e := p.RandomScalar()
	var realPreFirst, realPostFirst, realPreSecond, realPostSecond encrypt.Cipher
	if straight {
		realPreFirst, realPostFirst = pre1, post1
		realPreSecond, realPostSecond = pre2, post2
	} else {
		realPreFirst, realPostFirst = pre2, post1
		realPreSecond, realPostSecond = pre1, post2
	}
	yDiffA := suite.Point().Sub(realPostFirst.Y, realPreFirst.Y)
	yDiffB := suite.Point().Sub(realPostSecond.Y, realPreSecond.Y)
	realOmegaA := suite.Point().Mul(e, yDiffA)
	realOmegaB := suite.Point().Mul(e, yDiffB)
	realOmegaK := suite.Point().Mul(e, nil)

	// False branch: simulate by picking its (challenge, response) directly
	// and deriving the commitments that make the check formula hold.
	cFalse := p.RandomScalar()
	srFalse := p.RandomScalar()
	var falsePreFirst, falsePostFirst, falsePreSecond, falsePostSecond encrypt.Cipher
	if straight {
		falsePreFirst, falsePostFirst = pre2, post1
		falsePreSecond, falsePostSecond = pre1, post2
	} else {
		falsePreFirst, falsePostFirst = pre1, post1
		falsePreSecond, falsePostSecond = pre2, post2
	}
	falseOmegaA, falseOmegaB, falseOmegaK := swapBranchPoints(p, publicKey, falsePreFirst, falsePostFirst, falsePreSecond, falsePostSecond, cFalse, srFalse)

	var a0, b0, k0, a1, b1, k1 group.Point
	if straight {
		a0, b0, k0 = realOmegaA, realOmegaB, realOmegaK
		a1, b1, k1 = falseOmegaA, falseOmegaB, falseOmegaK
	} else {
		a0, b0, k0 = falseOmegaA, falseOmegaB, falseOmegaK
		a1, b1, k1 = realOmegaA, realOmegaB, realOmegaK
	}

	challenges := hashscalar.HMulti(p, []byte{0, 1, 2},
		pre1.X, pre1.Y, pre2.X, pre2.Y, post1.X, post1.Y, post2.X, post2.Y, publicKey,
		a0, b0, k0, a1, b1, k1,
	)
	c := challenges[0]

	cReal := suite.Scalar().Sub(c, cFalse)
	srReal := suite.Scalar().Sub(e, suite.Scalar().Mul(cReal, secretKey))

	proof := &DoubleSwapProof{}
	if straight {
		proof.C0, proof.Sr0 = cReal, srReal
		proof.C1, proof.Sr1 = cFalse, srFalse
	} else {
		proof.C0, proof.Sr0 = cFalse, srFalse
		proof.C1, proof.Sr1 = cReal, srReal
	}
	return proof
}

// Verify checks the proof against pre1, pre2, post1, post2 and publicKey.
func (pr *DoubleSwapProof) Verify(p *group.Params, publicKey group.Point, pre1, pre2, post1, post2 encrypt.Cipher) bool {
	suite := p.Suite

	a0, b0, k0 := swapBranchPoints(p, publicKey, pre1, post1, pre2, post2, pr.C0, pr.Sr0)
	a1, b1, k1 := swapBranchPoints(p, publicKey, pre2, post1, pre1, post2, pr.C1, pr.Sr1)

	challenges := hashscalar.HMulti(p, []byte{0, 1, 2},
		pre1.X, pre1.Y, pre2.X, pre2.Y, post1.X, post1.Y, post2.X, post2.Y, publicKey,
		a0, b0, k0, a1, b1, k1,
	)
	cPrime := challenges[0]
	cSum := suite.Scalar().Add(pr.C0, pr.C1)
	return cPrime.Equal(cSum)
}

// Write serializes the proof.
func (pr *DoubleSwapProof) Write(w io.Writer) error {
	for _, s := range []group.Scalar{pr.C0, pr.Sr0, pr.C1, pr.Sr1} {
		if err := codec.WriteScalar(w, s); err != nil {
			return err
		}
	}
	return nil
}

// ReadDoubleSwapProof reads a proof written by Write.
func ReadDoubleSwapProof(r io.Reader, suite group.Suite) (*DoubleSwapProof, error) {
	scalars := make([]group.Scalar, 4)
	for i := range scalars {
		s, err := codec.ReadScalar(r, suite)
		if err != nil {
			return nil, err
		}
		scalars[i] = s
	}
	return &DoubleSwapProof{C0: scalars[0], Sr0: scalars[1], C1: scalars[2], Sr1: scalars[3]}, nil
}
