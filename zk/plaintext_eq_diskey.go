package zk

import (
	"io"

	"github.com/solidus-network/pvorm/codec"
	"github.com/solidus-network/pvorm/encrypt"
	"github.com/solidus-network/pvorm/group"
	"github.com/solidus-network/pvorm/hashscalar"
)

// PlaintextEqDisKeyProof proves that cipher1 and cipher2 encrypt the same
// plaintext scalar m under two different public keys, given knowledge of
// the plaintext and both randomizers used to build the ciphertexts (spec
// §4.5). This is the proof a sending bank builds when it re-encrypts its
// own debit under the receiving bank's key: it knows m and both r's, not
// either secret key.
type PlaintextEqDisKeyProof struct {
	C   group.Scalar
	Zm  group.Scalar
	Zr1 group.Scalar
	Zr2 group.Scalar
}

// BuildPlaintextEqDisKeyProof constructs a proof that cipher1 (under
// publicKey1 with randomizer r1) and cipher2 (under publicKey2 with
// randomizer r2) both encrypt m.
func BuildPlaintextEqDisKeyProof(p *group.Params, m, r1, r2 group.Scalar, publicKey1, publicKey2 group.Point, cipher1, cipher2 encrypt.Cipher) *PlaintextEqDisKeyProof {
	suite := p.Suite

	a := p.RandomScalar()
	b1 := p.RandomScalar()
	b2 := p.RandomScalar()

	a1 := suite.Point().Add(suite.Point().Mul(a, nil), suite.Point().Mul(b1, publicKey1))
	b1Pt := suite.Point().Mul(b1, nil)
	a2 := suite.Point().Add(suite.Point().Mul(a, nil), suite.Point().Mul(b2, publicKey2))
	b2Pt := suite.Point().Mul(b2, nil)

	c := hashscalar.H(p, cipher1.X, cipher1.Y, cipher2.X, cipher2.Y, publicKey1, publicKey2, a1, b1Pt, a2, b2Pt)

	zm := suite.Scalar().Sub(a, suite.Scalar().Mul(c, m))
	zr1 := suite.Scalar().Sub(b1, suite.Scalar().Mul(c, r1))
	zr2 := suite.Scalar().Sub(b2, suite.Scalar().Mul(c, r2))

	return &PlaintextEqDisKeyProof{C: c, Zm: zm, Zr1: zr1, Zr2: zr2}
}

// Verify checks the proof against the two ciphertexts and public keys.
func (pr *PlaintextEqDisKeyProof) Verify(p *group.Params, publicKey1, publicKey2 group.Point, cipher1, cipher2 encrypt.Cipher) bool {
	suite := p.Suite

	a1 := suite.Point().Add(
		suite.Point().Add(suite.Point().Mul(pr.Zm, nil), suite.Point().Mul(pr.Zr1, publicKey1)),
		suite.Point().Mul(pr.C, cipher1.X),
	)
	b1 := suite.Point().Add(suite.Point().Mul(pr.Zr1, nil), suite.Point().Mul(pr.C, cipher1.Y))
	a2 := suite.Point().Add(
		suite.Point().Add(suite.Point().Mul(pr.Zm, nil), suite.Point().Mul(pr.Zr2, publicKey2)),
		suite.Point().Mul(pr.C, cipher2.X),
	)
	b2 := suite.Point().Add(suite.Point().Mul(pr.Zr2, nil), suite.Point().Mul(pr.C, cipher2.Y))

	cPrime := hashscalar.H(p, cipher1.X, cipher1.Y, cipher2.X, cipher2.Y, publicKey1, publicKey2, a1, b1, a2, b2)
	return cPrime.Equal(pr.C)
}

// Write serializes the proof.
func (pr *PlaintextEqDisKeyProof) Write(w io.Writer) error {
	for _, s := range []group.Scalar{pr.C, pr.Zm, pr.Zr1, pr.Zr2} {
		if err := codec.WriteScalar(w, s); err != nil {
			return err
		}
	}
	return nil
}

// ReadPlaintextEqDisKeyProof reads a proof written by Write.
func ReadPlaintextEqDisKeyProof(r io.Reader, suite group.Suite) (*PlaintextEqDisKeyProof, error) {
	scalars := make([]group.Scalar, 4)
	for i := range scalars {
		s, err := codec.ReadScalar(r, suite)
		if err != nil {
			return nil, err
		}
		scalars[i] = s
	}
	return &PlaintextEqDisKeyProof{C: scalars[0], Zm: scalars[1], Zr1: scalars[2], Zr2: scalars[3]}, nil
}
