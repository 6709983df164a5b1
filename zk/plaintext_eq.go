package zk

import (
	"io"

	"github.com/solidus-network/pvorm/codec"
	"github.com/solidus-network/pvorm/encrypt"
	"github.com/solidus-network/pvorm/group"
	"github.com/solidus-network/pvorm/hashscalar"
)

// PlaintextEqProof proves that cipher1 and cipher2 encrypt the same
// plaintext under publicKey, given knowledge of the matching secret key s
// (spec §4.5). The relation exploited is X1 - X2 = s*(Y1 - Y2), which holds
// exactly when both ciphertexts carry the same message.
type PlaintextEqProof struct {
	C  group.Scalar
	Sr group.Scalar
}

// BuildPlaintextEqProof constructs a PlaintextEqProof that cipher1 and
// cipher2 encrypt the same plaintext under publicKey = secretKey*G.
func BuildPlaintextEqProof(p *group.Params, secretKey group.Scalar, publicKey group.Point, cipher1, cipher2 encrypt.Cipher) *PlaintextEqProof {
	suite := p.Suite
	e := p.RandomScalar()

	yDiff := suite.Point().Sub(cipher1.Y, cipher2.Y)
	omegaC := suite.Point().Mul(e, yDiff)
	omegaK := suite.Point().Mul(e, nil)

	c := hashscalar.H(p, cipher1.X, cipher1.Y, cipher2.X, cipher2.Y, publicKey, omegaC, omegaK)

	cs := suite.Scalar().Mul(c, secretKey)
	sr := suite.Scalar().Sub(e, cs)

	return &PlaintextEqProof{C: c, Sr: sr}
}

// Verify checks the proof against cipher1, cipher2 and publicKey.
func (pr *PlaintextEqProof) Verify(p *group.Params, publicKey group.Point, cipher1, cipher2 encrypt.Cipher) bool {
	suite := p.Suite

	xDiff := suite.Point().Sub(cipher1.X, cipher2.X)
	yDiff := suite.Point().Sub(cipher1.Y, cipher2.Y)

	candOmegaC := suite.Point().Add(
		suite.Point().Mul(pr.C, xDiff),
		suite.Point().Mul(pr.Sr, yDiff),
	)
	candOmegaK := suite.Point().Add(
		suite.Point().Mul(pr.C, publicKey),
		suite.Point().Mul(pr.Sr, nil),
	)

	cPrime := hashscalar.H(p, cipher1.X, cipher1.Y, cipher2.X, cipher2.Y, publicKey, candOmegaC, candOmegaK)
	return cPrime.Equal(pr.C)
}

// Write serializes the proof: challenge then response, each as a
// length-prefixed scalar (codec.WriteScalar framing).
func (pr *PlaintextEqProof) Write(w io.Writer) error {
	if err := codec.WriteScalar(w, pr.C); err != nil {
		return err
	}
	return codec.WriteScalar(w, pr.Sr)
}

// ReadPlaintextEqProof reads a proof written by Write.
func ReadPlaintextEqProof(r io.Reader, suite group.Suite) (*PlaintextEqProof, error) {
	c, err := codec.ReadScalar(r, suite)
	if err != nil {
		return nil, err
	}
	sr, err := codec.ReadScalar(r, suite)
	if err != nil {
		return nil, err
	}
	return &PlaintextEqProof{C: c, Sr: sr}, nil
}
