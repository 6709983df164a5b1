package zk

import (
	"io"

	"github.com/solidus-network/pvorm/codec"
	"github.com/solidus-network/pvorm/group"
	"github.com/solidus-network/pvorm/hashscalar"
)

// SchnorrSignature is a standard Schnorr signature over an ordered list of
// byte blobs and the commitment point, per spec §4.5. Banks use it to sign
// transaction headers so a receiver can attribute a transfer to its
// claimed sender.
type SchnorrSignature struct {
	R group.Point
	S group.Scalar
}

// Sign produces a SchnorrSignature over blobs under secretKey.
func Sign(p *group.Params, secretKey group.Scalar, blobs ...[]byte) *SchnorrSignature {
	suite := p.Suite
	k := p.RandomScalar()
	r := suite.Point().Mul(k, nil)
	c := hashscalar.HData(p, blobs, r)
	s := suite.Scalar().Add(k, suite.Scalar().Mul(c, secretKey))
	return &SchnorrSignature{R: r, S: s}
}

// Verify checks sig against publicKey and blobs.
func (sig *SchnorrSignature) Verify(p *group.Params, publicKey group.Point, blobs ...[]byte) bool {
	suite := p.Suite
	c := hashscalar.HData(p, blobs, sig.R)
	lhs := suite.Point().Mul(sig.S, nil)
	rhs := suite.Point().Add(sig.R, suite.Point().Mul(c, publicKey))
	return lhs.Equal(rhs)
}

// Write serializes the signature.
func (sig *SchnorrSignature) Write(w io.Writer) error {
	if err := codec.WritePoint(w, sig.R, codec.Compressed); err != nil {
		return err
	}
	return codec.WriteScalar(w, sig.S)
}

// ReadSchnorrSignature reads a signature written by Write.
func ReadSchnorrSignature(r io.Reader, suite group.Suite) (*SchnorrSignature, error) {
	rPt, err := codec.ReadPoint(r, suite, codec.Compressed)
	if err != nil {
		return nil, err
	}
	s, err := codec.ReadScalar(r, suite)
	if err != nil {
		return nil, err
	}
	return &SchnorrSignature{R: rPt, S: s}, nil
}
