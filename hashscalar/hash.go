// Package hashscalar implements the Fiat-Shamir challenge derivation from
// spec.md §4.3: every ZK proof challenge is produced by hashing canonical
// point encodings (and, for signatures, arbitrary message bytes) and
// reducing the digest modulo the group order N.
package hashscalar

import (
	"github.com/solidus-network/pvorm/group"
)

// H concatenates the canonical compressed encoding of each point and
// reduces the digest modulo N: the base Fiat-Shamir challenge used by every
// Sigma-protocol proof in package zk.
func H(p *group.Params, points ...group.Point) group.Scalar {
	return reduce(p, digest(p, nil, points))
}

// HIndex prepends a single byte i to the hashed transcript before the
// points, used where one proof needs several domain-separated challenges
// derived independently (as opposed to HMulti's shared base).
func HIndex(p *group.Params, i byte, points ...group.Point) group.Scalar {
	return reduce(p, digest(p, []byte{i}, points))
}

// HMulti produces one challenge per index from a single shared base hash of
// points, then domain-separates each output by appending its index byte to
// the base digest. Used where several related challenges must be tied
// together from one transcript (range proofs, double-swap proofs).
func HMulti(p *group.Params, indices []byte, points ...group.Point) []group.Scalar {
	base := digest(p, nil, points)
	out := make([]group.Scalar, len(indices))
	for n, idx := range indices {
		h := p.Suite.Hash()
		h.Write(base)
		h.Write([]byte{idx})
		out[n] = reduce(p, h.Sum(nil))
	}
	return out
}

// HData prepends arbitrary message bytes (e.g. a serialized transaction
// artifact) ahead of the points, used by SchnorrSignature.
func HData(p *group.Params, blobs [][]byte, points ...group.Point) group.Scalar {
	h := p.Suite.Hash()
	for _, b := range blobs {
		h.Write(b)
	}
	for _, pt := range points {
		b, err := pt.MarshalBinary()
		if err != nil {
			panic(err)
		}
		h.Write(b)
	}
	return reduce(p, h.Sum(nil))
}

func digest(p *group.Params, prefix []byte, points []group.Point) []byte {
	h := p.Suite.Hash()
	if len(prefix) > 0 {
		h.Write(prefix)
	}
	for _, pt := range points {
		b, err := pt.MarshalBinary()
		if err != nil {
			panic(err)
		}
		h.Write(b)
	}
	return h.Sum(nil)
}

func reduce(p *group.Params, digest []byte) group.Scalar {
	return p.Suite.Scalar().SetBytes(digest)
}
