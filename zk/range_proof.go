package zk

import (
	"io"

	"golang.org/x/xerrors"

	"github.com/solidus-network/pvorm/codec"
	"github.com/solidus-network/pvorm/encrypt"
	"github.com/solidus-network/pvorm/executor"
	"github.com/solidus-network/pvorm/group"
)

// ErrRangeProofOutOfBounds is returned by BuildMaxwellRangeProof when the
// requested value does not fit in maxBits.
var ErrRangeProofOutOfBounds = xerrors.New("zk: value does not fit in requested bit width")

// MaxwellRangeProof proves a ciphertext encrypts a value v in [0, 2^maxBits)
// without revealing v (spec §4.5). The prover encrypts each bit of v
// individually, proves each bit ciphertext carries 0 or 1 with an
// OneOfTwoDlogProof, and ties the bits back to the balance ciphertext with a
// PlaintextEqProof between the weighted (by power of two) homomorphic sum of
// the bit ciphertexts and the balance ciphertext itself.
type MaxwellRangeProof struct {
	BitCiphers []encrypt.Cipher
	BitProofs  []*OneOfTwoDlogProof
	SumEqProof *PlaintextEqProof
}

// weightedBitSum homomorphically combines bitCiphers[i] scaled by 2^i.
func weightedBitSum(p *group.Params, bitCiphers []encrypt.Cipher) encrypt.Cipher {
	suite := p.Suite
	sum := encrypt.Cipher{X: p.Identity(), Y: p.Identity()}
	weight := suite.Scalar().One()
	two := suite.Scalar().Add(suite.Scalar().One(), suite.Scalar().One())
	for _, c := range bitCiphers {
		weighted := encrypt.Cipher{
			X: suite.Point().Mul(weight, c.X),
			Y: suite.Point().Mul(weight, c.Y),
		}
		sum = encrypt.Add(p, sum, weighted)
		weight = suite.Scalar().Mul(weight, two)
	}
	return sum
}

// BuildMaxwellRangeProof proves that balanceCipher, encrypted under
// publicKey = secretKey*G, carries v, with v in [0, 2^maxBits). exec
// parallelizes the per-bit proof construction; pass executor.Inline for
// sequential construction.
func BuildMaxwellRangeProof(p *group.Params, exec executor.Executor, secretKey group.Scalar, publicKey group.Point, balanceCipher encrypt.Cipher, v int64, maxBits int) (*MaxwellRangeProof, error) {
	if v < 0 || (maxBits < 63 && v >= int64(1)<<uint(maxBits)) {
		return nil, ErrRangeProofOutOfBounds
	}

	bitCiphers := make([]encrypt.Cipher, maxBits)
	bitProofs := make([]*OneOfTwoDlogProof, maxBits)
	handles := make([]*executor.Handle, maxBits)

	for i := 0; i < maxBits; i++ {
		i := i
		bit := (v >> uint(i)) & 1
		handles[i] = exec.Go(func() error {
			bitValue := p.Suite.Point().Mul(p.Suite.Scalar().SetInt64(bit), nil)
			c := encrypt.EncryptPoint(p, publicKey, bitValue)
			bitCiphers[i] = c
			base := c.Y
			point1 := c.X
			point2 := p.Suite.Point().Sub(c.X, p.Generator())
			bitProofs[i] = BuildOneOfTwoDlogProof(p, secretKey, publicKey, base, point1, point2, int(bit))
			return nil
		})
	}
	if err := executor.JoinAll(handles...); err != nil {
		return nil, err
	}

	sumCipher := weightedBitSum(p, bitCiphers)
	sumEqProof := BuildPlaintextEqProof(p, secretKey, publicKey, sumCipher, balanceCipher)

	return &MaxwellRangeProof{BitCiphers: bitCiphers, BitProofs: bitProofs, SumEqProof: sumEqProof}, nil
}

// Verify checks the proof against publicKey and balanceCipher. exec
// parallelizes per-bit verification.
func (pr *MaxwellRangeProof) Verify(p *group.Params, exec executor.Executor, publicKey group.Point, balanceCipher encrypt.Cipher) bool {
	if len(pr.BitCiphers) != len(pr.BitProofs) || len(pr.BitCiphers) == 0 {
		return false
	}

	results := make([]bool, len(pr.BitCiphers))
	handles := make([]*executor.Handle, len(pr.BitCiphers))
	for i, c := range pr.BitCiphers {
		i, c := i, c
		handles[i] = exec.Go(func() error {
			base := c.Y
			point1 := c.X
			point2 := p.Suite.Point().Sub(c.X, p.Generator())
			results[i] = pr.BitProofs[i].Verify(p, publicKey, base, point1, point2)
			return nil
		})
	}
	_ = executor.JoinAll(handles...)
	for _, ok := range results {
		if !ok {
			return false
		}
	}

	sumCipher := weightedBitSum(p, pr.BitCiphers)
	return pr.SumEqProof.Verify(p, publicKey, sumCipher, balanceCipher)
}

// Write serializes the proof: bit count, each bit ciphertext and its
// OneOfTwoDlogProof, then the closing sum-equality proof.
func (pr *MaxwellRangeProof) Write(w io.Writer) error {
	if err := codec.WriteUint32(w, uint32(len(pr.BitCiphers))); err != nil {
		return err
	}
	for i, c := range pr.BitCiphers {
		if err := codec.WritePair(w, c, codec.Compressed); err != nil {
			return err
		}
		if err := pr.BitProofs[i].Write(w); err != nil {
			return err
		}
	}
	return pr.SumEqProof.Write(w)
}

// ReadMaxwellRangeProof reads a proof written by Write.
func ReadMaxwellRangeProof(r io.Reader, suite group.Suite) (*MaxwellRangeProof, error) {
	var n uint32
	if err := codec.ReadUint32(r, &n); err != nil {
		return nil, err
	}
	bitCiphers := make([]encrypt.Cipher, n)
	bitProofs := make([]*OneOfTwoDlogProof, n)
	for i := range bitCiphers {
		c, err := codec.ReadPair(r, suite, codec.Compressed)
		if err != nil {
			return nil, err
		}
		bitCiphers[i] = c
		proof, err := ReadOneOfTwoDlogProof(r, suite)
		if err != nil {
			return nil, err
		}
		bitProofs[i] = proof
	}
	sumEqProof, err := ReadPlaintextEqProof(r, suite)
	if err != nil {
		return nil, err
	}
	return &MaxwellRangeProof{BitCiphers: bitCiphers, BitProofs: bitProofs, SumEqProof: sumEqProof}, nil
}
