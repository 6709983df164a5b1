// Package encrypt implements ElGamal encryption/decryption over the group
// fixed by group.Params (spec §4.2): Cipher is the (X, Y) pair, Encryptor
// produces ciphertexts under a fixed public key, Decryptor inverts them
// under the matching secret key.
package encrypt

import (
	"github.com/solidus-network/pvorm/codec"
	"github.com/solidus-network/pvorm/group"
)

// Cipher is an ElGamal ciphertext pair (X, Y) under some public key P:
// X = m*G + r*P, Y = r*G.
type Cipher = codec.Pair

// encryptWithRandomizer computes the ElGamal encryption of message m under
// publicKey using randomizer r: (m + r*P, r*G). Shared by EncryptZero,
// EncryptPoint and Reencrypt (reencryption is the same operation with
// m = identity).
func encryptWithRandomizer(p *group.Params, publicKey, message group.Point, r group.Scalar) Cipher {
	suite := p.Suite
	rG := suite.Point().Mul(r, nil)
	rP := suite.Point().Mul(r, publicKey)
	x := suite.Point().Add(message, rP)
	return Cipher{X: x, Y: rG}
}

// EncryptPointWithRandomizer encrypts message under publicKey using the
// caller-supplied randomizer r rather than a fresh one, for callers (the
// bank facade's cross-key reencryption proof) that need to retain r as a
// proof witness rather than have it discarded the way EncryptPoint does.
func EncryptPointWithRandomizer(p *group.Params, publicKey, message group.Point, r group.Scalar) Cipher {
	return encryptWithRandomizer(p, publicKey, message, r)
}

// EncryptValueWithRandomizer is EncryptPointWithRandomizer for a scalar
// value's point-encoding, the value-typed analogue of EncryptValue.
func EncryptValueWithRandomizer(p *group.Params, publicKey group.Point, v group.Scalar, r group.Scalar) Cipher {
	return encryptWithRandomizer(p, publicKey, p.Suite.Point().Mul(v, nil), r)
}

// EncryptZero computes a fresh ElGamal encryption of the identity point
// under publicKey, returning both the ciphertext and the randomizer used
// (callers that need to prove properties of the encryption, e.g. range
// proof bit commitments, need r).
func EncryptZero(p *group.Params, publicKey group.Point) (Cipher, group.Scalar) {
	r := p.RandomScalar()
	return encryptWithRandomizer(p, publicKey, p.Identity(), r), r
}

// EncryptPoint re-randomizes message under publicKey by adding a fresh
// zero-encryption: (message + Z.X, Z.Y) for Z = EncryptZero(...).
func EncryptPoint(p *group.Params, publicKey, message group.Point) Cipher {
	z, _ := EncryptZero(p, publicKey)
	return Cipher{
		X: p.Suite.Point().Add(message, z.X),
		Y: z.Y,
	}
}

// EncryptValue encrypts the point-encoding of a nonnegative integer value:
// encrypt_point(v*G).
func EncryptValue(p *group.Params, publicKey group.Point, v group.Scalar) Cipher {
	return EncryptPoint(p, publicKey, p.Suite.Point().Mul(v, nil))
}

// Reencrypt adds a fresh zero-encryption to an existing ciphertext, yielding
// a new ciphertext for the same plaintext that is unlinkable to the
// original without the secret key.
func Reencrypt(p *group.Params, publicKey group.Point, c Cipher) Cipher {
	z, _ := EncryptZero(p, publicKey)
	return Cipher{
		X: p.Suite.Point().Add(c.X, z.X),
		Y: p.Suite.Point().Add(c.Y, z.Y),
	}
}

// Add homomorphically combines two ciphertexts encrypted under the same
// key, yielding an encryption of the sum of their plaintexts. Used to apply
// a balance delta to an account's encrypted balance.
func Add(p *group.Params, a, b Cipher) Cipher {
	return Cipher{
		X: p.Suite.Point().Add(a.X, b.X),
		Y: p.Suite.Point().Add(a.Y, b.Y),
	}
}

// Negate homomorphically flips the sign of c's plaintext: for c encrypting
// m under some key with randomizer r, Negate(c) encrypts -m under the same
// key with randomizer -r. A bank uses this to turn a transfer's publicly
// proven magnitude into the debit it feeds its own ledger update, without a
// fresh proof: negation is a deterministic public transform, so any proof
// already tying c to another ciphertext carries over to Negate(c).
func Negate(p *group.Params, c Cipher) Cipher {
	return Cipher{
		X: p.Suite.Point().Neg(c.X),
		Y: p.Suite.Point().Neg(c.Y),
	}
}
