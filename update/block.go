// Package update implements the PvormUpdate record and its byte-exact
// serialization from spec.md §4.8: the artifact an OwnedPvorm's update
// produces and every EncryptedPvorm's verify_update consumes.
package update

import (
	"io"

	"github.com/solidus-network/pvorm/codec"
	"github.com/solidus-network/pvorm/encrypt"
	"github.com/solidus-network/pvorm/group"
)

// Block is an encrypted PVORM block: an immutable pair of ciphers
// (enc_key, enc_balance) (spec §3). Filler (empty-slot) blocks encrypt the
// identity point in both fields.
type Block struct {
	EncKey     encrypt.Cipher
	EncBalance encrypt.Cipher
}

// FillerBlock returns the sentinel block for an empty slot under
// publicKey: fresh encryptions of the identity point in both fields, so an
// observer cannot distinguish an empty slot from an occupied one by shape.
func FillerBlock(p *group.Params, publicKey group.Point) Block {
	return Block{
		EncKey:     encrypt.EncryptPoint(p, publicKey, p.Identity()),
		EncBalance: encrypt.EncryptPoint(p, publicKey, p.Identity()),
	}
}

// Write serializes the block: enc_key then enc_balance, each a codec.Pair.
func (b Block) Write(w io.Writer) error {
	if err := codec.WritePair(w, b.EncKey, codec.Compressed); err != nil {
		return err
	}
	return codec.WritePair(w, b.EncBalance, codec.Compressed)
}

// ReadBlock reads a Block written by Write.
func ReadBlock(r io.Reader, suite group.Suite) (Block, error) {
	key, err := codec.ReadPair(r, suite, codec.Compressed)
	if err != nil {
		return Block{}, err
	}
	bal, err := codec.ReadPair(r, suite, codec.Compressed)
	if err != nil {
		return Block{}, err
	}
	return Block{EncKey: key, EncBalance: bal}, nil
}
