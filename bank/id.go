package bank

import (
	"encoding/base64"

	"golang.org/x/xerrors"

	"github.com/solidus-network/pvorm/codec"
	"github.com/solidus-network/pvorm/group"
)

// ErrMalformedID is returned by ParseID when s is not a validly-encoded
// public key.
var ErrMalformedID = xerrors.New("bank: malformed bank identifier")

// ID identifies a bank by its public key, spec §6's "bank identifier": the
// base64url (no padding) encoding of the key's compressed point encoding, so
// it round-trips through a single string field in logs, config files and the
// update log's key prefix.
type ID string

// IDFromPublicKey derives the identifier for a bank's public key.
func IDFromPublicKey(publicKey group.Point) ID {
	b, err := publicKey.MarshalBinary()
	if err != nil {
		panic(err)
	}
	return ID(base64.RawURLEncoding.EncodeToString(b))
}

// ParseID recovers the public key an ID was derived from.
func ParseID(s string, suite group.Suite) (group.Point, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, xerrors.Errorf("%w: %v", ErrMalformedID, err)
	}
	p := suite.Point()
	if err := p.UnmarshalBinary(b); err != nil {
		return nil, xerrors.Errorf("%w: %v", codec.ErrInvalidPoint, err)
	}
	return p, nil
}

// String returns id's wire form.
func (id ID) String() string { return string(id) }
