package encrypt

import (
	"io"

	"golang.org/x/xerrors"

	"github.com/solidus-network/pvorm/codec"
	"github.com/solidus-network/pvorm/group"
)

// ErrBalanceOutOfRange is returned by EncryptBalance when v falls outside
// [0, VMax], the discrete-log table's invertible range.
var ErrBalanceOutOfRange = xerrors.New("encrypt: balance out of discrete-log table range")

// readPairFrom reads one codec-encoded Cipher from a disk-backed stream of
// precomputed zero-encryptions.
func readPairFrom(r io.Reader, p *group.Params) (Cipher, error) {
	return codec.ReadPair(r, p.Suite, codec.Compressed)
}
