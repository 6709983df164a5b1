// Package codec implements the self-describing, fixed-endian, unframed
// serial codec from spec.md §4.4: integers, scalars, points, pairs, booleans
// and strings, plus the top-level message header every wire object carries.
//
// Every Read/Write pair here is meant to be used the way the teacher's
// commitment types use kyber's MarshalTo/UnmarshalFrom: byte-exact, with no
// length framing beyond what the format itself specifies.
package codec

import (
	"encoding/binary"
	"io"

	"golang.org/x/xerrors"

	"github.com/solidus-network/pvorm/group"
)

// Error kinds from spec §7's "malformed serialization" category.
var (
	ErrMalformedInput  = xerrors.New("codec: malformed input")
	ErrInvalidPoint    = xerrors.New("codec: invalid point encoding")
	ErrVersionMismatch = xerrors.New("codec: version/header mismatch")
)

// WriteUint32 writes v as a fixed-width big-endian u32.
func WriteUint32(w io.Writer, v uint32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

// ReadUint32 reads a fixed-width big-endian u32.
func ReadUint32(r io.Reader, v *uint32) error {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return wrapShort(err)
	}
	*v = binary.BigEndian.Uint32(b[:])
	return nil
}

// WriteUint64 writes v as a fixed-width big-endian u64.
func WriteUint64(w io.Writer, v uint64) error {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	_, err := w.Write(b[:])
	return err
}

// ReadUint64 reads a fixed-width big-endian u64.
func ReadUint64(r io.Reader, v *uint64) error {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return wrapShort(err)
	}
	*v = binary.BigEndian.Uint64(b[:])
	return nil
}

// WriteBool writes a single 0x00/0x01 byte.
func WriteBool(w io.Writer, v bool) error {
	b := byte(0)
	if v {
		b = 1
	}
	_, err := w.Write([]byte{b})
	return err
}

// ReadBool reads a single 0x00/0x01 byte.
func ReadBool(r io.Reader) (bool, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return false, wrapShort(err)
	}
	switch b[0] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, ErrMalformedInput
	}
}

// WriteString writes UTF-8 bytes terminated by a single 0x00. s must not
// itself contain a NUL byte.
func WriteString(w io.Writer, s string) error {
	if _, err := w.Write([]byte(s)); err != nil {
		return err
	}
	_, err := w.Write([]byte{0})
	return err
}

// ReadString reads a NUL-terminated UTF-8 string.
func ReadString(r io.Reader) (string, error) {
	var buf []byte
	var b [1]byte
	for {
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return "", wrapShort(err)
		}
		if b[0] == 0 {
			return string(buf), nil
		}
		buf = append(buf, b[0])
	}
}

// WriteScalar writes a one-byte length followed by the scalar's canonical
// marshaled bytes. The spec calls for a two's-complement big-endian integer;
// with a curve-library scalar backend the canonical marshaled form of the
// suite is the natural analog (see SPEC_FULL.md Open Question 3).
func WriteScalar(w io.Writer, s group.Scalar) error {
	b, err := s.MarshalBinary()
	if err != nil {
		return err
	}
	if len(b) == 0 || len(b) > 255 {
		return ErrMalformedInput
	}
	if _, err := w.Write([]byte{byte(len(b))}); err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// ReadScalar reads a scalar written by WriteScalar.
func ReadScalar(r io.Reader, suite group.Suite) (group.Scalar, error) {
	var lb [1]byte
	if _, err := io.ReadFull(r, lb[:]); err != nil {
		return nil, wrapShort(err)
	}
	length := int(lb[0])
	if length == 0 {
		return nil, ErrMalformedInput
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, wrapShort(err)
	}
	s := suite.Scalar()
	if err := s.UnmarshalBinary(buf); err != nil {
		return nil, xerrors.Errorf("%w: %v", ErrMalformedInput, err)
	}
	return s, nil
}

// CompressionFlag selects which point encoding a serialization uses. The
// same flag must be used for any hashing that contributes to a Fiat-Shamir
// challenge over that point (spec §3). With the edwards25519 backend both
// settings produce the curve's single canonical encoding (see
// SPEC_FULL.md Open Question 3); WritePoint and ReadPoint accept the flag
// but ignore it, and it is not written to the wire.
type CompressionFlag byte

const (
	Compressed   CompressionFlag = 0
	Uncompressed CompressionFlag = 1
)

// WritePoint writes a one-byte length followed by the point's canonical
// encoding; the compression flag does not change the output.
func WritePoint(w io.Writer, p group.Point, _ CompressionFlag) error {
	b, err := p.MarshalBinary()
	if err != nil {
		return err
	}
	if len(b) > 255 {
		return ErrMalformedInput
	}
	if _, err := w.Write([]byte{byte(len(b))}); err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// ReadPoint reads a point written by WritePoint.
func ReadPoint(r io.Reader, suite group.Suite, _ CompressionFlag) (group.Point, error) {
	var lb [1]byte
	if _, err := io.ReadFull(r, lb[:]); err != nil {
		return nil, wrapShort(err)
	}
	length := int(lb[0])
	buf := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, wrapShort(err)
		}
	}
	p := suite.Point()
	if err := p.UnmarshalBinary(buf); err != nil {
		return nil, xerrors.Errorf("%w: %v", ErrInvalidPoint, err)
	}
	return p, nil
}

// Pair is an ElGamal ciphertext pair (X, Y), always written under the same
// compression flag.
type Pair struct {
	X, Y group.Point
}

// WritePair writes both points of a Pair with the given flag.
func WritePair(w io.Writer, p Pair, flag CompressionFlag) error {
	if err := WritePoint(w, p.X, flag); err != nil {
		return err
	}
	return WritePoint(w, p.Y, flag)
}

// ReadPair reads a Pair written by WritePair.
func ReadPair(r io.Reader, suite group.Suite, flag CompressionFlag) (Pair, error) {
	x, err := ReadPoint(r, suite, flag)
	if err != nil {
		return Pair{}, err
	}
	y, err := ReadPoint(r, suite, flag)
	if err != nil {
		return Pair{}, err
	}
	return Pair{X: x, Y: y}, nil
}

// Header is the top-level prefix carried by every ledger wire message
// (spec §6): version, curve name, hash algorithm name, transaction timeout.
// Deserialization fails with ErrVersionMismatch on any field disagreement.
type Header struct {
	Version           uint32
	CurveName         string
	HashName          string
	TransactionTimeoutMs uint64
}

// CurrentVersion is the only version this implementation emits or accepts.
const CurrentVersion uint32 = 1

// DefaultHeader builds the header this deployment emits.
func DefaultHeader(transactionTimeoutMs uint64) Header {
	return Header{
		Version:              CurrentVersion,
		CurveName:            group.CurveName,
		HashName:             group.HashName,
		TransactionTimeoutMs: transactionTimeoutMs,
	}
}

// Write serializes the header.
func (h Header) Write(w io.Writer) error {
	if err := WriteUint32(w, h.Version); err != nil {
		return err
	}
	if err := WriteString(w, h.CurveName); err != nil {
		return err
	}
	if err := WriteString(w, h.HashName); err != nil {
		return err
	}
	return WriteUint64(w, h.TransactionTimeoutMs)
}

// ReadHeader reads a header and checks it against expected: any mismatch is
// ErrVersionMismatch, not a generic malformed-input error, per spec §7.
func ReadHeader(r io.Reader, expected Header) (Header, error) {
	var h Header
	if err := ReadUint32(r, &h.Version); err != nil {
		return h, err
	}
	var err error
	if h.CurveName, err = ReadString(r); err != nil {
		return h, err
	}
	if h.HashName, err = ReadString(r); err != nil {
		return h, err
	}
	if err := ReadUint64(r, &h.TransactionTimeoutMs); err != nil {
		return h, err
	}
	if h != expected {
		return h, ErrVersionMismatch
	}
	return h, nil
}

func wrapShort(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return xerrors.Errorf("%w: %v", ErrMalformedInput, err)
	}
	return err
}
