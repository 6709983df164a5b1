// Package pvorm contains the shared primitives used across the PVORM
// implementation: the Serializable contract every wire object satisfies,
// the key/value storage abstraction used by the persistence layer, and a
// handful of small helpers (Assert, Concat, MustBytes) in the style the
// rest of the module follows.
package pvorm

import (
	"bytes"
	"fmt"
	"io"
)

// Serializable is the common interface for byte-exact, self-describing
// serialization of every proof, update and snapshot object in the system.
// Read/Write must be inverses: for any v, v.Write(&buf) followed by
// v2.Read(&buf) yields a v2 equal to v.
type Serializable interface {
	Read(r io.Reader) error
	Write(w io.Writer) error
	Bytes() []byte
}

// MustBytes serializes o, panicking if Write ever fails (an in-memory
// bytes.Buffer never returns an error from Write, so this only panics on a
// logic bug).
func MustBytes(o interface{ Write(w io.Writer) error }) []byte {
	var buf bytes.Buffer
	if err := o.Write(&buf); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// Size returns the serialized length of o without retaining the bytes.
func Size(o interface{ Write(w io.Writer) error }) (int, error) {
	var c byteCounter
	if err := o.Write(&c); err != nil {
		return 0, err
	}
	return int(c), nil
}

type byteCounter int

func (b *byteCounter) Write(p []byte) (int, error) {
	*b += byteCounter(len(p))
	return len(p), nil
}

// Assert panics with a formatted message if cond is false. Used for internal
// invariants that indicate a programming error rather than a data error.
func Assert(cond bool, format string, args ...interface{}) {
	if !cond {
		panic(fmt.Sprintf(format, args...))
	}
}

// Concat concatenates byte-producing values of mixed type into one slice.
// Accepts []byte, byte, string, and anything with a Bytes() []byte method.
func Concat(parts ...interface{}) []byte {
	var buf bytes.Buffer
	for _, p := range parts {
		switch v := p.(type) {
		case []byte:
			buf.Write(v)
		case byte:
			buf.WriteByte(v)
		case string:
			buf.WriteString(v)
		case interface{ Bytes() []byte }:
			buf.Write(v.Bytes())
		default:
			Assert(false, "Concat: unsupported type %T", p)
		}
	}
	return buf.Bytes()
}
