package group

import (
	"encoding/binary"
	"io"

	"golang.org/x/xerrors"
)

// ErrDiscreteLogNotFound is returned when a point does not correspond to any
// k*G for k in [-VMax, VMax]. Spec §7 asks that this be surfaced distinctly
// from other decode/decrypt failures so callers can attribute it to a
// malicious counterparty rather than an internal bug.
var ErrDiscreteLogNotFound = xerrors.New("group: discrete log not in table")

// DLogTable maps k*G -> k for k in [0, VMax], storing entries only at
// multiples of gap. A lookup advances the point by G up to gap-1 times
// until it reaches a stored multiple k, giving k minus the number of
// steps, then repeats the search against the point's negation so negative
// logs resolve too (spec §4.1).
type DLogTable struct {
	gap     int64
	vMax    int64
	entries map[string]int64 // canonical point encoding -> k, for k a multiple of gap
}

// NewDLogTable builds the table eagerly: entries at every multiple of gap
// from 0 to vMax.
func NewDLogTable(p *Params, vMax, gap int64) *DLogTable {
	t := &DLogTable{
		gap:     gap,
		vMax:    vMax,
		entries: make(map[string]int64, vMax/gap+1),
	}
	acc := p.Suite.Point().Null()
	stepScaled := p.Suite.Point().Mul(p.Suite.Scalar().SetInt64(gap), nil)
	for k := int64(0); k <= vMax; k += gap {
		t.entries[acc.String()] = k
		acc = p.Suite.Point().Add(acc, stepScaled)
	}
	return t
}

// Lookup inverts target = k*G, returning k (possibly negative). Fails with
// ErrDiscreteLogNotFound if no k in [-vMax, vMax] matches.
func (t *DLogTable) Lookup(p *Params, target Point) (int64, error) {
	if k, ok := t.search(p, target); ok {
		return k, nil
	}
	neg := p.Suite.Point().Neg(target)
	if k, ok := t.search(p, neg); ok {
		return -k, nil
	}
	return 0, ErrDiscreteLogNotFound
}

// SaveTo serializes the table (gap, vMax, then every stored entry) so a
// restarted process can skip the O(vMax/gap) rebuild in NewDLogTable
// (SPEC_FULL.md §3 "Discrete-log table persistence"). This is hand-rolled
// rather than built on the codec package: codec already depends on group
// for its Scalar/Point/Suite parameters, so group depending back on codec
// here would be an import cycle. The wire shape is its own: every integer
// is a fixed-width 8-byte big-endian value, and each entry key is prefixed
// by its 8-byte length (codec's strings are NUL-terminated instead).
func (t *DLogTable) SaveTo(w io.Writer) error {
	if err := writeUint64(w, uint64(t.gap)); err != nil {
		return err
	}
	if err := writeUint64(w, uint64(t.vMax)); err != nil {
		return err
	}
	if err := writeUint64(w, uint64(len(t.entries))); err != nil {
		return err
	}
	for key, v := range t.entries {
		if err := writeUint64(w, uint64(len(key))); err != nil {
			return err
		}
		if _, err := io.WriteString(w, key); err != nil {
			return err
		}
		if err := writeUint64(w, uint64(v)); err != nil {
			return err
		}
	}
	return nil
}

// LoadFrom reads a table written by SaveTo. The caller is responsible for
// only loading a table against the same (curve, vMax, gap) it was saved
// under - store keys its on-disk cache by exactly that tuple.
func LoadFrom(r io.Reader) (*DLogTable, error) {
	gap, err := readUint64(r)
	if err != nil {
		return nil, err
	}
	vMax, err := readUint64(r)
	if err != nil {
		return nil, err
	}
	n, err := readUint64(r)
	if err != nil {
		return nil, err
	}
	t := &DLogTable{gap: int64(gap), vMax: int64(vMax), entries: make(map[string]int64, n)}
	for i := uint64(0); i < n; i++ {
		keyLen, err := readUint64(r)
		if err != nil {
			return nil, err
		}
		keyBuf := make([]byte, keyLen)
		if _, err := io.ReadFull(r, keyBuf); err != nil {
			return nil, err
		}
		v, err := readUint64(r)
		if err != nil {
			return nil, err
		}
		t.entries[string(keyBuf)] = int64(v)
	}
	return t, nil
}

func writeUint64(w io.Writer, v uint64) error {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func readUint64(r io.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b[:]), nil
}

// search adds G to target up to gap-1 times until the point matches a
// stored multiple k, covering the window (k-gap, k] for every stored k,
// and returns k minus the number of additions if that lies in [0, vMax].
func (t *DLogTable) search(p *Params, target Point) (int64, bool) {
	cur := p.Suite.Point().Set(target)
	g := p.Generator()
	for offset := int64(0); offset < t.gap; offset++ {
		if storedK, ok := t.entries[cur.String()]; ok {
			result := storedK - offset
			if result < 0 || result > t.vMax {
				return 0, false
			}
			return result, true
		}
		cur = p.Suite.Point().Add(cur, g)
	}
	return 0, false
}
