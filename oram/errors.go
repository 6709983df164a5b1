// Package oram implements the plaintext circuit-ORAM from spec.md §4.6: a
// deterministic oblivious tree of fixed-capacity buckets tracking
// account-point-to-balance blocks, whose only externally visible artifact
// is the ordered sequence of per-slot swaps each update's double eviction
// produces.
package oram

import "golang.org/x/xerrors"

var (
	// ErrAccountExists is returned by Insert when the account point is
	// already present.
	ErrAccountExists = xerrors.New("oram: account already present")
	// ErrCapacityExceeded is returned by Insert once the tree holds as many
	// accounts as it has leaves.
	ErrCapacityExceeded = xerrors.New("oram: tree at capacity")
	// ErrAccountNotFound is returned by Update for an unknown account.
	ErrAccountNotFound = xerrors.New("oram: account not found")
	// ErrNegativeBalance is returned by Update when a delta would drive an
	// account's balance below zero.
	ErrNegativeBalance = xerrors.New("oram: update would leave a negative balance")
	// ErrStashOverflow is the fatal configuration error from spec §4.6: an
	// eviction needs more room than bucket_size/stash_size provide.
	ErrStashOverflow = xerrors.New("oram: stash overflow, reconfigure with a larger bucket or stash size")
)
