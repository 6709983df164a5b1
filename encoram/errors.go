// Package encoram implements the encrypted PVORM (spec.md §4) on top of the
// plaintext oram package: EncryptedPvorm is the verifier-side structure that
// holds only ciphertexts and checks update proofs without ever learning
// plaintext state; OwnedPvorm pairs a plaintext oram.Tree with the account's
// secret key to produce those updates.
//
// The package is named encoram, not pvorm, to avoid colliding with the
// root package of the same module.
package encoram

import "golang.org/x/xerrors"

var (
	// ErrShapeMismatch names the condition in which the update's tree shape
	// or public key does not match this EncryptedPvorm. VerifyUpdate reports
	// that condition by returning false; it does not return this error.
	ErrShapeMismatch = xerrors.New("encoram: update shape or public key mismatch")

	// ErrNoVerifiedUpdate is returned by ApplyLastVerifiedUpdate when no
	// update has been verified since the last apply (or the last failed
	// verification discarded it).
	ErrNoVerifiedUpdate = xerrors.New("encoram: no verified update pending")
)
