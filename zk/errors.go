// Package zk implements the Sigma-protocol zero-knowledge proofs from
// spec.md §4.5: PlaintextEqProof, PlaintextEqDisKeyProof, OneOfTwoDlogProof,
// DoubleSwapProof, MaxwellRangeProof and SchnorrSignature. Every proof here
// follows the same shape as hashscalar's challenge derivation: a prover
// picks nonces, commits, derives a challenge by hashing the transcript, and
// responds; a verifier recomputes the commitments from the response and
// checks the challenge reproduces.
//
// Apart from SchnorrSignature, which stores its commitment R, none of these
// proofs store their Sigma-protocol commitment points on the wire. Each
// stores only the challenge scalar(s) and response scalar(s);
// verification recomputes the commitments from those and re-derives the
// challenge, accepting iff it matches what was stored. This halves proof
// size relative to a naive transcript and is the same compaction the
// vocdoni-davinci Chaum-Pedersen proof (other_examples) uses.
package zk

import "golang.org/x/xerrors"

// ErrProofInvalid is the error callers return when a Verify method (each
// of which reports rejection as false) rejects a proof. It never
// distinguishes which sub-check failed; spec §7 treats a failed proof
// as evidence of a malicious counterparty, not a recoverable condition a
// caller should branch on.
var ErrProofInvalid = xerrors.New("zk: proof verification failed")
