//go:build debug

// Package syncutil picks the mutex implementation guarding the module's
// single-writer types (oram.Tree, encoram.OwnedPvorm, encoram.EncryptedPvorm):
// a deadlock-detecting mutex in debug builds, a plain one otherwise.
package syncutil

import "github.com/sasha-s/go-deadlock"

// Mutex is a deadlock.Mutex in debug builds, so a violation of the
// single-writer contract (spec §5) surfaces as a reported deadlock instead
// of a silent hang.
type Mutex = deadlock.Mutex
