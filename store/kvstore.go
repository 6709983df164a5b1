// Package store persists a bank process' state across restarts: snapshots
// of each counterparty's EncryptedPvorm, the append-only PvormUpdate log,
// and a cache of the discrete-log table so it need not be rebuilt on every
// boot (SPEC_FULL.md §3 "Discrete-log table persistence"). Grounded on the
// teacher's own hive_adaptor package and examples/trie_bench/main.go, which
// wrap hive.go/core/kvstore's badger/mapdb backends behind the same narrow
// KVStore contract this module's root package declares.
package store

import (
	"errors"

	hivekv "github.com/iotaledger/hive.go/core/kvstore"

	"github.com/solidus-network/pvorm"
)

// hiveAdaptor maps a byte-prefixed partition of a hive.go KVStore onto
// pvorm.KVStore, exactly as the teacher's hive_adaptor.HiveKVStoreAdaptor
// does for trie/value partitions.
type hiveAdaptor struct {
	kvs    hivekv.KVStore
	prefix []byte
}

func newHiveAdaptor(kvs hivekv.KVStore, prefix []byte) *hiveAdaptor {
	return &hiveAdaptor{kvs: kvs, prefix: prefix}
}

func (a *hiveAdaptor) makeKey(k []byte) []byte {
	if len(a.prefix) == 0 {
		return k
	}
	return pvorm.Concat(a.prefix, k)
}

func (a *hiveAdaptor) Get(key []byte) []byte {
	v, err := a.kvs.Get(a.makeKey(key))
	if errors.Is(err, hivekv.ErrKeyNotFound) {
		return nil
	}
	mustNoErr(err)
	return v
}

func (a *hiveAdaptor) Has(key []byte) bool {
	v, err := a.kvs.Has(a.makeKey(key))
	mustNoErr(err)
	return v
}

func (a *hiveAdaptor) Set(key, value []byte) {
	var err error
	if len(value) == 0 {
		err = a.kvs.Delete(a.makeKey(key))
	} else {
		err = a.kvs.Set(a.makeKey(key), value)
	}
	mustNoErr(err)
}

func (a *hiveAdaptor) Iterate(fn func(k, v []byte) bool) {
	err := a.kvs.Iterate(a.prefix, func(key hivekv.Key, value hivekv.Value) bool {
		return fn(key[len(a.prefix):], value)
	})
	mustNoErr(err)
}

var _ pvorm.KVStore = (*hiveAdaptor)(nil)

func mustNoErr(err error) {
	if err != nil {
		panic(err)
	}
}
