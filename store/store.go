package store

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/dgraph-io/badger/v2"
	hivekv "github.com/iotaledger/hive.go/core/kvstore"
	hivebadger "github.com/iotaledger/hive.go/core/kvstore/badger"
	"github.com/iotaledger/hive.go/core/kvstore/mapdb"

	"github.com/solidus-network/pvorm/encoram"
	"github.com/solidus-network/pvorm/errs"
	"github.com/solidus-network/pvorm/group"
	"github.com/solidus-network/pvorm/update"
)

var (
	snapshotPrefix  = []byte{0x01}
	updateLogPrefix = []byte{0x02}
	dlogPrefix      = []byte{0x03}
)

// Store persists a bank process' state: one EncryptedPvorm snapshot per
// counterparty identifier, an append-only per-counterparty PvormUpdate log,
// and a cached discrete-log table. Backed by hive.go/core/kvstore, with
// badger for a real deployment and mapdb for tests - the same choice
// trie_bench's mkdbbadger/mkdbmem commands make behind the same interface.
type Store struct {
	kvs      hivekv.KVStore
	db       *badger.DB
	snapshot *hiveAdaptor
	updates  *hiveAdaptor
	dlog     *hiveAdaptor

	// timeoutMs is folded into every codec.Header this Store writes or
	// expects on read (spec §6), matching the deployment's configured
	// transaction timeout.
	timeoutMs uint64
}

// Open opens (creating if necessary) a badger-backed Store at dir. timeoutMs
// is the deployment's configured transaction timeout, used to stamp and
// check every persisted artifact's header.
func Open(dir string, timeoutMs uint64) (*Store, error) {
	db, err := hivebadger.CreateDB(dir)
	if err != nil {
		return nil, errs.Mark(err, errs.KindConfiguration)
	}
	return newStore(hivebadger.New(db), db, timeoutMs), nil
}

// OpenMem opens an in-memory Store, for tests and short-lived processes.
func OpenMem(timeoutMs uint64) *Store {
	return newStore(mapdb.NewMapDB(), nil, timeoutMs)
}

func newStore(kvs hivekv.KVStore, db *badger.DB, timeoutMs uint64) *Store {
	return &Store{
		kvs:       kvs,
		db:        db,
		snapshot:  newHiveAdaptor(kvs, snapshotPrefix),
		updates:   newHiveAdaptor(kvs, updateLogPrefix),
		dlog:      newHiveAdaptor(kvs, dlogPrefix),
		timeoutMs: timeoutMs,
	}
}

// Close flushes and closes the underlying badger database, if any.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	if err := s.kvs.Flush(); err != nil {
		return err
	}
	return s.db.Close()
}

// SaveSnapshot persists e's authoritative state under counterparty id,
// overwriting any prior snapshot for the same id.
func (s *Store) SaveSnapshot(id string, e *encoram.EncryptedPvorm) error {
	var buf bytes.Buffer
	if err := e.Write(&buf, s.timeoutMs); err != nil {
		return errs.Mark(err, errs.KindMalformedSerialization)
	}
	s.snapshot.Set([]byte(id), buf.Bytes())
	return nil
}

// LoadSnapshot reads back a snapshot saved by SaveSnapshot. Returns
// (nil, false) if no snapshot exists for id.
func (s *Store) LoadSnapshot(id string, params *group.Params) (*encoram.EncryptedPvorm, bool, error) {
	raw := s.snapshot.Get([]byte(id))
	if raw == nil {
		return nil, false, nil
	}
	e, err := encoram.ReadEncryptedPvorm(bytes.NewReader(raw), params, s.timeoutMs)
	if err != nil {
		return nil, false, errs.Mark(err, errs.KindMalformedSerialization)
	}
	return e, true, nil
}

// updateKey orders a counterparty's update log lexicographically by
// appending a big-endian sequence number, so Iterate visits updates in the
// order they were appended.
func updateKey(id string, seq uint64) []byte {
	var seqBuf [8]byte
	binary.BigEndian.PutUint64(seqBuf[:], seq)
	return append([]byte(id+"\x00"), seqBuf[:]...)
}

// AppendUpdate records u as counterparty id's seq'th applied update, for
// offline audit/replay (spec §9's transaction log).
func (s *Store) AppendUpdate(id string, seq uint64, u *update.PvormUpdate) error {
	var buf bytes.Buffer
	if err := u.Write(&buf, s.timeoutMs); err != nil {
		return errs.Mark(err, errs.KindMalformedSerialization)
	}
	s.updates.Set(updateKey(id, seq), buf.Bytes())
	return nil
}

// IterateUpdates visits every update logged for id in append order, until
// fn returns false or the log is exhausted.
func (s *Store) IterateUpdates(id string, suite group.Suite, fn func(seq uint64, u *update.PvormUpdate) bool) error {
	prefix := []byte(id + "\x00")
	var iterErr error
	s.updates.Iterate(func(k, v []byte) bool {
		if !bytes.HasPrefix(k, prefix) {
			return true
		}
		seq := binary.BigEndian.Uint64(k[len(prefix):])
		u, err := update.ReadPvormUpdate(bytes.NewReader(v), suite, s.timeoutMs)
		if err != nil {
			iterErr = errs.Mark(err, errs.KindMalformedSerialization)
			return false
		}
		return fn(seq, u)
	})
	return iterErr
}

// dlogCacheKey identifies a discrete-log table by the exact tuple it was
// built under - a table cached for one (curve, VMax, gap) must never be
// loaded against different parameters.
func dlogCacheKey(curveName string, vMax, gap int64) []byte {
	return []byte(fmt.Sprintf("%s/%d/%d", curveName, vMax, gap))
}

// SaveDLogTable caches params' discrete-log table keyed by its exact
// (curve, VMax, gap) tuple.
func (s *Store) SaveDLogTable(params *group.Params) error {
	var buf bytes.Buffer
	if err := params.DLog.SaveTo(&buf); err != nil {
		return err
	}
	s.dlog.Set(dlogCacheKey(group.CurveName, params.VMax, params.DLogGap), buf.Bytes())
	return nil
}

// LoadDLogTable returns the cached table for (VMax, gap), or (nil, false)
// if none is cached, so the caller falls back to group.Build's eager
// rebuild.
func (s *Store) LoadDLogTable(vMax, gap int64) (*group.DLogTable, bool, error) {
	raw := s.dlog.Get(dlogCacheKey(group.CurveName, vMax, gap))
	if raw == nil {
		return nil, false, nil
	}
	table, err := group.LoadFrom(bytes.NewReader(raw))
	if err != nil {
		return nil, false, errs.Mark(err, errs.KindMalformedSerialization)
	}
	return table, true, nil
}

// BuildParams returns Params for (VMax, gap), using a cached discrete-log
// table when one is available and rebuilding (then caching) it otherwise.
func (s *Store) BuildParams(vMax, gap int64) (*group.Params, error) {
	if table, ok, err := s.LoadDLogTable(vMax, gap); err != nil {
		return nil, err
	} else if ok {
		return group.BuildWithTable(group.Opts{VMax: vMax, Gap: gap}, table), nil
	}
	p := group.Build(group.Opts{VMax: vMax, Gap: gap})
	if err := s.SaveDLogTable(p); err != nil {
		return nil, err
	}
	return p, nil
}
