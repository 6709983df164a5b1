package bank

import (
	"github.com/solidus-network/pvorm/encoram"
	"github.com/solidus-network/pvorm/group"
)

// RemoteView is everything a bank keeps about one counterparty: its public
// key and a shadow EncryptedPvorm mirroring the counterparty's own state,
// kept current by independently verifying every PvormUpdate the
// counterparty publishes (SPEC_FULL.md §3, "the thing every observer
// actually holds per counterparty" - spec.md's data model names the
// EncryptedPvorm type but not this per-observer bookkeeping around it).
type RemoteView struct {
	ID        ID
	PublicKey group.Point
	Shadow    *encoram.EncryptedPvorm
}

// NewRemoteView starts tracking a counterparty from an empty ledger: depth,
// bucketSize and stashSize must match the deployment-wide tree shape every
// bank in the network agrees on.
func NewRemoteView(params *group.Params, depth, bucketSize, stashSize int, publicKey group.Point) *RemoteView {
	return &RemoteView{
		ID:        IDFromPublicKey(publicKey),
		PublicKey: publicKey,
		Shadow:    encoram.NewEncryptedPvorm(params, depth, bucketSize, stashSize, publicKey),
	}
}

// NewRemoteViewFromSnapshot starts tracking a counterparty from a snapshot
// already loaded from store, e.g. on process restart.
func NewRemoteViewFromSnapshot(publicKey group.Point, snapshot *encoram.EncryptedPvorm) *RemoteView {
	return &RemoteView{ID: IDFromPublicKey(publicKey), PublicKey: publicKey, Shadow: snapshot}
}
