package encrypt

import (
	"sync"

	"github.com/solidus-network/pvorm/group"
)

// Registry caches one Encryptor per public key, mutex-guarded, matching
// spec §5's "Encryptor instances are thread-safe, cached per public key
// behind an internal mutex-guarded map".
type Registry struct {
	params *group.Params
	mu     sync.Mutex
	byKey  map[string]Encryptor
}

// NewRegistry builds an empty cache for params.
func NewRegistry(p *group.Params) *Registry {
	return &Registry{params: p, byKey: make(map[string]Encryptor)}
}

// ForKey returns the cached Encryptor for publicKey, building an inline one
// on first use.
func (r *Registry) ForKey(publicKey group.Point) Encryptor {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := publicKey.String()
	if e, ok := r.byKey[key]; ok {
		return e
	}
	e := NewInline(r.params, publicKey)
	r.byKey[key] = e
	return e
}

// Register installs a specific Encryptor (e.g. a queued or disk-backed
// variant) for publicKey, replacing any cached inline default.
func (r *Registry) Register(publicKey group.Point, e Encryptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byKey[publicKey.String()] = e
}
