package encrypt

import (
	"io"
	"sync"

	"github.com/solidus-network/pvorm/group"
)

// Encryptor produces ElGamal ciphertexts under a fixed public key. All
// implementations are safe for concurrent use by multiple goroutines, and
// no operation blocks indefinitely: the queued and disk-backed variants
// fall back to inline computation when their background supply is
// exhausted (spec §4.2).
type Encryptor interface {
	PublicKey() group.Point
	EncryptZero() Cipher
	EncryptPoint(message group.Point) Cipher
	EncryptValue(v group.Scalar) Cipher
	EncryptBalance(v int64) (Cipher, error)
	Reencrypt(c Cipher) Cipher
}

// inlineEncryptor computes every zero-encryption on the calling goroutine.
// The simplest, always-correct baseline; the other variants only exist to
// move that cost off the hot path.
type inlineEncryptor struct {
	params    *group.Params
	publicKey group.Point
}

// NewInline returns an Encryptor that computes everything inline.
func NewInline(p *group.Params, publicKey group.Point) Encryptor {
	return &inlineEncryptor{params: p, publicKey: publicKey}
}

func (e *inlineEncryptor) PublicKey() group.Point { return e.publicKey }

func (e *inlineEncryptor) EncryptZero() Cipher {
	c, _ := EncryptZero(e.params, e.publicKey)
	return c
}

func (e *inlineEncryptor) EncryptPoint(message group.Point) Cipher {
	return EncryptPoint(e.params, e.publicKey, message)
}

func (e *inlineEncryptor) EncryptValue(v group.Scalar) Cipher {
	return EncryptValue(e.params, e.publicKey, v)
}

func (e *inlineEncryptor) EncryptBalance(v int64) (Cipher, error) {
	if v < 0 || v > e.params.VMax {
		return Cipher{}, ErrBalanceOutOfRange
	}
	return e.EncryptValue(e.params.ScalarFromInt64(v)), nil
}

func (e *inlineEncryptor) Reencrypt(c Cipher) Cipher {
	return Reencrypt(e.params, e.publicKey, c)
}

// queuedEncryptor fills a bounded channel of precomputed zero-encryptions
// from background worker goroutines. EncryptZero drains the channel
// non-blockingly; when it is empty the call falls back to inline
// computation rather than waiting on the producers (spec §5's "no
// operation may block indefinitely").
type queuedEncryptor struct {
	inlineEncryptor
	queue  chan Cipher
	stopWg sync.WaitGroup
	stop   chan struct{}
	once   sync.Once
}

// NewQueued starts numWorkers background goroutines filling a channel of
// capacity depth with fresh zero-encryptions. Call Close to stop them.
func NewQueued(p *group.Params, publicKey group.Point, depth, numWorkers int) *queuedEncryptor {
	e := &queuedEncryptor{
		inlineEncryptor: inlineEncryptor{params: p, publicKey: publicKey},
		queue:           make(chan Cipher, depth),
		stop:            make(chan struct{}),
	}
	for i := 0; i < numWorkers; i++ {
		e.stopWg.Add(1)
		go e.fill()
	}
	return e
}

func (e *queuedEncryptor) fill() {
	defer e.stopWg.Done()
	for {
		c, _ := EncryptZero(e.params, e.publicKey)
		select {
		case e.queue <- c:
		case <-e.stop:
			return
		}
	}
}

func (e *queuedEncryptor) EncryptZero() Cipher {
	select {
	case c := <-e.queue:
		return c
	default:
		return e.inlineEncryptor.EncryptZero()
	}
}

func (e *queuedEncryptor) EncryptPoint(message group.Point) Cipher {
	z := e.EncryptZero()
	return Cipher{
		X: e.params.Suite.Point().Add(message, z.X),
		Y: z.Y,
	}
}

func (e *queuedEncryptor) EncryptValue(v group.Scalar) Cipher {
	return e.EncryptPoint(e.params.Suite.Point().Mul(v, nil))
}

func (e *queuedEncryptor) EncryptBalance(v int64) (Cipher, error) {
	if v < 0 || v > e.params.VMax {
		return Cipher{}, ErrBalanceOutOfRange
	}
	return e.EncryptValue(e.params.ScalarFromInt64(v)), nil
}

func (e *queuedEncryptor) Reencrypt(c Cipher) Cipher {
	z := e.EncryptZero()
	return Cipher{
		X: e.params.Suite.Point().Add(c.X, z.X),
		Y: e.params.Suite.Point().Add(c.Y, z.Y),
	}
}

// Close stops the background workers. Safe to call more than once.
func (e *queuedEncryptor) Close() {
	e.once.Do(func() { close(e.stop) })
	e.stopWg.Wait()
}

// diskEncryptor reads precomputed zero-encryptions from an io.Reader
// (typically a file written by an offline batch job) and falls back to
// inline computation once the stream is exhausted.
type diskEncryptor struct {
	inlineEncryptor
	mu     sync.Mutex
	source io.Reader
	drained bool
}

// NewDiskBacked wraps source, a stream of codec-serialized Cipher values,
// as the primary supply of zero-encryptions.
func NewDiskBacked(p *group.Params, publicKey group.Point, source io.Reader) *diskEncryptor {
	return &diskEncryptor{
		inlineEncryptor: inlineEncryptor{params: p, publicKey: publicKey},
		source:          source,
	}
}

func (e *diskEncryptor) EncryptZero() Cipher {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.drained {
		if c, ok := e.readOne(); ok {
			return c
		}
		e.drained = true
	}
	return e.inlineEncryptor.EncryptZero()
}

func (e *diskEncryptor) readOne() (Cipher, bool) {
	c, err := readPairFrom(e.source, e.params)
	if err != nil {
		return Cipher{}, false
	}
	return c, true
}

func (e *diskEncryptor) EncryptPoint(message group.Point) Cipher {
	z := e.EncryptZero()
	return Cipher{
		X: e.params.Suite.Point().Add(message, z.X),
		Y: z.Y,
	}
}

func (e *diskEncryptor) EncryptValue(v group.Scalar) Cipher {
	return e.EncryptPoint(e.params.Suite.Point().Mul(v, nil))
}

func (e *diskEncryptor) EncryptBalance(v int64) (Cipher, error) {
	if v < 0 || v > e.params.VMax {
		return Cipher{}, ErrBalanceOutOfRange
	}
	return e.EncryptValue(e.params.ScalarFromInt64(v)), nil
}

func (e *diskEncryptor) Reencrypt(c Cipher) Cipher {
	z := e.EncryptZero()
	return Cipher{
		X: e.params.Suite.Point().Add(c.X, z.X),
		Y: e.params.Suite.Point().Add(c.Y, z.Y),
	}
}
