// Package bank implements the transaction flow spec.md §2 describes in
// prose: a sending bank builds a signed, zero-knowledge-proven transaction
// header, both sides of the transfer apply it to their own OwnedPvorm, and
// every other bank in the network independently verifies and adopts the
// resulting PvormUpdates against its shadow copy of each counterparty's
// ledger. Nothing here invents new cryptography; it wires together group,
// encrypt, zk and encoram the way the teacher's higher-level packages wire
// together its lower-level trie primitives.
package bank

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/solidus-network/pvorm/codec"
	"github.com/solidus-network/pvorm/encoram"
	"github.com/solidus-network/pvorm/encrypt"
	"github.com/solidus-network/pvorm/errs"
	"github.com/solidus-network/pvorm/executor"
	"github.com/solidus-network/pvorm/group"
	"github.com/solidus-network/pvorm/oram"
	"github.com/solidus-network/pvorm/syncutil"
	"github.com/solidus-network/pvorm/update"
	"github.com/solidus-network/pvorm/zk"
)

// Bank is one participant: an owned ledger of the accounts it holds, plus a
// shadow RemoteView of every counterparty it has transacted with.
type Bank struct {
	params    *group.Params
	secretKey group.Scalar
	publicKey group.Point
	id        ID
	owned     *encoram.OwnedPvorm
	timeoutMs uint64
	exec      executor.Executor
	log       *zap.SugaredLogger

	mu      syncutil.Mutex
	remotes map[ID]*RemoteView
}

// New builds a Bank around an already-constructed OwnedPvorm (see
// encoram.NewBuilder for populating one from an initial account list).
// timeoutMs bounds how stale a transaction header may be when it reaches
// send_transaction or receive_transaction (SPEC_FULL.md §4's resolution of
// spec.md's open question on replay/timeout handling: a flat wall-clock
// window, no separate dedup table).
func New(params *group.Params, secretKey group.Scalar, owned *encoram.OwnedPvorm, timeoutMs uint64, exec executor.Executor, log *zap.SugaredLogger) *Bank {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	publicKey := owned.PublicKey()
	return &Bank{
		params:    params,
		secretKey: secretKey,
		publicKey: publicKey,
		id:        IDFromPublicKey(publicKey),
		owned:     owned,
		timeoutMs: timeoutMs,
		exec:      exec,
		log:       log,
		remotes:   make(map[ID]*RemoteView),
	}
}

// ID returns this bank's identifier.
func (b *Bank) ID() ID { return b.id }

// PublicKey returns this bank's public key.
func (b *Bank) PublicKey() group.Point { return b.publicKey }

// RegisterRemote starts (or replaces) tracking of a counterparty bank.
func (b *Bank) RegisterRemote(v *RemoteView) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.remotes[v.ID] = v
}

// Remote returns the tracked view of counterparty id.
func (b *Bank) Remote(id ID) (*RemoteView, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.remotes[id]
	if !ok {
		return nil, errs.Mark(ErrUnknownCounterparty, errs.KindInputValidation)
	}
	return v, nil
}

func rangeBits(vMax int64) int {
	bits := 0
	for v := vMax; v > 0; v >>= 1 {
		bits++
	}
	if bits == 0 {
		bits = 1
	}
	return bits
}

// GenerateHeader builds and signs the TransactionHeader for a transfer of
// amount from sourceAccount (owned by this bank) to destAccount (owned by
// the bank in destBank). Beyond the header itself, it returns two
// ciphertexts the header's proofs bind to but that spec.md's fixed header
// shape has no field for: senderDebit, the encryption under this bank's own
// key that send_transaction will feed its ledger update, and
// receiverCredit, the encryption under destBank's key that the destination
// bank's receive_transaction will need. Carrying those two ciphertexts from
// this bank to the other is ledger transport, which spec.md's Non-goals
// exclude; GenerateHeader only produces and proves them.
func (b *Bank) GenerateHeader(txID string, nowMs uint64, destBank *RemoteView, sourceAccount, destAccount group.Point, amount int64) (header *TransactionHeader, senderDebit, receiverCredit encrypt.Cipher, err error) {
	if amount < 0 {
		return nil, encrypt.Cipher{}, encrypt.Cipher{}, errs.Mark(ErrNegativeAmount, errs.KindInputValidation)
	}
	amountScalar := b.params.ScalarFromInt64(amount)

	encAmount := encrypt.EncryptValue(b.params, b.publicKey, amountScalar)
	encSourceAccount := encrypt.EncryptPoint(b.params, b.publicKey, sourceAccount)
	encDestAccount := encrypt.EncryptPoint(b.params, destBank.PublicKey, destAccount)

	ra := b.params.RandomScalar()
	encAmountForSenderUpdate := encrypt.EncryptValueWithRandomizer(b.params, b.publicKey, amountScalar, ra)

	rb := b.params.RandomScalar()
	encAmountForReceiver := encrypt.EncryptValueWithRandomizer(b.params, destBank.PublicKey, amountScalar, rb)

	sameKeyReenc := zk.BuildPlaintextEqProof(b.params, b.secretKey, b.publicKey, encAmount, encAmountForSenderUpdate)
	crossKeyReenc := zk.BuildPlaintextEqDisKeyProof(b.params, amountScalar, ra, rb, b.publicKey, destBank.PublicKey, encAmountForSenderUpdate, encAmountForReceiver)

	rangeProof, err := zk.BuildMaxwellRangeProof(b.params, b.exec, b.secretKey, b.publicKey, encAmount, amount, rangeBits(b.params.VMax))
	if err != nil {
		return nil, encrypt.Cipher{}, encrypt.Cipher{}, classifyErr(err)
	}

	h := &TransactionHeader{
		TxID:             txID,
		TimestampMs:      nowMs,
		EncAmount:        encAmount,
		EncSourceAccount: encSourceAccount,
		EncDestAccount:   encDestAccount,
		DestBankKey:      destBank.PublicKey,
		AmountRange:      rangeProof,
		SameKeyReenc:     sameKeyReenc,
		CrossKeyReenc:    crossKeyReenc,
	}
	blobs, err := h.signingBlobs()
	if err != nil {
		return nil, encrypt.Cipher{}, encrypt.Cipher{}, classifyErr(err)
	}
	h.Sig = zk.Sign(b.params, b.secretKey, blobs)

	return h, encrypt.Negate(b.params, encAmountForSenderUpdate), encAmountForReceiver, nil
}

// checkTimestamp rejects headers outside this bank's acceptance window.
func (b *Bank) checkTimestamp(timestampMs, nowMs uint64) error {
	var age int64
	if nowMs >= timestampMs {
		age = int64(nowMs - timestampMs)
	} else {
		age = int64(timestampMs - nowMs)
	}
	if age > int64(b.timeoutMs) {
		return errs.Mark(ErrTransactionExpired, errs.KindInputValidation)
	}
	return nil
}

// SendTransaction debits sourceAccount (header.EncSourceAccount, encrypted
// under this bank's own key) by the amount header.SameKeyReenc ties to
// senderDebit, and returns the sender's half of the resulting Transaction.
// Callers other than this same bank's own GenerateHeader call must verify
// header.Sig and the three embedded proofs themselves before calling this -
// SendTransaction only checks the header is still fresh and runs the debit.
func (b *Bank) SendTransaction(header *TransactionHeader, senderDebit encrypt.Cipher, nowMs uint64) (*Transaction, error) {
	if err := b.checkTimestamp(header.TimestampMs, nowMs); err != nil {
		return nil, err
	}

	u, err := b.owned.Update(header.EncSourceAccount, senderDebit, true, b.exec)
	if err != nil {
		return nil, classifyErr(err)
	}

	return &Transaction{
		Header: header,
		Sender: &SenderInfo{BankKey: b.publicKey, Update: u},
	}, nil
}

// ReceiveTransaction verifies tx's sender half against this bank's shadow
// copy of the sender's ledger, credits destAccount (tx.Header.EncDestAccount)
// by receiverCredit via this bank's own OwnedPvorm, and fills in
// tx.Receiver. The sender must be a counterparty this bank already tracks
// via RegisterRemote.
func (b *Bank) ReceiveTransaction(tx *Transaction, receiverCredit encrypt.Cipher, nowMs uint64) error {
	if tx.Receiver != nil {
		return errs.Mark(ErrReceiverAlreadySet, errs.KindInputValidation)
	}
	if err := b.checkTimestamp(tx.Header.TimestampMs, nowMs); err != nil {
		return err
	}
	if !tx.Header.DestBankKey.Equal(b.publicKey) {
		return errs.Mark(ErrWrongDestinationBank, errs.KindInputValidation)
	}

	blobs, err := tx.Header.signingBlobs()
	if err != nil {
		return classifyErr(err)
	}
	if !tx.Header.Sig.Verify(b.params, tx.Sender.BankKey, blobs) {
		return errs.Mark(ErrSignatureInvalid, errs.KindProofFailure)
	}
	if !tx.Header.AmountRange.Verify(b.params, b.exec, tx.Sender.BankKey, tx.Header.EncAmount) {
		return errs.Mark(zk.ErrProofInvalid, errs.KindProofFailure)
	}

	// tx.Sender.Update.EncBalanceChange is exactly senderDebit from
	// GenerateHeader (OwnedPvorm.Update stores its encBalanceChange
	// argument verbatim); negating it recovers the positive-amount
	// ciphertext SameKeyReenc and CrossKeyReenc were built against, so
	// receiverCredit can be checked against the header without a second
	// out-of-band ciphertext.
	encAmountForSenderUpdate := encrypt.Negate(b.params, tx.Sender.Update.EncBalanceChange)
	if !tx.Header.SameKeyReenc.Verify(b.params, tx.Sender.BankKey, tx.Header.EncAmount, encAmountForSenderUpdate) {
		return errs.Mark(zk.ErrProofInvalid, errs.KindProofFailure)
	}
	if !tx.Header.CrossKeyReenc.Verify(b.params, tx.Sender.BankKey, b.publicKey, encAmountForSenderUpdate, receiverCredit) {
		return errs.Mark(zk.ErrProofInvalid, errs.KindProofFailure)
	}

	sender, err := b.Remote(IDFromPublicKey(tx.Sender.BankKey))
	if err != nil {
		return err
	}
	if !sender.Shadow.VerifyUpdate(tx.Sender.Update, b.exec) {
		return errs.Mark(zk.ErrProofInvalid, errs.KindProofFailure)
	}
	if err := sender.Shadow.ApplyLastVerifiedUpdate(); err != nil {
		return classifyErr(err)
	}

	u, err := b.owned.Update(tx.Header.EncDestAccount, receiverCredit, true, b.exec)
	if err != nil {
		return classifyErr(err)
	}
	tx.Receiver = &ReceiverInfo{BankKey: b.publicKey, Update: u}
	return nil
}

// AdoptUpdate is what every bank other than the sender and receiver runs on
// seeing a published Transaction's two updates: verify each independently
// against the shadow copy of the bank that produced it, then apply. This is
// the same check ReceiveTransaction already performs for the sender's
// update; a third-party observer runs it for both halves.
func (b *Bank) AdoptUpdate(from ID, u *update.PvormUpdate) error {
	v, err := b.Remote(from)
	if err != nil {
		return err
	}
	if !v.Shadow.VerifyUpdate(u, b.exec) {
		return errs.Mark(zk.ErrProofInvalid, errs.KindProofFailure)
	}
	return classifyErr(v.Shadow.ApplyLastVerifiedUpdate())
}

// classifyErr marks a lower-layer sentinel error with the spec §7 error
// kind a caller needs to decide how to react, leaving errors it doesn't
// recognize (e.g. this package's own sentinels, already marked at the
// point they're returned) unchanged.
func classifyErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, oram.ErrAccountNotFound), errors.Is(err, oram.ErrNegativeBalance), errors.Is(err, oram.ErrAccountExists):
		return errs.Mark(err, errs.KindInputValidation)
	case errors.Is(err, oram.ErrCapacityExceeded), errors.Is(err, oram.ErrStashOverflow):
		return errs.Mark(err, errs.KindStashOverflow)
	case errors.Is(err, encrypt.ErrBalanceOutOfRange):
		return errs.Mark(err, errs.KindDiscreteLogNotInTable)
	case errors.Is(err, zk.ErrProofInvalid), errors.Is(err, zk.ErrRangeProofOutOfBounds):
		return errs.Mark(err, errs.KindProofFailure)
	case errors.Is(err, codec.ErrMalformedInput), errors.Is(err, codec.ErrInvalidPoint), errors.Is(err, codec.ErrVersionMismatch):
		return errs.Mark(err, errs.KindMalformedSerialization)
	default:
		return err
	}
}

// NowMs returns the current time in milliseconds since the Unix epoch, the
// clock GenerateHeader/SendTransaction/ReceiveTransaction's nowMs
// parameters expect - a thin wrapper so bank's own code has exactly one
// call to time.Now, easing substitution in tests.
func NowMs() uint64 {
	return uint64(time.Now().UnixMilli())
}
