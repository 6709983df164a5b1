package bank

import (
	"io"

	"github.com/solidus-network/pvorm/codec"
	"github.com/solidus-network/pvorm/encrypt"
	"github.com/solidus-network/pvorm/group"
	"github.com/solidus-network/pvorm/update"
	"github.com/solidus-network/pvorm/zk"
)

// TransactionHeader is the artifact a sending bank publishes before touching
// either ledger (SPEC_FULL.md §3, "Bank transaction flow" - spec.md's §2
// overview names the header's role but not its wire shape). Every
// ciphertext is freshly re-randomized by the sender rather than copied from
// whatever request carried them in, so the header itself never links back
// to an earlier, potentially less-guarded encoding of the same values.
type TransactionHeader struct {
	TxID        string
	TimestampMs uint64

	EncAmount        encrypt.Cipher
	EncSourceAccount encrypt.Cipher
	EncDestAccount   encrypt.Cipher
	DestBankKey      group.Point

	// AmountRange proves EncAmount (under the sender's key) encodes a value
	// in [0, 2^n), where n is the bit length of VMax.
	AmountRange *zk.MaxwellRangeProof
	// SameKeyReenc proves EncAmount and the ciphertext the sender actually
	// feeds its own ledger update (negated) encode the same value, both
	// under the sender's key.
	SameKeyReenc *zk.PlaintextEqProof
	// CrossKeyReenc proves that same sender-key ciphertext and the
	// ciphertext the receiver will feed its own ledger update encode the
	// same value, across the sender's and the destination bank's keys.
	CrossKeyReenc *zk.PlaintextEqDisKeyProof

	Sig *zk.SchnorrSignature
}

// writeBody serializes every field but Sig - the exact bytes Sign/Verify
// are computed over.
func (h *TransactionHeader) writeBody(w io.Writer) error {
	if err := codec.WriteString(w, h.TxID); err != nil {
		return err
	}
	if err := codec.WriteUint64(w, h.TimestampMs); err != nil {
		return err
	}
	if err := codec.WritePair(w, h.EncAmount, codec.Compressed); err != nil {
		return err
	}
	if err := codec.WritePair(w, h.EncSourceAccount, codec.Compressed); err != nil {
		return err
	}
	if err := codec.WritePair(w, h.EncDestAccount, codec.Compressed); err != nil {
		return err
	}
	if err := codec.WritePoint(w, h.DestBankKey, codec.Compressed); err != nil {
		return err
	}
	if err := h.AmountRange.Write(w); err != nil {
		return err
	}
	if err := h.SameKeyReenc.Write(w); err != nil {
		return err
	}
	return h.CrossKeyReenc.Write(w)
}

// signingBlobs renders h's body as the single blob zk.Sign/Verify bind the
// signature to.
func (h *TransactionHeader) signingBlobs() ([]byte, error) {
	var buf counterBuffer
	if err := h.writeBody(&buf); err != nil {
		return nil, err
	}
	return buf.bytes, nil
}

// counterBuffer is a minimal growable byte sink, avoiding an import of
// bytes.Buffer purely for Write.
type counterBuffer struct{ bytes []byte }

func (b *counterBuffer) Write(p []byte) (int, error) {
	b.bytes = append(b.bytes, p...)
	return len(p), nil
}

// Write serializes the header, body then signature.
func (h *TransactionHeader) Write(w io.Writer) error {
	if err := h.writeBody(w); err != nil {
		return err
	}
	return h.Sig.Write(w)
}

// ReadTransactionHeader reads a header written by Write.
func ReadTransactionHeader(r io.Reader, suite group.Suite) (*TransactionHeader, error) {
	h := &TransactionHeader{}
	var err error
	if h.TxID, err = codec.ReadString(r); err != nil {
		return nil, err
	}
	if err := codec.ReadUint64(r, &h.TimestampMs); err != nil {
		return nil, err
	}
	if h.EncAmount, err = codec.ReadPair(r, suite, codec.Compressed); err != nil {
		return nil, err
	}
	if h.EncSourceAccount, err = codec.ReadPair(r, suite, codec.Compressed); err != nil {
		return nil, err
	}
	if h.EncDestAccount, err = codec.ReadPair(r, suite, codec.Compressed); err != nil {
		return nil, err
	}
	if h.DestBankKey, err = codec.ReadPoint(r, suite, codec.Compressed); err != nil {
		return nil, err
	}
	if h.AmountRange, err = zk.ReadMaxwellRangeProof(r, suite); err != nil {
		return nil, err
	}
	if h.SameKeyReenc, err = zk.ReadPlaintextEqProof(r, suite); err != nil {
		return nil, err
	}
	if h.CrossKeyReenc, err = zk.ReadPlaintextEqDisKeyProof(r, suite); err != nil {
		return nil, err
	}
	if h.Sig, err = zk.ReadSchnorrSignature(r, suite); err != nil {
		return nil, err
	}
	return h, nil
}

// SenderInfo is the sending bank's half of a processed Transaction: its key
// (so a verifier can tell which side of header's two accounts it belongs
// to) and the PvormUpdate its own OwnedPvorm produced.
type SenderInfo struct {
	BankKey group.Point
	Update  *update.PvormUpdate
}

func (s *SenderInfo) Write(w io.Writer, timeoutMs uint64) error {
	if err := codec.DefaultHeader(timeoutMs).Write(w); err != nil {
		return err
	}
	if err := codec.WritePoint(w, s.BankKey, codec.Compressed); err != nil {
		return err
	}
	return s.Update.Write(w, timeoutMs)
}

func ReadSenderInfo(r io.Reader, suite group.Suite, timeoutMs uint64) (*SenderInfo, error) {
	if _, err := codec.ReadHeader(r, codec.DefaultHeader(timeoutMs)); err != nil {
		return nil, err
	}
	bankKey, err := codec.ReadPoint(r, suite, codec.Compressed)
	if err != nil {
		return nil, err
	}
	u, err := update.ReadPvormUpdate(r, suite, timeoutMs)
	if err != nil {
		return nil, err
	}
	return &SenderInfo{BankKey: bankKey, Update: u}, nil
}

// ReceiverInfo is the receiving bank's half, filled in once it has verified
// the sender's half and credited its own ledger.
type ReceiverInfo struct {
	BankKey group.Point
	Update  *update.PvormUpdate
}

func (r *ReceiverInfo) Write(w io.Writer, timeoutMs uint64) error {
	if err := codec.DefaultHeader(timeoutMs).Write(w); err != nil {
		return err
	}
	if err := codec.WritePoint(w, r.BankKey, codec.Compressed); err != nil {
		return err
	}
	return r.Update.Write(w, timeoutMs)
}

func ReadReceiverInfo(r io.Reader, suite group.Suite, timeoutMs uint64) (*ReceiverInfo, error) {
	if _, err := codec.ReadHeader(r, codec.DefaultHeader(timeoutMs)); err != nil {
		return nil, err
	}
	bankKey, err := codec.ReadPoint(r, suite, codec.Compressed)
	if err != nil {
		return nil, err
	}
	u, err := update.ReadPvormUpdate(r, suite, timeoutMs)
	if err != nil {
		return nil, err
	}
	return &ReceiverInfo{BankKey: bankKey, Update: u}, nil
}

// Transaction bundles a header with both banks' processed halves, the unit
// every other bank in the network receives to independently verify and
// adopt (spec §2's "every other bank verifies each update independently").
// ReceiverInfo is nil until ReceiveTransaction fills it in.
type Transaction struct {
	Header   *TransactionHeader
	Sender   *SenderInfo
	Receiver *ReceiverInfo
}

// Write serializes the transaction behind a codec.Header (spec §6): every
// other bank in the network ingests this as the unit it independently
// verifies, so it carries the header every ledger artifact must. timeoutMs
// is the deployment's configured transaction timeout, folded into the
// header.
func (t *Transaction) Write(w io.Writer, timeoutMs uint64) error {
	if err := codec.DefaultHeader(timeoutMs).Write(w); err != nil {
		return err
	}
	if err := t.Header.Write(w); err != nil {
		return err
	}
	if err := t.Sender.Write(w, timeoutMs); err != nil {
		return err
	}
	hasReceiver := t.Receiver != nil
	if err := codec.WriteBool(w, hasReceiver); err != nil {
		return err
	}
	if hasReceiver {
		return t.Receiver.Write(w, timeoutMs)
	}
	return nil
}

// ReadTransaction reads a transaction written by Write, rejecting it
// outright if its header doesn't match this deployment's (version, curve,
// hash, transaction timeout) tuple.
func ReadTransaction(r io.Reader, suite group.Suite, timeoutMs uint64) (*Transaction, error) {
	if _, err := codec.ReadHeader(r, codec.DefaultHeader(timeoutMs)); err != nil {
		return nil, err
	}
	header, err := ReadTransactionHeader(r, suite)
	if err != nil {
		return nil, err
	}
	sender, err := ReadSenderInfo(r, suite, timeoutMs)
	if err != nil {
		return nil, err
	}
	hasReceiver, err := codec.ReadBool(r)
	if err != nil {
		return nil, err
	}
	tx := &Transaction{Header: header, Sender: sender}
	if hasReceiver {
		tx.Receiver, err = ReadReceiverInfo(r, suite, timeoutMs)
		if err != nil {
			return nil, err
		}
	}
	return tx, nil
}
