package bank

import "golang.org/x/xerrors"

// Sentinel errors for the bank-level checks spec §7 attributes to
// generate_header/send_transaction/receive_transaction, distinct from the
// lower-level proof/ORAM/codec errors those operations also propagate.
var (
	ErrNegativeAmount       = xerrors.New("bank: transfer amount must be nonnegative")
	ErrUnknownCounterparty  = xerrors.New("bank: unknown counterparty bank")
	ErrWrongDestinationBank = xerrors.New("bank: transaction header names a different destination bank")
	ErrTransactionExpired   = xerrors.New("bank: transaction header timestamp outside the acceptance window")
	ErrSignatureInvalid     = xerrors.New("bank: transaction header signature does not verify")
	ErrReceiverAlreadySet   = xerrors.New("bank: transaction already has receiver info")
)
