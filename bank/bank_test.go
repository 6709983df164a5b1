package bank

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/solidus-network/pvorm/encoram"
	"github.com/solidus-network/pvorm/executor"
	"github.com/solidus-network/pvorm/group"
)

const (
	testDepth      = 4
	testBucketSize = 4
	testStashSize  = 8
)

func testParams(t *testing.T) *group.Params {
	t.Helper()
	return group.Build(group.Opts{VMax: 1 << 16, Gap: 1 << 8})
}

func buildOwned(t *testing.T, p *group.Params, secretKey group.Scalar, accountKey group.Point, balance int64) *encoram.OwnedPvorm {
	t.Helper()
	owned, err := encoram.NewBuilder(p, secretKey, testDepth, testBucketSize, testStashSize).
		Insert(accountKey, balance).
		Build()
	require.NoError(t, err)
	return owned
}

func TestTransferEndToEnd(t *testing.T) {
	p := testParams(t)

	senderSecret := p.RandomScalar()
	receiverSecret := p.RandomScalar()
	sourceAccount := p.PointFromScalarMult(p.RandomScalar())
	destAccount := p.PointFromScalarMult(p.RandomScalar())

	senderOwned := buildOwned(t, p, senderSecret, sourceAccount, 100)
	receiverOwned := buildOwned(t, p, receiverSecret, destAccount, 10)

	senderBank := New(p, senderSecret, senderOwned, 60_000, executor.Inline, nil)
	receiverBank := New(p, receiverSecret, receiverOwned, 60_000, executor.Inline, nil)

	receiverBank.RegisterRemote(NewRemoteViewFromSnapshot(senderBank.PublicKey(), senderOwned.EncryptedSnapshot()))
	destView := NewRemoteView(p, testDepth, testBucketSize, testStashSize, receiverBank.PublicKey())

	now := NowMs()
	header, senderDebit, receiverCredit, err := senderBank.GenerateHeader("tx-1", now, destView, sourceAccount, destAccount, 30)
	require.NoError(t, err)

	tx, err := senderBank.SendTransaction(header, senderDebit, now)
	require.NoError(t, err)
	require.Nil(t, tx.Receiver)

	require.NoError(t, receiverBank.ReceiveTransaction(tx, receiverCredit, now))
	require.NotNil(t, tx.Receiver)

	senderBalance, ok := senderOwned.Balance(sourceAccount)
	require.True(t, ok)
	require.EqualValues(t, 70, senderBalance)

	receiverBalance, ok := receiverOwned.Balance(destAccount)
	require.True(t, ok)
	require.EqualValues(t, 40, receiverBalance)
}

func TestGenerateHeaderRejectsNegativeAmount(t *testing.T) {
	p := testParams(t)
	secretKey := p.RandomScalar()
	accountKey := p.PointFromScalarMult(p.RandomScalar())
	owned := buildOwned(t, p, secretKey, accountKey, 5)
	b := New(p, secretKey, owned, 60_000, executor.Inline, nil)

	destView := NewRemoteView(p, testDepth, testBucketSize, testStashSize, p.PointFromScalarMult(p.RandomScalar()))
	_, _, _, err := b.GenerateHeader("tx-2", NowMs(), destView, accountKey, accountKey, -1)
	require.ErrorIs(t, err, ErrNegativeAmount)
}

func TestReceiveTransactionRejectsWrongDestinationBank(t *testing.T) {
	p := testParams(t)

	senderSecret := p.RandomScalar()
	receiverSecret := p.RandomScalar()
	otherSecret := p.RandomScalar()
	sourceAccount := p.PointFromScalarMult(p.RandomScalar())
	destAccount := p.PointFromScalarMult(p.RandomScalar())

	senderOwned := buildOwned(t, p, senderSecret, sourceAccount, 100)
	receiverOwned := buildOwned(t, p, receiverSecret, destAccount, 0)
	otherOwned := buildOwned(t, p, otherSecret, destAccount, 0)

	senderBank := New(p, senderSecret, senderOwned, 60_000, executor.Inline, nil)
	otherBank := New(p, otherSecret, otherOwned, 60_000, executor.Inline, nil)
	otherBank.RegisterRemote(NewRemoteViewFromSnapshot(senderBank.PublicKey(), senderOwned.EncryptedSnapshot()))

	destView := NewRemoteView(p, testDepth, testBucketSize, testStashSize, receiverOwned.PublicKey())
	now := NowMs()
	header, senderDebit, receiverCredit, err := senderBank.GenerateHeader("tx-3", now, destView, sourceAccount, destAccount, 10)
	require.NoError(t, err)

	tx, err := senderBank.SendTransaction(header, senderDebit, now)
	require.NoError(t, err)

	err = otherBank.ReceiveTransaction(tx, receiverCredit, now)
	require.ErrorIs(t, err, ErrWrongDestinationBank)
}

func TestAdoptUpdateByThirdParty(t *testing.T) {
	p := testParams(t)

	senderSecret := p.RandomScalar()
	receiverSecret := p.RandomScalar()
	sourceAccount := p.PointFromScalarMult(p.RandomScalar())
	destAccount := p.PointFromScalarMult(p.RandomScalar())

	senderOwned := buildOwned(t, p, senderSecret, sourceAccount, 50)
	receiverOwned := buildOwned(t, p, receiverSecret, destAccount, 0)

	senderBank := New(p, senderSecret, senderOwned, 60_000, executor.Inline, nil)
	receiverBank := New(p, receiverSecret, receiverOwned, 60_000, executor.Inline, nil)
	receiverBank.RegisterRemote(NewRemoteViewFromSnapshot(senderBank.PublicKey(), senderOwned.EncryptedSnapshot()))

	observer := New(p, p.RandomScalar(), buildOwned(t, p, p.RandomScalar(), p.PointFromScalarMult(p.RandomScalar()), 0), 60_000, executor.Inline, nil)
	observer.RegisterRemote(NewRemoteViewFromSnapshot(senderBank.PublicKey(), senderOwned.EncryptedSnapshot()))

	destView := NewRemoteView(p, testDepth, testBucketSize, testStashSize, receiverBank.PublicKey())
	now := NowMs()
	header, senderDebit, receiverCredit, err := senderBank.GenerateHeader("tx-4", now, destView, sourceAccount, destAccount, 5)
	require.NoError(t, err)

	tx, err := senderBank.SendTransaction(header, senderDebit, now)
	require.NoError(t, err)
	require.NoError(t, receiverBank.ReceiveTransaction(tx, receiverCredit, now))

	require.NoError(t, observer.AdoptUpdate(senderBank.ID(), tx.Sender.Update))
}

func TestTransactionWireRoundTrip(t *testing.T) {
	p := testParams(t)

	senderSecret := p.RandomScalar()
	sourceAccount := p.PointFromScalarMult(p.RandomScalar())
	destAccount := p.PointFromScalarMult(p.RandomScalar())
	senderOwned := buildOwned(t, p, senderSecret, sourceAccount, 20)
	senderBank := New(p, senderSecret, senderOwned, 60_000, executor.Inline, nil)

	destView := NewRemoteView(p, testDepth, testBucketSize, testStashSize, p.PointFromScalarMult(p.RandomScalar()))
	now := NowMs()
	header, senderDebit, _, err := senderBank.GenerateHeader("tx-5", now, destView, sourceAccount, destAccount, 5)
	require.NoError(t, err)

	tx, err := senderBank.SendTransaction(header, senderDebit, now)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, tx.Write(&buf, 60_000))

	got, err := ReadTransaction(&buf, p.Suite, 60_000)
	require.NoError(t, err)
	require.Equal(t, tx.Header.TxID, got.Header.TxID)
	require.True(t, got.Sender.BankKey.Equal(tx.Sender.BankKey))
	require.Nil(t, got.Receiver)
}

func TestIDRoundTrip(t *testing.T) {
	p := testParams(t)
	key := p.PointFromScalarMult(p.RandomScalar())
	id := IDFromPublicKey(key)

	got, err := ParseID(id.String(), p.Suite)
	require.NoError(t, err)
	require.True(t, got.Equal(key))
}
