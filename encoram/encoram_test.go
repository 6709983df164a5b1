package encoram

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/solidus-network/pvorm/encrypt"
	"github.com/solidus-network/pvorm/executor"
	"github.com/solidus-network/pvorm/group"
)

func testParams(t *testing.T) *group.Params {
	t.Helper()
	return group.Build(group.Opts{VMax: 1 << 16, Gap: 1 << 8})
}

func randomAccountKey(t *testing.T, p *group.Params) (group.Point, group.Scalar) {
	t.Helper()
	sk := p.RandomScalar()
	return p.PointFromScalarMult(sk), sk
}

func buildOwned(t *testing.T, p *group.Params, secretKey group.Scalar, n int) (*OwnedPvorm, []group.Point) {
	t.Helper()
	b := NewBuilder(p, secretKey, 4, 4, 8)
	accounts := make([]group.Point, n)
	for i := range accounts {
		acc, _ := randomAccountKey(t, p)
		accounts[i] = acc
		b.Insert(acc, int64(100*(i+1)))
	}
	owned, err := b.Build()
	require.NoError(t, err)
	return owned, accounts
}

func TestBuilderBuildMatchesPlaintextBalances(t *testing.T) {
	p := testParams(t)
	secretKey := p.RandomScalar()
	owned, accounts := buildOwned(t, p, secretKey, 5)

	for i, acc := range accounts {
		bal, ok := owned.Balance(acc)
		require.True(t, ok)
		require.EqualValues(t, 100*(i+1), bal)
	}

	snap := owned.EncryptedSnapshot()
	balances := snap.DecryptAll(secretKey)
	require.Len(t, balances, len(accounts))
}

func TestUpdateVerifiesAndApplies(t *testing.T) {
	p := testParams(t)
	secretKey := p.RandomScalar()
	owned, accounts := buildOwned(t, p, secretKey, 4)
	publicKey := owned.PublicKey()

	// The verifier must start from the owner's exact pre-update ciphertext
	// layout: take the snapshot before calling Update.
	verifier := owned.EncryptedSnapshot()

	acc := accounts[0]
	encAccountKey := encrypt.EncryptPoint(p, publicKey, acc)
	encDelta := encrypt.EncryptValue(p, publicKey, p.ScalarFromInt64(-50))

	upd, err := owned.Update(encAccountKey, encDelta, true, executor.Inline)
	require.NoError(t, err)
	require.True(t, upd.HasRange)
	require.NotEmpty(t, upd.PreSwaps)
	require.NotEmpty(t, upd.PostSwaps)

	newBalance, ok := owned.Balance(acc)
	require.True(t, ok)
	require.EqualValues(t, 50, newBalance)

	require.True(t, verifier.VerifyUpdate(upd, executor.Inline))
	require.NoError(t, verifier.ApplyLastVerifiedUpdate())

	balances := verifier.DecryptAll(secretKey)
	found := false
	for _, ab := range balances {
		if ab.AccountKey.Equal(acc) {
			found = true
			require.EqualValues(t, 50, ab.Balance)
		}
	}
	require.True(t, found)
}

func TestVerifyUpdateRejectsShapeMismatch(t *testing.T) {
	p := testParams(t)
	secretKey := p.RandomScalar()
	owned, accounts := buildOwned(t, p, secretKey, 2)
	publicKey := owned.PublicKey()

	encAccountKey := encrypt.EncryptPoint(p, publicKey, accounts[0])
	encDelta := encrypt.EncryptValue(p, publicKey, p.ScalarFromInt64(5))
	upd, err := owned.Update(encAccountKey, encDelta, false, executor.Inline)
	require.NoError(t, err)

	wrongShape := NewEncryptedPvorm(p, 5, 4, 8, publicKey)
	require.False(t, wrongShape.VerifyUpdate(upd, executor.Inline))

	otherKey := p.PointFromScalarMult(p.RandomScalar())
	wrongKey := NewEncryptedPvorm(p, 4, 4, 8, otherKey)
	require.False(t, wrongKey.VerifyUpdate(upd, executor.Inline))
}

func TestVerifyUpdateRejectsTamperedProof(t *testing.T) {
	p := testParams(t)
	secretKey := p.RandomScalar()
	owned, accounts := buildOwned(t, p, secretKey, 2)
	publicKey := owned.PublicKey()
	verifier := owned.EncryptedSnapshot()

	encAccountKey := encrypt.EncryptPoint(p, publicKey, accounts[0])
	encDelta := encrypt.EncryptValue(p, publicKey, p.ScalarFromInt64(5))
	upd, err := owned.Update(encAccountKey, encDelta, false, executor.Inline)
	require.NoError(t, err)

	// Tamper with the account-key proof's response scalar.
	tampered := *upd
	tamperedProof := *upd.AccountKeyProof
	tamperedProof.Sr = p.RandomScalar()
	tampered.AccountKeyProof = &tamperedProof

	require.False(t, verifier.VerifyUpdate(&tampered, executor.Inline))
}
