package errs

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func TestMarkAndKindRoundTrip(t *testing.T) {
	base := errors.New("boom")
	marked := Mark(base, KindProofFailure)
	require.ErrorIs(t, marked, base)
	require.Equal(t, KindProofFailure, Kind(marked))
}

func TestKindUnmarkedErrorIsUnknown(t *testing.T) {
	require.Equal(t, KindUnknown, Kind(errors.New("plain")))
}

func TestKindNilErrorIsUnknown(t *testing.T) {
	require.Equal(t, KindUnknown, Kind(nil))
}

func TestMarkNilReturnsNil(t *testing.T) {
	require.NoError(t, Mark(nil, KindProofFailure))
}

func TestMarkDistinguishesKinds(t *testing.T) {
	err := Mark(errors.New("x"), KindStashOverflow)
	require.NotEqual(t, KindInputValidation, Kind(err))
	require.Equal(t, KindStashOverflow, Kind(err))
}

func TestKindString(t *testing.T) {
	require.Equal(t, "stash overflow", KindStashOverflow.String())
	require.Equal(t, "unknown", KindUnknown.String())
}
