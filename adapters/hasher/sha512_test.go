package hasher

import (
	"context"
	"strings"
	"testing"

	"github.com/satriahrh/cocoa-fruit/shagen/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	abcDigest   = "ddaf35a193617abacc417349ae20413112e6fa4e89a97ea20a9eeee64b55d39a2192992a274fc1a836ba3c23a3feebbd454d4423643ce80e2a9ac94fa54ca49f"
	emptyDigest = "cf83e1357eefb8bdf1542850d66d8007d620e4050b5715dc83f4a921d36ce9ce47d0d13c5d85f2b0ff8318d2877eec2f63b931bd47417a81a538327af927da3e"
)

func TestComputeDigestKnownVectors(t *testing.T) {
	t.Parallel()

	h := New()

	got, err := h.ComputeDigest(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, domain.Digest(abcDigest), got)

	got, err = h.ComputeDigest(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, domain.Digest(emptyDigest), got)
}

func TestComputeDigestShapeAndDeterminism(t *testing.T) {
	t.Parallel()

	h := New()
	inputs := []string{"a", "hello world", "  padded  ", "héllo wörld ✓", strings.Repeat("x", 10000), "\x00\x01"}

	for _, in := range inputs {
		first, err := h.ComputeDigest(context.Background(), in)
		require.NoError(t, err)
		assert.Len(t, first.String(), domain.DigestLength)
		assert.True(t, first.Valid(), "digest for %q is not lowercase hex", in)

		again, err := h.ComputeDigest(context.Background(), in)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestComputeDigestCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().ComputeDigest(ctx, "abc")
	assert.ErrorIs(t, err, domain.ErrComputation)
	assert.ErrorIs(t, err, context.Canceled)
}
