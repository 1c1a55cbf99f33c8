package ristretto

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider(t *testing.T) {
	ctx := context.Background()
	p, err := New(DefaultConfig(1 << 20))
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close(ctx) })

	ok, err := p.Set(ctx, "reading:ns:x", []byte("entry"), 5, 0)
	require.NoError(t, err)
	require.True(t, ok)
	p.Wait()

	got, hit, err := p.Get(ctx, "reading:ns:x")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []byte("entry"), got)

	require.NoError(t, p.Del(ctx, "reading:ns:x"))
	p.Wait()
	_, hit, _ = p.Get(ctx, "reading:ns:x")
	assert.False(t, hit)
}

func TestBadConfig(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, ErrBadConfig)
}
