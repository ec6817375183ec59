package executor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestRegisterIdempotent covers invariant 5: N identical registrations
// leave exactly one entry in the pool.
func TestRegisterIdempotent(t *testing.T) {
	p := NewPool()
	defer p.Close()

	for i := 0; i < 3; i++ {
		require.NoError(t, p.Register(context.Background(), "e1", "127.0.0.1", 50051))
	}

	require.Len(t, p.clients, 1)
	_, ok := p.Get("e1")
	require.True(t, ok)
}

func TestGetUnknownExecutor(t *testing.T) {
	p := NewPool()
	defer p.Close()

	_, ok := p.Get("missing")
	require.False(t, ok)
}
