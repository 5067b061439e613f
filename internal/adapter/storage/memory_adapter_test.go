package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryAdapter(t *testing.T) {
	adapter := NewMemoryAdapter()
	ctx := context.Background()

	_, ok, err := adapter.Read(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, adapter.Write(ctx, "k", "[]"))
	value, ok, err := adapter.Read(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", value)
	assert.NoError(t, adapter.Ping(ctx))
}
