package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNilClient_DegradesGracefully(t *testing.T) {
	c := NewService(nil)
	ctx := context.Background()

	assert.False(t, c.IsAvailable())
	assert.NoError(t, c.Set(ctx, "k", "v", TTLUser))

	var dest string
	assert.ErrorIs(t, c.Get(ctx, "k", &dest), ErrMiss)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "user:ext:user_2abc", UserKey("user_2abc"))
}
