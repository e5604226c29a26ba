package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCacheService(t *testing.T) {
	cs := NewCacheService(time.Hour)
	defer cs.Close()
	ctx := context.Background()

	cs.Set(ctx, "lingora:search:a", []byte("a"), time.Minute)
	cs.Set(ctx, "lingora:search:b", []byte("b"), time.Minute)
	cs.Set(ctx, "lingora:providers:c", []byte("c"), time.Minute)
	cs.Set(ctx, "lingora:stale", []byte("d"), -time.Second)

	v, ok := cs.Get(ctx, "lingora:search:a")
	assert.True(t, ok)
	assert.Equal(t, []byte("a"), v)

	_, ok = cs.Get(ctx, "lingora:stale")
	assert.False(t, ok)

	cs.InvalidateByPrefix(ctx, "lingora:search:")
	_, ok = cs.Get(ctx, "lingora:search:b")
	assert.False(t, ok)
	_, ok = cs.Get(ctx, "lingora:providers:c")
	assert.True(t, ok)
}
