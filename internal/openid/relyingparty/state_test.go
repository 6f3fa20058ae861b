// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package relyingparty_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/holoid/internal/openid/relyingparty"
)

func TestMemoryStateStore(t *testing.T) {
	ctx := context.Background()
	store := relyingparty.NewMemoryStateStore()
	live := relyingparty.State{Identifier: alice, ReturnTo: endpoint, ExpiresAt: now.Add(time.Minute)}
	stale := relyingparty.State{Identifier: alice, ReturnTo: endpoint, ExpiresAt: now}

	require.NoError(t, store.Put(ctx, "live", live))
	require.NoError(t, store.Put(ctx, "stale", stale))

	got, err := store.Get(ctx, "live")
	require.NoError(t, err)
	assert.Equal(t, live, got)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, relyingparty.ErrStateNotFound)

	n, err := store.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	_, err = store.Get(ctx, "stale")
	assert.ErrorIs(t, err, relyingparty.ErrStateNotFound)

	require.NoError(t, store.Delete(ctx, "live"))
	require.NoError(t, store.Delete(ctx, "live"))
	assert.Zero(t, store.Len())
}
