package dispatch_test

import (
	"context"
	"errors"
	"testing"
	"testing/synctest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/tether/internal/adapters/dispatch"
	"go.trai.ch/tether/internal/core/domain"
	"go.trai.ch/tether/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func TestLoop_RunsInOrder(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		defer cancel()

		loop := dispatch.NewLoop()
		var got []int
		for i := range 5 {
			loop.Dispatch(context.Background(), func(context.Context) { got = append(got, i) })
		}
		assert.Equal(t, 5, loop.Pending())

		done := make(chan error, 1)
		go func() { done <- loop.Run(ctx) }()

		require.NoError(t, loop.Sync(ctx))
		assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
		assert.Zero(t, loop.Pending())

		cancel()
		require.NoError(t, <-done)
	})
}

func TestLoop_NestedDispatchRunsInline(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		defer cancel()

		loop := dispatch.NewLoop()
		go func() { _ = loop.Run(ctx) }()

		var order []string
		loop.Dispatch(context.Background(), func(inner context.Context) {
			assert.True(t, loop.Owns(inner))
			order = append(order, "outer")
			loop.Dispatch(inner, func(context.Context) { order = append(order, "inline") })
			order = append(order, "after")
		})
		require.NoError(t, loop.Sync(ctx))

		assert.Equal(t, []string{"outer", "inline", "after"}, order)
		assert.False(t, loop.Owns(context.Background()))
	})
}

type valueKey struct{}

func TestLoop_PreservesContextValues(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		defer cancel()

		loop := dispatch.NewLoop()
		go func() { _ = loop.Run(ctx) }()

		session := domain.NewSession()
		var got domain.Session
		var tag any
		src := context.WithValue(domain.WithSession(context.Background(), session), valueKey{}, "tag")
		loop.Dispatch(src, func(c context.Context) {
			got = domain.SessionFrom(c)
			tag = c.Value(valueKey{})
		})
		require.NoError(t, loop.Sync(ctx))

		assert.Equal(t, session, got)
		assert.Equal(t, "tag", tag)
	})
}

func TestLoop_RecoversPanics(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctrl := gomock.NewController(t)
		log := mocks.NewMockLogger(ctrl)
		log.EXPECT().Error(gomock.Any()).Do(func(err error) {
			assert.True(t, errors.Is(err, domain.ErrDispatchPanic))
		})

		ctx, cancel := context.WithCancel(t.Context())
		defer cancel()

		loop := dispatch.NewLoop(dispatch.WithLogger(log))
		go func() { _ = loop.Run(ctx) }()

		ran := false
		loop.Dispatch(context.Background(), func(context.Context) { panic("boom") })
		loop.Dispatch(context.Background(), func(context.Context) { ran = true })
		require.NoError(t, loop.Sync(ctx))
		assert.True(t, ran, "a panicking continuation does not stop the loop")
	})
}

func TestLoop_SyncHonorsContext(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		loop := dispatch.NewLoop()
		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		require.ErrorIs(t, loop.Sync(ctx), context.Canceled)
	})
}

func TestImmediate(t *testing.T) {
	ran := false
	dispatch.Immediate{}.Dispatch(context.Background(), func(context.Context) { ran = true })
	assert.True(t, ran)
}
