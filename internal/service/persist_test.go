package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allusionapp/allusion-server/internal/logger"
)

func TestPersister_RunsInOrder(t *testing.T) {
	p := NewPersister(logger.Discard().Logger)
	defer p.Close(context.Background())

	var mu sync.Mutex
	var got []int
	for i := range 20 {
		p.Submit("test", func(context.Context) error {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			return nil
		})
	}
	require.NoError(t, p.Flush(context.Background()))

	want := make([]int, 20)
	for i := range want {
		want[i] = i
	}
	assert.Equal(t, want, got)
}

func TestPersister_FailureDoesNotStopQueue(t *testing.T) {
	p := NewPersister(logger.Discard().Logger)
	defer p.Close(context.Background())

	ran := false
	p.Submit("failing", func(context.Context) error { return errors.New("disk full") })
	p.Submit("next", func(context.Context) error { ran = true; return nil })
	require.NoError(t, p.Flush(context.Background()))
	assert.True(t, ran)
}

func TestPersister_FlushHonoursContext(t *testing.T) {
	p := NewPersister(logger.Discard().Logger)
	release := make(chan struct{})
	p.Submit("slow", func(context.Context) error { <-release; return nil })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, p.Flush(ctx), context.DeadlineExceeded)

	close(release)
	require.NoError(t, p.Close(context.Background()))
}

func TestPersister_DropsAfterClose(t *testing.T) {
	p := NewPersister(logger.Discard().Logger)
	require.NoError(t, p.Close(context.Background()))
	require.NoError(t, p.Close(context.Background()))

	ran := false
	p.Submit("late", func(context.Context) error { ran = true; return nil })
	require.NoError(t, p.Flush(context.Background()))
	assert.False(t, ran)
}
