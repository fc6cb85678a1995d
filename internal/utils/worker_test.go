package utils

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	tomb "gopkg.in/tomb.v2"
)

func TestWorkerPool_RunsEveryTask(t *testing.T) {
	tb, _ := tomb.WithContext(context.Background())
	pool := NewWorkerPool(3)
	assert.Equal(t, 3, pool.Size())

	var mu sync.Mutex
	seen := make(map[int]bool)
	pool.Setup(tb, func(_ *tomb.Tomb, task any) error {
		n, ok := task.(int)
		if !ok {
			return ErrImproperConversion
		}
		mu.Lock()
		seen[n] = true
		mu.Unlock()
		return nil
	})

	for i := 0; i < 50; i++ {
		assert.True(t, pool.AddTask(tb, i))
	}
	pool.Close()

	assert.NoError(t, tb.Wait())
	assert.Len(t, seen, 50)
}

func TestWorkerPool_ErrorKillsTomb(t *testing.T) {
	tb, _ := tomb.WithContext(context.Background())
	pool := NewWorkerPool(2)
	boom := errors.New("boom")

	pool.Setup(tb, func(_ *tomb.Tomb, task any) error {
		if task == "bad" {
			return boom
		}
		return nil
	})

	pool.AddTask(tb, "ok")
	pool.AddTask(tb, "bad")
	<-tb.Dying()
	assert.False(t, pool.AddTask(tb, "late"))
	pool.Close()

	assert.ErrorIs(t, tb.Wait(), boom)
}

func TestWorkerPool_ZeroSize(t *testing.T) {
	pool := NewWorkerPool(0)
	assert.Equal(t, 1, pool.Size())
}
