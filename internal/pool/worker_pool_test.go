package pool

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorkerPool(t *testing.T) {
	t.Run("执行全部任务", func(t *testing.T) {
		p := NewWorkerPool(2, 10, nil)
		p.Start(context.Background())

		var done atomic.Int32
		for i := 0; i < 10; i++ {
			p.Submit(func() {
				done.Add(1)
			})
		}
		p.Stop()

		assert.Equal(t, int32(10), done.Load())
	})

	t.Run("任务panic不影响其他任务", func(t *testing.T) {
		p := NewWorkerPool(1, 4, nil)
		p.Start(context.Background())

		var done atomic.Int32
		p.Submit(func() { panic("boom") })
		p.Submit(func() { done.Add(1) })
		p.Stop()

		assert.Equal(t, int32(1), done.Load())
	})

	t.Run("队列满时TrySubmit返回false", func(t *testing.T) {
		p := NewWorkerPool(1, 1, nil)
		// 未启动，任务不会被消费
		assert.True(t, p.TrySubmit(func() {}))
		assert.False(t, p.TrySubmit(func() {}))
	})
}
