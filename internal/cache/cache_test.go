package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTTLCache(t *testing.T) {
	c := NewTTLCache(50 * time.Millisecond)
	defer c.Close()

	t.Run("命中", func(t *testing.T) {
		c.Set("domain", "indigobook.com")
		val, ok := c.Get("domain")
		assert.True(t, ok)
		assert.Equal(t, "indigobook.com", val)
	})

	t.Run("不存在", func(t *testing.T) {
		_, ok := c.Get("missing")
		assert.False(t, ok)
	})

	t.Run("过期", func(t *testing.T) {
		c.Set("ephemeral", "x")
		time.Sleep(80 * time.Millisecond)
		_, ok := c.Get("ephemeral")
		assert.False(t, ok)
	})

	t.Run("删除", func(t *testing.T) {
		c.Set("gone", "x")
		c.Delete("gone")
		_, ok := c.Get("gone")
		assert.False(t, ok)
	})
}
