package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTTL_SetGetExpire(t *testing.T) {
	c := New(time.Minute)
	defer c.Close()
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }

	c.SetIfUnchanged("patient:1", []byte(`{"id":"1"}`), c.Generation())
	assert.Equal(t, []byte(`{"id":"1"}`), c.Get("patient:1"))
	assert.Nil(t, c.Get("patient:2"))

	c.now = func() time.Time { return base.Add(2 * time.Minute) }
	assert.Nil(t, c.Get("patient:1"))
}

func TestTTL_Delete(t *testing.T) {
	c := New(time.Minute)
	defer c.Close()
	c.SetIfUnchanged("patient:1", []byte("a"), c.Generation())
	c.SetIfUnchanged("other", []byte("c"), c.Generation())

	c.Delete("patient:1")
	assert.Nil(t, c.Get("patient:1"))
	assert.Equal(t, []byte("c"), c.Get("other"))
}

func TestTTL_SetIfUnchanged(t *testing.T) {
	c := New(time.Minute)
	defer c.Close()

	gen := c.Generation()
	assert.True(t, c.SetIfUnchanged("patient:1", []byte("v1"), gen))
	assert.Equal(t, []byte("v1"), c.Get("patient:1"))

	// leitura começa, escrita invalida, leitura tenta gravar o valor antigo
	gen = c.Generation()
	c.Delete("patient:1")
	assert.False(t, c.SetIfUnchanged("patient:1", []byte("stale"), gen))
	assert.Nil(t, c.Get("patient:1"))

	assert.True(t, c.SetIfUnchanged("patient:1", []byte("v2"), c.Generation()))
	assert.Equal(t, []byte("v2"), c.Get("patient:1"))
}

func TestTTL_NilSafe(t *testing.T) {
	var c *TTL
	assert.Zero(t, c.Generation())
	assert.False(t, c.SetIfUnchanged("k", []byte("v"), 0))
	assert.Nil(t, c.Get("k"))
	c.Delete("k")
}

func TestTTL_Disabled(t *testing.T) {
	c := New(0)
	defer c.Close()
	c.SetIfUnchanged("k", []byte("v"), c.Generation())
	assert.Nil(t, c.Get("k"))
	assert.False(t, c.SetIfUnchanged("k", []byte("v"), c.Generation()))
	c.Close()
}
