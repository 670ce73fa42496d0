package cache

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetOrLoadLoadsOnceThenCaches(t *testing.T) {
	var loads atomic.Int32
	c := New(0, func(id string) (any, error) {
		loads.Add(1)
		return "value-" + id, nil
	})

	v1, err := c.Get("a")
	require.NoError(t, err)
	require.Equal(t, "value-a", v1)

	v2, err := c.Get("a")
	require.NoError(t, err)
	require.Equal(t, "value-a", v2)
	require.Equal(t, int32(1), loads.Load())
}

func TestInvalidateForcesReload(t *testing.T) {
	var loads atomic.Int32
	c := New(0, func(id string) (any, error) {
		loads.Add(1)
		return loads.Load(), nil
	})

	v1, _ := c.Get("x")
	c.Invalidate("x")
	v2, _ := c.Get("x")

	require.NotEqual(t, v1, v2)
	require.Equal(t, int32(2), loads.Load())
}

func TestLoadErrorIsNotCached(t *testing.T) {
	var loads atomic.Int32
	c := New(0, func(id string) (any, error) {
		n := loads.Add(1)
		if n == 1 {
			return nil, errFixture{}
		}
		return "ok", nil
	})

	_, err := c.Get("y")
	require.Error(t, err)

	v, err := c.Get("y")
	require.NoError(t, err)
	require.Equal(t, "ok", v)
	require.Equal(t, int32(2), loads.Load())
}

type errFixture struct{}

func (errFixture) Error() string { return "load failed" }
