package sparsetile

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type cborFixture struct {
	Sum int
}

func TestCBORCodecRoundTrips(t *testing.T) {
	c := CBORCodec[cborFixture]{}
	data, err := c.Encode(&cborFixture{Sum: 42})
	require.NoError(t, err)

	got, err := c.Decode(data)
	require.NoError(t, err)
	require.Equal(t, 42, got.Sum)
}
