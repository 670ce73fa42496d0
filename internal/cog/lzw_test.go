package cog

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressTIFFLZWRoundTripsThroughDecoder(t *testing.T) {
	cases := [][]byte{
		nil,
		{0},
		{1, 2, 3, 4, 5},
		bytes.Repeat([]byte{7}, 1000),
		bytes.Repeat([]byte{1, 2, 3}, 2000),
	}
	for _, data := range cases {
		compressed := CompressTIFFLZW(data)
		got, err := decompressTIFFLZW(compressed)
		require.NoError(t, err)
		assert.Equal(t, data, got)
	}
}
