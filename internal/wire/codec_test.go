package wire_test

import (
	"testing"

	"code.hybscloud.com/distsat/internal/clause"
	"code.hybscloud.com/distsat/internal/wire"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	in := wire.Payload{
		Clauses: []*clause.Exchange{
			clause.New([]int32{1, -2, 3}, 2, 0),
			clause.New([]int32{-4}, 1, 0),
			clause.New([]int32{5, -6, 7, -8}, 3, 0),
		},
	}
	data := wire.Encode(in)

	out, err := wire.Decode(data, 7, false)
	require.NoError(t, err)
	require.Len(t, out.Clauses, len(in.Clauses))
	for i := range in.Clauses {
		require.True(t, in.Clauses[i].Equal(out.Clauses[i]))
		require.Equal(t, uint32(7), out.Clauses[i].From())
	}
	require.False(t, out.HasHops)
}

func TestEncodeDecodeRoundTripWithHops(t *testing.T) {
	in := wire.Payload{
		Clauses: []*clause.Exchange{clause.New([]int32{1, 2}, 2, 0)},
		Hops:    3,
		HasHops: true,
	}
	data := wire.Encode(in)

	out, err := wire.Decode(data, 0, true)
	require.NoError(t, err)
	require.True(t, out.HasHops)
	require.EqualValues(t, 3, out.Hops)
}

func TestEncodeEmptyPayload(t *testing.T) {
	data := wire.Encode(wire.Payload{})
	out, err := wire.Decode(data, 0, false)
	require.NoError(t, err)
	require.Empty(t, out.Clauses)
}

func TestDecodeRejectsTruncatedPayload(t *testing.T) {
	in := wire.Payload{Clauses: []*clause.Exchange{clause.New([]int32{1, 2, 3}, 2, 0)}}
	data := wire.Encode(in)
	_, err := wire.Decode(data[:len(data)-1], 0, false)
	require.Error(t, err)
}
