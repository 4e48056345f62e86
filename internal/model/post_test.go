package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPostQueryOffset(t *testing.T) {
	require.Equal(t, 0, PostQuery{Page: 1, Limit: 10}.Offset())
	require.Equal(t, 20, PostQuery{Page: 3, Limit: 10}.Offset())
	require.Equal(t, 4, PostQuery{Page: 5, Limit: 1}.Offset())
}

func TestPostQueryOffsetSaturates(t *testing.T) {
	require.Equal(t, math.MaxInt, PostQuery{Page: math.MaxInt / 5, Limit: 10}.Offset())
	require.Equal(t, math.MaxInt, PostQuery{Page: 3, Limit: math.MaxInt}.Offset())
	require.Equal(t, 0, PostQuery{Page: 1, Limit: math.MaxInt}.Offset())
	require.Equal(t, math.MaxInt-1, PostQuery{Page: math.MaxInt, Limit: 1}.Offset())
}

func TestPostPageTotalPages(t *testing.T) {
	cases := []struct{ total, limit, want int }{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{25, 1, 25},
		{5, 0, 0},
		{2, math.MaxInt, 1},
		{0, math.MaxInt, 0},
		{math.MaxInt, math.MaxInt, 1},
		{math.MaxInt, 2, math.MaxInt/2 + 1},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, PostPage{Total: tc.total}.TotalPages(tc.limit), "total=%d limit=%d", tc.total, tc.limit)
	}
}
