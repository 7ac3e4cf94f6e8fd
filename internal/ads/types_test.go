package ads

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRate(t *testing.T) {
	require.Zero(t, Rate(10, 5, 0))
	require.Zero(t, Rate(10, 5, -1))
	require.InDelta(t, 0.015, Rate(10, 5, 1000), 1e-9)
}

func TestContentItemURL(t *testing.T) {
	item := ContentItem{VideoID: "abc123"}
	require.Equal(t, "https://www.youtube.com/watch?v=abc123", item.URL())
}
