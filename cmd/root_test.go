package cmd

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRootCommandWiring(t *testing.T) {
	root := newRootCmd()

	crawl, _, err := root.Find([]string{"crawl"})
	require.NoError(t, err)
	require.Equal(t, "crawl", crawl.Name())

	flag := root.PersistentFlags().Lookup("config")
	require.NotNil(t, flag)
}

func TestServeMetricsDisabled(t *testing.T) {
	stop := serveMetrics(0, zap.NewNop())
	stop() // must be a safe no-op
}
