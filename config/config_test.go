package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultParametersAreSane(t *testing.T) {
	p := Default()
	require.Equal(t, SoftmaxStrict, p.SoftmaxMode)
	require.True(t, p.StrictDeterminism)
	require.Greater(t, p.MaxCells, 0)
	require.NotEmpty(t, p.WALPath)
	require.NotEmpty(t, p.MerkleTileStorePath)
}
