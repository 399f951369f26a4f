package context

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeriveKeygenContextIsDeterministic(t *testing.T) {
	a := DeriveKeygenContext(42)
	b := DeriveKeygenContext(42)
	require.Equal(t, a, b)
}

func TestDeriveKeygenContextDiffersPerCeremony(t *testing.T) {
	a := DeriveKeygenContext(1)
	b := DeriveKeygenContext(2)
	require.NotEqual(t, a, b)
}
