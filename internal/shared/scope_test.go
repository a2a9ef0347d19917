package shared

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScopeFor(t *testing.T) {
	require.Equal(t, ScopeAllBranches, ScopeFor(""))
	require.True(t, ScopeFor("").IsAll())
	require.True(t, BranchScope("").IsAll())
	require.Equal(t, "", ScopeAllBranches.BranchID())

	scope := ScopeFor("br-1")
	require.False(t, scope.IsAll())
	require.Equal(t, "br-1", scope.BranchID())
}
