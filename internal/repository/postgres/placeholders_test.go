package postgres

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInClause_Empty(t *testing.T) {
	clause, args := InClause(1, nil)
	require.Equal(t, "", clause)
	require.Nil(t, args)
}

func TestInClause_SingleFromOne(t *testing.T) {
	clause, args := InClause(1, []string{"2025-01-01"})
	require.Equal(t, "$1", clause)
	require.Equal(t, []any{"2025-01-01"}, args)
}

func TestInClause_OffsetStart(t *testing.T) {
	clause, args := InClause(2, []string{"a", "b", "c"})
	require.Equal(t, "$2,$3,$4", clause)
	require.Equal(t, []any{"a", "b", "c"}, args)
}
