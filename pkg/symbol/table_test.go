package symbol_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kristofer/ember/pkg/symbol"
)

func TestInternIsStableAndDeduplicates(t *testing.T) {
	tbl := symbol.NewTable()
	a := tbl.Intern("+(_)")
	b := tbl.Intern("toString")
	c := tbl.Intern("+(_)")

	require.Equal(t, a, c)
	require.NotEqual(t, a, b)
	require.Equal(t, "+(_)", tbl.Name(a))
	require.Equal(t, 2, tbl.SymbolCount())
}

func TestLookupDoesNotIntern(t *testing.T) {
	tbl := symbol.NewTable()
	_, ok := tbl.Lookup("missing")
	require.False(t, ok)
	require.Equal(t, 0, tbl.SymbolCount())
}
