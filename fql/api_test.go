package fql

import (
	"github.com/cottand/fql/frontend/graph"
	"github.com/cottand/fql/frontend/types/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"strings"
	"testing"
)

func testError(t *testing.T, prog string, shouldContain ...string) {
	_, err := CheckProgram("test.fql", prog, graph.DefaultSettings())
	require.Error(t, err)

	errMsg := err.Error()
	for _, s := range shouldContain {
		assert.Contains(t, errMsg, s)
	}
	t.Log("error message:\n" + errMsg)
}

func TestErrorOffsetStartOfLine(t *testing.T) {
	prog := `package main

n = 1


x = n + "a"
`
	testError(t, prog, "main/test.fql:6:5:", "expected int but found string")
}

func TestErrorOffsetEOF(t *testing.T) {
	prog := "package main\n" + strings.Repeat("\n", 18) + "a = 1 +\n"
	testError(t, prog, "main/test.fql:21:1:", "expected expression but found end of file")
}

func TestPrettyErrors(t *testing.T) {
	settings := graph.DefaultSettings()
	settings.PrettyErrors = true
	_, err := CheckProgram("test.fql", "x = 1\ny = undefinedThing\n", settings)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "   2 | y = undefinedThing")
	assert.Contains(t, err.Error(), "^^^^^^^^^^^^^^")
}

func TestDisplayTypes(t *testing.T) {
	exports, err := CheckProgram("test.fql", "f = (a) => a\nn = [1, 2] |> count()\n", graph.DefaultSettings())
	require.NoError(t, err)
	assert.Equal(t, "f: (a: A) => A\nn: int\n", DisplayTypes(exports))

	encoded, err := wire.EncodeEnv(Bindings(exports))
	require.NoError(t, err)
	decoded, ok := wire.DecodeEnv(encoded)
	require.True(t, ok)
	assert.Equal(t, DisplayTypes(exports), wire.String(decoded))
}
