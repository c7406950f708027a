package cmd

import (
	"bytes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"testing"
)

func writeSources(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, src := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	}
	return dir
}

func TestCheckReportsRegisteredErrors(t *testing.T) {
	dir := writeSources(t, map[string]string{
		"lib/lib.fql": "x = y\n",
		"app/app.fql": "a = 1\n",
	})
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	CheckCmd.SetOut(stdout)
	CheckCmd.SetErr(stderr)
	CheckCmd.SetArgs([]string{dir})

	err := CheckCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of")
	assert.Contains(t, stderr.String(), "package lib:")
	assert.Contains(t, stderr.String(), "undefined identifier y")
	assert.NotContains(t, stderr.String(), "package app:")
}

func TestTypesPrintsExports(t *testing.T) {
	dir := writeSources(t, map[string]string{
		"app/app.fql": "a = 1\nf = (v) => v\n",
	})
	stdout := &bytes.Buffer{}
	TypesCmd.SetOut(stdout)
	TypesCmd.SetErr(&bytes.Buffer{})
	TypesCmd.SetArgs([]string{dir, "app"})

	require.NoError(t, TypesCmd.Execute())
	assert.Equal(t, "a: int\nf: (v: A) => A\n", stdout.String())
}
