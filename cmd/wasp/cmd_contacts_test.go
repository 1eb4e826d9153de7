package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckExitCode(t *testing.T) {
	dir := t.TempDir()

	exitCode = 0
	rootCmd.SetArgs([]string{"init", "--data-dir", dir})
	require.NoError(t, rootCmd.Execute())

	rootCmd.SetArgs([]string{"add", "alice", "--data-dir", dir})
	require.NoError(t, rootCmd.Execute())

	// Allowed sender: RunE succeeds and the exit status stays zero.
	rootCmd.SetArgs([]string{"check", "alice", "--data-dir", dir})
	require.NoError(t, rootCmd.Execute())
	assert.Zero(t, exitCode)

	// Denied sender: RunE still succeeds, so deferred closes and the
	// root teardown run; the status is carried out of band.
	rootCmd.SetArgs([]string{"check", "stranger", "--data-dir", dir})
	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, 1, exitCode)
}
