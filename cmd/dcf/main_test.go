package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnsEnv(t *testing.T) {
	t.Setenv("COLUMNS", "132")
	assert.Equal(t, 132, columnsEnv())
	t.Setenv("COLUMNS", "wide")
	assert.Zero(t, columnsEnv())
	t.Setenv("COLUMNS", "-4")
	assert.Zero(t, columnsEnv())
}

func TestUseColor(t *testing.T) {
	on, err := useColor("always")
	require.NoError(t, err)
	assert.True(t, on)

	on, err = useColor("never")
	require.NoError(t, err)
	assert.False(t, on)

	t.Setenv("NO_COLOR", "1")
	on, err = useColor("auto")
	require.NoError(t, err)
	assert.False(t, on)

	_, err = useColor("sometimes")
	assert.Error(t, err)
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestAnalyzeRejectsBadFlags(t *testing.T) {
	_, err := execute(t, "analyze", "--discount", "5", "--growth", "5")
	assert.ErrorContains(t, err, "discount rate")

	_, err = execute(t, "analyze", "--format", "xml")
	assert.ErrorContains(t, err, "unknown format")

	_, err = execute(t, "analyze", "--columns", "bogus")
	assert.Error(t, err)

	_, err = execute(t, "analyze", "--rerun", "abc")
	assert.ErrorContains(t, err, "--rerun needs --archive")

	_, err = execute(t, "analyze", "a.csv", "b.csv")
	assert.ErrorContains(t, err, "at most 1")
}

func TestHistoryEmptyArchive(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	out, err := execute(t, "history", "--archive", db)
	require.NoError(t, err)
	assert.Contains(t, out, "RUN")

	_, err = execute(t, "history")
	assert.ErrorContains(t, err, "needs --archive")
}
