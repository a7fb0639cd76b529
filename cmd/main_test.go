package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sqliteEnv(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", ":memory:")
	t.Setenv("LOG_MODE", "test")
}

func TestSeedCommand(t *testing.T) {
	sqliteEnv(t)
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"seed", "--active", "2", "--inactive", "1", "--rand-seed", "3"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "seeded 3 learners")
}

func TestMigrateCommand(t *testing.T) {
	sqliteEnv(t)
	cmd := newRootCmd()
	cmd.SetArgs([]string{"migrate"})
	require.NoError(t, cmd.Execute())
}

func TestUnknownDriverFails(t *testing.T) {
	t.Setenv("DB_DRIVER", "oracle")
	t.Setenv("LOG_MODE", "test")
	cmd := newRootCmd()
	cmd.SetArgs([]string{"migrate"})
	require.Error(t, cmd.Execute())
}
