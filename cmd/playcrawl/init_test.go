package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nao1215/playcrawl/internal/config"
)

func TestNewInitCmd(t *testing.T) {
	t.Parallel()

	cmd := NewInitCmd()
	assert.Equal(t, "init", cmd.Use)

	output := cmd.Flags().Lookup("output")
	require.NotNil(t, output)
	assert.Equal(t, "o", output.Shorthand)
	assert.Equal(t, config.DefaultConfigFile, output.DefValue)

	force := cmd.Flags().Lookup("force")
	require.NotNil(t, force)
	assert.Equal(t, "f", force.Shorthand)
}

func TestInitCmd(t *testing.T) {
	t.Parallel()

	t.Run("creates a loadable config file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "nested", ".playcrawl")
		stdout, _, err := executeCmd(t, "init", "-o", path)
		require.NoError(t, err)
		assert.Contains(t, stdout, "Created configuration file")

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

		file, err := config.LoadConfigFile(path)
		require.NoError(t, err)
		cfg := config.NewConfig()
		require.NoError(t, file.ApplyTo(cfg))
		assert.Equal(t, config.DefaultOutput, cfg.Output, "template only has commented values")
	})

	t.Run("refuses to overwrite without force", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".playcrawl")
		require.NoError(t, os.WriteFile(path, []byte("keep"), 0o600))

		_, _, err := executeCmd(t, "init", "-o", path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already exists")

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "keep", string(data))

		_, _, err = executeCmd(t, "init", "-o", path, "-f")
		require.NoError(t, err)
		data, err = os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "playcrawl configuration file")
	})
}
