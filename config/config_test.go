package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezrec/maf/vm"
)

func TestDefault(t *testing.T) {
	assert := assert.New(t)

	cfg := Default()
	assert.Equal(vm.CODE_SIZE, cfg.Assembler.CodeSize)
	assert.Equal(0, cfg.Machine.Budget)
	assert.False(cfg.Assembler.Verbose)
	assert.False(cfg.Machine.Verbose)
	assert.NoError(cfg.Validate())

	cfg, err := Parse("")
	assert.NoError(err)
	assert.Equal(Default(), cfg)
}

func TestParse(t *testing.T) {
	assert := assert.New(t)

	cfg, err := Parse(`
[assembler]
code-size = 1024
verbose = true

[assembler.equates]
PORT = "80"
TARGET = "@main"

[machine]
budget = 5000
`)
	require.NoError(t, err)

	assert.Equal(1024, cfg.Assembler.CodeSize)
	assert.True(cfg.Assembler.Verbose)
	assert.Equal(map[string]string{"PORT": "80", "TARGET": "@main"}, cfg.Assembler.Equates)
	assert.Equal(5000, cfg.Machine.Budget)
	assert.False(cfg.Machine.Verbose)
}

func TestParseErrors(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name string
		data string
		err  error
	}){
		{"code-size zero", "[assembler]\ncode-size = 0\n", ErrCodeSize},
		{"code-size negative", "[assembler]\ncode-size = -1\n", ErrCodeSize},
		{"budget negative", "[machine]\nbudget = -1\n", ErrBudget},
	}

	for _, entry := range table {
		cfg, err := Parse(entry.data)
		assert.Nil(cfg, entry.name)
		assert.ErrorIs(err, entry.err, entry.name)
	}

	_, err := Parse("[machine]\nbudgt = 3\n")
	assert.ErrorContains(err, "machine.budgt")

	_, err = Parse("[machine\n")
	assert.Error(err)

	_, err = Parse("[machine]\nbudget = \"lots\"\n")
	assert.Error(err)
}

func TestLoad(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "maf.toml")
	require.NoError(t, os.WriteFile(path, []byte("[machine]\nbudget = 12\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(12, cfg.Machine.Budget)
	assert.Equal(vm.CODE_SIZE, cfg.Assembler.CodeSize)

	_, err = Load(filepath.Join(dir, "missing.toml"))
	assert.ErrorIs(err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("[assembler]\ncode-size = 0\n"), 0o644))
	_, err = Load(bad)
	assert.ErrorIs(err, ErrCodeSize)
	assert.ErrorContains(err, bad)
}
