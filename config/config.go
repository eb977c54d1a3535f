// Package config handles maf.toml configuration files.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/ezrec/maf/translate"
	"github.com/ezrec/maf/vm"
)

var f = translate.From

var (
	ErrCodeSize = errors.New(f("assembler code-size must be positive"))
	ErrBudget   = errors.New(f("machine budget must not be negative"))
)

// Config is a maf.toml configuration.
type Config struct {
	Assembler Assembler `toml:"assembler"`
	Machine   Machine   `toml:"machine"`
}

// Assembler configures program assembly.
type Assembler struct {
	CodeSize int               `toml:"code-size"`
	Verbose  bool              `toml:"verbose"`
	Equates  map[string]string `toml:"equates"`
}

// Machine configures program execution.
type Machine struct {
	Budget  int  `toml:"budget"`
	Verbose bool `toml:"verbose"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Assembler: Assembler{CodeSize: vm.CODE_SIZE},
	}
}

// Parse decodes a TOML document over the defaults.
func Parse(data string) (cfg *Config, err error) {
	cfg = Default()

	md, err := toml.Decode(data, cfg)
	if err != nil {
		return nil, err
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown key %v", undecoded[0])
	}

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}

	return
}

// Load parses a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	cfg, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks the configuration values.
func (cfg *Config) Validate() error {
	if cfg.Assembler.CodeSize <= 0 {
		return ErrCodeSize
	}
	if cfg.Machine.Budget < 0 {
		return ErrBudget
	}
	return nil
}
