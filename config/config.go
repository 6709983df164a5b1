// Package config loads a bank process' deployment parameters from TOML:
// curve/hash choice, tree shape, the discrete-log table bound and gap, and
// the transaction timeout carried in every wire header (spec.md §6). Not a
// core PVORM concern - the core packages take a *group.Params built however
// the caller likes - but every real deployment needs a file format to
// build one from, the way the teacher's own bench driver takes its shape
// from command-line flags instead.
package config

import (
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/solidus-network/pvorm/errs"
	"github.com/solidus-network/pvorm/group"
)

// Config is the on-disk shape of a bank deployment's parameters.
type Config struct {
	// Group parameters (spec §4.1).
	VMax int64 `toml:"v_max"`
	Gap  int64 `toml:"dlog_gap"`

	// Tree shape (spec §4.6).
	TreeDepth  int `toml:"tree_depth"`
	BucketSize int `toml:"bucket_size"`
	StashSize  int `toml:"stash_size"`

	// TransactionTimeoutMs bounds how long a TransactionHeader's
	// timestamp_ms may trail now() before the bank facade rejects it
	// (spec §9, SPEC_FULL.md §4 Open Question 1).
	TransactionTimeoutMs uint64 `toml:"transaction_timeout_ms"`

	// ExecutorPoolSize is the bound handed to executor.NewPool; 0 means
	// unbounded.
	ExecutorPoolSize int `toml:"executor_pool_size"`

	// DataDir is where store keeps its badger database and snapshot/update
	// log files.
	DataDir string `toml:"data_dir"`
}

// Default matches group.DefaultOpts() plus a modest tree shape suitable for
// local development.
func Default() Config {
	opts := group.DefaultOpts()
	return Config{
		VMax:                 opts.VMax,
		Gap:                  opts.Gap,
		TreeDepth:            16,
		BucketSize:           4,
		StashSize:            32,
		TransactionTimeoutMs: 30_000,
		ExecutorPoolSize:     0,
		DataDir:              "./solidus-data",
	}
}

// Load reads and parses a TOML config file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errs.Mark(err, errs.KindConfiguration)
	}
	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errs.Mark(err, errs.KindConfiguration)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the loaded config is self-consistent before any PVORM
// component is built from it.
func (c Config) Validate() error {
	switch {
	case c.VMax <= 0:
		return errs.Mark(os.ErrInvalid, errs.KindConfiguration)
	case c.Gap <= 0:
		return errs.Mark(os.ErrInvalid, errs.KindConfiguration)
	case c.TreeDepth < 1:
		return errs.Mark(os.ErrInvalid, errs.KindConfiguration)
	case c.BucketSize < 1:
		return errs.Mark(os.ErrInvalid, errs.KindConfiguration)
	case c.StashSize < 1:
		return errs.Mark(os.ErrInvalid, errs.KindConfiguration)
	case c.DataDir == "":
		return errs.Mark(os.ErrInvalid, errs.KindConfiguration)
	}
	return nil
}

// GroupOpts extracts the group.Opts this config implies.
func (c Config) GroupOpts() group.Opts {
	return group.Opts{VMax: c.VMax, Gap: c.Gap}
}
