// Package logging builds zap.SugaredLogger instances for the bank facade
// and the cmd/solidus-bankd driver; it holds no package-level logger. Library packages (group, encrypt,
// oram, encoram, zk, update) never log - logging only exists at the
// collaborator layer spec.md §1 places outside the core, mirroring the
// teacher's own split between silent library code and a logging CLI driver.
package logging

import (
	"go.uber.org/zap"
)

// Level selects which zap config New builds from, and with it the
// logger's verbosity and output style.
type Level int

const (
	LevelProduction Level = iota
	LevelDevelopment
)

// New builds a *zap.SugaredLogger for the given level: LevelDevelopment
// gets human-readable console output and debug verbosity (for a developer
// running solidus-bankd locally); LevelProduction gets structured JSON at
// info level and above (for a deployed bank process).
func New(level Level) (*zap.SugaredLogger, error) {
	var cfg zap.Config
	switch level {
	case LevelDevelopment:
		cfg = zap.NewDevelopmentConfig()
	default:
		cfg = zap.NewProductionConfig()
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

// Nop returns a logger that discards everything, for tests and for code
// paths that haven't been handed a real logger yet.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
