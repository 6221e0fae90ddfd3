// Package clog sets up apex/log for the d2 command line tools.
package clog

import (
	"io"

	"github.com/apex/log"
	"github.com/nagyist/d2/pkg/config"
)

// DefaultLevel keeps the CLI quiet unless something goes wrong.
const DefaultLevel = "warn"

// Setup routes the apex/log default logger through a Handler writing to w at the
// named level ("debug", "info", "warn", "error", "fatal").
func Setup(w io.Writer, level string, timestamps bool) (*Handler, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	h := NewHandler(w, timestamps)
	log.SetHandler(h)
	log.SetLevel(lvl)
	return h, nil
}

// SetupFromConfig is Setup with the level read from D2_LOG_LEVEL.
func SetupFromConfig(w io.Writer, c config.Configer) (*Handler, error) {
	return Setup(w, c.GetKeyWithDefault(config.LogLevelKey, DefaultLevel), false)
}
