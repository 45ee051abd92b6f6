package state

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
)

// newLocalEnv creates a new LocalEnv instance with default values
func newLocalEnv() *LocalEnv {
	return &LocalEnv{
		start: time.Now(),
	}
}

// LoadStylesheet reads custom stylesheet if configuration asks for one and
// stores it in the debug report.
func (e *LocalEnv) LoadStylesheet() error {
	if e.Cfg == nil || len(e.Cfg.Packager.StylesheetPath) == 0 {
		e.Stylesheet = nil
		return nil
	}

	data, err := os.ReadFile(e.Cfg.Packager.StylesheetPath)
	if err != nil {
		return fmt.Errorf("unable to read stylesheet: %w", err)
	}
	e.Stylesheet = data
	e.Rpt.Store("stylesheet.css", e.Cfg.Packager.StylesheetPath)
	if e.Log != nil {
		e.Log.Debug("Using custom stylesheet", zap.String("path", e.Cfg.Packager.StylesheetPath), zap.Int("size", len(data)))
	}
	return nil
}
