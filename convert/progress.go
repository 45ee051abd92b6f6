package convert

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"

	"pdf2epub/common"
)

const barWidth = 30

// consoleProgress draws single redrawn progress line when output is a
// terminal, otherwise it logs step changes.
type consoleProgress struct {
	mu    sync.Mutex
	out   io.Writer
	log   *zap.Logger
	draw  bool
	step  common.Step
	shown bool
}

func newConsoleProgress(out io.Writer, draw bool, log *zap.Logger) *consoleProgress {
	return &consoleProgress{out: out, draw: draw, log: log, step: common.StepNone}
}

func (cp *consoleProgress) Report(percent float64, step common.Step) {
	cp.mu.Lock()
	defer cp.mu.Unlock()

	changed := step != cp.step
	cp.step = step

	if !cp.draw {
		if changed {
			cp.log.Info(step.Description(), zap.Stringer("step", step), zap.Float64("percent", percent))
		}
		return
	}

	filled := int(percent * barWidth / 100)
	filled = min(max(filled, 0), barWidth)
	fmt.Fprintf(cp.out, "\r[%s%s] %3.0f%% %-40s",
		strings.Repeat("=", filled), strings.Repeat(" ", barWidth-filled), percent, step.Description())
	cp.shown = true
	if step.Terminal() {
		cp.finish()
	}
}

// Close terminates progress line if it was drawn.
func (cp *consoleProgress) Close() {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	cp.finish()
}

func (cp *consoleProgress) finish() {
	if cp.shown {
		fmt.Fprintln(cp.out)
		cp.shown = false
	}
}
