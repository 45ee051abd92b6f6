package common

// Progress receives conversion progress. Percent is in [0, 100].
type Progress interface {
	Report(percent float64, step Step)
}

// ProgressFunc adapts ordinary function to Progress.
type ProgressFunc func(percent float64, step Step)

func (f ProgressFunc) Report(percent float64, step Step) {
	f(percent, step)
}

type discard struct{}

func (discard) Report(float64, Step) {}

// Discard is a Progress which ignores everything.
var Discard Progress = discard{}
