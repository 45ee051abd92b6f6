// Package common holds the few types every conversion phase has to agree on:
// step labels, the progress sink and the error taxonomy.
package common

import "fmt"

// Step is a conversion phase label.
type Step int

const (
	StepNone Step = iota
	StepParsingPDF
	StepAnalyzingContent
	StepCreatingEpub
	StepComplete
	StepFailed
)

var stepNames = [...]string{
	StepNone:             "NONE",
	StepParsingPDF:       "PARSING_PDF",
	StepAnalyzingContent: "ANALYZING_CONTENT",
	StepCreatingEpub:     "CREATING_EPUB",
	StepComplete:         "COMPLETE",
	StepFailed:           "FAILED",
}

var stepDescriptions = [...]string{
	StepNone:             "",
	StepParsingPDF:       "Extracting text from PDF",
	StepAnalyzingContent: "Analyzing content structure",
	StepCreatingEpub:     "Creating EPUB file",
	StepComplete:         "Conversion complete",
	StepFailed:           "Conversion failed",
}

func (s Step) String() string {
	if s < 0 || int(s) >= len(stepNames) {
		return fmt.Sprintf("Step(%d)", int(s))
	}
	return stepNames[s]
}

// Description returns human readable status label.
func (s Step) Description() string {
	if s < 0 || int(s) >= len(stepDescriptions) {
		return s.String()
	}
	return stepDescriptions[s]
}

// Terminal reports whether no further transitions are possible.
func (s Step) Terminal() bool {
	return s == StepComplete || s == StepFailed
}

// ParseStep converts label back to Step.
func ParseStep(name string) (Step, error) {
	for i, n := range stepNames {
		if n == name {
			return Step(i), nil
		}
	}
	return StepNone, fmt.Errorf("%s is not a valid Step", name)
}
