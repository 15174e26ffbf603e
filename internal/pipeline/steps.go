package pipeline

import (
	"fmt"
	"strings"
)

// Step is one stage of the pipeline.
type Step string

const (
	StepNormalize Step = "normalize"
	StepSpikes    Step = "spikes"
	StepSentiment Step = "sentiment"
	StepWeekly    Step = "weekly"
)

// allSteps is the execution order; later steps consume earlier outputs.
var allSteps = []Step{StepNormalize, StepSpikes, StepSentiment, StepWeekly}

var (
	DailySteps  = []Step{StepNormalize, StepSpikes}
	WeeklySteps = []Step{StepNormalize, StepSpikes, StepSentiment, StepWeekly}
)

// ParseStep parses a step name
func ParseStep(name string) (Step, error) {
	s := Step(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range allSteps {
		if s == known {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown step %q", name)
}

// orderSteps deduplicates steps and puts them in execution order
func orderSteps(steps []Step) ([]Step, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("no steps requested")
	}
	want := make(map[Step]bool, len(steps))
	for _, s := range steps {
		parsed, err := ParseStep(string(s))
		if err != nil {
			return nil, err
		}
		want[parsed] = true
	}
	ordered := make([]Step, 0, len(want))
	for _, s := range allSteps {
		if want[s] {
			ordered = append(ordered, s)
		}
	}
	return ordered, nil
}

// StepNames returns the step names as strings
func StepNames(steps []Step) []string {
	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = string(s)
	}
	return names
}
