package wizard

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/zora-edu/zora-api/internal/plans"
)

var (
	ErrUnknownOption = errors.New("wizard: value is not an option of the current step")
	ErrCannotProceed = errors.New("wizard: current step has no answer")
	ErrFlowComplete  = errors.New("wizard: flow is already complete")
	ErrIncomplete    = errors.New("wizard: flow is not complete")
)

// State is the coarse position of a Flow.
type State int

const (
	StateCollecting State = iota
	StateComplete
)

func (s State) String() string {
	if s == StateComplete {
		return "complete"
	}
	return "collecting"
}

// Flow accumulates wizard answers one step at a time. It is either collecting
// (at a step index with partial answers) or complete. A Flow is not safe for
// concurrent use.
type Flow struct {
	steps    []Step
	index    int
	complete bool
	answers  plans.Answers
	answered map[Field]bool
}

// NewFlow starts a flow at the first step.
func NewFlow(steps []Step) (*Flow, error) {
	if err := validateSteps(steps); err != nil {
		return nil, err
	}
	f := &Flow{steps: cloneSteps(steps)}
	f.Reset()
	return f, nil
}

// Reset clears all answers and returns to the first step.
func (f *Flow) Reset() {
	f.index = 0
	f.complete = false
	f.answers = plans.Answers{LearningGoals: []string{}}
	f.answered = make(map[Field]bool, len(f.steps))
}

func (f *Flow) State() State {
	if f.complete {
		return StateComplete
	}
	return StateCollecting
}

// StepIndex is the zero-based position of the current step.
func (f *Flow) StepIndex() int { return f.index }

// Current returns the step awaiting an answer; false once complete.
func (f *Flow) Current() (Step, bool) {
	if f.complete {
		return Step{}, false
	}
	return f.steps[f.index], true
}

// Answers returns a copy of what has been collected so far.
func (f *Flow) Answers() plans.Answers {
	out := f.answers
	out.LearningGoals = slices.Clone(f.answers.LearningGoals)
	return out
}

// Result returns the collected answers once the flow is complete.
func (f *Flow) Result() (plans.Answers, error) {
	if !f.complete {
		return plans.Answers{}, ErrIncomplete
	}
	return f.Answers(), nil
}

// CanProceed reports whether the current step has an answer.
func (f *Flow) CanProceed() bool {
	if f.complete {
		return false
	}
	step := f.steps[f.index]
	if step.MultiSelect {
		return len(f.answers.LearningGoals) > 0
	}
	return f.answered[step.Field]
}

// Answer records value for the current step. Single-select steps store the
// value and advance; the last one completes the flow. Multi-select steps
// toggle the value and stay put.
func (f *Flow) Answer(value any) error {
	if f.complete {
		return ErrFlowComplete
	}
	step := f.steps[f.index]
	opt, ok := lookup(step, value)
	if !ok {
		return fmt.Errorf("%w: %s=%v", ErrUnknownOption, step.Field, value)
	}

	if step.MultiSelect {
		goal := opt.Value.(string)
		if i := slices.Index(f.answers.LearningGoals, goal); i >= 0 {
			f.answers.LearningGoals = slices.Delete(f.answers.LearningGoals, i, i+1)
		} else {
			f.answers.LearningGoals = append(f.answers.LearningGoals, goal)
		}
		return nil
	}

	switch step.Field {
	case FieldChildren:
		f.answers.NumberOfChildren = opt.Value.(int)
	case FieldDuration:
		f.answers.PreferredDuration = opt.Value.(int)
	case FieldGradeLevel:
		f.answers.GradeLevel = opt.Value.(string)
	}
	f.answered[step.Field] = true
	f.advance()
	return nil
}

// Next moves past a step that already has an answer, such as the
// multi-select goals step or a step revisited with Back.
func (f *Flow) Next() error {
	if f.complete {
		return ErrFlowComplete
	}
	if !f.CanProceed() {
		return ErrCannotProceed
	}
	f.advance()
	return nil
}

// Back moves to the previous step, or from complete to the last step. It
// reports false when already at the first step.
func (f *Flow) Back() bool {
	if f.complete {
		f.complete = false
		f.index = len(f.steps) - 1
		return true
	}
	if f.index == 0 {
		return false
	}
	f.index--
	return true
}

func (f *Flow) advance() {
	if f.index < len(f.steps)-1 {
		f.index++
		return
	}
	f.complete = true
}

func lookup(step Step, value any) (Option, bool) {
	for _, o := range step.Options {
		if step.Field.numeric() {
			n, ok := toInt(value)
			if ok && n == o.Value.(int) {
				return o, true
			}
			continue
		}
		if s, ok := value.(string); ok && s == o.Value.(string) {
			return o, true
		}
	}
	return Option{}, false
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	}
	return 0, false
}

// Replay feeds a submitted answer set through a fresh flow over steps, so
// only answers the wizard itself could have produced are accepted.
func Replay(steps []Step, submitted plans.Answers) (plans.Answers, error) {
	f, err := NewFlow(steps)
	if err != nil {
		return plans.Answers{}, err
	}
	for f.State() == StateCollecting {
		step, _ := f.Current()
		var stepErr error
		switch step.Field {
		case FieldChildren:
			stepErr = f.Answer(submitted.NumberOfChildren)
		case FieldGradeLevel:
			stepErr = f.Answer(submitted.GradeLevel)
		case FieldDuration:
			stepErr = f.Answer(submitted.PreferredDuration)
		case FieldGoals:
			seen := make(map[string]bool, len(submitted.LearningGoals))
			for _, goal := range submitted.LearningGoals {
				if seen[goal] {
					continue
				}
				seen[goal] = true
				if stepErr = f.Answer(goal); stepErr != nil {
					break
				}
			}
			if stepErr == nil {
				stepErr = f.Next()
			}
		}
		if stepErr != nil {
			return plans.Answers{}, fmt.Errorf("wizard: %s: %w", step.Field, stepErr)
		}
	}
	return f.Result()
}
