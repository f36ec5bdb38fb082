package wizard

import (
	"errors"
	"fmt"
	"slices"
)

// Field names the Answers member a step fills in.
type Field string

const (
	FieldChildren   Field = "numberOfChildren"
	FieldGradeLevel Field = "gradeLevel"
	FieldGoals      Field = "learningGoals"
	FieldDuration   Field = "preferredDuration"
)

// ErrInvalidSteps marks a step list the flow cannot run.
var ErrInvalidSteps = errors.New("wizard: invalid steps")

// Option is one selectable answer. Value is an int for numeric fields and a
// string otherwise.
type Option struct {
	Value       any    `json:"value"`
	Label       string `json:"label"`
	Subtitle    string `json:"subtitle,omitempty"`
	Recommended bool   `json:"recommended,omitempty"`
}

// Step is one screen of the recommendation wizard.
type Step struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Field       Field    `json:"field"`
	MultiSelect bool     `json:"multiSelect,omitempty"`
	Options     []Option `json:"options"`
}

func (f Field) numeric() bool {
	return f == FieldChildren || f == FieldDuration
}

// DefaultSteps returns the four questions shown before a recommendation.
func DefaultSteps() []Step {
	return []Step{
		{
			ID:    1,
			Title: "How many children will use Zora?",
			Field: FieldChildren,
			Options: []Option{
				{Value: 1, Label: "1 Child"},
				{Value: 2, Label: "2 Children"},
				{Value: 3, Label: "3 Children"},
				{Value: 4, Label: "4+ Children"},
			},
		},
		{
			ID:    2,
			Title: "What's their grade level?",
			Field: FieldGradeLevel,
			Options: []Option{
				{Value: "kg-k4", Label: "KG - Grade 4"},
				{Value: "k5-k8", Label: "Grade 5 - Grade 8"},
				{Value: "k9-k12", Label: "Grade 9 - Grade 12"},
				{Value: "mixed", Label: "Multiple Grades"},
			},
		},
		{
			ID:          3,
			Title:       "What are your main goals?",
			Description: "Select all that apply",
			Field:       FieldGoals,
			MultiSelect: true,
			Options: []Option{
				{Value: "academic", Label: "Academic Excellence"},
				{Value: "engagement", Label: "More Engagement"},
				{Value: "personalized", Label: "Personalized Learning"},
				{Value: "future", Label: "Future-Ready Skills"},
			},
		},
		{
			ID:    4,
			Title: "How long do you want to commit?",
			Field: FieldDuration,
			Options: []Option{
				{Value: 3, Label: "3 Months", Subtitle: "Try it out"},
				{Value: 6, Label: "6 Months", Subtitle: "Best Value", Recommended: true},
				{Value: 12, Label: "1 Year", Subtitle: "Maximum Savings"},
			},
		},
	}
}

func validateSteps(steps []Step) error {
	if len(steps) == 0 {
		return fmt.Errorf("%w: no steps", ErrInvalidSteps)
	}
	seen := make(map[Field]bool, len(steps))
	for i, s := range steps {
		switch s.Field {
		case FieldChildren, FieldGradeLevel, FieldGoals, FieldDuration:
		default:
			return fmt.Errorf("%w: step %d: unknown field %q", ErrInvalidSteps, i, s.Field)
		}
		if seen[s.Field] {
			return fmt.Errorf("%w: step %d: field %q asked twice", ErrInvalidSteps, i, s.Field)
		}
		seen[s.Field] = true
		if s.MultiSelect != (s.Field == FieldGoals) {
			return fmt.Errorf("%w: step %d: only %q is multi-select", ErrInvalidSteps, i, FieldGoals)
		}
		if len(s.Options) == 0 {
			return fmt.Errorf("%w: step %d: no options", ErrInvalidSteps, i)
		}
		for _, o := range s.Options {
			_, isInt := o.Value.(int)
			_, isString := o.Value.(string)
			if (s.Field.numeric() && !isInt) || (!s.Field.numeric() && !isString) {
				return fmt.Errorf("%w: step %d: option %v has the wrong type", ErrInvalidSteps, i, o.Value)
			}
		}
	}
	return nil
}

func cloneSteps(steps []Step) []Step {
	out := make([]Step, len(steps))
	for i, s := range steps {
		out[i] = s
		out[i].Options = slices.Clone(s.Options)
	}
	return out
}
