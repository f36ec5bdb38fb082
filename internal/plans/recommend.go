package plans

import (
	"errors"
	"fmt"
)

var (
	// ErrIncompleteAnswers means the wizard has not collected both the child
	// count and the duration yet.
	ErrIncompleteAnswers = errors.New("plans: answers are incomplete")
	// ErrInvalidDuration is a caller contract violation: only 3, 6 and 12 exist.
	ErrInvalidDuration = errors.New("plans: preferred duration must be 3, 6 or 12 months")
	// ErrInvalidChildren is a caller contract violation: negative child count.
	ErrInvalidChildren = errors.New("plans: number of children must be positive")
	// ErrNoFallbackPlan means nothing matched and the catalog has no fallback slot.
	ErrNoFallbackPlan = errors.New("plans: no matching plan and no fallback plan")
)

// FallbackIndex is the catalog position returned when no plan matches.
//
// The fallback ignores the requested quota and duration. It is kept as-is for
// compatibility and is pending product review.
const FallbackIndex = 1

// familyThreshold is the child count above which the larger quota applies.
const familyThreshold = 3

// Recommendation is a resolved plan plus the context the wizard shows with it.
type Recommendation struct {
	Plan         Plan   `json:"recommendedPlan"`
	Reasoning    string `json:"reasoning"`
	Alternatives []Plan `json:"alternativePlans"`
	Fallback     bool   `json:"fallback"`
}

// QuotaFor returns the student quota needed for the given number of children.
func QuotaFor(children int) int {
	if children > familyThreshold {
		return 6
	}
	return 3
}

// Recommend picks the first catalog plan with the quota and duration the answers
// call for, or the fallback plan when none matches.
func Recommend(answers Answers, catalog []Plan) (Plan, error) {
	rec, err := Resolve(answers, catalog)
	if err != nil {
		return Plan{}, err
	}
	return rec.Plan, nil
}

// Resolve performs the same selection as Recommend and also reports whether the
// fallback was used, why the plan was chosen and which same-quota plans remain.
func Resolve(answers Answers, catalog []Plan) (Recommendation, error) {
	if len(catalog) == 0 {
		return Recommendation{}, ErrEmptyCatalog
	}
	if answers.NumberOfChildren < 0 {
		return Recommendation{}, fmt.Errorf("%w: got %d", ErrInvalidChildren, answers.NumberOfChildren)
	}
	if answers.NumberOfChildren == 0 || answers.PreferredDuration == 0 {
		return Recommendation{}, ErrIncompleteAnswers
	}
	if !ValidDuration(answers.PreferredDuration) {
		return Recommendation{}, fmt.Errorf("%w: got %d", ErrInvalidDuration, answers.PreferredDuration)
	}

	quota := QuotaFor(answers.NumberOfChildren)
	duration := answers.PreferredDuration

	rec := Recommendation{}
	found := false
	for _, p := range catalog {
		if p.StudentQuota == quota && p.DurationMonths == duration {
			rec.Plan = p.clone()
			found = true
			break
		}
	}
	if !found {
		if len(catalog) <= FallbackIndex {
			return Recommendation{}, ErrNoFallbackPlan
		}
		rec.Plan = catalog[FallbackIndex].clone()
		rec.Fallback = true
	}

	rec.Alternatives = []Plan{}
	for _, p := range catalog {
		if p.StudentQuota == quota && p.ID != rec.Plan.ID {
			rec.Alternatives = append(rec.Alternatives, p.clone())
		}
	}
	rec.Reasoning = reasoning(answers, quota, rec)
	return rec, nil
}

func reasoning(answers Answers, quota int, rec Recommendation) string {
	children := "1 child"
	if answers.NumberOfChildren != 1 {
		children = fmt.Sprintf("%d children", answers.NumberOfChildren)
	}
	if rec.Fallback {
		return fmt.Sprintf("No plan covers %d student profiles for %d months, so we suggest %s.",
			quota, answers.PreferredDuration, rec.Plan.Name)
	}
	return fmt.Sprintf("%s covers up to %d student profiles for %d months, enough for %s.",
		rec.Plan.Name, rec.Plan.StudentQuota, rec.Plan.DurationMonths, children)
}
