package plans

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
)

// Currency is the only currency plans are priced in.
const Currency = "AED"

// Durations and quotas a plan may carry.
var (
	Durations = []int{3, 6, 12}
	Quotas    = []int{3, 6}
)

// Plan is one purchasable subscription in the catalog.
type Plan struct {
	ID                 string          `yaml:"id"`
	Name               string          `yaml:"name"`
	Description        string          `yaml:"description"`
	DurationMonths     int             `yaml:"durationMonths"`
	StudentQuota       int             `yaml:"studentQuota"`
	Price              decimal.Decimal `yaml:"price"`
	PricePerMonth      decimal.Decimal `yaml:"pricePerMonth"`
	Features           []string        `yaml:"features"`
	Popular            bool            `yaml:"popular"`
	DiscountPercentage *int            `yaml:"discountPercentage"`
}

// Answers are the wizard preferences a recommendation is computed from.
// GradeLevel and LearningGoals are informational and do not affect selection.
type Answers struct {
	NumberOfChildren  int      `json:"numberOfChildren"`
	GradeLevel        string   `json:"gradeLevel,omitempty"`
	LearningGoals     []string `json:"learningGoals,omitempty"`
	PreferredDuration int      `json:"preferredDuration"`
}

// ValidDuration reports whether months is an offered subscription length.
func ValidDuration(months int) bool {
	return slices.Contains(Durations, months)
}

// ValidQuota reports whether quota is an offered student quota.
func ValidQuota(quota int) bool {
	return slices.Contains(Quotas, quota)
}

func (p Plan) clone() Plan {
	out := p
	out.Features = slices.Clone(p.Features)
	if p.DiscountPercentage != nil {
		d := *p.DiscountPercentage
		out.DiscountPercentage = &d
	}
	return out
}

// planJSON is the wire shape the web client renders.
type planJSON struct {
	ID                 string      `json:"id"`
	Name               string      `json:"name"`
	Description        string      `json:"description"`
	DurationMonths     int         `json:"durationMonths"`
	StudentQuota       int         `json:"studentQuota"`
	PriceAED           json.Number `json:"priceAED"`
	PricePerMonthAED   json.Number `json:"pricePerMonthAED"`
	Features           []string    `json:"features"`
	IsPopular          bool        `json:"isPopular,omitempty"`
	DiscountPercentage *int        `json:"discountPercentage,omitempty"`
}

// MarshalJSON renders prices as JSON numbers.
func (p Plan) MarshalJSON() ([]byte, error) {
	features := p.Features
	if features == nil {
		features = []string{}
	}
	return json.Marshal(planJSON{
		ID:                 p.ID,
		Name:               p.Name,
		Description:        p.Description,
		DurationMonths:     p.DurationMonths,
		StudentQuota:       p.StudentQuota,
		PriceAED:           json.Number(p.Price.String()),
		PricePerMonthAED:   json.Number(p.PricePerMonth.String()),
		Features:           features,
		IsPopular:          p.Popular,
		DiscountPercentage: p.DiscountPercentage,
	})
}

// UnmarshalJSON reads the wire shape produced by MarshalJSON.
func (p *Plan) UnmarshalJSON(data []byte) error {
	var raw planJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	price, err := decimal.NewFromString(raw.PriceAED.String())
	if err != nil {
		return fmt.Errorf("plans: priceAED: %w", err)
	}
	perMonth, err := decimal.NewFromString(raw.PricePerMonthAED.String())
	if err != nil {
		return fmt.Errorf("plans: pricePerMonthAED: %w", err)
	}
	*p = Plan{
		ID:                 raw.ID,
		Name:               raw.Name,
		Description:        raw.Description,
		DurationMonths:     raw.DurationMonths,
		StudentQuota:       raw.StudentQuota,
		Price:              price,
		PricePerMonth:      perMonth,
		Features:           raw.Features,
		Popular:            raw.IsPopular,
		DiscountPercentage: raw.DiscountPercentage,
	}
	return nil
}
