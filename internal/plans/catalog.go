package plans

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrEmptyCatalog means there is nothing to recommend, not even a fallback.
	ErrEmptyCatalog = errors.New("plans: catalog is empty")
	// ErrInvalidCatalog marks a catalog entry that breaks the plan invariants.
	ErrInvalidCatalog = errors.New("plans: invalid catalog")
	// ErrPlanNotFound is returned when a plan id is not in the catalog.
	ErrPlanNotFound = errors.New("plans: plan not found")
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// Catalog is the ordered, read-only list of purchasable plans. Order matters:
// ties and the fallback are resolved by position.
type Catalog struct {
	plans []Plan
}

type catalogFile struct {
	Plans []Plan `yaml:"plans"`
}

// NewCatalog checks every plan and freezes the list.
func NewCatalog(plans []Plan) (*Catalog, error) {
	if len(plans) == 0 {
		return nil, ErrEmptyCatalog
	}

	seen := make(map[string]struct{}, len(plans))
	frozen := make([]Plan, 0, len(plans))
	for i, p := range plans {
		if strings.TrimSpace(p.ID) == "" {
			return nil, fmt.Errorf("%w: plan #%d has no id", ErrInvalidCatalog, i)
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate plan id %q", ErrInvalidCatalog, p.ID)
		}
		seen[p.ID] = struct{}{}
		if !ValidDuration(p.DurationMonths) {
			return nil, fmt.Errorf("%w: plan %q: duration %d not in %v", ErrInvalidCatalog, p.ID, p.DurationMonths, Durations)
		}
		if !ValidQuota(p.StudentQuota) {
			return nil, fmt.Errorf("%w: plan %q: student quota %d not in %v", ErrInvalidCatalog, p.ID, p.StudentQuota, Quotas)
		}
		if p.Price.IsNegative() || p.PricePerMonth.IsNegative() {
			return nil, fmt.Errorf("%w: plan %q: negative price", ErrInvalidCatalog, p.ID)
		}
		if d := p.DiscountPercentage; d != nil && (*d < 0 || *d > 100) {
			return nil, fmt.Errorf("%w: plan %q: discount %d%% out of range", ErrInvalidCatalog, p.ID, *d)
		}
		frozen = append(frozen, p.clone())
	}
	return &Catalog{plans: frozen}, nil
}

// ParseCatalog decodes a YAML catalog document.
func ParseCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	return NewCatalog(file.Plans)
}

// LoadCatalog reads the catalog at path, or the built-in catalog when path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return ParseCatalog(defaultCatalogYAML)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("plans: read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultCatalogYAML)
	if err != nil {
		panic(err)
	}
	return c
}

// Plans returns a copy of the catalog in declaration order.
func (c *Catalog) Plans() []Plan {
	out := make([]Plan, len(c.plans))
	for i, p := range c.plans {
		out[i] = p.clone()
	}
	return out
}

// Len returns the number of plans.
func (c *Catalog) Len() int { return len(c.plans) }

// Find returns the plan with the given id.
func (c *Catalog) Find(id string) (Plan, error) {
	for _, p := range c.plans {
		if p.ID == id {
			return p.clone(), nil
		}
	}
	return Plan{}, ErrPlanNotFound
}

// Filter returns the plans matching duration and quota; zero means "any".
func (c *Catalog) Filter(duration, quota int) []Plan {
	return Filter(c.plans, duration, quota)
}

// Filter returns the plans in catalog matching duration and quota, in order.
// Zero matches any value.
func Filter(catalog []Plan, duration, quota int) []Plan {
	out := make([]Plan, 0, len(catalog))
	for _, p := range catalog {
		if duration != 0 && p.DurationMonths != duration {
			continue
		}
		if quota != 0 && p.StudentQuota != quota {
			continue
		}
		out = append(out, p.clone())
	}
	return out
}

// ForQuota returns every plan sized for quota students.
func ForQuota(catalog []Plan, quota int) []Plan {
	return Filter(catalog, 0, quota)
}

// Recommend resolves answers against this catalog.
func (c *Catalog) Recommend(answers Answers) (Plan, error) {
	return Recommend(answers, c.plans)
}

// Resolve is Recommend with the reasoning and alternatives attached.
func (c *Catalog) Resolve(answers Answers) (Recommendation, error) {
	return Resolve(answers, c.plans)
}
