package submissions

import (
	"time"

	"github.com/zora-edu/zora-api/internal/validation"
)

// Kind is the form a submission came from.
type Kind string

const (
	KindContact    Kind = validation.FormContact
	KindB2B        Kind = validation.FormB2B
	KindNewsletter Kind = validation.FormNewsletter
)

// Schema returns the validation schema for the kind.
func (k Kind) Schema() (*validation.Schema, error) {
	switch k {
	case KindContact, KindB2B, KindNewsletter:
		schema, _ := validation.SchemaFor(string(k))
		return schema, nil
	}
	return nil, ErrUnknownKind
}

// Submission is an accepted, sanitized form submission.
type Submission struct {
	ID        string         `json:"id"`
	Kind      Kind           `json:"kind"`
	Email     string         `json:"email"`
	Fields    map[string]any `json:"fields"`
	CreatedAt time.Time      `json:"created_at"`
}

// ListFilter narrows admin listings.
type ListFilter struct {
	Kind   Kind
	Limit  int
	Offset int
}

func (f ListFilter) normalized() ListFilter {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}
