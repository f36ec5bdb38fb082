package submissions

import (
	"context"
	"maps"
	"sort"
	"sync"
)

// Repository defines the interface for submission storage
type Repository interface {
	Create(ctx context.Context, sub *Submission) error
	GetByID(ctx context.Context, id string) (*Submission, error)
	List(ctx context.Context, filter ListFilter) ([]*Submission, error)
}

// InMemoryRepository keeps submissions in process memory
type InMemoryRepository struct {
	mu          sync.RWMutex
	submissions map[string]*Submission
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		submissions: make(map[string]*Submission),
	}
}

// Create stores a copy of sub
func (r *InMemoryRepository) Create(ctx context.Context, sub *Submission) error {
	cp := *sub
	cp.Fields = maps.Clone(sub.Fields)

	r.mu.Lock()
	r.submissions[sub.ID] = &cp
	r.mu.Unlock()
	return nil
}

// GetByID retrieves a submission by ID
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sub, ok := r.submissions[id]
	if !ok {
		return nil, ErrSubmissionNotFound
	}
	cp := *sub
	cp.Fields = maps.Clone(sub.Fields)
	return &cp, nil
}

// List returns submissions newest first
func (r *InMemoryRepository) List(ctx context.Context, filter ListFilter) ([]*Submission, error) {
	filter = filter.normalized()

	r.mu.RLock()
	all := make([]*Submission, 0, len(r.submissions))
	for _, sub := range r.submissions {
		if filter.Kind != "" && sub.Kind != filter.Kind {
			continue
		}
		cp := *sub
		cp.Fields = maps.Clone(sub.Fields)
		all = append(all, &cp)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	if filter.Offset >= len(all) {
		return []*Submission{}, nil
	}
	all = all[filter.Offset:]
	if len(all) > filter.Limit {
		all = all[:filter.Limit]
	}
	return all, nil
}
