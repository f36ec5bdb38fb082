package newsletter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ErrNotSubscribed is returned when unsubscribing an unknown address.
var ErrNotSubscribed = errors.New("newsletter: address is not subscribed")

// uniqueViolation is the Postgres SQLSTATE for a duplicate key.
const uniqueViolation = "23505"

// Subscriber is one newsletter address.
type Subscriber struct {
	ID             uuid.UUID  `json:"id"`
	Email          string     `json:"email"`
	Source         string     `json:"source"`
	SubscribedAt   time.Time  `json:"subscribed_at"`
	UnsubscribedAt *time.Time `json:"unsubscribed_at,omitempty"`
}

// Store persists newsletter subscriptions. Subscribe is idempotent: an
// address that is already on the list is returned with created=false.
type Store interface {
	Subscribe(ctx context.Context, email, source string) (*Subscriber, bool, error)
	Unsubscribe(ctx context.Context, email string) error
	List(ctx context.Context, limit int) ([]Subscriber, error)
}

// NormalizeEmail lowercases and trims an address before it is stored.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SQLStore stores subscribers in Postgres via database/sql.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Subscribe(ctx context.Context, email, source string) (*Subscriber, bool, error) {
	sub := &Subscriber{ID: uuid.New(), Email: NormalizeEmail(email), Source: source}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO newsletter_subscribers (id, email, source)
		VALUES ($1, $2, $3)
		RETURNING subscribed_at`,
		sub.ID, sub.Email, sub.Source).Scan(&sub.SubscribedAt)
	if err == nil {
		return sub, true, nil
	}

	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || string(pqErr.Code) != uniqueViolation {
		return nil, false, fmt.Errorf("newsletter: insert subscriber: %w", err)
	}

	existing := &Subscriber{}
	err = s.db.QueryRowContext(ctx, `
		UPDATE newsletter_subscribers SET unsubscribed_at = NULL
		WHERE email = $1
		RETURNING id, email, source, subscribed_at`, sub.Email).
		Scan(&existing.ID, &existing.Email, &existing.Source, &existing.SubscribedAt)
	if err != nil {
		return nil, false, fmt.Errorf("newsletter: reactivate subscriber: %w", err)
	}
	return existing, false, nil
}

func (s *SQLStore) Unsubscribe(ctx context.Context, email string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE newsletter_subscribers SET unsubscribed_at = now()
		WHERE email = $1 AND unsubscribed_at IS NULL`, NormalizeEmail(email))
	if err != nil {
		return fmt.Errorf("newsletter: unsubscribe: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("newsletter: unsubscribe: %w", err)
	}
	if n == 0 {
		return ErrNotSubscribed
	}
	return nil
}

func (s *SQLStore) List(ctx context.Context, limit int) ([]Subscriber, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, email, source, subscribed_at, unsubscribed_at
		FROM newsletter_subscribers
		ORDER BY subscribed_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("newsletter: list subscribers: %w", err)
	}
	defer rows.Close()

	out := []Subscriber{}
	for rows.Next() {
		var sub Subscriber
		var unsubscribed sql.NullTime
		if err := rows.Scan(&sub.ID, &sub.Email, &sub.Source, &sub.SubscribedAt, &unsubscribed); err != nil {
			return nil, fmt.Errorf("newsletter: scan subscriber: %w", err)
		}
		if unsubscribed.Valid {
			t := unsubscribed.Time
			sub.UnsubscribedAt = &t
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

// MemoryStore keeps subscribers in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	subs map[string]*Subscriber
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{subs: make(map[string]*Subscriber), now: time.Now}
}

func (m *MemoryStore) Subscribe(_ context.Context, email, source string) (*Subscriber, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := NormalizeEmail(email)
	if existing, ok := m.subs[key]; ok {
		existing.UnsubscribedAt = nil
		cp := *existing
		return &cp, false, nil
	}
	sub := &Subscriber{ID: uuid.New(), Email: key, Source: source, SubscribedAt: m.now().UTC()}
	m.subs[key] = sub
	cp := *sub
	return &cp, true, nil
}

func (m *MemoryStore) Unsubscribe(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sub, ok := m.subs[NormalizeEmail(email)]
	if !ok || sub.UnsubscribedAt != nil {
		return ErrNotSubscribed
	}
	now := m.now().UTC()
	sub.UnsubscribedAt = &now
	return nil
}

func (m *MemoryStore) List(_ context.Context, limit int) ([]Subscriber, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Subscriber, 0, len(m.subs))
	for _, sub := range m.subs {
		out = append(out, *sub)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SubscribedAt.After(out[j].SubscribedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
