package newsletter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLStore_SubscribeNew(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery("INSERT INTO newsletter_subscribers").
		WithArgs(sqlmock.AnyArg(), "jane@example.com", "footer").
		WillReturnRows(sqlmock.NewRows([]string{"subscribed_at"}).AddRow(now))

	store := NewSQLStore(db)
	sub, created, err := store.Subscribe(context.Background(), "  Jane@Example.com ", "footer")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "jane@example.com", sub.Email)
	assert.Equal(t, now, sub.SubscribedAt)
	assert.NotEqual(t, uuid.Nil, sub.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_SubscribeDuplicateIsIdempotent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	id := uuid.New()
	then := time.Date(2025, 12, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery("INSERT INTO newsletter_subscribers").
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value"})
	mock.ExpectQuery("UPDATE newsletter_subscribers SET unsubscribed_at = NULL").
		WithArgs("jane@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "source", "subscribed_at"}).
			AddRow(id.String(), "jane@example.com", "blog", then))

	store := NewSQLStore(db)
	sub, created, err := store.Subscribe(context.Background(), "jane@example.com", "footer")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, id, sub.ID)
	assert.Equal(t, "blog", sub.Source)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_SubscribeOtherError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New("connection reset")
	mock.ExpectQuery("INSERT INTO newsletter_subscribers").WillReturnError(boom)

	_, _, err = NewSQLStore(db).Subscribe(context.Background(), "jane@example.com", "footer")
	assert.ErrorIs(t, err, boom)
}

func TestSQLStore_Unsubscribe(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE newsletter_subscribers SET unsubscribed_at = now()").
		WithArgs("jane@example.com").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE newsletter_subscribers SET unsubscribed_at = now()").
		WithArgs("ghost@example.com").
		WillReturnResult(sqlmock.NewResult(0, 0))

	store := NewSQLStore(db)
	require.NoError(t, store.Unsubscribe(context.Background(), "Jane@example.com"))
	assert.ErrorIs(t, store.Unsubscribe(context.Background(), "ghost@example.com"), ErrNotSubscribed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	left := now.Add(-time.Hour)
	rows := sqlmock.NewRows([]string{"id", "email", "source", "subscribed_at", "unsubscribed_at"}).
		AddRow(uuid.New().String(), "a@example.com", "footer", now, nil).
		AddRow(uuid.New().String(), "b@example.com", "blog", now.Add(-2*time.Hour), left)
	mock.ExpectQuery("SELECT id, email, source, subscribed_at, unsubscribed_at").
		WithArgs(100).
		WillReturnRows(rows)

	subs, err := NewSQLStore(db).List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Nil(t, subs[0].UnsubscribedAt)
	require.NotNil(t, subs[1].UnsubscribedAt)
	assert.Equal(t, left, *subs[1].UnsubscribedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	first, created, err := store.Subscribe(ctx, "Jane@example.com", "footer")
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := store.Subscribe(ctx, "jane@example.com", "blog")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, "footer", again.Source)

	require.NoError(t, store.Unsubscribe(ctx, "jane@example.com"))
	assert.ErrorIs(t, store.Unsubscribe(ctx, "jane@example.com"), ErrNotSubscribed)
	assert.ErrorIs(t, store.Unsubscribe(ctx, "nobody@example.com"), ErrNotSubscribed)

	_, created, err = store.Subscribe(ctx, "jane@example.com", "footer")
	require.NoError(t, err)
	assert.False(t, created)

	subs, err := store.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Nil(t, subs[0].UnsubscribedAt)
}
