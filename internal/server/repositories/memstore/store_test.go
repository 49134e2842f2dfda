package memstore

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/channelauth/internal/common"
	"github.com/dmitrijs2005/channelauth/internal/dbx"
	"github.com/dmitrijs2005/channelauth/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, s *Store, name string) *models.User {
	t.Helper()
	u, err := s.Users(nil).Create(context.Background(), &models.User{
		UserName: name, Email: name + "@example.com", FullName: name, Avatar: "a", PasswordHash: "h",
	})
	require.NoError(t, err)
	return u
}

func TestUsers_CreateAndLookup(t *testing.T) {
	s := New()
	ctx := context.Background()
	alice := seed(t, s, "alice")
	require.NotEmpty(t, alice.ID)

	got, err := s.Users(s.DB()).GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got.Email)

	got, err = s.Users(nil).GetByUserName(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	got, err = s.Users(nil).GetByUserNameOrEmail(ctx, "alice@example.com", "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	_, err = s.Users(nil).GetByUserName(ctx, "bob")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = s.Users(nil).Create(ctx, &models.User{UserName: "alice", Email: "other@example.com"})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
	_, err = s.Users(nil).Create(ctx, &models.User{UserName: "other", Email: "alice@example.com"})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestUsers_ReturnedValuesAreCopies(t *testing.T) {
	s := New()
	alice := seed(t, s, "alice")
	alice.FullName = "mutated"

	got, err := s.Users(nil).GetByID(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.FullName)
}

func TestUsers_Update(t *testing.T) {
	s := New()
	ctx := context.Background()
	alice := seed(t, s, "alice")
	seed(t, s, "bob")

	email := "bob@example.com"
	_, err := s.Users(nil).Update(ctx, alice.ID, models.UserUpdate{Email: &email})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)

	email, name := "alice@new.example", "Alice A"
	u, err := s.Users(nil).Update(ctx, alice.ID, models.UserUpdate{Email: &email, FullName: &name})
	require.NoError(t, err)
	assert.Equal(t, email, u.Email)
	assert.Equal(t, name, u.FullName)
	assert.Equal(t, "h", u.PasswordHash)

	_, err = s.Users(nil).GetByUserNameOrEmail(ctx, "", "alice@example.com")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = s.Users(nil).Update(ctx, "ghost", models.UserUpdate{FullName: &name})
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestUsers_EmptyUpdateKeepsTimestamp(t *testing.T) {
	s := New()
	alice := seed(t, s, "alice")

	later := alice.UpdatedAt.Add(time.Hour)
	s.now = func() time.Time { return later }

	u, err := s.Users(nil).Update(context.Background(), alice.ID, models.UserUpdate{})
	require.NoError(t, err)
	assert.True(t, alice.UpdatedAt.Equal(u.UpdatedAt))

	_, err = s.Users(nil).Update(context.Background(), "ghost", models.UserUpdate{})
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestUsers_RefreshTokenCAS(t *testing.T) {
	s := New()
	ctx := context.Background()
	alice := seed(t, s, "alice")
	repo := s.Users(nil)

	require.NoError(t, repo.SetRefreshToken(ctx, alice.ID, "t1"))
	assert.ErrorIs(t, repo.SetRefreshToken(ctx, "ghost", "t1"), common.ErrorNotFound)

	ok, err := repo.SwapRefreshToken(ctx, alice.ID, "t0", "t2")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.SwapRefreshToken(ctx, alice.ID, "t1", "t2")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, repo.SetRefreshToken(ctx, alice.ID, ""))
	ok, err = repo.SwapRefreshToken(ctx, alice.ID, "", "t3")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUsers_ConcurrentSwapHasOneWinner(t *testing.T) {
	s := New()
	ctx := context.Background()
	alice := seed(t, s, "alice")
	require.NoError(t, s.Users(nil).SetRefreshToken(ctx, alice.ID, "shared"))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ok, err := s.Users(nil).SwapRefreshToken(ctx, alice.ID, "shared", string(rune('a'+i)))
			if err == nil && ok {
				wins.Add(1)
			}
		}(i)
	}
	wg.Wait()
	assert.EqualValues(t, 1, wins.Load())
}

func TestSubscriptions(t *testing.T) {
	s := New()
	ctx := context.Background()
	a, b, c := seed(t, s, "a"), seed(t, s, "b"), seed(t, s, "c")
	subs := s.Subscriptions(nil)

	require.NoError(t, subs.Create(ctx, b.ID, a.ID))
	require.NoError(t, subs.Create(ctx, c.ID, a.ID))
	require.NoError(t, subs.Create(ctx, c.ID, a.ID))
	assert.ErrorIs(t, subs.Create(ctx, c.ID, "ghost"), common.ErrorNotFound)

	n, err := subs.CountByChannel(ctx, a.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = subs.CountBySubscriber(ctx, c.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	ok, err := subs.Exists(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = subs.Exists(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, subs.Delete(ctx, b.ID, a.ID))
	require.NoError(t, subs.Delete(ctx, b.ID, a.ID))
	n, _ = subs.CountByChannel(ctx, a.ID)
	assert.EqualValues(t, 1, n)
}

func TestWithTx_RollbackRestoresTables(t *testing.T) {
	s := New()
	ctx := context.Background()
	alice := seed(t, s, "alice")
	boom := errors.New("boom")

	err := s.WithTx(ctx, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.Users(tx).Create(ctx, &models.User{UserName: "bob", Email: "bob@example.com"}); err != nil {
			return err
		}
		if err := s.Users(tx).SetRefreshToken(ctx, alice.ID, "t"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.Users(nil).GetByUserName(ctx, "bob")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	got, err := s.Users(nil).GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, got.RefreshToken)
}

func TestWithTx_CommitKeepsChanges(t *testing.T) {
	s := New()
	ctx := context.Background()

	err := s.WithTx(ctx, nil, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := s.Users(tx).Create(ctx, &models.User{UserName: "bob", Email: "bob@example.com"})
		return err
	})
	require.NoError(t, err)

	_, err = s.Users(nil).GetByUserName(ctx, "bob")
	assert.NoError(t, err)
}

func TestWithTx_ReadOnlyRejectsWrites(t *testing.T) {
	s := New()
	alice := seed(t, s, "alice")

	err := s.WithTx(context.Background(), dbx.ReadSnapshot, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.Users(tx).GetByID(ctx, alice.ID); err != nil {
			return err
		}
		return s.Users(tx).SetRefreshToken(ctx, alice.ID, "x")
	})
	assert.ErrorIs(t, err, errReadOnly)
}

func TestWithTx_CancelledContext(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := s.WithTx(ctx, nil, func(context.Context, dbx.DBTX) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)

	_, err = s.Users(nil).GetByID(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHandle_RejectsSQL(t *testing.T) {
	h := New().DB()
	_, err := h.ExecContext(context.Background(), "SELECT 1")
	assert.ErrorIs(t, err, errNoSQL)
	_, err = h.QueryContext(context.Background(), "SELECT 1")
	assert.ErrorIs(t, err, errNoSQL)
}
