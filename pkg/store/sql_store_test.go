package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func newTestStore(t *testing.T) (*SQLStore, *testClock) {
	t.Helper()
	clock := &testClock{now: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
	s, err := Open("sqlite", ":memory:", WithClock(clock.Now))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, clock
}

// newInvitation 以owner身份创建清单和邀请，再切换回一个新的本地用户
func newInvitation(t *testing.T, s *SQLStore, ttl time.Duration) Invitation {
	t.Helper()
	ctx := context.Background()

	_, err := s.SetUserName(ctx, "Ann")
	require.NoError(t, err)
	list, err := s.CreateList(ctx, "Weekly")
	require.NoError(t, err)
	inv, err := s.CreateInvitation(ctx, list.ID, ttl)
	require.NoError(t, err)

	_, err = s.db.Exec("DELETE FROM app_state WHERE state_key = ?", stateCurrentUser)
	require.NoError(t, err)
	return inv
}

func TestSQLStore_InitializeUserIsIdempotent(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.CurrentUser(ctx)
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	require.NoError(t, s.InitializeUser(ctx))
	first, err := s.CurrentUser(ctx)
	require.NoError(t, err)
	assert.False(t, first.Authenticated())

	require.NoError(t, s.InitializeUser(ctx))
	second, err := s.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestSQLStore_SetUserName(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.SetUserName(ctx, "  ")
	assert.Error(t, err)

	user, err := s.SetUserName(ctx, " Bob ")
	require.NoError(t, err)
	assert.Equal(t, "Bob", user.Name)

	current, err := s.CurrentUser(ctx)
	require.NoError(t, err)
	assert.True(t, current.Authenticated())
}

func TestSQLStore_AcceptRequiresName(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	inv := newInvitation(t, s, 0)

	result, err := s.AcceptInvitation(ctx, inv.Token)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "User not authenticated", result.Error)

	require.NoError(t, s.InitializeUser(ctx))
	result, err = s.AcceptInvitation(ctx, inv.Token)
	require.NoError(t, err)
	assert.Equal(t, "User not authenticated", result.Error)
}

func TestSQLStore_AcceptInvitation(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	inv := newInvitation(t, s, time.Hour)

	_, err := s.SetUserName(ctx, "Bob")
	require.NoError(t, err)

	result, err := s.AcceptInvitation(ctx, inv.Token)
	require.NoError(t, err)
	assert.True(t, result.Success)

	lists, err := s.Lists(ctx)
	require.NoError(t, err)
	require.Len(t, lists, 1)
	assert.Equal(t, "Weekly", lists[0].Name)

	got, err := s.GetInvitation(ctx, inv.Token)
	require.NoError(t, err)
	assert.Equal(t, InvitationStatusAccepted, got.Status)
	assert.Equal(t, "Weekly", got.ListName)
	assert.Equal(t, "Ann", got.FromName)

	// 邀请只能使用一次
	result, err = s.AcceptInvitation(ctx, inv.Token)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, ErrInvitationUsed.Error(), result.Error)
}

func TestSQLStore_AcceptUnknownToken(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	_, err := s.SetUserName(ctx, "Bob")
	require.NoError(t, err)

	result, err := s.AcceptInvitation(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, ErrInvitationNotFound.Error(), result.Error)
}

func TestSQLStore_AcceptExpired(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()
	inv := newInvitation(t, s, time.Hour)
	_, err := s.SetUserName(ctx, "Bob")
	require.NoError(t, err)

	clock.now = clock.now.Add(2 * time.Hour)
	result, err := s.AcceptInvitation(ctx, inv.Token)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, ErrInvitationExpired.Error(), result.Error)

	got, err := s.GetInvitation(ctx, inv.Token)
	require.NoError(t, err)
	assert.Equal(t, InvitationStatusExpired, got.Status)
}

func TestSQLStore_DeclineInvitation(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	inv := newInvitation(t, s, 0)

	require.NoError(t, s.DeclineInvitation(ctx, inv.Token))
	got, err := s.GetInvitation(ctx, inv.Token)
	require.NoError(t, err)
	assert.Equal(t, InvitationStatusDeclined, got.Status)
	assert.Nil(t, got.Expires())

	assert.ErrorIs(t, s.DeclineInvitation(ctx, inv.Token), ErrInvitationUsed)
	assert.ErrorIs(t, s.DeclineInvitation(ctx, "missing"), ErrInvitationNotFound)
}

func TestSQLStore_SyncOnceExpiresStaleInvitations(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()
	short := newInvitation(t, s, time.Minute)
	long := newInvitation(t, s, 24*time.Hour)
	forever := newInvitation(t, s, 0)

	clock.now = clock.now.Add(time.Hour)
	report, err := s.SyncOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Expired)

	for token, want := range map[string]InvitationStatus{
		short.Token:   InvitationStatusExpired,
		long.Token:    InvitationStatusPending,
		forever.Token: InvitationStatusPending,
	} {
		got, err := s.GetInvitation(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, want, got.Status)
	}

	last, ok, err := s.LastSyncAt(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, clock.now.Equal(last))
}

func TestSQLStore_StartSync(t *testing.T) {
	s, _ := newTestStore(t)
	assert.False(t, s.SyncEnabled())

	s.StartSync()
	assert.True(t, s.SyncEnabled())

	_, ok, err := s.LastSyncAt(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSQLStore_Banner(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	text, err := s.Banner(ctx)
	require.NoError(t, err)
	assert.Empty(t, text)

	s.SetBanner("first")
	s.SetBanner("second")
	text, err = s.Banner(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", text)
}

func TestSQLStore_CreateListRequiresUser(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.CreateList(context.Background(), "Weekly")
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	_, err = s.CreateInvitation(context.Background(), "nope", 0)
	assert.Error(t, err)
}

func TestOpen_Disabled(t *testing.T) {
	_, err := Open("none", "")
	require.Error(t, err)
}

func TestNoopStore(t *testing.T) {
	s := NewNoopStore(errors.New("boom"))
	ctx := context.Background()

	assert.NoError(t, s.InitializeUser(ctx))
	assert.NotPanics(t, s.StartSync)
	assert.NotPanics(t, func() { s.SetBanner("x") })

	result, err := s.AcceptInvitation(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, AcceptResult{Success: false, Error: "Store initialization failed"}, result)
	assert.EqualError(t, s.Cause(), "boom")
}
