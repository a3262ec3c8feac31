package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-inventory-sales/internal/identity"
	"go-inventory-sales/internal/model"
	"go-inventory-sales/internal/repository"
	"go-inventory-sales/pkg/jwt"
)

type fakeVerifier struct {
	identities map[string]identity.Identity
}

func (f *fakeVerifier) Verify(_ context.Context, token string) (*identity.Identity, error) {
	id, ok := f.identities[token]
	if !ok {
		return nil, model.ErrInvalidToken
	}
	return &id, nil
}

type accessFixture struct {
	svc   AccessService
	users repository.UserRepository
	jwt   *jwt.Manager
}

func newAccessFixture(t *testing.T, admins ...string) *accessFixture {
	users := repository.NewUserRepo(newTestDB(t))
	verifier := &fakeVerifier{identities: map[string]identity.Identity{
		"ana-token":  {Subject: "sub-ana", Email: "Ana@Example.com", Name: "Ana", AvatarURL: "https://img/ana.png"},
		"boss-token": {Subject: "sub-boss", Email: "boss@example.com", Name: "Boss"},
	}}
	manager := jwt.NewManager("test-secret", time.Hour)

	return &accessFixture{
		svc:   NewAccessService(users, verifier, manager, admins, discardLogger),
		users: users,
		jwt:   manager,
	}
}

func TestSignInInvalidToken(t *testing.T) {
	f := newAccessFixture(t)

	_, err := f.svc.SignIn(context.Background(), "forged")

	assert.ErrorIs(t, err, model.ErrInvalidToken)
}

func TestSignInNewUserIsPending(t *testing.T) {
	f := newAccessFixture(t)
	ctx := context.Background()

	_, err := f.svc.SignIn(ctx, "ana-token")
	assert.ErrorIs(t, err, model.ErrAccessPending)

	user, err := f.users.FindByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, model.UserPending, user.Status)
	assert.Equal(t, "sub-ana", user.ID)
	assert.False(t, user.IsAdmin)

	pending, err := f.svc.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "ana@example.com", pending[0].Email)
}

func TestApproveThenSignIn(t *testing.T) {
	f := newAccessFixture(t)
	ctx := context.Background()
	_, err := f.svc.SignIn(ctx, "ana-token")
	require.ErrorIs(t, err, model.ErrAccessPending)

	approved, err := f.svc.Decide(ctx, &DecisionRequest{Email: "ana@example.com", Action: "approve"})
	require.NoError(t, err)
	assert.Equal(t, model.UserApproved, approved.Status)

	// Approving twice is harmless
	_, err = f.svc.Decide(ctx, &DecisionRequest{Email: "ana@example.com", Action: "approve"})
	require.NoError(t, err)

	resp, err := f.svc.SignIn(ctx, "ana-token")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", resp.User.Email)

	claims, err := f.jwt.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "sub-ana", claims.UserID)
	assert.False(t, claims.Admin)

	user, err := f.users.FindByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.NotNil(t, user.LastSeenAt)

	// Rejecting an approved user is not allowed
	_, err = f.svc.Decide(ctx, &DecisionRequest{Email: "ana@example.com", Action: "reject"})
	var vErr *model.ValidationError
	assert.True(t, errors.As(err, &vErr))
}

func TestRejectDeletesPendingUser(t *testing.T) {
	f := newAccessFixture(t)
	ctx := context.Background()
	_, err := f.svc.SignIn(ctx, "ana-token")
	require.ErrorIs(t, err, model.ErrAccessPending)

	user, err := f.svc.Decide(ctx, &DecisionRequest{Email: "ana@example.com", Action: "reject"})
	require.NoError(t, err)
	assert.Nil(t, user)

	_, err = f.users.FindByEmail(ctx, "ana@example.com")
	assert.ErrorIs(t, err, model.ErrUserNotFound)

	// A rejected identity may ask again and starts over as pending
	_, err = f.svc.SignIn(ctx, "ana-token")
	assert.ErrorIs(t, err, model.ErrAccessPending)
}

func TestDecideErrors(t *testing.T) {
	f := newAccessFixture(t)
	ctx := context.Background()

	_, err := f.svc.Decide(ctx, &DecisionRequest{Email: "ghost@example.com", Action: "approve"})
	assert.ErrorIs(t, err, model.ErrUserNotFound)

	var vErr *model.ValidationError
	_, err = f.svc.Decide(ctx, &DecisionRequest{Email: "ghost@example.com", Action: "ban"})
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "action", vErr.Field)

	_, err = f.svc.Decide(ctx, &DecisionRequest{Email: "not-an-email", Action: "approve"})
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "email", vErr.Field)
}

func TestSignInAdminEmailIsApproved(t *testing.T) {
	f := newAccessFixture(t, " BOSS@example.com ")

	resp, err := f.svc.SignIn(context.Background(), "boss-token")
	require.NoError(t, err)
	assert.True(t, resp.User.IsAdmin)
	assert.Equal(t, model.UserApproved, resp.User.Status)

	claims, err := f.jwt.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.True(t, claims.Admin)
}
