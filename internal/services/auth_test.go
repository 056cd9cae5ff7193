package services

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	h := newHarness(t)

	u, token, err := h.auth.Register(h.dbc, RegisterInput{
		Email:     " Ada@Example.com ",
		Password:  "correct horse",
		FirstName: "Ada",
		LastName:  "Lovelace",
	}, uuid.Nil)
	require.NoError(t, err)
	require.Equal(t, "ada@example.com", u.Email)
	require.False(t, u.IsLazy)
	require.NotEmpty(t, token)

	id, lazy, err := h.auth.ParseToken(token)
	require.NoError(t, err)
	require.Equal(t, u.ID, id)
	require.False(t, lazy)

	got, token2, err := h.auth.Login(h.dbc, "ada@example.com", "correct horse")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	require.NotEmpty(t, token2)

	_, _, err = h.auth.Login(h.dbc, "ada@example.com", "wrong")
	requireAPIError(t, err, http.StatusUnauthorized, "invalid_credentials")

	_, _, err = h.auth.Login(h.dbc, "nobody@example.com", "correct horse")
	requireAPIError(t, err, http.StatusUnauthorized, "invalid_credentials")

	_, _, err = h.auth.Register(h.dbc, RegisterInput{Email: "ada@example.com", Password: "x"}, uuid.Nil)
	ae := requireAPIError(t, err, http.StatusConflict, "email_taken")
	require.Equal(t, "email", ae.Field)
}

func TestRegisterRequiresCredentials(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.auth.Register(h.dbc, RegisterInput{Email: "a@example.com"}, uuid.Nil)
	requireAPIError(t, err, http.StatusBadRequest, "missing_credentials")
}

func TestLazyUserIsClaimedOnRegister(t *testing.T) {
	h := newHarness(t)

	lazyUser, token, err := h.auth.CreateLazyUser(h.dbc)
	require.NoError(t, err)
	require.True(t, lazyUser.IsLazy)

	id, lazy, err := h.auth.ParseToken(token)
	require.NoError(t, err)
	require.Equal(t, lazyUser.ID, id)
	require.True(t, lazy)

	_, _, err = h.auth.Login(h.dbc, lazyUser.Email, "anything")
	requireAPIError(t, err, http.StatusUnauthorized, "invalid_credentials")

	claimed, token, err := h.auth.Register(h.dbc, RegisterInput{
		Email:    "grace@example.com",
		Password: "hopper",
	}, lazyUser.ID)
	require.NoError(t, err)
	require.Equal(t, lazyUser.ID, claimed.ID)
	require.False(t, claimed.IsLazy)
	require.Equal(t, "grace@example.com", claimed.Email)

	_, lazy, err = h.auth.ParseToken(token)
	require.NoError(t, err)
	require.False(t, lazy)

	// A registered caller registering again gets a fresh account.
	other, _, err := h.auth.Register(h.dbc, RegisterInput{Email: "second@example.com", Password: "pw"}, claimed.ID)
	require.NoError(t, err)
	require.NotEqual(t, claimed.ID, other.ID)
}

func TestParseTokenRejectsBadTokens(t *testing.T) {
	h := newHarness(t)
	u, token, err := h.auth.Register(h.dbc, RegisterInput{Email: "t@example.com", Password: "pw"}, uuid.Nil)
	require.NoError(t, err)

	_, _, err = h.auth.ParseToken("not-a-token")
	requireAPIError(t, err, http.StatusUnauthorized, "invalid_token")

	_, _, err = h.auth.ParseToken(token + "x")
	requireAPIError(t, err, http.StatusUnauthorized, "invalid_token")

	svc := h.auth.(*authService)
	svc.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	stale, err := svc.issueToken(u)
	require.NoError(t, err)
	svc.now = time.Now

	_, _, err = h.auth.ParseToken(stale)
	requireAPIError(t, err, http.StatusUnauthorized, "token_expired")
	require.Equal(t, 24*time.Hour, h.auth.GetAccessTTL())
}
