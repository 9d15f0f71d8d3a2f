package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/telecare/auth-server/auth"
	"github.com/telecare/auth-server/ephemeral"
	"github.com/telecare/auth-server/google"
	apperrors "github.com/telecare/auth-server/internal/errors"
	"github.com/telecare/auth-server/users"
)

// TestRegisterThenVerifyEmail tests the full email sign up scenario
func TestRegisterThenVerifyEmail(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	require.NoError(t, f.service.Register(ctx, testUserEmail, users.RolePatient, testUserPassword))
	require.Zero(t, f.userRepo.Count(), "no user before the link is followed")

	tok := f.mailedToken(t, testUserEmail, ephemeral.TypeEmailVerification)
	res, err := f.service.VerifyEmail(ctx, tok, testClient)
	require.NoError(t, err)

	require.Equal(t, testUserEmail, res.User.Email)
	require.True(t, res.User.IsPasswordSet)
	require.True(t, res.User.IsEmailVerified)
	require.Equal(t, users.RolePatient, res.User.Role)
	require.Equal(t, res.User.ID, res.Session.UserID)
	require.NotEmpty(t, res.AccessToken)
	require.NotEmpty(t, res.RefreshToken)

	// Token is single use.
	_, err = f.service.VerifyEmail(ctx, tok, testClient)
	require.Equal(t, apperrors.KindBadRequest, apperrors.KindOf(err))

	// The registered password now works.
	_, err = f.service.Login(ctx, testUserEmail, testUserPassword, testClient)
	require.NoError(t, err)
}

func TestRegister_Rejections(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	f.createTestUser(t, defaultTestUser())

	err := f.service.Register(ctx, testUserEmail, users.RolePatient, "other")
	require.ErrorIs(t, err, auth.ErrAlreadyRegistered)

	err = f.service.Register(ctx, "new@x.com", "nurse", "pw")
	require.Equal(t, apperrors.KindBadRequest, apperrors.KindOf(err))
}

// TestRegister_ExistingPasswordlessAccount tests that magic-link users can add a password
func TestRegister_ExistingPasswordlessAccount(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	existing := f.createTestUser(t, testUser{Email: testUserEmail, Role: users.RoleDoctor, EmailVerified: true})

	require.NoError(t, f.service.Register(ctx, testUserEmail, users.RolePatient, testUserPassword))
	res, err := f.service.VerifyEmail(ctx, f.mailedToken(t, testUserEmail, ephemeral.TypeEmailVerification), testClient)
	require.NoError(t, err)
	require.Equal(t, existing.ID, res.User.ID)
	require.Equal(t, users.RoleDoctor, res.User.Role)
	require.True(t, res.User.IsPasswordSet)
	require.Equal(t, 1, f.userRepo.Count())
}

func TestRegister_MailFailure(t *testing.T) {
	f := setupTestFixture(t)
	f.mailer.FailWith(errors.New("smtp down"))

	err := f.service.Register(context.Background(), testUserEmail, users.RolePatient, testUserPassword)
	require.Equal(t, apperrors.KindInternal, apperrors.KindOf(err))
}

// TestLogin_Preconditions tests that each failed precondition has its own message
func TestLogin_Preconditions(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	f.createTestUser(t, defaultTestUser())
	f.createTestUser(t, testUser{Email: "unverified@x.com", Password: "pw"})
	f.createTestUser(t, testUser{Email: "nopassword@x.com", EmailVerified: true})

	cases := []struct {
		name     string
		email    string
		password string
		want     error
	}{
		{"unknown user", "ghost@x.com", "pw", auth.ErrUserNotFound},
		{"email not verified", "unverified@x.com", "pw", auth.ErrEmailNotVerified},
		{"no password set", "nopassword@x.com", "pw", auth.ErrNoPasswordSet},
		{"wrong password", testUserEmail, "wrong", auth.ErrIncorrectPassword},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.service.Login(ctx, tc.email, tc.password, testClient)
			require.ErrorIs(t, err, tc.want)
		})
	}

	require.NotEqual(t, auth.ErrNoPasswordSet.Error(), auth.ErrIncorrectPassword.Error())
	require.Equal(t, apperrors.KindForbidden, apperrors.KindOf(auth.ErrNoPasswordSet))
	require.Equal(t, apperrors.KindForbidden, apperrors.KindOf(auth.ErrEmailNotVerified))
	require.Equal(t, apperrors.KindNotFound, apperrors.KindOf(auth.ErrUserNotFound))
}

// TestLogin_SixDevicesKeepFive tests the cap through the login flow
func TestLogin_SixDevicesKeepFive(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	user := f.createTestUser(t, defaultTestUser())

	devices := []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15",
		"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
		"Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36",
		"Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
		"Mozilla/5.0 (iPad; CPU OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
	}
	var first string
	for i, ua := range devices {
		f.clock.Advance(time.Minute)
		res, err := f.service.Login(ctx, testUserEmail, testUserPassword, auth.Client{IP: testIP, UserAgent: ua})
		require.NoError(t, err)
		if i == 0 {
			first = res.Session.ID
		}
	}

	list, err := f.service.ListSessions(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 5)
	for _, s := range list {
		require.NotEqual(t, first, s.ID)
	}
}

func TestMagicLink(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	err := f.service.RequestMagicLink(ctx, testUserEmail, "")
	require.ErrorIs(t, err, auth.ErrRoleRequired)

	require.NoError(t, f.service.RequestMagicLink(ctx, testUserEmail, users.RoleDoctor))
	tok := f.mailedToken(t, testUserEmail, ephemeral.TypeMagicLink)

	res, err := f.service.VerifyMagicLink(ctx, tok, testClient)
	require.NoError(t, err)
	require.Equal(t, users.RoleDoctor, res.User.Role)
	require.True(t, res.User.IsEmailVerified)
	require.False(t, res.User.IsPasswordSet)

	_, err = f.service.VerifyMagicLink(ctx, tok, testClient)
	require.Equal(t, apperrors.KindBadRequest, apperrors.KindOf(err))

	// Known users do not need a role.
	require.NoError(t, f.service.RequestMagicLink(ctx, testUserEmail, ""))
	res2, err := f.service.VerifyMagicLink(ctx, f.mailedToken(t, testUserEmail, ephemeral.TypeMagicLink), testClient)
	require.NoError(t, err)
	require.Equal(t, res.User.ID, res2.User.ID)
}

// TestMagicLink_TokenTypeAndExpiry tests that tokens only work for their own flow and lifetime
func TestMagicLink_TokenTypeAndExpiry(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	require.NoError(t, f.service.Register(ctx, testUserEmail, users.RolePatient, testUserPassword))
	verifyToken := f.mailedToken(t, testUserEmail, ephemeral.TypeEmailVerification)
	_, err := f.service.VerifyMagicLink(ctx, verifyToken, testClient)
	require.Equal(t, apperrors.KindBadRequest, apperrors.KindOf(err))

	f.clock.Advance(ephemeral.DefaultTTL)
	_, err = f.service.VerifyEmail(ctx, verifyToken, testClient)
	require.Equal(t, apperrors.KindBadRequest, apperrors.KindOf(err))
	require.Zero(t, f.userRepo.Count())
}

func TestGoogleCallback(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	f.google.AddCode("good-code", google.Claims{Subject: "g-1", Email: "Doc@X.com", EmailVerified: true, Name: "Dr Doc"})
	f.google.AddCode("unverified-code", google.Claims{Subject: "g-2", Email: "b@x.com"})

	res, err := f.service.GoogleCallback(ctx, "good-code", `{"role":"doctor"}`, testClient)
	require.NoError(t, err)
	require.Equal(t, "doc@x.com", res.User.Email)
	require.Equal(t, users.RoleDoctor, res.User.Role)
	require.Equal(t, "Dr Doc", res.User.Name)
	require.True(t, res.User.IsEmailVerified)

	// Second sign in reuses the account and keeps its role.
	again, err := f.service.GoogleCallback(ctx, "good-code", "", testClient)
	require.NoError(t, err)
	require.Equal(t, res.User.ID, again.User.ID)
	require.Equal(t, users.RoleDoctor, again.User.Role)

	_, err = f.service.GoogleCallback(ctx, "unverified-code", "", testClient)
	require.ErrorIs(t, err, auth.ErrGoogleEmail)

	_, err = f.service.GoogleCallback(ctx, "bad-code", "", testClient)
	require.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
	require.True(t, errors.Is(err, google.ErrVerification))

	f.google.AddCode("new-code", google.Claims{Email: "new@x.com", EmailVerified: true})
	_, err = f.service.GoogleCallback(ctx, "new-code", `{"role":"pilot"}`, testClient)
	require.ErrorIs(t, err, auth.ErrInvalidState)
}

func TestGoogleIDTokenCallback(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	f.google.AddIDToken("id-token", google.Claims{Email: testUserEmail, EmailVerified: true})

	res, err := f.service.GoogleIDTokenCallback(ctx, "id-token", "opaque-csrf-state", testClient)
	require.NoError(t, err)
	require.Equal(t, users.RolePatient, res.User.Role)

	_, err = f.service.GoogleIDTokenCallback(ctx, "forged", "", testClient)
	require.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))

	require.Contains(t, f.service.GoogleAuthURL("s"), "state=s")
}

func TestPasswordReset(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	f.createTestUser(t, testUser{Email: testUserEmail})

	require.ErrorIs(t, f.service.RequestPasswordReset(ctx, "ghost@x.com"), auth.ErrUserNotFound)

	require.NoError(t, f.service.RequestPasswordReset(ctx, testUserEmail))
	tok := f.mailedToken(t, testUserEmail, ephemeral.TypePasswordReset)

	require.NoError(t, f.service.ConfirmPasswordReset(ctx, tok, "new-password"))
	err := f.service.ConfirmPasswordReset(ctx, tok, "another")
	require.Equal(t, apperrors.KindBadRequest, apperrors.KindOf(err))

	_, err = f.service.Login(ctx, testUserEmail, "new-password", testClient)
	require.NoError(t, err)
}

// failingUpdateRepo fails every Update, as a database outage would
type failingUpdateRepo struct {
	users.Repo
}

func (failingUpdateRepo) Update(context.Context, *users.User) error {
	return errors.New("connection reset")
}

// TestPasswordReset_UpdateFailureKeepsToken tests that the reset token is only
// spent once the new password is stored
func TestPasswordReset_UpdateFailureKeepsToken(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	f.createTestUser(t, defaultTestUser())

	require.NoError(t, f.service.RequestPasswordReset(ctx, testUserEmail))
	tok := f.mailedToken(t, testUserEmail, ephemeral.TypePasswordReset)

	f.service.Users = failingUpdateRepo{Repo: f.userRepo}
	err := f.service.ConfirmPasswordReset(ctx, tok, "new-password")
	require.Error(t, err)
	require.Equal(t, apperrors.KindInternal, apperrors.KindOf(err))

	_, ok := f.tokenRepo.ByEmail(testUserEmail, ephemeral.TypePasswordReset)
	require.True(t, ok, "token must survive a failed update")

	f.service.Users = f.userRepo
	require.NoError(t, f.service.ConfirmPasswordReset(ctx, tok, "new-password"))
	_, err = f.service.Login(ctx, testUserEmail, "new-password", testClient)
	require.NoError(t, err)
}

func TestMe(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	user := f.createTestUser(t, defaultTestUser())

	got, err := f.service.Me(ctx, user.ID, "patient")
	require.NoError(t, err)
	require.Equal(t, user.Email, got.Email)

	_, err = f.service.Me(ctx, user.ID, "doctor")
	require.ErrorIs(t, err, auth.ErrRoleMismatch)

	_, err = f.service.Me(ctx, "ghost", "patient")
	require.ErrorIs(t, err, auth.ErrUserNotFound)
}

func TestLogoutAndLogoutAll(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	user := f.createTestUser(t, defaultTestUser())

	first, err := f.service.Login(ctx, testUserEmail, testUserPassword, testClient)
	require.NoError(t, err)
	second, err := f.service.Login(ctx, testUserEmail, testUserPassword, testClient)
	require.NoError(t, err)

	require.NoError(t, f.service.Logout(ctx, first.Session.ID))
	require.NoError(t, f.service.Logout(ctx, first.Session.ID))
	_, err = f.service.Refresh(ctx, first.Session.ID, first.RefreshToken)
	require.ErrorIs(t, err, auth.ErrSessionNotFound)

	require.NoError(t, f.service.LogoutAll(ctx, second.Session.ID, second.RefreshToken))
	list, err := f.service.ListSessions(ctx, user.ID)
	require.NoError(t, err)
	require.Empty(t, list)
}

// TestLogoutAll_RequiresLiveSession tests that a refresh token whose session is
// gone cannot revoke the user's other sessions
func TestLogoutAll_RequiresLiveSession(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	user := f.createTestUser(t, defaultTestUser())

	old, err := f.service.Login(ctx, testUserEmail, testUserPassword, testClient)
	require.NoError(t, err)
	require.NoError(t, f.service.Logout(ctx, old.Session.ID))

	live, err := f.service.Login(ctx, testUserEmail, testUserPassword, testClient)
	require.NoError(t, err)

	err = f.service.LogoutAll(ctx, old.Session.ID, old.RefreshToken)
	require.ErrorIs(t, err, auth.ErrSessionNotFound)

	// A token minted for one session does not unlock another.
	err = f.service.LogoutAll(ctx, live.Session.ID, old.RefreshToken)
	require.ErrorIs(t, err, auth.ErrRefreshTokenInvalid)

	list, err := f.service.ListSessions(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, live.Session.ID, list[0].ID)

	_, err = f.service.Refresh(ctx, live.Session.ID, live.RefreshToken)
	require.NoError(t, err)
}

func TestNewService_RequiresDeps(t *testing.T) {
	_, err := auth.NewService(auth.Deps{})
	require.Error(t, err)
}
