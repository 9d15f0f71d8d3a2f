// Package auth implements the sign-in flows and the session lifecycle behind them.
package auth

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/telecare/auth-server/ephemeral"
	"github.com/telecare/auth-server/google"
	"github.com/telecare/auth-server/identity"
	apperrors "github.com/telecare/auth-server/internal/errors"
	"github.com/telecare/auth-server/mail"
	"github.com/telecare/auth-server/sessions"
	"github.com/telecare/auth-server/users"
)

const (
	payloadPasswordHash = "passwordHash"
	payloadRole         = "role"
)

// Client identifies the device a request came from.
type Client struct {
	IP        string
	UserAgent string
}

// AuthResult is the outcome of every flow that signs a user in.
type AuthResult struct {
	Credentials
	User *users.User
}

// Deps holds all dependencies for the Service
type Deps struct {
	Users    users.Repo
	Resolver *identity.Resolver
	Tokens   *ephemeral.Store
	Sessions *SessionManager
	Hasher   *users.Hasher
	Google   google.Provider
	Mailer   mail.Mailer
	Composer *mail.Composer
}

// Service runs the authentication strategies. Each one ends in a
// VerifiedIdentity that is resolved to a user and turned into a session.
type Service struct {
	Deps
}

func NewService(deps Deps) (*Service, error) {
	switch {
	case deps.Users == nil:
		return nil, errors.New("[NewService] Users repo is required")
	case deps.Resolver == nil:
		return nil, errors.New("[NewService] Resolver is required")
	case deps.Tokens == nil:
		return nil, errors.New("[NewService] ephemeral token store is required")
	case deps.Sessions == nil:
		return nil, errors.New("[NewService] SessionManager is required")
	case deps.Hasher == nil:
		return nil, errors.New("[NewService] Hasher is required")
	case deps.Google == nil:
		return nil, errors.New("[NewService] Google provider is required")
	case deps.Mailer == nil:
		return nil, errors.New("[NewService] Mailer is required")
	case deps.Composer == nil:
		return nil, errors.New("[NewService] Composer is required")
	}
	return &Service{Deps: deps}, nil
}

// Register starts email sign up. Nothing is stored on the user until the
// emailed token comes back through VerifyEmail.
func (s *Service) Register(ctx context.Context, email string, role users.Role, password string) error {
	email = users.NormalizeEmail(email)
	if !role.Valid() {
		return apperrors.BadRequest("unknown role %q", role)
	}

	existing, err := s.Users.GetByEmail(ctx, email)
	switch {
	case err == nil && existing.IsPasswordSet:
		return ErrAlreadyRegistered
	case err != nil && !errors.Is(err, users.ErrNotFound):
		return errors.Wrap(err, "[Service.Register] GetByEmail")
	}

	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return errors.Wrap(err, "[Service.Register] hash")
	}
	t, err := s.Tokens.Issue(ctx, email, ephemeral.TypeEmailVerification, ephemeral.Payload{
		payloadPasswordHash: hash,
		payloadRole:         string(role),
	})
	if err != nil {
		return errors.Wrap(err, "[Service.Register]")
	}
	return s.send(ctx, s.Composer.EmailVerification(email, t.Token))
}

func (s *Service) VerifyEmail(ctx context.Context, value string, client Client) (*AuthResult, error) {
	t, err := s.Tokens.Find(ctx, value, ephemeral.TypeEmailVerification)
	if err != nil {
		return nil, err
	}
	vi := identity.FromEmailVerification(t.Email, users.Role(t.Payload[payloadRole]), t.Payload[payloadPasswordHash])
	return s.signIn(ctx, vi, client, value)
}

func (s *Service) Login(ctx context.Context, email, password string, client Client) (*AuthResult, error) {
	u, err := s.Users.GetByEmail(ctx, users.NormalizeEmail(email))
	if errors.Is(err, users.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Login] GetByEmail")
	}

	switch {
	case !u.IsEmailVerified:
		return nil, ErrEmailNotVerified
	case !u.IsPasswordSet:
		return nil, ErrNoPasswordSet
	case !s.Hasher.Compare(password, u.PasswordHash):
		return nil, ErrIncorrectPassword
	}
	return s.signIn(ctx, identity.FromPassword(u.Email), client, "")
}

// RequestMagicLink mails a single-use sign-in link. role is only needed when
// the email has no account yet.
func (s *Service) RequestMagicLink(ctx context.Context, email string, role users.Role) error {
	email = users.NormalizeEmail(email)
	if role != "" && !role.Valid() {
		return apperrors.BadRequest("unknown role %q", role)
	}

	_, err := s.Users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, users.ErrNotFound):
		if role == "" {
			return ErrRoleRequired
		}
	case err != nil:
		return errors.Wrap(err, "[Service.RequestMagicLink] GetByEmail")
	}

	t, err := s.Tokens.Issue(ctx, email, ephemeral.TypeMagicLink, ephemeral.Payload{payloadRole: string(role)})
	if err != nil {
		return errors.Wrap(err, "[Service.RequestMagicLink]")
	}
	return s.send(ctx, s.Composer.MagicLink(email, t.Token))
}

func (s *Service) VerifyMagicLink(ctx context.Context, value string, client Client) (*AuthResult, error) {
	t, err := s.Tokens.Find(ctx, value, ephemeral.TypeMagicLink)
	if err != nil {
		return nil, err
	}
	vi := identity.FromMagicLink(t.Email, users.Role(t.Payload[payloadRole]))
	return s.signIn(ctx, vi, client, value)
}

// GoogleAuthURL returns the consent page URL. state is echoed back to the
// callback and may carry {"role": ...} for first sign in.
func (s *Service) GoogleAuthURL(state string) string {
	return s.Google.AuthCodeURL(state)
}

func (s *Service) GoogleCallback(ctx context.Context, code, state string, client Client) (*AuthResult, error) {
	claims, err := s.Google.ExchangeCode(ctx, code)
	if err != nil {
		return nil, googleFailure(err)
	}
	return s.googleSignIn(ctx, identity.StrategyGoogleCode, claims, state, client)
}

func (s *Service) GoogleIDTokenCallback(ctx context.Context, idToken, state string, client Client) (*AuthResult, error) {
	claims, err := s.Google.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, googleFailure(err)
	}
	return s.googleSignIn(ctx, identity.StrategyGoogleIDToken, claims, state, client)
}

func (s *Service) googleSignIn(ctx context.Context, strategy identity.Strategy, claims *google.Claims, state string, client Client) (*AuthResult, error) {
	if claims.Email == "" || !claims.EmailVerified {
		return nil, ErrGoogleEmail
	}
	role, err := roleFromState(state)
	if err != nil {
		return nil, err
	}
	return s.signIn(ctx, identity.FromGoogle(strategy, claims.Email, claims.Name, role), client, "")
}

func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email = users.NormalizeEmail(email)
	_, err := s.Users.GetByEmail(ctx, email)
	if errors.Is(err, users.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return errors.Wrap(err, "[Service.RequestPasswordReset] GetByEmail")
	}

	t, err := s.Tokens.Issue(ctx, email, ephemeral.TypePasswordReset, nil)
	if err != nil {
		return errors.Wrap(err, "[Service.RequestPasswordReset]")
	}
	return s.send(ctx, s.Composer.PasswordReset(email, t.Token))
}

// ConfirmPasswordReset sets a new password. Following the link proves the
// mailbox, so the email is marked verified too.
func (s *Service) ConfirmPasswordReset(ctx context.Context, value, password string) error {
	t, err := s.Tokens.Find(ctx, value, ephemeral.TypePasswordReset)
	if err != nil {
		return err
	}
	u, err := s.Users.GetByEmail(ctx, t.Email)
	if errors.Is(err, users.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return errors.Wrap(err, "[Service.ConfirmPasswordReset] GetByEmail")
	}
	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return errors.Wrap(err, "[Service.ConfirmPasswordReset] hash")
	}

	u.PasswordHash = hash
	u.IsPasswordSet = true
	u.IsEmailVerified = true
	if err := s.Users.Update(ctx, u); err != nil {
		return errors.Wrap(err, "[Service.ConfirmPasswordReset] Update")
	}

	// The token stays usable if the update failed. Of two racing
	// confirmations only one consumes; the other reports the token spent.
	return s.Tokens.Consume(ctx, value)
}

// Me returns the caller's user record. A token minted for a role the user no
// longer has is refused.
func (s *Service) Me(ctx context.Context, userID, role string) (*users.User, error) {
	u, err := s.Users.GetByID(ctx, userID)
	if errors.Is(err, users.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Me] GetByID")
	}
	if string(u.Role) != role {
		return nil, ErrRoleMismatch
	}
	return u, nil
}

func (s *Service) Refresh(ctx context.Context, sessionID, refreshToken string) (string, error) {
	return s.Sessions.Refresh(ctx, sessionID, refreshToken)
}

func (s *Service) Logout(ctx context.Context, sessionID string) error {
	return s.Sessions.Revoke(ctx, sessionID)
}

// LogoutAll revokes every session of the user owning the presented refresh
// token. The token's own session must still be live.
func (s *Service) LogoutAll(ctx context.Context, sessionID, refreshToken string) error {
	session, err := s.Sessions.Authenticate(ctx, sessionID, refreshToken)
	if err != nil {
		return err
	}
	return s.Sessions.RevokeAll(ctx, session.UserID)
}

func (s *Service) ListSessions(ctx context.Context, userID string) ([]*sessions.Session, error) {
	return s.Sessions.ListSessions(ctx, userID)
}

// signIn is where every strategy converges: resolve the identity, spend the
// ephemeral token if there was one, then open a session.
func (s *Service) signIn(ctx context.Context, vi identity.VerifiedIdentity, client Client, ephemeralToken string) (*AuthResult, error) {
	user, err := s.Resolver.Resolve(ctx, vi)
	if err != nil {
		return nil, err
	}
	if ephemeralToken != "" {
		if err := s.Tokens.Consume(ctx, ephemeralToken); err != nil {
			return nil, err
		}
	}

	creds, err := s.Sessions.CreateSession(ctx, user, client.IP, client.UserAgent)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Credentials: *creds, User: user}, nil
}

func (s *Service) send(ctx context.Context, msg mail.Message) error {
	if err := s.Mailer.Send(ctx, msg); err != nil {
		return apperrors.Internal(err, "could not send email")
	}
	return nil
}

func googleFailure(err error) error {
	return &apperrors.Error{Kind: apperrors.KindForbidden, Message: "google authentication failed", Err: err}
}

// roleFromState reads {"role": ...} from the OAuth state. A state that is
// empty, opaque or has no role means patient.
func roleFromState(state string) (users.Role, error) {
	var parsed struct {
		Role users.Role `json:"role"`
	}
	if err := json.Unmarshal([]byte(state), &parsed); err != nil || parsed.Role == "" {
		return users.RolePatient, nil
	}
	if !parsed.Role.Valid() {
		return "", ErrInvalidState
	}
	return parsed.Role, nil
}
