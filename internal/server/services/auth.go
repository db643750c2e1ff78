// Package services contains server-side business logic. This file implements
// AuthService: account registration, credential checks, session tokens and
// the password reset workflow.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/yapplr/yapplr/internal/common"
	"github.com/yapplr/yapplr/internal/dbx"
	"github.com/yapplr/yapplr/internal/logging"
	"github.com/yapplr/yapplr/internal/server/auth"
	"github.com/yapplr/yapplr/internal/server/mail"
	"github.com/yapplr/yapplr/internal/server/models"
	"github.com/yapplr/yapplr/internal/server/repositories/repomanager"
)

const (
	resetTokenBytes = 32
	minUsernameLen  = 3
	maxUsernameLen  = 50
)

// LoginLimiter tracks failed logins per email.
type LoginLimiter interface {
	Check(ctx context.Context, key string) error
	Failure(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}

// AuthMetrics receives auth events and reset email failures.
type AuthMetrics interface {
	AuthEvent(event, outcome string)
	ResetMailFailed()
}

// RegisterInput carries the registration form. Profile fields are optional.
type RegisterInput struct {
	Email    string
	Username string
	Password string
	Bio      string
	Birthday *time.Time
	Pronouns string
	Tagline  string
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	Account   *models.Account
}

// AuthDeps are the collaborators of AuthService. Limiter and Metrics may be
// nil.
type AuthDeps struct {
	DB           dbx.DBTX
	Tx           dbx.Transactor
	Repos        repomanager.RepositoryManager
	Tokens       *auth.TokenIssuer
	Hasher       *auth.PasswordHasher
	Mailer       mail.Sender
	Limiter      LoginLimiter
	Metrics      AuthMetrics
	Logger       logging.Logger
	ResetLinkURL string
}

type AuthService struct {
	db           dbx.DBTX
	tx           dbx.Transactor
	repomanager  repomanager.RepositoryManager
	tokens       *auth.TokenIssuer
	hasher       *auth.PasswordHasher
	mailer       mail.Sender
	limiter      LoginLimiter
	metrics      AuthMetrics
	log          logging.Logger
	resetLinkURL string
	now          func() time.Time

	dummyHash string
}

func NewAuthService(d AuthDeps) (*AuthService, error) {
	log := d.Logger
	if log == nil {
		log = logging.Nop()
	}
	// Unknown emails are verified against this hash so they cost one bcrypt
	// comparison, the same as a wrong password.
	dummy, err := d.Hasher.Hash(dummySecret())
	if err != nil {
		return nil, fmt.Errorf("build dummy password hash: %w", err)
	}
	return &AuthService{
		db:           d.DB,
		tx:           d.Tx,
		repomanager:  d.Repos,
		tokens:       d.Tokens,
		hasher:       d.Hasher,
		mailer:       d.Mailer,
		limiter:      d.Limiter,
		metrics:      d.Metrics,
		log:          log.With("component", "auth"),
		resetLinkURL: d.ResetLinkURL,
		now:          time.Now,
		dummyHash:    dummy,
	}, nil
}

// Register creates an account and signs the caller in. A taken email or
// username yields common.ErrConflict without saying which.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := common.NormalizeEmail(in.Email)
	username := strings.TrimSpace(in.Username)
	if err := validateRegistration(email, username, in.Password); err != nil {
		return nil, err
	}

	repo := s.repomanager.Accounts(s.db)
	if exists, err := repo.ExistsByEmail(ctx, email); err != nil {
		return nil, s.internal(ctx, "check email", err)
	} else if exists {
		s.event("register", "conflict")
		return nil, common.ErrConflict
	}
	if exists, err := repo.ExistsByUsername(ctx, username); err != nil {
		return nil, s.internal(ctx, "check username", err)
	} else if exists {
		s.event("register", "conflict")
		return nil, common.ErrConflict
	}

	hash, err := s.HashPassword(in.Password)
	if err != nil {
		return nil, s.internal(ctx, "hash password", err)
	}

	now := s.now().UTC()
	account := &models.Account{
		ID:           uuid.NewString(),
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		Bio:          in.Bio,
		Birthday:     in.Birthday,
		Pronouns:     in.Pronouns,
		Tagline:      in.Tagline,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	// The unique indexes catch a concurrent registration that slipped past
	// the checks above.
	if err := repo.Create(ctx, account); err != nil {
		if errors.Is(err, common.ErrConflict) {
			s.event("register", "conflict")
			return nil, common.ErrConflict
		}
		return nil, s.internal(ctx, "create account", err)
	}

	res, err := s.authResult(ctx, account)
	if err != nil {
		return nil, err
	}
	s.log.Info(ctx, "account registered", "account_id", account.ID)
	s.event("register", "success")
	return res, nil
}

// Login checks credentials. Unknown email and wrong password both yield
// common.ErrorUnauthorized after one bcrypt comparison.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = common.NormalizeEmail(email)

	if err := s.limiterCheck(ctx, email); err != nil {
		s.event("login", "throttled")
		return nil, err
	}

	account, err := s.repomanager.Accounts(s.db).GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			return nil, s.internal(ctx, "load account", err)
		}
		s.hasher.Verify(password, s.dummyHash)
		s.loginFailed(ctx, email)
		return nil, common.ErrorUnauthorized
	}

	if !s.VerifyPassword(password, account.PasswordHash) {
		s.loginFailed(ctx, email)
		return nil, common.ErrorUnauthorized
	}

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, email); err != nil {
			s.log.Warn(ctx, "login throttle reset failed", "error", err)
		}
	}
	s.event("login", "success")
	return s.authResult(ctx, account)
}

// IssueSessionToken signs a session token for account.
func (s *AuthService) IssueSessionToken(account *models.Account) (string, time.Time, error) {
	return s.tokens.Issue(account)
}

func (s *AuthService) HashPassword(plain string) (string, error) {
	return s.hasher.Hash(plain)
}

func (s *AuthService) VerifyPassword(plain, hash string) bool {
	return s.hasher.Verify(plain, hash)
}

// RequestPasswordReset issues a fresh reset token for the account with
// email, superseding any earlier one, and mails a link built from
// resetLinkBase. It reports true whether or not the account exists.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email, resetLinkBase string) (bool, error) {
	email = common.NormalizeEmail(email)
	if resetLinkBase == "" {
		resetLinkBase = s.resetLinkURL
	}

	account, err := s.repomanager.Accounts(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.event("reset_request", "unknown_email")
			return true, nil
		}
		return false, s.internal(ctx, "load account", err)
	}

	token, err := common.MakeRandURLToken(resetTokenBytes)
	if err != nil {
		return false, s.internal(ctx, "generate reset token", err)
	}
	link, err := resetLink(resetLinkBase, token)
	if err != nil {
		return false, s.internal(ctx, "build reset link", err)
	}

	now := s.now().UTC()
	err = s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		// Serializes concurrent requests for the same account.
		if err := s.repomanager.Accounts(tx).LockForUpdate(ctx, account.ID); err != nil {
			return err
		}
		tokens := s.repomanager.ResetTokens(tx)
		n, err := tokens.InvalidateForAccount(ctx, account.ID, now)
		if err != nil {
			return err
		}
		if n > 0 {
			s.log.Debug(ctx, "superseded reset tokens", "account_id", account.ID, "count", n)
		}
		return tokens.Create(ctx, &models.PasswordResetToken{
			ID:        uuid.NewString(),
			AccountID: account.ID,
			Token:     token,
			ExpiresAt: now.Add(common.ResetTokenValidity),
			CreatedAt: now,
		})
	})
	if err != nil {
		return false, s.internal(ctx, "store reset token", err)
	}
	s.log.Info(ctx, "password reset requested", "account_id", account.ID)
	s.event("reset_request", "issued")

	s.sendResetMail(ctx, account, link)
	return true, nil
}

// ResetPassword consumes an active reset token and sets a new password.
// Unknown, used and expired tokens all yield common.ErrInvalidOrExpired.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) (bool, error) {
	if token == "" {
		return false, common.ErrInvalidOrExpired
	}
	if err := validatePassword(newPassword); err != nil {
		return false, err
	}

	hash, err := s.HashPassword(newPassword)
	if err != nil {
		return false, s.internal(ctx, "hash password", err)
	}

	now := s.now().UTC()
	var accountID string
	err = s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		tokens := s.repomanager.ResetTokens(tx)
		rt, err := tokens.FindActiveByToken(ctx, token, now)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrInvalidOrExpired
			}
			return err
		}
		accountID = rt.AccountID
		if err := s.repomanager.Accounts(tx).UpdatePasswordHash(ctx, rt.AccountID, hash, now); err != nil {
			return err
		}
		if err := tokens.MarkUsed(ctx, rt.ID, now); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrInvalidOrExpired
			}
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrInvalidOrExpired) {
			s.event("reset_password", "invalid_token")
			return false, err
		}
		return false, s.internal(ctx, "reset password", err)
	}

	s.log.Info(ctx, "password reset completed", "account_id", accountID)
	s.event("reset_password", "success")
	return true, nil
}

// CurrentAccount loads the account a session token was issued for.
func (s *AuthService) CurrentAccount(ctx context.Context, accountID string) (*models.Account, error) {
	account, err := s.repomanager.Accounts(s.db).GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, s.internal(ctx, "load account", err)
	}
	return account, nil
}

// --- helpers below ---

func (s *AuthService) authResult(ctx context.Context, account *models.Account) (*AuthResult, error) {
	token, exp, err := s.IssueSessionToken(account)
	if err != nil {
		return nil, s.internal(ctx, "issue session token", err)
	}
	return &AuthResult{Token: token, ExpiresAt: exp, Account: account}, nil
}

func (s *AuthService) sendResetMail(ctx context.Context, account *models.Account, link string) {
	msg, err := mail.RenderPasswordReset(link, account.Username)
	if err == nil {
		msg.To = account.Email
		err = s.mailer.Send(ctx, msg)
	}
	if err != nil {
		s.log.Error(ctx, "reset email not sent", "account_id", account.ID, "error", err)
		if s.metrics != nil {
			s.metrics.ResetMailFailed()
		}
	}
}

// limiterCheck fails open when the throttle store is unavailable.
func (s *AuthService) limiterCheck(ctx context.Context, email string) error {
	if s.limiter == nil {
		return nil
	}
	err := s.limiter.Check(ctx, email)
	if err == nil || errors.Is(err, common.ErrTooManyAttempts) {
		return err
	}
	s.log.Warn(ctx, "login throttle unavailable", "error", err)
	return nil
}

func (s *AuthService) loginFailed(ctx context.Context, email string) {
	s.log.Info(ctx, "login failed")
	s.event("login", "failure")
	if s.limiter == nil {
		return
	}
	if err := s.limiter.Failure(ctx, email); err != nil {
		s.log.Warn(ctx, "login throttle update failed", "error", err)
	}
}

// dummySecret is a test seam.
var dummySecret = uuid.NewString

func (s *AuthService) event(event, outcome string) {
	if s.metrics != nil {
		s.metrics.AuthEvent(event, outcome)
	}
}

func (s *AuthService) internal(ctx context.Context, op string, err error) error {
	s.log.Error(ctx, op+" failed", "error", err)
	return common.ErrorInternal
}

func validateRegistration(email, username, password string) error {
	if email == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("%w: a valid email is required", common.ErrValidation)
	}
	if n := utf8.RuneCountInString(username); n < minUsernameLen || n > maxUsernameLen {
		return fmt.Errorf("%w: username must be %d-%d characters", common.ErrValidation, minUsernameLen, maxUsernameLen)
	}
	return validatePassword(password)
}

// validatePassword rejects what bcrypt cannot hash: the limit is in bytes, so
// a short password of multi-byte runes can still be too long.
func validatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("%w: password is required", common.ErrValidation)
	}
	if len(password) > common.MaxPasswordBytes {
		return fmt.Errorf("%w: password must be at most %d bytes", common.ErrValidation, common.MaxPasswordBytes)
	}
	return nil
}

func resetLink(base, token string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
