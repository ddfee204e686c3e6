package account

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medbook/bookd/internal/platform/apperror"
	"github.com/medbook/bookd/internal/platform/auth"
)

// unactivatedTTL is how long a registration may sit unconfirmed before
// the purge job removes it.
const unactivatedTTL = 3 * 24 * time.Hour

// Notifier enqueues a message for asynchronous delivery.
type Notifier interface {
	Enqueue(ctx context.Context, recipient, subject, body string) error
}

type Service struct {
	users    Repository
	tokens   *auth.TokenIssuer
	notifier Notifier
	logger   zerolog.Logger
}

func NewService(users Repository, tokens *auth.TokenIssuer, notifier Notifier, logger zerolog.Logger) *Service {
	return &Service{users: users, tokens: tokens, notifier: notifier, logger: logger}
}

// RegisterInput carries a signup request.
type RegisterInput struct {
	Login    string `json:"login"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Register creates an inactive account and mails out its activation
// key. The account cannot authenticate until activated.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	login := strings.TrimSpace(strings.ToLower(in.Login))
	if login == "" || !strings.Contains(login, "@") {
		return nil, apperror.E(apperror.BadRequest, "login must be a mail address")
	}
	if len(in.Password) < 8 {
		return nil, apperror.E(apperror.BadRequest, "password must be at least 8 characters")
	}
	if _, err := s.users.GetByLogin(ctx, login); err == nil {
		return nil, apperror.E(apperror.AlreadyExists, "login already registered")
	} else if apperror.KindOf(err) != apperror.NotFound {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, "hash password", err)
	}
	key, err := newActivationKey()
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, "generate activation key", err)
	}

	u := &User{
		Login:         login,
		PasswordHash:  hash,
		Name:          in.Name,
		Roles:         []string{"user"},
		Activated:     false,
		ActivationKey: &key,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	if err := s.notifier.Enqueue(ctx, login, "Activate your account",
		fmt.Sprintf("Your activation key is %s.", key)); err != nil {
		s.logger.Warn().Err(err).Msg("enqueue activation mail failed")
	}
	return u, nil
}

// Activate flips an account to active by its one-time key.
func (s *Service) Activate(ctx context.Context, key string) error {
	if key == "" {
		return apperror.E(apperror.BadRequest, "activation key is required")
	}
	u, err := s.users.GetByActivationKey(ctx, key)
	if err != nil {
		return err
	}
	return s.users.Activate(ctx, u.ID)
}

// Authenticate checks credentials and returns a signed token.
func (s *Service) Authenticate(ctx context.Context, login, password string) (string, error) {
	u, err := s.users.GetByLogin(ctx, login)
	if err != nil {
		if apperror.KindOf(err) == apperror.NotFound {
			return "", apperror.E(apperror.BadRequest, "invalid credentials")
		}
		return "", err
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return "", apperror.E(apperror.BadRequest, "invalid credentials")
	}
	if !u.Activated {
		return "", apperror.E(apperror.BadRequest, "account is not activated")
	}
	return s.tokens.Issue(u.ID, u.Roles)
}

// Get returns the account of the authenticated caller.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, id)
}

// PurgeUnactivated removes accounts that never confirmed within the
// activation window. Wired to the daily cron job.
func (s *Service) PurgeUnactivated(ctx context.Context, now time.Time) error {
	n, err := s.users.DeleteNotActivated(ctx, now.Add(-unactivatedTTL))
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Info().Int64("purged", n).Msg("removed unactivated accounts")
	}
	return nil
}

func newActivationKey() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
