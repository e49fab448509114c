package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"moneta/internal/amqp"
	"moneta/internal/auth"
	"moneta/internal/core"
	"moneta/internal/storage"
)

const (
	PurposeVerifyEmail   = "verify_email"
	PurposeResetPassword = "reset_password"

	verificationTTL = 24 * time.Hour
	resetTTL        = time.Hour
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrEmailTaken         = errors.New("email already registered")
	ErrNotVerified        = errors.New("email not verified")
	ErrTokenInvalid       = errors.New("verification token invalid or expired")
)

// UserStore is the storage surface for accounts and verification tokens
type UserStore interface {
	CreateUser(ctx context.Context, u core.User) (core.User, error)
	GetUserByEmail(ctx context.Context, email string) (core.User, error)
	GetUserByID(ctx context.Context, id string) (core.User, error)
	MarkUserVerified(ctx context.Context, id string) error
	UpdateUserPassword(ctx context.Context, id, passwordHash string) error
	CreateVerification(ctx context.Context, v storage.VerificationToken) error
	GetVerification(ctx context.Context, token string) (storage.VerificationToken, error)
	DeleteVerification(ctx context.Context, token string) error
}

// AuthService handles signup, login, email verification and password resets.
// Verification and reset emails go through the notification queue; a broker
// outage never blocks the account operation itself.
type AuthService struct {
	store     UserStore
	hasher    *auth.Hasher
	tokens    *auth.TokenManager
	publisher NotificationPublisher
	now       func() time.Time
}

func NewAuthService(store UserStore, hasher *auth.Hasher, tokens *auth.TokenManager, publisher NotificationPublisher) *AuthService {
	return &AuthService{
		store:     store,
		hasher:    hasher,
		tokens:    tokens,
		publisher: publisher,
		now:       time.Now,
	}
}

// Signup registers an account and queues a verification email
func (s *AuthService) Signup(ctx context.Context, email, password, name string) (core.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return core.User{}, ErrInvalidEmail
	}

	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return core.User{}, ErrEmailTaken
	} else if !errors.Is(err, core.ErrNotFound) {
		return core.User{}, fmt.Errorf("check existing email: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return core.User{}, err
	}

	user, err := s.store.CreateUser(ctx, core.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(name),
	})
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "User signed up",
		"user_id", user.ID,
		"email", user.Email)

	if err := s.issueToken(ctx, user.ID, PurposeVerifyEmail, verificationTTL); err != nil {
		slog.WarnContext(ctx, "Failed to queue verification email",
			"user_id", user.ID,
			"error", err)
	}

	return user, nil
}

// issueToken stores a verification token and queues the matching email
func (s *AuthService) issueToken(ctx context.Context, userID, purpose string, ttl time.Duration) error {
	token := uuid.NewString()
	err := s.store.CreateVerification(ctx, storage.VerificationToken{
		Token:     token,
		UserID:    userID,
		Purpose:   purpose,
		ExpiresAt: s.now().Add(ttl),
	})
	if err != nil {
		return fmt.Errorf("store verification token: %w", err)
	}

	if s.publisher == nil {
		return nil
	}

	var msg *amqp.NotificationMessage
	if purpose == PurposeResetPassword {
		msg = amqp.NewResetPasswordMessage(userID, token)
	} else {
		msg = amqp.NewVerifyEmailMessage(userID, token)
	}
	if err := s.publisher.PublishNotification(ctx, msg); err != nil {
		return fmt.Errorf("queue email: %w", err)
	}
	return nil
}

// VerifyEmail consumes a verification token and marks the account verified
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	v, err := s.store.GetVerification(ctx, token)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return ErrTokenInvalid
		}
		return err
	}
	if v.Purpose != PurposeVerifyEmail || s.now().After(v.ExpiresAt) {
		return ErrTokenInvalid
	}

	if err := s.store.MarkUserVerified(ctx, v.UserID); err != nil {
		return fmt.Errorf("mark verified: %w", err)
	}
	if err := s.store.DeleteVerification(ctx, token); err != nil {
		slog.WarnContext(ctx, "Failed to delete used verification token",
			"user_id", v.UserID,
			"error", err)
	}

	slog.InfoContext(ctx, "Email verified", "user_id", v.UserID)
	return nil
}

// Login checks credentials and issues a session token
func (s *AuthService) Login(ctx context.Context, email, password string) (string, core.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return "", core.User{}, ErrInvalidCredentials
		}
		return "", core.User{}, err
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return "", core.User{}, ErrInvalidCredentials
	}
	if !user.Verified {
		return "", core.User{}, ErrNotVerified
	}

	token, err := s.tokens.Issue(user.ID, user.Admin)
	if err != nil {
		return "", core.User{}, fmt.Errorf("issue session token: %w", err)
	}

	slog.InfoContext(ctx, "User logged in", "user_id", user.ID)
	return token, user, nil
}

// RequestPasswordReset queues a reset email. It reports success even when
// the address is unknown, so callers cannot probe for accounts.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			slog.InfoContext(ctx, "Password reset requested for unknown email")
			return nil
		}
		return err
	}

	if err := s.issueToken(ctx, user.ID, PurposeResetPassword, resetTTL); err != nil {
		slog.WarnContext(ctx, "Failed to queue reset email",
			"user_id", user.ID,
			"error", err)
	}
	return nil
}

// ResetPassword consumes a reset token and replaces the password
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	v, err := s.store.GetVerification(ctx, token)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return ErrTokenInvalid
		}
		return err
	}
	if v.Purpose != PurposeResetPassword || s.now().After(v.ExpiresAt) {
		return ErrTokenInvalid
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	if err := s.store.UpdateUserPassword(ctx, v.UserID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if err := s.store.DeleteVerification(ctx, token); err != nil {
		slog.WarnContext(ctx, "Failed to delete used reset token",
			"user_id", v.UserID,
			"error", err)
	}

	slog.InfoContext(ctx, "Password reset", "user_id", v.UserID)
	return nil
}

// Authenticate verifies a session token and loads the account behind it
func (s *AuthService) Authenticate(ctx context.Context, token string) (core.User, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return core.User{}, err
	}

	user, err := s.store.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.User{}, auth.ErrInvalidToken
		}
		return core.User{}, err
	}
	return user, nil
}
