package auth

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"relay/infrastructure"
	"relay/internal/auth/verification"
	"relay/internal/media"
	"relay/internal/user"
)

//go:generate mockgen -destination=mocks/notifier.go -package=mocks relay/internal/auth Notifier

type Notifier interface {
	SendPasswordChangedEmail(to, name string) error
}

type SignupInput struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Service struct {
	users    user.Store
	creds    *Credentials
	uploader media.Uploader
	codes    *verification.Service
	notifier Notifier
	log      logrus.FieldLogger
	now      func() time.Time
}

func NewService(
	users user.Store,
	creds *Credentials,
	uploader media.Uploader,
	codes *verification.Service,
	notifier Notifier,
	log logrus.FieldLogger,
) *Service {
	return &Service{
		users:    users,
		creds:    creds,
		uploader: uploader,
		codes:    codes,
		notifier: notifier,
		log:      log.WithField("component", "auth"),
		now:      time.Now,
	}
}

// Signup creates an account and returns it with a fresh session token.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*user.User, string, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, "", err
	}
	if in.FullName == "" {
		return nil, "", errors.Wrap(infrastructure.ErrInvalidInput, "full name is required")
	}
	if err := s.creds.CheckPassword(in.Password); err != nil {
		return nil, "", err
	}

	hash, err := s.creds.HashPassword(in.Password)
	if err != nil {
		return nil, "", err
	}
	now := s.now().UTC()
	u := &user.User{
		ID:           uuid.New(),
		Email:        email,
		FullName:     in.FullName,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, "", err
	}

	token, err := s.creds.IssueSessionToken(u.ID)
	if err != nil {
		return nil, "", err
	}
	s.log.WithField("user_id", u.ID).Info("user signed up")
	return u, token, nil
}

// Login reports ErrUnauthenticated for both unknown emails and wrong passwords.
func (s *Service) Login(ctx context.Context, email, password string) (*user.User, string, error) {
	u, err := s.users.ByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, infrastructure.ErrNotFound) {
		return nil, "", errors.Wrap(infrastructure.ErrUnauthenticated, "invalid credentials")
	}
	if err != nil {
		return nil, "", err
	}
	if !s.creds.VerifyPassword(password, u.PasswordHash) {
		return nil, "", errors.Wrap(infrastructure.ErrUnauthenticated, "invalid credentials")
	}

	token, err := s.creds.IssueSessionToken(u.ID)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *Service) User(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return s.users.ByID(ctx, id)
}

// UpdateProfilePic uploads a new profile picture for the user.
func (s *Service) UpdateProfilePic(ctx context.Context, id uuid.UUID, payload string) (*user.User, error) {
	if payload == "" {
		return nil, errors.Wrap(infrastructure.ErrInvalidInput, "profile picture is required")
	}
	url, err := s.uploader.Upload(ctx, payload, media.KindProfile)
	if err != nil {
		return nil, err
	}
	return s.users.UpdateProfilePic(ctx, id, url)
}

// SendResetCode mails a one-time code to a registered email.
func (s *Service) SendResetCode(ctx context.Context, email string) error {
	u, err := s.users.ByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return err
	}
	if _, err := s.codes.IssueCode(ctx, u.Email); err != nil {
		return err
	}
	s.log.WithField("user_id", u.ID).Info("password reset code issued")
	return nil
}

// VerifyResetCode checks a code without consuming it.
func (s *Service) VerifyResetCode(ctx context.Context, email, code string) error {
	res, err := s.codes.Check(ctx, email, code)
	if err != nil {
		return err
	}
	return res.Err()
}

// ChangePassword redeems the reset code and replaces the password.
func (s *Service) ChangePassword(ctx context.Context, email, code, password string) error {
	if err := s.creds.CheckPassword(password); err != nil {
		return err
	}
	u, err := s.users.ByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return err
	}

	res, err := s.codes.RedeemCode(ctx, u.Email, code)
	if err != nil {
		return err
	}
	if err := res.Err(); err != nil {
		return err
	}

	hash, err := s.creds.HashPassword(password)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, u.ID, hash); err != nil {
		return err
	}

	if err := s.notifier.SendPasswordChangedEmail(u.Email, u.FullName); err != nil {
		s.log.WithError(err).WithField("user_id", u.ID).Warn("password change notice not sent")
	}
	s.log.WithField("user_id", u.ID).Info("password changed")
	return nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", errors.Wrap(infrastructure.ErrInvalidInput, "invalid email")
	}
	return email, nil
}
