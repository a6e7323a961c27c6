// Package identity registers users, verifies credentials and resolves
// bearer tokens back to the user they were issued for.
package identity

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"budgetd/logging"
	"budgetd/models"
	"budgetd/pkg/apperr"
	"budgetd/store"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLength = 8
	// bcrypt ignores input past 72 bytes.
	MaxPasswordBytes  = 72
	MaxFullNameLength = 255
	MaxEmailLength    = 255
)

// Identity is the caller behind a valid access token.
type Identity struct {
	UserID uuid.UUID
	Email  string
}

// Session is the result of a successful login.
type Session struct {
	Token     string
	TokenType string
	ExpiresAt time.Time
}

type Service struct {
	users     store.Users
	tokens    *Tokens
	cost      int
	validate  *validator.Validate
	dummyHash []byte
	log       *logging.Logger
}

type Options struct {
	BcryptCost int
	Logger     *logging.Logger
}

func NewService(users store.Users, tokens *Tokens, opts Options) (*Service, error) {
	cost := opts.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	// compared against when the email is unknown so both failure paths cost the same
	dummy, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), cost)
	if err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	return &Service{
		users:     users,
		tokens:    tokens,
		cost:      cost,
		validate:  validator.New(),
		dummyHash: dummy,
		log:       log.WithComponent(logging.ComponentIdentity),
	}, nil
}

func (s *Service) validateRegistration(email, password, fullName string) error {
	verr := apperr.E(apperr.InvalidInput, "registration details are invalid")
	if email == "" {
		verr.WithField("email", "email is required")
	} else if len(email) > MaxEmailLength || s.validate.Var(email, "email") != nil {
		verr.WithField("email", "email must be a valid address")
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		verr.WithField("password", "password must be at least 8 characters")
	} else if len(password) > MaxPasswordBytes {
		verr.WithField("password", "password must be at most 72 bytes")
	}
	if n := utf8.RuneCountInString(fullName); n == 0 {
		verr.WithField("fullName", "full name is required")
	} else if n > MaxFullNameLength {
		verr.WithField("fullName", "full name must be at most 255 characters")
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

// Register creates a user. The email is matched exactly, so addresses
// differing only in case are distinct accounts.
func (s *Service) Register(ctx context.Context, email, password, fullName string) (*models.User, error) {
	email = strings.TrimSpace(email)
	fullName = strings.TrimSpace(fullName)
	if err := s.validateRegistration(email, password, fullName); err != nil {
		return nil, err
	}

	// pre-check existing (optimistic)
	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil, apperr.E(apperr.AlreadyExists, "email is already registered")
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Wrap(apperr.Internal, "could not register user", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "could not register user", err)
	}
	user := &models.User{ID: uuid.New(), Email: email, HashedPassword: hashed, FullName: fullName}
	if err := s.users.CreateUser(ctx, user); err != nil {
		// lost the race after the pre-check
		if cv, ok := store.AsViolation(err); ok && cv.Kind == store.UniqueViolation {
			return nil, apperr.E(apperr.AlreadyExists, "email is already registered")
		}
		return nil, apperr.Wrap(apperr.Internal, "could not register user", err)
	}
	s.log.InfoContext(ctx, "user registered", logging.FieldUserID, user.ID.String())
	return user, nil
}

// Authenticate checks the credentials and issues an access token. Unknown
// email and wrong password are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, email, password string) (Session, error) {
	email = strings.TrimSpace(email)
	invalid := apperr.E(apperr.InvalidCredentials, "incorrect email or password")

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return Session{}, apperr.Wrap(apperr.Internal, "could not authenticate", err)
		}
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return Session{}, invalid
	}
	if err := bcrypt.CompareHashAndPassword(user.HashedPassword, []byte(password)); err != nil {
		return Session{}, invalid
	}

	token, exp, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return Session{}, apperr.Wrap(apperr.Internal, "could not issue token", err)
	}
	return Session{Token: token, TokenType: "bearer", ExpiresAt: exp}, nil
}

// ResolveSession maps a bearer token to its user. Every failure, including a
// user deleted after the token was issued, is InvalidToken.
func (s *Service) ResolveSession(ctx context.Context, token string) (Identity, error) {
	invalid := apperr.E(apperr.InvalidToken, "could not validate credentials")
	if strings.TrimSpace(token) == "" {
		return Identity{}, invalid
	}
	userID, email, err := s.tokens.Parse(token)
	if err != nil {
		s.log.DebugContext(ctx, "token rejected", logging.FieldError, err.Error())
		invalid.Err = err
		return Identity{}, invalid
	}
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Identity{}, invalid
		}
		return Identity{}, apperr.Wrap(apperr.Internal, "could not validate credentials", err)
	}
	if email == "" {
		email = user.Email
	}
	return Identity{UserID: user.ID, Email: email}, nil
}

// User returns the account for an already resolved identity.
func (s *Service) User(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.E(apperr.NotFound, "user not found")
		}
		return nil, apperr.Wrap(apperr.Internal, "could not load user", err)
	}
	return user, nil
}

// DeleteAccount removes the user together with all of their budgets,
// incomes and expenses.
func (s *Service) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	if err := s.users.DeleteUser(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.E(apperr.NotFound, "user not found")
		}
		return apperr.Wrap(apperr.Internal, "could not delete account", err)
	}
	s.log.InfoContext(ctx, "account deleted", logging.FieldUserID, userID.String())
	return nil
}
