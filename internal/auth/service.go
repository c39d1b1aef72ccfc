package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/sazalo101/mindis/internal/models"
)

const MinPasswordLength = 6

// UserStore persists user identities. CreateUser must return
// models.ErrDuplicateIdentity when the username or email is taken, and the
// lookups must return models.ErrNotFound for unknown users.
type UserStore interface {
	CreateUser(ctx context.Context, username, email, passwordHash string) (int64, error)
	UserByUsername(ctx context.Context, username string) (models.User, error)
	UserByID(ctx context.Context, id int64) (models.User, error)
}

// Service is the credential store: registration, verification and lookup.
type Service struct {
	store  UserStore
	hasher *Hasher
	logger *slog.Logger

	dummyOnce sync.Once
	dummyHash string
}

func NewService(store UserStore, hasher *Hasher, logger *slog.Logger) *Service {
	if hasher == nil {
		hasher = NewHasher(DefaultParams)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, hasher: hasher, logger: logger}
}

func (s *Service) CreateUser(ctx context.Context, username, email, password string) (int64, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return 0, fmt.Errorf("%w: username, email and password are required", models.ErrInvalidArgument)
	}
	if len(password) < MinPasswordLength {
		return 0, fmt.Errorf("%w: password must be at least %d characters", models.ErrInvalidArgument, MinPasswordLength)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	id, err := s.store.CreateUser(ctx, username, email, hash)
	if err != nil {
		if errors.Is(err, models.ErrDuplicateIdentity) {
			return 0, models.ErrDuplicateIdentity
		}
		return 0, fmt.Errorf("create user: %w", err)
	}
	s.logger.Info("user registered", "user_id", id)
	return id, nil
}

// Verify checks a username/password pair. Unknown users and wrong passwords
// both yield models.ErrAuthFailure after the same amount of hashing work.
func (s *Service) Verify(ctx context.Context, username, password string) (models.User, error) {
	user, err := s.store.UserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			_, _ = s.hasher.Compare(s.dummy(), password)
			return models.User{}, models.ErrAuthFailure
		}
		return models.User{}, fmt.Errorf("load user: %w", err)
	}

	ok, err := s.hasher.Compare(user.PasswordHash, password)
	if err != nil {
		s.logger.Error("stored password hash unreadable", "user_id", user.ID, "error", err)
		return models.User{}, models.ErrAuthFailure
	}
	if !ok {
		return models.User{}, models.ErrAuthFailure
	}
	return user, nil
}

func (s *Service) GetUser(ctx context.Context, id int64) (models.User, error) {
	if id < 1 {
		return models.User{}, fmt.Errorf("%w: user id must be positive", models.ErrInvalidArgument)
	}
	user, err := s.store.UserByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.User{}, models.ErrNotFound
		}
		return models.User{}, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

func (s *Service) dummy() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("mindi-dummy-password")
		if err != nil {
			s.logger.Error("dummy hash failed", "error", err)
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}
