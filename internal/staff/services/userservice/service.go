package userservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/Leopold1975/staff_control/internal/staff/domain/models"
	"github.com/Leopold1975/staff_control/internal/staff/repository/userrepo"
	"github.com/Leopold1975/staff_control/pkg/logger"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNoUsers           = errors.New("no users found")
	ErrNotFound          = errors.New("user not found")
	ErrDuplicateUsername = errors.New("duplicate username")
	ErrHasNotes          = errors.New("user has assigned notes")
)

type UserService struct {
	userRepo Repository
	noteRepo NoteRepository
	lg       logger.Logger
}

type Repository interface {
	CreateUser(context.Context, models.User) (int64, error)
	GetUsers(context.Context) ([]models.User, error)
	GetUserByID(context.Context, int64) (models.User, error)
	UpdateUser(context.Context, models.User) error
	DeleteUser(context.Context, int64) (models.User, error)
	Shutdown(context.Context) error
}

type NoteRepository interface {
	CountByUser(context.Context, int64) (int64, error)
}

func New(userRepo Repository, noteRepo NoteRepository, lg logger.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		noteRepo: noteRepo,
		lg:       lg,
	}
}

func (us *UserService) GetUsers(ctx context.Context) ([]models.User, error) {
	users, err := us.userRepo.GetUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("get users error: %w", err)
	}

	if len(users) == 0 {
		return nil, ErrNoUsers
	}

	return users, nil
}

// CreateUser hashes the plaintext and persists a new record.
// Uniqueness of the username is enforced by the store, so two
// concurrent creates cannot both succeed.
func (us *UserService) CreateUser(ctx context.Context, req CreateUserRequest) (models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("generate from password error: %w", err)
	}

	u := models.User{ //nolint:exhaustruct
		Username:     req.Username,
		PasswordHash: string(hash),
		Roles:        req.Roles,
		Active:       false,
	}

	id, err := us.userRepo.CreateUser(ctx, u)
	if err != nil {
		if errors.Is(err, userrepo.ErrAleradyExists) {
			return models.User{}, ErrDuplicateUsername
		}

		return models.User{}, fmt.Errorf("create user error: %w", err)
	}

	u.ID = id

	us.lg.Infof("created user %s id %d", u.Username, u.ID)

	return u, nil
}

func (us *UserService) UpdateUser(ctx context.Context, req UpdateUserRequest) (models.User, error) {
	u, err := us.userRepo.GetUserByID(ctx, req.ID)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return models.User{}, ErrNotFound
		}

		return models.User{}, fmt.Errorf("get user error: %w", err)
	}

	u.Username = req.Username
	u.Roles = req.Roles
	u.Active = req.Active

	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return models.User{}, fmt.Errorf("generate from password error: %w", err)
		}

		u.PasswordHash = string(hash)
	}

	if err := us.userRepo.UpdateUser(ctx, u); err != nil {
		switch {
		case errors.Is(err, userrepo.ErrAleradyExists):
			return models.User{}, ErrDuplicateUsername
		case errors.Is(err, userrepo.ErrNotFound):
			return models.User{}, ErrNotFound
		default:
			return models.User{}, fmt.Errorf("update user error: %w", err)
		}
	}

	us.lg.Infof("updated user %s id %d", u.Username, u.ID)

	return u, nil
}

func (us *UserService) DeleteUser(ctx context.Context, id int64) (models.User, error) {
	count, err := us.noteRepo.CountByUser(ctx, id)
	if err != nil {
		return models.User{}, fmt.Errorf("count notes error: %w", err)
	}

	if count > 0 {
		return models.User{}, ErrHasNotes
	}

	u, err := us.userRepo.DeleteUser(ctx, id)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return models.User{}, ErrNotFound
		}

		return models.User{}, fmt.Errorf("delete user error: %w", err)
	}

	us.lg.Infof("deleted user %s id %d", u.Username, u.ID)

	return u, nil
}

func (us *UserService) Shutdown(ctx context.Context) error {
	if err := us.userRepo.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown user repo error: %w", err)
	}

	return nil
}
