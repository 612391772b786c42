package authservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/Leopold1975/staff_control/internal/pkg/config"
	"github.com/Leopold1975/staff_control/internal/pkg/jwtauth"
	"github.com/Leopold1975/staff_control/internal/staff/domain/models"
	"github.com/Leopold1975/staff_control/pkg/logger"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTooManyAttempts    = errors.New("too many login attempts")
)

type AuthService struct {
	userRepo Repository
	limiter  Limiter
	cfg      config.Auth
	lg       logger.Logger
}

type Repository interface {
	GetUser(context.Context, string) (models.User, error)
}

// Limiter counts login attempts per username; Reset drops the counter
// after a successful login.
type Limiter interface {
	Inc(context.Context, string) (int64, error)
	Reset(context.Context, string) error
}

func New(userRepo Repository, limiter Limiter, cfg config.Auth, lg logger.Logger) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		limiter:  limiter,
		cfg:      cfg,
		lg:       lg,
	}
}

func (as *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	attempts, err := as.limiter.Inc(ctx, username)
	if err != nil {
		return "", fmt.Errorf("limiter error: %w", err)
	}

	if as.cfg.AttemptLimit > 0 && attempts > as.cfg.AttemptLimit {
		as.lg.Warnf("login throttled for %s after %d attempts", username, attempts)

		return "", ErrTooManyAttempts
	}

	u, err := as.userRepo.GetUser(ctx, username)
	if err != nil {
		as.lg.Infof("login failed for %s: %s", username, err.Error())

		return "", ErrInvalidCredentials
	}

	if !u.Active {
		return "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	if err := as.limiter.Reset(ctx, username); err != nil {
		as.lg.Errorf("limiter reset error: %s", err.Error())
	}

	token, err := jwtauth.GetToken(u, as.cfg.TTL, as.cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("can't get token error: %w", err)
	}

	return token, nil
}
