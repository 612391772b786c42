package app

import (
	"context"
	"fmt"
	"time"

	"github.com/Leopold1975/staff_control/internal/pkg/config"
	"github.com/Leopold1975/staff_control/internal/staff/api/server"
	lr "github.com/Leopold1975/staff_control/internal/staff/repository/loginlimiter/redis"
	nr "github.com/Leopold1975/staff_control/internal/staff/repository/noterepo/postgres"
	ur "github.com/Leopold1975/staff_control/internal/staff/repository/userrepo/postgres"
	"github.com/Leopold1975/staff_control/internal/staff/services/authservice"
	"github.com/Leopold1975/staff_control/internal/staff/services/noteservice"
	"github.com/Leopold1975/staff_control/internal/staff/services/userservice"
	"github.com/Leopold1975/staff_control/pkg/logger"
)

type Server interface {
	Start(context.Context) error
	Shutdown(context.Context) error
}

type StaffApp struct {
	s           Server
	userService *userservice.UserService
	noteService *noteservice.NoteService
	lg          logger.Logger
	cfg         config.Config
}

func New(ctx context.Context, cfg config.Config) (StaffApp, error) {
	lg, err := logger.New(cfg.Logger)
	if err != nil {
		return StaffApp{}, fmt.Errorf("can't get logger error: %w", err)
	}

	userRepo, err := ur.New(ctx, cfg.PostgresDB)
	if err != nil {
		return StaffApp{}, fmt.Errorf("postgres user repo initializing error: %w", err)
	}

	noteRepo, err := nr.New(ctx, cfg.PostgresDB)
	if err != nil {
		return StaffApp{}, fmt.Errorf("postgres note repo initializing error: %w", err)
	}

	limiter, err := lr.New(ctx, cfg.RedisCache, cfg.Auth.AttemptWindow)
	if err != nil {
		return StaffApp{}, fmt.Errorf("redis login limiter initializing error: %w", err)
	}

	userService := userservice.New(userRepo, noteRepo, lg)
	noteService := noteservice.New(noteRepo, userRepo, lg)
	authService := authservice.New(userRepo, limiter, cfg.Auth, lg)

	s := server.New(cfg.Server, userService, noteService, authService, lg)

	return StaffApp{
		s:           s,
		userService: userService,
		noteService: noteService,
		lg:          lg,
		cfg:         cfg,
	}, nil
}

func (sa *StaffApp) Run(ctx context.Context) {
	sa.lg.Infof("STARTED SERVER ON %s", sa.cfg.Server.Addr)

	go func() {
		if err := sa.s.Start(ctx); err != nil {
			sa.lg.Errorf("server start error: %s", err.Error())

			return
		}
	}()

	<-ctx.Done()

	ctxS, cancel := context.WithTimeout(context.Background(), time.Second*5) //nolint:gomnd
	defer cancel()

	if err := sa.Stop(ctxS); err != nil { //nolint:contextcheck
		sa.lg.Errorf("server shutdown error: %s", err.Error())
	}
}

func (sa *StaffApp) Stop(ctx context.Context) error {
	if err := sa.s.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if err := sa.userService.Shutdown(ctx); err != nil {
		return fmt.Errorf("user service shutdown error: %w", err)
	}

	if err := sa.noteService.Shutdown(ctx); err != nil {
		return fmt.Errorf("note service shutdown error: %w", err)
	}

	sa.lg.Info("Shutdowned successfully")

	return nil
}
