package noteservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/Leopold1975/staff_control/internal/staff/domain/models"
	"github.com/Leopold1975/staff_control/internal/staff/repository/noterepo"
	"github.com/Leopold1975/staff_control/internal/staff/repository/userrepo"
	"github.com/Leopold1975/staff_control/pkg/logger"
)

var (
	ErrNoNotes      = errors.New("no notes found")
	ErrNotFound     = errors.New("note not found")
	ErrUserNotFound = errors.New("note user not found")
)

type NoteService struct {
	noteRepo Repository
	userRepo UserRepository
	lg       logger.Logger
}

type Repository interface {
	CreateNote(context.Context, models.Note) (int64, error)
	GetNotes(context.Context) ([]models.Note, error)
	UpdateNote(context.Context, models.Note) error
	DeleteNote(context.Context, int64) (models.Note, error)
	Shutdown(context.Context) error
}

type UserRepository interface {
	GetUserByID(context.Context, int64) (models.User, error)
}

func New(noteRepo Repository, userRepo UserRepository, lg logger.Logger) *NoteService {
	return &NoteService{
		noteRepo: noteRepo,
		userRepo: userRepo,
		lg:       lg,
	}
}

func (ns *NoteService) GetNotes(ctx context.Context) ([]models.Note, error) {
	notes, err := ns.noteRepo.GetNotes(ctx)
	if err != nil {
		return nil, fmt.Errorf("get notes error: %w", err)
	}

	if len(notes) == 0 {
		return nil, ErrNoNotes
	}

	return notes, nil
}

func (ns *NoteService) CreateNote(ctx context.Context, req CreateNoteRequest) (int64, error) {
	if _, err := ns.userRepo.GetUserByID(ctx, req.UserID); err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return 0, ErrUserNotFound
		}

		return 0, fmt.Errorf("get user error: %w", err)
	}

	n := models.Note{ //nolint:exhaustruct
		UserID: req.UserID,
		Title:  req.Title,
		Text:   req.Text,
	}

	id, err := ns.noteRepo.CreateNote(ctx, n)
	if err != nil {
		return 0, fmt.Errorf("create note error: %w", err)
	}

	ns.lg.Infof("created note %d for user %d", id, req.UserID)

	return id, nil
}

func (ns *NoteService) UpdateNote(ctx context.Context, req UpdateNoteRequest) error {
	if _, err := ns.userRepo.GetUserByID(ctx, req.UserID); err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return ErrUserNotFound
		}

		return fmt.Errorf("get user error: %w", err)
	}

	n := models.Note{ //nolint:exhaustruct
		ID:        req.ID,
		UserID:    req.UserID,
		Title:     req.Title,
		Text:      req.Text,
		Completed: req.Completed,
	}

	if err := ns.noteRepo.UpdateNote(ctx, n); err != nil {
		if errors.Is(err, noterepo.ErrNotFound) {
			return ErrNotFound
		}

		return fmt.Errorf("update note error: %w", err)
	}

	return nil
}

func (ns *NoteService) DeleteNote(ctx context.Context, id int64) (models.Note, error) {
	n, err := ns.noteRepo.DeleteNote(ctx, id)
	if err != nil {
		if errors.Is(err, noterepo.ErrNotFound) {
			return models.Note{}, ErrNotFound
		}

		return models.Note{}, fmt.Errorf("delete note error: %w", err)
	}

	ns.lg.Infof("deleted note %d", n.ID)

	return n, nil
}

func (ns *NoteService) Shutdown(ctx context.Context) error {
	if err := ns.noteRepo.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown note repo error: %w", err)
	}

	return nil
}
