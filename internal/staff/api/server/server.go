package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Leopold1975/staff_control/internal/pkg/config"
	"github.com/Leopold1975/staff_control/internal/staff/domain/models"
	"github.com/Leopold1975/staff_control/internal/staff/services/authservice"
	"github.com/Leopold1975/staff_control/internal/staff/services/noteservice"
	"github.com/Leopold1975/staff_control/internal/staff/services/userservice"
	"github.com/Leopold1975/staff_control/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type Server struct {
	serv        *http.Server
	userService UserService
	noteService NoteService
	authService AuthService
}

type UserService interface {
	GetUsers(context.Context) ([]models.User, error)
	CreateUser(context.Context, userservice.CreateUserRequest) (models.User, error)
	UpdateUser(context.Context, userservice.UpdateUserRequest) (models.User, error)
	DeleteUser(context.Context, int64) (models.User, error)
}

type NoteService interface {
	GetNotes(context.Context) ([]models.Note, error)
	CreateNote(context.Context, noteservice.CreateNoteRequest) (int64, error)
	UpdateNote(context.Context, noteservice.UpdateNoteRequest) error
	DeleteNote(context.Context, int64) (models.Note, error)
}

type AuthService interface {
	Login(ctx context.Context, username, password string) (string, error)
}

func New(cfg config.Server, us UserService, ns NoteService, as AuthService, lg logger.Logger) *Server {
	var s Server

	s.userService = us
	s.noteService = ns
	s.authService = as

	r := chi.NewRouter()
	r.Use(loggingMiddleware(lg))

	r.Route("/users", func(r chi.Router) {
		r.Get("/", s.GetUsers)
		r.Post("/", s.CreateUser)
		r.Patch("/", s.UpdateUser)
		r.Delete("/", s.DeleteUser)
	})

	r.Route("/notes", func(r chi.Router) {
		r.Get("/", s.GetNotes)
		r.Post("/", s.CreateNote)
		r.Patch("/", s.UpdateNote)
		r.Delete("/", s.DeleteNote)
	})

	r.Post("/auth", s.Login)

	s.serv = &http.Server{ //nolint:exhaustruct
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &s
}

func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error)

	go func() {
		if err := s.serv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			close(errCh)
		}
	}()

	select {
	case <-ctx.Done():
		ctxS, cancel := context.WithTimeout(context.Background(), time.Second*5) //nolint:gomnd
		defer cancel()

		if err := s.Shutdown(ctxS); err != nil { //nolint:contextcheck
			return fmt.Errorf("context error: %w server error %w", ctxS.Err(), err)
		}

		if !errors.Is(ctx.Err(), context.Canceled) {
			return fmt.Errorf("context cancelled error: %w", ctx.Err())
		}

		return nil
	case err := <-errCh:
		return fmt.Errorf("listen and serve error: %w", err)
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.serv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown server error: %w", err)
	}

	return nil
}

// Получение всех пользователей без хэшей паролей
// (GET /users).
func (s *Server) GetUsers(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Content-Type", "application/json")

	users, err := s.userService.GetUsers(r.Context())
	if err != nil {
		if errors.Is(err, userservice.ErrNoUsers) {
			handleError(w, "No users found", http.StatusBadRequest)

			return
		}

		handleError(w, "get users error: "+err.Error(), http.StatusInternalServerError)

		return
	}

	enc := json.NewEncoder(w)

	if err := enc.Encode(users); err != nil {
		handleError(w, "encode error: "+err.Error(), http.StatusInternalServerError)

		return
	}
}

// Создание нового пользователя
// (POST /users).
func (s *Server) CreateUser(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Content-Type", "application/json")

	var b createUserRequest

	dec := json.NewDecoder(r.Body)

	if err := dec.Decode(&b); err != nil {
		handleError(w, "decode error: "+err.Error(), http.StatusBadRequest)

		return
	}

	if b.Username == nil || *b.Username == "" ||
		b.Password == nil || *b.Password == "" ||
		b.Roles == nil || len(*b.Roles) == 0 {
		handleError(w, "All fields are required", http.StatusBadRequest)

		return
	}

	req := userservice.CreateUserRequest{
		Username: *b.Username,
		Password: *b.Password,
		Roles:    *b.Roles,
	}

	u, err := s.userService.CreateUser(r.Context(), req)
	if err != nil {
		if errors.Is(err, userservice.ErrDuplicateUsername) {
			handleError(w, "Duplicate username", http.StatusConflict)

			return
		}

		handleError(w, "Invalid user data received", http.StatusBadRequest)

		return
	}

	writeMessage(w, fmt.Sprintf("New user %s created", u.Username))
}

// Обновление пользователя
// (PATCH /users).
func (s *Server) UpdateUser(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Content-Type", "application/json")

	var b updateUserRequest

	dec := json.NewDecoder(r.Body)

	if err := dec.Decode(&b); err != nil {
		handleError(w, "decode error: "+err.Error(), http.StatusBadRequest)

		return
	}

	if b.ID == nil || b.Username == nil || *b.Username == "" ||
		b.Roles == nil || len(*b.Roles) == 0 || b.Active == nil {
		handleError(w, "All fields are required", http.StatusBadRequest)

		return
	}

	req := userservice.UpdateUserRequest{ //nolint:exhaustruct
		ID:       *b.ID,
		Username: *b.Username,
		Roles:    *b.Roles,
		Active:   *b.Active,
	}

	if b.Password != nil {
		req.Password = *b.Password
	}

	u, err := s.userService.UpdateUser(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, userservice.ErrNotFound):
			handleError(w, "User not found", http.StatusBadRequest)
		case errors.Is(err, userservice.ErrDuplicateUsername):
			handleError(w, "Duplicate username", http.StatusConflict)
		default:
			handleError(w, "update user error: "+err.Error(), http.StatusInternalServerError)
		}

		return
	}

	writeMessage(w, fmt.Sprintf("%s updated", u.Username))
}

// Удаление пользователя; пользователь с заметками не удаляется
// (DELETE /users).
func (s *Server) DeleteUser(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Content-Type", "application/json")

	var b deleteUserRequest

	dec := json.NewDecoder(r.Body)

	if err := dec.Decode(&b); err != nil {
		handleError(w, "decode error: "+err.Error(), http.StatusBadRequest)

		return
	}

	if b.ID == nil {
		handleError(w, "User ID required", http.StatusBadRequest)

		return
	}

	u, err := s.userService.DeleteUser(r.Context(), *b.ID)
	if err != nil {
		switch {
		case errors.Is(err, userservice.ErrHasNotes):
			handleError(w, "User has assigned notes", http.StatusBadRequest)
		case errors.Is(err, userservice.ErrNotFound):
			handleError(w, "User not found", http.StatusBadRequest)
		default:
			handleError(w, "delete user error: "+err.Error(), http.StatusInternalServerError)
		}

		return
	}

	reply := fmt.Sprintf("Username %s with ID %d deleted", u.Username, u.ID)

	enc := json.NewEncoder(w)

	if err := enc.Encode(reply); err != nil {
		handleError(w, "encode error: "+err.Error(), http.StatusInternalServerError)

		return
	}
}

// Получение всех заметок с именами владельцев
// (GET /notes).
func (s *Server) GetNotes(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Content-Type", "application/json")

	notes, err := s.noteService.GetNotes(r.Context())
	if err != nil {
		if errors.Is(err, noteservice.ErrNoNotes) {
			handleError(w, "No notes found", http.StatusBadRequest)

			return
		}

		handleError(w, "get notes error: "+err.Error(), http.StatusInternalServerError)

		return
	}

	enc := json.NewEncoder(w)

	if err := enc.Encode(notes); err != nil {
		handleError(w, "encode error: "+err.Error(), http.StatusInternalServerError)

		return
	}
}

// Создание новой заметки
// (POST /notes).
func (s *Server) CreateNote(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Content-Type", "application/json")

	var b createNoteRequest

	dec := json.NewDecoder(r.Body)

	if err := dec.Decode(&b); err != nil {
		handleError(w, "decode error: "+err.Error(), http.StatusBadRequest)

		return
	}

	if b.UserID == nil || b.Title == nil || *b.Title == "" || b.Text == nil || *b.Text == "" {
		handleError(w, "All fields are required", http.StatusBadRequest)

		return
	}

	req := noteservice.CreateNoteRequest{
		UserID: *b.UserID,
		Title:  *b.Title,
		Text:   *b.Text,
	}

	if _, err := s.noteService.CreateNote(r.Context(), req); err != nil {
		if errors.Is(err, noteservice.ErrUserNotFound) {
			handleError(w, "Assigned user not found", http.StatusBadRequest)

			return
		}

		handleError(w, "Invalid note data received", http.StatusBadRequest)

		return
	}

	w.WriteHeader(http.StatusCreated)

	resp := MessageResponse{Message: "New note created"}

	bts, err := json.Marshal(resp)
	if err != nil {
		handleError(w, "encode error: "+err.Error(), http.StatusInternalServerError)

		return
	}

	w.Write(bts) //nolint:errcheck
}

// Обновление заметки
// (PATCH /notes).
func (s *Server) UpdateNote(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Content-Type", "application/json")

	var b updateNoteRequest

	dec := json.NewDecoder(r.Body)

	if err := dec.Decode(&b); err != nil {
		handleError(w, "decode error: "+err.Error(), http.StatusBadRequest)

		return
	}

	if b.ID == nil || b.UserID == nil || b.Title == nil || *b.Title == "" ||
		b.Text == nil || *b.Text == "" || b.Completed == nil {
		handleError(w, "All fields are required", http.StatusBadRequest)

		return
	}

	req := noteservice.UpdateNoteRequest{
		ID:        *b.ID,
		UserID:    *b.UserID,
		Title:     *b.Title,
		Text:      *b.Text,
		Completed: *b.Completed,
	}

	if err := s.noteService.UpdateNote(r.Context(), req); err != nil {
		switch {
		case errors.Is(err, noteservice.ErrNotFound):
			handleError(w, "Note not found", http.StatusBadRequest)
		case errors.Is(err, noteservice.ErrUserNotFound):
			handleError(w, "Assigned user not found", http.StatusBadRequest)
		default:
			handleError(w, "update note error: "+err.Error(), http.StatusInternalServerError)
		}

		return
	}

	writeMessage(w, fmt.Sprintf("'%s' updated", req.Title))
}

// Удаление заметки
// (DELETE /notes).
func (s *Server) DeleteNote(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Content-Type", "application/json")

	var b deleteNoteRequest

	dec := json.NewDecoder(r.Body)

	if err := dec.Decode(&b); err != nil {
		handleError(w, "decode error: "+err.Error(), http.StatusBadRequest)

		return
	}

	if b.ID == nil {
		handleError(w, "Note ID required", http.StatusBadRequest)

		return
	}

	n, err := s.noteService.DeleteNote(r.Context(), *b.ID)
	if err != nil {
		if errors.Is(err, noteservice.ErrNotFound) {
			handleError(w, "Note not found", http.StatusBadRequest)

			return
		}

		handleError(w, "delete note error: "+err.Error(), http.StatusInternalServerError)

		return
	}

	reply := fmt.Sprintf("Note '%s' with ID %d deleted", n.Title, n.ID)

	enc := json.NewEncoder(w)

	if err := enc.Encode(reply); err != nil {
		handleError(w, "encode error: "+err.Error(), http.StatusInternalServerError)

		return
	}
}

// Аутентификация пользователя
// (POST /auth).
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Content-Type", "application/json")

	var b loginRequest

	dec := json.NewDecoder(r.Body)

	if err := dec.Decode(&b); err != nil {
		handleError(w, "decode error: "+err.Error(), http.StatusBadRequest)

		return
	}

	if b.Username == nil || *b.Username == "" || b.Password == nil || *b.Password == "" {
		handleError(w, "All fields are required", http.StatusBadRequest)

		return
	}

	token, err := s.authService.Login(r.Context(), *b.Username, *b.Password)
	if err != nil {
		if errors.Is(err, authservice.ErrTooManyAttempts) {
			handleError(w, "Too many login attempts", http.StatusTooManyRequests)

			return
		}

		handleError(w, "Unauthorized", http.StatusUnauthorized)

		return
	}

	enc := json.NewEncoder(w)

	if err := enc.Encode(LoginResponse{Token: token}); err != nil {
		handleError(w, "encode error: "+err.Error(), http.StatusInternalServerError)

		return
	}
}

func writeMessage(w http.ResponseWriter, msg string) {
	resp := MessageResponse{Message: msg}

	enc := json.NewEncoder(w)

	if err := enc.Encode(resp); err != nil {
		handleError(w, "encode error: "+err.Error(), http.StatusInternalServerError)

		return
	}
}

func handleError(w http.ResponseWriter, msg string, code int) {
	w.WriteHeader(code)

	e := Error{msg}

	w.Write(e.ToJSON()) //nolint:errcheck
}
