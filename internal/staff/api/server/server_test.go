package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/Leopold1975/staff_control/internal/pkg/config"
	"github.com/Leopold1975/staff_control/internal/pkg/jwtauth"
	"github.com/Leopold1975/staff_control/internal/staff/domain/models"
	"github.com/Leopold1975/staff_control/internal/staff/repository/noterepo"
	"github.com/Leopold1975/staff_control/internal/staff/repository/userrepo"
	"github.com/Leopold1975/staff_control/internal/staff/services/authservice"
	"github.com/Leopold1975/staff_control/internal/staff/services/noteservice"
	"github.com/Leopold1975/staff_control/internal/staff/services/userservice"
	"github.com/Leopold1975/staff_control/pkg/logger"
	"github.com/stretchr/testify/suite"
)

// memStore backs every repository interface the services need,
// so the round trips below exercise the full handler-service path.
type memStore struct {
	mu         sync.Mutex
	nextUserID int64
	nextNoteID int64
	users      map[int64]models.User
	notes      map[int64]models.Note
}

func newMemStore() *memStore {
	return &memStore{
		users: make(map[int64]models.User),
		notes: make(map[int64]models.Note),
	}
}

func (m *memStore) CreateUser(_ context.Context, u models.User) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if existing.Username == u.Username {
			return 0, userrepo.ErrAleradyExists
		}
	}

	m.nextUserID++
	u.ID = m.nextUserID
	m.users[u.ID] = u

	return u.ID, nil
}

func (m *memStore) GetUsers(_ context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	users := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		u.PasswordHash = ""
		users = append(users, u)
	}

	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })

	return users, nil
}

func (m *memStore) GetUser(_ context.Context, username string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}

	return models.User{}, userrepo.ErrNotFound
}

func (m *memStore) GetUserByID(_ context.Context, id int64) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return models.User{}, userrepo.ErrNotFound
	}

	return u, nil
}

func (m *memStore) UpdateUser(_ context.Context, u models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[u.ID]; !ok {
		return userrepo.ErrNotFound
	}

	for id, existing := range m.users {
		if id != u.ID && existing.Username == u.Username {
			return userrepo.ErrAleradyExists
		}
	}

	m.users[u.ID] = u

	return nil
}

func (m *memStore) DeleteUser(_ context.Context, id int64) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return models.User{}, userrepo.ErrNotFound
	}

	delete(m.users, id)

	return u, nil
}

func (m *memStore) CreateNote(_ context.Context, n models.Note) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextNoteID++
	n.ID = m.nextNoteID
	n.Ticket = 500 + m.nextNoteID - 1
	m.notes[n.ID] = n

	return n.ID, nil
}

func (m *memStore) GetNotes(_ context.Context) ([]models.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	notes := make([]models.Note, 0, len(m.notes))
	for _, n := range m.notes {
		if u, ok := m.users[n.UserID]; ok {
			n.Username = u.Username
		}

		notes = append(notes, n)
	}

	sort.Slice(notes, func(i, j int) bool { return notes[i].ID < notes[j].ID })

	return notes, nil
}

func (m *memStore) UpdateNote(_ context.Context, n models.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.notes[n.ID]
	if !ok {
		return noterepo.ErrNotFound
	}

	n.Ticket = existing.Ticket
	m.notes[n.ID] = n

	return nil
}

func (m *memStore) DeleteNote(_ context.Context, id int64) (models.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, ok := m.notes[id]
	if !ok {
		return models.Note{}, noterepo.ErrNotFound
	}

	delete(m.notes, id)

	return n, nil
}

func (m *memStore) CountByUser(_ context.Context, userID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var count int64

	for _, n := range m.notes {
		if n.UserID == userID {
			count++
		}
	}

	return count, nil
}

func (m *memStore) Shutdown(_ context.Context) error { return nil }

type fakeLimiter struct {
	mu       sync.Mutex
	attempts map[string]int64
}

func (f *fakeLimiter) Inc(_ context.Context, username string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.attempts[username]++

	return f.attempts[username], nil
}

func (f *fakeLimiter) Reset(_ context.Context, username string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.attempts, username)

	return nil
}

type ServerSuite struct {
	suite.Suite
	store   *memStore
	authCfg config.Auth
	ts      *httptest.Server
}

func (ss *ServerSuite) SetupTest() {
	lg, err := logger.New(config.Logger{Level: "error", Output: nil, ErrOutput: nil})
	ss.Require().NoError(err)

	ss.store = newMemStore()
	ss.authCfg = config.Auth{
		TTL:           time.Minute * 15,
		Secret:        "test-secret",
		AttemptLimit:  5,
		AttemptWindow: time.Minute,
	}

	us := userservice.New(ss.store, ss.store, lg)
	ns := noteservice.New(ss.store, ss.store, lg)
	as := authservice.New(ss.store, &fakeLimiter{attempts: make(map[string]int64)}, ss.authCfg, lg)

	srvCfg := config.Server{
		Addr:         "127.0.0.1:0",
		ReadTimeout:  time.Second * 5,
		IdleTimeout:  time.Second * 30,
		WriteTimeout: time.Second * 5,
	}

	s := New(srvCfg, us, ns, as, lg)
	ss.ts = httptest.NewServer(s.serv.Handler)
}

func (ss *ServerSuite) TearDownTest() {
	ss.ts.Close()
}

func (ss *ServerSuite) do(method, path string, body any) (int, []byte) {
	var rd io.Reader

	if body != nil {
		b, err := json.Marshal(body)
		ss.Require().NoError(err)
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, ss.ts.URL+path, rd)
	ss.Require().NoError(err)

	resp, err := ss.ts.Client().Do(req)
	ss.Require().NoError(err)
	defer resp.Body.Close()

	bts, err := io.ReadAll(resp.Body)
	ss.Require().NoError(err)

	return resp.StatusCode, bts
}

func (ss *ServerSuite) TestUserScenarios() {
	// Пустой список
	code, body := ss.do(http.MethodGet, "/users", nil)
	ss.Require().Equal(http.StatusBadRequest, code)
	ss.Require().Contains(string(body), "No users found")

	// Создание пользователя
	code, body = ss.do(http.MethodPost, "/users", map[string]any{
		"userName": "alice",
		"password": "secret1",
		"roles":    []string{"Employee"},
	})
	ss.Require().Equal(http.StatusOK, code)
	ss.Require().Contains(string(body), "New user alice created")

	// Повторное создание с тем же именем
	code, body = ss.do(http.MethodPost, "/users", map[string]any{
		"userName": "alice",
		"password": "other",
		"roles":    []string{"Manager"},
	})
	ss.Require().Equal(http.StatusConflict, code)
	ss.Require().Contains(string(body), "Duplicate username")

	// Недостаточно полей
	code, body = ss.do(http.MethodPost, "/users", map[string]any{
		"userName": "bob",
	})
	ss.Require().Equal(http.StatusBadRequest, code)
	ss.Require().Contains(string(body), "All fields are required")

	code, _ = ss.do(http.MethodPost, "/users", map[string]any{
		"userName": "bob",
		"password": "secret2",
		"roles":    []string{},
	})
	ss.Require().Equal(http.StatusBadRequest, code)

	// Список без хэшей паролей
	code, body = ss.do(http.MethodGet, "/users", nil)
	ss.Require().Equal(http.StatusOK, code)

	var users []map[string]any
	ss.Require().NoError(json.Unmarshal(body, &users))
	ss.Require().Len(users, 1)
	ss.Require().Equal("alice", users[0]["userName"])
	ss.Require().NotContains(users[0], "password")
	ss.Require().NotContains(string(body), "secret1")

	aliceID := int64(users[0]["id"].(float64))
	hashBefore := ss.store.users[aliceID].PasswordHash

	// Обновление без пароля сохраняет старый хэш
	code, body = ss.do(http.MethodPatch, "/users", map[string]any{
		"id":       aliceID,
		"userName": "alice",
		"roles":    []string{"Employee"},
		"active":   true,
	})
	ss.Require().Equal(http.StatusOK, code)
	ss.Require().Contains(string(body), "alice updated")
	ss.Require().Equal(hashBefore, ss.store.users[aliceID].PasswordHash)
	ss.Require().True(ss.store.users[aliceID].Active)

	// active обязателен
	code, body = ss.do(http.MethodPatch, "/users", map[string]any{
		"id":       aliceID,
		"userName": "alice",
		"roles":    []string{"Employee"},
	})
	ss.Require().Equal(http.StatusBadRequest, code)
	ss.Require().Contains(string(body), "All fields are required")

	// Обновление несуществующего пользователя
	code, body = ss.do(http.MethodPatch, "/users", map[string]any{
		"id":       int64(42),
		"userName": "ghost",
		"roles":    []string{"Employee"},
		"active":   false,
	})
	ss.Require().Equal(http.StatusBadRequest, code)
	ss.Require().Contains(string(body), "User not found")

	// Конфликт имен при обновлении
	code, _ = ss.do(http.MethodPost, "/users", map[string]any{
		"userName": "bob",
		"password": "secret2",
		"roles":    []string{"Employee"},
	})
	ss.Require().Equal(http.StatusOK, code)

	code, body = ss.do(http.MethodPatch, "/users", map[string]any{
		"id":       aliceID,
		"userName": "bob",
		"roles":    []string{"Employee"},
		"active":   true,
	})
	ss.Require().Equal(http.StatusConflict, code)
	ss.Require().Contains(string(body), "Duplicate username")
}

func (ss *ServerSuite) TestDeleteScenarios() {
	code, _ := ss.do(http.MethodPost, "/users", map[string]any{
		"userName": "alice",
		"password": "secret1",
		"roles":    []string{"Employee"},
	})
	ss.Require().Equal(http.StatusOK, code)

	// ID обязателен
	code, body := ss.do(http.MethodDelete, "/users", map[string]any{})
	ss.Require().Equal(http.StatusBadRequest, code)
	ss.Require().Contains(string(body), "User ID required")

	// Пользователь с заметкой не удаляется
	code, _ = ss.do(http.MethodPost, "/notes", map[string]any{
		"user":  int64(1),
		"title": "onboarding",
		"text":  "prepare a workstation",
	})
	ss.Require().Equal(http.StatusCreated, code)

	code, body = ss.do(http.MethodDelete, "/users", map[string]any{"id": int64(1)})
	ss.Require().Equal(http.StatusBadRequest, code)
	ss.Require().Contains(string(body), "User has assigned notes")

	code, body = ss.do(http.MethodGet, "/users", nil)
	ss.Require().Equal(http.StatusOK, code)
	ss.Require().Contains(string(body), "alice")

	// После удаления заметки пользователь удаляется
	code, _ = ss.do(http.MethodDelete, "/notes", map[string]any{"id": int64(1)})
	ss.Require().Equal(http.StatusOK, code)

	code, body = ss.do(http.MethodDelete, "/users", map[string]any{"id": int64(1)})
	ss.Require().Equal(http.StatusOK, code)

	var reply string
	ss.Require().NoError(json.Unmarshal(body, &reply))
	ss.Require().Equal("Username alice with ID 1 deleted", reply)

	code, _ = ss.do(http.MethodGet, "/users", nil)
	ss.Require().Equal(http.StatusBadRequest, code)

	// Повторное удаление
	code, body = ss.do(http.MethodDelete, "/users", map[string]any{"id": int64(1)})
	ss.Require().Equal(http.StatusBadRequest, code)
	ss.Require().Contains(string(body), "User not found")
}

func (ss *ServerSuite) TestNoteScenarios() {
	code, body := ss.do(http.MethodGet, "/notes", nil)
	ss.Require().Equal(http.StatusBadRequest, code)
	ss.Require().Contains(string(body), "No notes found")

	code, _ = ss.do(http.MethodPost, "/users", map[string]any{
		"userName": "alice",
		"password": "secret1",
		"roles":    []string{"Employee"},
	})
	ss.Require().Equal(http.StatusOK, code)

	// Заметка для несуществующего пользователя
	code, body = ss.do(http.MethodPost, "/notes", map[string]any{
		"user":  int64(42),
		"title": "ghost note",
		"text":  "no owner",
	})
	ss.Require().Equal(http.StatusBadRequest, code)
	ss.Require().Contains(string(body), "Assigned user not found")

	code, body = ss.do(http.MethodPost, "/notes", map[string]any{
		"user":  int64(1),
		"title": "onboarding",
		"text":  "prepare a workstation",
	})
	ss.Require().Equal(http.StatusCreated, code)
	ss.Require().Contains(string(body), "New note created")

	code, body = ss.do(http.MethodGet, "/notes", nil)
	ss.Require().Equal(http.StatusOK, code)

	var notes []map[string]any
	ss.Require().NoError(json.Unmarshal(body, &notes))
	ss.Require().Len(notes, 1)
	ss.Require().Equal("alice", notes[0]["username"])
	ss.Require().Equal(float64(500), notes[0]["ticket"])

	code, body = ss.do(http.MethodPatch, "/notes", map[string]any{
		"id":        int64(1),
		"user":      int64(1),
		"title":     "onboarding",
		"text":      "workstation ready",
		"completed": true,
	})
	ss.Require().Equal(http.StatusOK, code)
	ss.Require().Contains(string(body), "'onboarding' updated")

	code, body = ss.do(http.MethodDelete, "/notes", map[string]any{"id": int64(1)})
	ss.Require().Equal(http.StatusOK, code)

	var reply string
	ss.Require().NoError(json.Unmarshal(body, &reply))
	ss.Require().Equal("Note 'onboarding' with ID 1 deleted", reply)
}

func (ss *ServerSuite) TestLogin() {
	code, _ := ss.do(http.MethodPost, "/users", map[string]any{
		"userName": "alice",
		"password": "secret1",
		"roles":    []string{"Employee"},
	})
	ss.Require().Equal(http.StatusOK, code)

	// Неактивный пользователь не аутентифицируется
	code, _ = ss.do(http.MethodPost, "/auth", map[string]any{
		"userName": "alice",
		"password": "secret1",
	})
	ss.Require().Equal(http.StatusUnauthorized, code)

	code, _ = ss.do(http.MethodPatch, "/users", map[string]any{
		"id":       int64(1),
		"userName": "alice",
		"roles":    []string{"Employee"},
		"active":   true,
	})
	ss.Require().Equal(http.StatusOK, code)

	code, _ = ss.do(http.MethodPost, "/auth", map[string]any{
		"userName": "alice",
		"password": "wrong",
	})
	ss.Require().Equal(http.StatusUnauthorized, code)

	code, body := ss.do(http.MethodPost, "/auth", map[string]any{
		"userName": "alice",
		"password": "secret1",
	})
	ss.Require().Equal(http.StatusOK, code)

	var resp LoginResponse
	ss.Require().NoError(json.Unmarshal(body, &resp))

	claims, err := jwtauth.ValidateToken(resp.Token, ss.authCfg.Secret)
	ss.Require().NoError(err)
	ss.Require().Equal("alice", claims.Username)
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerSuite))
}
