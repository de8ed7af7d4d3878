package account

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockAccountService is a mock implementation of the AccountService interface.
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) Register(ctx context.Context, params RegisterParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

func (m *MockAccountService) Authenticate(ctx context.Context, identifier, password string) (bool, error) {
	args := m.Called(ctx, identifier, password)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccountService) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Account), args.Error(1)
}

func (m *MockAccountService) GetByUsername(ctx context.Context, username string) (*Account, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Account), args.Error(1)
}

func (m *MockAccountService) GetByEmail(ctx context.Context, email string) (*Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Account), args.Error(1)
}

func (m *MockAccountService) ListAll(ctx context.Context) ([]Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Account), args.Error(1)
}

func (m *MockAccountService) ListActive(ctx context.Context) ([]Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Account), args.Error(1)
}

func (m *MockAccountService) UpdateProfile(ctx context.Context, id uuid.UUID, params UpdateProfileParams) error {
	args := m.Called(ctx, id, params)
	return args.Error(0)
}

func (m *MockAccountService) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	args := m.Called(ctx, id, active)
	return args.Error(0)
}

func (m *MockAccountService) ChangePassword(ctx context.Context, id uuid.UUID, oldPassword, newPassword string) error {
	args := m.Called(ctx, id, oldPassword, newPassword)
	return args.Error(0)
}

func (m *MockAccountService) SearchByName(ctx context.Context, keyword string) ([]Account, error) {
	args := m.Called(ctx, keyword)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Account), args.Error(1)
}

func (m *MockAccountService) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func newTestRouter(svc AccountService) chi.Router {
	h := NewAccountHandler(svc, slog.Default())
	r := chi.NewRouter()
	r.Route("/api/users", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Get("/", h.ListAll)
		r.Get("/active", h.ListActive)
		r.Get("/search", h.Search)
		r.Get("/username/{username}", h.GetByUsername)
		r.Get("/{id}", h.GetByID)
		r.Put("/{id}", h.UpdateProfile)
		r.Patch("/{id}/deactivate", h.Deactivate)
		r.Patch("/{id}/activate", h.Activate)
		r.Patch("/{id}/password", h.ChangePassword)
		r.Delete("/{id}", h.Delete)
	})
	return r
}

func doJSON(t *testing.T, router chi.Router, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body != nil {
		b, err := json.Marshal(body)
		assert.NoError(t, err)
		reader = bytes.NewBuffer(b)
	} else {
		reader = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func strP(s string) *string { return &s }

func sampleAccount() *Account {
	return &Account{
		ID:           uuid.New(),
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "$2a$10$supersecrethashvalue",
		FirstName:    strP("Alice"),
		LastName:     strP("Smith"),
		IsActive:     true,
	}
}

func TestRegisterHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockService := new(MockAccountService)
		router := newTestRouter(mockService)

		mockService.On("Register", mock.Anything, mock.MatchedBy(func(p RegisterParams) bool {
			return p.Username == "alice" && p.Email == "alice@example.com"
		})).Return(nil).Once()

		w := doJSON(t, router, http.MethodPost, "/api/users/register", map[string]string{
			"username": "alice",
			"password": "s3cret",
			"email":    "alice@example.com",
		})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "registration successful")
		mockService.AssertExpectations(t)
	})

	t.Run("UsernameTaken", func(t *testing.T) {
		mockService := new(MockAccountService)
		router := newTestRouter(mockService)

		mockService.On("Register", mock.Anything, mock.Anything).Return(ErrUsernameTaken).Once()

		w := doJSON(t, router, http.MethodPost, "/api/users/register", map[string]string{
			"username": "alice",
			"password": "s3cret",
			"email":    "alice@example.com",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "username taken")
	})

	t.Run("EmailTaken", func(t *testing.T) {
		mockService := new(MockAccountService)
		router := newTestRouter(mockService)

		mockService.On("Register", mock.Anything, mock.Anything).Return(ErrEmailTaken).Once()

		w := doJSON(t, router, http.MethodPost, "/api/users/register", map[string]string{
			"username": "alice",
			"password": "s3cret",
			"email":    "alice@example.com",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "email taken")
	})

	t.Run("MissingFields", func(t *testing.T) {
		mockService := new(MockAccountService)
		router := newTestRouter(mockService)

		w := doJSON(t, router, http.MethodPost, "/api/users/register", map[string]string{
			"username": "alice",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
	})
}

func TestLoginHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockService := new(MockAccountService)
		router := newTestRouter(mockService)

		mockService.On("Authenticate", mock.Anything, "alice", "s3cret").Return(true, nil).Once()

		w := doJSON(t, router, http.MethodPost, "/api/users/login", map[string]string{
			"username": "alice",
			"password": "s3cret",
		})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "login successful")
	})

	t.Run("BadCredentials", func(t *testing.T) {
		mockService := new(MockAccountService)
		router := newTestRouter(mockService)

		mockService.On("Authenticate", mock.Anything, "alice", "wrong").Return(false, nil).Once()

		w := doJSON(t, router, http.MethodPost, "/api/users/login", map[string]string{
			"username": "alice",
			"password": "wrong",
		})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestGetByIDHandler(t *testing.T) {
	t.Run("SuccessAndPasswordScrubbed", func(t *testing.T) {
		mockService := new(MockAccountService)
		router := newTestRouter(mockService)
		acc := sampleAccount()

		mockService.On("GetByID", mock.Anything, acc.ID).Return(acc, nil).Once()

		w := doJSON(t, router, http.MethodGet, "/api/users/"+acc.ID.String(), nil)

		assert.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Contains(t, body, "alice")
		assert.NotContains(t, body, acc.PasswordHash)
		assert.NotContains(t, strings.ToLower(body), "password")
	})

	t.Run("NotFound", func(t *testing.T) {
		mockService := new(MockAccountService)
		router := newTestRouter(mockService)
		id := uuid.New()

		mockService.On("GetByID", mock.Anything, id).Return(nil, ErrNotFound).Once()

		w := doJSON(t, router, http.MethodGet, "/api/users/"+id.String(), nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("InvalidIDFormat", func(t *testing.T) {
		mockService := new(MockAccountService)
		router := newTestRouter(mockService)

		w := doJSON(t, router, http.MethodGet, "/api/users/not-a-uuid", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})
}

func TestGetByUsernameHandler(t *testing.T) {
	mockService := new(MockAccountService)
	router := newTestRouter(mockService)
	acc := sampleAccount()

	mockService.On("GetByUsername", mock.Anything, "alice").Return(acc, nil).Once()

	w := doJSON(t, router, http.MethodGet, "/api/users/username/alice", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), acc.PasswordHash)
}

func TestListHandlers(t *testing.T) {
	t.Run("ListAllScrubsPasswords", func(t *testing.T) {
		mockService := new(MockAccountService)
		router := newTestRouter(mockService)
		accounts := []Account{*sampleAccount(), *sampleAccount()}

		mockService.On("ListAll", mock.Anything).Return(accounts, nil).Once()

		w := doJSON(t, router, http.MethodGet, "/api/users/", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, strings.ToLower(w.Body.String()), "password")

		var decoded []map[string]interface{}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
		assert.Len(t, decoded, 2)
	})

	t.Run("ListActive", func(t *testing.T) {
		mockService := new(MockAccountService)
		router := newTestRouter(mockService)

		mockService.On("ListActive", mock.Anything).Return([]Account{*sampleAccount()}, nil).Once()

		w := doJSON(t, router, http.MethodGet, "/api/users/active", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, strings.ToLower(w.Body.String()), "password")
	})
}

func TestUpdateProfileHandler(t *testing.T) {
	t.Run("PartialUpdate", func(t *testing.T) {
		mockService := new(MockAccountService)
		router := newTestRouter(mockService)
		id := uuid.New()

		mockService.On("UpdateProfile", mock.Anything, id, mock.MatchedBy(func(p UpdateProfileParams) bool {
			return p.FirstName != nil && *p.FirstName == "Alicia" && p.LastName == nil && p.Email == nil
		})).Return(nil).Once()

		w := doJSON(t, router, http.MethodPut, "/api/users/"+id.String(), map[string]string{
			"firstName": "Alicia",
		})

		assert.Equal(t, http.StatusOK, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("NotFound", func(t *testing.T) {
		mockService := new(MockAccountService)
		router := newTestRouter(mockService)
		id := uuid.New()

		mockService.On("UpdateProfile", mock.Anything, id, mock.Anything).Return(ErrNotFound).Once()

		w := doJSON(t, router, http.MethodPut, "/api/users/"+id.String(), map[string]string{
			"firstName": "Alicia",
		})

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestActivationHandlers(t *testing.T) {
	t.Run("Deactivate", func(t *testing.T) {
		mockService := new(MockAccountService)
		router := newTestRouter(mockService)
		id := uuid.New()

		mockService.On("SetActive", mock.Anything, id, false).Return(nil).Once()

		w := doJSON(t, router, http.MethodPatch, "/api/users/"+id.String()+"/deactivate", nil)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("ActivateNotFound", func(t *testing.T) {
		mockService := new(MockAccountService)
		router := newTestRouter(mockService)
		id := uuid.New()

		mockService.On("SetActive", mock.Anything, id, true).Return(ErrNotFound).Once()

		w := doJSON(t, router, http.MethodPatch, "/api/users/"+id.String()+"/activate", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestChangePasswordHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockService := new(MockAccountService)
		router := newTestRouter(mockService)
		id := uuid.New()

		mockService.On("ChangePassword", mock.Anything, id, "old", "new").Return(nil).Once()

		w := doJSON(t, router, http.MethodPatch, "/api/users/"+id.String()+"/password", map[string]string{
			"oldPassword": "old",
			"newPassword": "new",
		})

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("WrongOldPassword", func(t *testing.T) {
		mockService := new(MockAccountService)
		router := newTestRouter(mockService)
		id := uuid.New()

		mockService.On("ChangePassword", mock.Anything, id, "wrong", "new").Return(ErrUnauthenticated).Once()

		w := doJSON(t, router, http.MethodPatch, "/api/users/"+id.String()+"/password", map[string]string{
			"oldPassword": "wrong",
			"newPassword": "new",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("AbsentAccountAlsoAnswers400", func(t *testing.T) {
		mockService := new(MockAccountService)
		router := newTestRouter(mockService)
		id := uuid.New()

		mockService.On("ChangePassword", mock.Anything, id, "old", "new").Return(ErrNotFound).Once()

		w := doJSON(t, router, http.MethodPatch, "/api/users/"+id.String()+"/password", map[string]string{
			"oldPassword": "old",
			"newPassword": "new",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSearchHandler(t *testing.T) {
	mockService := new(MockAccountService)
	router := newTestRouter(mockService)

	mockService.On("SearchByName", mock.Anything, "Smi").Return([]Account{*sampleAccount()}, nil).Once()

	w := doJSON(t, router, http.MethodGet, "/api/users/search?keyword=Smi", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, strings.ToLower(w.Body.String()), "password")
	mockService.AssertExpectations(t)
}

func TestDeleteHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockService := new(MockAccountService)
		router := newTestRouter(mockService)
		id := uuid.New()

		mockService.On("Delete", mock.Anything, id).Return(nil).Once()

		w := doJSON(t, router, http.MethodDelete, "/api/users/"+id.String(), nil)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("NotFound", func(t *testing.T) {
		mockService := new(MockAccountService)
		router := newTestRouter(mockService)
		id := uuid.New()

		mockService.On("Delete", mock.Anything, id).Return(ErrNotFound).Once()

		w := doJSON(t, router, http.MethodDelete, "/api/users/"+id.String(), nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
