package account

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"user-account-service/internal/api"
)

// AccountHandler maps HTTP requests onto the account service. Every account
// payload goes through the Account type, whose password hash is structurally
// excluded from serialization.
type AccountHandler struct {
	accountService AccountService
	logger         *slog.Logger
}

func NewAccountHandler(accountService AccountService, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		logger:         logger,
	}
}

// parseID extracts and validates the {id} path parameter. On failure it has
// already written the error response and returns false.
func (h *AccountHandler) parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid account ID format")
		return uuid.Nil, false
	}
	return id, true
}

func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Register"))

	var params RegisterParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if params.Username == "" || params.Password == "" || params.Email == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "username, password and email are required")
		return
	}

	err := h.accountService.Register(ctx, params)
	if err != nil {
		switch {
		case errors.Is(err, ErrUsernameTaken):
			api.ErrorResponse(w, r, http.StatusBadRequest, "username taken")
		case errors.Is(err, ErrEmailTaken):
			api.ErrorResponse(w, r, http.StatusBadRequest, "email taken")
		case errors.Is(err, ErrConflict):
			api.ErrorResponse(w, r, http.StatusBadRequest, "account already exists")
		default:
			l.ErrorContext(ctx, "Registration failed", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusInternalServerError, err.Error())
		}
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, Response{
		Success: true,
		Message: "registration successful",
	})
}

func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Login"))

	var req LoginRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	ok, err := h.accountService.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		l.ErrorContext(ctx, "Authentication failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "invalid username or password")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, Response{
		Success: true,
		Message: "login successful",
	})
}

func (h *AccountHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	accounts, err := h.accountService.ListAll(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list accounts", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, accounts)
}

func (h *AccountHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	acc, err := h.accountService.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "account not found")
			return
		}
		h.logger.ErrorContext(ctx, "Failed to fetch account", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, acc)
}

func (h *AccountHandler) GetByUsername(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	username := chi.URLParam(r, "username")

	acc, err := h.accountService.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "account not found")
			return
		}
		h.logger.ErrorContext(ctx, "Failed to fetch account by username", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, acc)
}

func (h *AccountHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	accounts, err := h.accountService.ListActive(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list active accounts", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, accounts)
}

func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "UpdateProfile"))

	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	var params UpdateProfileParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	err := h.accountService.UpdateProfile(ctx, id, params)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			api.ErrorResponse(w, r, http.StatusNotFound, "account not found")
		case errors.Is(err, ErrConflict):
			api.ErrorResponse(w, r, http.StatusBadRequest, "email taken")
		default:
			l.ErrorContext(ctx, "Profile update failed", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusInternalServerError, err.Error())
		}
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, Response{
		Success: true,
		Message: "account updated",
	})
}

func (h *AccountHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false, "account deactivated")
}

func (h *AccountHandler) Activate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true, "account activated")
}

func (h *AccountHandler) setActive(w http.ResponseWriter, r *http.Request, active bool, message string) {
	ctx := r.Context()

	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	err := h.accountService.SetActive(ctx, id, active)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "account not found")
			return
		}
		h.logger.ErrorContext(ctx, "Failed to set active flag", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, Response{
		Success: true,
		Message: message,
	})
}

func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "ChangePassword"))

	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	var req ChangePasswordRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	err := h.accountService.ChangePassword(ctx, id, req.OldPassword, req.NewPassword)
	if err != nil {
		// A missing account and a wrong old password both answer 400,
		// indistinguishable to the caller.
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnauthenticated) {
			api.ErrorResponse(w, r, http.StatusBadRequest, "wrong old password or account not found")
			return
		}
		l.ErrorContext(ctx, "Password change failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, Response{
		Success: true,
		Message: "password changed",
	})
}

func (h *AccountHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	keyword := r.URL.Query().Get("keyword")

	accounts, err := h.accountService.SearchByName(ctx, keyword)
	if err != nil {
		h.logger.ErrorContext(ctx, "Search failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, accounts)
}

func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	err := h.accountService.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "account not found")
			return
		}
		h.logger.ErrorContext(ctx, "Account deletion failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, Response{
		Success: true,
		Message: "account deleted",
	})
}
