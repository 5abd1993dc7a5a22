package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"streamfusion/auth"
	"streamfusion/storage"
	"streamfusion/telemetry"
)

const (
	defaultUserLimit = 50
	maxUserLimit     = 200
)

type credentialsRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	cfg, err := a.store.GetWebConfig(r.Context())
	if err != nil {
		a.logger.Error().Err(err).Msg("failed to load settings")
		writeError(w, http.StatusInternalServerError, "settings_unavailable")
		return
	}
	if !cfg.RegistrationEnabled {
		telemetry.AuthEvents.WithLabelValues("register", "closed").Inc()
		writeError(w, http.StatusForbidden, "registration_closed")
		return
	}

	res, err := a.auth.Register(r.Context(), req.Email, req.DisplayName, req.Password)
	telemetry.AuthEvents.WithLabelValues("register", telemetry.Result(err)).Inc()
	switch {
	case errors.Is(err, auth.ErrEmailTaken):
		writeError(w, http.StatusConflict, "email_taken")
	case errors.Is(err, auth.ErrWeakPassword):
		writeError(w, http.StatusBadRequest, "weak_password")
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusBadRequest, "invalid_email")
	case err != nil:
		a.logger.Error().Err(err).Msg("registration failed")
		writeError(w, http.StatusInternalServerError, "registration_failed")
	default:
		writeJSON(w, http.StatusCreated, res)
	}
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := a.auth.Login(r.Context(), req.Email, req.Password)
	telemetry.AuthEvents.WithLabelValues("login", telemetry.Result(err)).Inc()
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials")
	case errors.Is(err, auth.ErrBanned):
		writeError(w, http.StatusForbidden, "banned")
	case err != nil:
		a.logger.Error().Err(err).Msg("login failed")
		writeError(w, http.StatusInternalServerError, "login_failed")
	default:
		writeJSON(w, http.StatusOK, res)
	}
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	if u, ok := a.currentUser(w, r); ok {
		writeJSON(w, http.StatusOK, u)
	}
}

// requireActive rejects tokens whose account was banned or deleted after
// the token was issued.
func (a *API) requireActive(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := a.currentUser(w, r); ok {
			next.ServeHTTP(w, r)
		}
	})
}

// currentUser loads the account behind the request claims, answering the
// request itself when the account is gone or banned.
func (a *API) currentUser(w http.ResponseWriter, r *http.Request) (storage.User, bool) {
	u, err := a.auth.Me(r.Context(), claims(r))
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeJSON(w, http.StatusUnauthorized, auth.Denied{Error: "unauthorized", Redirect: "/login"})
	case errors.Is(err, auth.ErrBanned):
		writeError(w, http.StatusForbidden, "banned")
	case err != nil:
		a.logger.Error().Err(err).Msg("failed to load account")
		writeError(w, http.StatusInternalServerError, "account_unavailable")
	default:
		return u, true
	}
	return storage.User{}, false
}

func (a *API) handleListUsers(w http.ResponseWriter, r *http.Request) {
	limit := min(parseLimit(r.URL.Query().Get("limit"), defaultUserLimit), maxUserLimit)
	users, err := a.store.ListUsers(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		a.logger.Error().Err(err).Msg("failed to list users")
		writeError(w, http.StatusInternalServerError, "users_unavailable")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

type banRequest struct {
	Banned *bool `json:"banned"`
}

// handleBanUser sets the ban flag from the body, or toggles it when the body
// does not say.
func (a *API) handleBanUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req banRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := a.store.GetUser(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "user_not_found")
		return
	}
	if err != nil {
		a.logger.Error().Err(err).Str("user_id", id).Msg("failed to load user")
		writeError(w, http.StatusInternalServerError, "users_unavailable")
		return
	}
	if c := claims(r); c != nil && c.UserID == id {
		writeError(w, http.StatusBadRequest, "cannot_ban_self")
		return
	}

	banned := !u.IsBanned
	if req.Banned != nil {
		banned = *req.Banned
	}
	if err := a.store.SetUserBanned(r.Context(), id, banned); err != nil {
		a.logger.Error().Err(err).Str("user_id", id).Msg("failed to update ban")
		writeError(w, http.StatusInternalServerError, "ban_failed")
		return
	}
	u.IsBanned = banned
	a.logger.Info().Str("user_id", id).Bool("banned", banned).Str("actor", claims(r).UserID).Msg("user ban updated")
	writeJSON(w, http.StatusOK, u)
}

func (a *API) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if c := claims(r); c != nil && c.UserID == id {
		writeError(w, http.StatusBadRequest, "cannot_delete_self")
		return
	}
	err := a.store.DeleteUser(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "user_not_found")
		return
	}
	if err != nil {
		a.logger.Error().Err(err).Str("user_id", id).Msg("failed to delete user")
		writeError(w, http.StatusInternalServerError, "delete_failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
