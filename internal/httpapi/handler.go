package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"aichat/internal/account"
	"aichat/internal/blob"
	"aichat/internal/config"
	"aichat/internal/debounce"
	"aichat/internal/llm"
	"aichat/internal/store"
)

// modelDispatcher is what the chat endpoint needs from the llm package; tests
// substitute a stub.
type modelDispatcher interface {
	Dispatch(ctx context.Context, model, prompt string) (llm.Completion, error)
}

type Handler struct {
	cfg      config.Config
	users    *account.Users
	sessions *account.Sessions
	history  store.HistoryStore
	votes    store.VoteStore
	saves    *debounce.Guard
	uploads  blob.ObjectStore
	models   modelDispatcher
}

func NewHandler(
	cfg config.Config,
	users *account.Users,
	sessions *account.Sessions,
	history store.HistoryStore,
	votes store.VoteStore,
	saves *debounce.Guard,
	uploads blob.ObjectStore,
	models modelDispatcher,
) Handler {
	return Handler{
		cfg:      cfg,
		users:    users,
		sessions: sessions,
		history:  history,
		votes:    votes,
		saves:    saves,
		uploads:  uploads,
		models:   models,
	}
}

type contextKey string

const sessionUserContextKey contextKey = "session_user"

func (h Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// RequireSession resolves the session cookie into a user and rejects the
// request with 401 otherwise.
func (h Handler) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawToken, err := readSessionCookie(r, h.cfg.SessionCookieName)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		user, err := h.sessions.Resolve(rawToken)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionUserContextKey, user)))
	})
}

func sessionUserFromContext(ctx context.Context) (account.User, bool) {
	user, ok := ctx.Value(sessionUserContextKey).(account.User)
	return user, ok
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.users.Register(req.Name, req.Email, req.Password)
	if errors.Is(err, account.ErrEmailTaken) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User created successfully",
		"user":    map[string]string{"email": user.Email, "name": user.Name},
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.users.Authenticate(req.Email, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, expiresAt, err := h.sessions.Create(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	h.setSessionCookie(w, token, expiresAt)
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (h Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if rawToken, err := readSessionCookie(r, h.cfg.SessionCookieName); err == nil {
		h.sessions.Delete(rawToken)
	}
	h.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := sessionUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

func readSessionCookie(r *http.Request, name string) (string, error) {
	cookie, err := r.Cookie(name)
	if err != nil {
		return "", err
	}
	if cookie.Value == "" {
		return "", http.ErrNoCookie
	}
	return cookie.Value, nil
}

func (h Handler) setSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
