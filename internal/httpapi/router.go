package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"aichat/internal/config"
)

// NewRouter wires the handler into the chi route tree. uploadsHandler is
// non-nil only when the local blob backend is active; it serves stored
// objects back at /uploads/.
func NewRouter(cfg config.Config, h Handler, uploadsHandler http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", h.Healthz)

	r.Route("/api", func(api chi.Router) {
		api.Route("/auth", func(authR chi.Router) {
			authR.Post("/signup", h.Signup)
			authR.Post("/login", h.Login)
			authR.With(h.RequireSession).Get("/me", h.Me)
			authR.With(h.RequireSession).Post("/logout", h.Logout)
		})

		api.Group(func(p chi.Router) {
			p.Use(h.RequireSession)
			p.Post("/chat", h.Chat)
			p.Get("/history", h.HistoryGet)
			p.Post("/history", h.HistoryPost)
			p.Delete("/history", h.HistoryDelete)
			p.Get("/vote", h.VoteGet)
			p.Post("/vote", h.VotePost)
			p.Post("/upload", h.Upload)
		})
	})

	if uploadsHandler != nil {
		r.Handle("/uploads/*", uploadsHandler)
	}

	return r
}
