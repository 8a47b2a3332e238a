package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/sandeepkv93/dharmasync/internal/auth"
)

type Deps struct {
	Tasks    TaskService
	Accounts AccountService
	Issuer   *auth.Issuer
	// Assistant is optional; /api/chat answers 503 without it.
	Assistant Assistant
	Logger    *zap.Logger
}

// NewRouter wires every route. Everything under /api except the auth
// endpoints requires a session.
func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handlers{
		tasks:     d.Tasks,
		accounts:  d.Accounts,
		assistant: d.Assistant,
		logger:    logger,
	}

	router := mux.NewRouter()
	router.Use(recoverer(logger), requestLogger(logger))
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusNotFound, "Not Found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	router.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)
	router.HandleFunc("/api/auth/signup", h.Signup).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/login", h.Login).Methods(http.MethodPost)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(auth.Middleware(d.Issuer, logger))
	api.HandleFunc("/tasks", h.GetTasks).Methods(http.MethodGet)
	api.HandleFunc("/tasks", h.CreateTask).Methods(http.MethodPost)
	api.HandleFunc("/tasks", h.UpdateTask).Methods(http.MethodPut)
	api.HandleFunc("/tasks/progress", h.GetProgress).Methods(http.MethodGet)
	api.HandleFunc("/tasks/progress/history", h.GetProgressHistory).Methods(http.MethodGet)
	api.HandleFunc("/calendar/tasks", h.GetCalendarTasks).Methods(http.MethodGet)
	api.HandleFunc("/user/update", h.UpdateProfile).Methods(http.MethodPost)
	api.HandleFunc("/chat", h.Chat).Methods(http.MethodPost)

	return router
}
