package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sandeepkv93/dharmasync/internal/assistant"
	"github.com/sandeepkv93/dharmasync/internal/auth"
	"github.com/sandeepkv93/dharmasync/internal/model"
	"github.com/sandeepkv93/dharmasync/internal/tasks"
)

// TaskService is the task lifecycle the handlers drive.
type TaskService interface {
	Location() *time.Location
	Today() model.Day
	GetTodayTasks(ctx context.Context, userID string) ([]model.Task, error)
	QueryTasks(ctx context.Context, userID string, day model.Day, q tasks.TaskQuery) (tasks.TaskPage, error)
	CreateTask(ctx context.Context, userID string, draft model.TaskDraft) (model.Task, error)
	SetTaskCompletion(ctx context.Context, userID, taskID string, completed bool, day model.Day) (model.Task, error)
	GetProgress(ctx context.Context, userID string, day model.Day) (model.ProgressRecord, error)
	ProgressHistory(ctx context.Context, userID string, from, to model.Day) ([]model.ProgressRecord, error)
}

type AccountService interface {
	Signup(ctx context.Context, req auth.SignupRequest) (model.User, error)
	Login(ctx context.Context, email, password string) (auth.Session, error)
	UpdateProfile(ctx context.Context, userID string, upd auth.ProfileUpdate) (model.User, error)
}

type Assistant interface {
	Reply(ctx context.Context, userName, message string) (assistant.Reply, error)
}

// Handlers holds the services behind every route.
type Handlers struct {
	tasks     TaskService
	accounts  AccountService
	assistant Assistant
	logger    *zap.Logger
}

func (h *Handlers) GetTasks(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFrom(r.Context())
	list, err := h.tasks.GetTodayTasks(r.Context(), userID)
	if err != nil {
		respondWithErr(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, list)
}

func (h *Handlers) CreateTask(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFrom(r.Context())
	var draft model.TaskDraft
	if err := decodeJSON(w, r, &draft); err != nil {
		respondWithError(w, http.StatusBadRequest, msgInvalidPayload)
		return
	}
	task, err := h.tasks.CreateTask(r.Context(), userID, draft)
	if err != nil {
		respondWithErr(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, task)
}

type completionRequest struct {
	ID        string `json:"id"`
	Completed *bool  `json:"completed"`
}

// UpdateTask toggles completion and refreshes today's progress record.
func (h *Handlers) UpdateTask(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFrom(r.Context())
	var req completionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, msgInvalidPayload)
		return
	}
	if strings.TrimSpace(req.ID) == "" || req.Completed == nil {
		respondWithError(w, http.StatusBadRequest, "Task id and completed are required")
		return
	}
	task, err := h.tasks.SetTaskCompletion(r.Context(), userID, req.ID, *req.Completed, h.tasks.Today())
	if err != nil {
		respondWithErr(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, task)
}

// GetProgress returns the day's record, or a zero record when no toggle has
// produced one yet.
func (h *Handlers) GetProgress(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFrom(r.Context())
	day, err := h.dayParam(r, "date")
	if err != nil {
		respondWithErr(w, r, h.logger, err)
		return
	}
	rec, err := h.tasks.GetProgress(r.Context(), userID, day)
	if errors.Is(err, tasks.ErrNotFound) {
		rec, err = model.ProgressRecord{UserID: userID, Day: day}, nil
	}
	if err != nil {
		respondWithErr(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, rec)
}

func (h *Handlers) GetProgressHistory(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFrom(r.Context())
	to, err := h.dayParam(r, "to")
	if err != nil {
		respondWithErr(w, r, h.logger, err)
		return
	}
	from := to
	if raw := r.URL.Query().Get("from"); raw != "" {
		if from, err = model.ParseDay(raw, h.tasks.Location()); err != nil {
			respondWithErr(w, r, h.logger, err)
			return
		}
	} else {
		for i := 0; i < 6; i++ {
			from = from.Prev()
		}
	}
	history, err := h.tasks.ProgressHistory(r.Context(), userID, from, to)
	if err != nil {
		respondWithErr(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, history)
}

// GetCalendarTasks lists one day's tasks without seeding. The optional
// completed, limit and offset parameters filter and page the list; the size
// of the unpaged selection goes out in X-Total-Count.
func (h *Handlers) GetCalendarTasks(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFrom(r.Context())
	day, err := h.dayParam(r, "date")
	if err != nil {
		respondWithErr(w, r, h.logger, err)
		return
	}
	q, err := taskQueryParams(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, msgInvalidQuery)
		return
	}
	page, err := h.tasks.QueryTasks(r.Context(), userID, day, q)
	if err != nil {
		respondWithErr(w, r, h.logger, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(page.Total))
	respondWithJSON(w, http.StatusOK, page.Tasks)
}

func taskQueryParams(r *http.Request) (tasks.TaskQuery, error) {
	var q tasks.TaskQuery
	values := r.URL.Query()
	if raw := strings.TrimSpace(values.Get("completed")); raw != "" {
		completed, err := strconv.ParseBool(raw)
		if err != nil {
			return tasks.TaskQuery{}, err
		}
		q.Completed = &completed
	}
	for name, dst := range map[string]*int{"limit": &q.Limit, "offset": &q.Offset} {
		raw := strings.TrimSpace(values.Get(name))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return tasks.TaskQuery{}, err
		}
		*dst = n
	}
	return q, nil
}

func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	var req auth.SignupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, msgInvalidPayload)
		return
	}
	if _, err := h.accounts.Signup(r.Context(), req); err != nil {
		respondWithErr(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, map[string]string{"message": "User created successfully"})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, msgInvalidPayload)
		return
	}
	session, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondWithErr(w, r, h.logger, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"token":     session.Token,
		"expiresAt": session.ExpiresAt.UTC(),
		"user":      session.User,
	})
}

type profileRequest struct {
	Updates *auth.ProfileUpdate `json:"updates"`
}

// UpdateProfile edits the session user's own profile. A userId in the body
// is ignored.
func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFrom(r.Context())
	var req profileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, msgInvalidPayload)
		return
	}
	if req.Updates == nil {
		respondWithError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	user, err := h.accounts.UpdateProfile(r.Context(), userID, *req.Updates)
	if err != nil {
		respondWithErr(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Profile updated successfully",
		"user":    user,
	})
}

type chatRequest struct {
	Message  string `json:"message"`
	UserName string `json:"userName"`
}

func (h *Handlers) Chat(w http.ResponseWriter, r *http.Request) {
	if h.assistant == nil {
		respondWithError(w, http.StatusServiceUnavailable, "Assistant is not configured")
		return
	}
	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, msgInvalidPayload)
		return
	}
	name := req.UserName
	if claims, ok := auth.ClaimsFrom(r.Context()); ok && name == "" {
		name = claims.Name
	}
	reply, err := h.assistant.Reply(r.Context(), name, req.Message)
	if err != nil {
		respondWithErr(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, reply)
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// dayParam parses the named query parameter in the service location,
// defaulting to today.
func (h *Handlers) dayParam(r *http.Request, name string) (model.Day, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return h.tasks.Today(), nil
	}
	return model.ParseDay(raw, h.tasks.Location())
}
