package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/sandeepkv93/dharmasync/internal/assistant"
	"github.com/sandeepkv93/dharmasync/internal/auth"
	"github.com/sandeepkv93/dharmasync/internal/model"
	"github.com/sandeepkv93/dharmasync/internal/tasks"
)

const (
	msgUnauthorized   = "Unauthorized"
	msgInternal       = "Internal Server Error"
	msgInvalidPayload = "Invalid request payload"
	msgTaskNotFound   = "Task not found"
	msgInvalidQuery   = "Invalid query parameter"
)

type errorBody struct {
	Error string `json:"error"`
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"` + msgInternal + `"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, errorBody{Error: message})
}

// respondWithErr maps a service error onto a status and a client-safe
// message. Anything unclassified is logged and reported as a bare 500.
func respondWithErr(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, tasks.ErrMissingUser):
		respondWithError(w, http.StatusUnauthorized, msgUnauthorized)
	case errors.Is(err, tasks.ErrNotFound):
		respondWithError(w, http.StatusNotFound, msgTaskNotFound)
	case errors.Is(err, tasks.ErrValidation), errors.Is(err, model.ErrInvalidDay):
		respondWithError(w, http.StatusBadRequest, validationMessage(err))
	case errors.Is(err, auth.ErrMissingFields):
		respondWithError(w, http.StatusBadRequest, "Missing required fields")
	case errors.Is(err, auth.ErrUserExists):
		respondWithError(w, http.StatusConflict, "User already exists")
	case errors.Is(err, auth.ErrUserNotFound):
		respondWithError(w, http.StatusNotFound, "User not found")
	case errors.Is(err, auth.ErrInvalidProfile):
		respondWithError(w, http.StatusBadRequest, "Invalid profile")
	case errors.Is(err, auth.ErrInvalidCredentials):
		respondWithError(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, assistant.ErrEmptyMessage):
		respondWithError(w, http.StatusBadRequest, "Message is required")
	default:
		logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		respondWithError(w, http.StatusInternalServerError, msgInternal)
	}
}

func validationMessage(err error) string {
	switch {
	case errors.Is(err, model.ErrTitleRequired):
		return "Title is required"
	case errors.Is(err, model.ErrInvalidCategory):
		return "Invalid category"
	case errors.Is(err, model.ErrInvalidPriority):
		return "Invalid priority"
	case errors.Is(err, model.ErrInvalidDueDate):
		return "Invalid due date"
	case errors.Is(err, model.ErrInvalidTime):
		return "Invalid time"
	case errors.Is(err, model.ErrInvalidDay):
		return "Invalid date"
	case errors.Is(err, tasks.ErrInvalidPage):
		return "Invalid page"
	default:
		return "Invalid date range"
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	return dec.Decode(dst)
}
