package response

import (
	"encoding/json"
	"net/http"

	"github.com/shashiranjanraj/pehnawa/config"
	"github.com/shashiranjanraj/pehnawa/pkg/apperr"
	"github.com/shashiranjanraj/pehnawa/pkg/logger"
	"github.com/shashiranjanraj/pehnawa/pkg/orm"
)

// Envelope is the shape of every JSON response.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

type ErrorBody struct {
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields,omitempty"`
	Detail string            `json:"detail,omitempty"`
}

func write(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body) //nolint:errcheck
}

// JSON sends body as-is with status.
func JSON(w http.ResponseWriter, status int, body Envelope) { write(w, status, body) }

// Success sends a 200 with data.
func Success(w http.ResponseWriter, data interface{}) {
	write(w, http.StatusOK, Envelope{Success: true, Data: data})
}

// Message sends a 200 with a message and optional data.
func Message(w http.ResponseWriter, message string, data interface{}) {
	write(w, http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

// Created sends a 201 with data.
func Created(w http.ResponseWriter, message string, data interface{}) {
	write(w, http.StatusCreated, Envelope{Success: true, Message: message, Data: data})
}

// Paginated sends {<key>: items, pagination}.
func Paginated(w http.ResponseWriter, key string, items interface{}, p orm.Pagination) {
	Success(w, map[string]interface{}{key: items, "pagination": p})
}

// Error sends a failure envelope with an explicit status and code.
func Error(w http.ResponseWriter, status int, code, message string) {
	write(w, status, Envelope{Message: message, Error: &ErrorBody{Code: code}})
}

// ValidationError sends a 400 with a field-level error map.
func ValidationError(w http.ResponseWriter, fields map[string]string) {
	write(w, http.StatusBadRequest, Envelope{
		Message: "Validation failed",
		Error:   &ErrorBody{Code: apperr.KindValidation.Code(), Fields: fields},
	})
}

func Unauthorized(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Unauthorized"
	}
	Error(w, http.StatusUnauthorized, apperr.KindUnauthorized.Code(), message)
}

func Forbidden(w http.ResponseWriter) {
	Error(w, http.StatusForbidden, apperr.KindForbidden.Code(), "Forbidden")
}

func NotFound(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Not found"
	}
	Error(w, http.StatusNotFound, apperr.KindNotFound.Code(), message)
}

// FromError maps err onto the envelope using its apperr kind. Internal
// errors are logged and answered with a generic message outside local
// development.
func FromError(w http.ResponseWriter, r *http.Request, err error) {
	e, ok := apperr.As(err)
	if !ok || e.Kind == apperr.KindInternal {
		logger.WithCtx(r.Context()).Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)

		body := &ErrorBody{Code: apperr.KindInternal.Code()}
		if config.AppEnv() == "local" {
			body.Detail = err.Error()
		}
		write(w, http.StatusInternalServerError, Envelope{Message: "Internal server error", Error: body})
		return
	}

	write(w, e.Kind.Status(), Envelope{
		Message: e.Message,
		Error:   &ErrorBody{Code: e.Kind.Code(), Fields: e.Fields},
	})
}
