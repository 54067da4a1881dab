package common

import (
	"encoding/json"
	"errors"
	"net/http"
)

// ErrorBody is the canonical error payload returned by the API.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// JSON writes v to the response writer as JSON.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// JSONError renders an error response using the canonical error shape.
func JSONError(w http.ResponseWriter, status int, code, message string) {
	JSON(w, status, map[string]any{
		"error": ErrorBody{Code: code, Message: message},
	})
}

// RenderError writes err as an HTTP response. AppErrors keep their code and
// status; anything else becomes an opaque 500.
func RenderError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		msg := appErr.Message
		if msg == "" {
			msg = appErr.Error()
		}
		JSONError(w, appErr.HTTPStatus, appErr.Code, msg)
		return
	}
	JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal server error")
}
