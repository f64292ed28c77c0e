package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"go-user-auth/internal/model"
	"go-user-auth/pkg/apierror"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError is the single boundary where internal errors become HTTP
// responses. Messages stay generic; raw error text never reaches the client.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "Unexpected server error"

	var apiErr *apierror.APIError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatus
		message = apiErr.Message
	case errors.Is(err, model.ErrBadRequest):
		status = http.StatusBadRequest
		message = "A required parameter is missing or invalid"
	case errors.Is(err, model.ErrUnauthorized), errors.Is(err, model.ErrTokenInvalid):
		status = http.StatusUnauthorized
		message = "Unauthorized"
	case errors.Is(err, model.ErrRefreshNotLive):
		status = http.StatusForbidden
		message = "Refresh token expired or not valid"
	case errors.Is(err, model.ErrUserNotFound):
		status = http.StatusNotFound
		message = "User not found"
	case errors.Is(err, model.ErrUserAlreadyExists):
		status = http.StatusConflict
		message = "User already exists"
	case errors.Is(err, model.ErrStoreUnavailable):
		status = http.StatusServiceUnavailable
		message = "Service temporarily unavailable"
	default:
		// Unclassified errors are logged here, once, and nowhere else.
		slog.Error("unhandled error in writeError", "error", err.Error())
	}

	writeJSON(w, status, model.ErrorResponse{Error: message})
}
