package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"vidtube/internal/model"
	"vidtube/pkg/apierror"
)

func writeSuccess(w http.ResponseWriter, status int, data any, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    true,
	})
}

// writeError is the single funnel every failure goes through: typed API
// errors keep their status and message, anything else becomes an opaque
// 500. Internal details never reach the client.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "Internal server error"
	fieldErrors := []string{}

	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		status = apiErr.StatusCode
		message = apiErr.Message
		if apiErr.Errors != nil {
			fieldErrors = apiErr.Errors
		}
	} else {
		slog.Error("unhandled error in writeError", "error", err.Error())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		StatusCode: status,
		Message:    message,
		Success:    false,
		Errors:     fieldErrors,
	})
}
