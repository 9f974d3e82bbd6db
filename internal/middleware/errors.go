package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/andreasstove999/storefront-go/internal/logger"
)

// ErrorResponse is the JSON body of every error the API returns.
type ErrorResponse struct {
	Error         string `json:"error"`
	CorrelationID string `json:"correlationId,omitempty"`
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:         msg,
		CorrelationID: logger.CorrelationID(r.Context()),
	})
}
