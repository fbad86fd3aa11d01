package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/ShivaNagula00/toddy-orders/internal/platform/httpx"
)

const maxJSONBodySize = 64 * 1024

func writeJSONResponse(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// decodeJSONRequest reads and unmarshals a bounded JSON body into dst.
func decodeJSONRequest(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodySize)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("request body exceeds %d bytes", maxErr.Limit)
		}
		return fmt.Errorf("invalid JSON payload: %w", err)
	}
	return nil
}

func writeInvalidRequest(r *http.Request, w http.ResponseWriter, message string) {
	httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", message, http.StatusBadRequest))
}
