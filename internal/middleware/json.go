package middleware

import (
	"encoding/json"
	"net/http"

	"order-service/internal/model"
)

// writeJSONError is used only by ambient middleware that runs outside a
// route pipeline (recovery, rate limiting).
func writeJSONError(w http.ResponseWriter, status int, body *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error:   body,
	})
}
