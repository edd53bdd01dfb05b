// ABOUTME: Writes the parse failure body from middleware that runs before huma
// ABOUTME: Keeps rejected requests in the same shape the client always expects

package middleware

import (
	"encoding/json"
	"net/http"

	"linkparse-api/api/dto/responses"
)

func writeFailure(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(responses.NewParseFailure(status, message))
}
