package response

import (
	"bytes"
	"encoding/json"
	"net/http"
)

// JSON writes a JSON response. The body is encoded before the header goes
// out so an encoding failure still produces a clean 500. Ratings and live
// counts change with every match, so responses are never cached.
func JSON(w http.ResponseWriter, status int, data any) {
	var body bytes.Buffer
	if data != nil {
		if err := json.NewEncoder(&body).Encode(data); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = body.WriteTo(w)
}
