package handler

import (
	"net/http"

	"github.com/mcoot/match3duel/internal/api/apierr"
)

// WriteError writes err as a JSON error envelope. Profile and username
// sentinels map to 404 and 400; anything else is a 500.
func WriteError(w http.ResponseWriter, err error) {
	apierr.WriteError(w, err)
}

// NewInvalidRequestError rejects a malformed query parameter
func NewInvalidRequestError(message string) error {
	return apierr.NewInvalidRequestError(message)
}
