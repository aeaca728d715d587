package request

import (
	"errors"
	"net/http"
	"strconv"
)

// Limit parses the optional ?limit= query parameter. Zero means the caller's
// default applies.
func Limit(r *http.Request, max int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, errors.New("limit must be a positive integer")
	}
	if limit > max {
		limit = max
	}
	return limit, nil
}
