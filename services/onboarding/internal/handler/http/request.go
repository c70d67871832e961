package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	apperrors "github.com/linkwise/linkwise/pkg/errors"
	"github.com/linkwise/linkwise/pkg/middleware"
	"github.com/linkwise/linkwise/pkg/validator"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// decodeJSON reads a JSON body into dst and validates it. An empty body
// leaves dst untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return apperrors.InvalidInput("invalid request body")
	}
	return validator.Validate(dst)
}

// sessionID returns the browser session of r; Session middleware always sets one.
func sessionID(r *http.Request) string {
	return middleware.SessionIDFromContext(r.Context())
}
