package http

import (
	"mime"
	"net/http"

	"github.com/linkwise/linkwise/pkg/httputil"
)

const codeUnsupportedMediaType = "UNSUPPORTED_MEDIA_TYPE"

// ContentTypeJSON answers 415 for a request body declared as anything other
// than JSON. Bodiless POSTs, such as back and reset, and bodies without a
// Content-Type pass through.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); r.ContentLength != 0 && ct != "" {
			if mt, _, err := mime.ParseMediaType(ct); err != nil || mt != "application/json" {
				httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.Response{
					Error: &httputil.ErrorResponse{
						Code:    codeUnsupportedMediaType,
						Message: "Content-Type must be application/json",
					},
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
