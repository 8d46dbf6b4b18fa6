package middleware

import (
	"fmt"
	"net/http"

	"github.com/vetlabs/vetassist/internal/api"
)

// MaxBodyBytes caps how much of a request body handlers will read. Chat and
// search payloads are a few hundred bytes of JSON; anything approaching the
// cap is not a legitimate consultation.
func MaxBodyBytes(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			if limit <= 0 || r.Body == nil {
				next.ServeHTTP(w, r)
				return
			}

			// A declared length over the cap is rejected up front; chunked
			// bodies without one are cut off by the bounded reader instead.
			if r.ContentLength != -1 && r.ContentLength > limit {
				api.Error(w, http.StatusRequestEntityTooLarge,
					fmt.Sprintf("request body exceeds %d bytes", limit))
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(fn)
	}
}
