package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/postcoach/internal/handlers"
)

const RequestIDHeader = "X-Request-ID"

const maxRequestIDLength = 128

// RequestID tags each request with an identifier, reusing a well-formed
// X-Request-ID from the client when one is sent.
type RequestID struct {
	newID func() string
}

func NewRequestID() *RequestID {
	return &RequestID{newID: func() string { return uuid.NewString() }}
}

func (m *RequestID) Apply(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if !validRequestID(id) {
			id = m.newID()
		}

		w.Header().Set(RequestIDHeader, id)
		ctx := handlers.SetRequestIDInContext(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-' || c == '_' || c == '.':
		default:
			return false
		}
	}
	return true
}
