package middlewarex

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	SessionCookie = "sid"
	SessionHeader = "X-Session-ID"
)

const sessionMaxAge = 30 * 24 * time.Hour

// Session resolves the caller's session id from the X-Session-ID header or
// the sid cookie, issuing a new cookie when neither carries a valid id.
func Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := validSessionID(r.Header.Get(SessionHeader))
		if sid == "" {
			if c, err := r.Cookie(SessionCookie); err == nil {
				sid = validSessionID(c.Value)
			}
		}
		if sid == "" {
			sid = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    sid,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
				MaxAge:   int(sessionMaxAge.Seconds()),
			})
		}
		next.ServeHTTP(w, r.WithContext(WithSessionID(r.Context(), sid)))
	})
}

func validSessionID(v string) string {
	id, err := uuid.Parse(v)
	if err != nil {
		return ""
	}
	return id.String()
}
