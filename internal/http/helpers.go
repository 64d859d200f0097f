package http

import (
	"crypto/sha256"
	"net/http"
	"strconv"
)

// csrfKey derives a dedicated 32-byte CSRF key from the session key, the
// same way the session cookie keys are derived.
func csrfKey(sessionKey string) []byte {
	sum := sha256.Sum256([]byte(sessionKey + "csrf"))
	return sum[:]
}

// redirectWithFlash queues a flash message and redirects. This is the
// standard outcome of every form POST.
func (s *Server) redirectWithFlash(w http.ResponseWriter, r *http.Request, level, message, target string) {
	s.sessions.AddFlash(w, r, level, message)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// pathID parses the {id} path segment.
func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}
