package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

func newTestSessions() *Sessions {
	logger := log.New(log.DefaultConfig())
	return NewSessions("test-secret-key-12345678901234567890123456789012", false, logger)
}

// carryCookies replays the cookies set on a recorder onto a fresh request.
func carryCookies(t *testing.T, w *httptest.ResponseRecorder, target string) *http.Request {
	t.Helper()
	r := httptest.NewRequest("GET", target, nil)
	for _, c := range w.Result().Cookies() {
		r.AddCookie(c)
	}
	return r
}

func TestSignInAndIdentify(t *testing.T) {
	s := newTestSessions()

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/", nil)

	user := core.User{ID: 42, Username: "mario"}
	if err := s.SignIn(w, r, user); err != nil {
		t.Fatalf("SignIn() error: %v", err)
	}

	r2 := carryCookies(t, w, "/")
	id, ok := s.Identify(r2)
	if !ok {
		t.Fatal("Identify() did not find a signed-in user")
	}
	if id.UserID != 42 {
		t.Errorf("UserID = %d, want 42", id.UserID)
	}
	if id.Username != "mario" {
		t.Errorf("Username = %q, want mario", id.Username)
	}
}

func TestIdentifyAnonymous(t *testing.T) {
	s := newTestSessions()

	r := httptest.NewRequest("GET", "/", nil)
	if _, ok := s.Identify(r); ok {
		t.Error("Identify() found a user on a request without cookies")
	}
}

func TestSignOut(t *testing.T) {
	s := newTestSessions()

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/", nil)
	if err := s.SignIn(w, r, core.User{ID: 7, Username: "luigi"}); err != nil {
		t.Fatalf("SignIn() error: %v", err)
	}

	r2 := carryCookies(t, w, "/")
	w2 := httptest.NewRecorder()
	if err := s.SignOut(w2, r2); err != nil {
		t.Fatalf("SignOut() error: %v", err)
	}

	// The refreshed cookie must no longer identify anyone.
	r3 := carryCookies(t, w2, "/")
	if _, ok := s.Identify(r3); ok {
		t.Error("Identify() still finds a user after SignOut")
	}
}

func TestFlashRoundTrip(t *testing.T) {
	s := newTestSessions()

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/", nil)
	s.AddFlash(w, r, FlashSuccess, "Transaction added successfully!")

	r2 := carryCookies(t, w, "/")
	w2 := httptest.NewRecorder()
	flashes := s.PopFlashes(w2, r2)
	if len(flashes) != 1 {
		t.Fatalf("PopFlashes() returned %d flashes, want 1", len(flashes))
	}
	if flashes[0].Level != FlashSuccess {
		t.Errorf("Level = %q, want %q", flashes[0].Level, FlashSuccess)
	}
	if flashes[0].Message != "Transaction added successfully!" {
		t.Errorf("Message = %q", flashes[0].Message)
	}

	// A second pop, with the cleared cookie, must come back empty.
	r3 := carryCookies(t, w2, "/")
	w3 := httptest.NewRecorder()
	if got := s.PopFlashes(w3, r3); len(got) != 0 {
		t.Errorf("PopFlashes() after drain returned %d flashes, want 0", len(got))
	}
}

func TestRequireUserRedirectsAnonymous(t *testing.T) {
	s := newTestSessions()

	called := false
	handler := s.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/dashboard", nil)
	handler.ServeHTTP(w, r)

	if called {
		t.Error("guarded handler ran for an anonymous request")
	}
	if w.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", w.Code, http.StatusSeeOther)
	}
	if loc := w.Header().Get("Location"); loc != "/login" {
		t.Errorf("Location = %q, want /login", loc)
	}
}

func TestRequireUserPassesAuthenticated(t *testing.T) {
	s := newTestSessions()

	var seen Identity
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = IdentityFromContext(r.Context())
	})
	handler := s.IdentifyMiddleware(s.RequireUser(inner))

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/", nil)
	if err := s.SignIn(w, r, core.User{ID: 9, Username: "peach"}); err != nil {
		t.Fatalf("SignIn() error: %v", err)
	}

	r2 := carryCookies(t, w, "/dashboard")
	w2 := httptest.NewRecorder()
	handler.ServeHTTP(w2, r2)

	if w2.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w2.Code, http.StatusOK)
	}
	if seen.UserID != 9 || seen.Username != "peach" {
		t.Errorf("identity = %+v, want UserID 9 username peach", seen)
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-password")
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}
	if hash == "s3cret-password" {
		t.Fatal("HashPassword() returned the plaintext")
	}
	if !CheckPasswordHash("s3cret-password", hash) {
		t.Error("CheckPasswordHash() rejected the correct password")
	}
	if CheckPasswordHash("wrong-password", hash) {
		t.Error("CheckPasswordHash() accepted a wrong password")
	}
}
