package snapsy

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alexedwards/scs/v2"
	"github.com/gorilla/mux"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	session := scs.New()
	h, err := NewHandlers(nil, newTestStore(t), NopMailer{}, session)
	if err != nil {
		t.Fatalf("NewHandlers: %v", err)
	}
	r := mux.NewRouter()
	h.RegisterRoutes(r)
	return session.LoadAndSave(r)
}

func TestProtectedRoutesRedirectToLogin(t *testing.T) {
	srv := newTestServer(t)
	routes := []struct {
		method string
		path   string
	}{
		{"GET", "/feed"},
		{"GET", "/profile"},
		{"GET", "/logout"},
		{"POST", "/upload"},
		{"POST", "/edit/abc"},
		{"POST", "/update/abc"},
		{"POST", "/memory/abc"},
		{"POST", "/delete/abc"},
		{"POST", "/comment/abc"},
		{"GET", "/comments/abc"},
		{"POST", "/react/abc"},
		{"POST", "/update-dp"},
		{"POST", "/update-bio"},
	}
	for _, rt := range routes {
		req := httptest.NewRequest(rt.method, rt.path, nil)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		if rec.Code != http.StatusSeeOther {
			t.Errorf("%s %s without session: status = %d, want %d", rt.method, rt.path, rec.Code, http.StatusSeeOther)
			continue
		}
		if loc := rec.Header().Get("Location"); loc != "/login" {
			t.Errorf("%s %s redirected to %q, want /login", rt.method, rt.path, loc)
		}
	}
}

func TestPublicPagesRender(t *testing.T) {
	srv := newTestServer(t)
	for _, path := range []string{"/", "/login", "/about", "/projects", "/contact"} {
		req := httptest.NewRequest("GET", path, nil)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", path, rec.Code)
		}
	}
}

func TestResponseForError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&ValidationError{Field: "text", Reason: "required"}, http.StatusBadRequest},
		{ErrNotFound, http.StatusNotFound},
		{ErrDuplicateHandle, http.StatusConflict},
		{ErrDuplicateEmail, http.StatusConflict},
		{ErrNotOwner, http.StatusForbidden},
		{ErrInvalidCredential, http.StatusUnauthorized},
		{ErrPayloadTooLarge, http.StatusRequestEntityTooLarge},
		{ErrUnsupportedMediaType, http.StatusUnsupportedMediaType},
	}
	for _, tt := range tests {
		if got, _ := responseForError(tt.err); got != tt.want {
			t.Errorf("responseForError(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
