package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func tokenEndpoint(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok-1","token_type":"Bearer","expires_in":3600}`))
	}))
}

func TestLogin(t *testing.T) {
	srv := tokenEndpoint(t)
	defer srv.Close()

	s, err := Login(Config{TokenURL: srv.URL, ClientID: "client", ClientSecret: "secret"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	defer s.Logout()

	if !s.Valid() {
		t.Error("fresh session not valid")
	}
	tok, err := s.TokenSource().Token()
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if tok.AccessToken != "tok-1" {
		t.Errorf("access token = %q", tok.AccessToken)
	}
}

func TestLogin_MissingCredentials(t *testing.T) {
	if _, err := Login(Config{TokenURL: "http://localhost"}); err == nil {
		t.Error("login accepted without client credentials")
	}
	if _, err := Login(Config{ClientID: "c", ClientSecret: "s"}); err == nil {
		t.Error("login accepted without token URL")
	}
}

func TestLogin_RejectedCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	if _, err := Login(Config{TokenURL: srv.URL, ClientID: "client", ClientSecret: "bad"}); err == nil {
		t.Error("login succeeded against rejecting endpoint")
	}
}

func TestLogout_InvalidatesSession(t *testing.T) {
	srv := tokenEndpoint(t)
	defer srv.Close()

	s, err := Login(Config{TokenURL: srv.URL, ClientID: "client", ClientSecret: "secret"})
	if err != nil {
		t.Fatal(err)
	}

	s.Logout()
	s.Logout()

	if s.Valid() {
		t.Error("session valid after logout")
	}
	if s.TokenSource() != nil {
		t.Error("token source survives logout")
	}
}
