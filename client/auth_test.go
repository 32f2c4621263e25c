package client

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

func TestSession_Login(t *testing.T) {
	var gotQuery map[string]string
	s := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/authenticate/simple" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		gotQuery = map[string]string{
			"_login":           r.URL.Query().Get("_login"),
			"_pw":              r.URL.Query().Get("_pw"),
			"auth":             r.URL.Query().Get("auth"),
			"populate_session": r.URL.Query().Get("populate_session"),
		}
		_, _ = w.Write([]byte(`{
			"success": true,
			"tz": "Africa/Nairobi",
			"acckey": "acc1",
			"enterprise": {"key": "ent1", "name": "Test Org"}
		}`))
	}))

	if err := s.Login(context.Background(), "user@example.com", "hunter2"); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	if gotQuery["_login"] != "user@example.com" || gotQuery["_pw"] != "hunter2" {
		t.Fatalf("unexpected credentials in request: %+v", gotQuery)
	}
	if gotQuery["auth"] != clientAuthKey || gotQuery["populate_session"] != "1" {
		t.Fatalf("missing client key or populate_session: %+v", gotQuery)
	}

	lc := s.LoginContext()
	if lc == nil {
		t.Fatal("login context not stored")
	}
	if lc.TZ != "Africa/Nairobi" || lc.Enterprise.Key != "ent1" {
		t.Fatalf("unexpected login context %+v", lc)
	}
}

func TestSession_LoginFailure(t *testing.T) {
	s := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": false, "message": "Invalid credentials"}`))
	}))

	err := s.Login(context.Background(), "user@example.com", "wrong")
	var rse *RemoteServiceError
	if !errors.As(err, &rse) {
		t.Fatalf("expected RemoteServiceError, got %v", err)
	}
	if rse.Message != "Invalid credentials" {
		t.Fatalf("server message not carried verbatim: %q", rse.Message)
	}
	if s.LoginContext() != nil {
		t.Fatal("login context must stay unset after a failed login")
	}
}

func TestSession_Accounts(t *testing.T) {
	s := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cms/account/me" || r.URL.Query().Get("with_linked") != "1" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"success": true, "linked": [
			{"key": "k2", "ent_name": "Org B"},
			{"key": "k1", "ent_name": "Org A"}
		]}`))
	}))

	accounts, err := s.Accounts(context.Background())
	if err != nil {
		t.Fatalf("Accounts returned error: %v", err)
	}
	// Server order must be preserved.
	if len(accounts) != 2 || accounts[0].Name != "Org B" || accounts[1].Name != "Org A" {
		t.Fatalf("unexpected accounts %+v", accounts)
	}
}

func TestSession_UseAccountWithName(t *testing.T) {
	var switchedTo string
	s := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cms/account/me":
			_, _ = w.Write([]byte(`{"success": true, "linked": [
				{"key": "k1", "ent_name": "Org A"},
				{"key": "k2", "ent_name": "Org B"}
			]}`))
		case "/authenticate/linked":
			if r.Method != http.MethodPost {
				t.Errorf("expected POST, got %s", r.Method)
			}
			switchedTo = r.URL.Query().Get("acckey")
			_, _ = w.Write([]byte(`{"success": true}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	if err := s.UseAccountWithName(context.Background(), "Org B"); err != nil {
		t.Fatalf("UseAccountWithName returned error: %v", err)
	}
	if switchedTo != "k2" {
		t.Fatalf("switched to %q, want k2", switchedTo)
	}
}

func TestKeyForName(t *testing.T) {
	names := []string{"alpha", "beta", "beta"}
	keys := []string{"k1", "k2", "k3"}

	key, err := keyForName("group", "alpha", names, keys)
	if err != nil || key != "k1" {
		t.Fatalf("keyForName(alpha) = %q, %v", key, err)
	}

	_, err = keyForName("group", "gamma", names, keys)
	var nfe *NotFoundError
	if !errors.As(err, &nfe) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if len(nfe.Available) != 3 || nfe.Available[0] != "alpha" {
		t.Fatalf("available names not reported: %+v", nfe.Available)
	}

	_, err = keyForName("group", "beta", names, keys)
	var ane *AmbiguousNameError
	if !errors.As(err, &ane) {
		t.Fatalf("expected AmbiguousNameError, got %v", err)
	}
	if ane.Matches != 2 {
		t.Fatalf("Matches = %d, want 2", ane.Matches)
	}
}

func TestSession_SurveyKeyForName(t *testing.T) {
	s := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cms/survey" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"success": true, "surveys": [
			{"key": "s1", "name": "Health Survey"},
			{"key": "s2", "name": "Education Survey"}
		]}`))
	}))

	key, err := s.SurveyKeyForName(context.Background(), "Education Survey")
	if err != nil {
		t.Fatalf("SurveyKeyForName returned error: %v", err)
	}
	if key != "s2" {
		t.Fatalf("key = %q, want s2", key)
	}
}
