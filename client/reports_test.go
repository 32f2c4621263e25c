package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
)

// fakeBackend serves the endpoints the report lifecycle touches. Task
// statuses returned by the poll endpoint are scripted per test.
type fakeBackend struct {
	t *testing.T

	generateQuery map[string][]string
	rkey          string

	// statuses is consumed one value per poll; the last value repeats.
	statuses []int
	polls    atomic.Int64

	reportBody string
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/authenticate/simple":
		_, _ = w.Write([]byte(`{"success": true, "tz": "Africa/Nairobi", "enterprise": {"key": "ent1", "name": "Org"}}`))
	case "/cms/report/generate":
		b.generateQuery = r.URL.Query()
		fmt.Fprintf(w, `{"success": true, "rkey": %q}`, b.rkey)
	case "/cms/backgroundtask":
		n := int(b.polls.Add(1))
		status := b.statuses[min(n, len(b.statuses))-1]
		fmt.Fprintf(w, `{"success": true, "tasks": {"report_%s": {"status": %d, "progress": 5, "total": 10}}}`, b.rkey, status)
	case "/cms/report/serve":
		if r.URL.Query().Get("rkey") != b.rkey {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(b.reportBody))
	default:
		b.t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
	}
}

func TestSession_GenerateSurveyReport(t *testing.T) {
	b := &fakeBackend{t: t, rkey: "R1"}
	s := newTestSession(t, b)

	key, err := s.GenerateSurveyReport(context.Background(), SurveyReportRequest{SurveyKey: "s1"})
	if err != nil {
		t.Fatalf("GenerateSurveyReport returned error: %v", err)
	}
	if key != "R1" {
		t.Fatalf("report key = %q, want R1", key)
	}

	q := b.generateQuery
	want := map[string]string{
		"type": "13", "ftype": "1", "target": "s1",
		"gen": "raw,label", "std_field": "name,phone",
	}
	for k, v := range want {
		if got := q[k]; len(got) != 1 || got[0] != v {
			t.Errorf("param %s = %v, want %q", k, got, v)
		}
	}

	if _, ok := s.tasks["report_R1"]; !ok {
		t.Fatal("report task not registered in outstanding set")
	}
}

func TestSession_GenerateInboxReport_Group(t *testing.T) {
	b := &fakeBackend{t: t, rkey: "R2"}
	s := newTestSession(t, b)

	if _, err := s.GenerateInboxReport(context.Background(), InboxReportRequest{GroupKey: "g1"}); err != nil {
		t.Fatalf("GenerateInboxReport returned error: %v", err)
	}
	q := b.generateQuery
	if got := q["type"]; len(got) != 1 || got[0] != "10" {
		t.Errorf("type = %v, want 10", got)
	}
	if got := q["target"]; len(got) != 1 || got[0] != "g1" {
		t.Errorf("target = %v, want g1", got)
	}
	if got := q["std_field"]; len(got) != 1 || got[0] != "group,upload_date" {
		t.Errorf("std_field = %v, want group,upload_date", got)
	}
}

func TestSession_GenerateInboxReport_Global(t *testing.T) {
	b := &fakeBackend{t: t, rkey: "R3"}
	s := newTestSession(t, b)

	if _, err := s.GenerateInboxReport(context.Background(), InboxReportRequest{}); err != nil {
		t.Fatalf("GenerateInboxReport returned error: %v", err)
	}
	q := b.generateQuery
	if got := q["type"]; len(got) != 1 || got[0] != "11" {
		t.Errorf("type = %v, want 11", got)
	}
	if _, ok := q["target"]; ok {
		t.Error("global inbox report must not send a target")
	}
}

func TestSession_GenerateMessagesReport(t *testing.T) {
	b := &fakeBackend{t: t, rkey: "R4"}
	s := newTestSession(t, b)
	ctx := context.Background()

	// The organisation key comes from the login context.
	if _, err := s.GenerateMessagesReport(ctx, MessagesReportRequest{StartDate: "2018-06-01", EndDate: "2018-06-08"}); !errors.Is(err, ErrNoSessionData) {
		t.Fatalf("expected ErrNoSessionData before login, got %v", err)
	}

	if err := s.Login(ctx, "u", "p"); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	dir := DirectionIncoming
	if _, err := s.GenerateMessagesReport(ctx, MessagesReportRequest{
		StartDate: "2018-06-01", EndDate: "2018-06-08", Direction: &dir,
	}); err != nil {
		t.Fatalf("GenerateMessagesReport returned error: %v", err)
	}

	q := b.generateQuery
	want := map[string]string{
		"type": "17", "ftype": "1", "target": "ent1",
		"additionalSpecs": "direction,channel,filter_type",
		"startDate":       "2018-06-01", "endDate": "2018-06-08",
		"filter_type": "direction", "direction": "0",
	}
	for k, v := range want {
		if got := q[k]; len(got) != 1 || got[0] != v {
			t.Errorf("param %s = %v, want %q", k, got, v)
		}
	}
}

func TestSession_GenerateMessagesReport_BadDate(t *testing.T) {
	b := &fakeBackend{t: t, rkey: "R5"}
	s := newTestSession(t, b)
	ctx := context.Background()
	if err := s.Login(ctx, "u", "p"); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	_, err := s.GenerateMessagesReport(ctx, MessagesReportRequest{StartDate: "01/06/2018", EndDate: "2018-06-08"})
	if err == nil {
		t.Fatal("expected an error for a malformed start date")
	}
}

func TestSession_AwaitReportGenerated(t *testing.T) {
	b := &fakeBackend{t: t, rkey: "R1", statuses: []int{1, 1, 3}}
	s := newTestSession(t, b)

	if err := s.AwaitReportGenerated(context.Background(), "R1"); err != nil {
		t.Fatalf("AwaitReportGenerated returned error: %v", err)
	}
	if got := b.polls.Load(); got != 3 {
		t.Fatalf("polled %d times, want 3", got)
	}
}

func TestSession_AwaitReportGenerated_UnknownStatus(t *testing.T) {
	b := &fakeBackend{t: t, rkey: "R1", statuses: []int{1, 4}}
	s := newTestSession(t, b)

	err := s.AwaitReportGenerated(context.Background(), "R1")
	var utse *UnexpectedTaskStatusError
	if !errors.As(err, &utse) {
		t.Fatalf("expected UnexpectedTaskStatusError, got %v", err)
	}
	if utse.Status != 4 || utse.TaskKey != "report_R1" {
		t.Fatalf("unexpected error detail %+v", utse)
	}
	// The unknown status is terminal: no further polling.
	if got := b.polls.Load(); got != 2 {
		t.Fatalf("polled %d times, want 2", got)
	}
}

func TestSession_AwaitReportGenerated_TaskMissing(t *testing.T) {
	b := &fakeBackend{t: t, rkey: "other", statuses: []int{1}}
	s := newTestSession(t, b)

	if err := s.AwaitReportGenerated(context.Background(), "R1"); err == nil {
		t.Fatal("expected an error for a task the server does not report")
	}
	if got := b.polls.Load(); got != 1 {
		t.Fatalf("polled %d times, want 1", got)
	}
}

func TestSession_TaskRegisteredEvenWhenPollFails(t *testing.T) {
	s := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cms/report/generate":
			_, _ = w.Write([]byte(`{"success": true, "rkey": "R9"}`))
		case "/cms/backgroundtask":
			_, _ = w.Write([]byte(`{"success": false, "message": "listing unavailable"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	_, err := s.SurveyReportForKey(context.Background(), SurveyReportRequest{SurveyKey: "s1"})
	if !IsRemoteServiceError(err) {
		t.Fatalf("expected RemoteServiceError from the poll, got %v", err)
	}

	// Cleanup must still be possible after the aborted poll.
	if _, ok := s.tasks["report_R9"]; !ok {
		t.Fatal("task key lost after poll failure")
	}
}

func TestSession_DownloadReport(t *testing.T) {
	const body = "Phone,Date,Message\n+100,2018-06-02 10:33 EAT,Hello!\n"
	b := &fakeBackend{t: t, rkey: "R1", reportBody: body}
	s := newTestSession(t, b)

	got, err := s.DownloadReport(context.Background(), "R1")
	if err != nil {
		t.Fatalf("DownloadReport returned error: %v", err)
	}
	if got != body {
		t.Fatalf("report body not returned verbatim:\n%q", got)
	}
}

func TestSession_SurveyReportForName(t *testing.T) {
	const body = "name,phone,q1\nA,+100,yes\n"
	b := &fakeBackend{t: t, rkey: "R1", statuses: []int{1, 3}, reportBody: body}
	s := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/cms/survey" {
			_, _ = w.Write([]byte(`{"success": true, "surveys": [{"key": "s1", "name": "Health Survey"}]}`))
			return
		}
		b.ServeHTTP(w, r)
	}))

	got, err := s.SurveyReportForName(context.Background(), "Health Survey")
	if err != nil {
		t.Fatalf("SurveyReportForName returned error: %v", err)
	}
	if got != body {
		t.Fatalf("unexpected report body %q", got)
	}
	if got := q(b.generateQuery, "target"); got != "s1" {
		t.Fatalf("generated for target %q, want s1", got)
	}
}

// q reads a single-valued query parameter captured by the fake backend.
func q(params map[string][]string, key string) string {
	if v := params[key]; len(v) == 1 {
		return v[0]
	}
	return ""
}
