package channel

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestSlack(t *testing.T, h http.HandlerFunc) *Slack {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewSlack(SlackConfig{Token: "xoxp-test", APIBase: srv.URL, Client: srv.Client(), Logger: testLogger()})
}

func TestSlack_History(t *testing.T) {
	s := newTestSlack(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/conversations.history" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		r.ParseForm()
		if r.Form.Get("channel") != "C1" || r.Form.Get("limit") != "50" {
			t.Errorf("unexpected form: %v", r.Form)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true,"messages":[
			{"type":"message","user":"U2","text":"later","ts":"1700000001.000200"},
			{"type":"message","bot_id":"B1","subtype":"bot_message","username":"helper","text":"earlier","ts":"1700000000.5"}
		]}`))
	})

	msgs, err := s.History(context.Background(), "C1", 50)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].AuthorID != "U2" || msgs[0].Bot || msgs[0].ID != "1700000001.000200" {
		t.Fatalf("unexpected first message: %+v", msgs[0])
	}
	if msgs[1].AuthorID != "B1" || !msgs[1].Bot || msgs[1].ChannelID != "C1" {
		t.Fatalf("unexpected second message: %+v", msgs[1])
	}
	if want := time.Unix(1700000000, 500000000).UTC(); !msgs[1].Timestamp.Equal(want) {
		t.Fatalf("expected %v, got %v", want, msgs[1].Timestamp)
	}
}

func TestSlack_HistoryAPIError(t *testing.T) {
	s := newTestSlack(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":false,"error":"channel_not_found"}`))
	})

	if _, err := s.History(context.Background(), "C404", 10); err == nil {
		t.Fatal("expected error")
	}
}

func TestSlack_PostReturnsTimestamp(t *testing.T) {
	var text string
	s := newTestSlack(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat.postMessage" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		r.ParseForm()
		text = r.Form.Get("text")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true,"channel":"C1","ts":"1700000002.000100"}`))
	})

	id, err := s.Post(context.Background(), "C1", "good morning")
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if id != "1700000002.000100" || text != "good morning" {
		t.Fatalf("unexpected id %q text %q", id, text)
	}
}

func TestSlack_Self(t *testing.T) {
	s := newTestSlack(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true,"user":"me","user_id":"U42","team_id":"T1"}`))
	})

	id, err := s.Self(context.Background())
	if err != nil {
		t.Fatalf("self: %v", err)
	}
	if id != "U42" {
		t.Fatalf("expected U42, got %q", id)
	}
}

func TestParseSlackTS(t *testing.T) {
	if got := parseSlackTS("garbage"); !got.IsZero() {
		t.Fatalf("expected zero time, got %v", got)
	}
	if got := parseSlackTS("1700000000"); got.Unix() != 1700000000 {
		t.Fatalf("unexpected %v", got)
	}
}
