package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/chrisuehlinger/multiselect/html"
	"github.com/chrisuehlinger/multiselect/session"
)

func newTestServer(t *testing.T) (*httptest.Server, *session.Session) {
	t.Helper()
	doc, err := html.Parse("<html><head></head><body><p>alpha beta</p></body></html>")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	s := session.New(session.Config{Document: doc})
	s.Open(context.Background())

	text := doc.GetElementsByTagName("p")[0].AsNode().FirstChild()
	r := doc.CreateRange()
	if err := r.SetStart(text, 0); err != nil {
		t.Fatalf("SetStart failed: %v", err)
	}
	if err := r.SetEnd(text, 5); err != nil {
		t.Fatalf("SetEnd failed: %v", err)
	}
	if _, err := s.Capture(r); err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go s.Loop().Run(ctx)
	ts := httptest.NewServer(NewRouter(s, nil))
	t.Cleanup(func() {
		ts.Close()
		cancel()
		s.Close()
	})
	return ts, s
}

func decode(t *testing.T, resp *http.Response) session.Response {
	t.Helper()
	defer resp.Body.Close()
	var out session.Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func TestListAndClearSelections(t *testing.T) {
	ts, s := newTestServer(t)
	client := ts.Client()

	resp, err := client.Get(ts.URL + "/selections")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got := decode(t, resp).Selections; !reflect.DeepEqual(got, []string{"alpha"}) {
		t.Errorf("Expected [alpha], got %v", got)
	}

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/selections", nil)
	resp, err = client.Do(req)
	if err != nil {
		t.Fatalf("DELETE failed: %v", err)
	}
	if out := decode(t, resp); !out.OK {
		t.Errorf("Expected ok, got %+v", out)
	}

	var n int
	if err := s.Loop().Call(context.Background(), func() { n = s.Len() }); err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if n != 0 {
		t.Errorf("Expected no selections, got %d", n)
	}
}

func TestListSelections_EmptyStore(t *testing.T) {
	ts, _ := newTestServer(t)
	client := ts.Client()

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/selections", nil)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("DELETE failed: %v", err)
	}
	resp.Body.Close()

	for _, send := range []func() (*http.Response, error){
		func() (*http.Response, error) { return client.Get(ts.URL + "/selections") },
		func() (*http.Response, error) {
			return client.Post(ts.URL+"/messages", "application/json", strings.NewReader(`{"type":"getSelections"}`))
		},
	} {
		resp, err := send()
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		if !strings.Contains(string(body), `"selections":[]`) {
			t.Errorf("Expected an empty selections list, got %s", body)
		}
	}
}

func TestPostMessage(t *testing.T) {
	ts, _ := newTestServer(t)
	client := ts.Client()

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"get selections", `{"type":"getSelections"}`, http.StatusOK},
		{"unknown type", `{"type":"shutdown"}`, http.StatusBadRequest},
		{"malformed", `{"type":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := client.Post(ts.URL+"/messages", "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatalf("POST failed: %v", err)
			}
			out := decode(t, resp)
			if resp.StatusCode != tt.status {
				t.Errorf("expected %d, got %d (%+v)", tt.status, resp.StatusCode, out)
			}
			if tt.status != http.StatusOK && out.Error == "" {
				t.Error("Expected an error message")
			}
		})
	}
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := ts.Client().Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestDispatchAfterLoopStops(t *testing.T) {
	doc, err := html.Parse("<html><body></body></html>")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	s := session.New(session.Config{Document: doc})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = s.Loop().Run(ctx)
	ts := httptest.NewServer(NewRouter(s, nil))
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/selections")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", resp.StatusCode)
	}
}
