package cooccur

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestServer(t *testing.T, counter *Counter) *httptest.Server {
	t.Helper()
	h := NewHandler(counter)
	mux := http.NewServeMux()
	mux.HandleFunc("POST /lists", h.Submit)
	mux.HandleFunc("GET /lists/{identifier}", h.Query)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func postList(t *testing.T, srv *httptest.Server, identifiers []string) {
	t.Helper()
	body, _ := json.Marshal(SubmitRequest{Identifiers: identifiers})
	resp, err := http.Post(srv.URL+"/lists", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST /lists failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST /lists status = %d, want 200", resp.StatusCode)
	}
}

func TestSubmitAndQueryEndpoints(t *testing.T) {
	counter := NewCounter()
	srv := newTestServer(t, counter)

	postList(t, srv, []string{"A", "B", "C"})
	postList(t, srv, []string{"B", "C", "D"})

	resp, err := http.Get(srv.URL + "/lists/B")
	if err != nil {
		t.Fatalf("GET /lists/B failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /lists/B status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}

	var got QueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if got.TargetIdentifier != "B" {
		t.Errorf("target_identifier = %q, want B", got.TargetIdentifier)
	}
	want := map[string]uint64{"A": 1, "C": 2, "D": 1}
	for k, v := range want {
		if got.CoOccurrences[k] != v {
			t.Errorf("co_occurrences[%s] = %d, want %d", k, got.CoOccurrences[k], v)
		}
	}
	if len(got.CoOccurrences) != len(want) {
		t.Errorf("co_occurrences = %v, want %v", got.CoOccurrences, want)
	}
}

func TestQueryUnknownIdentifierEndpoint(t *testing.T) {
	srv := newTestServer(t, NewCounter())

	resp, err := http.Get(srv.URL + "/lists/never-seen")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 for unknown identifier", resp.StatusCode)
	}
	var got QueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(got.CoOccurrences) != 0 {
		t.Errorf("co_occurrences = %v, want empty", got.CoOccurrences)
	}
}

func TestSubmitInvalidBody(t *testing.T) {
	srv := newTestServer(t, NewCounter())

	resp, err := http.Post(srv.URL+"/lists", "application/json", bytes.NewReader([]byte("{not json")))
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}
