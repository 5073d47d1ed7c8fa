package musicbrainz

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New("ratingsync-test/0.1",
		WithBaseURL(server.URL),
		WithCredentials("user", "secret"),
		WithRateInterval(0))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return client
}

func TestBuildQuery(t *testing.T) {
	strict := buildQuery([][2]string{{"artist", "alesso"}, {"recording", "heroes"}}, true)
	if strict != `artist:"alesso" AND recording:"heroes"` {
		t.Errorf("strict query = %q", strict)
	}

	relaxed := buildQuery([][2]string{{"artist", "alesso"}, {"recording", "heroes"}}, false)
	if relaxed != `artist:(alesso) recording:(heroes)` {
		t.Errorf("relaxed query = %q", relaxed)
	}

	empty := buildQuery([][2]string{{"artist", "alesso"}, {"releasegroup", " "}}, true)
	if empty != `artist:"alesso"` {
		t.Errorf("blank fields should be dropped, got %q", empty)
	}
}

func TestSearchReleaseGroups(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/release-group" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.URL.Query().Get("fmt") != "json" {
			t.Error("fmt=json missing")
		}
		gotQuery = r.URL.Query().Get("query")
		w.Write([]byte(`{"release-groups":[{"id":"rg-1","title":"Forever","primary-type":"Album","releases":[{"id":"rel-1","title":"Forever"}]}]}`))
	}))

	groups, err := client.SearchReleaseGroups(context.Background(), "alesso", "forever", true)
	if err != nil {
		t.Fatalf("SearchReleaseGroups failed: %v", err)
	}
	if len(groups) != 1 || groups[0].ID != "rg-1" || groups[0].Type() != "Album" {
		t.Errorf("unexpected groups %+v", groups)
	}
	if !strings.Contains(gotQuery, `releasegroup:"forever"`) {
		t.Errorf("query = %q", gotQuery)
	}
	if client.Calls() != 1 {
		t.Errorf("calls = %d, want 1", client.Calls())
	}
}

func TestCollectionRecordingsPaging(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "user" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Query().Get("offset") == "0" {
			w.Write([]byte(`{"recording-count":3,"recordings":[{"id":"a","title":"A","length":201000},{"id":"b","title":"B","length":202000}]}`))
			return
		}
		w.Write([]byte(`{"recording-count":3,"recordings":[{"id":"c","title":"C"}]}`))
	}))

	entries, total, err := client.CollectionRecordings(context.Background(), "coll-1", 2, 0)
	if err != nil {
		t.Fatalf("CollectionRecordings failed: %v", err)
	}
	if total != 3 || len(entries) != 2 {
		t.Fatalf("total = %d, entries = %d", total, len(entries))
	}
	if entries[0].Length != 201000 {
		t.Errorf("length = %d, want milliseconds preserved", entries[0].Length)
	}

	entries, _, err = client.CollectionRecordings(context.Background(), "coll-1", 2, 2)
	if err != nil {
		t.Fatalf("second page failed: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != "c" {
		t.Errorf("unexpected second page %+v", entries)
	}
}

func TestAuthenticationFailure(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	err := client.Authenticate(context.Background())
	if err == nil {
		t.Fatal("expected authentication error")
	}
	if !strings.Contains(err.Error(), "authentication") {
		t.Errorf("error = %v, want authentication failure", err)
	}
}

func TestAddCollectionRecordingsChunks(t *testing.T) {
	var batches []int
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s", r.Method)
		}
		parts := strings.Split(r.URL.Path, "/")
		ids := strings.Split(parts[len(parts)-1], ";")
		batches = append(batches, len(ids))
		w.WriteHeader(http.StatusOK)
	}))

	mbids := make([]string, 120)
	for i := range mbids {
		mbids[i] = "id-" + strings.Repeat("x", i%3+1)
	}
	if err := client.AddCollectionRecordings(context.Background(), "coll-1", mbids); err != nil {
		t.Fatalf("AddCollectionRecordings failed: %v", err)
	}

	want := []int{50, 50, 20}
	if len(batches) != len(want) {
		t.Fatalf("batches = %v, want %v", batches, want)
	}
	for i, size := range want {
		if batches[i] != size {
			t.Errorf("batch %d size = %d, want %d", i, batches[i], size)
		}
	}
}

func TestRemoveCollectionRecordingsChunks(t *testing.T) {
	var batches []int
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s", r.Method)
		}
		parts := strings.Split(r.URL.Path, "/")
		ids := strings.Split(parts[len(parts)-1], ";")
		batches = append(batches, len(ids))
		w.WriteHeader(http.StatusOK)
	}))

	mbids := make([]string, 900)
	for i := range mbids {
		mbids[i] = "id-" + strings.Repeat("x", i%3+1)
	}
	if err := client.RemoveCollectionRecordings(context.Background(), "coll-1", mbids); err != nil {
		t.Fatalf("RemoveCollectionRecordings failed: %v", err)
	}

	want := []int{400, 400, 100}
	if len(batches) != len(want) {
		t.Fatalf("batches = %v, want %v", batches, want)
	}
	for i, size := range want {
		if batches[i] != size {
			t.Errorf("batch %d size = %d, want %d", i, batches[i], size)
		}
	}
}

func TestSubmitRatingsConvertsScale(t *testing.T) {
	var body string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		buf, _ := io.ReadAll(r.Body)
		body = string(buf)
		w.WriteHeader(http.StatusOK)
	}))

	err := client.SubmitRatings(context.Background(), map[string]int{"mbid-a": 3, "mbid-b": 5})
	if err != nil {
		t.Fatalf("SubmitRatings failed: %v", err)
	}

	for _, want := range []string{"<user-rating>60</user-rating>", "<user-rating>100</user-rating>", `id="mbid-a"`} {
		if !strings.Contains(body, want) {
			t.Errorf("body %q missing %q", body, want)
		}
	}
}

func TestCreditPhrase(t *testing.T) {
	credits := []ArtistCredit{
		{Name: "Sonny Bass", JoinPhrase: " & "},
		{Name: "Timmo Hendriks"},
	}
	if got := CreditPhrase(credits); got != "Sonny Bass & Timmo Hendriks" {
		t.Errorf("CreditPhrase = %q", got)
	}

	fallback := []ArtistCredit{{Artist: Artist{Name: "ZHU"}}}
	if got := CreditPhrase(fallback); got != "ZHU" {
		t.Errorf("CreditPhrase fallback = %q", got)
	}
}
