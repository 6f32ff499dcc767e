package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mellaniegambe/timecard/internal/connector/httpclient"
)

func TestUpload(t *testing.T) {
	var gotPath, gotType, gotUpsert, gotKey, gotAuth string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		gotUpsert = r.Header.Get("x-upsert")
		gotKey = r.Header.Get("apikey")
		gotAuth = r.Header.Get("Authorization")
		gotBody, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{"Key":"timecards/a.png"}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/", "anon")
	err := c.Upload(context.Background(), "timecards", "1700000000000-abc.png", "image/png", []byte("png-bytes"), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/storage/v1/object/timecards/1700000000000-abc.png" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if gotType != "image/png" {
		t.Fatalf("unexpected content type: %q", gotType)
	}
	if gotUpsert != "false" {
		t.Fatalf("expected x-upsert false, got %q", gotUpsert)
	}
	if gotKey != "anon" || gotAuth != "Bearer anon" {
		t.Fatalf("unexpected auth headers: apikey=%q auth=%q", gotKey, gotAuth)
	}
	if string(gotBody) != "png-bytes" {
		t.Fatalf("unexpected body: %q", gotBody)
	}
}

func TestUpload_Conflict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":"Duplicate","message":"The resource already exists"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "anon")
	err := c.Upload(context.Background(), "timecards", "a.png", "image/png", []byte("x"), false)
	var apiErr *httpclient.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", apiErr.StatusCode)
	}
}

func TestUpload_InvalidBucket(t *testing.T) {
	c := New("http://unused", "anon")
	err := c.Upload(context.Background(), "../etc", "a.png", "image/png", nil, false)
	if err == nil || !strings.Contains(err.Error(), "invalid bucket") {
		t.Fatalf("expected invalid bucket error, got %v", err)
	}
}

func TestPublicURL(t *testing.T) {
	c := New("https://proj.supabase.co/", "anon")
	got := c.PublicURL("timecards", "my card.png")
	want := "https://proj.supabase.co/storage/v1/object/public/timecards/my%20card.png"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestInsert(t *testing.T) {
	var gotPrefer string
	var gotRow map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/timecard_results" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		gotPrefer = r.Header.Get("Prefer")
		json.NewDecoder(r.Body).Decode(&gotRow)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`[{"id":12,"image_url":"u","extracted_data":{"total_hours":8},"created_at":"2024-05-01T10:00:00+00:00"}]`))
	}))
	defer srv.Close()

	c := New(srv.URL, "anon")
	var rows []map[string]any
	err := c.Insert(context.Background(), "timecard_results", map[string]any{"image_url": "u"}, &rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPrefer != "return=representation" {
		t.Fatalf("unexpected Prefer: %q", gotPrefer)
	}
	if gotRow["image_url"] != "u" {
		t.Fatalf("unexpected row: %v", gotRow)
	}
	if len(rows) != 1 || rows[0]["id"] != float64(12) {
		t.Fatalf("unexpected representation: %v", rows)
	}
}

func TestSelect(t *testing.T) {
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`[{"id":1},{"id":2}]`))
	}))
	defer srv.Close()

	c := New(srv.URL, "anon")
	var rows []map[string]any
	err := c.Select(context.Background(), "timecard_results", SelectParams{
		Order: "created_at.desc",
		Limit: 20,
		Eq:    map[string]string{"id": "2"},
	}, &rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	checks := map[string]string{
		"select": "*",
		"order":  "created_at.desc",
		"limit":  "20",
		"id":     "eq.2",
	}
	for k, want := range checks {
		if got := gotQuery[k]; len(got) != 1 || got[0] != want {
			t.Errorf("query %s: got %v, want %q", k, got, want)
		}
	}
}

func TestSelect_InvalidTable(t *testing.T) {
	c := New("http://unused", "anon")
	err := c.Select(context.Background(), "users; DROP TABLE--", SelectParams{}, &[]map[string]any{})
	if err == nil || !strings.Contains(err.Error(), "invalid table") {
		t.Fatalf("expected invalid table error, got %v", err)
	}
}
