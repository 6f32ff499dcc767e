package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mellaniegambe/timecard/internal/extractor"
	"github.com/mellaniegambe/timecard/internal/model"
)

func completion(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}, "finish_reason": "stop"},
		},
	})
	return string(b)
}

func TestExtract(t *testing.T) {
	var got chatRequest
	var rawReq map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("unexpected auth: %q", r.Header.Get("Authorization"))
		}
		dec := json.NewDecoder(r.Body)
		dec.Decode(&rawReq)
		b, _ := json.Marshal(rawReq)
		json.Unmarshal(b, &got)
		w.Write([]byte(completion(`{"employee_information":{"name":"Ana"},"attendance_records":[{"date":"Mon","morning_in":"8:00"}],"total_hours":4}`)))
	}))
	defer srv.Close()

	ex, err := New(extractor.Config{Endpoint: srv.URL, APIKey: "sk-test", Model: "vision-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d, err := ex.Extract(context.Background(), model.Upload{Name: "a.png", ContentType: "image/png", Body: []byte("img")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Model != "vision-1" {
		t.Fatalf("unexpected model: %q", got.Model)
	}
	if got.ResponseFormat.Type != "json_object" {
		t.Fatalf("unexpected response format: %q", got.ResponseFormat.Type)
	}
	msgs := rawReq["messages"].([]any)
	user := msgs[1].(map[string]any)["content"].([]any)
	img := user[1].(map[string]any)["image_url"].(map[string]any)["url"].(string)
	if !strings.HasPrefix(img, "data:image/png;base64,") {
		t.Fatalf("unexpected image url: %q", img)
	}
	if len(d.AttendanceRecords) != 1 || d.AttendanceRecords[0].MorningIn != "8:00" {
		t.Fatalf("unexpected rows: %+v", d.AttendanceRecords)
	}
}

func TestExtract_FencedContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(completion("```json\n{\"total_hours\": 12}\n```")))
	}))
	defer srv.Close()

	ex, _ := New(extractor.Config{Endpoint: srv.URL, APIKey: "k"})
	d, err := ex.Extract(context.Background(), model.Upload{Name: "a.png", Body: []byte("x")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.TotalHours.String() != "12" {
		t.Fatalf("unexpected hours: %q", d.TotalHours.String())
	}
}

func TestExtract_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	ex, _ := New(extractor.Config{Endpoint: srv.URL, APIKey: "k"})
	_, err := ex.Extract(context.Background(), model.Upload{Name: "a.png", Body: []byte("x")})
	if err == nil || !strings.Contains(err.Error(), "empty response") {
		t.Fatalf("expected empty response error, got %v", err)
	}
}

func TestStripFences(t *testing.T) {
	tests := map[string]string{
		`{"a":1}`:                 `{"a":1}`,
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\n{\"a\":1}```":       `{"a":1}`,
		"  \n":                    "",
	}
	for in, want := range tests {
		if got := stripFences(in); got != want {
			t.Errorf("stripFences(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNew_RequiresKey(t *testing.T) {
	if _, err := New(extractor.Config{}); err == nil {
		t.Fatal("expected error without api key")
	}
}
