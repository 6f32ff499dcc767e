package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mellaniegambe/timecard/internal/connector/httpclient"
	"github.com/mellaniegambe/timecard/internal/extractor"
	"github.com/mellaniegambe/timecard/internal/model"
)

func TestExtract_SendsMultipart(t *testing.T) {
	var gotName, gotField, gotType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			return
		}
		for field, files := range r.MultipartForm.File {
			gotField = field
			gotName = files[0].Filename
			gotType = files[0].Header.Get("Content-Type")
			f, _ := files[0].Open()
			gotBody, _ = io.ReadAll(f)
			f.Close()
		}
		w.Write([]byte(`{"data":{"employee_information":{"name":"Ana"},"attendance_records":[],"total_hours":8}}`))
	}))
	defer srv.Close()

	ex, err := New(extractor.Config{Endpoint: srv.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d, err := ex.Extract(context.Background(), model.Upload{Name: "card.png", ContentType: "image/png", Body: []byte("img")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotField != "file" || gotName != "card.png" || gotType != "image/png" {
		t.Fatalf("unexpected part: field=%q name=%q type=%q", gotField, gotName, gotType)
	}
	if string(gotBody) != "img" {
		t.Fatalf("unexpected part body: %q", gotBody)
	}
	if v, _ := d.EmployeeInformation.Get("name"); v != "Ana" {
		t.Fatalf("unexpected name: %q", v)
	}
}

func TestExtract_CustomField(t *testing.T) {
	var gotField string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseMultipartForm(1 << 20)
		for field := range r.MultipartForm.File {
			gotField = field
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	ex, err := New(extractor.Config{Endpoint: srv.URL, Extra: map[string]string{"field": "image"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ex.Extract(context.Background(), model.Upload{Name: "a.jpg", Body: []byte("x")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotField != "image" {
		t.Fatalf("expected field image, got %q", gotField)
	}
}

func TestExtract_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`model offline`))
	}))
	defer srv.Close()

	ex, _ := New(extractor.Config{Endpoint: srv.URL})
	_, err := ex.Extract(context.Background(), model.Upload{Name: "a.png", Body: []byte("x")})
	var apiErr *httpclient.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if !strings.HasPrefix(err.Error(), "httpapi:") {
		t.Fatalf("expected httpapi prefix, got %v", err)
	}
}

func TestNew_MissingEndpoint(t *testing.T) {
	if _, err := New(extractor.Config{}); err == nil {
		t.Fatal("expected error for missing endpoint")
	}
}

func TestRegistered(t *testing.T) {
	if _, err := extractor.Get("http"); err != nil {
		t.Fatalf("http provider not registered: %v", err)
	}
}
