package multi

import (
	"context"
	"errors"
	"testing"

	"github.com/mellaniegambe/timecard/internal/model"
)

type mockOutput struct {
	records []model.Record
	closed  bool
	err     error // if set, Write and Close return this error
}

func (m *mockOutput) Write(_ context.Context, rec model.Record) error {
	m.records = append(m.records, rec)
	return m.err
}

func (m *mockOutput) Close() error {
	m.closed = true
	return m.err
}

func TestFanOutDeliversToAll(t *testing.T) {
	a, b, c := &mockOutput{}, &mockOutput{}, &mockOutput{}
	m := New(a, b, c)

	if err := m.Write(context.Background(), model.Record{ID: "7"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, out := range []*mockOutput{a, b, c} {
		if len(out.records) != 1 || out.records[0].ID != "7" {
			t.Errorf("output %d: got %+v", i, out.records)
		}
	}
}

func TestErrorDoesNotPreventDelivery(t *testing.T) {
	failing := &mockOutput{err: errors.New("disk full")}
	healthy := &mockOutput{}
	m := New(failing, healthy)

	err := m.Write(context.Background(), model.Record{ID: "1"})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if len(healthy.records) != 1 {
		t.Fatalf("healthy output got %d records, want 1", len(healthy.records))
	}
	if len(failing.records) != 1 {
		t.Fatalf("failing output got %d records, want 1", len(failing.records))
	}
}

func TestCloseCollectsErrors(t *testing.T) {
	a := &mockOutput{err: errors.New("err-a")}
	b := &mockOutput{err: errors.New("err-b")}
	m := New(a, b)

	err := m.Close()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !a.closed || !b.closed {
		t.Error("Close should be called on all outputs even when errors occur")
	}
	if !errors.Is(err, a.err) || !errors.Is(err, b.err) {
		t.Errorf("joined error should wrap both: %v", err)
	}
}

func TestEmpty(t *testing.T) {
	m := New()
	if m.Len() != 0 {
		t.Fatalf("expected no outputs, got %d", m.Len())
	}
	if err := m.Write(context.Background(), model.Record{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
