package notify

import (
	"context"
	"testing"

	"transfers-exchange/internal/apperr"
)

func TestAppendAndList(t *testing.T) {
	s := NewSink(NewMemoryRepo())
	ctx := context.Background()

	if err := s.Append(ctx, "u1", "first"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.Append(ctx, "u1", "second"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.Append(ctx, "u2", "other inbox"); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := s.List(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(got))
	}
	for _, n := range got {
		if n.Read {
			t.Fatalf("new notifications start unread: %+v", n)
		}
	}
}

func TestAppend_RejectsEmptyFields(t *testing.T) {
	s := NewSink(NewMemoryRepo())
	ctx := context.Background()

	if err := s.Append(ctx, "", "msg"); !apperr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := s.Append(ctx, "u1", "  "); !apperr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestMarkRead(t *testing.T) {
	s := NewSink(NewMemoryRepo())
	ctx := context.Background()

	if err := s.Append(ctx, "u1", "read me"); err != nil {
		t.Fatalf("append: %v", err)
	}
	got, _ := s.List(ctx, "u1")
	if err := s.MarkRead(ctx, got[0].ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}

	got, _ = s.List(ctx, "u1")
	if !got[0].Read {
		t.Fatal("expected notification marked read")
	}

	if err := s.MarkRead(ctx, "ghost"); !apperr.IsNotFound(err) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}
