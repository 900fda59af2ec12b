package history

import (
	"fmt"
	"testing"

	"github.com/hejijunhao/jobtray/internal/model"
)

func ev(i int) model.Event {
	return model.Event{ID: fmt.Sprintf("e%d", i), Message: fmt.Sprintf("msg %d", i), Status: model.Started}
}

func TestAppendWithinCapacity(t *testing.T) {
	h := New(DefaultCapacity)
	for i := 0; i < 10; i++ {
		h.Append(ev(i))
	}
	if h.Len() != 10 {
		t.Fatalf("Len = %d, want 10", h.Len())
	}
	all := h.All()
	for i, e := range all {
		if e.ID != fmt.Sprintf("e%d", i) {
			t.Fatalf("All()[%d] = %s, want e%d", i, e.ID, i)
		}
	}
}

func TestEvictionKeepsLast25InOrder(t *testing.T) {
	h := New(25)
	for i := 0; i < 30; i++ {
		h.Append(ev(i))
	}
	if h.Len() != 25 {
		t.Fatalf("Len = %d, want 25", h.Len())
	}
	all := h.All()
	for i, e := range all {
		want := fmt.Sprintf("e%d", i+5)
		if e.ID != want {
			t.Fatalf("All()[%d] = %s, want %s", i, e.ID, want)
		}
	}
}

func TestLengthNeverExceedsCapacity(t *testing.T) {
	h := New(3)
	for i := 0; i < 100; i++ {
		h.Append(ev(i))
		if h.Len() > h.Cap() {
			t.Fatalf("after %d appends Len = %d > Cap = %d", i+1, h.Len(), h.Cap())
		}
	}
}

func TestRecentNewestFirst(t *testing.T) {
	h := New(25)
	for i := 0; i < 4; i++ {
		h.Append(ev(i))
	}
	got := h.Recent(2)
	if len(got) != 2 || got[0].ID != "e3" || got[1].ID != "e2" {
		t.Fatalf("Recent(2) = %v", ids(got))
	}
	if got := h.Recent(10); len(got) != 4 || got[3].ID != "e0" {
		t.Fatalf("Recent(10) = %v", ids(got))
	}
	if got := h.Recent(0); got != nil {
		t.Fatalf("Recent(0) = %v, want nil", ids(got))
	}
}

func TestRecentDoesNotMutate(t *testing.T) {
	h := New(25)
	h.Append(ev(0))
	h.Append(ev(1))
	got := h.Recent(2)
	got[0].Message = "changed"
	if h.All()[1].Message != "msg 1" {
		t.Fatal("Recent returned a view into storage")
	}
	if h.Len() != 2 {
		t.Fatalf("Len = %d after Recent, want 2", h.Len())
	}
}

func TestClear(t *testing.T) {
	h := New(25)
	for i := 0; i < 30; i++ {
		h.Append(ev(i))
	}
	h.Clear()
	if got := h.Recent(5); len(got) != 0 {
		t.Fatalf("Recent(5) after Clear = %v, want empty", ids(got))
	}
	if _, ok := h.Latest(); ok {
		t.Fatal("Latest after Clear should report false")
	}
}

func TestClearIdempotent(t *testing.T) {
	h := New(25)
	h.Clear()
	h.Clear()
	if h.Len() != 0 {
		t.Fatalf("Len = %d, want 0", h.Len())
	}
	h.Append(ev(1))
	if h.Len() != 1 {
		t.Fatalf("Len = %d after append, want 1", h.Len())
	}
}

func TestLatest(t *testing.T) {
	h := New(2)
	h.Append(ev(1))
	h.Append(ev(2))
	h.Append(ev(3))
	e, ok := h.Latest()
	if !ok || e.ID != "e3" {
		t.Fatalf("Latest = (%s, %v), want e3", e.ID, ok)
	}
}

func TestDefaultCapacity(t *testing.T) {
	if got := New(0).Cap(); got != DefaultCapacity {
		t.Fatalf("Cap = %d, want %d", got, DefaultCapacity)
	}
}

func ids(events []model.Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.ID
	}
	return out
}
