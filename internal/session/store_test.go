package session

import (
	"testing"
	"time"

	"github.com/jamjam-ai/jamjam/internal/model/chat"
)

func TestEnsureMintsID(t *testing.T) {
	s := NewStore()

	id := s.Ensure("")
	if id == "" {
		t.Fatal("Ensure returned empty id")
	}
	if other := s.Ensure(""); other == id {
		t.Fatal("Ensure minted the same id twice")
	}
	if got := s.Ensure("fixed"); got != "fixed" {
		t.Fatalf("Ensure(fixed) = %q", got)
	}
}

func TestAppendAndHistory(t *testing.T) {
	s := NewStore()
	id := s.Ensure("s1")

	s.Append(id,
		chat.Message{Role: chat.RoleUser, Content: "안녕"},
		chat.Message{Role: chat.RoleAssistant, Content: "안녕! 반가워"},
	)

	hist := s.History(id)
	if len(hist) != 2 {
		t.Fatalf("history length = %d, want 2", len(hist))
	}
	for i, m := range hist {
		if m.ID == "" {
			t.Errorf("message %d has no id", i)
		}
		if m.CreatedAt.IsZero() {
			t.Errorf("message %d has no timestamp", i)
		}
		if m.SessionID != id {
			t.Errorf("message %d session = %q, want %q", i, m.SessionID, id)
		}
	}
}

func TestHistoryReturnsSnapshot(t *testing.T) {
	s := NewStore()
	id := s.Ensure("s2")
	s.Append(id, chat.Message{Role: chat.RoleUser, Content: "원본"})

	hist := s.History(id)
	hist[0].Content = "변조"

	if got := s.History(id)[0].Content; got != "원본" {
		t.Fatalf("history mutated through snapshot: %q", got)
	}
}

func TestLockTurnSerializes(t *testing.T) {
	s := NewStore()
	id := s.Ensure("s3")

	unlock := s.LockTurn(id)

	acquired := make(chan struct{})
	go func() {
		u := s.LockTurn(id)
		close(acquired)
		u()
	}()

	select {
	case <-acquired:
		t.Fatal("second turn acquired the lock while the first held it")
	case <-time.After(50 * time.Millisecond):
	}

	unlock()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second turn never acquired the lock")
	}
}

func TestLockTurnIndependentSessions(t *testing.T) {
	s := NewStore()
	a := s.Ensure("a")
	b := s.Ensure("b")

	unlockA := s.LockTurn(a)
	defer unlockA()

	done := make(chan struct{})
	go func() {
		u := s.LockTurn(b)
		u()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on one session blocked another session")
	}
}
