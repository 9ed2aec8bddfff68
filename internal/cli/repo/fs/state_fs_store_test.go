package fs

import (
	"os"
	"path/filepath"
	"testing"

	"InvoiceRoom/internal/cli/repo"
)

var _ repo.StateStore = (*StateFSStore)(nil)

func TestStateFSStore_SessionsAndBuyers(t *testing.T) {
	p := filepath.Join(t.TempDir(), "nested", "state.json")
	s := NewStateFSStore(p)

	// пустое хранилище
	if _, err := s.LoadSession("r1"); err != ErrNotStored {
		t.Fatalf("expected ErrNotStored, got %v", err)
	}

	if err := s.SaveSession("r1", "tok-1"); err != nil {
		t.Fatalf("save session: %v", err)
	}
	if err := s.SaveBuyer("r2", "bh-2"); err != nil {
		t.Fatalf("save buyer: %v", err)
	}

	// новый экземпляр читает тот же файл
	s2 := NewStateFSStore(p)
	tok, err := s2.LoadSession("r1")
	if err != nil || tok != "tok-1" {
		t.Fatalf("load session: %q %v", tok, err)
	}
	bh, err := s2.LoadBuyer("r2")
	if err != nil || bh != "bh-2" {
		t.Fatalf("load buyer: %q %v", bh, err)
	}
	st, _ := s2.Load()
	if st.LastRoom != "r2" {
		t.Fatalf("last room: %q", st.LastRoom)
	}

	if err := s2.DeleteSession("r1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.LoadSession("r1"); err != ErrNotStored {
		t.Fatalf("session should be gone, got %v", err)
	}

	fi, err := os.Stat(p)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if fi.Mode().Perm() != 0o600 {
		t.Fatalf("state file mode: %v", fi.Mode().Perm())
	}
}

func TestStateFSStore_EmptyArgsAndBrokenFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "state.json")
	s := NewStateFSStore(p)
	if err := s.SaveSession("", "x"); err == nil {
		t.Fatalf("expected error for empty room")
	}
	if err := s.SaveBuyer("r", ""); err == nil {
		t.Fatalf("expected error for empty buyer hash")
	}

	if err := os.WriteFile(p, []byte("{"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := s.LoadBuyer("r"); err == nil {
		t.Fatalf("expected error for broken state file")
	}
}
