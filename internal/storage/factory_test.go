package storage

import "testing"

func TestNewStoreMemoryKinds(t *testing.T) {
	for _, kind := range []string{"", "memory"} {
		store, err := NewStore(kind, "")
		if err != nil {
			t.Fatalf("NewStore(%q): %v", kind, err)
		}
		if _, ok := store.(*MemoryStore); !ok {
			t.Fatalf("NewStore(%q) returned %T, want *MemoryStore", kind, store)
		}
	}
}

func TestNewStoreRejectsUnknownKind(t *testing.T) {
	if _, err := NewStore("postgres", ""); err == nil {
		t.Fatalf("expected error for unsupported backend")
	}
}

func TestCloseIfSupportedIgnoresMemoryStore(t *testing.T) {
	if err := CloseIfSupported(NewMemoryStore()); err != nil {
		t.Fatalf("CloseIfSupported: %v", err)
	}
}

func TestDefaultStoreKind(t *testing.T) {
	if got := DefaultStoreKind(); got != "memory" {
		t.Fatalf("DefaultStoreKind = %q, want memory", got)
	}
}
