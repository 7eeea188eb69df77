package store

import (
	"path/filepath"
	"testing"
)

func backends(t *testing.T) map[string]Storage {
	t.Helper()
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return map[string]Storage{
		"mem":  NewMemStore(),
		"file": fs,
	}
}

func TestSaveLoad(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			rec := Record{
				Container: []byte("fake-container-bytes"),
				Metadata:  Metadata{Currency: "USD", EnabledChains: []string{"bitcoin", "ethereum"}},
			}
			if err := s.Save("vault-1", rec); err != nil {
				t.Fatalf("Save: %v", err)
			}

			got, err := s.Load("vault-1")
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if string(got.Container) != "fake-container-bytes" {
				t.Errorf("unexpected container bytes: %s", got.Container)
			}
			if got.Metadata.Currency != "USD" {
				t.Errorf("expected currency USD, got %s", got.Metadata.Currency)
			}
		})
	}
}

func TestLoad_NotFound(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Load("missing"); err == nil {
				t.Fatal("expected error for missing vault")
			}
		})
	}
}

func TestList(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_ = s.Save("b", Record{Container: []byte("x")})
			_ = s.Save("a", Record{Container: []byte("y")})

			ids, err := s.List()
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
				t.Errorf("expected sorted [a b], got %v", ids)
			}
		})
	}
}

func TestActiveVault(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.GetActive(); err == nil {
				t.Fatal("expected ErrNoActive before anything is set")
			}

			_ = s.Save("v1", Record{Container: []byte("x")})
			if err := s.SetActive("v1"); err != nil {
				t.Fatalf("SetActive: %v", err)
			}

			active, err := s.GetActive()
			if err != nil {
				t.Fatalf("GetActive: %v", err)
			}
			if active != "v1" {
				t.Errorf("expected active=v1, got %s", active)
			}
		})
	}
}

func TestDelete_ClearsActive(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_ = s.Save("v1", Record{Container: []byte("x")})
			_ = s.SetActive("v1")
			_ = s.Delete("v1")

			if _, err := s.GetActive(); err == nil {
				t.Fatal("expected active vault to be cleared after delete")
			}
		})
	}
}

func TestAddressBook_AmbiguousRemoval(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			book := s.AddressBook()
			if err := book.Remove("bitcoin", ""); err != ErrAmbiguousRemoval {
				t.Errorf("expected ErrAmbiguousRemoval, got %v", err)
			}
			if err := book.Remove("", "bc1q..."); err != ErrAmbiguousRemoval {
				t.Errorf("expected ErrAmbiguousRemoval, got %v", err)
			}
		})
	}
}

func TestAddressBook_AddListRemove(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			book := s.AddressBook()
			entry := AddressBookEntry{Chain: "bitcoin", Address: "bc1qexample", Label: "cold storage"}
			if err := book.Add(entry); err != nil {
				t.Fatalf("Add: %v", err)
			}

			entries, err := book.List()
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(entries) != 1 || entries[0].Label != "cold storage" {
				t.Fatalf("unexpected entries: %+v", entries)
			}

			if err := book.Remove("bitcoin", "bc1qexample"); err != nil {
				t.Fatalf("Remove: %v", err)
			}
			entries, _ = book.List()
			if len(entries) != 0 {
				t.Errorf("expected empty address book after remove, got %+v", entries)
			}
		})
	}
}

func TestFileStore_RejectsUnsafeBaseDir(t *testing.T) {
	if _, err := NewFileStore(filepath.Join("/etc", "passwd")); err == nil {
		t.Fatal("expected error constructing a store rooted at a system path")
	}
}
