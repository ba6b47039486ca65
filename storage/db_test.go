package storage

import (
	"errors"
	"path/filepath"
	"testing"
)

func runDatabaseContract(t *testing.T, db Database) {
	t.Helper()
	defer db.Close()

	if _, err := db.Get([]byte("missing")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	found, err := db.Has([]byte("missing"))
	if err != nil || found {
		t.Fatalf("missing key reported present: found=%v err=%v", found, err)
	}

	if err := db.Put([]byte("k"), []byte("v1")); err != nil {
		t.Fatalf("put: %v", err)
	}
	value, err := db.Get([]byte("k"))
	if err != nil || string(value) != "v1" {
		t.Fatalf("get: value=%q err=%v", value, err)
	}
	found, err = db.Has([]byte("k"))
	if err != nil || !found {
		t.Fatalf("present key reported missing: found=%v err=%v", found, err)
	}

	// Overwrites replace the value.
	if err := db.Put([]byte("k"), []byte("v2")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	value, err = db.Get([]byte("k"))
	if err != nil || string(value) != "v2" {
		t.Fatalf("get after overwrite: value=%q err=%v", value, err)
	}

	// Mutating a returned buffer must not corrupt the stored value.
	value[0] = 'x'
	value, err = db.Get([]byte("k"))
	if err != nil || string(value) != "v2" {
		t.Fatalf("stored value mutated through returned slice: value=%q err=%v", value, err)
	}
}

func TestMemDBContract(t *testing.T) {
	runDatabaseContract(t, NewMemDB())
}

func TestLevelDBContract(t *testing.T) {
	db, err := NewLevelDB(filepath.Join(t.TempDir(), "records"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	runDatabaseContract(t, db)
}

func TestBoltDBContract(t *testing.T) {
	db, err := NewBoltDB(filepath.Join(t.TempDir(), "records.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	runDatabaseContract(t, db)
}

func TestOpenSelectsBackend(t *testing.T) {
	db, err := Open("memory", "")
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	if _, ok := db.(*MemDB); !ok {
		t.Fatalf("unexpected backend type %T", db)
	}
	db.Close()

	if _, err := Open("sqlite", ""); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}
