package pooling

import (
	"errors"
	"testing"

	"poolcore/native/pooling/wad"
	"poolcore/storage"
)

func TestLedgerPoolLifecycle(t *testing.T) {
	ledger := NewLedger(storage.NewMemDB())
	id := key(1)

	if _, err := ledger.GetPool(id); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected not initialized, got %v", err)
	}

	pool := testPool(1_000, wad.DecimalZero(), 1_000)
	if err := ledger.InitPool(id, pool); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := ledger.InitPool(id, pool); !errors.Is(err, ErrAlreadyInitialized) {
		t.Fatalf("expected already initialized, got %v", err)
	}

	loaded, err := ledger.GetPool(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.Liquidity.AvailableAmount != 1_000 {
		t.Fatalf("unexpected available: %d", loaded.Liquidity.AvailableAmount)
	}

	// Mutating a loaded copy does not touch the stored record until Put.
	loaded.Liquidity.AvailableAmount = 5
	again, err := ledger.GetPool(id)
	if err != nil {
		t.Fatalf("get again: %v", err)
	}
	if again.Liquidity.AvailableAmount != 1_000 {
		t.Fatalf("stored record mutated without Put: %d", again.Liquidity.AvailableAmount)
	}
	if err := ledger.PutPool(id, loaded); err != nil {
		t.Fatalf("put: %v", err)
	}
	final, err := ledger.GetPool(id)
	if err != nil {
		t.Fatalf("get final: %v", err)
	}
	if final.Liquidity.AvailableAmount != 5 {
		t.Fatalf("put not persisted: %d", final.Liquidity.AvailableAmount)
	}
}

func TestLedgerClaimsPreAllocatedRecord(t *testing.T) {
	db := storage.NewMemDB()
	ledger := NewLedger(db)
	id := key(2)

	// A zeroed, version-0 blob is pre-allocated but never initialized.
	if err := db.Put(recordKey(ticketPrefix, id), make([]byte, TicketLen)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := ledger.GetTicket(id); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected not initialized, got %v", err)
	}
	if err := ledger.InitTicket(id, NewTicket(InitTicketParams{Owner: key(3)})); err != nil {
		t.Fatalf("init over pre-allocated record: %v", err)
	}
	ticket, err := ledger.GetTicket(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ticket.Owner != key(3) {
		t.Fatalf("unexpected owner: %s", ticket.Owner)
	}
}

func TestLedgerKeySpacesAreDisjoint(t *testing.T) {
	ledger := NewLedger(storage.NewMemDB())
	id := key(7)

	if err := ledger.InitTicket(id, NewTicket(InitTicketParams{})); err != nil {
		t.Fatalf("init ticket: %v", err)
	}
	if err := ledger.InitMining(id, NewMining(InitMiningParams{})); err != nil {
		t.Fatalf("init mining under same id: %v", err)
	}
	if _, err := ledger.GetPool(id); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("pool key space should be empty, got %v", err)
	}
}
