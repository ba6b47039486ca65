package pooling

import (
	"testing"

	"poolcore/native/pooling/wad"
)

func key(b byte) PublicKey {
	var k PublicKey
	k[0] = b
	return k
}

func TestTicketAccrual(t *testing.T) {
	ticket := NewTicket(InitTicketParams{PoolManager: key(1), Owner: key(2)})
	i, err := ticket.FindOrAddCollateral(key(3), wad.DecimalZero())
	if err != nil {
		t.Fatalf("add entry: %v", err)
	}
	if err := ticket.Deposit(i, 500); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	// Index advances by 0.0005 -> 500 * 0.0005 = 0.25 rewards.
	index, err := wad.NewDecimal(5).DivInt(10_000)
	if err != nil {
		t.Fatalf("build index: %v", err)
	}
	if err := ticket.RefreshUnclaimed(i, index); err != nil {
		t.Fatalf("refresh unclaimed: %v", err)
	}

	want, err := wad.NewDecimal(1).DivInt(4)
	if err != nil {
		t.Fatalf("build expectation: %v", err)
	}
	if !ticket.UnclaimedMine.Equal(want) {
		t.Fatalf("unexpected unclaimed: %s", ticket.UnclaimedMine)
	}
	if !ticket.Deposits[i].Index.Equal(index) {
		t.Fatalf("watermark not advanced: %s", ticket.Deposits[i].Index)
	}

	// A second refresh at the same index accrues nothing more.
	if err := ticket.RefreshUnclaimed(i, index); err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	if !ticket.UnclaimedMine.Equal(want) {
		t.Fatalf("refresh at same index should not accrue, got %s", ticket.UnclaimedMine)
	}
}

func TestTicketAccrualRejectsIndexRegression(t *testing.T) {
	ticket := NewTicket(InitTicketParams{})
	i, err := ticket.FindOrAddCollateral(key(3), wad.DecimalOne())
	if err != nil {
		t.Fatalf("add entry: %v", err)
	}
	if err := ticket.RefreshUnclaimed(i, wad.DecimalZero()); err != wad.ErrUnderflow {
		t.Fatalf("expected underflow on regressing index, got %v", err)
	}
}

func TestTicketFindOrAddCapacity(t *testing.T) {
	ticket := NewTicket(InitTicketParams{})
	for b := byte(0); b < MaxTicketDeposits; b++ {
		if _, err := ticket.FindOrAddCollateral(key(b), wad.DecimalZero()); err != nil {
			t.Fatalf("add entry %d: %v", b, err)
		}
	}
	if _, err := ticket.FindOrAddCollateral(key(200), wad.DecimalZero()); err != ErrCapacityExceeded {
		t.Fatalf("expected capacity error, got %v", err)
	}
	// Existing entries are still found once the list is full.
	if i, err := ticket.FindOrAddCollateral(key(4), wad.DecimalZero()); err != nil || i != 4 {
		t.Fatalf("lookup of existing entry failed: i=%d err=%v", i, err)
	}
}

func TestTicketWithdraw(t *testing.T) {
	ticket := NewTicket(InitTicketParams{})
	i, _ := ticket.FindOrAddCollateral(key(1), wad.DecimalZero())
	if err := ticket.Deposit(i, 100); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	if err := ticket.Withdraw(i, 101); err != ErrInsufficientBalance {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
	if err := ticket.Withdraw(i, 40); err != nil {
		t.Fatalf("partial withdraw: %v", err)
	}
	if ticket.Deposits[i].DepositedAmount != 60 {
		t.Fatalf("unexpected balance: %d", ticket.Deposits[i].DepositedAmount)
	}

	// Draining the entry removes it.
	if err := ticket.Withdraw(i, 60); err != nil {
		t.Fatalf("final withdraw: %v", err)
	}
	if len(ticket.Deposits) != 0 {
		t.Fatalf("entry should be removed, %d left", len(ticket.Deposits))
	}
	if _, err := ticket.FindCollateral(key(1)); err != ErrEntryNotFound {
		t.Fatalf("expected entry not found, got %v", err)
	}
}

func TestTicketClaimMineLeavesDust(t *testing.T) {
	ticket := NewTicket(InitTicketParams{})
	unclaimed, err := wad.NewDecimal(11).DivInt(4) // 2.75
	if err != nil {
		t.Fatalf("build unclaimed: %v", err)
	}
	ticket.UnclaimedMine = unclaimed

	amount, err := ticket.ClaimMine()
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if amount != 2 {
		t.Fatalf("unexpected claim amount: %d", amount)
	}
	dust, err := wad.NewDecimal(3).DivInt(4)
	if err != nil {
		t.Fatalf("build dust: %v", err)
	}
	if !ticket.UnclaimedMine.Equal(dust) {
		t.Fatalf("unexpected remainder: %s", ticket.UnclaimedMine)
	}
}
