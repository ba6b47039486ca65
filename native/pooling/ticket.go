package pooling

import "poolcore/native/pooling/wad"

// Ticket is a user's deposit position: one entry per pool the user holds
// claim tokens in, plus the reward balance accrued against those holdings.
type Ticket struct {
	Version     uint8
	LastUpdate  LastUpdate
	PoolManager PublicKey
	Owner       PublicKey
	// DepositedValue is the quote-currency value of all entries as of the
	// last refresh.
	DepositedValue wad.Decimal
	UnclaimedMine  wad.Decimal
	Deposits       []TicketCollateral
}

// TicketCollateral is one pool's slice of a ticket.
type TicketCollateral struct {
	Pool            PublicKey
	DepositedAmount uint64
	MarketValue     wad.Decimal
	// Index is the watermark of the pool's claim-holder reward index at the
	// entry's last accrual.
	Index wad.Decimal
}

// InitTicketParams collects everything needed to create a ticket record.
type InitTicketParams struct {
	CurrentSlot uint64
	PoolManager PublicKey
	Owner       PublicKey
}

// NewTicket builds a freshly initialized ticket. It starts stale with an
// empty entry list.
func NewTicket(params InitTicketParams) *Ticket {
	return &Ticket{
		Version:     ProgramVersion,
		LastUpdate:  NewLastUpdate(params.CurrentSlot),
		PoolManager: params.PoolManager,
		Owner:       params.Owner,
	}
}

// FindCollateral locates the entry keyed by pool.
func (t *Ticket) FindCollateral(pool PublicKey) (int, error) {
	for i := range t.Deposits {
		if t.Deposits[i].Pool == pool {
			return i, nil
		}
	}
	return 0, ErrEntryNotFound
}

// FindOrAddCollateral locates the entry keyed by pool, creating one seeded
// at index when absent. The list is capped at MaxTicketDeposits.
func (t *Ticket) FindOrAddCollateral(pool PublicKey, index wad.Decimal) (int, error) {
	if i, err := t.FindCollateral(pool); err == nil {
		return i, nil
	}
	if len(t.Deposits) >= MaxTicketDeposits {
		return 0, ErrCapacityExceeded
	}
	t.Deposits = append(t.Deposits, TicketCollateral{Pool: pool, Index: index})
	return len(t.Deposits) - 1, nil
}

// RefreshUnclaimed accrues entry i's pending rewards against currentIndex
// and advances its watermark. Accrual must happen before any balance change
// so the old balance earns up to the present index.
func (t *Ticket) RefreshUnclaimed(i int, currentIndex wad.Decimal) error {
	entry := &t.Deposits[i]
	delta, err := currentIndex.Sub(entry.Index)
	if err != nil {
		return err
	}
	reward, err := delta.MulInt(entry.DepositedAmount)
	if err != nil {
		return err
	}
	unclaimed, err := t.UnclaimedMine.Add(reward)
	if err != nil {
		return err
	}
	t.UnclaimedMine = unclaimed
	entry.Index = currentIndex
	return nil
}

// Deposit credits amount of claim tokens to entry i.
func (t *Ticket) Deposit(i int, amount uint64) error {
	entry := &t.Deposits[i]
	next := entry.DepositedAmount + amount
	if next < entry.DepositedAmount {
		return wad.ErrOverflow
	}
	entry.DepositedAmount = next
	return nil
}

// Withdraw debits amount of claim tokens from entry i, removing the entry
// when it empties.
func (t *Ticket) Withdraw(i int, amount uint64) error {
	entry := &t.Deposits[i]
	switch {
	case amount > entry.DepositedAmount:
		return ErrInsufficientBalance
	case amount == entry.DepositedAmount:
		t.Deposits = append(t.Deposits[:i], t.Deposits[i+1:]...)
	default:
		entry.DepositedAmount -= amount
	}
	return nil
}

// ClaimMine pays out the whole-token part of the unclaimed balance, leaving
// the sub-token remainder to keep accruing.
func (t *Ticket) ClaimMine() (uint64, error) {
	amount, err := t.UnclaimedMine.FloorU64()
	if err != nil {
		return 0, err
	}
	remaining, err := t.UnclaimedMine.Sub(wad.NewDecimal(amount))
	if err != nil {
		return 0, err
	}
	t.UnclaimedMine = remaining
	return amount, nil
}
