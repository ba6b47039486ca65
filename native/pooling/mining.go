package pooling

import "poolcore/native/pooling/wad"

// Mining is the side ledger for claim tokens parked outside circulation. It
// mirrors Ticket's accrual mechanics but carries no pricing and no staleness
// gate of its own; freshness is enforced against the pools it references.
type Mining struct {
	Version       uint8
	Owner         PublicKey
	PoolManager   PublicKey
	UnclaimedMine wad.Decimal
	Indices       []MiningIndex
}

// MiningIndex is one pool's slice of a mining record.
type MiningIndex struct {
	Pool PublicKey
	// UncollLTokenAmount is the parked claim-token balance.
	UncollLTokenAmount uint64
	Index              wad.Decimal
}

// InitMiningParams collects everything needed to create a mining record.
type InitMiningParams struct {
	PoolManager PublicKey
	Owner       PublicKey
}

// NewMining builds a freshly initialized mining record.
func NewMining(params InitMiningParams) *Mining {
	return &Mining{
		Version:     ProgramVersion,
		Owner:       params.Owner,
		PoolManager: params.PoolManager,
	}
}

// FindIndex locates the entry keyed by pool.
func (m *Mining) FindIndex(pool PublicKey) (int, error) {
	for i := range m.Indices {
		if m.Indices[i].Pool == pool {
			return i, nil
		}
	}
	return 0, ErrEntryNotFound
}

// FindOrAddIndex locates the entry keyed by pool, creating one seeded at
// index when absent. The list is capped at MaxMiningIndices.
func (m *Mining) FindOrAddIndex(pool PublicKey, index wad.Decimal) (int, error) {
	if i, err := m.FindIndex(pool); err == nil {
		return i, nil
	}
	if len(m.Indices) >= MaxMiningIndices {
		return 0, ErrCapacityExceeded
	}
	m.Indices = append(m.Indices, MiningIndex{Pool: pool, Index: index})
	return len(m.Indices) - 1, nil
}

// RefreshUnclaimed accrues entry i's pending rewards against currentIndex
// and advances its watermark.
func (m *Mining) RefreshUnclaimed(i int, currentIndex wad.Decimal) error {
	entry := &m.Indices[i]
	delta, err := currentIndex.Sub(entry.Index)
	if err != nil {
		return err
	}
	reward, err := delta.MulInt(entry.UncollLTokenAmount)
	if err != nil {
		return err
	}
	unclaimed, err := m.UnclaimedMine.Add(reward)
	if err != nil {
		return err
	}
	m.UnclaimedMine = unclaimed
	entry.Index = currentIndex
	return nil
}

// Deposit credits amount of parked claim tokens to entry i.
func (m *Mining) Deposit(i int, amount uint64) error {
	entry := &m.Indices[i]
	next := entry.UncollLTokenAmount + amount
	if next < entry.UncollLTokenAmount {
		return wad.ErrOverflow
	}
	entry.UncollLTokenAmount = next
	return nil
}

// Withdraw debits amount of parked claim tokens from entry i, removing the
// entry when it empties.
func (m *Mining) Withdraw(i int, amount uint64) error {
	entry := &m.Indices[i]
	switch {
	case amount > entry.UncollLTokenAmount:
		return ErrInsufficientBalance
	case amount == entry.UncollLTokenAmount:
		m.Indices = append(m.Indices[:i], m.Indices[i+1:]...)
	default:
		entry.UncollLTokenAmount -= amount
	}
	return nil
}

// ClaimMine pays out the whole-token part of the unclaimed balance, leaving
// the sub-token remainder to keep accruing.
func (m *Mining) ClaimMine() (uint64, error) {
	amount, err := m.UnclaimedMine.FloorU64()
	if err != nil {
		return 0, err
	}
	remaining, err := m.UnclaimedMine.Sub(wad.NewDecimal(amount))
	if err != nil {
		return 0, err
	}
	m.UnclaimedMine = remaining
	return amount, nil
}
