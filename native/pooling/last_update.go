package pooling

import "poolcore/native/pooling/wad"

// StaleAfterSlotsElapsed is the number of slots a refreshed record stays
// usable before it must be refreshed again.
const StaleAfterSlotsElapsed = 1

// LastUpdate is the staleness gate carried by Pool and Ticket records.
type LastUpdate struct {
	// Slot is the slot the record was last refreshed in.
	Slot uint64
	// Stale is set after any mutation that invalidates derived values.
	Stale bool
}

// NewLastUpdate returns a stale LastUpdate pinned at slot.
func NewLastUpdate(slot uint64) LastUpdate {
	return LastUpdate{Slot: slot, Stale: true}
}

// UpdateSlot records a completed refresh at slot and clears the stale flag.
func (l *LastUpdate) UpdateSlot(slot uint64) {
	l.Slot = slot
	l.Stale = false
}

// MarkStale flags the record as needing a refresh before its priced or
// indexed data can be used again.
func (l *LastUpdate) MarkStale() {
	l.Stale = true
}

// SlotsElapsed returns slot - l.Slot, failing on clock regression.
func (l LastUpdate) SlotsElapsed(slot uint64) (uint64, error) {
	if slot < l.Slot {
		return 0, wad.ErrOverflow
	}
	return slot - l.Slot, nil
}

// IsStale reports whether the record must be refreshed before use at slot.
func (l LastUpdate) IsStale(slot uint64) (bool, error) {
	return l.IsStaleWithin(slot, StaleAfterSlotsElapsed)
}

// IsStaleWithin is IsStale with an explicit freshness window.
func (l LastUpdate) IsStaleWithin(slot, window uint64) (bool, error) {
	if l.Stale {
		return true, nil
	}
	elapsed, err := l.SlotsElapsed(slot)
	if err != nil {
		return true, err
	}
	return elapsed >= window, nil
}
