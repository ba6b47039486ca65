package pooling

import "errors"

var (
	// ErrRecordStale is returned when an operation reads priced or indexed
	// state that has not been refreshed for the current slot.
	ErrRecordStale = errors.New("pooling: record is stale and must be refreshed")
	// ErrAlreadyInitialized is returned when an init operation targets a
	// record that already carries a non-zero version.
	ErrAlreadyInitialized = errors.New("pooling: record already initialized")
	// ErrNotInitialized is returned when an operation targets a record that
	// does not exist or has never been initialized.
	ErrNotInitialized = errors.New("pooling: record not initialized")
	// ErrCapacityExceeded is returned when a fixed-capacity entry list is full.
	ErrCapacityExceeded = errors.New("pooling: entry list capacity exceeded")
	// ErrEntryNotFound is returned when a pool-keyed entry lookup misses.
	ErrEntryNotFound = errors.New("pooling: entry not found")
	// ErrPoolMismatch is returned when the pools supplied to a position
	// refresh do not line up one-to-one with the recorded entries.
	ErrPoolMismatch = errors.New("pooling: supplied pool does not match record entry")
	// ErrInsufficientBalance is returned when a withdrawal or redeem exceeds
	// the held balance.
	ErrInsufficientBalance = errors.New("pooling: insufficient balance")
	// ErrInsufficientLiquidity is returned when a withdrawal would drive the
	// pool's available liquidity below the owner's unclaimed fees.
	ErrInsufficientLiquidity = errors.New("pooling: insufficient liquidity")
	// ErrInvalidAmount is returned for zero-amount operations.
	ErrInvalidAmount = errors.New("pooling: amount must be positive")
	// ErrDataCorrupt is returned by the codec for wrong-length buffers or
	// record versions newer than this code understands.
	ErrDataCorrupt = errors.New("pooling: record data corrupt")
	// ErrReentry is returned when a pool is already locked by an enclosing
	// mutation.
	ErrReentry = errors.New("pooling: pool is reentry locked")
	// ErrDepositPaused is returned when deposits are administratively paused.
	ErrDepositPaused = errors.New("pooling: deposits paused")
)
