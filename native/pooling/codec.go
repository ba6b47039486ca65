package pooling

import (
	"encoding/binary"
	"fmt"

	"poolcore/native/pooling/wad"
)

// Record sizes in bytes. Layouts are fixed-offset and little-endian; the
// trailing reserved region of each record is kept zeroed for forward
// compatibility.
const (
	PoolManagerLen = 354
	PoolLen        = 646
	TicketLen      = 827
	MiningLen      = 642

	poolManagerReservedLen = 128
	poolReservedLen        = 248

	ticketEntryLen = 72
	miningEntryLen = 56
)

// cursor walks a fixed-layout buffer. Offsets are implicit in the field
// order, which must match between encode and decode exactly.
type cursor struct {
	buf []byte
	off int
}

func (c *cursor) next(n int) []byte {
	b := c.buf[c.off : c.off+n]
	c.off += n
	return b
}

func (c *cursor) putU8(v uint8)      { c.next(1)[0] = v }
func (c *cursor) putU64(v uint64)    { binary.LittleEndian.PutUint64(c.next(8), v) }
func (c *cursor) putKey(k PublicKey) { copy(c.next(PublicKeyLen), k[:]) }
func (c *cursor) putRaw(b [32]byte)  { copy(c.next(32), b[:]) }

func (c *cursor) putBool(v bool) {
	if v {
		c.next(1)[0] = 1
	} else {
		c.next(1)[0] = 0
	}
}

func (c *cursor) putDecimal(d wad.Decimal) error {
	return d.PutScaledBytes(c.next(wad.ScaledLen))
}

func (c *cursor) u8() uint8            { return c.next(1)[0] }
func (c *cursor) u64() uint64          { return binary.LittleEndian.Uint64(c.next(8)) }
func (c *cursor) decimal() wad.Decimal { return wad.DecimalFromScaledBytes(c.next(wad.ScaledLen)) }

func (c *cursor) key() PublicKey {
	var k PublicKey
	copy(k[:], c.next(PublicKeyLen))
	return k
}

func (c *cursor) raw() [32]byte {
	var b [32]byte
	copy(b[:], c.next(32))
	return b
}

func (c *cursor) flag() (bool, error) {
	switch c.next(1)[0] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("%w: invalid bool byte", ErrDataCorrupt)
	}
}

func checkVersion(v uint8) error {
	if v > ProgramVersion {
		return fmt.Errorf("%w: unsupported record version %d", ErrDataCorrupt, v)
	}
	return nil
}

// EncodePoolManager serializes m into its fixed layout.
func EncodePoolManager(m *PoolManager) ([]byte, error) {
	c := &cursor{buf: make([]byte, PoolManagerLen)}
	c.putU8(m.Version)
	c.putU8(m.BumpSeed)
	c.putKey(m.PendingOwner)
	c.putKey(m.Owner)
	c.putRaw(m.QuoteCurrency)
	c.putKey(m.TokenProgramID)
	c.putKey(m.OracleProgramID)
	c.putKey(m.MineMint)
	c.putKey(m.MineSupply)
	c.next(poolManagerReservedLen)
	return c.buf, nil
}

// DecodePoolManager parses a fixed-layout manager record.
func DecodePoolManager(data []byte) (*PoolManager, error) {
	if len(data) != PoolManagerLen {
		return nil, fmt.Errorf("%w: pool manager record must be %d bytes, got %d", ErrDataCorrupt, PoolManagerLen, len(data))
	}
	c := &cursor{buf: data}
	var m PoolManager
	m.Version = c.u8()
	if err := checkVersion(m.Version); err != nil {
		return nil, err
	}
	m.BumpSeed = c.u8()
	m.PendingOwner = c.key()
	m.Owner = c.key()
	m.QuoteCurrency = c.raw()
	m.TokenProgramID = c.key()
	m.OracleProgramID = c.key()
	m.MineMint = c.key()
	m.MineSupply = c.key()
	return &m, nil
}

// EncodePool serializes p into its fixed layout.
func EncodePool(p *Pool) ([]byte, error) {
	c := &cursor{buf: make([]byte, PoolLen)}
	c.putU8(p.Version)
	c.putU64(p.LastUpdate.Slot)
	c.putBool(p.LastUpdate.Stale)
	c.putKey(p.PoolManager)
	c.putKey(p.Liquidity.MintPubkey)
	c.putU8(p.Liquidity.MintDecimals)
	c.putKey(p.Liquidity.SupplyPubkey)
	c.putKey(p.Liquidity.FeeReceiver)
	c.putBool(p.Liquidity.UseOracle)
	c.putKey(p.Liquidity.OraclePubkey)
	c.putU64(p.Liquidity.AvailableAmount)
	for _, d := range []wad.Decimal{
		p.Liquidity.BorrowedAmountWads,
		p.Liquidity.CumulativeBorrowRateWads,
		p.Liquidity.MarketPrice,
		p.Liquidity.OwnerUnclaimed,
	} {
		if err := c.putDecimal(d); err != nil {
			return nil, err
		}
	}
	c.putKey(p.Collateral.MintPubkey)
	c.putU64(p.Collateral.MintTotalSupply)
	c.putKey(p.Collateral.SupplyPubkey)
	c.putBool(p.Config.DepositPaused)
	c.putKey(p.Collateral.UncollSupplyPubkey)
	if err := c.putDecimal(p.Lottery.LTokenMiningIndex); err != nil {
		return nil, err
	}
	if err := c.putDecimal(p.Lottery.BorrowMiningIndex); err != nil {
		return nil, err
	}
	c.putU64(p.Lottery.TotalMiningSpeed)
	c.putU64(p.Lottery.KinkUtilRate)
	c.putBool(p.ReentryLock)
	c.next(poolReservedLen)
	return c.buf, nil
}

// DecodePool parses a fixed-layout pool record.
func DecodePool(data []byte) (*Pool, error) {
	if len(data) != PoolLen {
		return nil, fmt.Errorf("%w: pool record must be %d bytes, got %d", ErrDataCorrupt, PoolLen, len(data))
	}
	c := &cursor{buf: data}
	var p Pool
	var err error
	p.Version = c.u8()
	if err := checkVersion(p.Version); err != nil {
		return nil, err
	}
	p.LastUpdate.Slot = c.u64()
	if p.LastUpdate.Stale, err = c.flag(); err != nil {
		return nil, err
	}
	p.PoolManager = c.key()
	p.Liquidity.MintPubkey = c.key()
	p.Liquidity.MintDecimals = c.u8()
	p.Liquidity.SupplyPubkey = c.key()
	p.Liquidity.FeeReceiver = c.key()
	if p.Liquidity.UseOracle, err = c.flag(); err != nil {
		return nil, err
	}
	p.Liquidity.OraclePubkey = c.key()
	p.Liquidity.AvailableAmount = c.u64()
	p.Liquidity.BorrowedAmountWads = c.decimal()
	p.Liquidity.CumulativeBorrowRateWads = c.decimal()
	p.Liquidity.MarketPrice = c.decimal()
	p.Liquidity.OwnerUnclaimed = c.decimal()
	p.Collateral.MintPubkey = c.key()
	p.Collateral.MintTotalSupply = c.u64()
	p.Collateral.SupplyPubkey = c.key()
	if p.Config.DepositPaused, err = c.flag(); err != nil {
		return nil, err
	}
	p.Collateral.UncollSupplyPubkey = c.key()
	p.Lottery.LTokenMiningIndex = c.decimal()
	p.Lottery.BorrowMiningIndex = c.decimal()
	p.Lottery.TotalMiningSpeed = c.u64()
	p.Lottery.KinkUtilRate = c.u64()
	if p.ReentryLock, err = c.flag(); err != nil {
		return nil, err
	}
	return &p, nil
}

// EncodeTicket serializes t into its fixed layout. Unused entry slots stay
// zeroed; only the first len(Deposits) slots carry data.
func EncodeTicket(t *Ticket) ([]byte, error) {
	if len(t.Deposits) > MaxTicketDeposits {
		return nil, fmt.Errorf("%w: ticket holds %d entries, max %d", ErrDataCorrupt, len(t.Deposits), MaxTicketDeposits)
	}
	c := &cursor{buf: make([]byte, TicketLen)}
	c.putU8(t.Version)
	c.putU64(t.LastUpdate.Slot)
	c.putBool(t.LastUpdate.Stale)
	c.putKey(t.PoolManager)
	c.putKey(t.Owner)
	if err := c.putDecimal(t.DepositedValue); err != nil {
		return nil, err
	}
	c.putU8(uint8(len(t.Deposits)))
	if err := c.putDecimal(t.UnclaimedMine); err != nil {
		return nil, err
	}
	for _, entry := range t.Deposits {
		c.putKey(entry.Pool)
		c.putU64(entry.DepositedAmount)
		if err := c.putDecimal(entry.MarketValue); err != nil {
			return nil, err
		}
		if err := c.putDecimal(entry.Index); err != nil {
			return nil, err
		}
	}
	return c.buf, nil
}

// DecodeTicket parses a fixed-layout ticket record.
func DecodeTicket(data []byte) (*Ticket, error) {
	if len(data) != TicketLen {
		return nil, fmt.Errorf("%w: ticket record must be %d bytes, got %d", ErrDataCorrupt, TicketLen, len(data))
	}
	c := &cursor{buf: data}
	var t Ticket
	var err error
	t.Version = c.u8()
	if err := checkVersion(t.Version); err != nil {
		return nil, err
	}
	t.LastUpdate.Slot = c.u64()
	if t.LastUpdate.Stale, err = c.flag(); err != nil {
		return nil, err
	}
	t.PoolManager = c.key()
	t.Owner = c.key()
	t.DepositedValue = c.decimal()
	count := int(c.u8())
	if count > MaxTicketDeposits {
		return nil, fmt.Errorf("%w: ticket entry count %d exceeds max %d", ErrDataCorrupt, count, MaxTicketDeposits)
	}
	t.UnclaimedMine = c.decimal()
	t.Deposits = make([]TicketCollateral, count)
	for i := range t.Deposits {
		t.Deposits[i].Pool = c.key()
		t.Deposits[i].DepositedAmount = c.u64()
		t.Deposits[i].MarketValue = c.decimal()
		t.Deposits[i].Index = c.decimal()
	}
	return &t, nil
}

// EncodeMining serializes m into its fixed layout.
func EncodeMining(m *Mining) ([]byte, error) {
	if len(m.Indices) > MaxMiningIndices {
		return nil, fmt.Errorf("%w: mining record holds %d entries, max %d", ErrDataCorrupt, len(m.Indices), MaxMiningIndices)
	}
	c := &cursor{buf: make([]byte, MiningLen)}
	c.putU8(m.Version)
	c.putKey(m.Owner)
	c.putKey(m.PoolManager)
	c.putU8(uint8(len(m.Indices)))
	if err := c.putDecimal(m.UnclaimedMine); err != nil {
		return nil, err
	}
	for _, entry := range m.Indices {
		c.putKey(entry.Pool)
		c.putU64(entry.UncollLTokenAmount)
		if err := c.putDecimal(entry.Index); err != nil {
			return nil, err
		}
	}
	return c.buf, nil
}

// DecodeMining parses a fixed-layout mining record.
func DecodeMining(data []byte) (*Mining, error) {
	if len(data) != MiningLen {
		return nil, fmt.Errorf("%w: mining record must be %d bytes, got %d", ErrDataCorrupt, MiningLen, len(data))
	}
	c := &cursor{buf: data}
	var m Mining
	m.Version = c.u8()
	if err := checkVersion(m.Version); err != nil {
		return nil, err
	}
	m.Owner = c.key()
	m.PoolManager = c.key()
	count := int(c.u8())
	if count > MaxMiningIndices {
		return nil, fmt.Errorf("%w: mining entry count %d exceeds max %d", ErrDataCorrupt, count, MaxMiningIndices)
	}
	m.UnclaimedMine = c.decimal()
	m.Indices = make([]MiningIndex, count)
	for i := range m.Indices {
		m.Indices[i].Pool = c.key()
		m.Indices[i].UncollLTokenAmount = c.u64()
		m.Indices[i].Index = c.decimal()
	}
	return &m, nil
}
