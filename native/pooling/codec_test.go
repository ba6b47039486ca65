package pooling

import (
	"reflect"
	"testing"

	"poolcore/native/pooling/wad"
)

func samplePool(t *testing.T) *Pool {
	t.Helper()
	price, err := wad.NewDecimal(5).DivInt(2)
	if err != nil {
		t.Fatalf("build price: %v", err)
	}
	return &Pool{
		Version:     ProgramVersion,
		LastUpdate:  LastUpdate{Slot: 42, Stale: true},
		PoolManager: key(1),
		Liquidity: PoolLiquidity{
			MintPubkey:               key(2),
			MintDecimals:             6,
			SupplyPubkey:             key(3),
			FeeReceiver:              key(4),
			UseOracle:                true,
			OraclePubkey:             key(5),
			AvailableAmount:          1_000_000,
			BorrowedAmountWads:       wad.NewDecimal(250_000),
			CumulativeBorrowRateWads: wad.DecimalOne(),
			MarketPrice:              price,
			OwnerUnclaimed:           wad.NewDecimal(17),
		},
		Collateral: PoolCollateral{
			MintPubkey:         key(6),
			MintTotalSupply:    1_200_000,
			SupplyPubkey:       key(7),
			UncollSupplyPubkey: key(8),
		},
		Config: PoolConfig{DepositPaused: true},
		Lottery: Lottery{
			LTokenMiningIndex: wad.NewDecimal(3),
			BorrowMiningIndex: wad.NewDecimal(4),
			TotalMiningSpeed:  100,
			KinkUtilRate:      8_000,
		},
		ReentryLock: true,
	}
}

func TestPoolCodecRoundTrip(t *testing.T) {
	pool := samplePool(t)
	data, err := EncodePool(pool)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(data) != PoolLen {
		t.Fatalf("unexpected encoded length: %d", len(data))
	}
	decoded, err := DecodePool(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(pool, decoded) {
		t.Fatalf("round trip changed record:\n  in:  %+v\n  out: %+v", pool, decoded)
	}
}

func TestPoolManagerCodecRoundTrip(t *testing.T) {
	quote, err := QuoteCurrencyFromString("USD")
	if err != nil {
		t.Fatalf("quote currency: %v", err)
	}
	manager := NewPoolManager(InitPoolManagerParams{
		BumpSeed:        7,
		Owner:           key(1),
		QuoteCurrency:   quote,
		TokenProgramID:  key(2),
		OracleProgramID: key(3),
		MineMint:        key(4),
		MineSupply:      key(5),
	})
	manager.PendingOwner = key(9)

	data, err := EncodePoolManager(manager)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(data) != PoolManagerLen {
		t.Fatalf("unexpected encoded length: %d", len(data))
	}
	decoded, err := DecodePoolManager(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(manager, decoded) {
		t.Fatalf("round trip changed record")
	}
}

func TestTicketCodecRoundTrip(t *testing.T) {
	ticket := NewTicket(InitTicketParams{CurrentSlot: 9, PoolManager: key(1), Owner: key(2)})
	for b := byte(0); b < 3; b++ {
		i, err := ticket.FindOrAddCollateral(key(10+b), wad.NewDecimal(uint64(b)))
		if err != nil {
			t.Fatalf("add entry: %v", err)
		}
		if err := ticket.Deposit(i, uint64(100*(b+1))); err != nil {
			t.Fatalf("deposit: %v", err)
		}
	}
	ticket.DepositedValue = wad.NewDecimal(600)
	ticket.UnclaimedMine = wad.NewDecimal(3)

	data, err := EncodeTicket(ticket)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(data) != TicketLen {
		t.Fatalf("unexpected encoded length: %d", len(data))
	}
	decoded, err := DecodeTicket(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(ticket, decoded) {
		t.Fatalf("round trip changed record:\n  in:  %+v\n  out: %+v", ticket, decoded)
	}
}

func TestMiningCodecRoundTrip(t *testing.T) {
	mining := NewMining(InitMiningParams{PoolManager: key(1), Owner: key(2)})
	i, err := mining.FindOrAddIndex(key(3), wad.NewDecimal(2))
	if err != nil {
		t.Fatalf("add entry: %v", err)
	}
	if err := mining.Deposit(i, 777); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	mining.UnclaimedMine = wad.NewDecimal(1)

	data, err := EncodeMining(mining)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(data) != MiningLen {
		t.Fatalf("unexpected encoded length: %d", len(data))
	}
	decoded, err := DecodeMining(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(mining, decoded) {
		t.Fatalf("round trip changed record")
	}
}

func TestDecodeRejectsWrongLength(t *testing.T) {
	if _, err := DecodePool(make([]byte, PoolLen-1)); err == nil {
		t.Fatalf("expected error for short pool buffer")
	}
	if _, err := DecodeTicket(make([]byte, TicketLen+1)); err == nil {
		t.Fatalf("expected error for long ticket buffer")
	}
	if _, err := DecodeMining(nil); err == nil {
		t.Fatalf("expected error for nil mining buffer")
	}
	if _, err := DecodePoolManager(make([]byte, 1)); err == nil {
		t.Fatalf("expected error for short manager buffer")
	}
}

func TestDecodeRejectsFutureVersion(t *testing.T) {
	data, err := EncodePool(samplePool(t))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	data[0] = ProgramVersion + 1
	if _, err := DecodePool(data); err == nil {
		t.Fatalf("expected error for future version")
	}
}

func TestDecodeRejectsBadBoolByte(t *testing.T) {
	data, err := EncodePool(samplePool(t))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	data[9] = 2 // staleness flag
	if _, err := DecodePool(data); err == nil {
		t.Fatalf("expected error for invalid bool byte")
	}
}

func TestDecodeRejectsOversizedEntryCount(t *testing.T) {
	data, err := EncodeTicket(NewTicket(InitTicketParams{}))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	data[90] = MaxTicketDeposits + 1 // entry count
	if _, err := DecodeTicket(data); err == nil {
		t.Fatalf("expected error for oversized ticket entry count")
	}

	data, err = EncodeMining(NewMining(InitMiningParams{}))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	data[65] = MaxMiningIndices + 1 // entry count
	if _, err := DecodeMining(data); err == nil {
		t.Fatalf("expected error for oversized mining entry count")
	}
}

func TestRecordLayoutSizes(t *testing.T) {
	if got := 107 + MaxTicketDeposits*ticketEntryLen; got != TicketLen {
		t.Fatalf("ticket layout mismatch: %d != %d", got, TicketLen)
	}
	if got := 82 + MaxMiningIndices*miningEntryLen; got != MiningLen {
		t.Fatalf("mining layout mismatch: %d != %d", got, MiningLen)
	}
}
