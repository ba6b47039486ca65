package pooling

// PoolManager is the market-level root record every pool, ticket and mining
// record hangs off. Ownership transfer is a two-step handshake through
// PendingOwner.
type PoolManager struct {
	Version  uint8
	BumpSeed uint8
	// PendingOwner is the proposed new owner awaiting acceptance, zero when
	// no transfer is in flight.
	PendingOwner PublicKey
	Owner        PublicKey
	// QuoteCurrency names the currency all market prices are quoted in,
	// zero-padded ASCII.
	QuoteCurrency   [32]byte
	TokenProgramID  PublicKey
	OracleProgramID PublicKey
	MineMint        PublicKey
	MineSupply      PublicKey
}

// InitPoolManagerParams collects everything needed to create a manager
// record.
type InitPoolManagerParams struct {
	BumpSeed        uint8
	Owner           PublicKey
	QuoteCurrency   [32]byte
	TokenProgramID  PublicKey
	OracleProgramID PublicKey
	MineMint        PublicKey
	MineSupply      PublicKey
}

// NewPoolManager builds a freshly initialized manager record.
func NewPoolManager(params InitPoolManagerParams) *PoolManager {
	return &PoolManager{
		Version:         ProgramVersion,
		BumpSeed:        params.BumpSeed,
		Owner:           params.Owner,
		QuoteCurrency:   params.QuoteCurrency,
		TokenProgramID:  params.TokenProgramID,
		OracleProgramID: params.OracleProgramID,
		MineMint:        params.MineMint,
		MineSupply:      params.MineSupply,
	}
}

// QuoteCurrencyFromString packs s into the fixed-width quote-currency field.
func QuoteCurrencyFromString(s string) ([32]byte, error) {
	var out [32]byte
	if len(s) > len(out) {
		return out, ErrDataCorrupt
	}
	copy(out[:], s)
	return out, nil
}
