package pooling

import "poolcore/native/pooling/wad"

// ProgramVersion is the current record version. Decoders reject anything
// newer; a zero version marks an uninitialized record.
const ProgramVersion = 1

// SlotsPerYear converts an annual borrow rate into a per-slot rate.
const SlotsPerYear = 78_840_000

// MaxTicketDeposits is the fixed capacity of a ticket's collateral list.
const MaxTicketDeposits = 10

// MaxMiningIndices is the fixed capacity of a mining record's entry list.
const MaxMiningIndices = 10

// initialCollateralRate is the claim-per-liquidity rate used to bootstrap an
// empty pool.
func initialCollateralRate() wad.Rate { return wad.RateOne() }

// Pool is the per-asset liquidity pool record.
type Pool struct {
	Version     uint8
	LastUpdate  LastUpdate
	PoolManager PublicKey
	Liquidity   PoolLiquidity
	Collateral  PoolCollateral
	Config      PoolConfig
	Lottery     Lottery
	// ReentryLock blocks nested mutations of the same pool.
	ReentryLock bool
}

// PoolLiquidity tracks the underlying asset side of a pool.
type PoolLiquidity struct {
	MintPubkey   PublicKey
	MintDecimals uint8
	SupplyPubkey PublicKey
	FeeReceiver  PublicKey
	UseOracle    bool
	OraclePubkey PublicKey
	// AvailableAmount is idle liquidity in native token units.
	AvailableAmount uint64
	// BorrowedAmountWads is liquidity out on loan, WAD-scaled so interest
	// can accrue at sub-token precision.
	BorrowedAmountWads       wad.Decimal
	CumulativeBorrowRateWads wad.Decimal
	MarketPrice              wad.Decimal
	// OwnerUnclaimed is the protocol fee accrued but not yet swept, carved
	// out of total supply so depositors cannot redeem it.
	OwnerUnclaimed wad.Decimal
}

// PoolCollateral tracks the claim-token side of a pool.
type PoolCollateral struct {
	MintPubkey      PublicKey
	MintTotalSupply uint64
	SupplyPubkey    PublicKey
	// UncollSupplyPubkey holds claim tokens parked in the mining side
	// ledger rather than circulating.
	UncollSupplyPubkey PublicKey
}

// PoolConfig carries administrative switches.
type PoolConfig struct {
	DepositPaused bool
}

// Lottery is the pool's reward-accrual state: two monotone per-unit indexes
// plus the emission parameters that drive them.
type Lottery struct {
	LTokenMiningIndex wad.Decimal
	BorrowMiningIndex wad.Decimal
	// TotalMiningSpeed is reward tokens emitted per slot, shared across
	// both sides by the active RatioPolicy.
	TotalMiningSpeed uint64
	// KinkUtilRate is the utilization kink in basis points, advisory input
	// to the RatioPolicy.
	KinkUtilRate uint64
}

// InitPoolParams collects everything needed to create a pool record.
type InitPoolParams struct {
	CurrentSlot       uint64
	PoolManager       PublicKey
	LiquidityMint     PublicKey
	LiquidityDecimals uint8
	LiquiditySupply   PublicKey
	FeeReceiver       PublicKey
	UseOracle         bool
	Oracle            PublicKey
	MarketPrice       wad.Decimal
	CollateralMint    PublicKey
	CollateralSupply  PublicKey
	UncollSupply      PublicKey
	TotalMiningSpeed  uint64
	KinkUtilRate      uint64
}

// NewPool builds a freshly initialized pool record. The record starts stale
// so no priced operation can run before the first refresh.
func NewPool(params InitPoolParams) *Pool {
	return &Pool{
		Version:     ProgramVersion,
		LastUpdate:  NewLastUpdate(params.CurrentSlot),
		PoolManager: params.PoolManager,
		Liquidity: PoolLiquidity{
			MintPubkey:               params.LiquidityMint,
			MintDecimals:             params.LiquidityDecimals,
			SupplyPubkey:             params.LiquiditySupply,
			FeeReceiver:              params.FeeReceiver,
			UseOracle:                params.UseOracle,
			OraclePubkey:             params.Oracle,
			CumulativeBorrowRateWads: wad.DecimalOne(),
			MarketPrice:              params.MarketPrice,
		},
		Collateral: PoolCollateral{
			MintPubkey:         params.CollateralMint,
			SupplyPubkey:       params.CollateralSupply,
			UncollSupplyPubkey: params.UncollSupply,
		},
		Lottery: Lottery{
			TotalMiningSpeed: params.TotalMiningSpeed,
			KinkUtilRate:     params.KinkUtilRate,
		},
	}
}

// TotalSupply is the pool's total liquidity: available plus borrowed, minus
// the owner's unclaimed fees, floored at zero.
func (l *PoolLiquidity) TotalSupply() (wad.Decimal, error) {
	total, err := l.BorrowedAmountWads.Add(wad.NewDecimal(l.AvailableAmount))
	if err != nil {
		return wad.Decimal{}, err
	}
	if total.Cmp(l.OwnerUnclaimed) < 0 {
		return wad.DecimalZero(), nil
	}
	return total.Sub(l.OwnerUnclaimed)
}

// Deposit adds liquidity to the available balance.
func (l *PoolLiquidity) Deposit(amount uint64) error {
	next := l.AvailableAmount + amount
	if next < l.AvailableAmount {
		return wad.ErrOverflow
	}
	l.AvailableAmount = next
	return nil
}

// Withdraw removes liquidity from the available balance. The remaining total
// supply must still cover the owner's unclaimed fees.
func (l *PoolLiquidity) Withdraw(amount uint64) error {
	if amount > l.AvailableAmount {
		return ErrInsufficientLiquidity
	}
	remaining, err := l.BorrowedAmountWads.Add(wad.NewDecimal(l.AvailableAmount - amount))
	if err != nil {
		return err
	}
	if remaining.Cmp(l.OwnerUnclaimed) < 0 {
		return ErrInsufficientLiquidity
	}
	l.AvailableAmount -= amount
	return nil
}

// Borrow moves amount from the available balance to the borrowed total.
func (l *PoolLiquidity) Borrow(amount uint64) error {
	if amount > l.AvailableAmount {
		return ErrInsufficientLiquidity
	}
	borrowed, err := l.BorrowedAmountWads.Add(wad.NewDecimal(amount))
	if err != nil {
		return err
	}
	l.AvailableAmount -= amount
	l.BorrowedAmountWads = borrowed
	return nil
}

// Repay returns amount to the available balance and settles settleAmount of
// the borrowed total.
func (l *PoolLiquidity) Repay(amount uint64, settleAmount wad.Decimal) error {
	borrowed, err := l.BorrowedAmountWads.Sub(settleAmount)
	if err != nil {
		return err
	}
	if err := l.Deposit(amount); err != nil {
		return err
	}
	l.BorrowedAmountWads = borrowed
	return nil
}

// UtilizationRate is borrowed / (available + borrowed), zero for an empty
// pool.
func (l *PoolLiquidity) UtilizationRate() (wad.Rate, error) {
	total, err := l.BorrowedAmountWads.Add(wad.NewDecimal(l.AvailableAmount))
	if err != nil {
		return wad.Rate{}, err
	}
	if total.IsZero() {
		return wad.RateZero(), nil
	}
	util, err := l.BorrowedAmountWads.Div(total)
	if err != nil {
		return wad.Rate{}, err
	}
	return util.AsRate()
}

// CompoundInterest folds slotsElapsed slots of borrowRate (annual) into the
// borrowed total and the cumulative borrow rate, crediting ownerFeeRate of
// the newly accrued interest to the owner's unclaimed balance.
func (l *PoolLiquidity) CompoundInterest(borrowRate wad.Rate, slotsElapsed uint64, ownerFeeRate wad.Rate) error {
	slotRate, err := borrowRate.DivInt(SlotsPerYear)
	if err != nil {
		return err
	}
	growth, err := wad.RateOne().Add(slotRate)
	if err != nil {
		return err
	}
	compounded, err := growth.Pow(slotsElapsed)
	if err != nil {
		return err
	}

	newBorrowed, err := l.BorrowedAmountWads.MulRate(compounded)
	if err != nil {
		return err
	}
	newCumulative, err := l.CumulativeBorrowRateWads.MulRate(compounded)
	if err != nil {
		return err
	}
	interest, err := newBorrowed.Sub(l.BorrowedAmountWads)
	if err != nil {
		return err
	}
	fee, err := interest.MulRate(ownerFeeRate)
	if err != nil {
		return err
	}
	newUnclaimed, err := l.OwnerUnclaimed.Add(fee)
	if err != nil {
		return err
	}

	l.BorrowedAmountWads = newBorrowed
	l.CumulativeBorrowRateWads = newCumulative
	l.OwnerUnclaimed = newUnclaimed
	return nil
}

// Mint adds newly issued claim tokens to the recorded supply.
func (c *PoolCollateral) Mint(amount uint64) error {
	next := c.MintTotalSupply + amount
	if next < c.MintTotalSupply {
		return wad.ErrOverflow
	}
	c.MintTotalSupply = next
	return nil
}

// Burn retires claim tokens from the recorded supply.
func (c *PoolCollateral) Burn(amount uint64) error {
	if amount > c.MintTotalSupply {
		return ErrInsufficientBalance
	}
	c.MintTotalSupply -= amount
	return nil
}

// ExchangeRate derives the claim-per-liquidity rate. An empty pool (either
// side zero) bootstraps at the initial rate so the first deposit mints
// deterministically.
func (c *PoolCollateral) ExchangeRate(totalLiquidity wad.Decimal) (CollateralExchangeRate, error) {
	if c.MintTotalSupply == 0 || totalLiquidity.IsZero() {
		return CollateralExchangeRate{rate: initialCollateralRate()}, nil
	}
	ratio, err := wad.NewDecimal(c.MintTotalSupply).Div(totalLiquidity)
	if err != nil {
		return CollateralExchangeRate{}, err
	}
	rate, err := ratio.AsRate()
	if err != nil {
		return CollateralExchangeRate{}, err
	}
	return CollateralExchangeRate{rate: rate}, nil
}

// CollateralExchangeRate converts between claim tokens and liquidity at a
// fixed claim-per-liquidity rate.
type CollateralExchangeRate struct {
	rate wad.Rate
}

// Rate exposes the raw claim-per-liquidity rate.
func (e CollateralExchangeRate) Rate() wad.Rate { return e.rate }

// CollateralToLiquidity converts claim tokens to liquidity, flooring.
func (e CollateralExchangeRate) CollateralToLiquidity(amount uint64) (uint64, error) {
	d, err := e.DecimalCollateralToLiquidity(wad.NewDecimal(amount))
	if err != nil {
		return 0, err
	}
	return d.FloorU64()
}

// DecimalCollateralToLiquidity converts a WAD claim amount to liquidity.
func (e CollateralExchangeRate) DecimalCollateralToLiquidity(amount wad.Decimal) (wad.Decimal, error) {
	return amount.Div(e.rate.AsDecimal())
}

// LiquidityToCollateral converts liquidity to claim tokens, rounding.
func (e CollateralExchangeRate) LiquidityToCollateral(amount uint64) (uint64, error) {
	d, err := e.DecimalLiquidityToCollateral(wad.NewDecimal(amount))
	if err != nil {
		return 0, err
	}
	return d.RoundU64()
}

// DecimalLiquidityToCollateral converts a WAD liquidity amount to claim
// tokens.
func (e CollateralExchangeRate) DecimalLiquidityToCollateral(amount wad.Decimal) (wad.Decimal, error) {
	return amount.MulRate(e.rate)
}

// CollateralExchangeRate derives the pool's current exchange rate from its
// liquidity bookkeeping.
func (p *Pool) CollateralExchangeRate() (CollateralExchangeRate, error) {
	total, err := p.Liquidity.TotalSupply()
	if err != nil {
		return CollateralExchangeRate{}, err
	}
	return p.Collateral.ExchangeRate(total)
}

// RefreshIndex advances both reward indexes to slot. With no claim tokens
// outstanding there is nobody to accrue to and the call is a no-op. The
// borrow side is additionally skipped while the principal-normalized
// borrowed share is below one whole token, where the per-unit increment
// would lose all precision.
func (p *Pool) RefreshIndex(slot uint64, policy RatioPolicy) error {
	if p.Collateral.MintTotalSupply == 0 {
		return nil
	}
	if policy == nil {
		policy = HalfSplitPolicy
	}
	util, err := p.Liquidity.UtilizationRate()
	if err != nil {
		return err
	}
	lendRatio, borrowRatio, err := policy(util, p.Lottery.KinkUtilRate)
	if err != nil {
		return err
	}
	elapsed, err := p.LastUpdate.SlotsElapsed(slot)
	if err != nil {
		return err
	}

	budget, err := wad.NewDecimal(p.Lottery.TotalMiningSpeed).MulInt(elapsed)
	if err != nil {
		return err
	}
	lendShare, err := budget.MulRate(lendRatio)
	if err != nil {
		return err
	}
	lendInc, err := lendShare.DivInt(p.Collateral.MintTotalSupply)
	if err != nil {
		return err
	}
	if p.Lottery.LTokenMiningIndex, err = p.Lottery.LTokenMiningIndex.Add(lendInc); err != nil {
		return err
	}

	borrowedShare, err := p.Liquidity.BorrowedAmountWads.Div(p.Liquidity.CumulativeBorrowRateWads)
	if err != nil {
		return err
	}
	if borrowedShare.Cmp(wad.DecimalOne()) < 0 {
		return nil
	}
	borrowBudget, err := budget.MulRate(borrowRatio)
	if err != nil {
		return err
	}
	borrowInc, err := borrowBudget.Div(borrowedShare)
	if err != nil {
		return err
	}
	p.Lottery.BorrowMiningIndex, err = p.Lottery.BorrowMiningIndex.Add(borrowInc)
	return err
}

// DepositLiquidity exchanges amount of liquidity for claim tokens at the
// current rate, updating both sides of the pool. Returns the minted claim
// amount.
func (p *Pool) DepositLiquidity(amount uint64) (uint64, error) {
	rate, err := p.CollateralExchangeRate()
	if err != nil {
		return 0, err
	}
	minted, err := rate.LiquidityToCollateral(amount)
	if err != nil {
		return 0, err
	}
	if err := p.Liquidity.Deposit(amount); err != nil {
		return 0, err
	}
	if err := p.Collateral.Mint(minted); err != nil {
		return 0, err
	}
	return minted, nil
}

// RedeemCollateral burns amount of claim tokens and releases the equivalent
// liquidity at the current rate. Returns the released liquidity amount.
func (p *Pool) RedeemCollateral(amount uint64) (uint64, error) {
	rate, err := p.CollateralExchangeRate()
	if err != nil {
		return 0, err
	}
	released, err := rate.CollateralToLiquidity(amount)
	if err != nil {
		return 0, err
	}
	if err := p.Collateral.Burn(amount); err != nil {
		return 0, err
	}
	if err := p.Liquidity.Withdraw(released); err != nil {
		return 0, err
	}
	return released, nil
}

// CollateralMarketValue prices amount of claim tokens in quote currency:
// underlying liquidity at the current exchange rate, times the market price,
// scaled down by the liquidity mint's decimals.
func (p *Pool) CollateralMarketValue(amount uint64) (wad.Decimal, error) {
	rate, err := p.CollateralExchangeRate()
	if err != nil {
		return wad.Decimal{}, err
	}
	liquidity, err := rate.DecimalCollateralToLiquidity(wad.NewDecimal(amount))
	if err != nil {
		return wad.Decimal{}, err
	}
	priced, err := liquidity.Mul(p.Liquidity.MarketPrice)
	if err != nil {
		return wad.Decimal{}, err
	}
	unit, err := tenPow(p.Liquidity.MintDecimals)
	if err != nil {
		return wad.Decimal{}, err
	}
	return priced.DivInt(unit)
}

func tenPow(n uint8) (uint64, error) {
	if n > 19 {
		return 0, wad.ErrOverflow
	}
	out := uint64(1)
	for i := uint8(0); i < n; i++ {
		out *= 10
	}
	return out, nil
}
