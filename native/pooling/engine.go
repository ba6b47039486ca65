package pooling

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"poolcore/native/pooling/pricefeed"
	"poolcore/native/pooling/wad"
	"poolcore/observability/logging"
	"poolcore/observability/metrics"
	"poolcore/storage"
)

// AmountAll is the sentinel amount meaning "everything held". Operations
// that accept it cap the request to the relevant balance.
const AmountAll = math.MaxUint64

// Engine executes pooling operations against a record ledger. Every
// operation loads decoded copies, mutates them, and commits only on full
// success.
type Engine struct {
	ledger          *Ledger
	policy          RatioPolicy
	log             *slog.Logger
	metrics         *metrics.PoolingMetrics
	staleAfterSlots uint64
}

// EngineOption customizes a new Engine.
type EngineOption func(*Engine)

// WithRatioPolicy overrides the reward split policy.
func WithRatioPolicy(p RatioPolicy) EngineOption {
	return func(e *Engine) { e.policy = p }
}

// WithLogger overrides the engine logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) { e.log = l }
}

// WithMetrics attaches a metrics registry.
func WithMetrics(m *metrics.PoolingMetrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// WithStaleWindow overrides the freshness window, in slots.
func WithStaleWindow(slots uint64) EngineOption {
	return func(e *Engine) { e.staleAfterSlots = slots }
}

// NewEngine builds an engine over db.
func NewEngine(db storage.Database, opts ...EngineOption) *Engine {
	e := &Engine{
		ledger:          NewLedger(db),
		policy:          HalfSplitPolicy,
		log:             slog.Default(),
		staleAfterSlots: StaleAfterSlotsElapsed,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Ledger exposes the underlying record ledger for read paths and tooling.
func (e *Engine) Ledger() *Ledger { return e.ledger }

func (e *Engine) finish(op string, err error) error {
	e.metrics.ObserveOp(op, err)
	if err != nil {
		e.log.Error("pooling operation failed", "op", op, "error", err.Error())
	}
	return err
}

func (e *Engine) requireFresh(lu LastUpdate, slot uint64) error {
	stale, err := lu.IsStaleWithin(slot, e.staleAfterSlots)
	if err != nil {
		return err
	}
	if stale {
		return ErrRecordStale
	}
	return nil
}

func gaugeValue(d wad.Decimal) float64 {
	v, err := strconv.ParseFloat(d.String(), 64)
	if err != nil {
		return 0
	}
	return v
}

// InitPoolManager creates the market root record under id.
func (e *Engine) InitPoolManager(id PublicKey, params InitPoolManagerParams) error {
	err := e.ledger.InitPoolManager(id, NewPoolManager(params))
	if err == nil {
		e.log.Info("pool manager initialized", "manager", id.String())
	}
	return e.finish("init_pool_manager", err)
}

// InitPool creates a pool record under id. The referenced manager must
// exist. When productData is supplied its quote currency must match the
// manager's.
func (e *Engine) InitPool(id PublicKey, params InitPoolParams, productData []byte) error {
	err := e.initPool(id, params, productData)
	if err == nil {
		e.log.Info("pool initialized", "pool", id.String(), "manager", params.PoolManager.String())
	}
	return e.finish("init_pool", err)
}

func (e *Engine) initPool(id PublicKey, params InitPoolParams, productData []byte) error {
	manager, err := e.ledger.GetPoolManager(params.PoolManager)
	if err != nil {
		return err
	}
	if productData != nil {
		quote, err := pricefeed.QuoteCurrency(productData)
		if err != nil {
			return err
		}
		if quote != manager.QuoteCurrency {
			return fmt.Errorf("%w: product quote currency does not match manager", pricefeed.ErrInvalidData)
		}
	}
	if !params.UseOracle && params.MarketPrice.IsZero() {
		return fmt.Errorf("%w: market price required without an oracle", ErrInvalidAmount)
	}
	return e.ledger.InitPool(id, NewPool(params))
}

// InitTicket creates a ticket record under id.
func (e *Engine) InitTicket(id PublicKey, params InitTicketParams) error {
	err := e.initTicket(id, params)
	if err == nil {
		e.log.Info("ticket initialized", "ticket", id.String(),
			logging.MaskField("owner", params.Owner.String()))
	}
	return e.finish("init_ticket", err)
}

func (e *Engine) initTicket(id PublicKey, params InitTicketParams) error {
	if _, err := e.ledger.GetPoolManager(params.PoolManager); err != nil {
		return err
	}
	return e.ledger.InitTicket(id, NewTicket(params))
}

// InitMining creates a mining record under id.
func (e *Engine) InitMining(id PublicKey, params InitMiningParams) error {
	err := e.initMining(id, params)
	if err == nil {
		e.log.Info("mining record initialized", "mining", id.String(),
			logging.MaskField("owner", params.Owner.String()))
	}
	return e.finish("init_mining", err)
}

func (e *Engine) initMining(id PublicKey, params InitMiningParams) error {
	if _, err := e.ledger.GetPoolManager(params.PoolManager); err != nil {
		return err
	}
	return e.ledger.InitMining(id, NewMining(params))
}

// RefreshPool re-prices the pool from oracleData (when it uses an oracle),
// advances both reward indexes, and clears the staleness gate at slot.
func (e *Engine) RefreshPool(id PublicKey, oracleData []byte, slot uint64) error {
	return e.finish("refresh_pool", e.refreshPool(id, oracleData, slot))
}

func (e *Engine) refreshPool(id PublicKey, oracleData []byte, slot uint64) error {
	pool, err := e.ledger.GetPool(id)
	if err != nil {
		return err
	}
	if pool.Liquidity.UseOracle {
		price, err := pricefeed.PriceValue(oracleData)
		if err != nil {
			return err
		}
		pool.Liquidity.MarketPrice = price
	}
	if err := pool.RefreshIndex(slot, e.policy); err != nil {
		return err
	}
	pool.LastUpdate.UpdateSlot(slot)
	if err := e.ledger.PutPool(id, pool); err != nil {
		return err
	}
	e.metrics.SetPoolLiquidity(id.String(),
		float64(pool.Liquidity.AvailableAmount),
		gaugeValue(pool.Liquidity.BorrowedAmountWads))
	e.metrics.SetRewardIndex(id.String(), "lend", gaugeValue(pool.Lottery.LTokenMiningIndex))
	e.metrics.SetRewardIndex(id.String(), "borrow", gaugeValue(pool.Lottery.BorrowMiningIndex))
	return nil
}

// DepositLiquidity deposits amount of liquidity into the pool, minting claim
// tokens at the current exchange rate. AmountAll deposits heldBalance.
// Returns the minted claim amount.
func (e *Engine) DepositLiquidity(poolID PublicKey, amount, heldBalance, slot uint64) (uint64, error) {
	minted, err := e.depositLiquidity(poolID, amount, heldBalance, slot)
	if err == nil {
		e.log.Info("liquidity deposited", "pool", poolID.String(), "minted", minted)
	}
	return minted, e.finish("deposit_liquidity", err)
}

func (e *Engine) depositLiquidity(poolID PublicKey, amount, heldBalance, slot uint64) (uint64, error) {
	if amount == 0 {
		return 0, ErrInvalidAmount
	}
	pool, err := e.ledger.GetPool(poolID)
	if err != nil {
		return 0, err
	}
	if err := e.requireFresh(pool.LastUpdate, slot); err != nil {
		return 0, err
	}
	if pool.ReentryLock {
		return 0, ErrReentry
	}
	if pool.Config.DepositPaused {
		return 0, ErrDepositPaused
	}
	if amount == AmountAll {
		amount = heldBalance
		if amount == 0 {
			return 0, ErrInvalidAmount
		}
	} else if amount > heldBalance {
		return 0, ErrInsufficientBalance
	}
	minted, err := pool.DepositLiquidity(amount)
	if err != nil {
		return 0, err
	}
	pool.LastUpdate.MarkStale()
	if err := e.ledger.PutPool(poolID, pool); err != nil {
		return 0, err
	}
	return minted, nil
}

// RedeemCollateral burns amount of claim tokens against the pool, releasing
// liquidity at the current exchange rate. AmountAll redeems heldBalance.
// Returns the released liquidity amount.
func (e *Engine) RedeemCollateral(poolID PublicKey, amount, heldBalance, slot uint64) (uint64, error) {
	released, err := e.redeemCollateral(poolID, amount, heldBalance, slot)
	if err == nil {
		e.log.Info("collateral redeemed", "pool", poolID.String(), "released", released)
	}
	return released, e.finish("redeem_collateral", err)
}

func (e *Engine) redeemCollateral(poolID PublicKey, amount, heldBalance, slot uint64) (uint64, error) {
	if amount == 0 {
		return 0, ErrInvalidAmount
	}
	pool, err := e.ledger.GetPool(poolID)
	if err != nil {
		return 0, err
	}
	if err := e.requireFresh(pool.LastUpdate, slot); err != nil {
		return 0, err
	}
	if pool.ReentryLock {
		return 0, ErrReentry
	}
	if amount == AmountAll {
		amount = heldBalance
		if amount == 0 {
			return 0, ErrInvalidAmount
		}
	} else if amount > heldBalance {
		return 0, ErrInsufficientBalance
	}
	released, err := pool.RedeemCollateral(amount)
	if err != nil {
		return 0, err
	}
	pool.LastUpdate.MarkStale()
	if err := e.ledger.PutPool(poolID, pool); err != nil {
		return 0, err
	}
	return released, nil
}

// RefreshTicket re-prices every ticket entry and accrues pending rewards.
// pools must list the ticket's entry pools in order, with no extras; every
// listed pool must be fresh at slot.
func (e *Engine) RefreshTicket(ticketID PublicKey, pools []PublicKey, slot uint64) error {
	return e.finish("refresh_ticket", e.refreshTicket(ticketID, pools, slot))
}

func (e *Engine) refreshTicket(ticketID PublicKey, pools []PublicKey, slot uint64) error {
	ticket, err := e.ledger.GetTicket(ticketID)
	if err != nil {
		return err
	}
	total := wad.DecimalZero()
	for i := range ticket.Deposits {
		if i >= len(pools) {
			return fmt.Errorf("%w: entry %d has no matching pool", ErrPoolMismatch, i)
		}
		if pools[i] != ticket.Deposits[i].Pool {
			return fmt.Errorf("%w: entry %d", ErrPoolMismatch, i)
		}
		pool, err := e.ledger.GetPool(pools[i])
		if err != nil {
			return err
		}
		if pool.PoolManager != ticket.PoolManager {
			return ErrPoolMismatch
		}
		if err := e.requireFresh(pool.LastUpdate, slot); err != nil {
			return err
		}
		value, err := pool.CollateralMarketValue(ticket.Deposits[i].DepositedAmount)
		if err != nil {
			return err
		}
		ticket.Deposits[i].MarketValue = value
		if total, err = total.Add(value); err != nil {
			return err
		}
		if err := ticket.RefreshUnclaimed(i, pool.Lottery.LTokenMiningIndex); err != nil {
			return err
		}
	}
	if len(pools) > len(ticket.Deposits) {
		return fmt.Errorf("%w: %d extra pools supplied", ErrPoolMismatch, len(pools)-len(ticket.Deposits))
	}
	ticket.DepositedValue = total
	ticket.LastUpdate.UpdateSlot(slot)
	return e.ledger.PutTicket(ticketID, ticket)
}

// DepositTicketCollateral records amount of claim tokens into the ticket's
// entry for poolID, accruing pending rewards before the balance changes.
func (e *Engine) DepositTicketCollateral(ticketID, poolID PublicKey, amount, slot uint64) error {
	return e.finish("deposit_ticket_collateral", e.depositTicketCollateral(ticketID, poolID, amount, slot))
}

func (e *Engine) depositTicketCollateral(ticketID, poolID PublicKey, amount, slot uint64) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	ticket, err := e.ledger.GetTicket(ticketID)
	if err != nil {
		return err
	}
	pool, err := e.ledger.GetPool(poolID)
	if err != nil {
		return err
	}
	if pool.PoolManager != ticket.PoolManager {
		return ErrPoolMismatch
	}
	if err := e.requireFresh(pool.LastUpdate, slot); err != nil {
		return err
	}
	i, err := ticket.FindOrAddCollateral(poolID, pool.Lottery.LTokenMiningIndex)
	if err != nil {
		return err
	}
	if err := ticket.RefreshUnclaimed(i, pool.Lottery.LTokenMiningIndex); err != nil {
		return err
	}
	if err := ticket.Deposit(i, amount); err != nil {
		return err
	}
	ticket.LastUpdate.MarkStale()
	return e.ledger.PutTicket(ticketID, ticket)
}

// WithdrawTicketCollateral removes amount of claim tokens from the ticket's
// entry for poolID, accruing pending rewards first. AmountAll withdraws the
// entry's whole balance. Returns the withdrawn amount.
func (e *Engine) WithdrawTicketCollateral(ticketID, poolID PublicKey, amount, slot uint64) (uint64, error) {
	withdrawn, err := e.withdrawTicketCollateral(ticketID, poolID, amount, slot)
	return withdrawn, e.finish("withdraw_ticket_collateral", err)
}

func (e *Engine) withdrawTicketCollateral(ticketID, poolID PublicKey, amount, slot uint64) (uint64, error) {
	if amount == 0 {
		return 0, ErrInvalidAmount
	}
	ticket, err := e.ledger.GetTicket(ticketID)
	if err != nil {
		return 0, err
	}
	if err := e.requireFresh(ticket.LastUpdate, slot); err != nil {
		return 0, err
	}
	pool, err := e.ledger.GetPool(poolID)
	if err != nil {
		return 0, err
	}
	if pool.PoolManager != ticket.PoolManager {
		return 0, ErrPoolMismatch
	}
	if err := e.requireFresh(pool.LastUpdate, slot); err != nil {
		return 0, err
	}
	i, err := ticket.FindCollateral(poolID)
	if err != nil {
		return 0, err
	}
	if amount == AmountAll {
		amount = ticket.Deposits[i].DepositedAmount
		if amount == 0 {
			return 0, ErrInvalidAmount
		}
	}
	if err := ticket.RefreshUnclaimed(i, pool.Lottery.LTokenMiningIndex); err != nil {
		return 0, err
	}
	if err := ticket.Withdraw(i, amount); err != nil {
		return 0, err
	}
	ticket.LastUpdate.MarkStale()
	if err := e.ledger.PutTicket(ticketID, ticket); err != nil {
		return 0, err
	}
	return amount, nil
}

// MiningDeposit parks amount of claim tokens in the mining side ledger's
// entry for poolID, accruing pending rewards before the balance changes.
func (e *Engine) MiningDeposit(miningID, poolID PublicKey, amount, slot uint64) error {
	return e.finish("mining_deposit", e.miningDeposit(miningID, poolID, amount, slot))
}

func (e *Engine) miningDeposit(miningID, poolID PublicKey, amount, slot uint64) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	mining, err := e.ledger.GetMining(miningID)
	if err != nil {
		return err
	}
	pool, err := e.ledger.GetPool(poolID)
	if err != nil {
		return err
	}
	if pool.PoolManager != mining.PoolManager {
		return ErrPoolMismatch
	}
	if err := e.requireFresh(pool.LastUpdate, slot); err != nil {
		return err
	}
	i, err := mining.FindOrAddIndex(poolID, pool.Lottery.LTokenMiningIndex)
	if err != nil {
		return err
	}
	if err := mining.RefreshUnclaimed(i, pool.Lottery.LTokenMiningIndex); err != nil {
		return err
	}
	if err := mining.Deposit(i, amount); err != nil {
		return err
	}
	return e.ledger.PutMining(miningID, mining)
}

// MiningWithdraw releases amount of parked claim tokens from the mining
// entry for poolID, accruing pending rewards first. AmountAll withdraws the
// entry's whole balance. Returns the withdrawn amount.
func (e *Engine) MiningWithdraw(miningID, poolID PublicKey, amount, slot uint64) (uint64, error) {
	withdrawn, err := e.miningWithdraw(miningID, poolID, amount, slot)
	return withdrawn, e.finish("mining_withdraw", err)
}

func (e *Engine) miningWithdraw(miningID, poolID PublicKey, amount, slot uint64) (uint64, error) {
	if amount == 0 {
		return 0, ErrInvalidAmount
	}
	mining, err := e.ledger.GetMining(miningID)
	if err != nil {
		return 0, err
	}
	pool, err := e.ledger.GetPool(poolID)
	if err != nil {
		return 0, err
	}
	if pool.PoolManager != mining.PoolManager {
		return 0, ErrPoolMismatch
	}
	if err := e.requireFresh(pool.LastUpdate, slot); err != nil {
		return 0, err
	}
	i, err := mining.FindIndex(poolID)
	if err != nil {
		return 0, err
	}
	if amount == AmountAll {
		amount = mining.Indices[i].UncollLTokenAmount
		if amount == 0 {
			return 0, ErrInvalidAmount
		}
	}
	if err := mining.RefreshUnclaimed(i, pool.Lottery.LTokenMiningIndex); err != nil {
		return 0, err
	}
	if err := mining.Withdraw(i, amount); err != nil {
		return 0, err
	}
	if err := e.ledger.PutMining(miningID, mining); err != nil {
		return 0, err
	}
	return amount, nil
}

// ClaimTicketMine pays out the whole-token part of a ticket's accrued
// rewards. The sub-token remainder stays on the record.
func (e *Engine) ClaimTicketMine(ticketID PublicKey) (uint64, error) {
	amount, err := e.claimTicketMine(ticketID)
	return amount, e.finish("claim_ticket_mine", err)
}

func (e *Engine) claimTicketMine(ticketID PublicKey) (uint64, error) {
	ticket, err := e.ledger.GetTicket(ticketID)
	if err != nil {
		return 0, err
	}
	amount, err := ticket.ClaimMine()
	if err != nil {
		return 0, err
	}
	if err := e.ledger.PutTicket(ticketID, ticket); err != nil {
		return 0, err
	}
	return amount, nil
}

// ClaimMiningMine pays out the whole-token part of a mining record's accrued
// rewards.
func (e *Engine) ClaimMiningMine(miningID PublicKey) (uint64, error) {
	amount, err := e.claimMiningMine(miningID)
	return amount, e.finish("claim_mining_mine", err)
}

func (e *Engine) claimMiningMine(miningID PublicKey) (uint64, error) {
	mining, err := e.ledger.GetMining(miningID)
	if err != nil {
		return 0, err
	}
	amount, err := mining.ClaimMine()
	if err != nil {
		return 0, err
	}
	if err := e.ledger.PutMining(miningID, mining); err != nil {
		return 0, err
	}
	return amount, nil
}

// SetDepositPaused toggles the pool's deposit switch.
func (e *Engine) SetDepositPaused(poolID PublicKey, paused bool) error {
	return e.finish("set_deposit_paused", e.setDepositPaused(poolID, paused))
}

func (e *Engine) setDepositPaused(poolID PublicKey, paused bool) error {
	pool, err := e.ledger.GetPool(poolID)
	if err != nil {
		return err
	}
	pool.Config.DepositPaused = paused
	return e.ledger.PutPool(poolID, pool)
}

// ProposePoolManagerOwner starts the two-step ownership handshake by
// recording the candidate owner.
func (e *Engine) ProposePoolManagerOwner(id, candidate PublicKey) error {
	return e.finish("propose_owner", e.proposeOwner(id, candidate))
}

func (e *Engine) proposeOwner(id, candidate PublicKey) error {
	manager, err := e.ledger.GetPoolManager(id)
	if err != nil {
		return err
	}
	manager.PendingOwner = candidate
	return e.ledger.PutPoolManager(id, manager)
}

// AcceptPoolManagerOwner completes the handshake, promoting the pending
// owner and clearing the slot.
func (e *Engine) AcceptPoolManagerOwner(id PublicKey) error {
	return e.finish("accept_owner", e.acceptOwner(id))
}

func (e *Engine) acceptOwner(id PublicKey) error {
	manager, err := e.ledger.GetPoolManager(id)
	if err != nil {
		return err
	}
	if manager.PendingOwner.IsZero() {
		return ErrEntryNotFound
	}
	manager.Owner = manager.PendingOwner
	manager.PendingOwner = PublicKey{}
	return e.ledger.PutPoolManager(id, manager)
}

// SetPoolManagerOwner is the abandoned direct transfer. It is kept as a
// logged no-op; use the propose/accept handshake instead.
func (e *Engine) SetPoolManagerOwner(id, newOwner PublicKey) error {
	e.log.Warn("direct ownership transfer is disabled", "manager", id.String())
	return e.finish("set_pool_manager_owner", nil)
}
