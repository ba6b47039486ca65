package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"poolcore/config"
	"poolcore/native/pooling"
	"poolcore/native/pooling/wad"
	"poolcore/observability/logging"
	"poolcore/storage"
)

const usage = `poolctl inspects pooling records in the configured store.

Usage:
  poolctl [-config path] <command> <id>

Commands:
  manager <id>   print a pool manager record
  pool <id>      print a pool record
  ticket <id>    print a ticket record
  mining <id>    print a mining record

Record ids are 32-byte hex strings, with or without an 0x prefix.
`

func main() {
	configPath := flag.String("config", "./config.toml", "path to config file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "poolctl: %v\n", err)
		os.Exit(1)
	}
	var logger *slog.Logger
	if cfg.LogFile != "" {
		logger = logging.SetupFile("poolctl", cfg.Env, cfg.LogFile)
	} else {
		logger = logging.Setup("poolctl", cfg.Env)
	}

	db, err := storage.Open(cfg.Backend, cfg.DatabasePath())
	if err != nil {
		logger.Error("failed to open store", "backend", cfg.Backend, "error", err.Error())
		os.Exit(1)
	}
	defer db.Close()

	id, err := parseKey(flag.Arg(1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "poolctl: %v\n", err)
		os.Exit(1)
	}

	ledger := pooling.NewLedger(db)
	if err := show(ledger, flag.Arg(0), id); err != nil {
		fmt.Fprintf(os.Stderr, "poolctl: %v\n", err)
		os.Exit(1)
	}
}

func parseKey(arg string) (pooling.PublicKey, error) {
	if strings.HasPrefix(arg, "0x") {
		raw, err := hexutil.Decode(arg)
		if err != nil {
			return pooling.PublicKey{}, err
		}
		return pooling.PublicKeyFromBytes(raw)
	}
	return pooling.PublicKeyFromHex(arg)
}

func show(ledger *pooling.Ledger, kind string, id pooling.PublicKey) error {
	switch kind {
	case "manager":
		m, err := ledger.GetPoolManager(id)
		if err != nil {
			return err
		}
		printManager(m)
	case "pool":
		p, err := ledger.GetPool(id)
		if err != nil {
			return err
		}
		printPool(p)
	case "ticket":
		t, err := ledger.GetTicket(id)
		if err != nil {
			return err
		}
		printTicket(t)
	case "mining":
		m, err := ledger.GetMining(id)
		if err != nil {
			return err
		}
		printMining(m)
	default:
		return fmt.Errorf("unknown command %q", kind)
	}
	return nil
}

func printManager(m *pooling.PoolManager) {
	fmt.Printf("version:          %d\n", m.Version)
	fmt.Printf("owner:            %s\n", m.Owner)
	fmt.Printf("pending owner:    %s\n", m.PendingOwner)
	fmt.Printf("quote currency:   %s\n", strings.TrimRight(string(m.QuoteCurrency[:]), "\x00"))
	fmt.Printf("token program:    %s\n", m.TokenProgramID)
	fmt.Printf("oracle program:   %s\n", m.OracleProgramID)
	fmt.Printf("mine mint:        %s\n", m.MineMint)
	fmt.Printf("mine supply:      %s\n", m.MineSupply)
}

func printPool(p *pooling.Pool) {
	fmt.Printf("version:          %d\n", p.Version)
	fmt.Printf("last update:      slot=%d stale=%v\n", p.LastUpdate.Slot, p.LastUpdate.Stale)
	fmt.Printf("manager:          %s\n", p.PoolManager)
	fmt.Printf("liquidity mint:   %s (decimals=%d)\n", p.Liquidity.MintPubkey, p.Liquidity.MintDecimals)
	fmt.Printf("available:        %d\n", p.Liquidity.AvailableAmount)
	fmt.Printf("borrowed:         %s\n", p.Liquidity.BorrowedAmountWads)
	fmt.Printf("cumulative rate:  %s\n", p.Liquidity.CumulativeBorrowRateWads)
	fmt.Printf("market price:     %s\n", p.Liquidity.MarketPrice)
	fmt.Printf("owner unclaimed:  %s\n", p.Liquidity.OwnerUnclaimed)
	fmt.Printf("claim mint:       %s (supply=%d)\n", p.Collateral.MintPubkey, p.Collateral.MintTotalSupply)
	fmt.Printf("deposits paused:  %v\n", p.Config.DepositPaused)
	fmt.Printf("reentry locked:   %v\n", p.ReentryLock)
	fmt.Printf("lend index:       %s\n", p.Lottery.LTokenMiningIndex)
	fmt.Printf("borrow index:     %s\n", p.Lottery.BorrowMiningIndex)
	fmt.Printf("mining speed:     %d\n", p.Lottery.TotalMiningSpeed)
	if rate, err := p.CollateralExchangeRate(); err == nil {
		fmt.Printf("exchange rate:    %s\n", rate.Rate())
	}
}

func printTicket(t *pooling.Ticket) {
	fmt.Printf("version:          %d\n", t.Version)
	fmt.Printf("last update:      slot=%d stale=%v\n", t.LastUpdate.Slot, t.LastUpdate.Stale)
	fmt.Printf("manager:          %s\n", t.PoolManager)
	fmt.Printf("owner:            %s\n", t.Owner)
	fmt.Printf("deposited value:  %s\n", t.DepositedValue)
	fmt.Printf("unclaimed mine:   %s\n", t.UnclaimedMine)
	fmt.Printf("entries:          %d\n", len(t.Deposits))
	for i, entry := range t.Deposits {
		printEntry(i, entry.Pool, entry.DepositedAmount, entry.Index)
		fmt.Printf("    market value: %s\n", entry.MarketValue)
	}
}

func printMining(m *pooling.Mining) {
	fmt.Printf("version:          %d\n", m.Version)
	fmt.Printf("manager:          %s\n", m.PoolManager)
	fmt.Printf("owner:            %s\n", m.Owner)
	fmt.Printf("unclaimed mine:   %s\n", m.UnclaimedMine)
	fmt.Printf("entries:          %d\n", len(m.Indices))
	for i, entry := range m.Indices {
		printEntry(i, entry.Pool, entry.UncollLTokenAmount, entry.Index)
	}
}

func printEntry(i int, pool pooling.PublicKey, amount uint64, index wad.Decimal) {
	fmt.Printf("  [%d] pool=%s amount=%d index=%s\n", i, pool, amount, index)
}
