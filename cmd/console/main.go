package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/defistate/ammcore-go/journal"
	"github.com/defistate/ammcore-go/pool"
	"github.com/defistate/ammcore-go/registry"
	"github.com/defistate/ammcore-go/treasury"
)

// --- VISUAL CONSTANTS ---
const (
	Reset  = "\033[0m"
	Bold   = "\033[1m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Cyan   = "\033[36m"
	Gray   = "\033[37m"

	DefaultHistorySize = 100
)

// header prints a styled section header
func header(title string) {
	fmt.Println("\n" + Bold + Cyan + ":: " + title + " ::" + Reset)
}

// history is a thread-safe ring of the most recent journal records.
type history struct {
	mu      sync.Mutex
	records []journal.Record
	limit   int
}

func (h *history) Append(rec journal.Record) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, rec)
	if len(h.records) > h.limit {
		h.records = h.records[len(h.records)-h.limit:]
	}
}

func (h *history) Recent(n int) []journal.Record {
	h.mu.Lock()
	defer h.mu.Unlock()
	if n > len(h.records) {
		n = len(h.records)
	}
	out := make([]journal.Record, n)
	copy(out, h.records[len(h.records)-n:])
	return out
}

// console bundles the engine pieces the command handlers act on.
type console struct {
	system   *registry.System
	book     *treasury.Book
	history  *history
	deadline time.Duration
}

func main() {
	logPath := flag.String("log", "console.log", "Path to the log file.")
	deadline := flag.Duration("deadline", 30*time.Second, "Deadline applied to every swap.")
	flag.Parse()

	// --- 1. SETUP LOGGING (To File) ---
	logFile, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		panic(fmt.Sprintf("Failed to open log file: %v", err))
	}
	defer logFile.Close()

	rootLogger := slog.New(slog.NewJSONHandler(logFile, nil))

	// --- 2. WIRE THE ENGINE ---
	hist := &history{limit: DefaultHistorySize}
	recorder, err := journal.NewRecorder(&journal.Config{
		Registry: prometheus.DefaultRegisterer,
		Logger:   rootLogger.With("component", "journal"),
		Sink:     hist.Append,
	})
	if err != nil {
		rootLogger.Error("Failed to initialize recorder", "error", err)
		fmt.Println(Red + "Fatal error occurred. Check the log file for details." + Reset)
		os.Exit(1)
	}

	c := &console{
		system:   registry.NewSystem(),
		book:     treasury.NewBook(treasury.WithRecorder(recorder)),
		history:  hist,
		deadline: *deadline,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println(Green + "Starting AMM Console..." + Reset)
	fmt.Printf("Logs are being written to '%s'\n", *logPath)

	// --- 3. RUN THE CONSOLE LOOP ---
	c.run(ctx, recorder)
}

func (c *console) run(ctx context.Context, recorder journal.Emitter) {
	reader := bufio.NewReader(os.Stdin)

	for {
		if ctx.Err() != nil {
			fmt.Println("\n" + Yellow + "Shutting down..." + Reset)
			return
		}

		printMenu()

		fmt.Print(Bold + "Enter selection: " + Reset)
		input, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println("\n" + Yellow + "Shutting down..." + Reset)
			return
		}

		c.handleCommand(strings.TrimSpace(input), reader, recorder)

		fmt.Println("\n" + Gray + "[Press Enter to continue]" + Reset)
		reader.ReadString('\n')
	}
}

func printMenu() {
	fmt.Print("\033[H\033[2J") // Clear screen
	fmt.Println(Bold + "AMM CONSOLE" + Reset + Gray + " | v0.1.0" + Reset)
	fmt.Println(Gray + "-----------------------------------" + Reset)
	fmt.Printf(" %s1.%s Pool Summary\n", Cyan, Reset)
	fmt.Printf(" %s2.%s Pool Detail      %s(by ID)%s\n", Cyan, Reset, Gray, Reset)
	fmt.Printf(" %s3.%s Create Pool\n", Cyan, Reset)
	fmt.Printf(" %s4.%s Add Liquidity\n", Cyan, Reset)
	fmt.Printf(" %s5.%s Remove Liquidity\n", Cyan, Reset)
	fmt.Printf(" %s6.%s Swap\n", Cyan, Reset)
	fmt.Printf(" %s7.%s Quote            %s(no state change)%s\n", Cyan, Reset, Gray, Reset)
	fmt.Printf(" %s8.%s Treasury\n", Cyan, Reset)
	fmt.Printf(" %s9.%s Recent Activity\n", Cyan, Reset)
	fmt.Println(Gray + "-----------------------------------" + Reset)
	fmt.Printf(" %sh.%s Help\n", Yellow, Reset)
	fmt.Printf(" %sq.%s Quit\n", Red, Reset)
	fmt.Println("")
}

func (c *console) handleCommand(input string, reader *bufio.Reader, recorder journal.Emitter) {
	switch input {
	case "1":
		c.printPoolSummary()
	case "2":
		c.printPoolDetail(reader)
	case "3":
		c.createPool(reader, recorder)
	case "4":
		c.addLiquidity(reader)
	case "5":
		c.removeLiquidity(reader)
	case "6":
		c.swap(reader)
	case "7":
		c.quote(reader)
	case "8":
		c.printTreasury(reader)
	case "9":
		c.printActivity()
	case "h":
		printHelp()
	case "q":
		exitConsole()
	default:
		fmt.Println(Red + "Unknown command." + Reset)
	}
}

// --- COMMAND HANDLERS ---

func printHelp() {
	fmt.Print("\033[H\033[2J")

	header("CONSTANT-PRODUCT AMM ENGINE")
	fmt.Println(Bold + "Concept: x * y = k" + Reset)
	fmt.Println("Every pool holds two reserves. Trades move along the curve; the")
	fmt.Println("product of the reserves never decreases across a swap.")
	fmt.Println("")

	fmt.Println(Bold + "1. POOLS" + Reset)
	fmt.Println("   A pool is created empty with an immutable fee in basis points.")
	fmt.Println("   The first deposit fixes its price ratio and mints")
	fmt.Println("   " + Green + "floor(sqrt(amountA * amountB))" + Reset + " ownership shares.")
	fmt.Println("")

	fmt.Println(Bold + "2. LIQUIDITY" + Reset)
	fmt.Println("   Later deposits must match the current ratio; providers receive")
	fmt.Println("   shares proportional to their contribution. Withdrawals burn")
	fmt.Println("   shares and pay out the proportional slice of both reserves.")
	fmt.Println("")

	fmt.Println(Bold + "3. SWAPS" + Reset)
	fmt.Println("   Swaps quote with the fee applied to the input, check the")
	fmt.Println("   caller's slippage bound, and only then commit. Rounding always")
	fmt.Println("   favors the pool. Under the skim policy part of each fee accrues")
	fmt.Println("   to the treasury instead of compounding into the reserves.")
	fmt.Println("")

	fmt.Println(Gray + "---------------------------------------------------------------" + Reset)
	fmt.Println(Bold + "PURPOSE OF THIS CONSOLE" + Reset)
	fmt.Println("This tool drives the engine interactively. Addresses identify")
	fmt.Println("liquidity providers; any 20-byte hex value works.")
	fmt.Println(Gray + "---------------------------------------------------------------" + Reset)
}

func (c *console) printPoolSummary() {
	views := c.system.View()
	if len(views) == 0 {
		fmt.Println("\n" + Yellow + "[INFO] No pools yet. Create one first." + Reset)
		return
	}

	header("POOL SUMMARY")

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 4, ' ', 0)
	fmt.Fprintln(w, "ID\tRESERVE A\tRESERVE B\tSHARES\tFEE (BPS)\tPOLICY\t")
	fmt.Fprintln(w, "--\t---------\t---------\t------\t---------\t------\t")
	for _, v := range views {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\t\n",
			v.ID, v.ReserveA, v.ReserveB, v.TotalShares, v.FeeBps, v.FeePolicy)
	}
	w.Flush()
}

func (c *console) printPoolDetail(reader *bufio.Reader) {
	id, ok := readPoolID(reader)
	if !ok {
		return
	}

	v, ok := c.system.ViewByID(id)
	if !ok {
		fmt.Println(Red + "[NOT FOUND] No pool with that ID." + Reset)
		return
	}

	header(fmt.Sprintf("POOL %d", v.ID))
	printField := func(key string, value any) {
		fmt.Printf("  %s%-15s%s %v\n", Gray, key+":", Reset, value)
	}
	printField("Reserve A", v.ReserveA)
	printField("Reserve B", v.ReserveB)
	printField("Total Shares", v.TotalShares)
	printField("Fee (bps)", v.FeeBps)
	printField("Fee Policy", v.FeePolicy)

	if v.TotalShares.Sign() == 0 {
		fmt.Println("\n" + Yellow + "[INFO] Pool is empty; the next deposit fixes its price." + Reset)
		return
	}

	var positions map[common.Address]*big.Int
	err := c.system.Update(id, func(p *pool.Pool) error {
		positions = p.Positions()
		return nil
	})
	if err != nil {
		fmt.Printf(Red+"[ERROR] %v%s\n", err, Reset)
		return
	}

	fmt.Println("\n" + Bold + "Providers:" + Reset)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 4, ' ', 0)
	fmt.Fprintln(w, "ADDRESS\tSHARES\t")
	for addr, shares := range positions {
		fmt.Fprintf(w, "%s\t%s\t\n", addr.Hex(), shares)
	}
	w.Flush()
}

func (c *console) createPool(reader *bufio.Reader, recorder journal.Emitter) {
	fmt.Print("\n" + Bold + "[Create Pool] Fee in basis points (e.g. 30): " + Reset)
	feeBps, ok := readUint16(reader)
	if !ok {
		return
	}

	cfg := pool.Config{
		FeeBps:   feeBps,
		Recorder: recorder,
	}

	fmt.Print(Bold + "Skim part of the fee to the treasury? (y/N): " + Reset)
	answer, _ := reader.ReadString('\n')
	if strings.EqualFold(strings.TrimSpace(answer), "y") {
		fmt.Print(Bold + "Skim fraction in basis points (e.g. 5000 = half): " + Reset)
		skimBps, ok := readUint16(reader)
		if !ok {
			return
		}
		cfg.FeePolicy = pool.FeeSkim
		cfg.SkimBps = skimBps
		cfg.Treasury = c.book
	}

	id, err := c.system.CreatePool(cfg)
	if err != nil {
		fmt.Printf(Red+"[ERROR] %v%s\n", err, Reset)
		return
	}
	fmt.Printf("\n%sCreated pool %d.%s The first deposit fixes its price ratio.\n", Green, id, Reset)
}

func (c *console) addLiquidity(reader *bufio.Reader) {
	id, ok := readPoolID(reader)
	if !ok {
		return
	}
	provider, ok := readAddress(reader)
	if !ok {
		return
	}

	fmt.Print(Bold + "Amount of asset A: " + Reset)
	amountA, ok := readBigInt(reader)
	if !ok {
		return
	}

	v, found := c.system.ViewByID(id)
	if !found {
		fmt.Println(Red + "[NOT FOUND] No pool with that ID." + Reset)
		return
	}

	// An empty pool takes both amounts and fixes the ratio; a live pool
	// derives B from A and only asks for an upper bound.
	if v.TotalShares.Sign() == 0 {
		fmt.Print(Bold + "Amount of asset B: " + Reset)
		amountB, ok := readBigInt(reader)
		if !ok {
			return
		}

		var minted *big.Int
		err := c.system.Update(id, func(p *pool.Pool) error {
			var err error
			minted, err = p.Initialize(provider, amountA, amountB)
			return err
		})
		if err != nil {
			fmt.Printf(Red+"[ERROR] %v%s\n", err, Reset)
			return
		}
		fmt.Printf("\n%sInitialized pool %d:%s minted %s shares to %s\n", Green, id, Reset, minted, provider.Hex())
		return
	}

	fmt.Print(Bold + "Max amount of asset B (empty = unbounded): " + Reset)
	amountBMax, ok := readOptionalBigInt(reader)
	if !ok {
		return
	}

	var minted, amountB *big.Int
	err := c.system.Update(id, func(p *pool.Pool) error {
		var err error
		minted, amountB, err = p.Deposit(provider, amountA, amountBMax)
		return err
	})
	if err != nil {
		fmt.Printf(Red+"[ERROR] %v%s\n", err, Reset)
		return
	}
	fmt.Printf("\n%sDeposited:%s %s of A and %s of B, minted %s shares\n", Green, Reset, amountA, amountB, minted)
}

func (c *console) removeLiquidity(reader *bufio.Reader) {
	id, ok := readPoolID(reader)
	if !ok {
		return
	}
	provider, ok := readAddress(reader)
	if !ok {
		return
	}

	fmt.Print(Bold + "Shares to burn: " + Reset)
	shares, ok := readBigInt(reader)
	if !ok {
		return
	}

	var amountA, amountB *big.Int
	err := c.system.Update(id, func(p *pool.Pool) error {
		var err error
		amountA, amountB, err = p.Withdraw(provider, shares)
		return err
	})
	if err != nil {
		fmt.Printf(Red+"[ERROR] %v%s\n", err, Reset)
		return
	}
	fmt.Printf("\n%sWithdrew:%s %s of A and %s of B for %s shares\n", Green, Reset, amountA, amountB, shares)
}

func (c *console) swap(reader *bufio.Reader) {
	id, ok := readPoolID(reader)
	if !ok {
		return
	}
	input, ok := readAsset(reader, "Input asset (A/B): ")
	if !ok {
		return
	}

	fmt.Print(Bold + "Input amount: " + Reset)
	amount, ok := readBigInt(reader)
	if !ok {
		return
	}

	fmt.Print(Bold + "Minimum output (empty = no bound): " + Reset)
	minOutput, ok := readOptionalBigInt(reader)
	if !ok {
		return
	}

	deadline := time.Now().Add(c.deadline)

	var output *big.Int
	err := c.system.Update(id, func(p *pool.Pool) error {
		var err error
		output, err = p.Swap(input, amount, minOutput, deadline)
		return err
	})
	if err != nil {
		fmt.Printf(Red+"[ERROR] %v%s\n", err, Reset)
		return
	}
	fmt.Printf("\n%sSwapped:%s %s of %s for %s of %s\n", Green, Reset, amount, input, output, input.Other())
}

func (c *console) quote(reader *bufio.Reader) {
	id, ok := readPoolID(reader)
	if !ok {
		return
	}
	input, ok := readAsset(reader, "Input asset (A/B): ")
	if !ok {
		return
	}

	fmt.Print(Bold + "Input amount: " + Reset)
	amount, ok := readBigInt(reader)
	if !ok {
		return
	}

	var output *big.Int
	err := c.system.Update(id, func(p *pool.Pool) error {
		var err error
		output, err = p.QuoteOutput(input, amount)
		return err
	})
	if err != nil {
		fmt.Printf(Red+"[ERROR] %v%s\n", err, Reset)
		return
	}
	fmt.Printf("\n%sQuote:%s %s of %s buys %s of %s (nothing committed)\n",
		Green, Reset, amount, input, output, input.Other())
}

func (c *console) printTreasury(reader *bufio.Reader) {
	entries := c.book.Entries()
	if len(entries) == 0 {
		fmt.Println("\n" + Yellow + "[INFO] Treasury is empty." + Reset)
		return
	}

	header("TREASURY")

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 4, ' ', 0)
	fmt.Fprintln(w, "POOL\tASSET\tACCRUED\t")
	fmt.Fprintln(w, "----\t-----\t-------\t")
	for _, e := range entries {
		fmt.Fprintf(w, "%d\t%s\t%s\t\n", e.PoolID, e.Asset, e.Amount)
	}
	w.Flush()

	fmt.Print("\n" + Bold + "Withdraw an entry? (y/N): " + Reset)
	answer, _ := reader.ReadString('\n')
	if !strings.EqualFold(strings.TrimSpace(answer), "y") {
		return
	}

	id, ok := readPoolID(reader)
	if !ok {
		return
	}
	asset, ok := readAsset(reader, "Asset (A/B): ")
	if !ok {
		return
	}

	amount, err := c.book.Withdraw(id, asset)
	if err != nil {
		fmt.Printf(Red+"[ERROR] %v%s\n", err, Reset)
		return
	}
	fmt.Printf("\n%sWithdrew %s of %s from pool %d's accrual.%s\n", Green, amount, asset, id, Reset)
}

func (c *console) printActivity() {
	records := c.history.Recent(20)
	if len(records) == 0 {
		fmt.Println("\n" + Yellow + "[INFO] No activity yet." + Reset)
		return
	}

	header("RECENT ACTIVITY")

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 4, ' ', 0)
	fmt.Fprintln(w, "TIME\tKIND\tPOOL\tRESERVE A\tRESERVE B\tSHARES\t")
	fmt.Fprintln(w, "----\t----\t----\t---------\t---------\t------\t")
	for _, rec := range records {
		ts := time.Unix(0, rec.Timestamp).Format("15:04:05")
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\t\n",
			ts, rec.Kind, rec.PoolID, rec.ReserveA, rec.ReserveB, rec.TotalShares)
	}
	w.Flush()
}

// --- HELPERS ---

func readPoolID(reader *bufio.Reader) (uint64, bool) {
	fmt.Print(Bold + "Pool ID: " + Reset)
	input, _ := reader.ReadString('\n')
	id, err := strconv.ParseUint(strings.TrimSpace(input), 10, 64)
	if err != nil {
		fmt.Printf(Red+"[ERROR] Invalid pool ID: %v%s\n", err, Reset)
		return 0, false
	}
	return id, true
}

func readUint16(reader *bufio.Reader) (uint16, bool) {
	input, _ := reader.ReadString('\n')
	n, err := strconv.ParseUint(strings.TrimSpace(input), 10, 16)
	if err != nil {
		fmt.Printf(Red+"[ERROR] Invalid number: %v%s\n", err, Reset)
		return 0, false
	}
	return uint16(n), true
}

func readAddress(reader *bufio.Reader) (common.Address, bool) {
	fmt.Print(Bold + "Provider address (20-byte hex): " + Reset)
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if !common.IsHexAddress(input) {
		fmt.Println(Red + "[ERROR] Invalid address format." + Reset)
		return common.Address{}, false
	}
	return common.HexToAddress(input), true
}

func readBigInt(reader *bufio.Reader) (*big.Int, bool) {
	input, _ := reader.ReadString('\n')
	n, ok := new(big.Int).SetString(strings.TrimSpace(input), 10)
	if !ok {
		fmt.Println(Red + "[ERROR] Invalid integer amount." + Reset)
		return nil, false
	}
	return n, true
}

func readOptionalBigInt(reader *bufio.Reader) (*big.Int, bool) {
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, true
	}
	n, ok := new(big.Int).SetString(input, 10)
	if !ok {
		fmt.Println(Red + "[ERROR] Invalid integer amount." + Reset)
		return nil, false
	}
	return n, true
}

func readAsset(reader *bufio.Reader, prompt string) (pool.Asset, bool) {
	fmt.Print(Bold + prompt + Reset)
	input, _ := reader.ReadString('\n')
	switch strings.ToUpper(strings.TrimSpace(input)) {
	case "A":
		return pool.AssetA, true
	case "B":
		return pool.AssetB, true
	default:
		fmt.Println(Red + "[ERROR] Asset must be A or B." + Reset)
		return pool.AssetA, false
	}
}

func exitConsole() {
	fmt.Println(Yellow + "Exiting..." + Reset)
	os.Exit(0)
}
