package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"hotdeck/internal/store"
	"hotdeck/pkg/hotdeck"
)

const version = "0.1.0"

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: hotdeck-cli <command> [options]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  version                     Print the CLI version\n")
		fmt.Fprintf(os.Stderr, "  accounts                    List configured broker accounts\n")
		fmt.Fprintf(os.Stderr, "  presets                     List hotkey presets\n")
		fmt.Fprintf(os.Stderr, "  fire <preset-id> <side>     Execute a hotkey preset (side: buy|sell)\n")
		fmt.Fprintf(os.Stderr, "  orders [account-id]         Show open orders per account\n")
		fmt.Fprintf(os.Stderr, "  positions [account-id]      Show positions per account\n")
		fmt.Fprintf(os.Stderr, "  history [-limit N]          Show past dispatch sessions\n")
		fmt.Fprintf(os.Stderr, "  export <sqlite-db> <dir>    Export execution history to Parquet\n")
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "Server address is taken from HOTDECK_SERVER (default http://localhost:8090).\n")
	}

	if len(os.Args) < 2 {
		flag.Usage()
		os.Exit(1)
	}

	baseURL := "http://localhost:8090"
	if v := os.Getenv("HOTDECK_SERVER"); v != "" {
		baseURL = v
	}
	client := hotdeck.NewClient(baseURL)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "version":
		fmt.Printf("hotdeck-cli %s\n", version)
	case "accounts":
		err = runAccounts(ctx, client)
	case "presets":
		err = runPresets(ctx, client)
	case "fire":
		err = runFire(ctx, client, os.Args[2:])
	case "orders":
		err = runOrders(ctx, client, os.Args[2:])
	case "positions":
		err = runPositions(ctx, client, os.Args[2:])
	case "history":
		err = runHistory(ctx, client, os.Args[2:])
	case "export":
		err = runExport(ctx, os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		flag.Usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "hotdeck-cli %s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func runAccounts(ctx context.Context, c *hotdeck.Client) error {
	accounts, err := c.Accounts(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tBROKER\tENABLED\tPAPER")
	for _, a := range accounts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%t\n", a.ID, a.AccountName, a.BrokerType, a.Enabled, a.Paper)
	}
	return w.Flush()
}

func runPresets(ctx context.Context, c *hotdeck.Client) error {
	presets, err := c.Presets(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSYMBOL\tQTY\tTYPE\tTIF\tENABLED")
	for _, p := range presets {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%t\n",
			p.ID, p.Name, p.Symbol, p.Quantity, p.OrderType, p.TimeInForce, p.Enabled)
	}
	return w.Flush()
}

func runFire(ctx context.Context, c *hotdeck.Client, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: fire <preset-id> <side>")
	}
	resp, err := c.ExecuteHotkey(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Println(resp.Summary)
	if resp.Result == nil {
		return nil
	}
	for _, r := range resp.Result.Results {
		status := "ok"
		detail := r.BrokerOrderID
		if !r.Success {
			status = "FAILED"
			detail = r.Error
		}
		fmt.Printf("  %-12s %-6s %s\n", r.AccountID, status, detail)
	}
	return nil
}

func runOrders(ctx context.Context, c *hotdeck.Client, args []string) error {
	accountID := ""
	if len(args) > 0 {
		accountID = args[0]
	}
	groups, err := c.Orders(ctx, accountID)
	if err != nil {
		return err
	}
	for _, g := range groups {
		fmt.Printf("%s (%s):\n", g.AccountID, g.AccountName)
		if g.Error != "" {
			fmt.Printf("  error: %s\n", g.Error)
			continue
		}
		if len(g.Orders) == 0 {
			fmt.Println("  no open orders")
			continue
		}
		for _, o := range g.Orders {
			fmt.Printf("  %s %s %s x%s (%s, %s)\n",
				o.ID, o.Side, o.Symbol, o.Qty, o.Type, o.Status)
		}
	}
	return nil
}

func runPositions(ctx context.Context, c *hotdeck.Client, args []string) error {
	accountID := ""
	if len(args) > 0 {
		accountID = args[0]
	}
	groups, err := c.Positions(ctx, accountID)
	if err != nil {
		return err
	}
	for _, g := range groups {
		fmt.Printf("%s (%s):\n", g.AccountID, g.AccountName)
		if g.Error != "" {
			fmt.Printf("  error: %s\n", g.Error)
			continue
		}
		if len(g.Positions) == 0 {
			fmt.Println("  no positions")
			continue
		}
		for _, p := range g.Positions {
			fmt.Printf("  %s %s x%s @ %s (mv %s, upl %s)\n",
				p.Side, p.Symbol, p.Qty, p.AvgEntry, p.MarketValue, p.UnrealizedPL)
		}
	}
	return nil
}

func runHistory(ctx context.Context, c *hotdeck.Client, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "maximum sessions to show")
	if err := fs.Parse(args); err != nil {
		return err
	}
	sessions, err := c.History(ctx, *limit)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SESSION\tWHEN\tPRESET\tSIDE\tSYMBOL\tRESULT")
	for _, s := range sessions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d/%d\n",
			s.SessionID, s.StartedAt.Format("2006-01-02 15:04:05"),
			s.PresetName, s.Side, s.Symbol, s.SuccessCount, s.TotalCount)
	}
	return w.Flush()
}

// runExport reads the server's SQLite history directly and writes a Parquet
// snapshot, so it works against the files without a running server.
func runExport(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: export <sqlite-db> <output-dir>")
	}
	db, err := store.NewSQLiteStore(args[0])
	if err != nil {
		return err
	}
	defer db.Close()

	sessions, err := db.ListExecutions(ctx, 100000)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("no execution history to export")
		return nil
	}

	path, err := store.NewParquetArchive(args[1]).WriteExecutions(sessions)
	if err != nil {
		return err
	}
	fmt.Printf("exported %d sessions to %s\n", len(sessions), path)
	return nil
}
