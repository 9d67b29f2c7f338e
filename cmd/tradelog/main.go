package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/Akhileshal96/Trident-Trade-Bot-Aura/internal/infrastructure/logger"
	"github.com/Akhileshal96/Trident-Trade-Bot-Aura/internal/infrastructure/storage"
)

// tradelog prints the recorded trade history from the audit database.
func main() {
	dbPath := flag.String("db", "data/bot.db", "path to the audit database")
	limit := flag.Int("limit", 50, "number of trades to show")
	flag.Parse()

	log, err := logger.NewLogger("error")
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}

	store, err := storage.NewSQLiteStore(*dbPath, log)
	if err != nil {
		fmt.Printf("Failed to open %s: %v\n", *dbPath, err)
		os.Exit(1)
	}
	defer store.Close()

	trades, err := store.ListTrades(context.Background(), *limit)
	if err != nil {
		fmt.Printf("Failed to list trades: %v\n", err)
		os.Exit(1)
	}
	if len(trades) == 0 {
		fmt.Println("No trades recorded.")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Closed", "Symbol", "Qty", "Entry", "Exit", "PnL", "Reason", "Regime", "Approved"})

	var total float64
	for _, tr := range trades {
		total += tr.RealizedPnL
		t.AppendRow(table.Row{
			tr.ClosedAt.Format("2006-01-02 15:04"),
			tr.Symbol,
			tr.Quantity,
			fmt.Sprintf("%.2f", tr.EntryPrice),
			fmt.Sprintf("%.2f", tr.ExitPrice),
			fmt.Sprintf("%.2f", tr.RealizedPnL),
			tr.Reason,
			string(tr.Regime),
			tr.Approved,
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", "Total", fmt.Sprintf("%.2f", total), "", "", ""})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 6, Align: text.AlignRight},
	})
	t.Render()
}
