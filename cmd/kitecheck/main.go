package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Akhileshal96/Trident-Trade-Bot-Aura/internal/infrastructure/broker"
)

// Connectivity check against the Kite Connect API: verifies the session
// token, the quote feed and the margin endpoint before the bot is started
// for the day.
func main() {
	symbol := flag.String("symbol", "INFY", "trading symbol to quote")
	flag.Parse()

	_ = godotenv.Load()

	apiKey := os.Getenv("KITE_API_KEY")
	accessToken := os.Getenv("KITE_ACCESS_TOKEN")
	if apiKey == "" || accessToken == "" {
		fmt.Println("KITE_API_KEY and KITE_ACCESS_TOKEN must be set")
		os.Exit(1)
	}

	fmt.Println("Testing Kite Connect interaction...")
	fmt.Printf("API Key: %s...\n", apiKey[:4])

	kite := broker.NewKiteAdapter(apiKey, accessToken, "", zap.NewNop())
	ctx := context.Background()

	balance, err := kite.GetAvailableBalance(ctx)
	if err != nil {
		fmt.Printf("❌ Failed to get margins (is the access token fresh?): %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✅ Available cash: %.2f\n", balance)

	ltp, err := kite.GetLastPrice(ctx, *symbol)
	if err != nil {
		fmt.Printf("❌ Failed to get quote for %s: %v\n", *symbol, err)
		os.Exit(1)
	}
	fmt.Printf("✅ Last price (%s): %.2f\n", *symbol, ltp)

	token, err := kite.ResolveToken(ctx, *symbol)
	if err != nil {
		fmt.Printf("❌ Failed to resolve instrument token for %s: %v\n", *symbol, err)
		os.Exit(1)
	}
	fmt.Printf("✅ Instrument token (%s): %d\n", *symbol, token)
}
