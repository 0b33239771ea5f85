package main

import (
	"context"
	"fmt"
	"os"
	"time"

	nwc "github.com/nbd-wtf/go-nwc"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	uri := os.Getenv("NWC_URI")
	if uri == "" {
		fmt.Fprintln(os.Stderr, "set NWC_URI to a nostr+walletconnect:// connection string")
		os.Exit(1)
	}

	client, err := nwc.NewClient(ctx, uri)
	if err != nil {
		panic(err)
	}

	info, err := client.GetInfo(ctx)
	if err != nil {
		panic(err)
	}
	fmt.Printf("wallet: %s on %s, supports %v\n", info.Alias, info.Network, info.Methods)

	balance, err := client.GetBalance(ctx)
	if err != nil {
		panic(err)
	}
	fmt.Printf("balance: %d msat\n", balance.Balance)

	invoice, err := client.MakeInvoice(ctx, &nwc.MakeInvoiceParams{
		Amount:      100_000, // msat
		Description: "go-nwc example",
	})
	if err != nil {
		panic(err)
	}
	fmt.Printf("invoice: %s\n", invoice.Invoice)

	// paying our own invoice will fail on most nodes, but it shows the call
	result, err := client.PayInvoice(ctx, &nwc.PayInvoiceParams{Invoice: invoice.Invoice})
	if err != nil {
		fmt.Printf("payment failed: %s\n", err)
		return
	}
	fmt.Printf("paid, preimage %s, fees %d msat\n", result.Preimage, result.FeesPaid)
}
