package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"installment-tracker/internal/app"
)

// Run executes a one-shot CLI command and exits. It signs in with the
// configured credentials, loads the sale listing, then dispatches.
// args is os.Args[1:] — the first element is the subcommand name.
func Run(ctx context.Context, svc app.ApplicationService, args []string, username, password string) {
	if out := svc.SignIn(ctx, username, password); !out.OK() {
		log.Fatalf("Sign-in failed (%s): %s", out.Status, out.Message)
	}
	if out := svc.RefreshSales(ctx); !out.OK() {
		log.Fatalf("Refresh failed (%s): %s", out.Status, out.Message)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	switch args[0] {
	case "list", "ls":
		search := strings.Join(args[1:], " ")
		_ = enc.Encode(svc.ListSales(search))

	case "show", "s":
		if len(args) < 2 {
			log.Fatal("Usage: app show <sale-id>")
		}
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			log.Fatalf("Invalid sale id: %s", args[1])
		}
		view, found := svc.GetSale(id)
		if !found {
			log.Fatalf("Sale %d not found", id)
		}
		_ = enc.Encode(view)

	case "dashboard", "dash":
		_ = enc.Encode(svc.Dashboard())

	case "payments", "pay":
		_ = enc.Encode(svc.ListPayments())

	case "generate", "gen":
		if len(args) < 2 {
			log.Fatal("Usage: app generate <sale-id>")
		}
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			log.Fatalf("Invalid sale id: %s", args[1])
		}
		if out := svc.GenerateSchedule(ctx, id); !out.OK() {
			log.Fatalf("Generate failed (%s): %s", out.Status, out.Message)
		}
		view, _ := svc.GetSale(id)
		_ = enc.Encode(view)

	case "create":
		var req app.CreateSaleRequest
		if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
			log.Fatalf("Invalid JSON: %v", err)
		}
		id, out := svc.CreateSale(ctx, req)
		if !out.OK() {
			log.Fatalf("Create failed (%s): %s", out.Status, out.Message)
		}
		fmt.Printf("Sale created (ID: %d)\n", id)

	default:
		log.Fatalf("Unknown command: %s\nAvailable: list, show, dashboard, payments, generate, create", args[0])
	}
}
