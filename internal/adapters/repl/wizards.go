package repl

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"

	"installment-tracker/internal/app"
	"installment-tracker/internal/core"

	"github.com/shopspring/decimal"
)

// handleNewSale runs an interactive sale creation session.
func handleNewSale(ctx context.Context, reader *bufio.Reader, svc app.ApplicationService) {
	fmt.Println("Creating a new sale. Leave a field blank to abort.")

	fmt.Print("  Customer name: ")
	name := readLine(reader)
	if name == "" {
		fmt.Println("Cancelled.")
		return
	}

	fmt.Print("  Phone number: ")
	phone := readLine(reader)

	fmt.Print("  Product (model, memory, color): ")
	note := readLine(reader)

	fmt.Print("  Total price: ")
	price, ok := readDecimal(reader)
	if !ok {
		return
	}

	fmt.Print("  Down payment [0]: ")
	down := decimal.Zero
	if raw := readLine(reader); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil {
			fmt.Printf("Invalid amount: %s\n", raw)
			return
		}
		down = parsed
	}

	fmt.Print("  Duration in months: ")
	months, err := strconv.Atoi(readLine(reader))
	if err != nil || months < 1 {
		fmt.Println("Invalid duration.")
		return
	}

	fmt.Print("  Start date (YYYY-MM-DD, blank for today): ")
	startDate := readLine(reader)

	fmt.Print("  Currency [USD]: ")
	currency := strings.ToUpper(readLine(reader))
	if currency == "" {
		currency = string(core.CurrencyUSD)
	}

	fmt.Print("  Apple ID (optional): ")
	appleID := readLine(reader)

	fmt.Print("  Comment (optional): ")
	comment := readLine(reader)

	id, out := svc.CreateSale(ctx, app.CreateSaleRequest{
		CustomerName:   name,
		PhoneNumber:    phone,
		Note:           note,
		AppleID:        appleID,
		Comment:        comment,
		Currency:       currency,
		TotalPrice:     price,
		DownPayment:    down,
		DurationMonths: months,
		StartDate:      startDate,
	})
	if !out.OK() {
		printOutcome("create", out)
		return
	}

	fmt.Printf("\nSale created (ID: %d)\n", id)
	fmt.Print("Generate the installment schedule now? (y/n): ")
	if confirm(reader) {
		if out := svc.GenerateSchedule(ctx, id); !out.OK() {
			printOutcome("generate", out)
			return
		}
	}
	if view, found := svc.GetSale(id); found {
		printSaleDetail(view)
	}
}

// handleEditSale prompts for each editable field; blank keeps the current
// value. The schedule is untouched.
func handleEditSale(ctx context.Context, reader *bufio.Reader, svc app.ApplicationService, id int64) {
	view, found := svc.GetSale(id)
	if !found {
		fmt.Printf("Sale %d is not in the local list. Try 'refresh'.\n", id)
		return
	}
	sale := view.Sale
	fmt.Printf("Editing sale #%d. Blank keeps the current value.\n", id)

	patch := core.SaleFieldPatch{}

	fmt.Printf("  Customer name [%s]: ", sale.CustomerName)
	if v := readLine(reader); v != "" {
		patch.CustomerName = &v
	}
	fmt.Printf("  Phone number [%s]: ", sale.PhoneNumber)
	if v := readLine(reader); v != "" {
		patch.PhoneNumber = &v
	}
	fmt.Printf("  Product [%s]: ", sale.Note)
	if v := readLine(reader); v != "" {
		patch.Note = &v
	}
	fmt.Printf("  Total price [%s]: ", sale.TotalPrice.StringFixed(2))
	if raw := readLine(reader); raw != "" {
		v, err := decimal.NewFromString(raw)
		if err != nil {
			fmt.Printf("Invalid amount: %s\n", raw)
			return
		}
		patch.TotalPrice = &v
	}
	fmt.Printf("  Down payment [%s]: ", sale.DownPayment.StringFixed(2))
	if raw := readLine(reader); raw != "" {
		v, err := decimal.NewFromString(raw)
		if err != nil {
			fmt.Printf("Invalid amount: %s\n", raw)
			return
		}
		patch.DownPayment = &v
	}
	fmt.Printf("  Comment [%s]: ", sale.Comment)
	if v := readLine(reader); v != "" {
		patch.Comment = &v
	}

	if patch == (core.SaleFieldPatch{}) {
		fmt.Println("Nothing changed.")
		return
	}
	if out := svc.UpdateSale(ctx, id, patch); !out.OK() {
		printOutcome("edit", out)
		return
	}
	if view, found := svc.GetSale(id); found {
		printSaleDetail(view)
	}
}

func readDecimal(reader *bufio.Reader) (decimal.Decimal, bool) {
	raw := readLine(reader)
	if raw == "" {
		fmt.Println("Cancelled.")
		return decimal.Zero, false
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		fmt.Printf("Invalid amount: %s\n", raw)
		return decimal.Zero, false
	}
	return v, true
}
