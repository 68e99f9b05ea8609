package repl

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"

	"installment-tracker/internal/app"

	"github.com/shopspring/decimal"
)

// Run starts the interactive REPL loop. It signs in (prompting when the
// configured credentials are empty), loads the sale listing, and dispatches
// commands until exit.
func Run(ctx context.Context, svc app.ApplicationService, reader *bufio.Reader, username, password string) {
	fmt.Println("Installment Sales Tracker")
	fmt.Println(strings.Repeat("-", 70))

	if username == "" {
		fmt.Print("Username: ")
		username = readLine(reader)
	}
	if password == "" {
		fmt.Print("Password: ")
		password = readLine(reader)
	}
	if out := svc.SignIn(ctx, username, password); !out.OK() {
		printOutcome("sign-in", out)
		return
	}
	if out := svc.RefreshSales(ctx); !out.OK() {
		printOutcome("refresh", out)
	} else {
		fmt.Printf("Loaded %d sales. Type 'help' for commands.\n", svc.ListSales("").Total)
	}

	errExit := fmt.Errorf("exit")

	dispatch := func(input string) error {
		tokens := strings.Fields(input)
		if len(tokens) == 0 {
			return nil
		}
		cmd := strings.ToLower(tokens[0])
		args := tokens[1:]

		switch cmd {
		case "list", "ls":
			search := strings.Join(args, " ")
			printSales(svc.ListSales(search))

		case "refresh", "r":
			if out := svc.RefreshSales(ctx); !out.OK() {
				printOutcome("refresh", out)
				return nil
			}
			printSales(svc.ListSales(""))

		case "show", "s":
			id, ok := parseID(args, 0, "Usage: show <sale-id>")
			if !ok {
				return nil
			}
			view, found := svc.GetSale(id)
			if !found {
				fmt.Printf("Sale %d is not in the local list. Try 'refresh'.\n", id)
				return nil
			}
			printSaleDetail(view)

		case "new":
			handleNewSale(ctx, reader, svc)

		case "edit":
			id, ok := parseID(args, 0, "Usage: edit <sale-id>")
			if !ok {
				return nil
			}
			handleEditSale(ctx, reader, svc, id)

		case "delete", "del":
			id, ok := parseID(args, 0, "Usage: delete <sale-id>")
			if !ok {
				return nil
			}
			view, found := svc.GetSale(id)
			if !found {
				fmt.Printf("Sale %d is not in the local list.\n", id)
				return nil
			}
			fmt.Printf("Delete sale %d (%s) and its whole schedule? (y/n): ", id, view.Sale.CustomerName)
			if !confirm(reader) {
				fmt.Println("Cancelled.")
				return nil
			}
			if out := svc.DeleteSale(ctx, id); !out.OK() {
				printOutcome("delete", out)
				return nil
			}
			fmt.Printf("Sale %d deleted.\n", id)

		case "generate", "gen":
			id, ok := parseID(args, 0, "Usage: generate <sale-id>")
			if !ok {
				return nil
			}
			if view, found := svc.GetSale(id); found && len(view.Sale.Installments) > 0 {
				fmt.Printf("Sale %d already has %d installments. Regenerate and replace them? (y/n): ",
					id, len(view.Sale.Installments))
				if !confirm(reader) {
					fmt.Println("Cancelled.")
					return nil
				}
			}
			if out := svc.GenerateSchedule(ctx, id); !out.OK() {
				printOutcome("generate", out)
				return nil
			}
			if view, found := svc.GetSale(id); found {
				printSaleDetail(view)
			}

		case "toggle", "t":
			saleID, ok := parseID(args, 0, "Usage: toggle <sale-id> <installment-id>")
			if !ok {
				return nil
			}
			instID, ok := parseID(args, 1, "Usage: toggle <sale-id> <installment-id>")
			if !ok {
				return nil
			}
			if out := svc.ToggleInstallment(saleID, instID); !out.OK() {
				printOutcome("toggle", out)
				return nil
			}
			if view, found := svc.GetSale(saleID); found {
				printSaleDetail(view)
			}
			fmt.Println("Staged locally. Use 'save' to persist.")

		case "amount", "a":
			saleID, ok := parseID(args, 0, "Usage: amount <sale-id> <installment-id> <amount>")
			if !ok {
				return nil
			}
			instID, ok := parseID(args, 1, "Usage: amount <sale-id> <installment-id> <amount>")
			if !ok {
				return nil
			}
			if len(args) < 3 {
				fmt.Println("Usage: amount <sale-id> <installment-id> <amount>")
				return nil
			}
			amount, err := decimal.NewFromString(args[2])
			if err != nil {
				fmt.Printf("Invalid amount: %s\n", args[2])
				return nil
			}
			if out := svc.SetInstallmentAmount(saleID, instID, amount); !out.OK() {
				printOutcome("amount", out)
				return nil
			}
			fmt.Println("Staged locally. Use 'save' to persist.")

		case "save":
			id, ok := parseID(args, 0, "Usage: save <sale-id>")
			if !ok {
				return nil
			}
			if out := svc.SavePayments(ctx, id); !out.OK() {
				printOutcome("save", out)
				return nil
			}
			fmt.Printf("Payment edits for sale %d saved.\n", id)

		case "dashboard", "dash", "d":
			printDashboard(svc.Dashboard())

		case "payments", "pay", "p":
			printPayments(svc.ListPayments())

		case "help", "h":
			printHelp()

		case "exit", "quit", "e", "q":
			return errExit

		default:
			fmt.Printf("Unknown command: %s  (type 'help' for all commands)\n", cmd)
		}
		return nil
	}

	for {
		fmt.Print("\n> ")
		input := readLine(reader)
		if input == "" {
			continue
		}
		if err := dispatch(input); err != nil {
			if err == errExit {
				fmt.Println("Goodbye!")
				break
			}
			fmt.Printf("Error: %v\n", err)
		}
	}
}

func readLine(reader *bufio.Reader) string {
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func confirm(reader *bufio.Reader) bool {
	choice := strings.ToLower(readLine(reader))
	return choice == "y" || choice == "yes"
}

func parseID(args []string, pos int, usage string) (int64, bool) {
	if len(args) <= pos {
		fmt.Println(usage)
		return 0, false
	}
	id, err := strconv.ParseInt(args[pos], 10, 64)
	if err != nil || id <= 0 {
		fmt.Printf("Invalid id: %s\n", args[pos])
		return 0, false
	}
	return id, true
}
