package repl

import (
	"fmt"
	"strings"

	"installment-tracker/internal/app"
	"installment-tracker/internal/core"
	"installment-tracker/internal/syncer"
)

func printOutcome(op string, out syncer.Outcome) {
	switch out.Status {
	case syncer.StatusBusy:
		fmt.Printf("[%s] Busy: %s\n", op, out.Message)
	case syncer.StatusInvalid:
		fmt.Printf("[%s] Invalid: %s\n", op, out.Message)
	case syncer.StatusUnauthenticated:
		fmt.Printf("[%s] Not signed in: %s\n", op, out.Message)
	case syncer.StatusRejected:
		fmt.Printf("[%s] Rejected by server: %s\n", op, out.Message)
	default:
		fmt.Printf("[%s] Failed, try again: %s\n", op, out.Message)
	}
}

func printSales(result *app.SaleListResult) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 86))
	fmt.Printf("  SALES (%d)\n", result.Total)
	fmt.Println(strings.Repeat("=", 86))
	if result.Total == 0 {
		fmt.Println("  No sales found.")
		fmt.Println(strings.Repeat("=", 86))
		return
	}
	fmt.Printf("  %-5s %-22s %-15s %-12s %10s %10s %5s  %s\n",
		"ID", "CUSTOMER", "PHONE", "START", "PRICE", "LEFT", "%", "STATUS")
	fmt.Println(strings.Repeat("-", 86))
	for _, v := range result.Sales {
		fmt.Printf("  %-5d %-22s %-15s %-12s %10s %10s %4d%%  %s\n",
			v.Sale.ID,
			clip(v.Sale.CustomerName, 22),
			v.Sale.PhoneNumber,
			v.Sale.StartDate.Format("2006-01-02"),
			v.Sale.TotalPrice.StringFixed(2),
			v.Aggregate.Remaining.StringFixed(2),
			v.Aggregate.PercentComplete,
			statusLabel(v.Status),
		)
	}
	fmt.Println(strings.Repeat("=", 86))
}

func printSaleDetail(v *app.SaleView) {
	s := &v.Sale
	fmt.Println()
	fmt.Println(strings.Repeat("-", 72))
	fmt.Printf("  Sale:      #%d  %s\n", s.ID, statusLabel(v.Status))
	fmt.Printf("  Customer:  %s  %s\n", s.CustomerName, s.PhoneNumber)
	if s.Note != "" {
		fmt.Printf("  Product:   %s\n", s.Note)
	}
	if s.AppleID != "" {
		fmt.Printf("  Apple ID:  %s\n", s.AppleID)
	}
	fmt.Printf("  Price:     %s %s  (down payment %s, %d months from %s)\n",
		s.TotalPrice.StringFixed(2), s.Currency, s.DownPayment.StringFixed(2),
		s.DurationMonths, s.StartDate.Format("2006-01-02"))
	fmt.Printf("  Paid:      %s  Remaining: %s  (%d%%)\n",
		v.Aggregate.TotalPaid.StringFixed(2), v.Aggregate.Remaining.StringFixed(2), v.Aggregate.PercentComplete)
	if due := v.Aggregate.NextDue; due != nil {
		fmt.Printf("  Next due:  %s — %s  [%s]\n",
			due.Installment.ExpectedDate.Format("2006-01-02"),
			due.Installment.ExpectedAmount.StringFixed(2),
			severityLabel(due.Severity))
	}
	if s.Comment != "" {
		fmt.Printf("  Comment:   %s\n", s.Comment)
	}
	fmt.Println(strings.Repeat("-", 72))
	if len(s.Installments) == 0 {
		fmt.Println("  No schedule yet. Use 'generate' to create one.")
		fmt.Println(strings.Repeat("-", 72))
		return
	}
	fmt.Printf("  %-6s %-12s %12s %6s %12s  %s\n", "ID", "DUE", "EXPECTED", "PAID", "AMOUNT", "PAID AT")
	fmt.Println(strings.Repeat("-", 72))
	for _, inst := range s.Installments {
		paid := " "
		if inst.Paid {
			paid = "x"
		}
		paidAt := ""
		if inst.PaidAt != nil {
			paidAt = inst.PaidAt.Format("2006-01-02")
		}
		amount := inst.PaidAmount.StringFixed(2)
		if inst.CustomAmount != nil && !inst.Paid {
			amount = inst.CustomAmount.StringFixed(2) + "*"
		}
		fmt.Printf("  %-6d %-12s %12s   [%s]  %12s  %s\n",
			inst.ID, inst.ExpectedDate.Format("2006-01-02"),
			inst.ExpectedAmount.StringFixed(2), paid, amount, paidAt)
	}
	fmt.Println(strings.Repeat("-", 72))
}

func printDashboard(result *app.DashboardResult) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 62))
	fmt.Println("  DASHBOARD")
	fmt.Println(strings.Repeat("=", 62))
	fmt.Printf("  Outstanding debt : %15s\n", result.Stats.TotalDebt.StringFixed(2))
	fmt.Printf("  Total collected  : %15s\n", result.Stats.TotalCollected.StringFixed(2))
	fmt.Printf("  Customers        : %15d\n", result.Stats.Customers)
	fmt.Printf("  Pending sales    : %15d\n", result.Stats.PendingSales)
	if len(result.Attention) > 0 {
		fmt.Println(strings.Repeat("-", 62))
		fmt.Println("  NEEDS ATTENTION")
		for _, p := range result.Attention {
			fmt.Printf("  #%-4d %-20s %-12s %10s  %s\n",
				p.SaleID, clip(p.CustomerName, 20),
				p.Installment.ExpectedDate.Format("2006-01-02"),
				p.Installment.ExpectedAmount.StringFixed(2),
				severityLabel(p.Severity))
		}
	}
	fmt.Println(strings.Repeat("=", 62))
}

func printPayments(result *app.PaymentListResult) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 78))
	fmt.Printf("  UPCOMING PAYMENTS — %d overdue, %d due soon\n", result.Overdue, result.DueSoon)
	fmt.Println(strings.Repeat("=", 78))
	if len(result.Payments) == 0 {
		fmt.Println("  Nothing outstanding.")
		fmt.Println(strings.Repeat("=", 78))
		return
	}
	fmt.Printf("  %-5s %-22s %-15s %-12s %10s  %s\n", "SALE", "CUSTOMER", "PHONE", "DUE", "AMOUNT", "STATUS")
	fmt.Println(strings.Repeat("-", 78))
	for _, p := range result.Payments {
		fmt.Printf("  %-5d %-22s %-15s %-12s %10s  %s\n",
			p.SaleID, clip(p.CustomerName, 22), p.PhoneNumber,
			p.Installment.ExpectedDate.Format("2006-01-02"),
			p.Installment.ExpectedAmount.StringFixed(2),
			severityLabel(p.Severity))
	}
	fmt.Println(strings.Repeat("=", 78))
}

func statusLabel(status core.SaleStatus) string {
	switch status {
	case core.SaleStatusClosed:
		return "CLOSED"
	case core.SaleStatusInProgress:
		return "IN PROGRESS"
	default:
		return "NOT STARTED"
	}
}

func severityLabel(severity core.Severity) string {
	switch severity {
	case core.SeverityOverdue:
		return "OVERDUE"
	case core.SeverityDueSoon:
		return "DUE SOON"
	default:
		return "scheduled"
	}
}

func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func printHelp() {
	fmt.Println()
	fmt.Println("INSTALLMENT SALES TRACKER — COMMANDS")
	fmt.Println(strings.Repeat("=", 62))
	fmt.Println()
	fmt.Println("  SALES")
	fmt.Println("  list [search]                  List sales, filter by name/phone")
	fmt.Println("  refresh                        Re-fetch all sales from the server")
	fmt.Println("  show <sale-id>                 Sale detail with schedule")
	fmt.Println("  new                            Create sale (interactive)")
	fmt.Println("  edit <sale-id>                 Edit sale fields (interactive)")
	fmt.Println("  delete <sale-id>               Delete sale and its schedule")
	fmt.Println()
	fmt.Println("  SCHEDULE & PAYMENTS")
	fmt.Println("  generate <sale-id>             Generate the installment schedule")
	fmt.Println("  toggle <sale-id> <inst-id>     Mark installment paid/unpaid (local)")
	fmt.Println("  amount <sale-id> <inst-id> <v> Override an installment amount (local)")
	fmt.Println("  save <sale-id>                 Persist pending payment edits")
	fmt.Println()
	fmt.Println("  REPORTS")
	fmt.Println("  dashboard                      Totals across all sales")
	fmt.Println("  payments                       All unpaid installments, overdue first")
	fmt.Println()
	fmt.Println("  SESSION")
	fmt.Println("  help                           Show this help")
	fmt.Println("  exit                           Exit")
	fmt.Println(strings.Repeat("=", 62))
}
