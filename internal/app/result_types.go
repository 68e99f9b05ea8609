package app

import (
	"installment-tracker/internal/core"
)

// SaleView is a sale with its derived repayment aggregates, the shape every
// adapter renders from.
type SaleView struct {
	Sale      core.Sale       `json:"sale"`
	Aggregate core.Aggregate  `json:"aggregate"`
	Status    core.SaleStatus `json:"status"`
}

// SaleListResult is returned by ListSales.
type SaleListResult struct {
	Sales []SaleView `json:"sales"`
	Total int        `json:"total"`
}

// DashboardResult is returned by Dashboard.
type DashboardResult struct {
	Stats core.DashboardStats `json:"stats"`
	// Attention lists sales whose next installment is overdue or due soon,
	// most urgent first.
	Attention []PaymentDue `json:"attention"`
}

// PaymentDue is one unpaid installment flattened with its sale's identity.
type PaymentDue struct {
	SaleID       int64            `json:"sale_id"`
	CustomerName string           `json:"customer_name"`
	PhoneNumber  string           `json:"phone_number"`
	Installment  core.Installment `json:"installment"`
	Severity     core.Severity    `json:"severity"`
}

// PaymentListResult is returned by ListPayments.
type PaymentListResult struct {
	Payments []PaymentDue `json:"payments"`
	Overdue  int          `json:"overdue"`
	DueSoon  int          `json:"due_soon"`
}
