package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Currency is a display label only. Amounts are never converted between
// currencies; the label travels with the sale for rendering.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyUZS Currency = "UZS"
)

// Sale is an installment sale: a customer buys a product for TotalPrice,
// pays DownPayment up front, and repays the remainder in DurationMonths
// monthly installments. A sale exclusively owns its Installments; they are
// created and deleted only together with it.
type Sale struct {
	ID             int64           `json:"id"`
	CustomerName   string          `json:"customer_name"`
	PhoneNumber    string          `json:"phone_number"`
	Note           string          `json:"note"` // product description: model, memory, color
	AppleID        string          `json:"apple_id,omitempty"`
	Comment        string          `json:"comment,omitempty"`
	Currency       Currency        `json:"currency"`
	TotalPrice     decimal.Decimal `json:"total_price"`
	DownPayment    decimal.Decimal `json:"down_payment"`
	DurationMonths int             `json:"duration_months"`
	StartDate      time.Time       `json:"start_date"`
	Completed      bool            `json:"completed"`
	CreatedAt      time.Time       `json:"created_at"`
	// Installments are kept ordered by ExpectedDate ascending.
	Installments []Installment `json:"installments"`
}

// Installment is one scheduled partial payment within a sale's repayment plan.
type Installment struct {
	ID             int64           `json:"id"`
	SaleID         int64           `json:"sale_id"`
	ExpectedAmount decimal.Decimal `json:"expected_amount"`
	ExpectedDate   time.Time       `json:"expected_date"`
	Paid           bool            `json:"paid"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	PaidAt         *time.Time      `json:"paid_at,omitempty"`
	Comment        string          `json:"comment,omitempty"`
	// CustomAmount is a pending per-installment override staged while
	// editing. It never reaches the wire: committing resolves it into
	// PaidAmount first.
	CustomAmount *decimal.Decimal `json:"-"`
}

// Clone returns a deep copy of the installment.
func (i Installment) Clone() Installment {
	out := i
	if i.PaidAt != nil {
		t := *i.PaidAt
		out.PaidAt = &t
	}
	if i.CustomAmount != nil {
		d := *i.CustomAmount
		out.CustomAmount = &d
	}
	return out
}

// CloneInstallments deep-copies a schedule.
func CloneInstallments(installments []Installment) []Installment {
	if installments == nil {
		return nil
	}
	out := make([]Installment, len(installments))
	for idx, inst := range installments {
		out[idx] = inst.Clone()
	}
	return out
}

// Clone returns a deep copy of the sale including its schedule.
func (s *Sale) Clone() *Sale {
	out := *s
	out.Installments = CloneInstallments(s.Installments)
	return &out
}

// SaleTerms is the input for creating a sale.
type SaleTerms struct {
	CustomerName   string          `json:"customer_name"`
	PhoneNumber    string          `json:"phone_number"`
	Note           string          `json:"note"`
	AppleID        string          `json:"apple_id,omitempty"`
	Comment        string          `json:"comment,omitempty"`
	Currency       Currency        `json:"currency"`
	TotalPrice     decimal.Decimal `json:"total_price"`
	DownPayment    decimal.Decimal `json:"down_payment"`
	DurationMonths int             `json:"duration_months"`
	StartDate      time.Time       `json:"start_date"`
}

// Normalize trims free-text fields and defaults the currency to USD.
func (t *SaleTerms) Normalize() {
	t.CustomerName = strings.TrimSpace(t.CustomerName)
	t.PhoneNumber = strings.TrimSpace(t.PhoneNumber)
	t.Note = strings.TrimSpace(t.Note)
	t.AppleID = strings.TrimSpace(t.AppleID)
	t.Comment = strings.TrimSpace(t.Comment)
	if t.Currency == "" {
		t.Currency = CurrencyUSD
	}
}

// Validate rejects malformed terms before any remote call.
func (t SaleTerms) Validate() error {
	if t.CustomerName == "" {
		return fmt.Errorf("%w: customer name is required", ErrValidation)
	}
	if t.Currency != CurrencyUSD && t.Currency != CurrencyUZS {
		return fmt.Errorf("%w: unsupported currency %q", ErrValidation, t.Currency)
	}
	if t.TotalPrice.IsNegative() {
		return fmt.Errorf("%w: total price must not be negative", ErrValidation)
	}
	if t.DownPayment.IsNegative() {
		return fmt.Errorf("%w: down payment must not be negative", ErrValidation)
	}
	if t.DownPayment.GreaterThan(t.TotalPrice) {
		return fmt.Errorf("%w: down payment %s exceeds total price %s",
			ErrValidation, t.DownPayment, t.TotalPrice)
	}
	if t.DurationMonths < 1 {
		return fmt.Errorf("%w: duration must be at least 1 month, got %d", ErrValidation, t.DurationMonths)
	}
	if t.StartDate.IsZero() {
		return fmt.Errorf("%w: start date is required", ErrValidation)
	}
	return nil
}

// SaleFieldPatch carries scalar sale field edits. Nil fields are left
// untouched; the installment list is deliberately outside its reach.
type SaleFieldPatch struct {
	CustomerName *string          `json:"customer_name,omitempty"`
	PhoneNumber  *string          `json:"phone_number,omitempty"`
	Note         *string          `json:"note,omitempty"`
	AppleID      *string          `json:"apple_id,omitempty"`
	Comment      *string          `json:"comment,omitempty"`
	Currency     *Currency        `json:"currency,omitempty"`
	TotalPrice   *decimal.Decimal `json:"total_price,omitempty"`
	DownPayment  *decimal.Decimal `json:"down_payment,omitempty"`
	StartDate    *time.Time       `json:"start_date,omitempty"`
	Completed    *bool            `json:"completed,omitempty"`
}

// Apply writes the non-nil patch fields onto the sale, leaving the schedule
// untouched.
func (p SaleFieldPatch) Apply(s *Sale) {
	if p.CustomerName != nil {
		s.CustomerName = *p.CustomerName
	}
	if p.PhoneNumber != nil {
		s.PhoneNumber = *p.PhoneNumber
	}
	if p.Note != nil {
		s.Note = *p.Note
	}
	if p.AppleID != nil {
		s.AppleID = *p.AppleID
	}
	if p.Comment != nil {
		s.Comment = *p.Comment
	}
	if p.Currency != nil {
		s.Currency = *p.Currency
	}
	if p.TotalPrice != nil {
		s.TotalPrice = *p.TotalPrice
	}
	if p.DownPayment != nil {
		s.DownPayment = *p.DownPayment
	}
	if p.StartDate != nil {
		s.StartDate = *p.StartDate
	}
	if p.Completed != nil {
		s.Completed = *p.Completed
	}
}

// Validate rejects out-of-range patch values. Cross-field checks against the
// current sale (down payment vs price) are the caller's job since a patch may
// change either side.
func (p SaleFieldPatch) Validate() error {
	if p.CustomerName != nil && strings.TrimSpace(*p.CustomerName) == "" {
		return fmt.Errorf("%w: customer name must not be blank", ErrValidation)
	}
	if p.Currency != nil && *p.Currency != CurrencyUSD && *p.Currency != CurrencyUZS {
		return fmt.Errorf("%w: unsupported currency %q", ErrValidation, *p.Currency)
	}
	if p.TotalPrice != nil && p.TotalPrice.IsNegative() {
		return fmt.Errorf("%w: total price must not be negative", ErrValidation)
	}
	if p.DownPayment != nil && p.DownPayment.IsNegative() {
		return fmt.Errorf("%w: down payment must not be negative", ErrValidation)
	}
	return nil
}
