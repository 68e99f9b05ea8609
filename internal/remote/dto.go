package remote

import (
	"encoding/json"
	"fmt"
	"time"

	"installment-tracker/internal/core"

	"github.com/shopspring/decimal"
)

// The remote store expects bare JSON numbers for amounts, not quoted strings.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

const wireDateLayout = "2006-01-02"

// saleDTO is the wire shape of a sale. The schedule arrives under
// "installments" on current API versions and "monthlyPayments" on older
// ones; normalization accepts either. This file is the only seam where wire
// shapes exist — everything past it speaks the core schema.
type saleDTO struct {
	ID              int64            `json:"id,omitempty"`
	CustomerName    string           `json:"customerName"`
	PhoneNumber     string           `json:"phoneNumber"`
	Note            string           `json:"note"`
	AppleID         string           `json:"appleId,omitempty"`
	Comment         string           `json:"comment,omitempty"`
	Currency        string           `json:"currency"`
	TotalPrice      decimal.Decimal  `json:"totalPrice"`
	DownPayment     decimal.Decimal  `json:"downPayment"`
	DurationMonths  int              `json:"durationMonths"`
	StartDate       string           `json:"startDate"`
	Completed       bool             `json:"completed"`
	CreatedAt       string           `json:"createdAt,omitempty"`
	Installments    []installmentDTO `json:"installments,omitempty"`
	MonthlyPayments []installmentDTO `json:"monthlyPayments,omitempty"`
}

// installmentDTO carries both the flat saleId and the nested sale reference:
// the storage layer behind the API binds the relationship via the nested form
// only, while older handlers read the flat field.
type installmentDTO struct {
	ID         int64            `json:"id,omitempty"`
	SaleID     int64            `json:"saleId"`
	Sale       *saleRefDTO      `json:"sale,omitempty"`
	Amount     decimal.Decimal  `json:"amount"`
	DueDate    string           `json:"dueDate"`
	Paid       bool             `json:"paid"`
	PaidAmount decimal.Decimal  `json:"paidAmount"`
	PaidAt     *time.Time       `json:"paidAt,omitempty"`
	Comment    string           `json:"comment,omitempty"`
}

type saleRefDTO struct {
	ID int64 `json:"id"`
}

type signInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type signInResponse struct {
	AccessToken string `json:"accessToken"`
}

// pageResponse tolerates both a bare array and a Spring-style page envelope.
type pageResponse struct {
	sales []saleDTO
}

func (p *pageResponse) UnmarshalJSON(data []byte) error {
	var plain []saleDTO
	if err := json.Unmarshal(data, &plain); err == nil {
		p.sales = plain
		return nil
	}
	var envelope struct {
		Content []saleDTO `json:"content"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}
	p.sales = envelope.Content
	return nil
}

func parseWireDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(wireDateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unparseable date %q: %w", s, err)
	}
	return core.DayOf(t), nil
}

// toCore normalizes a wire sale into the canonical internal schema.
func (dto saleDTO) toCore() (*core.Sale, error) {
	startDate, err := parseWireDate(dto.StartDate)
	if err != nil {
		return nil, err
	}
	currency := core.Currency(dto.Currency)
	if currency == "" {
		currency = core.CurrencyUSD
	}

	wire := dto.Installments
	if len(wire) == 0 {
		wire = dto.MonthlyPayments
	}
	installments := make([]core.Installment, 0, len(wire))
	for _, in := range wire {
		inst, err := in.toCore(dto.ID)
		if err != nil {
			return nil, err
		}
		installments = append(installments, inst)
	}
	core.SortInstallments(installments)

	sale := &core.Sale{
		ID:             dto.ID,
		CustomerName:   dto.CustomerName,
		PhoneNumber:    dto.PhoneNumber,
		Note:           dto.Note,
		AppleID:        dto.AppleID,
		Comment:        dto.Comment,
		Currency:       currency,
		TotalPrice:     dto.TotalPrice,
		DownPayment:    dto.DownPayment,
		DurationMonths: dto.DurationMonths,
		StartDate:      startDate,
		Completed:      dto.Completed,
		Installments:   installments,
	}
	if createdAt, err := parseWireDate(dto.CreatedAt); err == nil {
		sale.CreatedAt = createdAt
	}
	return sale, nil
}

func (dto installmentDTO) toCore(saleID int64) (core.Installment, error) {
	dueDate, err := parseWireDate(dto.DueDate)
	if err != nil {
		return core.Installment{}, err
	}
	owner := dto.SaleID
	if owner == 0 && dto.Sale != nil {
		owner = dto.Sale.ID
	}
	if owner == 0 {
		owner = saleID
	}
	return core.Installment{
		ID:             dto.ID,
		SaleID:         owner,
		ExpectedAmount: dto.Amount,
		ExpectedDate:   dueDate,
		Paid:           dto.Paid,
		PaidAmount:     dto.PaidAmount,
		PaidAt:         dto.PaidAt,
		Comment:        dto.Comment,
	}, nil
}

func termsToDTO(terms core.SaleTerms) saleDTO {
	return saleDTO{
		CustomerName:   terms.CustomerName,
		PhoneNumber:    terms.PhoneNumber,
		Note:           terms.Note,
		AppleID:        terms.AppleID,
		Comment:        terms.Comment,
		Currency:       string(terms.Currency),
		TotalPrice:     terms.TotalPrice,
		DownPayment:    terms.DownPayment,
		DurationMonths: terms.DurationMonths,
		StartDate:      terms.StartDate.Format(wireDateLayout),
	}
}

// saleToDTO builds the scalar-field update payload. The schedule is
// deliberately absent: sending it would hand the sale-level update path
// authority over installments, which resets them server-side.
func saleToDTO(sale *core.Sale) saleDTO {
	return saleDTO{
		ID:             sale.ID,
		CustomerName:   sale.CustomerName,
		PhoneNumber:    sale.PhoneNumber,
		Note:           sale.Note,
		AppleID:        sale.AppleID,
		Comment:        sale.Comment,
		Currency:       string(sale.Currency),
		TotalPrice:     sale.TotalPrice,
		DownPayment:    sale.DownPayment,
		DurationMonths: sale.DurationMonths,
		StartDate:      sale.StartDate.Format(wireDateLayout),
		Completed:      sale.Completed,
	}
}

func installmentToDTO(inst core.Installment) installmentDTO {
	return installmentDTO{
		ID:         inst.ID,
		SaleID:     inst.SaleID,
		Sale:       &saleRefDTO{ID: inst.SaleID},
		Amount:     inst.ExpectedAmount,
		DueDate:    inst.ExpectedDate.Format(wireDateLayout),
		Paid:       inst.Paid,
		PaidAmount: inst.PaidAmount,
		PaidAt:     inst.PaidAt,
		Comment:    inst.Comment,
	}
}
