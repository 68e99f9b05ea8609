package web

import (
	"fmt"
	"net/http"
	"time"

	"installment-tracker/internal/app"
	"installment-tracker/internal/core"

	"github.com/shopspring/decimal"
)

func (h *Handler) signIn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if out := h.svc.SignIn(r.Context(), req.Username, req.Password); !out.OK() {
		writeOutcome(w, r, out)
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (h *Handler) signOut(w http.ResponseWriter, r *http.Request) {
	h.svc.SignOut()
	writeJSON(w, map[string]string{"status": "ok"})
}

func (h *Handler) refreshSales(w http.ResponseWriter, r *http.Request) {
	if out := h.svc.RefreshSales(r.Context()); !out.OK() {
		writeOutcome(w, r, out)
		return
	}
	writeJSON(w, h.svc.ListSales(""))
}

func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.svc.ListSales(r.URL.Query().Get("search")))
}

func (h *Handler) getSale(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if r.URL.Query().Get("fresh") == "1" {
		view, out := h.svc.LoadSale(r.Context(), id)
		if !out.OK() {
			writeOutcome(w, r, out)
			return
		}
		writeJSON(w, view)
		return
	}
	view, found := h.svc.GetSale(id)
	if !found {
		writeError(w, r, fmt.Sprintf("sale %d not found", id), "NOT_FOUND", http.StatusNotFound)
		return
	}
	writeJSON(w, view)
}

func (h *Handler) createSale(w http.ResponseWriter, r *http.Request) {
	var req app.CreateSaleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id, out := h.svc.CreateSale(r.Context(), req)
	if !out.OK() {
		writeOutcome(w, r, out)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, map[string]int64{"id": id})
}

// updateSaleRequest mirrors core.SaleFieldPatch with a string start date so
// API clients can send plain YYYY-MM-DD.
type updateSaleRequest struct {
	CustomerName *string          `json:"customer_name,omitempty"`
	PhoneNumber  *string          `json:"phone_number,omitempty"`
	Note         *string          `json:"note,omitempty"`
	AppleID      *string          `json:"apple_id,omitempty"`
	Comment      *string          `json:"comment,omitempty"`
	Currency     *string          `json:"currency,omitempty"`
	TotalPrice   *decimal.Decimal `json:"total_price,omitempty"`
	DownPayment  *decimal.Decimal `json:"down_payment,omitempty"`
	StartDate    *string          `json:"start_date,omitempty"`
	Completed    *bool            `json:"completed,omitempty"`
}

func (req updateSaleRequest) patch() (core.SaleFieldPatch, error) {
	patch := core.SaleFieldPatch{
		CustomerName: req.CustomerName,
		PhoneNumber:  req.PhoneNumber,
		Note:         req.Note,
		AppleID:      req.AppleID,
		Comment:      req.Comment,
		TotalPrice:   req.TotalPrice,
		DownPayment:  req.DownPayment,
		Completed:    req.Completed,
	}
	if req.Currency != nil {
		currency := core.Currency(*req.Currency)
		patch.Currency = &currency
	}
	if req.StartDate != nil {
		parsed, err := time.Parse("2006-01-02", *req.StartDate)
		if err != nil {
			return patch, fmt.Errorf("start date %q is not YYYY-MM-DD", *req.StartDate)
		}
		patch.StartDate = &parsed
	}
	return patch, nil
}

func (h *Handler) updateSale(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req updateSaleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	patch, err := req.patch()
	if err != nil {
		writeError(w, r, err.Error(), "VALIDATION_ERROR", http.StatusBadRequest)
		return
	}
	if out := h.svc.UpdateSale(r.Context(), id, patch); !out.OK() {
		writeOutcome(w, r, out)
		return
	}
	view, _ := h.svc.GetSale(id)
	writeJSON(w, view)
}

func (h *Handler) deleteSale(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if out := h.svc.DeleteSale(r.Context(), id); !out.OK() {
		writeOutcome(w, r, out)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) generateSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if out := h.svc.GenerateSchedule(r.Context(), id); !out.OK() {
		writeOutcome(w, r, out)
		return
	}
	view, _ := h.svc.GetSale(id)
	writeJSON(w, view)
}

func (h *Handler) toggleInstallment(w http.ResponseWriter, r *http.Request) {
	saleID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	installmentID, ok := pathID(w, r, "installmentID")
	if !ok {
		return
	}
	if out := h.svc.ToggleInstallment(saleID, installmentID); !out.OK() {
		writeOutcome(w, r, out)
		return
	}
	view, _ := h.svc.GetSale(saleID)
	writeJSON(w, view)
}

func (h *Handler) setInstallmentAmount(w http.ResponseWriter, r *http.Request) {
	saleID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	installmentID, ok := pathID(w, r, "installmentID")
	if !ok {
		return
	}
	var req struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if out := h.svc.SetInstallmentAmount(saleID, installmentID, req.Amount); !out.OK() {
		writeOutcome(w, r, out)
		return
	}
	view, _ := h.svc.GetSale(saleID)
	writeJSON(w, view)
}

func (h *Handler) savePayments(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if out := h.svc.SavePayments(r.Context(), id); !out.OK() {
		writeOutcome(w, r, out)
		return
	}
	view, _ := h.svc.GetSale(id)
	writeJSON(w, view)
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.svc.Dashboard())
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.svc.ListPayments())
}
