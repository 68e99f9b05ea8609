package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"installment-tracker/internal/app"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler exposes the application service as a JSON API.
type Handler struct {
	svc app.ApplicationService
	log *zap.Logger
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, allowedOrigins string, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Handler{svc: svc, log: log}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(log))
	r.Use(Recoverer(log))
	r.Use(CORS(allowedOrigins))
	r.Use(RequestBodyLimit(1 << 20)) // 1 MB

	r.Get("/api/health", h.health)
	r.Post("/api/auth/sign-in", h.signIn)
	r.Post("/api/auth/sign-out", h.signOut)

	r.Route("/api/sales", func(r chi.Router) {
		r.Get("/", h.listSales)
		r.Post("/", h.createSale)
		r.Post("/refresh", h.refreshSales)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.getSale)
			r.Patch("/", h.updateSale)
			r.Delete("/", h.deleteSale)
			r.Post("/schedule", h.generateSchedule)
			r.Post("/payments/save", h.savePayments)
			r.Post("/installments/{installmentID}/toggle", h.toggleInstallment)
			r.Put("/installments/{installmentID}/amount", h.setInstallmentAmount)
		})
	})

	r.Get("/api/dashboard", h.dashboard)
	r.Get("/api/payments", h.listPayments)

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status string `json:"status"`
		Sales  int    `json:"sales"`
	}
	writeJSON(w, response{Status: "ok", Sales: h.svc.ListSales("").Total})
}

// decodeJSON decodes the request body into v, writing an appropriate error
// response on failure. HTTP 413 for oversized bodies, 400 otherwise.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}

// pathID extracts a numeric URL parameter, writing a 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, r, "invalid "+name+" "+raw, "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
