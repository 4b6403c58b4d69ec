// Package handler contains the HTTP layer.
//
// This file implements the admin reporting endpoints.
package handler

import (
	"log/slog"
	"net/http"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ycliang/scriptly/internal/service"
)

// AdminHandler handles the admin report endpoints.
type AdminHandler struct {
	reports service.ReportService
	logger  *slog.Logger
	printer *message.Printer
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(reports service.ReportService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		reports: reports,
		logger:  logger,
		printer: message.NewPrinter(language.English),
	}
}

// RegisterRoutes registers admin routes behind the provided auth middleware.
func (h *AdminHandler) RegisterRoutes(mux *http.ServeMux, requireAdmin func(http.Handler) http.Handler) {
	mux.Handle("GET /admin/report", requireAdmin(http.HandlerFunc(h.Report)))
	mux.Handle("GET /admin/report.txt", requireAdmin(http.HandlerFunc(h.ReportSummary)))
}

// Report returns the full usage/cost/revenue report as JSON. The shape is
// a stable contract; fields are never renamed or dropped.
func (h *AdminHandler) Report(w http.ResponseWriter, r *http.Request) {
	report, err := h.reports.Report(r.Context())
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// ReportSummary returns a short plaintext digest of the same figures, for
// reading in a terminal or pasting into chat.
func (h *AdminHandler) ReportSummary(w http.ResponseWriter, r *http.Request) {
	report, err := h.reports.Report(r.Context())
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	p := h.printer
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	p.Fprintf(w, "Users: %d total (%d new this month)\n", report.Users.Total, report.Users.NewThisMonth)
	p.Fprintf(w, "  free=%d creator=%d pro=%d lifetime=%d\n",
		report.Users.ByTier.Free, report.Users.ByTier.Creator, report.Users.ByTier.Pro, report.Users.ByTier.Lifetime)
	p.Fprintf(w, "Cost:    $%.2f USD / NT$%d all time, $%.2f USD this month, $%.2f USD today\n",
		report.Costs.Total.USD, report.Costs.Total.TWD, report.Costs.ThisMonth.USD, report.Costs.Today.USD)
	p.Fprintf(w, "Revenue: NT$%d all time (%d payments), NT$%d this month, NT$%d today\n",
		report.Revenue.Total, report.Revenue.TotalPayments, report.Revenue.ThisMonth, report.Revenue.Today)
	p.Fprintf(w, "Profit:  NT$%d all time, NT$%d this month, NT$%d today\n",
		report.Profit.Total, report.Profit.ThisMonth, report.Profit.Today)
	p.Fprintf(w, "Generations this month: %d\n", report.Generations.ThisMonth)
	for _, m := range report.Models {
		p.Fprintf(w, "  model %s: %d calls, $%.2f USD, NT$%d\n", m.Name, m.Calls, m.CostUSD, m.CostTWD)
	}
}
