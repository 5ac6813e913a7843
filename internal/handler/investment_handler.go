package handler

import (
	"net/http"

	"investment-ledger/internal/domain"
	"investment-ledger/internal/service"
)

type InvestmentHandler struct {
	ledgerService  *service.LedgerService
	requestService *service.RequestService
	planService    *service.PlanService
}

func NewInvestmentHandler(
	ledgerService *service.LedgerService,
	requestService *service.RequestService,
	planService *service.PlanService,
) *InvestmentHandler {
	return &InvestmentHandler{
		ledgerService:  ledgerService,
		requestService: requestService,
		planService:    planService,
	}
}

type PlaceInvestmentRequest struct {
	PlanID string `json:"plan_id"`
	Amount string `json:"amount"`
}

func (h *InvestmentHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.planService.ListPlans())
}

func (h *InvestmentHandler) PlaceInvestment(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req PlaceInvestmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	amount, ok := parseAmount(w, req.Amount)
	if !ok {
		return
	}

	investment, err := h.ledgerService.PlaceInvestment(r.Context(), actor, req.PlanID, amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, investment)
}

func (h *InvestmentHandler) ListInvestments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	investments, err := h.requestService.ListInvestments(r.Context(), domain.InvestmentFilter{
		UserID: q.Get("user_id"),
		Status: domain.InvestmentStatus(q.Get("status")),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, investments)
}
