package handler

import (
	"net/http"

	"github.com/shopspring/decimal"

	"investment-ledger/internal/domain"
	"investment-ledger/internal/errors"
	"investment-ledger/internal/service"
)

// RequestHandler serves deposit and withdrawal requests: creation by users
// and review by admins.
type RequestHandler struct {
	requestService *service.RequestService
	ledgerService  *service.LedgerService
}

func NewRequestHandler(requestService *service.RequestService, ledgerService *service.LedgerService) *RequestHandler {
	return &RequestHandler{
		requestService: requestService,
		ledgerService:  ledgerService,
	}
}

type CreateDepositRequest struct {
	Amount          string `json:"amount"`
	Currency        string `json:"currency"`
	TransactionHash string `json:"transaction_hash"`
}

type CreateWithdrawalRequest struct {
	Amount  string                   `json:"amount"`
	Method  string                   `json:"method"`
	Details domain.WithdrawalDetails `json:"details"`
}

func parseAmount(w http.ResponseWriter, raw string) (decimal.Decimal, bool) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		writeError(w, errors.NewAppError(errors.InvalidAmount, "invalid amount format").WithDetails(err.Error()))
		return decimal.Zero, false
	}
	return amount, true
}

func (h *RequestHandler) CreateDeposit(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req CreateDepositRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	amount, ok := parseAmount(w, req.Amount)
	if !ok {
		return
	}

	deposit, err := h.requestService.CreateDeposit(r.Context(), actor, service.CreateDepositRequest{
		Amount:          amount,
		Currency:        domain.Currency(req.Currency),
		TransactionHash: req.TransactionHash,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, deposit)
}

func (h *RequestHandler) CreateWithdrawal(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req CreateWithdrawalRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	amount, ok := parseAmount(w, req.Amount)
	if !ok {
		return
	}

	withdrawal, err := h.requestService.CreateWithdrawal(r.Context(), actor, service.CreateWithdrawalRequest{
		Amount:  amount,
		Method:  domain.WithdrawalMethod(req.Method),
		Details: req.Details,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, withdrawal)
}

func requestFilter(r *http.Request) domain.RequestFilter {
	q := r.URL.Query()
	return domain.RequestFilter{
		UserID: q.Get("user_id"),
		Status: domain.RequestStatus(q.Get("status")),
	}
}

func (h *RequestHandler) ListDeposits(w http.ResponseWriter, r *http.Request) {
	deposits, err := h.requestService.ListDeposits(r.Context(), requestFilter(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deposits)
}

func (h *RequestHandler) ListWithdrawals(w http.ResponseWriter, r *http.Request) {
	withdrawals, err := h.requestService.ListWithdrawals(r.Context(), requestFilter(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, withdrawals)
}

func (h *RequestHandler) ProcessDeposit(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req statusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	deposit, err := h.ledgerService.ProcessDeposit(r.Context(), actor, id, domain.RequestStatus(req.Status))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, deposit)
}

func (h *RequestHandler) ProcessWithdrawal(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req statusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	withdrawal, err := h.ledgerService.ProcessWithdrawal(r.Context(), actor, id, domain.RequestStatus(req.Status))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, withdrawal)
}
