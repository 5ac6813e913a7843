package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"investment-ledger/internal/domain"
	"investment-ledger/internal/service"
)

type AccountHandler struct {
	accountService *service.AccountService
}

func NewAccountHandler(accountService *service.AccountService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
	}
}

type RegisterRequest struct {
	Email          string `json:"email"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	InvestmentGoal string `json:"investment_goal"`
	ReferredBy     string `json:"referred_by"`
}

func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	account, err := h.accountService.Register(r.Context(), actor, service.RegisterRequest{
		Email:          req.Email,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		InvestmentGoal: req.InvestmentGoal,
		ReferredBy:     req.ReferredBy,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, account)
}

func (h *AccountHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	account, err := h.accountService.GetAccount(r.Context(), actor.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, account)
}

func (h *AccountHandler) History(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	history, err := h.accountService.History(r.Context(), actor.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, history)
}

func (h *AccountHandler) Referrals(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	summary, err := h.accountService.ListReferrals(r.Context(), actor.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accountService.ListAccounts(r.Context(), service.AccountSearch{
		Search: r.URL.Query().Get("search"),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, accounts)
}

func (h *AccountHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req statusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	account, err := h.accountService.SetAccountStatus(r.Context(), actor, mux.Vars(r)["id"], domain.AccountStatus(req.Status))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, account)
}
