package handler

import (
	"net/http"

	"investment-ledger/internal/domain"
	"investment-ledger/internal/service"
)

type AdminHandler struct {
	settingsService *service.SettingsService
	statsService    *service.StatsService
}

func NewAdminHandler(settingsService *service.SettingsService, statsService *service.StatsService) *AdminHandler {
	return &AdminHandler{
		settingsService: settingsService,
		statsService:    statsService,
	}
}

type UpdateSettingsRequest struct {
	WalletBTC    string `json:"wallet_btc"`
	WalletETH    string `json:"wallet_eth"`
	WalletUSDT   string `json:"wallet_usdt"`
	SupportEmail string `json:"support_email"`
	SiteName     string `json:"site_name"`
}

// GetSettings is served without authentication.
func (h *AdminHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settingsService.Get(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *AdminHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req UpdateSettingsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	settings, err := h.settingsService.Update(r.Context(), actor, domain.Settings{
		WalletBTC:    req.WalletBTC,
		WalletETH:    req.WalletETH,
		WalletUSDT:   req.WalletUSDT,
		SupportEmail: req.SupportEmail,
		SiteName:     req.SiteName,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.statsService.Dashboard(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
