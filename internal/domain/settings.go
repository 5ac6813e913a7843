package domain

import (
	"context"
	"time"
)

const GlobalSettingsID = "global"

type Settings struct {
	WalletBTC    string    `json:"wallet_btc"`
	WalletETH    string    `json:"wallet_eth"`
	WalletUSDT   string    `json:"wallet_usdt"`
	SupportEmail string    `json:"support_email"`
	SiteName     string    `json:"site_name"`
	UpdatedAt    time.Time `json:"updated_at,omitempty"`
}

func DefaultSettings() Settings {
	return Settings{
		WalletBTC:    "1J1RpsaG7BoQu6pmxQ2j2WC5H6zni6eUKh",
		WalletETH:    "0x031d48c14d06470edd37b8c23df4d179a855f48c",
		WalletUSDT:   "TAGehSxJe15bB81JmP7gnuHLJTwZGaWZ2K",
		SupportEmail: "support@futureinvest.com",
		SiteName:     "FutureInvest",
	}
}

// Merge overlays the non-empty fields of other onto s.
func (s Settings) Merge(other Settings) Settings {
	if other.WalletBTC != "" {
		s.WalletBTC = other.WalletBTC
	}
	if other.WalletETH != "" {
		s.WalletETH = other.WalletETH
	}
	if other.WalletUSDT != "" {
		s.WalletUSDT = other.WalletUSDT
	}
	if other.SupportEmail != "" {
		s.SupportEmail = other.SupportEmail
	}
	if other.SiteName != "" {
		s.SiteName = other.SiteName
	}
	if !other.UpdatedAt.IsZero() {
		s.UpdatedAt = other.UpdatedAt
	}
	return s
}

// WalletFor returns the platform deposit address for the currency.
func (s Settings) WalletFor(c Currency) string {
	switch c {
	case CurrencyBTC:
		return s.WalletBTC
	case CurrencyETH:
		return s.WalletETH
	case CurrencyUSDT:
		return s.WalletUSDT
	}
	return ""
}

type SettingsRepository interface {
	// GetSettings returns ErrNotFound when nothing has been saved yet.
	GetSettings(ctx context.Context) (*Settings, error)
	SaveSettings(ctx context.Context, settings *Settings) error
}
