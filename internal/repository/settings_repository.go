package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"go.uber.org/zap"

	"investment-ledger/internal/domain"
	"investment-ledger/internal/errors"
)

type settingsRepository struct {
	db     SQLExecutor
	logger *zap.Logger
}

func NewSettingsRepository(db SQLExecutor, logger *zap.Logger) domain.SettingsRepository {
	return &settingsRepository{db: db, logger: logger}
}

func (r *settingsRepository) GetSettings(ctx context.Context) (*domain.Settings, error) {
	var s domain.Settings
	err := r.db.QueryRowContext(ctx, `
		SELECT wallet_btc, wallet_eth, wallet_usdt, support_email, site_name, updated_at
		FROM settings WHERE id = $1`, domain.GlobalSettingsID,
	).Scan(&s.WalletBTC, &s.WalletETH, &s.WalletUSDT, &s.SupportEmail, &s.SiteName, &s.UpdatedAt)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.ErrNotFound
		}
		return nil, dbError("failed to get settings", err)
	}
	return &s, nil
}

func (r *settingsRepository) SaveSettings(ctx context.Context, s *domain.Settings) error {
	s.UpdatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO settings (id, wallet_btc, wallet_eth, wallet_usdt, support_email, site_name, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			wallet_btc = EXCLUDED.wallet_btc,
			wallet_eth = EXCLUDED.wallet_eth,
			wallet_usdt = EXCLUDED.wallet_usdt,
			support_email = EXCLUDED.support_email,
			site_name = EXCLUDED.site_name,
			updated_at = EXCLUDED.updated_at`,
		domain.GlobalSettingsID, s.WalletBTC, s.WalletETH, s.WalletUSDT, s.SupportEmail, s.SiteName, s.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to save settings", zap.Error(err))
		return dbError("failed to save settings", err)
	}
	r.logger.Info("Settings saved")
	return nil
}
