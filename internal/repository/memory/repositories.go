package memory

import (
	"context"
	stderrors "errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"investment-ledger/internal/domain"
	"investment-ledger/internal/errors"
)

type accountRepo struct{ s *Store }

func accountKey(id string) docKey { return docKey{collAccounts, id} }

func (r accountRepo) CreateAccount(ctx context.Context, account *domain.Account) error {
	now := time.Now().UTC()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now

	err := r.s.create(ctx, accountKey(account.ID), *account)
	if stderrors.Is(err, errDuplicate) {
		return errors.ErrDuplicateAccount
	}
	return err
}

func (r accountRepo) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	v, ok, err := r.s.get(ctx, accountKey(id))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.ErrAccountNotFound
	}
	account := v.(domain.Account)
	return &account, nil
}

// GetAccountForUpdate is GetAccount; inside a transaction every read is
// already version-tracked.
func (r accountRepo) GetAccountForUpdate(ctx context.Context, id string) (*domain.Account, error) {
	return r.GetAccount(ctx, id)
}

func (r accountRepo) UpdateAccountBalances(ctx context.Context, account *domain.Account) error {
	err := r.s.modify(ctx, accountKey(account.ID), func(cur any) (any, error) {
		stored := cur.(domain.Account)
		stored.Balance = account.Balance
		stored.TotalInvested = account.TotalInvested
		stored.ActiveDeposits = account.ActiveDeposits
		stored.ReferralEarnings = account.ReferralEarnings
		stored.UpdatedAt = time.Now().UTC()
		return stored, nil
	})
	if stderrors.Is(err, errMissing) {
		return errors.ErrAccountNotFound
	}
	return err
}

func (r accountRepo) UpdateAccountStatus(ctx context.Context, id string, status domain.AccountStatus) error {
	err := r.s.modify(ctx, accountKey(id), func(cur any) (any, error) {
		stored := cur.(domain.Account)
		stored.Status = status
		stored.UpdatedAt = time.Now().UTC()
		return stored, nil
	})
	if stderrors.Is(err, errMissing) {
		return errors.ErrAccountNotFound
	}
	return err
}

func (r accountRepo) ListAccounts(ctx context.Context, filter domain.AccountFilter) ([]*domain.Account, error) {
	values, err := r.s.list(ctx, collAccounts)
	if err != nil {
		return nil, err
	}

	accounts := make([]*domain.Account, 0, len(values))
	for _, v := range values {
		account := v.(domain.Account)
		if filter.ReferredBy != "" && account.ReferredBy != filter.ReferredBy {
			continue
		}
		accounts = append(accounts, &account)
	}
	sort.SliceStable(accounts, func(i, j int) bool {
		return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
	})
	return accounts, nil
}

type depositRepo struct{ s *Store }

func depositKey(id uuid.UUID) docKey { return docKey{collDeposits, id.String()} }

func cloneDeposit(d domain.Deposit) *domain.Deposit {
	if d.ProcessedAt != nil {
		t := *d.ProcessedAt
		d.ProcessedAt = &t
	}
	return &d
}

func (r depositRepo) CreateDeposit(ctx context.Context, deposit *domain.Deposit) error {
	now := time.Now().UTC()
	if deposit.CreatedAt.IsZero() {
		deposit.CreatedAt = now
	}
	deposit.UpdatedAt = now

	err := r.s.create(ctx, depositKey(deposit.ID), *cloneDeposit(*deposit))
	if stderrors.Is(err, errDuplicate) {
		return errors.NewAppError(errors.InvalidInput, "deposit already exists")
	}
	return err
}

func (r depositRepo) GetDeposit(ctx context.Context, id uuid.UUID) (*domain.Deposit, error) {
	v, ok, err := r.s.get(ctx, depositKey(id))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.ErrDepositNotFound
	}
	return cloneDeposit(v.(domain.Deposit)), nil
}

func (r depositRepo) GetDepositForUpdate(ctx context.Context, id uuid.UUID) (*domain.Deposit, error) {
	return r.GetDeposit(ctx, id)
}

func (r depositRepo) MarkDepositProcessed(ctx context.Context, id uuid.UUID, update domain.ProcessedUpdate) error {
	err := r.s.modify(ctx, depositKey(id), func(cur any) (any, error) {
		stored := cur.(domain.Deposit)
		if stored.Status != domain.StatusPending {
			return nil, errors.ErrAlreadyProcessed
		}
		processedAt := update.ProcessedAt
		stored.Status = update.Status
		stored.ProcessedBy = update.ProcessedBy
		stored.ProcessedAt = &processedAt
		stored.UpdatedAt = processedAt
		return stored, nil
	})
	if stderrors.Is(err, errMissing) {
		return errors.ErrDepositNotFound
	}
	return err
}

func (r depositRepo) ListDeposits(ctx context.Context, filter domain.RequestFilter) ([]*domain.Deposit, error) {
	values, err := r.s.list(ctx, collDeposits)
	if err != nil {
		return nil, err
	}

	deposits := make([]*domain.Deposit, 0, len(values))
	for _, v := range values {
		d := v.(domain.Deposit)
		if filter.UserID != "" && d.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && d.Status != filter.Status {
			continue
		}
		deposits = append(deposits, cloneDeposit(d))
	}
	sort.SliceStable(deposits, func(i, j int) bool {
		return deposits[i].CreatedAt.After(deposits[j].CreatedAt)
	})
	return deposits, nil
}

type withdrawalRepo struct{ s *Store }

func withdrawalKey(id uuid.UUID) docKey { return docKey{collWithdrawals, id.String()} }

func cloneWithdrawal(w domain.Withdrawal) *domain.Withdrawal {
	if w.ProcessedAt != nil {
		t := *w.ProcessedAt
		w.ProcessedAt = &t
	}
	return &w
}

func (r withdrawalRepo) CreateWithdrawal(ctx context.Context, withdrawal *domain.Withdrawal) error {
	now := time.Now().UTC()
	if withdrawal.CreatedAt.IsZero() {
		withdrawal.CreatedAt = now
	}
	withdrawal.UpdatedAt = now

	err := r.s.create(ctx, withdrawalKey(withdrawal.ID), *cloneWithdrawal(*withdrawal))
	if stderrors.Is(err, errDuplicate) {
		return errors.NewAppError(errors.InvalidInput, "withdrawal already exists")
	}
	return err
}

func (r withdrawalRepo) GetWithdrawal(ctx context.Context, id uuid.UUID) (*domain.Withdrawal, error) {
	v, ok, err := r.s.get(ctx, withdrawalKey(id))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.ErrWithdrawalNotFound
	}
	return cloneWithdrawal(v.(domain.Withdrawal)), nil
}

func (r withdrawalRepo) GetWithdrawalForUpdate(ctx context.Context, id uuid.UUID) (*domain.Withdrawal, error) {
	return r.GetWithdrawal(ctx, id)
}

func (r withdrawalRepo) MarkWithdrawalProcessed(ctx context.Context, id uuid.UUID, update domain.ProcessedUpdate) error {
	err := r.s.modify(ctx, withdrawalKey(id), func(cur any) (any, error) {
		stored := cur.(domain.Withdrawal)
		if stored.Status != domain.StatusPending {
			return nil, errors.ErrAlreadyProcessed
		}
		processedAt := update.ProcessedAt
		stored.Status = update.Status
		stored.ProcessedBy = update.ProcessedBy
		stored.ProcessedAt = &processedAt
		stored.UpdatedAt = processedAt
		return stored, nil
	})
	if stderrors.Is(err, errMissing) {
		return errors.ErrWithdrawalNotFound
	}
	return err
}

func (r withdrawalRepo) ListWithdrawals(ctx context.Context, filter domain.RequestFilter) ([]*domain.Withdrawal, error) {
	values, err := r.s.list(ctx, collWithdrawals)
	if err != nil {
		return nil, err
	}

	withdrawals := make([]*domain.Withdrawal, 0, len(values))
	for _, v := range values {
		w := v.(domain.Withdrawal)
		if filter.UserID != "" && w.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && w.Status != filter.Status {
			continue
		}
		withdrawals = append(withdrawals, cloneWithdrawal(w))
	}
	sort.SliceStable(withdrawals, func(i, j int) bool {
		return withdrawals[i].CreatedAt.After(withdrawals[j].CreatedAt)
	})
	return withdrawals, nil
}

type investmentRepo struct{ s *Store }

func (r investmentRepo) CreateInvestment(ctx context.Context, investment *domain.Investment) error {
	if investment.CreatedAt.IsZero() {
		investment.CreatedAt = time.Now().UTC()
	}
	err := r.s.create(ctx, docKey{collInvestments, investment.ID.String()}, *investment)
	if stderrors.Is(err, errDuplicate) {
		return errors.NewAppError(errors.InvalidInput, "investment already exists")
	}
	return err
}

func (r investmentRepo) ListInvestments(ctx context.Context, filter domain.InvestmentFilter) ([]*domain.Investment, error) {
	values, err := r.s.list(ctx, collInvestments)
	if err != nil {
		return nil, err
	}

	investments := make([]*domain.Investment, 0, len(values))
	for _, v := range values {
		inv := v.(domain.Investment)
		if filter.UserID != "" && inv.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && inv.Status != filter.Status {
			continue
		}
		investments = append(investments, &inv)
	}
	sort.SliceStable(investments, func(i, j int) bool {
		return investments[i].CreatedAt.After(investments[j].CreatedAt)
	})
	return investments, nil
}

type settingsRepo struct{ s *Store }

var settingsKey = docKey{collSettings, domain.GlobalSettingsID}

func (r settingsRepo) GetSettings(ctx context.Context) (*domain.Settings, error) {
	v, ok, err := r.s.get(ctx, settingsKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.ErrNotFound
	}
	settings := v.(domain.Settings)
	return &settings, nil
}

func (r settingsRepo) SaveSettings(ctx context.Context, settings *domain.Settings) error {
	settings.UpdatedAt = time.Now().UTC()
	return r.s.upsert(ctx, settingsKey, *settings)
}
