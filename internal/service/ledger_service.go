package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"investment-ledger/internal/domain"
	"investment-ledger/internal/errors"
	"investment-ledger/internal/events"
	"investment-ledger/internal/metrics"
)

// LedgerService runs the balance transitions. Each transition gathers its
// reads, validates, then writes, all inside one store transaction.
type LedgerService struct {
	store     domain.Store
	plans     *domain.PlanTable
	publisher events.Publisher
	logger    *zap.Logger
}

func NewLedgerService(
	store domain.Store,
	plans *domain.PlanTable,
	publisher events.Publisher,
	logger *zap.Logger,
) *LedgerService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &LedgerService{
		store:     store,
		plans:     plans,
		publisher: publisher,
		logger:    logger,
	}
}

// ProcessDeposit moves a pending deposit to approved or rejected. Approval
// credits the owner and, on their first approved deposit, pays the referral
// bonus to the referrer.
func (s *LedgerService) ProcessDeposit(
	ctx context.Context,
	actor domain.Actor,
	id uuid.UUID,
	status domain.RequestStatus,
) (*domain.Deposit, error) {
	if !status.Terminal() {
		return nil, errors.ErrInvalidStatus
	}

	s.logger.Info("Processing deposit",
		zap.Stringer("deposit_id", id),
		zap.String("status", string(status)),
		zap.String("actor_id", actor.UserID))

	var (
		deposit  *domain.Deposit
		account  *domain.Account
		referrer *domain.Account
		bonus    decimal.Decimal
	)

	err := s.store.WithTransaction(ctx, func(tx domain.Store) error {
		referrer, bonus = nil, decimal.Zero

		var err error
		deposit, err = tx.Deposits().GetDepositForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if deposit.Status != domain.StatusPending {
			return errors.ErrAlreadyProcessed
		}

		account, err = tx.Accounts().GetAccountForUpdate(ctx, deposit.UserID)
		if err != nil {
			return err
		}

		approve := status == domain.StatusApproved
		if approve && domain.ReferralEligible(account) && account.ReferredBy != account.ID {
			referrer, err = tx.Accounts().GetAccountForUpdate(ctx, account.ReferredBy)
			if errors.IsNotFound(err) {
				s.logger.Warn("Referrer not found, skipping bonus",
					zap.String("account_id", account.ID),
					zap.String("referrer_id", account.ReferredBy))
				referrer, err = nil, nil
			}
			if err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		if err := tx.Deposits().MarkDepositProcessed(ctx, id, domain.ProcessedUpdate{
			Status:      status,
			ProcessedBy: actor.UserID,
			ProcessedAt: now,
		}); err != nil {
			return err
		}
		deposit.Status = status
		deposit.ProcessedBy = actor.UserID
		deposit.ProcessedAt = &now

		if !approve {
			return nil
		}

		account.Balance = account.Balance.Add(deposit.Amount)
		account.TotalInvested = account.TotalInvested.Add(deposit.Amount)
		account.ActiveDeposits = account.ActiveDeposits.Add(decimal.NewFromInt(1))
		if err := tx.Accounts().UpdateAccountBalances(ctx, account); err != nil {
			return err
		}

		if referrer != nil {
			bonus = domain.ReferralBonus(deposit.Amount)
			referrer.Balance = referrer.Balance.Add(bonus)
			referrer.ReferralEarnings = referrer.ReferralEarnings.Add(bonus)
			if err := tx.Accounts().UpdateAccountBalances(ctx, referrer); err != nil {
				return err
			}
		}
		return nil
	})
	metrics.ObserveTransition("deposit", err)
	if err != nil {
		s.logger.Warn("Deposit processing failed", zap.Stringer("deposit_id", id), zap.Error(err))
		return nil, err
	}

	eventType := events.DepositRejected
	if status == domain.StatusApproved {
		eventType = events.DepositApproved
	}
	s.publish(ctx, &events.Event{
		Type:         eventType,
		UserID:       deposit.UserID,
		ReferenceID:  deposit.ID.String(),
		Status:       string(status),
		Amount:       deposit.Amount.String(),
		Currency:     string(deposit.Currency),
		BalanceAfter: account.Balance.String(),
		ActorID:      actor.UserID,
	})

	if referrer != nil {
		metrics.ReferralBonusesTotal.Inc()
		s.logger.Info("Referral bonus credited",
			zap.String("referrer_id", referrer.ID),
			zap.String("referee_id", account.ID),
			zap.Stringer("bonus", bonus))
		s.publish(ctx, &events.Event{
			Type:         events.ReferralBonus,
			UserID:       referrer.ID,
			ReferenceID:  deposit.ID.String(),
			Amount:       bonus.String(),
			BalanceAfter: referrer.Balance.String(),
			ActorID:      actor.UserID,
		})
	}

	s.logger.Info("Deposit processed",
		zap.Stringer("deposit_id", id),
		zap.String("status", string(status)))
	return deposit, nil
}

// ProcessWithdrawal moves a pending withdrawal to approved or rejected.
// Only approval reads the owning account, and it fails when the balance
// cannot cover the amount.
func (s *LedgerService) ProcessWithdrawal(
	ctx context.Context,
	actor domain.Actor,
	id uuid.UUID,
	status domain.RequestStatus,
) (*domain.Withdrawal, error) {
	if !status.Terminal() {
		return nil, errors.ErrInvalidStatus
	}

	s.logger.Info("Processing withdrawal",
		zap.Stringer("withdrawal_id", id),
		zap.String("status", string(status)),
		zap.String("actor_id", actor.UserID))

	var (
		withdrawal *domain.Withdrawal
		account    *domain.Account
	)

	err := s.store.WithTransaction(ctx, func(tx domain.Store) error {
		account = nil

		var err error
		withdrawal, err = tx.Withdrawals().GetWithdrawalForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if withdrawal.Status != domain.StatusPending {
			return errors.ErrAlreadyProcessed
		}

		approve := status == domain.StatusApproved
		if approve {
			account, err = tx.Accounts().GetAccountForUpdate(ctx, withdrawal.UserID)
			if err != nil {
				return err
			}
			if account.Balance.LessThan(withdrawal.Amount) {
				return errors.InsufficientBalanceError(account.Balance, withdrawal.Amount)
			}
		}

		now := time.Now().UTC()
		if err := tx.Withdrawals().MarkWithdrawalProcessed(ctx, id, domain.ProcessedUpdate{
			Status:      status,
			ProcessedBy: actor.UserID,
			ProcessedAt: now,
		}); err != nil {
			return err
		}
		withdrawal.Status = status
		withdrawal.ProcessedBy = actor.UserID
		withdrawal.ProcessedAt = &now

		if !approve {
			return nil
		}

		account.Balance = account.Balance.Sub(withdrawal.Amount)
		return tx.Accounts().UpdateAccountBalances(ctx, account)
	})
	metrics.ObserveTransition("withdrawal", err)
	if err != nil {
		s.logger.Warn("Withdrawal processing failed", zap.Stringer("withdrawal_id", id), zap.Error(err))
		return nil, err
	}

	event := &events.Event{
		Type:        events.WithdrawalRejected,
		UserID:      withdrawal.UserID,
		ReferenceID: withdrawal.ID.String(),
		Status:      string(status),
		Amount:      withdrawal.Amount.String(),
		Currency:    string(withdrawal.Method),
		ActorID:     actor.UserID,
	}
	if account != nil {
		event.Type = events.WithdrawalApproved
		event.BalanceAfter = account.Balance.String()
	}
	s.publish(ctx, event)

	s.logger.Info("Withdrawal processed",
		zap.Stringer("withdrawal_id", id),
		zap.String("status", string(status)))
	return withdrawal, nil
}

// PlaceInvestment debits the caller and opens an active position in the
// plan. The balance is checked once before the transaction and again
// against the transactional read.
func (s *LedgerService) PlaceInvestment(
	ctx context.Context,
	actor domain.Actor,
	planID string,
	amount decimal.Decimal,
) (*domain.Investment, error) {
	plan, ok := s.plans.Get(planID)
	if !ok {
		return nil, errors.ErrPlanNotFound
	}
	if !domain.ValidAmount(amount) {
		return nil, invalidAmount(amount)
	}
	if !plan.Accepts(amount) {
		return nil, errors.ErrInvalidAmount.WithDetails(
			"amount must be between " + plan.MinAmount.String() + " and " + plan.MaxAmount.String())
	}

	s.logger.Info("Placing investment",
		zap.String("user_id", actor.UserID),
		zap.String("plan_id", plan.ID),
		zap.Stringer("amount", amount))

	current, err := s.store.Accounts().GetAccount(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if !current.IsActive() {
		return nil, errors.ErrAccountDisabled
	}
	if current.Balance.LessThan(amount) {
		return nil, errors.InsufficientBalanceError(current.Balance, amount)
	}

	now := time.Now().UTC()
	investment := &domain.Investment{
		ID:        uuid.New(),
		UserID:    actor.UserID,
		UserEmail: current.Email,
		PlanID:    plan.ID,
		PlanName:  plan.Name,
		Amount:    amount,
		ROI:       plan.ROI,
		Status:    domain.InvestmentActive,
		StartDate: now,
		CreatedAt: now,
	}

	var account *domain.Account
	err = s.store.WithTransaction(ctx, func(tx domain.Store) error {
		var err error
		account, err = tx.Accounts().GetAccountForUpdate(ctx, actor.UserID)
		if err != nil {
			return err
		}
		if account.Balance.LessThan(amount) {
			return errors.InsufficientBalanceError(account.Balance, amount)
		}

		account.Balance = account.Balance.Sub(amount)
		account.ActiveDeposits = account.ActiveDeposits.Add(amount)
		if err := tx.Accounts().UpdateAccountBalances(ctx, account); err != nil {
			return err
		}
		return tx.Investments().CreateInvestment(ctx, investment)
	})
	metrics.ObserveTransition("investment", err)
	if err != nil {
		s.logger.Warn("Investment placement failed", zap.String("user_id", actor.UserID), zap.Error(err))
		return nil, err
	}

	s.publish(ctx, &events.Event{
		Type:         events.InvestmentPlaced,
		UserID:       actor.UserID,
		ReferenceID:  investment.ID.String(),
		Status:       string(investment.Status),
		Amount:       amount.String(),
		BalanceAfter: account.Balance.String(),
		ActorID:      actor.UserID,
	})

	s.logger.Info("Investment placed",
		zap.Stringer("investment_id", investment.ID),
		zap.String("plan_id", plan.ID))
	return investment, nil
}

// publish reports a committed transition. Failures are logged only.
func (s *LedgerService) publish(ctx context.Context, event *events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish event",
			zap.String("event_type", event.Type),
			zap.String("reference_id", event.ReferenceID),
			zap.Error(err))
	}
}
