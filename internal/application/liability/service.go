package liability

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/moneta/backend/internal/domain/ledger"
	"github.com/moneta/backend/internal/domain/liability"
	"github.com/moneta/backend/internal/domain/schedule"
	"github.com/moneta/backend/internal/domain/shared"
)

// Service handles liabilities and keeps their generated payment schedules
// consistent with the liability lifecycle.
type Service struct {
	liabilityRepo liability.Repository
	accountRepo   ledger.AccountRepository
	scheduleRepo  schedule.ScheduledTransactionRepository
	logger        *zap.Logger
}

// NewService creates a new liability service
func NewService(
	liabilityRepo liability.Repository,
	accountRepo ledger.AccountRepository,
	scheduleRepo schedule.ScheduledTransactionRepository,
	logger *zap.Logger,
) *Service {
	return &Service{
		liabilityRepo: liabilityRepo,
		accountRepo:   accountRepo,
		scheduleRepo:  scheduleRepo,
		logger:        logger,
	}
}

// Create creates a liability
func (s *Service) Create(ctx context.Context, input CreateLiabilityInput) (*liability.Liability, error) {
	if input.AccountID != nil {
		if _, err := s.accountRepo.FindByIDForUser(ctx, input.UserID, *input.AccountID); err != nil {
			return nil, shared.NewDomainError("ACCOUNT_NOT_FOUND", "Payment account not found")
		}
	}

	l, err := liability.NewLiability(input.UserID, input.Name, input.Kind,
		input.Principal, input.Installment, input.Currency, input.PaymentDay, input.StartsOn)
	if err != nil {
		return nil, err
	}
	if !input.InterestRate.IsZero() {
		if err := l.SetInterestRate(input.InterestRate); err != nil {
			return nil, err
		}
	}
	l.AccountID = input.AccountID
	l.Notes = input.Notes

	if err := s.liabilityRepo.Save(ctx, l); err != nil {
		s.logger.Error("Failed to save liability", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to create liability")
	}

	s.logger.Info("Liability created",
		zap.String("liability_id", l.ID.String()),
		zap.String("kind", string(l.Kind)))
	return l, nil
}

// Update changes the mutable fields of a liability. The backing schedule,
// if any, is updated to the new installment and payment day.
func (s *Service) Update(ctx context.Context, input UpdateLiabilityInput) (*liability.Liability, error) {
	l, err := s.liabilityRepo.FindByIDForUser(ctx, input.UserID, input.ID)
	if err != nil {
		return nil, shared.NewDomainError("LIABILITY_NOT_FOUND", "Liability not found")
	}

	if err := l.Update(input.Name, input.Installment, input.PaymentDay, input.Notes); err != nil {
		return nil, err
	}
	if err := s.liabilityRepo.Save(ctx, l); err != nil {
		s.logger.Error("Failed to save updated liability", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to update liability")
	}

	s.syncBackingSchedule(ctx, l)
	return l, nil
}

// syncBackingSchedule propagates installment and payment-day changes to the
// generated schedule. Failures are logged; the liability update stands.
func (s *Service) syncBackingSchedule(ctx context.Context, l *liability.Liability) {
	st, err := s.scheduleRepo.FindByLiability(ctx, l.ID)
	if err != nil || st == nil {
		return
	}
	rule := schedule.MonthlyRule(l.PaymentDay)
	if err := st.Update(l.Installment, l.Name, rule, st.NextDueDate, st.AutoPost); err != nil {
		s.logger.Warn("Backing schedule rejected liability update",
			zap.String("liability_id", l.ID.String()),
			zap.Error(err))
		return
	}
	if err := s.scheduleRepo.Save(ctx, st); err != nil {
		s.logger.Error("Failed to save backing schedule",
			zap.String("liability_id", l.ID.String()),
			zap.Error(err))
	}
}

// Get returns a liability with its derived remaining balance
func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*Detail, error) {
	l, err := s.liabilityRepo.FindByIDForUser(ctx, userID, id)
	if err != nil {
		return nil, shared.NewDomainError("LIABILITY_NOT_FOUND", "Liability not found")
	}
	return &Detail{
		Liability:        l,
		RemainingBalance: l.RemainingBalance(time.Now()),
	}, nil
}

// List returns the user's liabilities, paginated and filtered
func (s *Service) List(ctx context.Context, userID uuid.UUID, filter shared.Filter) (*shared.Paginated[Detail], error) {
	items, err := s.liabilityRepo.FindAllForUser(ctx, userID, filter)
	if err != nil {
		s.logger.Error("Failed to list liabilities", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list liabilities")
	}
	total, err := s.liabilityRepo.CountForUser(ctx, userID, filter)
	if err != nil {
		s.logger.Error("Failed to count liabilities", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list liabilities")
	}

	now := time.Now()
	details := make([]Detail, 0, len(items))
	for i := range items {
		details = append(details, Detail{
			Liability:        &items[i],
			RemainingBalance: items[i].RemainingBalance(now),
		})
	}
	result := shared.NewPaginated(details, total, filter.Page, filter.PageSize)
	return &result, nil
}

// Close marks the liability as paid off and removes its backing schedule
func (s *Service) Close(ctx context.Context, userID, id uuid.UUID) (*liability.Liability, error) {
	l, err := s.liabilityRepo.FindByIDForUser(ctx, userID, id)
	if err != nil {
		return nil, shared.NewDomainError("LIABILITY_NOT_FOUND", "Liability not found")
	}
	if err := l.Close(); err != nil {
		return nil, err
	}
	if err := s.liabilityRepo.Save(ctx, l); err != nil {
		s.logger.Error("Failed to save closed liability", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to close liability")
	}

	s.removeBackingSchedule(ctx, id)
	s.logger.Info("Liability closed", zap.String("liability_id", id.String()))
	return l, nil
}

// Delete removes a liability and its backing schedule. Posted installments
// stay in the ledger.
func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.liabilityRepo.FindByIDForUser(ctx, userID, id); err != nil {
		return shared.NewDomainError("LIABILITY_NOT_FOUND", "Liability not found")
	}

	s.removeBackingSchedule(ctx, id)

	if err := s.liabilityRepo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete liability", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to delete liability")
	}
	s.logger.Info("Liability deleted", zap.String("liability_id", id.String()))
	return nil
}

func (s *Service) removeBackingSchedule(ctx context.Context, liabilityID uuid.UUID) {
	st, err := s.scheduleRepo.FindByLiability(ctx, liabilityID)
	if err != nil || st == nil {
		return
	}
	if err := s.scheduleRepo.Delete(ctx, st.ID); err != nil {
		s.logger.Error("Failed to delete backing schedule",
			zap.String("liability_id", liabilityID.String()),
			zap.String("schedule_id", st.ID.String()),
			zap.Error(err))
	}
}
