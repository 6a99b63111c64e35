package schedule

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/moneta/backend/internal/domain/ledger"
	"github.com/moneta/backend/internal/domain/liability"
	"github.com/moneta/backend/internal/domain/schedule"
	"github.com/moneta/backend/internal/domain/shared"
)

// calendarExpansionLimit caps occurrences per schedule in a calendar window
const calendarExpansionLimit = 366

// Service handles scheduled transactions: CRUD, posting, calendar
// expansion and generation from liabilities.
type Service struct {
	scheduleRepo  schedule.ScheduledTransactionRepository
	txnRepo       ledger.TransactionRepository
	accountRepo   ledger.AccountRepository
	liabilityRepo liability.Repository
	logger        *zap.Logger
}

// NewService creates a new schedule service
func NewService(
	scheduleRepo schedule.ScheduledTransactionRepository,
	txnRepo ledger.TransactionRepository,
	accountRepo ledger.AccountRepository,
	liabilityRepo liability.Repository,
	logger *zap.Logger,
) *Service {
	return &Service{
		scheduleRepo:  scheduleRepo,
		txnRepo:       txnRepo,
		accountRepo:   accountRepo,
		liabilityRepo: liabilityRepo,
		logger:        logger,
	}
}

// Create creates a scheduled transaction
func (s *Service) Create(ctx context.Context, input CreateScheduleInput) (*schedule.ScheduledTransaction, error) {
	account, err := s.accountRepo.FindByIDForUser(ctx, input.UserID, input.AccountID)
	if err != nil {
		return nil, shared.NewDomainError("ACCOUNT_NOT_FOUND", "Account not found")
	}

	currency := input.Currency
	if currency == "" {
		currency = account.Currency
	}

	if input.Type == schedule.ScheduledTypeTransfer {
		if input.CounterAccountID == nil {
			return nil, shared.NewDomainError("INVALID_TRANSFER", "Transfers require a counter account")
		}
		if _, err := s.accountRepo.FindByIDForUser(ctx, input.UserID, *input.CounterAccountID); err != nil {
			return nil, shared.NewDomainError("ACCOUNT_NOT_FOUND", "Counter account not found")
		}
	}

	st, err := schedule.NewScheduledTransaction(input.UserID, input.AccountID, input.Type,
		input.Amount, currency, input.Rule, input.FirstDue)
	if err != nil {
		return nil, err
	}
	st.CategoryID = input.CategoryID
	st.CounterAccountID = input.CounterAccountID
	st.Payee = input.Payee
	st.AutoPost = input.AutoPost
	st.Notes = input.Notes

	if err := s.scheduleRepo.Save(ctx, st); err != nil {
		s.logger.Error("Failed to save schedule", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to create scheduled transaction")
	}

	s.logger.Info("Schedule created",
		zap.String("schedule_id", st.ID.String()),
		zap.String("frequency", string(st.Rule.Frequency)),
		zap.String("next_due", st.NextDueDate.Format("2006-01-02")))
	return st, nil
}

// Update changes the mutable fields of a schedule
func (s *Service) Update(ctx context.Context, input UpdateScheduleInput) (*schedule.ScheduledTransaction, error) {
	st, err := s.scheduleRepo.FindByIDForUser(ctx, input.UserID, input.ID)
	if err != nil {
		return nil, shared.NewDomainError("SCHEDULE_NOT_FOUND", "Scheduled transaction not found")
	}

	if err := st.Update(input.Amount, input.Payee, input.Rule, input.NextDue, input.AutoPost); err != nil {
		return nil, err
	}

	if err := s.scheduleRepo.Save(ctx, st); err != nil {
		s.logger.Error("Failed to save updated schedule", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to update scheduled transaction")
	}
	return st, nil
}

// Get returns a schedule owned by the user
func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*schedule.ScheduledTransaction, error) {
	st, err := s.scheduleRepo.FindByIDForUser(ctx, userID, id)
	if err != nil {
		return nil, shared.NewDomainError("SCHEDULE_NOT_FOUND", "Scheduled transaction not found")
	}
	return st, nil
}

// List returns the user's schedules, paginated and filtered
func (s *Service) List(ctx context.Context, userID uuid.UUID, filter shared.Filter) (*shared.Paginated[schedule.ScheduledTransaction], error) {
	items, err := s.scheduleRepo.FindAllForUser(ctx, userID, filter)
	if err != nil {
		s.logger.Error("Failed to list schedules", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list scheduled transactions")
	}
	total, err := s.scheduleRepo.CountForUser(ctx, userID, filter)
	if err != nil {
		s.logger.Error("Failed to count schedules", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list scheduled transactions")
	}
	result := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &result, nil
}

// Delete removes a schedule. Already-posted transactions stay in the ledger.
func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.scheduleRepo.FindByIDForUser(ctx, userID, id); err != nil {
		return shared.NewDomainError("SCHEDULE_NOT_FOUND", "Scheduled transaction not found")
	}
	if err := s.scheduleRepo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete schedule", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to delete scheduled transaction")
	}
	s.logger.Info("Schedule deleted", zap.String("schedule_id", id.String()))
	return nil
}

// Pause suspends an active schedule
func (s *Service) Pause(ctx context.Context, userID, id uuid.UUID) (*schedule.ScheduledTransaction, error) {
	return s.transition(ctx, userID, id, (*schedule.ScheduledTransaction).Pause)
}

// Resume reactivates a paused schedule
func (s *Service) Resume(ctx context.Context, userID, id uuid.UUID) (*schedule.ScheduledTransaction, error) {
	return s.transition(ctx, userID, id, (*schedule.ScheduledTransaction).Resume)
}

// Skip advances the due date one period without posting anything
func (s *Service) Skip(ctx context.Context, userID, id uuid.UUID) (*schedule.ScheduledTransaction, error) {
	return s.transition(ctx, userID, id, (*schedule.ScheduledTransaction).Skip)
}

func (s *Service) transition(ctx context.Context, userID, id uuid.UUID, op func(*schedule.ScheduledTransaction) error) (*schedule.ScheduledTransaction, error) {
	st, err := s.scheduleRepo.FindByIDForUser(ctx, userID, id)
	if err != nil {
		return nil, shared.NewDomainError("SCHEDULE_NOT_FOUND", "Scheduled transaction not found")
	}
	if err := op(st); err != nil {
		return nil, err
	}
	if err := s.scheduleRepo.Save(ctx, st); err != nil {
		s.logger.Error("Failed to save schedule", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to update scheduled transaction")
	}
	return st, nil
}

// Complete posts the current occurrence to the ledger and advances the due
// date. One-time schedules finish.
func (s *Service) Complete(ctx context.Context, input CompleteInput) (*schedule.ScheduledTransaction, error) {
	st, err := s.scheduleRepo.FindByIDForUser(ctx, input.UserID, input.ID)
	if err != nil {
		return nil, shared.NewDomainError("SCHEDULE_NOT_FOUND", "Scheduled transaction not found")
	}
	if st.Status != schedule.ScheduleStatusActive {
		return nil, shared.NewDomainError("INVALID_STATE", "Only active schedules can be completed")
	}

	postedOn := input.PostedOn
	if postedOn.IsZero() {
		postedOn = st.NextDueDate
	}

	if err := s.post(ctx, st, postedOn); err != nil {
		return nil, err
	}

	if err := st.Complete(); err != nil {
		return nil, err
	}
	if err := s.scheduleRepo.Save(ctx, st); err != nil {
		s.logger.Error("Failed to advance schedule after posting",
			zap.String("schedule_id", st.ID.String()),
			zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to complete scheduled transaction")
	}

	s.logger.Info("Schedule occurrence posted",
		zap.String("schedule_id", st.ID.String()),
		zap.String("posted_on", postedOn.Format("2006-01-02")),
		zap.String("status", string(st.Status)))
	return st, nil
}

// post writes the ledger entries for one occurrence and adjusts balances.
// Transfers produce a second, opposite entry on the counter account.
func (s *Service) post(ctx context.Context, st *schedule.ScheduledTransaction, postedOn time.Time) error {
	txn, err := ledger.NewScheduledPosting(st.UserID, st.AccountID, st.ID,
		st.SignedAmount(), st.Currency, postedOn, st.Payee)
	if err != nil {
		return err
	}
	if st.CategoryID != nil {
		txn.Categorize(*st.CategoryID)
	}
	if err := s.txnRepo.Save(ctx, txn); err != nil {
		s.logger.Error("Failed to post scheduled transaction", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to post scheduled transaction")
	}
	s.adjustBalance(ctx, st.AccountID, txn.Amount)

	if st.Type == schedule.ScheduledTypeTransfer && st.CounterAccountID != nil {
		counter, err := ledger.NewScheduledPosting(st.UserID, *st.CounterAccountID, st.ID,
			st.Amount, st.Currency, postedOn, st.Payee)
		if err != nil {
			return err
		}
		if err := s.txnRepo.Save(ctx, counter); err != nil {
			s.logger.Error("Failed to post transfer counter entry", zap.Error(err))
			return shared.NewDomainError("INTERNAL_ERROR", "Failed to post scheduled transaction")
		}
		s.adjustBalance(ctx, *st.CounterAccountID, counter.Amount)
	}
	return nil
}

func (s *Service) adjustBalance(ctx context.Context, accountID uuid.UUID, delta decimal.Decimal) {
	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		s.logger.Error("Failed to load account for balance adjustment",
			zap.String("account_id", accountID.String()),
			zap.Error(err))
		return
	}
	account.Adjust(delta)
	if err := s.accountRepo.Save(ctx, account); err != nil {
		s.logger.Error("Failed to save adjusted account balance",
			zap.String("account_id", accountID.String()),
			zap.Error(err))
	}
}

// Calendar expands all active schedules of the user into dated events
// within [from, to], sorted by date.
func (s *Service) Calendar(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]CalendarEvent, error) {
	if to.Before(from) {
		return nil, shared.NewDomainError("INVALID_RANGE", "Calendar range end precedes start")
	}

	schedules, err := s.scheduleRepo.FindActiveForUser(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to load active schedules", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to build calendar")
	}

	events := make([]CalendarEvent, 0)
	for i := range schedules {
		st := &schedules[i]
		for _, date := range schedule.OccurrencesBetween(st.Rule, st.NextDueDate, from, to, calendarExpansionLimit) {
			events = append(events, CalendarEvent{
				Date:       date,
				ScheduleID: st.ID,
				AccountID:  st.AccountID,
				Type:       st.Type,
				Payee:      st.Payee,
				Amount:     st.SignedAmount(),
				Currency:   st.Currency,
				AutoPost:   st.AutoPost,
			})
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date.Before(events[j].Date)
	})
	return events, nil
}

// GenerateFromLiabilities creates the monthly payment schedule for each
// active liability that has a payment account and no schedule yet.
// Idempotent: liabilities already backed by a schedule are skipped.
func (s *Service) GenerateFromLiabilities(ctx context.Context, userID uuid.UUID) (*GenerateResult, error) {
	liabilities, err := s.liabilityRepo.FindActiveForUser(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to load liabilities", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate schedules")
	}

	result := &GenerateResult{}
	for i := range liabilities {
		l := &liabilities[i]
		if l.AccountID == nil {
			result.Skipped++
			continue
		}

		existing, err := s.scheduleRepo.FindByLiability(ctx, l.ID)
		if err == nil && existing != nil {
			result.Skipped++
			continue
		}

		firstDue := nextPaymentDate(l.PaymentDay, l.StartsOn, time.Now())
		st, err := schedule.NewFromLiability(userID, *l.AccountID, l.ID,
			l.Name, l.Installment, l.Currency, l.PaymentDay, firstDue)
		if err != nil {
			s.logger.Error("Failed to build schedule from liability",
				zap.String("liability_id", l.ID.String()),
				zap.Error(err))
			return nil, err
		}

		if err := s.scheduleRepo.Save(ctx, st); err != nil {
			s.logger.Error("Failed to save generated schedule", zap.Error(err))
			return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate schedules")
		}
		result.Created++

		s.logger.Info("Schedule generated from liability",
			zap.String("liability_id", l.ID.String()),
			zap.String("schedule_id", st.ID.String()),
			zap.String("first_due", firstDue.Format("2006-01-02")))
	}
	return result, nil
}

// SweepDue posts every active auto-post schedule whose due date has
// arrived, across all users. Called by the daily background job; returns
// the number of schedules posted.
func (s *Service) SweepDue(ctx context.Context, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 100
	}

	due, err := s.scheduleRepo.FindDue(ctx, time.Now(), batchSize)
	if err != nil {
		return 0, err
	}

	posted := 0
	for i := range due {
		st := &due[i]
		postedOn := st.NextDueDate

		if err := s.post(ctx, st, postedOn); err != nil {
			s.logger.Error("Sweep failed to post schedule",
				zap.String("schedule_id", st.ID.String()),
				zap.Error(err))
			continue
		}
		if err := st.Complete(); err != nil {
			s.logger.Error("Sweep failed to advance schedule",
				zap.String("schedule_id", st.ID.String()),
				zap.Error(err))
			continue
		}
		if err := s.scheduleRepo.Save(ctx, st); err != nil {
			s.logger.Error("Sweep failed to save schedule",
				zap.String("schedule_id", st.ID.String()),
				zap.Error(err))
			continue
		}
		posted++
	}
	return posted, nil
}

// nextPaymentDate returns the first occurrence of paymentDay on or after
// both startsOn and now. paymentDay is 1..28 so every month qualifies.
func nextPaymentDate(paymentDay int, startsOn, now time.Time) time.Time {
	base := now
	if startsOn.After(now) {
		base = startsOn
	}
	candidate := time.Date(base.Year(), base.Month(), paymentDay, 0, 0, 0, 0, base.Location())
	if candidate.Before(time.Date(base.Year(), base.Month(), base.Day(), 0, 0, 0, 0, base.Location())) {
		candidate = candidate.AddDate(0, 1, 0)
	}
	return candidate
}
