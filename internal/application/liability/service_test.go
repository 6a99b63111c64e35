package liability

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/moneta/backend/internal/domain/ledger"
	"github.com/moneta/backend/internal/domain/liability"
	"github.com/moneta/backend/internal/domain/schedule"
	"github.com/moneta/backend/internal/domain/shared"
)

type serviceMocks struct {
	liabilities *MockLiabilityRepository
	accounts    *MockAccountRepository
	schedules   *MockScheduleRepository
}

func newTestService() (*Service, *serviceMocks) {
	m := &serviceMocks{
		liabilities: new(MockLiabilityRepository),
		accounts:    new(MockAccountRepository),
		schedules:   new(MockScheduleRepository),
	}
	return NewService(m.liabilities, m.accounts, m.schedules, zap.NewNop()), m
}

func newTestLiability(t *testing.T, userID uuid.UUID) *liability.Liability {
	t.Helper()
	l, err := liability.NewLiability(userID, "Car Loan", liability.KindLoan,
		decimal.NewFromInt(12000), decimal.NewFromInt(250), "EUR", 15,
		time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return l
}

func TestService_Create(t *testing.T) {
	svc, m := newTestService()
	userID := uuid.New()
	account, err := ledger.NewAccount(userID, "Checking", ledger.AccountTypeChecking, "EUR")
	require.NoError(t, err)

	m.accounts.On("FindByIDForUser", mock.Anything, userID, account.ID).Return(account, nil)
	m.liabilities.On("Save", mock.Anything, mock.AnythingOfType("*liability.Liability")).Return(nil)

	l, err := svc.Create(context.Background(), CreateLiabilityInput{
		UserID:       userID,
		Name:         "Car Loan",
		Kind:         liability.KindLoan,
		Principal:    decimal.NewFromInt(12000),
		InterestRate: decimal.NewFromFloat(4.5),
		Installment:  decimal.NewFromInt(250),
		Currency:     "EUR",
		PaymentDay:   15,
		StartsOn:     time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		AccountID:    &account.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, liability.StatusActive, l.Status)
	assert.True(t, l.InterestRate.Equal(decimal.NewFromFloat(4.5)))
	require.NotNil(t, l.AccountID)
	assert.Equal(t, account.ID, *l.AccountID)
}

func TestService_Create_UnknownAccount(t *testing.T) {
	svc, m := newTestService()
	userID := uuid.New()
	accountID := uuid.New()

	m.accounts.On("FindByIDForUser", mock.Anything, userID, accountID).Return(nil, shared.ErrNotFound)

	_, err := svc.Create(context.Background(), CreateLiabilityInput{
		UserID:      userID,
		Name:        "Car Loan",
		Kind:        liability.KindLoan,
		Principal:   decimal.NewFromInt(12000),
		Installment: decimal.NewFromInt(250),
		Currency:    "EUR",
		PaymentDay:  15,
		StartsOn:    time.Now(),
		AccountID:   &accountID,
	})
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "ACCOUNT_NOT_FOUND", domainErr.Code)
}

func TestService_Create_InvalidPaymentDay(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), CreateLiabilityInput{
		UserID:      uuid.New(),
		Name:        "Car Loan",
		Kind:        liability.KindLoan,
		Principal:   decimal.NewFromInt(12000),
		Installment: decimal.NewFromInt(250),
		Currency:    "EUR",
		PaymentDay:  31,
		StartsOn:    time.Now(),
	})
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_PAYMENT_DAY", domainErr.Code)
}

func TestService_Update_SyncsBackingSchedule(t *testing.T) {
	svc, m := newTestService()
	userID := uuid.New()
	l := newTestLiability(t, userID)

	st, err := schedule.NewFromLiability(userID, uuid.New(), l.ID, l.Name,
		l.Installment, l.Currency, l.PaymentDay, time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	m.liabilities.On("FindByIDForUser", mock.Anything, userID, l.ID).Return(l, nil)
	m.liabilities.On("Save", mock.Anything, l).Return(nil)
	m.schedules.On("FindByLiability", mock.Anything, l.ID).Return(st, nil)
	m.schedules.On("Save", mock.Anything, st).Return(nil)

	updated, err := svc.Update(context.Background(), UpdateLiabilityInput{
		UserID:      userID,
		ID:          l.ID,
		Name:        "Car Loan refinanced",
		Installment: decimal.NewFromInt(200),
		PaymentDay:  10,
	})
	require.NoError(t, err)
	assert.Equal(t, "Car Loan refinanced", updated.Name)
	// Backing schedule follows the new installment and payment day
	assert.True(t, st.Amount.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, 10, st.Rule.DayOfMonth)
	assert.Equal(t, "Car Loan refinanced", st.Payee)
}

func TestService_Update_NoBackingSchedule(t *testing.T) {
	svc, m := newTestService()
	userID := uuid.New()
	l := newTestLiability(t, userID)

	m.liabilities.On("FindByIDForUser", mock.Anything, userID, l.ID).Return(l, nil)
	m.liabilities.On("Save", mock.Anything, l).Return(nil)
	m.schedules.On("FindByLiability", mock.Anything, l.ID).Return(nil, shared.ErrNotFound)

	_, err := svc.Update(context.Background(), UpdateLiabilityInput{
		UserID:      userID,
		ID:          l.ID,
		Name:        l.Name,
		Installment: decimal.NewFromInt(300),
		PaymentDay:  15,
	})
	require.NoError(t, err)
	m.schedules.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestService_Get_ComputesRemainingBalance(t *testing.T) {
	svc, m := newTestService()
	userID := uuid.New()
	l := newTestLiability(t, userID)

	m.liabilities.On("FindByIDForUser", mock.Anything, userID, l.ID).Return(l, nil)

	detail, err := svc.Get(context.Background(), userID, l.ID)
	require.NoError(t, err)
	assert.True(t, detail.RemainingBalance.LessThan(l.Principal),
		"months have elapsed since the start date, so some principal is paid off")
	assert.True(t, detail.RemainingBalance.GreaterThan(decimal.Zero))
}

func TestService_Get_NotFound(t *testing.T) {
	svc, m := newTestService()
	userID := uuid.New()
	id := uuid.New()

	m.liabilities.On("FindByIDForUser", mock.Anything, userID, id).Return(nil, shared.ErrNotFound)

	_, err := svc.Get(context.Background(), userID, id)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "LIABILITY_NOT_FOUND", domainErr.Code)
}

func TestService_List(t *testing.T) {
	svc, m := newTestService()
	userID := uuid.New()
	l := newTestLiability(t, userID)
	filter := shared.DefaultFilter()

	m.liabilities.On("FindAllForUser", mock.Anything, userID, filter).
		Return([]liability.Liability{*l}, nil)
	m.liabilities.On("CountForUser", mock.Anything, userID, filter).Return(int64(1), nil)

	result, err := svc.List(context.Background(), userID, filter)
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, int64(1), result.Total)
	assert.False(t, result.Items[0].RemainingBalance.Equal(l.Principal))
}

func TestService_Close_RemovesBackingSchedule(t *testing.T) {
	svc, m := newTestService()
	userID := uuid.New()
	l := newTestLiability(t, userID)

	st, err := schedule.NewFromLiability(userID, uuid.New(), l.ID, l.Name,
		l.Installment, l.Currency, l.PaymentDay, time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	m.liabilities.On("FindByIDForUser", mock.Anything, userID, l.ID).Return(l, nil)
	m.liabilities.On("Save", mock.Anything, l).Return(nil)
	m.schedules.On("FindByLiability", mock.Anything, l.ID).Return(st, nil)
	m.schedules.On("Delete", mock.Anything, st.ID).Return(nil)

	closed, err := svc.Close(context.Background(), userID, l.ID)
	require.NoError(t, err)
	assert.Equal(t, liability.StatusClosed, closed.Status)
	assert.True(t, closed.RemainingBalance(time.Now()).IsZero())
	m.schedules.AssertCalled(t, "Delete", mock.Anything, st.ID)
}

func TestService_Close_AlreadyClosed(t *testing.T) {
	svc, m := newTestService()
	userID := uuid.New()
	l := newTestLiability(t, userID)
	require.NoError(t, l.Close())

	m.liabilities.On("FindByIDForUser", mock.Anything, userID, l.ID).Return(l, nil)

	_, err := svc.Close(context.Background(), userID, l.ID)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "ALREADY_CLOSED", domainErr.Code)
}

func TestService_Delete_RemovesBackingSchedule(t *testing.T) {
	svc, m := newTestService()
	userID := uuid.New()
	l := newTestLiability(t, userID)

	st, err := schedule.NewFromLiability(userID, uuid.New(), l.ID, l.Name,
		l.Installment, l.Currency, l.PaymentDay, time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	m.liabilities.On("FindByIDForUser", mock.Anything, userID, l.ID).Return(l, nil)
	m.schedules.On("FindByLiability", mock.Anything, l.ID).Return(st, nil)
	m.schedules.On("Delete", mock.Anything, st.ID).Return(nil)
	m.liabilities.On("Delete", mock.Anything, l.ID).Return(nil)

	require.NoError(t, svc.Delete(context.Background(), userID, l.ID))
	m.liabilities.AssertCalled(t, "Delete", mock.Anything, l.ID)
}
