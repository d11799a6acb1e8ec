package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/trendhack/dashboard/app/models"
	"github.com/trendhack/dashboard/internal/pkg/credits"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestProfileFindOrCreateReturnsStoredRow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProfileRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `profiles`").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT \\* FROM `profiles` WHERE username = \\? AND platform = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "platform", "platform_id"}).
			AddRow(42, "nasa", "instagram", 1))

	got, err := repo.FindOrCreate(context.Background(), &models.Profile{Username: "nasa", Platform: "instagram", PlatformID: 1})
	require.NoError(t, err)
	assert.Equal(t, uint(42), got.ID)
	assert.Equal(t, "nasa", got.Username)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSpendForRequestRejectsWhenBalanceTooLow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCreditRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT `id` FROM `users` .*FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(amount\\), 0\\) FROM `credit_entries`").
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(15))
	mock.ExpectRollback()

	req := &models.ExtractionRequest{UserID: 3, PlatformID: 1, ToolID: 1, Cost: 20, Status: models.RequestStatusSearching}
	err := repo.SpendForRequest(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, credits.ErrInsufficientCredits))

	var ice *credits.InsufficientCreditsError
	require.True(t, errors.As(err, &ice))
	assert.Equal(t, 20, ice.Required)
	assert.Equal(t, 15, ice.Available)
	assert.Zero(t, req.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSpendForRequestRejectsNegativeCost(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCreditRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT `id` FROM `users` .*FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(amount\\), 0\\) FROM `credit_entries`").
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(15))
	mock.ExpectRollback()

	req := &models.ExtractionRequest{UserID: 3, PlatformID: 1, ToolID: 1, Cost: -20, Status: models.RequestStatusSearching}
	err := repo.SpendForRequest(context.Background(), req)
	require.ErrorIs(t, err, credits.ErrCostOutOfRange)
	assert.Zero(t, req.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSpendForRequestInsertsRequestAndDebit(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCreditRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT `id` FROM `users` .*FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(amount\\), 0\\) FROM `credit_entries`").
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(30))
	mock.ExpectExec("INSERT INTO `extraction_requests`").WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec("INSERT INTO `credit_entries`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	req := &models.ExtractionRequest{UserID: 3, PlatformID: 1, ToolID: 1, ProfileIDs: models.IDList{4, 5}, Cost: 20, Status: models.RequestStatusSearching}
	require.NoError(t, repo.SpendForRequest(context.Background(), req))
	assert.Equal(t, uint(7), req.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRecordReplayWithoutStatusKeepsPaid(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPaymentRepository(db)
	cols := []string{"id", "user_id", "plan_id", "value", "method", "gemas", "status", "reference", "created_at"}

	// no status UPDATE is expected between the lock and the grant
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `payments`").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT \\* FROM `payments` WHERE reference = \\? .*FOR UPDATE").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(5, 9, 2, 4990, "card", 100, "paid", "cs_test_1", time.Now()))
	mock.ExpectExec("INSERT INTO `credit_entries`").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	res, err := repo.Record(context.Background(), &models.Payment{UserID: 9, Gemas: 100, Reference: "cs_test_1"})
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.False(t, res.Granted)
	assert.Equal(t, models.PaymentStatusPaid, res.Payment.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRecordGrantsOnce(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPaymentRepository(db)
	cols := []string{"id", "user_id", "plan_id", "value", "method", "gemas", "status", "reference", "created_at"}

	// first report: inserted and granted
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `payments`").WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectQuery("SELECT \\* FROM `payments` WHERE reference = \\? .*FOR UPDATE").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(5, 9, 2, 4990, "card", 100, "paid", "cs_test_1", time.Now()))
	mock.ExpectExec("INSERT INTO `credit_entries`").WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectCommit()

	// replay: nothing inserted, grant already present
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `payments`").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT \\* FROM `payments` WHERE reference = \\? .*FOR UPDATE").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(5, 9, 2, 4990, "card", 100, "paid", "cs_test_1", time.Now()))
	mock.ExpectExec("INSERT INTO `credit_entries`").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	newPayment := func() *models.Payment {
		return &models.Payment{UserID: 9, PlanID: 2, Value: 4990, Method: "card", Gemas: 100, Status: "paid", Reference: "cs_test_1"}
	}

	first, err := repo.Record(context.Background(), newPayment())
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.True(t, first.Granted)

	second, err := repo.Record(context.Background(), newPayment())
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.False(t, second.Granted)
	assert.Equal(t, uint(5), second.Payment.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRecordPendingDoesNotGrant(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPaymentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `payments`").WillReturnResult(sqlmock.NewResult(6, 1))
	mock.ExpectQuery("SELECT \\* FROM `payments` WHERE reference = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "gemas", "status", "reference"}).
			AddRow(6, 9, 100, "pending", "cs_test_2"))
	mock.ExpectCommit()

	res, err := repo.Record(context.Background(), &models.Payment{UserID: 9, Gemas: 100, Status: "pending", Reference: "cs_test_2"})
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.False(t, res.Granted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestUpdateStatusRefusesTerminal(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRequestRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `extraction_requests` SET `status`=\\?.*status NOT IN").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	ok, err := repo.UpdateStatus(context.Background(), 8, models.RequestStatusSaving)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestCountByStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRequestRepository(db)

	mock.ExpectQuery("SELECT status, COUNT\\(\\*\\) AS total FROM `extraction_requests`").
		WillReturnRows(sqlmock.NewRows([]string{"status", "total"}).
			AddRow(1, 2).
			AddRow(4, 5))

	got, err := repo.CountByStatus(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, map[int]int64{1: 2, 4: 5}, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAgentMutateRollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAgentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `video_agents` .*FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id", "video_id", "analysis", "simplified", "reply", "business"}).
			AddRow(1, 10, `{"status":"complete"}`, `{"status":"progress"}`, `{"status":"false"}`, ""))
	mock.ExpectRollback()

	boom := errors.New("illegal move")
	var seen models.AgentStatus
	_, err := repo.Mutate(context.Background(), 1, func(a *models.VideoAgent) error {
		seen = a.Simplified.Status
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, models.AgentStatusProgress, seen)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogPlatformsByIDsEmpty(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCatalogRepository(db)

	got, err := repo.PlatformsByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}
