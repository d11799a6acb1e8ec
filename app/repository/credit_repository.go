package repository

import (
	"context"

	"github.com/trendhack/dashboard/app/models"
	"github.com/trendhack/dashboard/internal/pkg/credits"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type creditRepository struct {
	db *gorm.DB
}

// NewCreditRepository creates a ledger repository instance
func NewCreditRepository(db *gorm.DB) CreditRepository {
	return &creditRepository{db: db}
}

// Balance is the sum of all ledger amounts of a user
func (r *creditRepository) Balance(ctx context.Context, userID uint) (int, error) {
	return ledgerSum(r.db.WithContext(ctx), userID)
}

// Spent is the sum of all debits of a user, as a positive number
func (r *creditRepository) Spent(ctx context.Context, userID uint) (int, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.CreditEntry{}).
		Select("COALESCE(SUM(-amount), 0)").
		Where("user_id = ? AND amount < 0", userID).
		Scan(&total).Error
	return int(total), err
}

// SpendForRequest inserts the request and its debit if the user can afford
// it. The user row is locked for the duration so concurrent submissions of
// one user are checked against each other's debits.
func (r *creditRepository) SpendForRequest(ctx context.Context, request *models.ExtractionRequest) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			First(&user, request.UserID).Error; err != nil {
			return err
		}

		available, err := ledgerSum(tx, request.UserID)
		if err != nil {
			return err
		}
		if err := credits.Check(request.Cost, available); err != nil {
			return err
		}

		if err := tx.Create(request).Error; err != nil {
			return err
		}
		if request.Cost <= 0 {
			return nil
		}
		requestID := request.ID
		return tx.Create(&models.CreditEntry{
			UserID:    request.UserID,
			Amount:    -request.Cost,
			Reason:    models.CreditReasonRequest,
			RequestID: &requestID,
		}).Error
	})
}

func ledgerSum(db *gorm.DB, userID uint) (int, error) {
	var total int64
	err := db.Model(&models.CreditEntry{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ?", userID).
		Scan(&total).Error
	return int(total), err
}
