package repository

import (
	"context"

	"github.com/trendhack/dashboard/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a payment repository instance
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

// ListPaid returns one page of a user's paid payments, newest first
func (r *paymentRepository) ListPaid(ctx context.Context, userID uint, offset, limit int) ([]models.Payment, int64, error) {
	db := r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("user_id = ? AND status = ?", userID, models.PaymentStatusPaid)

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var payments []models.Payment
	err := db.Order("created_at DESC").Order("id DESC").Offset(offset).Limit(limit).Find(&payments).Error
	return payments, total, err
}

// Record stores a payment once per reference, as pending when no status is
// reported. A later report with a new status updates the stored row unless
// it is already paid. The first time the stored row is paid a
// +gemas ledger entry is written; the unique payment_id on the ledger keeps
// that grant single.
func (r *paymentRepository) Record(ctx context.Context, payment *models.Payment) (*PaymentResult, error) {
	result := &PaymentResult{}
	reported := payment.Status
	if payment.Status == "" {
		payment.Status = models.PaymentStatusPending
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ins := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "reference"}},
			DoNothing: true,
		}).Create(payment)
		if ins.Error != nil {
			return ins.Error
		}
		result.Created = ins.RowsAffected > 0

		var stored models.Payment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("reference = ?", payment.Reference).
			First(&stored).Error; err != nil {
			return err
		}

		if !result.Created && stored.CanMoveTo(reported) {
			if err := tx.Model(&stored).Update("status", reported).Error; err != nil {
				return err
			}
			stored.Status = reported
		}
		result.Payment = &stored

		if !stored.IsPaid() || stored.Gemas <= 0 {
			return nil
		}
		paymentID := stored.ID
		grant := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "payment_id"}},
			DoNothing: true,
		}).Create(&models.CreditEntry{
			UserID:    stored.UserID,
			Amount:    stored.Gemas,
			Reason:    models.CreditReasonPayment,
			PaymentID: &paymentID,
		})
		if grant.Error != nil {
			return grant.Error
		}
		result.Granted = grant.RowsAffected > 0
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
