package models

import "time"

const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

// Payment is a provider charge recorded by the payment processor. Reference
// is the provider's session or invoice id.
type Payment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id" validate:"required"`
	PlanID    uint      `gorm:"index" json:"plan_id"`
	Value     int64     `gorm:"not null;default:0" json:"value" validate:"gte=0"`
	Method    string    `gorm:"type:varchar(50)" json:"method"`
	Gemas     int       `gorm:"not null;default:0" json:"gemas" validate:"gte=0"`
	Status    string    `gorm:"type:varchar(20);not null;default:'pending';index" json:"status" validate:"oneof=pending paid failed refunded"`
	Reference string    `gorm:"type:varchar(191);uniqueIndex;not null" json:"reference" validate:"required,max=191"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *Payment) IsPaid() bool {
	return p.Status == PaymentStatusPaid
}

// CanMoveTo reports whether a reported status replaces the stored one. An
// empty report keeps the row and a paid row is final.
func (p *Payment) CanMoveTo(status string) bool {
	return status != "" && status != p.Status && !p.IsPaid()
}
